package ports

// ViewStateStore persists which tiles are expanded for each map.
//
//go:generate go run go.uber.org/mock/mockgen -source=viewstate.go -destination=mocks/mock_viewstate.go -package=mocks
type ViewStateStore interface {
	// Load returns the expanded tile keys saved for mapKey.
	// Returns nil, nil if nothing was saved.
	Load(mapKey string) ([]string, error)

	// Save replaces the expanded tile keys for mapKey.
	Save(mapKey string, expanded []string) error
}
