package domain

// InteractionState holds the per-tile gesture flags. Every flag is independently settable.
type InteractionState struct {
	IsDragged  bool `json:"is_dragged,omitempty"`
	IsHovered  bool `json:"is_hovered,omitempty"`
	IsSelected bool `json:"is_selected,omitempty"`
	IsExpanded bool `json:"is_expanded,omitempty"`
	IsDragOver bool `json:"is_drag_over,omitempty"`
	// IsHovering is set on every tile whose subtree contains the pointer.
	IsHovering bool `json:"is_hovering,omitempty"`
}

// Zero reports whether no flag is set.
func (s InteractionState) Zero() bool {
	return s == InteractionState{}
}

// VisualStatus is the render hint derived from a cache entry.
type VisualStatus string

const (
	// VisualPlaceholder is shown for a tile that has not been requested yet.
	VisualPlaceholder VisualStatus = "placeholder"
	// VisualLoading is shown while a fetch is in flight.
	VisualLoading VisualStatus = "loading"
	// VisualReady is shown for a loaded tile.
	VisualReady VisualStatus = "ready"
	// VisualEmpty is shown for a slot vacated by a pending move or known to hold no tile.
	VisualEmpty VisualStatus = "empty"
	// VisualFailed is shown for a failed fetch; renderers offer a retry.
	VisualFailed VisualStatus = "failed"
)

// VisualFor maps a cache entry to its render hint.
func VisualFor(e CacheEntry) VisualStatus {
	switch e.Status {
	case FetchLoading:
		return VisualLoading
	case FetchReady:
		if e.Record == nil {
			return VisualEmpty
		}
		return VisualReady
	case FetchError:
		if e.Err == KindNotFound {
			return VisualEmpty
		}
		return VisualFailed
	default:
		return VisualPlaceholder
	}
}

// EffectiveState is what a renderer needs to draw one tile.
type EffectiveState struct {
	Coord      Coord            `json:"-"`
	Key        string           `json:"key"`
	TestID     string           `json:"test_id"`
	Visual     VisualStatus     `json:"visual"`
	Flags      InteractionState `json:"flags"`
	Optimistic bool             `json:"optimistic,omitempty"`
	Err        ErrorKind        `json:"error,omitempty"`
	Retryable  bool             `json:"retryable,omitempty"`
	Record     *TileRecord      `json:"record,omitempty"`
	// PendingChildren lists children of an expanded tile that are not Ready yet;
	// renderers draw a spinner placeholder for each.
	PendingChildren []Coord `json:"-"`
}
