package ports

import "go.trai.ch/hexmap/internal/core/domain"

// ConfigLoader defines the interface for loading the engine settings.
//
//go:generate mockgen -source=config_loader.go -destination=mocks/mock_config_loader.go -package=mocks
type ConfigLoader interface {
	// Load reads the configuration from the given working directory and returns the settings.
	// A missing config file yields domain.DefaultSettings with environment overrides applied.
	Load(cwd string) (domain.Settings, error)
}
