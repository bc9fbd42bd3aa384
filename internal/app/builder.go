package app

import (
	"context"
	"errors"
	"io"

	"go.trai.ch/hexmap/internal/adapters/sqlite" //nolint:depguard // Wired in app layer
	"go.trai.ch/hexmap/internal/core/domain"
	"go.trai.ch/hexmap/internal/core/ports"
)

// Components contains all the initialized application components.
// This struct provides controlled access to components needed by the CLI layer.
type Components struct {
	App        *App
	Logger     ports.Logger
	Settings   domain.Settings
	Repository *sqlite.Repository
	Sessions   ports.SessionProvider
}

// NewComponents creates a new Components struct from dependencies.
func NewComponents(
	app *App,
	logger ports.Logger,
	settings domain.Settings,
	repo *sqlite.Repository,
	sessions ports.SessionProvider,
) *Components {
	return &Components{
		App:        app,
		Logger:     logger,
		Settings:   settings,
		Repository: repo,
		Sessions:   sessions,
	}
}

// Close closes the open map, flushes telemetry and releases the database and session connections.
func (c *Components) Close(ctx context.Context) error {
	var errs []error
	if err := c.App.Close(ctx); err != nil {
		errs = append(errs, err)
	}
	if err := c.App.Shutdown(ctx); err != nil {
		errs = append(errs, err)
	}
	if closer, ok := c.Sessions.(io.Closer); ok {
		if err := closer.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if c.Repository != nil {
		if err := c.Repository.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
