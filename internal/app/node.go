package app

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/hexmap/internal/adapters/config"    //nolint:depguard // Wired in app layer
	"go.trai.ch/hexmap/internal/adapters/logger"    //nolint:depguard // Wired in app layer
	"go.trai.ch/hexmap/internal/adapters/session"   //nolint:depguard // Wired in app layer
	"go.trai.ch/hexmap/internal/adapters/sqlite"    //nolint:depguard // Wired in app layer
	"go.trai.ch/hexmap/internal/adapters/telemetry" //nolint:depguard // Wired in app layer
	"go.trai.ch/hexmap/internal/adapters/viewstate" //nolint:depguard // Wired in app layer
	"go.trai.ch/hexmap/internal/core/domain"
	"go.trai.ch/hexmap/internal/core/ports"
	"go.trai.ch/hexmap/internal/engine/dragdrop"
	"go.trai.ch/hexmap/internal/engine/interaction"
	"go.trai.ch/hexmap/internal/engine/tilecache"
)

const (
	// AppNodeID is the unique identifier for the main App Graft node.
	AppNodeID graft.ID = "app.main"
	// ComponentsNodeID is the unique identifier for the App components Graft node.
	ComponentsNodeID graft.ID = "app.components"
)

func init() {
	// App Node
	graft.Register(graft.Node[*App]{
		ID:        AppNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			config.SettingsNodeID,
			tilecache.NodeID,
			interaction.NodeID,
			dragdrop.NodeID,
			viewstate.NodeID,
			telemetry.TracerNodeID,
			logger.NodeID,
		},
		Run: runAppNode,
	})

	// Components Node
	graft.Register(graft.Node[*Components]{
		ID:        ComponentsNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			AppNodeID,
			logger.NodeID,
			config.SettingsNodeID,
			sqlite.NodeID,
			session.NodeID,
		},
		Run: runComponentsNode,
	})
}

func runAppNode(ctx context.Context) (*App, error) {
	settings, err := graft.Dep[domain.Settings](ctx)
	if err != nil {
		return nil, err
	}

	store, err := graft.Dep[*tilecache.Store](ctx)
	if err != nil {
		return nil, err
	}

	tracker, err := graft.Dep[*interaction.Tracker](ctx)
	if err != nil {
		return nil, err
	}

	drag, err := graft.Dep[*dragdrop.Coordinator](ctx)
	if err != nil {
		return nil, err
	}

	views, err := graft.Dep[ports.ViewStateStore](ctx)
	if err != nil {
		return nil, err
	}

	tracer, err := graft.Dep[ports.Tracer](ctx)
	if err != nil {
		return nil, err
	}

	log, err := graft.Dep[ports.Logger](ctx)
	if err != nil {
		return nil, err
	}

	return New(store, tracker, drag, views, tracer, log, Options{
		PrefetchParallelism: settings.PrefetchParallelism,
	}), nil
}

func runComponentsNode(ctx context.Context) (*Components, error) {
	app, err := graft.Dep[*App](ctx)
	if err != nil {
		return nil, err
	}

	log, err := graft.Dep[ports.Logger](ctx)
	if err != nil {
		return nil, err
	}

	settings, err := graft.Dep[domain.Settings](ctx)
	if err != nil {
		return nil, err
	}

	repo, err := graft.Dep[*sqlite.Repository](ctx)
	if err != nil {
		return nil, err
	}

	sessions, err := graft.Dep[ports.SessionProvider](ctx)
	if err != nil {
		return nil, err
	}

	return NewComponents(app, log, settings, repo, sessions), nil
}
