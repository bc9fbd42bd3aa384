package dragdrop

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/hexmap/internal/adapters/config"    //nolint:depguard // Wired in engine wiring
	"go.trai.ch/hexmap/internal/adapters/logger"    //nolint:depguard // Wired in engine wiring
	"go.trai.ch/hexmap/internal/adapters/session"   //nolint:depguard // Wired in engine wiring
	"go.trai.ch/hexmap/internal/adapters/sqlite"    //nolint:depguard // Wired in engine wiring
	"go.trai.ch/hexmap/internal/adapters/telemetry" //nolint:depguard // Wired in engine wiring
	"go.trai.ch/hexmap/internal/core/domain"
	"go.trai.ch/hexmap/internal/core/ports"
	"go.trai.ch/hexmap/internal/engine/interaction"
	"go.trai.ch/hexmap/internal/engine/tilecache"
)

// NodeID is the unique identifier for the drag/drop coordinator Graft node.
const NodeID graft.ID = "engine.dragdrop"

func init() {
	graft.Register(graft.Node[*Coordinator]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			config.SettingsNodeID,
			tilecache.NodeID,
			interaction.NodeID,
			session.NodeID,
			sqlite.NodeID,
			telemetry.TracerNodeID,
			logger.NodeID,
		},
		Run: runNode,
	})
}

func runNode(ctx context.Context) (*Coordinator, error) {
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

	sessions, err := graft.Dep[ports.SessionProvider](ctx)
	if err != nil {
		return nil, err
	}

	repo, err := graft.Dep[*sqlite.Repository](ctx)
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

	return New(store, tracker, sessions, repo, tracer, log, Options{MoveTimeout: settings.MoveTimeout}), nil
}
