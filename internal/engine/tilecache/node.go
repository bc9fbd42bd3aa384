package tilecache

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/hexmap/internal/adapters/config"    //nolint:depguard // Wired in engine wiring
	"go.trai.ch/hexmap/internal/adapters/logger"    //nolint:depguard // Wired in engine wiring
	"go.trai.ch/hexmap/internal/adapters/sqlite"    //nolint:depguard // Wired in engine wiring
	"go.trai.ch/hexmap/internal/adapters/telemetry" //nolint:depguard // Wired in engine wiring
	"go.trai.ch/hexmap/internal/core/domain"
	"go.trai.ch/hexmap/internal/core/ports"
)

// NodeID is the unique identifier for the tile cache Graft node.
const NodeID graft.ID = "engine.tilecache"

func init() {
	graft.Register(graft.Node[*Store]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			config.SettingsNodeID,
			sqlite.NodeID,
			telemetry.TracerNodeID,
			logger.NodeID,
		},
		Run: func(ctx context.Context) (*Store, error) {
			settings, err := graft.Dep[domain.Settings](ctx)
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

			return New(repo, tracer, log, OptionsFromSettings(settings)), nil
		},
	})
}
