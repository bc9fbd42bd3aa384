package config

import (
	"context"
	"os"

	"github.com/grindlemire/graft"
	"go.trai.ch/hexmap/internal/adapters/logger"
	"go.trai.ch/hexmap/internal/core/domain"
	"go.trai.ch/hexmap/internal/core/ports"
	"go.trai.ch/zerr"
)

// NodeID is the unique identifier for the config loader Graft node.
const NodeID graft.ID = "adapter.config_loader"

// SettingsNodeID is the unique identifier for the loaded settings Graft node.
const SettingsNodeID graft.ID = "adapter.config.settings"

func init() {
	graft.Register(graft.Node[ports.ConfigLoader]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{logger.NodeID},
		Run: func(ctx context.Context) (ports.ConfigLoader, error) {
			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}
			return NewLoader(log), nil
		},
	})

	graft.Register(graft.Node[domain.Settings]{
		ID:        SettingsNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{NodeID, logger.NodeID},
		Run: func(ctx context.Context) (domain.Settings, error) {
			loader, err := graft.Dep[ports.ConfigLoader](ctx)
			if err != nil {
				return domain.Settings{}, err
			}
			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return domain.Settings{}, err
			}

			cwd, err := os.Getwd()
			if err != nil {
				return domain.Settings{}, zerr.Wrap(err, "failed to get working directory")
			}

			s, err := loader.Load(cwd)
			if err != nil {
				return domain.Settings{}, err
			}
			if l, ok := log.(*logger.Logger); ok {
				l.Configure(s)
			}
			return s, nil
		},
	})
}
