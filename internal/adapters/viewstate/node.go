package viewstate

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/hexmap/internal/adapters/config"
	"go.trai.ch/hexmap/internal/core/domain"
	"go.trai.ch/hexmap/internal/core/ports"
)

// NodeID is the unique identifier for the view state store Graft node.
const NodeID graft.ID = "adapter.viewstate"

func init() {
	graft.Register(graft.Node[ports.ViewStateStore]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{config.SettingsNodeID},
		Run: func(ctx context.Context) (ports.ViewStateStore, error) {
			settings, err := graft.Dep[domain.Settings](ctx)
			if err != nil {
				return nil, err
			}
			return NewStore(settings.ViewStatePath)
		},
	})
}
