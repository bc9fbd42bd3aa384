package sqlite

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/hexmap/internal/adapters/config"
	"go.trai.ch/hexmap/internal/core/domain"
)

// NodeID is the unique identifier for the SQLite repository Graft node.
const NodeID graft.ID = "adapter.sqlite"

func init() {
	graft.Register(graft.Node[*Repository]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{config.SettingsNodeID},
		Run: func(ctx context.Context) (*Repository, error) {
			settings, err := graft.Dep[domain.Settings](ctx)
			if err != nil {
				return nil, err
			}
			return Open(settings.DatabasePath)
		},
	})
}
