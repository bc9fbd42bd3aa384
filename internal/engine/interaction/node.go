package interaction

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/hexmap/internal/engine/tilecache"
)

// NodeID is the unique identifier for the interaction tracker Graft node.
const NodeID graft.ID = "engine.interaction"

func init() {
	graft.Register(graft.Node[*Tracker]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{tilecache.NodeID},
		Run: func(ctx context.Context) (*Tracker, error) {
			store, err := graft.Dep[*tilecache.Store](ctx)
			if err != nil {
				return nil, err
			}
			return New(store), nil
		},
	})
}
