package session

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/hexmap/internal/adapters/config"
	"go.trai.ch/hexmap/internal/core/domain"
	"go.trai.ch/hexmap/internal/core/ports"
)

// NodeID is the unique identifier for the session provider Graft node.
const NodeID graft.ID = "adapter.session"

func init() {
	graft.Register(graft.Node[ports.SessionProvider]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{config.SettingsNodeID},
		Run: func(ctx context.Context) (ports.SessionProvider, error) {
			settings, err := graft.Dep[domain.Settings](ctx)
			if err != nil {
				return nil, err
			}
			return New(settings)
		},
	})
}

// New selects the Redis provider when a Redis URL is configured and the static one otherwise.
func New(s domain.Settings) (ports.SessionProvider, error) {
	if s.RedisURL != "" {
		return NewRedisFromURL(s.RedisURL, s.SessionToken)
	}
	return NewStatic(s.CurrentStaticUser()), nil
}
