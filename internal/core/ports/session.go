package ports

import (
	"context"

	"go.trai.ch/hexmap/internal/core/domain"
)

// SessionProvider resolves the signed-in user.
//
//go:generate go run go.uber.org/mock/mockgen -source=session.go -destination=mocks/mock_session.go -package=mocks
type SessionProvider interface {
	// CurrentUser returns the signed-in user, or domain.Anonymous when nobody is signed in.
	// Lookups are made fresh on every call; callers must not cache the result across gestures.
	CurrentUser(ctx context.Context) (domain.CurrentUser, error)
}
