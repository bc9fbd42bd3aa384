// Package ports defines the core interfaces for the application.
package ports

import (
	"context"

	"go.trai.ch/hexmap/internal/core/domain"
)

// TileFetcher loads tile records from the persistence layer.
//
//go:generate go run go.uber.org/mock/mockgen -source=tiles.go -destination=mocks/mock_tiles.go -package=mocks
type TileFetcher interface {
	// FetchTile returns the record stored at c.
	//
	// It returns domain.ErrNotFound if no tile exists at c and domain.ErrTransport
	// if the backing store cannot be reached.
	FetchTile(ctx context.Context, c domain.Coord) (domain.TileRecord, error)
}

// TileMover relocates a tile and its whole subtree.
type TileMover interface {
	// MoveTile moves the subtree rooted at source so that it is rooted at target.
	//
	// The move is atomic: either every tile of the subtree is relocated or none is.
	// It returns domain.ErrInvalidMove when target equals or lies inside source,
	// domain.ErrConflict when target is occupied and domain.ErrNotFound when source is missing.
	MoveTile(ctx context.Context, source, target domain.Coord) error
}

// TileRepository is the full persistence surface the engine talks to.
type TileRepository interface {
	TileFetcher
	TileMover
}
