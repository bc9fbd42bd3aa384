// Package app implements the application layer for hexmap.
package app

import (
	"context"
	"errors"
	"sync"

	"go.trai.ch/hexmap/internal/core/domain"
	"go.trai.ch/hexmap/internal/core/ports"
	"go.trai.ch/hexmap/internal/engine/dragdrop"
	"go.trai.ch/hexmap/internal/engine/interaction"
	"go.trai.ch/hexmap/internal/engine/tilecache"
	"go.trai.ch/zerr"
)

// Options configures an App.
type Options struct {
	// PrefetchParallelism bounds concurrent child fetches. Zero means unbounded.
	PrefetchParallelism int
}

// App is the entry point the renderer talks to. It owns one open map at a time.
type App struct {
	cache   *tilecache.Store
	tracker *interaction.Tracker
	drag    *dragdrop.Coordinator
	views   ports.ViewStateStore
	tracer  ports.Tracer
	logger  ports.Logger
	opts    Options

	mu   sync.Mutex
	root *domain.Coord
}

// New creates a new App instance.
func New(
	cache *tilecache.Store,
	tracker *interaction.Tracker,
	drag *dragdrop.Coordinator,
	views ports.ViewStateStore,
	tracer ports.Tracer,
	logger ports.Logger,
	opts Options,
) *App {
	return &App{
		cache:   cache,
		tracker: tracker,
		drag:    drag,
		views:   views,
		tracer:  tracer,
		logger:  logger,
		opts:    opts,
	}
}

// Root returns the root of the open map.
func (a *App) Root() (domain.Coord, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.root == nil {
		return domain.Coord{}, false
	}
	return *a.root, true
}

// Open makes root the open map. Any previously open map is closed first.
//
// The root tile is fetched, the saved expansion is restored and the children of
// every expanded tile are prefetched. A failed root fetch is returned; the map
// stays open so the root can be retried.
func (a *App) Open(ctx context.Context, root domain.Coord) error {
	if _, open := a.Root(); open {
		if err := a.Close(ctx); err != nil {
			a.logger.Warn("failed to close previous map", "error", err.Error())
		}
	}

	root = root.Root()
	a.mu.Lock()
	a.root = &root
	a.mu.Unlock()

	if _, err := a.cache.Fetch(ctx, root); err != nil {
		return zerr.With(zerr.Wrap(err, "failed to open map"), "root", domain.Encode(root))
	}

	a.restoreExpansion(ctx, root)
	a.prefetchVisible(ctx, root)

	a.logger.Debug("map opened", "root", domain.Encode(root), "cached", a.cache.Len())
	return nil
}

// restoreExpansion re-expands the tiles saved for root. Ancestors are restored
// before descendants, and a tile is only expanded once it is fetched and reports children.
func (a *App) restoreExpansion(ctx context.Context, root domain.Coord) {
	keys, err := a.views.Load(domain.Encode(root))
	if err != nil {
		a.logger.Warn("failed to load view state", "root", domain.Encode(root), "error", err.Error())
		return
	}

	coords := make([]domain.Coord, 0, len(keys))
	for _, key := range keys {
		c, err := domain.Decode(key)
		if err != nil || !c.Within(root) {
			a.logger.Debug("skipping saved expansion", "key", key)
			continue
		}
		coords = append(coords, c)
	}
	domain.SortCoords(coords)

	for _, c := range coords {
		if parent, ok := c.Parent(); ok && parent.Within(root) && !a.tracker.State(parent).IsExpanded {
			continue
		}
		if _, err := a.cache.Fetch(ctx, c); err != nil {
			continue
		}
		if a.tracker.State(c).IsExpanded {
			continue
		}
		a.tracker.ToggleExpanded(c)
	}
}

// prefetchVisible fetches every visible tile that has no data yet.
func (a *App) prefetchVisible(ctx context.Context, root domain.Coord) {
	var pending []domain.Coord
	for _, c := range a.tracker.VisibleTree(root) {
		switch a.cache.Get(c).Status {
		case domain.FetchIdle, domain.FetchLoading:
			pending = append(pending, c)
		}
	}
	a.prefetch(ctx, pending)
}

func (a *App) prefetch(ctx context.Context, coords []domain.Coord) {
	if len(coords) == 0 {
		return
	}
	if err := a.cache.FetchAll(ctx, coords, a.opts.PrefetchParallelism); err != nil {
		a.logger.Debug("prefetch incomplete", "requested", len(coords), "error", err.Error())
	}
}

// Close persists the expansion of the open map and drops all cached state.
// Closing without an open map is a no-op.
func (a *App) Close(_ context.Context) error {
	a.mu.Lock()
	root := a.root
	a.root = nil
	a.mu.Unlock()

	if root == nil {
		return nil
	}

	a.drag.Cancel()

	expanded := a.tracker.Expanded(*root)
	keys := make([]string, 0, len(expanded))
	for _, c := range expanded {
		keys = append(keys, domain.Encode(c))
	}
	err := a.views.Save(domain.Encode(*root), keys)

	a.cache.Teardown()
	a.tracker.Reset()

	if err != nil {
		return zerr.With(zerr.Wrap(err, "failed to save view state"), "root", domain.Encode(*root))
	}
	return nil
}

// Shutdown flushes telemetry. It is called once when the process exits.
func (a *App) Shutdown(ctx context.Context) error {
	if s, ok := a.tracer.(interface{ Shutdown(context.Context) error }); ok {
		return s.Shutdown(ctx)
	}
	return nil
}

// OnHoverEnter moves the pointer onto c.
func (a *App) OnHoverEnter(c domain.Coord) {
	a.tracker.HoverPath(c)
}

// OnHoverLeave moves the pointer off c onto its parent, or off the map when c is a root.
// Leaving a tile that is not hovered is a no-op.
func (a *App) OnHoverLeave(c domain.Coord) {
	if !a.tracker.State(c).IsHovered {
		return
	}
	if parent, ok := c.Parent(); ok {
		a.tracker.HoverPath(parent)
		return
	}
	a.tracker.ClearHover()
}

// OnSelect toggles the selection of c. Selecting c deselects every other tile.
func (a *App) OnSelect(c domain.Coord) bool {
	if a.tracker.State(c).IsSelected {
		a.tracker.SetSelected(c, false)
		return false
	}
	a.tracker.SelectOnly(c)
	return true
}

// OnToggleExpand flips the expansion of c and prefetches its children when it opens.
func (a *App) OnToggleExpand(ctx context.Context, c domain.Coord) (bool, *domain.Notice) {
	if err := a.requireOpen(c); err != nil {
		return false, domain.NoticeFor(err, &c)
	}

	expanded, ok := a.tracker.ToggleExpanded(c)
	if !ok {
		a.logger.Debug("tile cannot expand", "key", domain.Encode(c))
		return false, nil
	}
	if expanded {
		a.prefetch(ctx, c.Children())
	}
	return expanded, nil
}

// OnDragStart begins dragging c.
func (a *App) OnDragStart(ctx context.Context, c domain.Coord) *domain.Notice {
	if err := a.requireOpen(c); err != nil {
		return domain.NoticeFor(err, &c)
	}
	_, err := a.drag.Start(ctx, c)
	return domain.NoticeFor(err, &c)
}

// OnDragOver records c as the drop target and reports whether it accepts the drop.
func (a *App) OnDragOver(c domain.Coord) (bool, *domain.Notice) {
	s, err := a.drag.Over(c)
	if err != nil {
		return false, domain.NoticeFor(err, &c)
	}
	return s.ValidTarget, nil
}

// OnDragDrop commits the drag onto target. Afterwards the visible tiles left
// without data, either invalidated by the move or reset by its rollback, are refetched.
func (a *App) OnDragDrop(ctx context.Context, target domain.Coord) *domain.Notice {
	err := a.drag.Drop(ctx, target)
	if root, ok := a.Root(); ok && (err == nil || errors.Is(err, domain.ErrMutationRejected)) {
		a.prefetchVisible(ctx, root)
	}
	return domain.NoticeFor(err, &target)
}

// OnDragCancel abandons the active drag.
func (a *App) OnDragCancel() bool {
	return a.drag.Cancel()
}

// EffectiveState returns the render-ready state of c.
func (a *App) EffectiveState(c domain.Coord) domain.EffectiveState {
	return a.tracker.EffectiveState(c)
}

// VisibleTree returns root and its visible descendants depth first.
func (a *App) VisibleTree(root domain.Coord) []domain.Coord {
	return a.tracker.VisibleTree(root)
}

// Fetch loads c into the cache, reusing a fresh entry.
func (a *App) Fetch(ctx context.Context, c domain.Coord) (domain.CacheEntry, error) {
	if err := a.requireOpen(c); err != nil {
		return domain.CacheEntry{}, err
	}
	return a.cache.Fetch(ctx, c)
}

// Retry re-fetches c when its last fetch failed. Other entries are returned unchanged.
func (a *App) Retry(ctx context.Context, c domain.Coord) (domain.CacheEntry, error) {
	if err := a.requireOpen(c); err != nil {
		return domain.CacheEntry{}, err
	}

	entry := a.cache.Get(c)
	if entry.Status != domain.FetchError {
		return entry, nil
	}

	a.cache.Invalidate(c, false)
	return a.cache.Fetch(ctx, c)
}

// requireOpen fails unless c belongs to the open map.
func (a *App) requireOpen(c domain.Coord) error {
	root, ok := a.Root()
	if !ok || !c.Within(root) {
		return zerr.With(zerr.Wrap(domain.ErrNoMapOpen, "tile is not on the open map"), "coord", domain.Encode(c))
	}
	return nil
}
