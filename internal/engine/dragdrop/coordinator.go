// Package dragdrop coordinates drag gestures: permission checks at drag-start
// and drop-time, optimistic cache updates and rollback on a rejected move.
package dragdrop

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"time"

	"go.trai.ch/hexmap/internal/core/domain"
	"go.trai.ch/hexmap/internal/core/ports"
	"go.trai.ch/hexmap/internal/engine/interaction"
	"go.trai.ch/hexmap/internal/engine/tilecache"
	"go.trai.ch/zerr"
)

// Options tune the coordinator.
type Options struct {
	// MoveTimeout bounds the move request of a drop. Zero means no bound.
	MoveTimeout time.Duration
	// Now is the clock used to stamp sessions. Defaults to time.Now.
	Now func() time.Time
}

// Coordinator drives the Idle → Dragging → Committing → Idle state machine.
// It is safe for concurrent use.
type Coordinator struct {
	cache   *tilecache.Store
	tracker *interaction.Tracker
	session ports.SessionProvider
	mover   ports.TileMover
	tracer  ports.Tracer
	logger  ports.Logger
	opts    Options

	mu      sync.Mutex
	phase   domain.DragPhase
	current *domain.DragSession
}

// New creates a Coordinator.
func New(
	cache *tilecache.Store,
	tracker *interaction.Tracker,
	session ports.SessionProvider,
	mover ports.TileMover,
	tracer ports.Tracer,
	logger ports.Logger,
	opts Options,
) *Coordinator {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Coordinator{
		cache:   cache,
		tracker: tracker,
		session: session,
		mover:   mover,
		tracer:  tracer,
		logger:  logger,
		opts:    opts,
		phase:   domain.DragIdle,
	}
}

// Current returns the phase and, unless idle, a copy of the active session.
func (d *Coordinator) Current() (domain.DragPhase, *domain.DragSession) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.current == nil {
		return d.phase, nil
	}
	s := d.current.Clone()
	return d.phase, &s
}

// busyLocked returns the error for a gesture that arrives while another is active.
func (d *Coordinator) busyLocked() error {
	switch d.phase {
	case domain.DragDragging:
		return zerr.With(zerr.Wrap(domain.ErrDragInProgress, "failed to start drag"),
			"source", domain.Encode(d.current.Source))
	case domain.DragCommitting:
		return zerr.Wrap(domain.ErrCommitInProgress, "failed to start drag")
	default:
		return nil
	}
}

// Start begins dragging c.
//
// The current user must be allowed to edit c. On denial no session is created
// and no flag is set.
func (d *Coordinator) Start(ctx context.Context, c domain.Coord) (domain.DragSession, error) {
	d.mu.Lock()
	err := d.busyLocked()
	d.mu.Unlock()
	if err != nil {
		return domain.DragSession{}, err
	}

	entry := d.cache.Get(c)
	if entry.Record == nil {
		return domain.DragSession{}, zerr.With(zerr.Wrap(domain.ErrTileNotLoaded, "failed to start drag"),
			"coord", domain.Encode(c))
	}

	user, err := d.session.CurrentUser(ctx)
	if err != nil {
		return domain.DragSession{}, zerr.Wrap(err, "failed to resolve current user")
	}
	if !domain.CanEdit(user, entry.Record.OwnerID) {
		return domain.DragSession{}, denied("failed to start drag", c, user)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.busyLocked(); err != nil {
		return domain.DragSession{}, err
	}

	s := domain.NewDragSession(c, user, d.opts.Now())
	d.current = &s
	d.phase = domain.DragDragging
	d.tracker.SetDragged(c, true)

	d.logger.Debug("drag started", "session", s.ID.String(), "source", domain.Encode(c))
	return s.Clone(), nil
}

// Over records c as the current drop target. The last call wins.
// A valid target gets IsDragOver; an invalid one records the reason.
func (d *Coordinator) Over(c domain.Coord) (domain.DragSession, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.phase != domain.DragDragging {
		return domain.DragSession{}, zerr.Wrap(domain.ErrNoDragSession, "failed to update drop target")
	}

	if prev := d.current.Target; prev != nil {
		d.tracker.SetDragOver(*prev, false)
	}

	target := c
	reason := d.validate(d.current.Source, target, d.current.User)
	d.current.Target = &target
	d.current.ValidTarget = reason == domain.KindNone
	d.current.Reason = reason
	if d.current.ValidTarget {
		d.tracker.SetDragOver(target, true)
	}

	return d.current.Clone(), nil
}

// Cancel abandons the active drag without touching the cache.
// It reports false when no drag can be cancelled, including while a drop is committing.
func (d *Coordinator) Cancel() bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.phase != domain.DragDragging {
		return false
	}
	d.finishLocked()
	return true
}

// Drop commits the active drag onto target.
//
// Invalid targets are rejected with ErrInvalidMove before any cache write. The
// permission check is repeated with a fresh user lookup. The cache is updated
// optimistically while the move is in flight; on failure the update is rolled
// back and an error matching both ErrMutationRejected and the mover's cause is returned.
// When the cache is torn down while the move is in flight, neither the rollback
// nor the post-move invalidation touches it.
func (d *Coordinator) Drop(ctx context.Context, target domain.Coord) error {
	d.mu.Lock()
	switch d.phase {
	case domain.DragIdle:
		d.mu.Unlock()
		return zerr.Wrap(domain.ErrNoDragSession, "failed to drop")
	case domain.DragCommitting:
		d.mu.Unlock()
		return zerr.Wrap(domain.ErrCommitInProgress, "failed to drop")
	}

	source := d.current.Source
	if reason := d.validate(source, target, d.current.User); reason != domain.KindNone {
		d.finishLocked()
		d.mu.Unlock()
		return rejectedTarget(reason, source, target)
	}
	d.phase = domain.DragCommitting
	d.mu.Unlock()

	defer func() {
		d.mu.Lock()
		d.finishLocked()
		d.mu.Unlock()
	}()

	if err := d.recheck(ctx, source, target); err != nil {
		return err
	}

	snap := d.applyOptimistic(source, target)

	if err := d.move(ctx, source, target); err != nil {
		if d.cache.Restore(snap) {
			d.logger.Warn("move rejected, optimistic update rolled back",
				"source", domain.Encode(source), "target", domain.Encode(target), "kind", string(domain.KindOf(err)))
		} else {
			d.logger.Debug("move rejected after the map was closed",
				"source", domain.Encode(source), "target", domain.Encode(target))
		}
		return errors.Join(
			zerr.With(zerr.With(zerr.Wrap(domain.ErrMutationRejected, "failed to move tile"),
				"source", domain.Encode(source)), "target", domain.Encode(target)),
			err,
		)
	}

	if d.cache.Stale(snap) {
		d.logger.Debug("tile moved after the map was closed", "source", domain.Encode(source), "target", domain.Encode(target))
		return nil
	}

	d.cache.Invalidate(parentOrSelf(source), true)
	d.cache.Invalidate(parentOrSelf(target), true)
	d.tracker.MoveSubtree(source, target)

	d.logger.Info("tile moved", "source", domain.Encode(source), "target", domain.Encode(target))
	return nil
}

// recheck repeats the permission check with a fresh user lookup.
func (d *Coordinator) recheck(ctx context.Context, source, target domain.Coord) error {
	user, err := d.session.CurrentUser(ctx)
	if err != nil {
		return zerr.Wrap(err, "failed to resolve current user")
	}

	entry := d.cache.Get(source)
	if entry.Record == nil {
		return zerr.With(zerr.Wrap(domain.ErrTileNotLoaded, "failed to drop"), "coord", domain.Encode(source))
	}
	if !domain.CanEdit(user, entry.Record.OwnerID) {
		return denied("failed to drop", source, user)
	}
	if d.validate(source, target, user) == domain.KindPermissionDenied {
		return denied("failed to drop", target, user)
	}
	return nil
}

// applyOptimistic snapshots both subtrees, then vacates the source subtree and
// writes its records under target.
func (d *Coordinator) applyOptimistic(source, target domain.Coord) tilecache.Snapshot {
	sourceCoords := d.cache.Subtree(source)

	type pending struct {
		coord domain.Coord
		patch domain.TilePatch
	}
	moved := make([]pending, 0, len(sourceCoords))
	affected := make([]domain.Coord, 0, 2*len(sourceCoords))
	for _, c := range sourceCoords {
		affected = append(affected, c)
		dst, ok := c.Rebase(source, target)
		if !ok {
			continue
		}
		affected = append(affected, dst)
		if e := d.cache.Get(c); e.Record != nil {
			moved = append(moved, pending{coord: dst, patch: domain.PatchFromRecord(*e.Record)})
		}
	}
	affected = append(affected, d.cache.Subtree(target)...)

	snap := d.cache.Snapshot(affected)

	for _, c := range sourceCoords {
		d.cache.UpsertOptimistic(c, domain.TilePatch{Vacate: true})
	}
	for _, m := range moved {
		d.cache.UpsertOptimistic(m.coord, m.patch)
	}
	return snap
}

// move calls the mover under a span and the configured timeout.
func (d *Coordinator) move(ctx context.Context, source, target domain.Coord) error {
	if d.opts.MoveTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.opts.MoveTimeout)
		defer cancel()
	}

	ctx, span := d.tracer.Start(ctx, domain.SpanTileMove,
		ports.WithAttribute("tile.source", domain.Encode(source)),
		ports.WithAttribute("tile.target", domain.Encode(target)),
	)
	defer span.End()

	if err := d.mover.MoveTile(ctx, source, target); err != nil {
		span.RecordError(err)
		return err
	}
	return nil
}

// validate returns why target cannot receive source for user, or KindNone.
// A target must differ from the source, must not lie inside it, and its parent
// context must be editable by user. The parent context is the cached parent's
// owner, or the target map's owner when the parent is not loaded.
func (d *Coordinator) validate(source, target domain.Coord, user domain.CurrentUser) domain.ErrorKind {
	if target.Within(source) {
		return domain.KindInvalidMove
	}

	owner := strconv.Itoa(target.UserID)
	ctxCoord := parentOrSelf(target)
	if e := d.cache.Get(ctxCoord); e.Record != nil {
		owner = e.Record.OwnerID
	}
	if !domain.CanEdit(user, owner) {
		return domain.KindPermissionDenied
	}
	return domain.KindNone
}

// finishLocked clears the session and its flags and returns to Idle.
func (d *Coordinator) finishLocked() {
	if d.current != nil {
		d.tracker.SetDragged(d.current.Source, false)
	}
	d.tracker.ClearDragOver()
	d.current = nil
	d.phase = domain.DragIdle
}

func parentOrSelf(c domain.Coord) domain.Coord {
	if p, ok := c.Parent(); ok {
		return p
	}
	return c
}

func denied(msg string, c domain.Coord, user domain.CurrentUser) error {
	return zerr.With(zerr.With(zerr.Wrap(domain.ErrPermissionDenied, msg),
		"coord", domain.Encode(c)), "user", user.String())
}

func rejectedTarget(reason domain.ErrorKind, source, target domain.Coord) error {
	sentinel := domain.ErrInvalidMove
	if reason == domain.KindPermissionDenied {
		sentinel = domain.ErrPermissionDenied
	}
	return zerr.With(zerr.With(zerr.Wrap(sentinel, "failed to drop"),
		"source", domain.Encode(source)), "target", domain.Encode(target))
}
