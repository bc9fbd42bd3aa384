// Package tilecache implements the client-side tile cache: a flat map of
// canonical keys to cache entries, with shared in-flight fetches, optimistic
// updates and snapshot rollback.
package tilecache

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	"go.trai.ch/hexmap/internal/core/domain"
	"go.trai.ch/hexmap/internal/core/ports"
	"go.trai.ch/zerr"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

// Options tune the store.
type Options struct {
	// FreshnessWindow is how long a Ready entry satisfies BeginFetch without refetching.
	FreshnessWindow time.Duration
	// FetchTimeout bounds a shared fetch. Zero means no bound.
	FetchTimeout time.Duration
	// Now is the clock used to stamp records. Defaults to time.Now.
	Now func() time.Time
}

// OptionsFromSettings extracts the store options from the engine settings.
func OptionsFromSettings(s domain.Settings) Options {
	return Options{
		FreshnessWindow: s.FreshnessWindow,
		FetchTimeout:    s.FetchTimeout,
	}
}

// Ticket identifies one fetch attempt for one coordinate.
// A resolution carrying a stale ticket is dropped.
type Ticket struct {
	Coord domain.Coord
	gen   uint64
}

// IsZero reports whether t identifies no attempt.
func (t Ticket) IsZero() bool {
	return t.gen == 0
}

func (t Ticket) flightKey() string {
	return domain.Encode(t.Coord) + "#" + strconv.FormatUint(t.gen, 10)
}

type slot struct {
	entry domain.CacheEntry
	gen   uint64
}

// Store is the tile cache. It is safe for concurrent use.
type Store struct {
	fetcher ports.TileFetcher
	tracer  ports.Tracer
	logger  ports.Logger
	opts    Options

	mu       sync.RWMutex
	entries  map[domain.Key]*slot
	nextGen  uint64
	inflight map[uint64]struct{} // attempts begun and not yet resolved
	epoch    uint64              // bumped by Teardown

	requestGroup singleflight.Group
}

// New creates a Store that loads tiles through fetcher.
func New(fetcher ports.TileFetcher, tracer ports.Tracer, logger ports.Logger, opts Options) *Store {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Store{
		fetcher: fetcher,
		tracer:  tracer,
		logger:  logger,
		opts:    opts,
		entries:  make(map[domain.Key]*slot),
		inflight: make(map[uint64]struct{}),
	}
}

// Get returns a copy of the entry for c, or an Idle placeholder if c was never referenced.
func (s *Store) Get(c domain.Coord) domain.CacheEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if sl, ok := s.entries[c.Key()]; ok {
		return sl.entry.Clone()
	}
	return domain.IdleEntry(c)
}

// Len returns the number of cached entries.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// slotLocked returns the slot for c, creating an Idle one on first reference.
func (s *Store) slotLocked(c domain.Coord) *slot {
	key := c.Key()
	sl, ok := s.entries[key]
	if !ok {
		sl = &slot{entry: domain.IdleEntry(c)}
		s.entries[key] = sl
	}
	return sl
}

// BeginFetch moves the entry for c to Loading and returns the ticket of the new attempt.
//
// It is a no-op when the entry is already Loading, in which case the ticket of the
// running attempt is returned with false, and when the entry is Ready and fresh,
// in which case a zero ticket is returned.
func (s *Store) BeginFetch(c domain.Coord) (Ticket, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sl := s.slotLocked(c)
	switch {
	case sl.entry.Status == domain.FetchLoading:
		return Ticket{Coord: c, gen: sl.gen}, false
	case sl.entry.Fresh(s.opts.Now(), s.opts.FreshnessWindow):
		return Ticket{}, false
	}

	s.nextGen++
	sl.gen = s.nextGen
	s.inflight[sl.gen] = struct{}{}
	sl.entry.Status = domain.FetchLoading
	sl.entry.Err = domain.KindNone
	return Ticket{Coord: c, gen: sl.gen}, true
}

// pending reports whether t still identifies the running attempt.
func (s *Store) pending(t Ticket) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sl, ok := s.entries[t.Coord.Key()]
	return ok && sl.entry.Status == domain.FetchLoading && sl.gen == t.gen
}

// settle marks the attempt identified by t as finished without resolving it.
func (s *Store) settle(t Ticket) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.inflight, t.gen)
}

// ResolveFetch completes the attempt identified by t.
//
// On success the entry becomes Ready with a copy of rec, stamped with the fetch time
// and content digest. Revision only moves when the data differs from what was cached.
// On failure the entry becomes Error with the classified kind. Resolutions for
// attempts that were invalidated, superseded or torn down are dropped and false is returned.
func (s *Store) ResolveFetch(t Ticket, rec domain.TileRecord, err error) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.inflight, t.gen)

	sl, ok := s.entries[t.Coord.Key()]
	if !ok || t.IsZero() || sl.entry.Status != domain.FetchLoading || sl.gen != t.gen {
		return false
	}

	if err != nil {
		if sl.entry.Record != nil {
			sl.entry.Revision++
		}
		sl.entry.Status = domain.FetchError
		sl.entry.Record = nil
		sl.entry.Err = domain.KindOf(err)
		sl.entry.Optimistic = false
		return true
	}

	next := rec.Clone()
	next.Coord = t.Coord
	next.FetchedAt = s.opts.Now()
	next.Digest = xxhash.Sum64(next.Content)

	if prev := sl.entry.Record; prev == nil || sl.entry.Optimistic || !prev.SameData(next) {
		sl.entry.Revision++
	}
	sl.entry.Status = domain.FetchReady
	sl.entry.Record = &next
	sl.entry.Err = domain.KindNone
	sl.entry.Optimistic = false
	return true
}

// Fetch begins a fetch for c, waits for it and returns the resulting entry.
//
// Concurrent callers for one coordinate share a single call to the fetcher.
// Cancelling ctx only ends this caller's wait; the shared fetch keeps running
// and still resolves the entry. A fresh Ready entry is returned without fetching.
func (s *Store) Fetch(ctx context.Context, c domain.Coord) (domain.CacheEntry, error) {
	ticket, _ := s.BeginFetch(c)
	if ticket.IsZero() {
		return s.Get(c), nil
	}

	ch := s.requestGroup.DoChan(ticket.flightKey(), func() (any, error) {
		if !s.pending(ticket) {
			s.settle(ticket)
			return nil, nil
		}
		return nil, s.load(context.WithoutCancel(ctx), ticket)
	})

	select {
	case <-ctx.Done():
		return s.Get(c), ctx.Err()
	case res := <-ch:
		entry := s.Get(c)
		if res.Err != nil {
			return entry, res.Err
		}
		if entry.Status == domain.FetchError {
			return entry, zerr.With(zerr.Wrap(kindSentinel(entry.Err), "tile fetch failed"), "key", domain.Encode(c))
		}
		return entry, nil
	}
}

// load runs one fetcher call for t and resolves the entry with its outcome.
func (s *Store) load(ctx context.Context, t Ticket) error {
	if s.opts.FetchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.FetchTimeout)
		defer cancel()
	}

	key := domain.Encode(t.Coord)
	ctx, span := s.tracer.Start(ctx, domain.SpanTileFetch, ports.WithAttribute("tile.key", key))
	defer span.End()

	rec, err := s.fetcher.FetchTile(ctx, t.Coord)
	if err != nil {
		err = zerr.With(zerr.Wrap(err, "failed to fetch tile"), "key", key)
		span.RecordError(err)
		s.logger.Debug("tile fetch failed", "key", key, "kind", string(domain.KindOf(err)))
	}

	if !s.ResolveFetch(t, rec, err) {
		span.SetAttribute("tile.dropped", true)
		return nil
	}
	return err
}

// FetchAll fetches coords with at most limit fetches in flight.
// Failures are recorded in the cache entries and returned joined.
func (s *Store) FetchAll(ctx context.Context, coords []domain.Coord, limit int) error {
	var g errgroup.Group
	if limit > 0 {
		g.SetLimit(limit)
	}

	var (
		mu   sync.Mutex
		errs []error
	)
	for _, c := range coords {
		g.Go(func() error {
			if _, err := s.Fetch(ctx, c); err != nil {
				mu.Lock()
				errs = append(errs, err)
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()

	return errors.Join(errs...)
}

// Invalidate resets the entry for c to Idle. With cascade, every cached
// descendant of c is reset as well. It returns the reset coordinates in key order.
// Coordinates that were never referenced are left absent.
func (s *Store) Invalidate(c domain.Coord, cascade bool) []domain.Coord {
	s.mu.Lock()
	defer s.mu.Unlock()

	var reset []domain.Coord
	for _, sl := range s.entries {
		ec := sl.entry.Coord
		if ec != c && (!cascade || !ec.IsDescendantOf(c)) {
			continue
		}
		if sl.entry.Record != nil || sl.entry.Optimistic {
			sl.entry.Revision++
		}
		sl.entry.Status = domain.FetchIdle
		sl.entry.Record = nil
		sl.entry.Err = domain.KindNone
		sl.entry.Optimistic = false
		reset = append(reset, ec)
	}

	domain.SortCoords(reset)
	return reset
}

// UpsertOptimistic applies a speculative change to the entry for c and tags it Optimistic.
//
// A vacating patch marks the slot empty. Otherwise the patch is merged into the
// cached record, or seeds a new record when the patch is complete. It returns false
// when there is nothing to merge into and the patch is incomplete.
func (s *Store) UpsertOptimistic(c domain.Coord, p domain.TilePatch) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	sl := s.slotLocked(c)
	var next *domain.TileRecord

	switch {
	case p.Vacate:
	case sl.entry.Record != nil:
		r := p.Apply(sl.entry.Record.Clone())
		next = &r
	case p.Complete():
		r := p.Apply(domain.TileRecord{Coord: c, FetchedAt: s.opts.Now()})
		next = &r
	default:
		return false
	}

	if next != nil {
		next.Coord = c
		next.Digest = xxhash.Sum64(next.Content)
	}

	sl.entry.Status = domain.FetchReady
	sl.entry.Record = next
	sl.entry.Err = domain.KindNone
	sl.entry.Optimistic = true
	sl.entry.Revision++
	return true
}

// Subtree returns every cached coordinate at or under root, in key order.
func (s *Store) Subtree(root domain.Coord) []domain.Coord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.Coord
	for _, sl := range s.entries {
		if sl.entry.Coord.Within(root) {
			out = append(out, sl.entry.Coord)
		}
	}

	domain.SortCoords(out)
	return out
}

// Teardown drops every entry. Resolutions of fetches still in flight become
// no-ops, and snapshots taken before the teardown no longer restore.
func (s *Store) Teardown() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.epoch++

	for key, sl := range s.entries {
		if sl.entry.Status == domain.FetchLoading {
			s.requestGroup.Forget(Ticket{Coord: sl.entry.Coord, gen: sl.gen}.flightKey())
		}
		delete(s.entries, key)
	}
}

// kindSentinel maps a stored error kind back to its sentinel.
func kindSentinel(k domain.ErrorKind) error {
	switch k {
	case domain.KindNotFound:
		return domain.ErrNotFound
	case domain.KindPermissionDenied:
		return domain.ErrPermissionDenied
	case domain.KindMalformedKey:
		return domain.ErrMalformedKey
	case domain.KindInvalidDirection:
		return domain.ErrInvalidDirection
	default:
		return domain.ErrTransport
	}
}
