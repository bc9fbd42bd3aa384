package tilecache_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"testing/synctest"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/hexmap/internal/core/domain"
	"go.trai.ch/hexmap/internal/core/ports"
	"go.trai.ch/hexmap/internal/core/ports/mocks"
	"go.trai.ch/hexmap/internal/engine/tilecache"
	"go.trai.ch/zerr"
	"go.uber.org/mock/gomock"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// setupStore creates a store with a mock fetcher and permissive tracer and logger mocks.
func setupStore(t *testing.T, opts tilecache.Options) (*tilecache.Store, *mocks.MockTileFetcher) {
	t.Helper()
	ctrl := gomock.NewController(t)
	fetcher := mocks.NewMockTileFetcher(ctrl)

	span := mocks.NewMockSpan(ctrl)
	span.EXPECT().End().AnyTimes()
	span.EXPECT().RecordError(gomock.Any()).AnyTimes()
	span.EXPECT().SetAttribute(gomock.Any(), gomock.Any()).AnyTimes()

	tracer := mocks.NewMockTracer(ctrl)
	tracer.EXPECT().Start(gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, _ string, _ ...ports.SpanOption) (context.Context, ports.Span) {
			return ctx, span
		},
	).AnyTimes()

	log := mocks.NewMockLogger(ctrl)
	log.EXPECT().Debug(gomock.Any(), gomock.Any()).AnyTimes()

	return tilecache.New(fetcher, tracer, log, opts), fetcher
}

func record(owner, content string, hasChildren bool) domain.TileRecord {
	return domain.TileRecord{OwnerID: owner, Content: []byte(content), HasChildren: hasChildren}
}

// seed puts a Ready record into the store through the public fetch lifecycle.
func seed(t *testing.T, s *tilecache.Store, c domain.Coord, rec domain.TileRecord) {
	t.Helper()
	ticket, started := s.BeginFetch(c)
	require.True(t, started)
	require.True(t, s.ResolveFetch(ticket, rec, nil))
}

func TestStore_Get_Placeholder(t *testing.T) {
	s, _ := setupStore(t, tilecache.Options{})
	c := domain.MustDecode("1-1-3")

	e := s.Get(c)
	assert.Equal(t, domain.FetchIdle, e.Status)
	assert.Equal(t, c, e.Coord)
	assert.Nil(t, e.Record)
	assert.Equal(t, 0, s.Len(), "Get must not create entries")
}

func TestStore_BeginFetch(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1000, 0)}
	s, _ := setupStore(t, tilecache.Options{FreshnessWindow: 30 * time.Second, Now: clock.Now})
	c := domain.RootCoord(1, 1)

	t1, started := s.BeginFetch(c)
	require.True(t, started)
	assert.Equal(t, domain.FetchLoading, s.Get(c).Status)

	t2, started := s.BeginFetch(c)
	assert.False(t, started, "already loading")
	assert.Equal(t, t1, t2)

	require.True(t, s.ResolveFetch(t1, record("1", "root", true), nil))

	t3, started := s.BeginFetch(c)
	assert.False(t, started, "fresh entry")
	assert.True(t, t3.IsZero())
	assert.Equal(t, domain.FetchReady, s.Get(c).Status)

	clock.Advance(31 * time.Second)
	t4, started := s.BeginFetch(c)
	assert.True(t, started, "stale entry is refetched")
	assert.NotEqual(t, t1, t4)
}

func TestStore_ResolveFetch(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1000, 0)}
	s, _ := setupStore(t, tilecache.Options{Now: clock.Now})
	c := domain.MustDecode("1-1-0")

	ticket, _ := s.BeginFetch(c)
	rec := record("1", "grass", true)
	rec.Coord = domain.MustDecode("9-9") // the store stamps its own coordinate
	require.True(t, s.ResolveFetch(ticket, rec, nil))

	e := s.Get(c)
	require.True(t, e.Ready())
	assert.Equal(t, c, e.Record.Coord)
	assert.Equal(t, "1", e.Record.OwnerID)
	assert.Equal(t, clock.Now(), e.Record.FetchedAt)
	assert.Equal(t, xxhash.Sum64String("grass"), e.Record.Digest)
	assert.Equal(t, uint64(1), e.Revision)

	// Returned records never alias store memory.
	e.Record.Content[0] = 'X'
	assert.Equal(t, []byte("grass"), s.Get(c).Record.Content)

	assert.False(t, s.ResolveFetch(ticket, record("2", "late", false), nil), "ticket already resolved")
	assert.Equal(t, "1", s.Get(c).Record.OwnerID)
}

func TestStore_ResolveFetch_MergeOnRefetch(t *testing.T) {
	s, _ := setupStore(t, tilecache.Options{})
	c := domain.MustDecode("1-1-0")

	seed(t, s, c, record("1", "grass", true))
	rev := s.Get(c).Revision

	// Identical data keeps the revision.
	seed(t, s, c, record("1", "grass", true))
	assert.Equal(t, rev, s.Get(c).Revision)

	// Changed content bumps it.
	seed(t, s, c, record("1", "water", true))
	assert.Equal(t, rev+1, s.Get(c).Revision)

	// Changed metadata bumps it.
	seed(t, s, c, record("1", "water", false))
	assert.Equal(t, rev+2, s.Get(c).Revision)
}

func TestStore_ResolveFetch_Error(t *testing.T) {
	s, _ := setupStore(t, tilecache.Options{})

	tests := []struct {
		name string
		err  error
		want domain.ErrorKind
	}{
		{"not found", zerr.Wrap(domain.ErrNotFound, "no row"), domain.KindNotFound},
		{"transport", zerr.Wrap(domain.ErrTransport, "dial"), domain.KindTransport},
		{"unclassified", errors.New("boom"), domain.KindTransport},
	}

	for i, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := domain.RootCoord(1, i)
			ticket, _ := s.BeginFetch(c)
			require.True(t, s.ResolveFetch(ticket, domain.TileRecord{}, tt.err))

			e := s.Get(c)
			assert.Equal(t, domain.FetchError, e.Status)
			assert.Equal(t, tt.want, e.Err)
			assert.Nil(t, e.Record)
		})
	}
}

func TestStore_ResolveFetch_Stale(t *testing.T) {
	s, _ := setupStore(t, tilecache.Options{})
	c := domain.MustDecode("1-1-5")

	t.Run("after invalidate", func(t *testing.T) {
		ticket, _ := s.BeginFetch(c)
		s.Invalidate(c, false)
		assert.False(t, s.ResolveFetch(ticket, record("1", "x", false), nil))
		assert.Equal(t, domain.FetchIdle, s.Get(c).Status)
	})

	t.Run("superseded attempt", func(t *testing.T) {
		old, _ := s.BeginFetch(c)
		s.Invalidate(c, false)
		current, started := s.BeginFetch(c)
		require.True(t, started)

		assert.False(t, s.ResolveFetch(old, record("1", "old", false), nil))
		assert.True(t, s.ResolveFetch(current, record("1", "new", false), nil))
		assert.Equal(t, []byte("new"), s.Get(c).Record.Content)
	})

	t.Run("after teardown", func(t *testing.T) {
		s.Invalidate(c, false)
		ticket, _ := s.BeginFetch(c)
		s.Teardown()
		assert.False(t, s.ResolveFetch(ticket, record("1", "x", false), nil))
		assert.Equal(t, 0, s.Len())
	})
}

func TestStore_ResolveFetch_Commutative(t *testing.T) {
	a := domain.MustDecode("1-1-0")
	b := domain.MustDecode("1-1-1")

	run := func(first, second domain.Coord) (domain.CacheEntry, domain.CacheEntry) {
		clock := &fakeClock{now: time.Unix(1000, 0)}
		s, _ := setupStore(t, tilecache.Options{Now: clock.Now})
		ta, _ := s.BeginFetch(a)
		tb, _ := s.BeginFetch(b)
		tickets := map[domain.Coord]tilecache.Ticket{a: ta, b: tb}
		records := map[domain.Coord]domain.TileRecord{a: record("1", "a", false), b: record("2", "b", true)}

		s.ResolveFetch(tickets[first], records[first], nil)
		s.ResolveFetch(tickets[second], records[second], nil)
		return s.Get(a), s.Get(b)
	}

	a1, b1 := run(a, b)
	a2, b2 := run(b, a)
	assert.Equal(t, a1, a2)
	assert.Equal(t, b1, b2)
}

func TestStore_Fetch_SharedInFlight(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		s, fetcher := setupStore(t, tilecache.Options{FreshnessWindow: time.Minute})
		c := domain.MustDecode("1-1-2")
		release := make(chan struct{})

		fetcher.EXPECT().FetchTile(gomock.Any(), c).DoAndReturn(
			func(_ context.Context, _ domain.Coord) (domain.TileRecord, error) {
				<-release
				return record("1", "shared", false), nil
			},
		).Times(1)

		const callers = 5
		var wg sync.WaitGroup
		entries := make([]domain.CacheEntry, callers)
		for i := range callers {
			wg.Go(func() {
				e, err := s.Fetch(t.Context(), c)
				assert.NoError(t, err)
				entries[i] = e
			})
		}

		synctest.Wait()
		assert.Equal(t, domain.FetchLoading, s.Get(c).Status)
		close(release)
		wg.Wait()

		for _, e := range entries {
			require.True(t, e.Ready())
			assert.Equal(t, []byte("shared"), e.Record.Content)
		}

		// A fresh entry is served without another fetch.
		e, err := s.Fetch(t.Context(), c)
		require.NoError(t, err)
		assert.True(t, e.Ready())
	})
}

func TestStore_Fetch_CallerCancellation(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		s, fetcher := setupStore(t, tilecache.Options{})
		c := domain.MustDecode("1-1-2")
		release := make(chan struct{})

		fetcher.EXPECT().FetchTile(gomock.Any(), c).DoAndReturn(
			func(ctx context.Context, _ domain.Coord) (domain.TileRecord, error) {
				select {
				case <-release:
				case <-ctx.Done():
					return domain.TileRecord{}, ctx.Err()
				}
				return record("1", "late", false), nil
			},
		).Times(1)

		ctx, cancel := context.WithCancel(t.Context())
		done := make(chan error, 1)
		go func() {
			_, err := s.Fetch(ctx, c)
			done <- err
		}()

		synctest.Wait()
		cancel()
		assert.ErrorIs(t, <-done, context.Canceled)

		// The shared fetch is not cancelled with its first subscriber.
		close(release)
		synctest.Wait()
		e := s.Get(c)
		require.True(t, e.Ready())
		assert.Equal(t, []byte("late"), e.Record.Content)
	})
}

func TestStore_Fetch_Timeout(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		s, fetcher := setupStore(t, tilecache.Options{FetchTimeout: time.Second})
		c := domain.RootCoord(4, 4)

		fetcher.EXPECT().FetchTile(gomock.Any(), c).DoAndReturn(
			func(ctx context.Context, _ domain.Coord) (domain.TileRecord, error) {
				<-ctx.Done()
				return domain.TileRecord{}, zerr.Wrap(domain.ErrTransport, ctx.Err().Error())
			},
		)

		e, err := s.Fetch(t.Context(), c)
		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrTransport)
		assert.Equal(t, domain.FetchError, e.Status)
		assert.Equal(t, domain.KindTransport, e.Err)
	})
}

func TestStore_Fetch_NotFound(t *testing.T) {
	s, fetcher := setupStore(t, tilecache.Options{})
	c := domain.MustDecode("1-1-44")

	fetcher.EXPECT().FetchTile(gomock.Any(), c).Return(domain.TileRecord{}, zerr.Wrap(domain.ErrNotFound, "no row"))

	e, err := s.Fetch(context.Background(), c)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Equal(t, domain.FetchError, e.Status)
	assert.Equal(t, domain.KindNotFound, e.Err)
	assert.True(t, e.Err.Retryable())
}

func TestStore_FetchAll_Bounded(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		s, fetcher := setupStore(t, tilecache.Options{})
		parent := domain.RootCoord(1, 1)

		var inFlight, peak atomic.Int32
		fetcher.EXPECT().FetchTile(gomock.Any(), gomock.Any()).DoAndReturn(
			func(_ context.Context, c domain.Coord) (domain.TileRecord, error) {
				n := inFlight.Add(1)
				for {
					p := peak.Load()
					if n <= p || peak.CompareAndSwap(p, n) {
						break
					}
				}
				time.Sleep(10 * time.Millisecond)
				inFlight.Add(-1)
				if c.Path()[0] == domain.DirectionWest {
					return domain.TileRecord{}, zerr.Wrap(domain.ErrNotFound, "empty slot")
				}
				return record("1", c.String(), false), nil
			},
		).Times(domain.DirectionCount)

		err := s.FetchAll(t.Context(), parent.Children(), 2)
		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrNotFound)
		assert.LessOrEqual(t, peak.Load(), int32(2))

		for _, c := range parent.Children() {
			e := s.Get(c)
			if c.Path()[0] == domain.DirectionWest {
				assert.Equal(t, domain.FetchError, e.Status)
				continue
			}
			assert.True(t, e.Ready(), c.String())
		}
	})
}

func TestStore_Invalidate(t *testing.T) {
	s, _ := setupStore(t, tilecache.Options{})
	root := domain.RootCoord(1, 1)
	a := domain.MustDecode("1-1-0")
	aa := domain.MustDecode("1-1-01")
	aaa := domain.MustDecode("1-1-014")
	b := domain.MustDecode("1-1-1")
	for _, c := range []domain.Coord{root, a, aa, aaa, b} {
		seed(t, s, c, record("1", c.String(), true))
	}

	assert.Equal(t, []domain.Coord{aa}, s.Invalidate(aa, false))
	assert.Equal(t, domain.FetchIdle, s.Get(aa).Status)
	assert.True(t, s.Get(aaa).Ready(), "non-cascading invalidate leaves descendants")

	reset := s.Invalidate(a, true)
	assert.Equal(t, []domain.Coord{a, aa, aaa}, reset)
	for _, c := range reset {
		assert.Equal(t, domain.FetchIdle, s.Get(c).Status)
	}
	assert.True(t, s.Get(root).Ready())
	assert.True(t, s.Get(b).Ready())

	assert.Empty(t, s.Invalidate(domain.MustDecode("1-1-3"), true), "unreferenced coordinates stay absent")
}

func TestStore_UpsertOptimistic(t *testing.T) {
	s, _ := setupStore(t, tilecache.Options{FreshnessWindow: time.Hour})
	c := domain.MustDecode("1-1-2")

	owner := "7"
	assert.False(t, s.UpsertOptimistic(c, domain.TilePatch{OwnerID: &owner}), "incomplete patch with nothing to merge")

	assert.True(t, s.UpsertOptimistic(c, domain.PatchFromRecord(record("7", "seeded", false))))
	e := s.Get(c)
	require.True(t, e.Ready())
	assert.True(t, e.Optimistic)
	assert.Equal(t, "7", e.Record.OwnerID)
	assert.Equal(t, xxhash.Sum64String("seeded"), e.Record.Digest)

	other := "8"
	assert.True(t, s.UpsertOptimistic(c, domain.TilePatch{OwnerID: &other}))
	assert.Equal(t, "8", s.Get(c).Record.OwnerID)
	assert.Equal(t, []byte("seeded"), s.Get(c).Record.Content)

	// A later resolve supersedes the optimistic value even inside the freshness window.
	ticket, started := s.BeginFetch(c)
	require.True(t, started, "optimistic entries are never fresh")
	require.True(t, s.ResolveFetch(ticket, record("7", "server", false), nil))
	e = s.Get(c)
	assert.False(t, e.Optimistic)
	assert.Equal(t, "7", e.Record.OwnerID)

	assert.True(t, s.UpsertOptimistic(c, domain.TilePatch{Vacate: true}))
	e = s.Get(c)
	assert.True(t, e.Vacant())
	assert.True(t, e.Optimistic)
	assert.Equal(t, domain.VisualEmpty, domain.VisualFor(e))
}

func TestStore_SnapshotRestore(t *testing.T) {
	s, _ := setupStore(t, tilecache.Options{})
	a := domain.MustDecode("1-1-0")
	b := domain.MustDecode("1-1-1")
	absent := domain.MustDecode("1-1-2")
	seed(t, s, a, record("1", "a", false))
	seed(t, s, b, record("1", "b", true))

	sn := s.Snapshot([]domain.Coord{a, b, absent, a})
	assert.Equal(t, 3, sn.Len())
	before := s.Get(a)

	s.UpsertOptimistic(a, domain.TilePatch{Vacate: true})
	s.UpsertOptimistic(absent, domain.PatchFromRecord(record("1", "moved", false)))
	s.Invalidate(b, false)

	s.Restore(sn)

	got := s.Get(a)
	require.True(t, got.Ready())
	assert.False(t, got.Optimistic)
	assert.Equal(t, before.Record, got.Record)
	assert.Greater(t, got.Revision, before.Revision)

	assert.True(t, s.Get(b).Ready())
	assert.Equal(t, domain.FetchIdle, s.Get(absent).Status)
}

func TestStore_Restore_FetchFinishedDuringOverwrite(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		s, fetcher := setupStore(t, tilecache.Options{FreshnessWindow: time.Minute})
		c := domain.MustDecode("1-1-4")
		release := make(chan struct{})

		gomock.InOrder(
			fetcher.EXPECT().FetchTile(gomock.Any(), c).DoAndReturn(
				func(_ context.Context, _ domain.Coord) (domain.TileRecord, error) {
					<-release
					return record("1", "first", false), nil
				},
			),
			fetcher.EXPECT().FetchTile(gomock.Any(), c).Return(record("1", "second", false), nil),
		)

		done := make(chan struct{})
		go func() {
			defer close(done)
			_, _ = s.Fetch(t.Context(), c)
		}()
		synctest.Wait()

		sn := s.Snapshot([]domain.Coord{c})
		require.True(t, s.UpsertOptimistic(c, domain.TilePatch{Vacate: true}))

		// The fetch lands while the entry is optimistic and is dropped.
		close(release)
		<-done

		require.True(t, s.Restore(sn))
		e := s.Get(c)
		assert.Equal(t, domain.FetchIdle, e.Status, "no attempt is left to resolve a Loading entry")
		assert.Nil(t, e.Record)

		e, err := s.Fetch(t.Context(), c)
		require.NoError(t, err)
		require.True(t, e.Ready())
		assert.Equal(t, []byte("second"), e.Record.Content)
	})
}

func TestStore_Restore_FetchStillRunning(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		s, fetcher := setupStore(t, tilecache.Options{})
		c := domain.MustDecode("1-1-4")
		release := make(chan struct{})

		fetcher.EXPECT().FetchTile(gomock.Any(), c).DoAndReturn(
			func(_ context.Context, _ domain.Coord) (domain.TileRecord, error) {
				<-release
				return record("1", "landed", false), nil
			},
		).Times(1)

		done := make(chan struct{})
		go func() {
			defer close(done)
			_, _ = s.Fetch(t.Context(), c)
		}()
		synctest.Wait()

		sn := s.Snapshot([]domain.Coord{c})
		s.UpsertOptimistic(c, domain.TilePatch{Vacate: true})
		require.True(t, s.Restore(sn))
		assert.Equal(t, domain.FetchLoading, s.Get(c).Status)

		close(release)
		<-done

		e := s.Get(c)
		require.True(t, e.Ready())
		assert.Equal(t, []byte("landed"), e.Record.Content)
	})
}

func TestStore_Restore_AfterTeardown(t *testing.T) {
	s, _ := setupStore(t, tilecache.Options{})
	c := domain.MustDecode("1-1-0")
	seed(t, s, c, record("1", "a", false))

	sn := s.Snapshot([]domain.Coord{c})
	assert.False(t, s.Stale(sn))

	s.Teardown()
	assert.True(t, s.Stale(sn))
	assert.False(t, s.Restore(sn))
	assert.Equal(t, 0, s.Len(), "a closed map must not be repopulated")
}

func TestStore_Subtree(t *testing.T) {
	s, _ := setupStore(t, tilecache.Options{})
	for _, k := range []string{"1-1", "1-1-0", "1-1-03", "1-1-1", "1-2-0"} {
		seed(t, s, domain.MustDecode(k), record("1", k, false))
	}

	assert.Equal(t,
		[]domain.Coord{domain.MustDecode("1-1-0"), domain.MustDecode("1-1-03")},
		s.Subtree(domain.MustDecode("1-1-0")),
	)
	assert.Len(t, s.Subtree(domain.RootCoord(1, 1)), 4)
	assert.Empty(t, s.Subtree(domain.MustDecode("1-1-5")))
}
