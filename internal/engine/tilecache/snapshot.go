package tilecache

import "go.trai.ch/hexmap/internal/core/domain"

// Snapshot is a point-in-time copy of a set of cache entries used to roll back
// optimistic updates.
type Snapshot struct {
	saved map[domain.Key]savedSlot
	epoch uint64
}

type savedSlot struct {
	coord   domain.Coord
	present bool
	slot    slot
}

// Len returns the number of coordinates covered by the snapshot.
func (sn Snapshot) Len() int {
	return len(sn.saved)
}

// Snapshot copies the entries for coords. Coordinates that are not cached are
// recorded as absent and restore to Idle.
func (s *Store) Snapshot(coords []domain.Coord) Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sn := Snapshot{saved: make(map[domain.Key]savedSlot, len(coords)), epoch: s.epoch}
	for _, c := range coords {
		key := c.Key()
		if _, seen := sn.saved[key]; seen {
			continue
		}
		sl, ok := s.entries[key]
		if !ok {
			sn.saved[key] = savedSlot{coord: c}
			continue
		}
		sn.saved[key] = savedSlot{
			coord:   c,
			present: true,
			slot:    slot{entry: sl.entry.Clone(), gen: sl.gen},
		}
	}
	return sn
}

// Stale reports whether the cache was torn down after sn was taken.
func (s *Store) Stale(sn Snapshot) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return sn.epoch != s.epoch
}

// Restore puts every entry covered by sn back to its saved state and reports
// whether it did. A snapshot taken before a teardown is ignored.
//
// A saved Loading entry only comes back as Loading while its attempt is still
// running. If the attempt finished while the entry was overwritten, its result
// was dropped, so the entry restores as Idle, or keeps a newer running attempt.
// Revisions keep increasing so observers see the rollback as a change.
func (s *Store) Restore(sn Snapshot) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sn.epoch != s.epoch {
		return false
	}

	for key, saved := range sn.saved {
		cur, ok := s.entries[key]
		var rev uint64
		if ok {
			rev = cur.entry.Revision + 1
		}

		next := &slot{entry: domain.IdleEntry(saved.coord)}
		if saved.present {
			next = &slot{entry: saved.slot.entry.Clone(), gen: saved.slot.gen}
			if next.entry.Status == domain.FetchLoading {
				s.reviveLocked(next, cur)
			}
		}
		if next.entry.Revision < rev {
			next.entry.Revision = rev
		}
		s.entries[key] = next
	}
	return true
}

// reviveLocked fixes up a restored Loading slot whose attempt is no longer running.
func (s *Store) reviveLocked(next, cur *slot) {
	if _, running := s.inflight[next.gen]; running {
		return
	}
	if cur != nil && cur.entry.Status == domain.FetchLoading {
		if _, running := s.inflight[cur.gen]; running {
			next.gen = cur.gen
			return
		}
	}
	next.entry.Status = domain.FetchIdle
	next.entry.Record = nil
	next.entry.Err = domain.KindNone
	next.entry.Optimistic = false
}
