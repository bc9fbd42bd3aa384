// Package interaction tracks per-tile gesture flags and derives the
// render-ready state of each tile from those flags and the tile cache.
package interaction

import (
	"sync"

	"go.trai.ch/hexmap/internal/core/domain"
)

// CacheReader is the read side of the tile cache the tracker derives state from.
type CacheReader interface {
	Get(c domain.Coord) domain.CacheEntry
}

type flagged struct {
	coord domain.Coord
	state domain.InteractionState
}

// Tracker holds the interaction flags of every tile. It is safe for concurrent use.
type Tracker struct {
	cache CacheReader

	mu      sync.RWMutex
	flags   map[domain.Key]*flagged
	dragged *domain.Coord
}

// New creates a Tracker reading tile data from cache.
func New(cache CacheReader) *Tracker {
	return &Tracker{
		cache: cache,
		flags: make(map[domain.Key]*flagged),
	}
}

// State returns the flags of c.
func (t *Tracker) State(c domain.Coord) domain.InteractionState {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if f, ok := t.flags[c.Key()]; ok {
		return f.state
	}
	return domain.InteractionState{}
}

// update applies fn to the flags of c and reports whether anything changed.
// Entries whose flags all clear are dropped. Callers must hold t.mu.
func (t *Tracker) update(c domain.Coord, fn func(*domain.InteractionState)) bool {
	key := c.Key()
	f, ok := t.flags[key]
	if !ok {
		f = &flagged{coord: c}
	}

	before := f.state
	fn(&f.state)
	if f.state == before {
		return false
	}

	if f.state.Zero() {
		delete(t.flags, key)
	} else {
		t.flags[key] = f
	}
	return true
}

// each calls fn for every tracked tile. Callers must hold t.mu.
func (t *Tracker) each(fn func(c domain.Coord, s domain.InteractionState)) {
	for _, f := range t.flags {
		fn(f.coord, f.state)
	}
}

// SetHover sets or clears IsHovered on c.
func (t *Tracker) SetHover(c domain.Coord, on bool) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.update(c, func(s *domain.InteractionState) { s.IsHovered = on })
}

// SetHovering sets or clears IsHovering on c.
func (t *Tracker) SetHovering(c domain.Coord, on bool) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.update(c, func(s *domain.InteractionState) { s.IsHovering = on })
}

// HoverPath moves the pointer to c: IsHovered is set on c alone and IsHovering
// on c and every ancestor. Hover flags elsewhere are cleared.
func (t *Tracker) HoverPath(c domain.Coord) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.clearHoverLocked()
	t.update(c, func(s *domain.InteractionState) {
		s.IsHovered = true
		s.IsHovering = true
	})
	for _, a := range c.Ancestors() {
		t.update(a, func(s *domain.InteractionState) { s.IsHovering = true })
	}
}

// ClearHover clears IsHovered and IsHovering everywhere.
func (t *Tracker) ClearHover() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.clearHoverLocked()
}

func (t *Tracker) clearHoverLocked() {
	var hovered []domain.Coord
	t.each(func(c domain.Coord, s domain.InteractionState) {
		if s.IsHovered || s.IsHovering {
			hovered = append(hovered, c)
		}
	})
	for _, c := range hovered {
		t.update(c, func(s *domain.InteractionState) {
			s.IsHovered = false
			s.IsHovering = false
		})
	}
}

// SetSelected sets or clears IsSelected on c.
func (t *Tracker) SetSelected(c domain.Coord, on bool) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.update(c, func(s *domain.InteractionState) { s.IsSelected = on })
}

// SelectOnly selects c and clears the selection everywhere else.
func (t *Tracker) SelectOnly(c domain.Coord) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.clearFlagLocked(func(s *domain.InteractionState) *bool { return &s.IsSelected })
	t.update(c, func(s *domain.InteractionState) { s.IsSelected = true })
}

// Selected returns every selected tile in key order.
func (t *Tracker) Selected() []domain.Coord {
	return t.matching(func(s domain.InteractionState) bool { return s.IsSelected })
}

// ToggleExpanded flips IsExpanded on c and returns the new value.
//
// Expanding requires a cached record with HasChildren; otherwise the call is a
// no-op and ok is false. Collapsing is always allowed.
func (t *Tracker) ToggleExpanded(c domain.Coord) (expanded, ok bool) {
	entry := t.cache.Get(c)

	t.mu.Lock()
	defer t.mu.Unlock()

	cur := false
	if f, found := t.flags[c.Key()]; found {
		cur = f.state.IsExpanded
	}
	if !cur && (entry.Record == nil || !entry.Record.HasChildren) {
		return false, false
	}

	t.update(c, func(s *domain.InteractionState) { s.IsExpanded = !cur })
	return !cur, true
}

// Expanded returns every expanded tile at or under root in key order.
func (t *Tracker) Expanded(root domain.Coord) []domain.Coord {
	return t.matching(func(s domain.InteractionState) bool { return s.IsExpanded }, root)
}

// SetDragOver sets or clears IsDragOver on c.
func (t *Tracker) SetDragOver(c domain.Coord, on bool) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.update(c, func(s *domain.InteractionState) { s.IsDragOver = on })
}

// ClearDragOver clears IsDragOver everywhere.
func (t *Tracker) ClearDragOver() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.clearFlagLocked(func(s *domain.InteractionState) *bool { return &s.IsDragOver })
}

// SetDragged sets or clears IsDragged on c. Setting it first clears it on every
// other tile, so at most one tile is dragged at any time.
func (t *Tracker) SetDragged(c domain.Coord, on bool) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !on {
		changed := t.update(c, func(s *domain.InteractionState) { s.IsDragged = false })
		if t.dragged != nil && *t.dragged == c {
			t.dragged = nil
		}
		return changed
	}

	if t.dragged != nil && *t.dragged != c {
		t.update(*t.dragged, func(s *domain.InteractionState) { s.IsDragged = false })
	}
	t.dragged = &c
	return t.update(c, func(s *domain.InteractionState) { s.IsDragged = true })
}

// Dragged returns the dragged tile, if any.
func (t *Tracker) Dragged() (domain.Coord, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if t.dragged == nil {
		return domain.Coord{}, false
	}
	return *t.dragged, true
}

// MoveSubtree carries the persistent flags of every tile under from over to the
// matching tile under to. Gesture flags of the moved tiles are dropped.
func (t *Tracker) MoveSubtree(from, to domain.Coord) {
	t.mu.Lock()
	defer t.mu.Unlock()

	type carried struct {
		coord domain.Coord
		state domain.InteractionState
	}
	var moved []carried
	for key, f := range t.flags {
		if !f.coord.Within(from) {
			continue
		}
		if dst, ok := f.coord.Rebase(from, to); ok {
			moved = append(moved, carried{coord: dst, state: domain.InteractionState{
				IsExpanded: f.state.IsExpanded,
				IsSelected: f.state.IsSelected,
			}})
		}
		if t.dragged != nil && *t.dragged == f.coord {
			t.dragged = nil
		}
		delete(t.flags, key)
	}

	for _, m := range moved {
		t.update(m.coord, func(s *domain.InteractionState) {
			s.IsExpanded = m.state.IsExpanded
			s.IsSelected = m.state.IsSelected
		})
	}
}

// Reset clears every flag.
func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()

	clear(t.flags)
	t.dragged = nil
}

func (t *Tracker) clearFlagLocked(field func(*domain.InteractionState) *bool) {
	var set []domain.Coord
	t.each(func(c domain.Coord, s domain.InteractionState) {
		if *field(&s) {
			set = append(set, c)
		}
	})
	for _, c := range set {
		t.update(c, func(s *domain.InteractionState) { *field(s) = false })
	}
}

func (t *Tracker) matching(pred func(domain.InteractionState) bool, within ...domain.Coord) []domain.Coord {
	t.mu.RLock()
	defer t.mu.RUnlock()

	var out []domain.Coord
	t.each(func(c domain.Coord, s domain.InteractionState) {
		if !pred(s) {
			return
		}
		if len(within) > 0 && !c.Within(within[0]) {
			return
		}
		out = append(out, c)
	})

	domain.SortCoords(out)
	return out
}
