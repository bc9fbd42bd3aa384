package interaction

import "go.trai.ch/hexmap/internal/core/domain"

// EffectiveState combines the flags of c with its cache entry.
// It is recomputed on every call.
func (t *Tracker) EffectiveState(c domain.Coord) domain.EffectiveState {
	entry := t.cache.Get(c)
	flags := t.State(c)

	es := domain.EffectiveState{
		Coord:      c,
		Key:        domain.Encode(c),
		TestID:     c.TestID(),
		Visual:     domain.VisualFor(entry),
		Flags:      flags,
		Optimistic: entry.Optimistic,
		Err:        entry.Err,
		Retryable:  entry.Status == domain.FetchError && entry.Err.Retryable(),
		Record:     entry.Record,
	}

	if flags.IsExpanded {
		for _, child := range c.Children() {
			switch t.cache.Get(child).Status {
			case domain.FetchIdle, domain.FetchLoading:
				es.PendingChildren = append(es.PendingChildren, child)
			}
		}
	}
	return es
}

// VisibleChildren returns the six children of c when c is expanded, and nil otherwise.
func (t *Tracker) VisibleChildren(c domain.Coord) []domain.Coord {
	if !t.State(c).IsExpanded {
		return nil
	}
	return c.Children()
}

// VisibleTree returns root and every visible descendant in depth-first order.
// A child is visible when its parent is expanded.
func (t *Tracker) VisibleTree(root domain.Coord) []domain.Coord {
	var out []domain.Coord
	var walk func(c domain.Coord)
	walk = func(c domain.Coord) {
		out = append(out, c)
		for _, child := range t.VisibleChildren(c) {
			walk(child)
		}
	}
	walk(root)
	return out
}
