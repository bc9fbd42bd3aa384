package domain

import (
	"bytes"
	"slices"
	"strings"
	"time"
)

// TileRecord is the data of one fetched tile.
// Records are owned by the tile cache; callers only ever receive copies.
type TileRecord struct {
	Coord       Coord     `json:"-"`
	OwnerID     string    `json:"owner_id"`
	Content     []byte    `json:"content,omitempty"`
	HasChildren bool      `json:"has_children"`
	FetchedAt   time.Time `json:"fetched_at,omitzero"`
	Digest      uint64    `json:"digest,omitzero"`
}

// Clone returns a deep copy of the record.
func (r TileRecord) Clone() TileRecord {
	r.Content = bytes.Clone(r.Content)
	return r
}

// SameData reports whether two records carry the same owner, children flag and content digest.
func (r TileRecord) SameData(o TileRecord) bool {
	return r.Coord == o.Coord &&
		r.OwnerID == o.OwnerID &&
		r.HasChildren == o.HasChildren &&
		r.Digest == o.Digest
}

// TilePatch is a speculative change applied to a cached record ahead of server confirmation.
// Nil fields are left unchanged.
type TilePatch struct {
	OwnerID     *string
	Content     []byte
	HasChildren *bool
	// Vacate marks the slot as optimistically empty, e.g. the source of a move.
	Vacate bool
}

// PatchFromRecord builds a complete patch carrying every field of r.
func PatchFromRecord(r TileRecord) TilePatch {
	owner := r.OwnerID
	hasChildren := r.HasChildren
	return TilePatch{
		OwnerID:     &owner,
		Content:     bytes.Clone(r.Content),
		HasChildren: &hasChildren,
	}
}

// Complete reports whether the patch carries enough to create a record from scratch.
func (p TilePatch) Complete() bool {
	return p.OwnerID != nil && p.HasChildren != nil
}

// Apply merges the patch into r and returns the result.
func (p TilePatch) Apply(r TileRecord) TileRecord {
	if p.OwnerID != nil {
		r.OwnerID = *p.OwnerID
	}
	if p.Content != nil {
		r.Content = bytes.Clone(p.Content)
	}
	if p.HasChildren != nil {
		r.HasChildren = *p.HasChildren
	}
	return r
}

// FetchStatus is the lifecycle state of a cache entry.
type FetchStatus string

const (
	// FetchIdle means nothing has been requested, or the entry was invalidated.
	FetchIdle FetchStatus = "idle"
	// FetchLoading means a fetch is in flight.
	FetchLoading FetchStatus = "loading"
	// FetchReady means the entry holds a record (or an optimistically vacated slot).
	FetchReady FetchStatus = "ready"
	// FetchError means the last fetch failed.
	FetchError FetchStatus = "error"
)

// NormalizeFetchStatus converts a string to a FetchStatus, defaulting to idle if unknown.
func NormalizeFetchStatus(s string) FetchStatus {
	switch strings.ToLower(s) {
	case string(FetchLoading):
		return FetchLoading
	case string(FetchReady):
		return FetchReady
	case string(FetchError):
		return FetchError
	default:
		return FetchIdle
	}
}

// CacheEntry is the cache's view of one coordinate.
type CacheEntry struct {
	Coord      Coord       `json:"-"`
	Status     FetchStatus `json:"status"`
	Record     *TileRecord `json:"record,omitempty"`
	Err        ErrorKind   `json:"error,omitempty"`
	Optimistic bool        `json:"optimistic,omitempty"`
	// Revision increases whenever the entry's record data changes.
	Revision uint64 `json:"revision"`
}

// IdleEntry returns the placeholder entry for a coordinate that was never fetched.
func IdleEntry(c Coord) CacheEntry {
	return CacheEntry{Coord: c, Status: FetchIdle}
}

// Clone returns a deep copy of the entry.
func (e CacheEntry) Clone() CacheEntry {
	if e.Record != nil {
		r := e.Record.Clone()
		e.Record = &r
	}
	return e
}

// Ready reports whether the entry holds a record.
func (e CacheEntry) Ready() bool {
	return e.Status == FetchReady && e.Record != nil
}

// Vacant reports whether the entry is an optimistically emptied slot.
func (e CacheEntry) Vacant() bool {
	return e.Status == FetchReady && e.Record == nil
}

// Fresh reports whether a Ready entry was fetched within window of now.
// Optimistic entries are never fresh.
func (e CacheEntry) Fresh(now time.Time, window time.Duration) bool {
	if !e.Ready() || e.Optimistic {
		return false
	}
	return now.Sub(e.Record.FetchedAt) < window
}

// SortCoords orders coordinates by canonical key, which places ancestors before descendants.
func SortCoords(cs []Coord) {
	slices.SortFunc(cs, func(a, b Coord) int {
		return strings.Compare(Encode(a), Encode(b))
	})
}
