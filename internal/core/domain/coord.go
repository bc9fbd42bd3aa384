// Package domain contains the core domain models for the hex tile map: coordinates,
// tile records, cache entries, interaction flags and drag sessions.
package domain

import (
	"strconv"
	"strings"

	"go.trai.ch/zerr"
)

// Direction is the index of a child slot inside a hex tile, 0 through 5.
type Direction uint8

const (
	// DirectionNorthWest is the upper-left child slot.
	DirectionNorthWest Direction = iota
	// DirectionNorthEast is the upper-right child slot.
	DirectionNorthEast
	// DirectionEast is the right child slot.
	DirectionEast
	// DirectionSouthEast is the lower-right child slot.
	DirectionSouthEast
	// DirectionSouthWest is the lower-left child slot.
	DirectionSouthWest
	// DirectionWest is the left child slot.
	DirectionWest
)

// DirectionCount is the number of children every tile can expand into.
const DirectionCount = 6

// Directions lists every child slot in index order.
var Directions = [DirectionCount]Direction{
	DirectionNorthWest,
	DirectionNorthEast,
	DirectionEast,
	DirectionSouthEast,
	DirectionSouthWest,
	DirectionWest,
}

// Valid reports whether d names one of the six child slots.
func (d Direction) Valid() bool {
	return d < DirectionCount
}

// Coord addresses a tile at any nesting depth.
// The path is kept unexported so a Coord can never be mutated in place;
// derived coordinates are always new values. Two coordinates are the same tile
// iff they compare equal with ==.
type Coord struct {
	UserID  int
	GroupID int
	path    string // one ASCII digit '0'..'5' per segment
}

// RootCoord returns the root tile owned by the given user and group.
// It panics if either id is negative.
func RootCoord(userID, groupID int) Coord {
	if err := checkIDs(userID, groupID); err != nil {
		panic(err)
	}
	return Coord{UserID: userID, GroupID: groupID}
}

// NewCoord builds a coordinate from its parts.
// It returns ErrMalformedKey for a negative id and ErrInvalidDirection if any
// direction is out of range.
func NewCoord(userID, groupID int, path ...Direction) (Coord, error) {
	if err := checkIDs(userID, groupID); err != nil {
		return Coord{}, err
	}

	var b strings.Builder
	b.Grow(len(path))
	for i, d := range path {
		if !d.Valid() {
			return Coord{}, zerr.With(zerr.With(zerr.Wrap(ErrInvalidDirection, "failed to build coordinate"),
				"direction", int(d)), "segment", i)
		}
		b.WriteByte('0' + byte(d))
	}
	return Coord{UserID: userID, GroupID: groupID, path: b.String()}, nil
}

// Path returns a copy of the direction sequence from the root to this tile.
func (c Coord) Path() []Direction {
	out := make([]Direction, len(c.path))
	for i := 0; i < len(c.path); i++ {
		out[i] = Direction(c.path[i] - '0')
	}
	return out
}

// Digits returns the path as one digit per segment, empty for a root.
func (c Coord) Digits() string {
	return c.path
}

// Depth returns the nesting depth; roots have depth 0.
func (c Coord) Depth() int {
	return len(c.path)
}

// IsRoot reports whether c addresses a root tile.
func (c Coord) IsRoot() bool {
	return c.path == ""
}

// Root returns the root tile of the map c belongs to.
func (c Coord) Root() Coord {
	return Coord{UserID: c.UserID, GroupID: c.GroupID}
}

// Parent drops the last path segment.
// The boolean is false for a root, which has no parent.
func (c Coord) Parent() (Coord, bool) {
	if c.IsRoot() {
		return Coord{}, false
	}
	return Coord{UserID: c.UserID, GroupID: c.GroupID, path: c.path[:len(c.path)-1]}, true
}

// Child appends d to the path.
func (c Coord) Child(d Direction) (Coord, error) {
	if !d.Valid() {
		return Coord{}, zerr.With(zerr.With(zerr.Wrap(ErrInvalidDirection, "failed to derive child"),
			"direction", int(d)), "coord", c.String())
	}
	return Coord{UserID: c.UserID, GroupID: c.GroupID, path: c.path + string(rune('0'+d))}, nil
}

// MustChild is like Child but panics on an invalid direction.
// Use it only where the direction is known to be valid.
func (c Coord) MustChild(d Direction) Coord {
	child, err := c.Child(d)
	if err != nil {
		panic(err)
	}
	return child
}

// Children returns the six child coordinates in direction order.
func (c Coord) Children() []Coord {
	out := make([]Coord, 0, DirectionCount)
	for _, d := range Directions {
		out = append(out, Coord{UserID: c.UserID, GroupID: c.GroupID, path: c.path + string(rune('0'+d))})
	}
	return out
}

// Sibling returns the tile sharing c's parent in slot d.
// The boolean is false for a root, which has no siblings, or for an invalid direction.
func (c Coord) Sibling(d Direction) (Coord, bool) {
	parent, ok := c.Parent()
	if !ok || !d.Valid() {
		return Coord{}, false
	}
	return parent.MustChild(d), true
}

// Ancestors returns every ancestor of c, nearest first.
func (c Coord) Ancestors() []Coord {
	out := make([]Coord, 0, len(c.path))
	for i := len(c.path) - 1; i >= 0; i-- {
		out = append(out, Coord{UserID: c.UserID, GroupID: c.GroupID, path: c.path[:i]})
	}
	return out
}

// IsDescendantOf reports whether c lies strictly below a in the same map.
func (c Coord) IsDescendantOf(a Coord) bool {
	return c.UserID == a.UserID &&
		c.GroupID == a.GroupID &&
		len(c.path) > len(a.path) &&
		strings.HasPrefix(c.path, a.path)
}

// Within reports whether c is a or one of its descendants.
func (c Coord) Within(a Coord) bool {
	return c == a || c.IsDescendantOf(a)
}

// Rebase moves c from the subtree rooted at from into the subtree rooted at to.
// The boolean is false if c is not within from.
func (c Coord) Rebase(from, to Coord) (Coord, bool) {
	if !c.Within(from) {
		return Coord{}, false
	}
	return Coord{UserID: to.UserID, GroupID: to.GroupID, path: to.path + c.path[len(from.path):]}, true
}

// String returns the canonical key.
func (c Coord) String() string {
	return Encode(c)
}

// Key returns the interned canonical key.
func (c Coord) Key() Key {
	return NewKey(Encode(c))
}

// TestID returns the stable identifier external UI tests use to find the tile.
func (c Coord) TestID() string {
	return "tile-" + Encode(c)
}

// Encode renders the canonical key: "{user}-{group}" for roots and
// "{user}-{group}-{digits}" otherwise. An ancestor's key is a prefix of every
// descendant's key.
func Encode(c Coord) string {
	var b strings.Builder
	b.Grow(24 + len(c.path))
	b.WriteString(strconv.Itoa(c.UserID))
	b.WriteByte('-')
	b.WriteString(strconv.Itoa(c.GroupID))
	if c.path != "" {
		b.WriteByte('-')
		b.WriteString(c.path)
	}
	return b.String()
}

// Decode parses a canonical key produced by Encode. Ids with leading zeros are
// rejected so every tile has exactly one key.
func Decode(key string) (Coord, error) {
	parts := strings.Split(key, "-")
	if len(parts) < 2 || len(parts) > 3 {
		return Coord{}, malformed(key, "expected user-group[-path]")
	}

	userID, ok := parseID(parts[0])
	if !ok {
		return Coord{}, malformed(key, "user id is not a non-negative integer")
	}
	groupID, ok := parseID(parts[1])
	if !ok {
		return Coord{}, malformed(key, "group id is not a non-negative integer")
	}

	var path string
	if len(parts) == 3 {
		path = parts[2]
		if path == "" {
			return Coord{}, malformed(key, "empty path segment")
		}
		for i := 0; i < len(path); i++ {
			if path[i] < '0' || path[i] > '5' {
				return Coord{}, malformed(key, "path direction outside 0-5")
			}
		}
	}

	return Coord{UserID: userID, GroupID: groupID, path: path}, nil
}

// MustDecode is like Decode but panics on a malformed key.
func MustDecode(key string) Coord {
	c, err := Decode(key)
	if err != nil {
		panic(err)
	}
	return c
}

// DecodeTestID parses a "tile-..." identifier back into a coordinate.
func DecodeTestID(id string) (Coord, error) {
	key, ok := strings.CutPrefix(id, "tile-")
	if !ok {
		return Coord{}, malformed(id, "missing tile- prefix")
	}
	return Decode(key)
}

func checkIDs(userID, groupID int) error {
	switch {
	case userID < 0:
		return zerr.With(zerr.Wrap(ErrMalformedKey, "user id is negative"), "user", userID)
	case groupID < 0:
		return zerr.With(zerr.Wrap(ErrMalformedKey, "group id is negative"), "group", groupID)
	}
	return nil
}

// parseID accepts the decimal form Encode writes: digits only, no leading zero.
func parseID(s string) (int, bool) {
	if s == "" || (len(s) > 1 && s[0] == '0') {
		return 0, false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return 0, false
		}
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return n, true
}

func malformed(key, reason string) error {
	return zerr.With(zerr.With(zerr.Wrap(ErrMalformedKey, "failed to decode tile key"), "key", key), "reason", reason)
}
