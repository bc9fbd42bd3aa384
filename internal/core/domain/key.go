package domain

import "unique"

// Key is an interned canonical tile key.
// Cache and interaction maps are keyed by Key so that repeated lookups for the
// same coordinate compare handles instead of strings.
type Key struct {
	h unique.Handle[string]
}

// NewKey interns the given canonical key string.
// It does not validate the string; use Decode for that.
func NewKey(s string) Key {
	return Key{h: unique.Make(s)}
}

// String returns the canonical key string.
func (k Key) String() string {
	var zero unique.Handle[string]
	if k.h == zero {
		return ""
	}
	return k.h.Value()
}

// IsZero reports whether k was never set.
func (k Key) IsZero() bool {
	var zero unique.Handle[string]
	return k.h == zero
}

// Coord decodes the key back into a coordinate.
func (k Key) Coord() (Coord, error) {
	return Decode(k.String())
}

// MarshalText implements encoding.TextMarshaler.
func (k Key) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
// The text must be a well-formed canonical key.
func (k *Key) UnmarshalText(text []byte) error {
	if _, err := Decode(string(text)); err != nil {
		return err
	}
	k.h = unique.Make(string(text))
	return nil
}

// KeysOf converts a slice of coordinates to their interned keys.
func KeysOf(cs []Coord) []Key {
	out := make([]Key, len(cs))
	for i, c := range cs {
		out[i] = c.Key()
	}
	return out
}
