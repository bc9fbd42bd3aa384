package domain

import (
	"errors"

	"go.trai.ch/zerr"
)

var (
	// ErrMalformedKey is returned when a canonical tile key cannot be decoded.
	ErrMalformedKey = zerr.New("malformed tile key")

	// ErrInvalidDirection is returned when a child direction is outside 0-5.
	ErrInvalidDirection = zerr.New("invalid direction")

	// ErrNotFound is returned when a tile does not exist.
	ErrNotFound = zerr.New("tile not found")

	// ErrTransport is returned when the persistence layer cannot be reached.
	ErrTransport = zerr.New("transport error")

	// ErrPermissionDenied is returned when the current user may not edit a tile.
	ErrPermissionDenied = zerr.New("permission denied")

	// ErrInvalidMove is returned when a move target is the source, lies inside the source, or is otherwise unusable.
	ErrInvalidMove = zerr.New("invalid move")

	// ErrConflict is returned when the move target is already occupied.
	ErrConflict = zerr.New("move conflict")

	// ErrMutationRejected is returned when a committed drop fails and optimistic state is rolled back.
	ErrMutationRejected = zerr.New("mutation rejected")

	// ErrNoDragSession is returned when a drag event arrives while no drag is active.
	ErrNoDragSession = zerr.New("no active drag session")

	// ErrDragInProgress is returned when a drag starts while another drag is active.
	ErrDragInProgress = zerr.New("drag already in progress")

	// ErrCommitInProgress is returned when a drop arrives while a previous drop is still committing.
	ErrCommitInProgress = zerr.New("drop already committing")

	// ErrTileNotLoaded is returned when an operation needs a cached tile record that is not Ready.
	ErrTileNotLoaded = zerr.New("tile not loaded")

	// ErrNoMapOpen is returned when a map-scoped operation runs before a map is opened.
	ErrNoMapOpen = zerr.New("no map open")

	// ErrConfigReadFailed is returned when the config file cannot be read.
	ErrConfigReadFailed = zerr.New("failed to read config file")

	// ErrConfigParseFailed is returned when the config file cannot be parsed.
	ErrConfigParseFailed = zerr.New("failed to parse config file")

	// ErrConfigInvalid is returned when a configuration value is out of range.
	ErrConfigInvalid = zerr.New("invalid configuration")

	// ErrViewStateReadFailed is returned when the view state file cannot be read.
	ErrViewStateReadFailed = zerr.New("failed to read view state")

	// ErrViewStateWriteFailed is returned when the view state file cannot be written.
	ErrViewStateWriteFailed = zerr.New("failed to write view state")
)

// ErrorKind classifies a failure for storage in cache entries and drag sessions.
type ErrorKind string

const (
	// KindNone means no failure.
	KindNone ErrorKind = ""
	// KindMalformedKey mirrors ErrMalformedKey.
	KindMalformedKey ErrorKind = "malformed_key"
	// KindInvalidDirection mirrors ErrInvalidDirection.
	KindInvalidDirection ErrorKind = "invalid_direction"
	// KindNotFound mirrors ErrNotFound.
	KindNotFound ErrorKind = "not_found"
	// KindTransport mirrors ErrTransport. Unclassified fetch failures are reported as transport errors.
	KindTransport ErrorKind = "transport_error"
	// KindPermissionDenied mirrors ErrPermissionDenied.
	KindPermissionDenied ErrorKind = "permission_denied"
	// KindInvalidMove mirrors ErrInvalidMove.
	KindInvalidMove ErrorKind = "invalid_move"
	// KindConflict mirrors ErrConflict.
	KindConflict ErrorKind = "conflict"
	// KindMutationRejected mirrors ErrMutationRejected.
	KindMutationRejected ErrorKind = "mutation_rejected"
)

var kindSentinels = []struct {
	err  error
	kind ErrorKind
}{
	{ErrMalformedKey, KindMalformedKey},
	{ErrInvalidDirection, KindInvalidDirection},
	{ErrNotFound, KindNotFound},
	{ErrPermissionDenied, KindPermissionDenied},
	{ErrInvalidMove, KindInvalidMove},
	{ErrConflict, KindConflict},
	{ErrMutationRejected, KindMutationRejected},
	{ErrTransport, KindTransport},
}

// KindOf classifies err. Errors that match no sentinel are reported as KindTransport.
// The first sentinel in taxonomy order wins, so a joined MutationRejected+Conflict
// error classifies as the more specific Conflict.
func KindOf(err error) ErrorKind {
	if err == nil {
		return KindNone
	}
	for _, s := range kindSentinels {
		if errors.Is(err, s.err) {
			return s.kind
		}
	}
	return KindTransport
}

// Retryable reports whether a failure of this kind may succeed when retried.
// Fetch failures render as retry-capable placeholders.
func (k ErrorKind) Retryable() bool {
	switch k {
	case KindTransport, KindNotFound, KindConflict:
		return true
	default:
		return false
	}
}
