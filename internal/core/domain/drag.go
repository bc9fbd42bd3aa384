package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// DragPhase is the state of the drag/drop coordinator.
type DragPhase string

const (
	// DragIdle means no drag is active.
	DragIdle DragPhase = "idle"
	// DragDragging means a tile is being dragged.
	DragDragging DragPhase = "dragging"
	// DragCommitting means a drop was accepted and the move is in flight.
	DragCommitting DragPhase = "committing"
)

// DragSession is the ephemeral state of one drag gesture.
type DragSession struct {
	ID     uuid.UUID
	Source Coord
	// User is the user who started the drag. Drop re-checks permission with a fresh lookup.
	User        CurrentUser
	Target      *Coord
	ValidTarget bool
	// Reason explains why the current target is invalid.
	Reason    ErrorKind
	StartedAt time.Time
}

// NewDragSession starts a session for the given source tile.
func NewDragSession(source Coord, user CurrentUser, now time.Time) DragSession {
	return DragSession{
		ID:        uuid.New(),
		Source:    source,
		User:      user,
		StartedAt: now,
	}
}

// Clone returns a copy that shares no memory with s.
func (s DragSession) Clone() DragSession {
	if s.Target != nil {
		t := *s.Target
		s.Target = &t
	}
	return s
}

// Notice is a transient, user-visible message produced by a failed gesture.
type Notice struct {
	Kind    ErrorKind `json:"kind"`
	Message string    `json:"message"`
	// Rejected is set when the server refused a mutation and the optimistic
	// update was rolled back. Kind then names the server's reason.
	Rejected bool   `json:"rejected,omitempty"`
	Coord    *Coord `json:"-"`
	// Cause is the error the notice was built from.
	Cause error `json:"-"`
}

// NoticeFor builds a notice from err, or returns nil for a nil error.
func NoticeFor(err error, c *Coord) *Notice {
	if err == nil {
		return nil
	}
	return &Notice{
		Kind:     KindOf(err),
		Message:  err.Error(),
		Rejected: errors.Is(err, ErrMutationRejected),
		Coord:    c,
		Cause:    err,
	}
}
