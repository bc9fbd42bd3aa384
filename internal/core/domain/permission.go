package domain

import "strconv"

// CurrentUser is the signed-in user, if any.
type CurrentUser struct {
	ID      int
	Present bool
}

// Anonymous is the absent user.
var Anonymous = CurrentUser{}

// UserOf returns a present user with the given ID.
func UserOf(id int) CurrentUser {
	return CurrentUser{ID: id, Present: true}
}

// String returns the user ID, or "anonymous".
func (u CurrentUser) String() string {
	if !u.Present {
		return "anonymous"
	}
	return strconv.Itoa(u.ID)
}

// CanEdit reports whether user may mutate a tile owned by ownerID.
// This is a UX gate; the server enforces authorization independently.
func CanEdit(user CurrentUser, ownerID string) bool {
	if !user.Present {
		return false
	}
	return strconv.Itoa(user.ID) == ownerID
}
