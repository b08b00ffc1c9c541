package bill

import (
	"strings"

	"github.com/google/uuid"
)

// LocalPersonPrefix marks participant identifiers created locally on a
// client (e.g. picked from the owner's contact list before the contact has
// an account of their own). The form is "local:<uuid>" or
// "local:<uuid>:<label>", where <uuid> is the real user ID when known.
const LocalPersonPrefix = "local:"

// Person is a bill participant. The ID is either a real user UUID, a local
// composite identifier embedding a real user ID, or an opaque guest label
// with no persistent ledger identity.
type Person struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// ResolveUserID extracts the real user ID from a participant identifier.
// Returns false for guests, i.e. identifiers that embed no user ID.
func ResolveUserID(personID string) (uuid.UUID, bool) {
	id := personID
	if strings.HasPrefix(id, LocalPersonPrefix) {
		id = strings.TrimPrefix(id, LocalPersonPrefix)
		if i := strings.IndexByte(id, ':'); i >= 0 {
			id = id[:i]
		}
	}
	parsed, err := uuid.Parse(id)
	if err != nil {
		return uuid.Nil, false
	}
	return parsed, true
}

// IsGuest reports whether the person resolves to no real user.
func (p Person) IsGuest() bool {
	_, ok := ResolveUserID(p.ID)
	return !ok
}
