package session

import "time"

// Record is a cached authenticated session. Records held by the Manager are
// never mutated; revalidation swaps in a new copy.
type Record struct {
	// Key is Identity.Key() of the owning identity
	Key string `json:"key"`

	// Name is Identity.String() of the owning identity
	Name string `json:"name"`

	State StorageState `json:"state"`

	// CreatedAt is when the login that produced State finished
	CreatedAt time.Time `json:"createdAt"`

	// ValidatedAt is when State was last created or accepted by a probe
	ValidatedAt time.Time `json:"validatedAt"`
}

// Clone returns a deep copy of the record.
func (r Record) Clone() Record {
	r.State = r.State.Clone()
	return r
}

// Handle is what Acquire hands back to a caller.
type Handle struct {
	Identity Identity
	State    StorageState

	CreatedAt   time.Time
	ValidatedAt time.Time

	// Reused is true when a cached session passed validation and no login ran
	Reused bool
}

func newHandle(id Identity, rec *Record, reused bool) *Handle {
	return &Handle{
		Identity:    id,
		State:       rec.State.Clone(),
		CreatedAt:   rec.CreatedAt,
		ValidatedAt: rec.ValidatedAt,
		Reused:      reused,
	}
}
