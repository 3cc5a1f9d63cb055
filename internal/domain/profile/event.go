package profile

import "time"

type ChangeKind string

const (
	ChangeCreated ChangeKind = "created"
	ChangeUpdated ChangeKind = "updated"
	ChangeDeleted ChangeKind = "deleted"
)

// ChangeEvent describes a committed profile mutation. Version is the version
// the record carried after the mutation (the pre-delete version for deletes).
type ChangeEvent struct {
	ProfileID  string     `json:"profile_id"`
	Kind       ChangeKind `json:"kind"`
	Version    int64      `json:"version"`
	OccurredAt time.Time  `json:"occurred_at"`
}
