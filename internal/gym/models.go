package gym

import (
	"database/sql"
	"time"
)

// OfflineOwner marks records created before the user ever signed in.
// Such records are adopted by the first owner that syncs them.
const OfflineOwner = "offline-user"

// WorkoutDay is the root entity: a named training day owning exercises.
// RemoteID is set once the day has been pushed to (or pulled from) the
// remote store; a day without a RemoteID is pending push.
type WorkoutDay struct {
	ID        int64
	Name      string
	OwnerID   string
	CreatedAt time.Time
	RemoteID  sql.NullInt64
}

// Exercise belongs to a WorkoutDay, referenced by local id.
type Exercise struct {
	ID        int64
	DayID     int64
	Name      string
	Position  int64
	CreatedAt time.Time
	RemoteID  sql.NullInt64
}

// ExerciseSet is an in-progress or template set of an exercise.
// SetNumber is the set's slot within its exercise and doubles as the
// logical identity used for duplicate detection (sets have no name).
type ExerciseSet struct {
	ID          int64
	ExerciseID  int64
	Weight      float64
	Reps        int64
	SetNumber   int64
	CompletedAt sql.NullTime
	Completed   bool
	RemoteID    sql.NullInt64
}

// WorkoutLog records one completed set at workout finish time.
// Logs are append-only history: sync only ever inserts them.
type WorkoutLog struct {
	ID         int64
	ExerciseID int64
	Weight     float64
	Reps       int64
	SetNumber  int64
	Date       time.Time
	OwnerID    string
	RemoteID   sql.NullInt64
}

// DeletionRecord is a durable intent to delete a remote row. It is
// retried every sync cycle until the remote delete succeeds.
type DeletionRecord struct {
	ID       int64
	Table    Table
	RemoteID int64
}

// Synced reports whether the day has a remote counterpart.
func (d WorkoutDay) Synced() bool { return d.RemoteID.Valid }

// Synced reports whether the exercise has a remote counterpart.
func (e Exercise) Synced() bool { return e.RemoteID.Valid }

// Synced reports whether the set has a remote counterpart.
func (s ExerciseSet) Synced() bool { return s.RemoteID.Valid }

// Synced reports whether the log has a remote counterpart.
func (l WorkoutLog) Synced() bool { return l.RemoteID.Valid }

// ownerCompatible reports whether a record owned by ownerID may be
// merged with or claimed for the given owner. Unowned and offline-owned
// records are compatible with every owner.
func ownerCompatible(recordOwner, ownerID string) bool {
	return recordOwner == ownerID || recordOwner == "" || recordOwner == OfflineOwner
}
