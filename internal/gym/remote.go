package gym

import (
	"context"
	"time"
)

// Table identifies one of the four synced entity tables.
type Table string

const (
	TableDays      Table = "days"
	TableExercises Table = "exercises"
	TableSets      Table = "sets"
	TableLogs      Table = "logs"
)

// Valid reports whether t names a known table.
func (t Table) Valid() bool {
	switch t {
	case TableDays, TableExercises, TableSets, TableLogs:
		return true
	}
	return false
}

// Remote row types. These mirror the remote store's schema: ids are
// remote ids, and parent references are by the parent's remote id.
// Field-name translation (camelCase local vs snake_case wire) is the
// backend's concern.

type RemoteDay struct {
	ID        int64
	OwnerID   string
	Name      string
	CreatedAt time.Time
}

type RemoteExercise struct {
	ID        int64
	DayID     int64
	Name      string
	Position  int64
	CreatedAt time.Time
}

type RemoteSet struct {
	ID          int64
	ExerciseID  int64
	Weight      float64
	Reps        int64
	SetNumber   int64
	CompletedAt *time.Time
	Completed   bool
}

type RemoteLog struct {
	ID         int64
	ExerciseID int64
	Weight     float64
	Reps       int64
	SetNumber  int64
	Date       time.Time
	OwnerID    string
}

// RemoteStore is the hosted backend. Inserts return the stored row with
// its server-assigned id. Days and logs are scoped by owner; exercises
// and sets are fetched globally and filtered by resolvable parent on
// the caller's side.
type RemoteStore interface {
	Days(ctx context.Context, ownerID string) ([]RemoteDay, error)
	InsertDay(ctx context.Context, day RemoteDay) (RemoteDay, error)

	Exercises(ctx context.Context) ([]RemoteExercise, error)
	InsertExercise(ctx context.Context, ex RemoteExercise) (RemoteExercise, error)

	Sets(ctx context.Context) ([]RemoteSet, error)
	InsertSet(ctx context.Context, set RemoteSet) (RemoteSet, error)
	// UpsertSets overwrites existing remote sets by id in one call.
	UpsertSets(ctx context.Context, sets []RemoteSet) error

	Logs(ctx context.Context, ownerID string) ([]RemoteLog, error)
	InsertLog(ctx context.Context, log RemoteLog) (RemoteLog, error)

	// Delete removes the row with the given remote id from table.
	Delete(ctx context.Context, table Table, remoteID int64) error

	// Ping verifies that the backend is reachable and configured.
	Ping(ctx context.Context) error
}
