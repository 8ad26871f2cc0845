package gym

import "context"

// Store is the set of table operations available against the local
// database, both directly and inside a transaction.
//
// Finder methods return (nil, nil) when no row matches.
type Store interface {
	// Workout days

	AddDay(ctx context.Context, day WorkoutDay) (int64, error)
	GetDay(ctx context.Context, id int64) (*WorkoutDay, error)
	ListDays(ctx context.Context) ([]WorkoutDay, error)
	DayByRemoteID(ctx context.Context, remoteID int64) (*WorkoutDay, error)
	UnsyncedDays(ctx context.Context) ([]WorkoutDay, error)
	UpdateDay(ctx context.Context, day WorkoutDay) error
	DeleteDay(ctx context.Context, id int64) error

	// Exercises

	AddExercise(ctx context.Context, ex Exercise) (int64, error)
	GetExercise(ctx context.Context, id int64) (*Exercise, error)
	ListExercises(ctx context.Context) ([]Exercise, error)
	ExercisesByDay(ctx context.Context, dayID int64) ([]Exercise, error)
	ExerciseByRemoteID(ctx context.Context, remoteID int64) (*Exercise, error)
	UnsyncedExercises(ctx context.Context) ([]Exercise, error)
	UpdateExercise(ctx context.Context, ex Exercise) error
	DeleteExercise(ctx context.Context, id int64) error

	// ReassignExercises moves every exercise of fromDay to toDay.
	ReassignExercises(ctx context.Context, fromDay, toDay int64) error

	// Sets

	AddSet(ctx context.Context, set ExerciseSet) (int64, error)
	GetSet(ctx context.Context, id int64) (*ExerciseSet, error)
	SetsByExercise(ctx context.Context, exerciseID int64) ([]ExerciseSet, error)
	SetByRemoteID(ctx context.Context, remoteID int64) (*ExerciseSet, error)
	UnsyncedSets(ctx context.Context) ([]ExerciseSet, error)
	SyncedSets(ctx context.Context) ([]ExerciseSet, error)
	UpdateSet(ctx context.Context, set ExerciseSet) error
	DeleteSet(ctx context.Context, id int64) error

	// ReassignSets moves every set of fromExercise to toExercise.
	ReassignSets(ctx context.Context, fromExercise, toExercise int64) error

	// Workout logs

	AddLog(ctx context.Context, log WorkoutLog) (int64, error)
	ListLogs(ctx context.Context, ownerID string) ([]WorkoutLog, error)
	LogByRemoteID(ctx context.Context, remoteID int64) (*WorkoutLog, error)
	UnsyncedLogs(ctx context.Context) ([]WorkoutLog, error)
	UpdateLog(ctx context.Context, log WorkoutLog) error
	DeleteLog(ctx context.Context, id int64) error

	// Pending deletions

	AddDeletion(ctx context.Context, rec DeletionRecord) (int64, error)
	ListDeletions(ctx context.Context) ([]DeletionRecord, error)
	DeleteDeletion(ctx context.Context, id int64) error
}

// LocalStore is the embedded on-device database: the Store operations
// plus transaction support and lifecycle management.
type LocalStore interface {
	Store

	// Transact runs fn atomically. The Store passed to fn is bound to
	// the transaction; returning an error rolls everything back.
	Transact(ctx context.Context, fn func(Store) error) error

	Close() error
}
