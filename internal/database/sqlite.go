package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"gymtrack/internal/database/migrations"
	"gymtrack/internal/gym"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// DBTX is satisfied by both *sql.DB and *sql.Tx, so the same query
// methods serve direct calls and transactions.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// queries implements gym.Store against any DBTX.
type queries struct {
	db DBTX
}

// SQLiteStore implements gym.LocalStore using SQLite.
type SQLiteStore struct {
	queries
	db   *sql.DB
	path string
}

// NewSQLiteStore opens a SQLite store at path.
// path can be a file path or ":memory:" for an in-memory database.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := OpenConnection(path)
	if err != nil {
		return nil, err
	}
	return &SQLiteStore{queries: queries{db: db}, db: db, path: path}, nil
}

// NewSQLiteStoreFromDB wraps an existing database connection.
// The caller is responsible for ensuring the connection is properly configured.
func NewSQLiteStoreFromDB(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{queries: queries{db: db}, db: db}
}

// OpenConnection opens and configures a SQLite connection with appropriate PRAGMAs.
// This is exported for use in tools and tests that need a properly configured
// connection. path can be a file path or ":memory:".
func OpenConnection(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Enable foreign key constraints (SQLite default is OFF for backward compatibility)
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	return db, nil
}

// Transact runs fn inside a transaction. The gym.Store passed to fn
// issues all its statements on the transaction; an error from fn rolls
// everything back.
func (s *SQLiteStore) Transact(ctx context.Context, fn func(gym.Store) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(&queries{db: tx}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// Path returns the database file path (or ":memory:" for in-memory databases).
func (s *SQLiteStore) Path() string {
	return s.path
}

// CheckMigrations verifies the database schema is up-to-date.
func (s *SQLiteStore) CheckMigrations() error {
	return migrations.CheckDBMigrationStatus(s.db)
}

// Migrate runs all pending migrations.
func (s *SQLiteStore) Migrate() error {
	return migrations.MigrateUp(s.db)
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Workout day operations

const dayColumns = "id, name, owner_id, created_at, remote_id"

func scanDay(row interface{ Scan(...any) error }) (gym.WorkoutDay, error) {
	var d gym.WorkoutDay
	err := row.Scan(&d.ID, &d.Name, &d.OwnerID, &d.CreatedAt, &d.RemoteID)
	return d, err
}

func (q *queries) AddDay(ctx context.Context, day gym.WorkoutDay) (int64, error) {
	res, err := q.db.ExecContext(ctx,
		"INSERT INTO workout_days (name, owner_id, created_at, remote_id) VALUES (?, ?, ?, ?)",
		day.Name, day.OwnerID, day.CreatedAt, day.RemoteID)
	if err != nil {
		return 0, fmt.Errorf("inserting day: %w", err)
	}
	return res.LastInsertId()
}

func (q *queries) GetDay(ctx context.Context, id int64) (*gym.WorkoutDay, error) {
	d, err := scanDay(q.db.QueryRowContext(ctx,
		"SELECT "+dayColumns+" FROM workout_days WHERE id = ?", id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // Not found
		}
		return nil, fmt.Errorf("getting day: %w", err)
	}
	return &d, nil
}

func (q *queries) ListDays(ctx context.Context) ([]gym.WorkoutDay, error) {
	return q.queryDays(ctx, "SELECT "+dayColumns+" FROM workout_days ORDER BY id")
}

func (q *queries) DayByRemoteID(ctx context.Context, remoteID int64) (*gym.WorkoutDay, error) {
	d, err := scanDay(q.db.QueryRowContext(ctx,
		"SELECT "+dayColumns+" FROM workout_days WHERE remote_id = ?", remoteID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("getting day by remote id: %w", err)
	}
	return &d, nil
}

func (q *queries) UnsyncedDays(ctx context.Context) ([]gym.WorkoutDay, error) {
	return q.queryDays(ctx, "SELECT "+dayColumns+" FROM workout_days WHERE remote_id IS NULL ORDER BY id")
}

func (q *queries) queryDays(ctx context.Context, query string, args ...any) ([]gym.WorkoutDay, error) {
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying days: %w", err)
	}
	defer rows.Close()

	var days []gym.WorkoutDay
	for rows.Next() {
		d, err := scanDay(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning day: %w", err)
		}
		days = append(days, d)
	}
	return days, rows.Err()
}

func (q *queries) UpdateDay(ctx context.Context, day gym.WorkoutDay) error {
	_, err := q.db.ExecContext(ctx,
		"UPDATE workout_days SET name = ?, owner_id = ?, created_at = ?, remote_id = ? WHERE id = ?",
		day.Name, day.OwnerID, day.CreatedAt, day.RemoteID, day.ID)
	if err != nil {
		return fmt.Errorf("updating day: %w", err)
	}
	return nil
}

func (q *queries) DeleteDay(ctx context.Context, id int64) error {
	if _, err := q.db.ExecContext(ctx, "DELETE FROM workout_days WHERE id = ?", id); err != nil {
		return fmt.Errorf("deleting day: %w", err)
	}
	return nil
}

// Exercise operations

const exerciseColumns = "id, day_id, name, position, created_at, remote_id"

func scanExercise(row interface{ Scan(...any) error }) (gym.Exercise, error) {
	var e gym.Exercise
	err := row.Scan(&e.ID, &e.DayID, &e.Name, &e.Position, &e.CreatedAt, &e.RemoteID)
	return e, err
}

func (q *queries) AddExercise(ctx context.Context, ex gym.Exercise) (int64, error) {
	res, err := q.db.ExecContext(ctx,
		"INSERT INTO exercises (day_id, name, position, created_at, remote_id) VALUES (?, ?, ?, ?, ?)",
		ex.DayID, ex.Name, ex.Position, ex.CreatedAt, ex.RemoteID)
	if err != nil {
		return 0, fmt.Errorf("inserting exercise: %w", err)
	}
	return res.LastInsertId()
}

func (q *queries) GetExercise(ctx context.Context, id int64) (*gym.Exercise, error) {
	e, err := scanExercise(q.db.QueryRowContext(ctx,
		"SELECT "+exerciseColumns+" FROM exercises WHERE id = ?", id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("getting exercise: %w", err)
	}
	return &e, nil
}

func (q *queries) ListExercises(ctx context.Context) ([]gym.Exercise, error) {
	return q.queryExercises(ctx, "SELECT "+exerciseColumns+" FROM exercises ORDER BY id")
}

func (q *queries) ExercisesByDay(ctx context.Context, dayID int64) ([]gym.Exercise, error) {
	return q.queryExercises(ctx,
		"SELECT "+exerciseColumns+" FROM exercises WHERE day_id = ? ORDER BY position, id", dayID)
}

func (q *queries) ExerciseByRemoteID(ctx context.Context, remoteID int64) (*gym.Exercise, error) {
	e, err := scanExercise(q.db.QueryRowContext(ctx,
		"SELECT "+exerciseColumns+" FROM exercises WHERE remote_id = ?", remoteID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("getting exercise by remote id: %w", err)
	}
	return &e, nil
}

func (q *queries) UnsyncedExercises(ctx context.Context) ([]gym.Exercise, error) {
	return q.queryExercises(ctx,
		"SELECT "+exerciseColumns+" FROM exercises WHERE remote_id IS NULL ORDER BY id")
}

func (q *queries) queryExercises(ctx context.Context, query string, args ...any) ([]gym.Exercise, error) {
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying exercises: %w", err)
	}
	defer rows.Close()

	var exercises []gym.Exercise
	for rows.Next() {
		e, err := scanExercise(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning exercise: %w", err)
		}
		exercises = append(exercises, e)
	}
	return exercises, rows.Err()
}

func (q *queries) UpdateExercise(ctx context.Context, ex gym.Exercise) error {
	_, err := q.db.ExecContext(ctx,
		"UPDATE exercises SET day_id = ?, name = ?, position = ?, created_at = ?, remote_id = ? WHERE id = ?",
		ex.DayID, ex.Name, ex.Position, ex.CreatedAt, ex.RemoteID, ex.ID)
	if err != nil {
		return fmt.Errorf("updating exercise: %w", err)
	}
	return nil
}

func (q *queries) DeleteExercise(ctx context.Context, id int64) error {
	if _, err := q.db.ExecContext(ctx, "DELETE FROM exercises WHERE id = ?", id); err != nil {
		return fmt.Errorf("deleting exercise: %w", err)
	}
	return nil
}

func (q *queries) ReassignExercises(ctx context.Context, fromDay, toDay int64) error {
	_, err := q.db.ExecContext(ctx,
		"UPDATE exercises SET day_id = ? WHERE day_id = ?", toDay, fromDay)
	if err != nil {
		return fmt.Errorf("reassigning exercises: %w", err)
	}
	return nil
}

// Set operations

const setColumns = "id, exercise_id, weight, reps, set_number, completed_at, completed, remote_id"

func scanSet(row interface{ Scan(...any) error }) (gym.ExerciseSet, error) {
	var s gym.ExerciseSet
	err := row.Scan(&s.ID, &s.ExerciseID, &s.Weight, &s.Reps, &s.SetNumber, &s.CompletedAt, &s.Completed, &s.RemoteID)
	return s, err
}

func (q *queries) AddSet(ctx context.Context, set gym.ExerciseSet) (int64, error) {
	res, err := q.db.ExecContext(ctx,
		"INSERT INTO sets (exercise_id, weight, reps, set_number, completed_at, completed, remote_id) VALUES (?, ?, ?, ?, ?, ?, ?)",
		set.ExerciseID, set.Weight, set.Reps, set.SetNumber, set.CompletedAt, set.Completed, set.RemoteID)
	if err != nil {
		return 0, fmt.Errorf("inserting set: %w", err)
	}
	return res.LastInsertId()
}

func (q *queries) GetSet(ctx context.Context, id int64) (*gym.ExerciseSet, error) {
	s, err := scanSet(q.db.QueryRowContext(ctx,
		"SELECT "+setColumns+" FROM sets WHERE id = ?", id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("getting set: %w", err)
	}
	return &s, nil
}

func (q *queries) SetsByExercise(ctx context.Context, exerciseID int64) ([]gym.ExerciseSet, error) {
	return q.querySets(ctx,
		"SELECT "+setColumns+" FROM sets WHERE exercise_id = ? ORDER BY set_number, id", exerciseID)
}

func (q *queries) SetByRemoteID(ctx context.Context, remoteID int64) (*gym.ExerciseSet, error) {
	s, err := scanSet(q.db.QueryRowContext(ctx,
		"SELECT "+setColumns+" FROM sets WHERE remote_id = ?", remoteID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("getting set by remote id: %w", err)
	}
	return &s, nil
}

func (q *queries) UnsyncedSets(ctx context.Context) ([]gym.ExerciseSet, error) {
	return q.querySets(ctx, "SELECT "+setColumns+" FROM sets WHERE remote_id IS NULL ORDER BY id")
}

func (q *queries) SyncedSets(ctx context.Context) ([]gym.ExerciseSet, error) {
	return q.querySets(ctx, "SELECT "+setColumns+" FROM sets WHERE remote_id IS NOT NULL ORDER BY id")
}

func (q *queries) querySets(ctx context.Context, query string, args ...any) ([]gym.ExerciseSet, error) {
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying sets: %w", err)
	}
	defer rows.Close()

	var sets []gym.ExerciseSet
	for rows.Next() {
		s, err := scanSet(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning set: %w", err)
		}
		sets = append(sets, s)
	}
	return sets, rows.Err()
}

func (q *queries) UpdateSet(ctx context.Context, set gym.ExerciseSet) error {
	_, err := q.db.ExecContext(ctx,
		"UPDATE sets SET exercise_id = ?, weight = ?, reps = ?, set_number = ?, completed_at = ?, completed = ?, remote_id = ? WHERE id = ?",
		set.ExerciseID, set.Weight, set.Reps, set.SetNumber, set.CompletedAt, set.Completed, set.RemoteID, set.ID)
	if err != nil {
		return fmt.Errorf("updating set: %w", err)
	}
	return nil
}

func (q *queries) DeleteSet(ctx context.Context, id int64) error {
	if _, err := q.db.ExecContext(ctx, "DELETE FROM sets WHERE id = ?", id); err != nil {
		return fmt.Errorf("deleting set: %w", err)
	}
	return nil
}

func (q *queries) ReassignSets(ctx context.Context, fromExercise, toExercise int64) error {
	_, err := q.db.ExecContext(ctx,
		"UPDATE sets SET exercise_id = ? WHERE exercise_id = ?", toExercise, fromExercise)
	if err != nil {
		return fmt.Errorf("reassigning sets: %w", err)
	}
	return nil
}

// Workout log operations

const logColumns = "id, exercise_id, weight, reps, set_number, date, owner_id, remote_id"

func scanLog(row interface{ Scan(...any) error }) (gym.WorkoutLog, error) {
	var l gym.WorkoutLog
	err := row.Scan(&l.ID, &l.ExerciseID, &l.Weight, &l.Reps, &l.SetNumber, &l.Date, &l.OwnerID, &l.RemoteID)
	return l, err
}

func (q *queries) AddLog(ctx context.Context, log gym.WorkoutLog) (int64, error) {
	res, err := q.db.ExecContext(ctx,
		"INSERT INTO workout_logs (exercise_id, weight, reps, set_number, date, owner_id, remote_id) VALUES (?, ?, ?, ?, ?, ?, ?)",
		log.ExerciseID, log.Weight, log.Reps, log.SetNumber, log.Date, log.OwnerID, log.RemoteID)
	if err != nil {
		return 0, fmt.Errorf("inserting log: %w", err)
	}
	return res.LastInsertId()
}

func (q *queries) ListLogs(ctx context.Context, ownerID string) ([]gym.WorkoutLog, error) {
	return q.queryLogs(ctx,
		"SELECT "+logColumns+" FROM workout_logs WHERE owner_id = ? OR owner_id = '' OR owner_id = ? ORDER BY id",
		ownerID, gym.OfflineOwner)
}

func (q *queries) LogByRemoteID(ctx context.Context, remoteID int64) (*gym.WorkoutLog, error) {
	l, err := scanLog(q.db.QueryRowContext(ctx,
		"SELECT "+logColumns+" FROM workout_logs WHERE remote_id = ?", remoteID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("getting log by remote id: %w", err)
	}
	return &l, nil
}

func (q *queries) UnsyncedLogs(ctx context.Context) ([]gym.WorkoutLog, error) {
	return q.queryLogs(ctx, "SELECT "+logColumns+" FROM workout_logs WHERE remote_id IS NULL ORDER BY id")
}

func (q *queries) queryLogs(ctx context.Context, query string, args ...any) ([]gym.WorkoutLog, error) {
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying logs: %w", err)
	}
	defer rows.Close()

	var logs []gym.WorkoutLog
	for rows.Next() {
		l, err := scanLog(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning log: %w", err)
		}
		logs = append(logs, l)
	}
	return logs, rows.Err()
}

func (q *queries) UpdateLog(ctx context.Context, log gym.WorkoutLog) error {
	_, err := q.db.ExecContext(ctx,
		"UPDATE workout_logs SET exercise_id = ?, weight = ?, reps = ?, set_number = ?, date = ?, owner_id = ?, remote_id = ? WHERE id = ?",
		log.ExerciseID, log.Weight, log.Reps, log.SetNumber, log.Date, log.OwnerID, log.RemoteID, log.ID)
	if err != nil {
		return fmt.Errorf("updating log: %w", err)
	}
	return nil
}

func (q *queries) DeleteLog(ctx context.Context, id int64) error {
	if _, err := q.db.ExecContext(ctx, "DELETE FROM workout_logs WHERE id = ?", id); err != nil {
		return fmt.Errorf("deleting log: %w", err)
	}
	return nil
}

// Pending deletion operations

func (q *queries) AddDeletion(ctx context.Context, rec gym.DeletionRecord) (int64, error) {
	if !rec.Table.Valid() {
		return 0, fmt.Errorf("unknown table name: %s", rec.Table)
	}
	res, err := q.db.ExecContext(ctx,
		"INSERT INTO deletions (table_name, remote_id) VALUES (?, ?)",
		string(rec.Table), rec.RemoteID)
	if err != nil {
		return 0, fmt.Errorf("inserting deletion record: %w", err)
	}
	return res.LastInsertId()
}

func (q *queries) ListDeletions(ctx context.Context) ([]gym.DeletionRecord, error) {
	rows, err := q.db.QueryContext(ctx, "SELECT id, table_name, remote_id FROM deletions ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("querying deletion records: %w", err)
	}
	defer rows.Close()

	var records []gym.DeletionRecord
	for rows.Next() {
		var rec gym.DeletionRecord
		var table string
		if err := rows.Scan(&rec.ID, &table, &rec.RemoteID); err != nil {
			return nil, fmt.Errorf("scanning deletion record: %w", err)
		}
		rec.Table = gym.Table(table)
		records = append(records, rec)
	}
	return records, rows.Err()
}

func (q *queries) DeleteDeletion(ctx context.Context, id int64) error {
	if _, err := q.db.ExecContext(ctx, "DELETE FROM deletions WHERE id = ?", id); err != nil {
		return fmt.Errorf("deleting deletion record: %w", err)
	}
	return nil
}

// Compile-time check that SQLiteStore implements gym.LocalStore
var _ gym.LocalStore = (*SQLiteStore)(nil)
