package remote

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"gymtrack/internal/gym"
)

// remoteTables maps the sync table names onto the hosted schema.
var remoteTables = map[gym.Table]string{
	gym.TableDays:      "workout_days",
	gym.TableExercises: "exercises",
	gym.TableSets:      "sets",
	gym.TableLogs:      "workout_logs",
}

// PostgresRemote is a Postgres-backed implementation of the RemoteStore
// interface. Row ids are server-assigned via RETURNING.
type PostgresRemote struct {
	pool *pgxpool.Pool
}

// NewPostgresRemote connects to the given Postgres URL and returns a remote
// store backed by a connection pool.
func NewPostgresRemote(ctx context.Context, url string) (*PostgresRemote, error) {
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("connecting to remote database: %w", err)
	}
	return &PostgresRemote{pool: pool}, nil
}

// NewPostgresRemoteFromPool wraps an existing pool, mainly for tests.
func NewPostgresRemoteFromPool(pool *pgxpool.Pool) *PostgresRemote {
	return &PostgresRemote{pool: pool}
}

func (p *PostgresRemote) Days(ctx context.Context, ownerID string) ([]gym.RemoteDay, error) {
	const query = `SELECT id, owner_id, name, created_at FROM workout_days WHERE owner_id = $1 ORDER BY id`

	rows, err := p.pool.Query(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("fetching remote days: %w", err)
	}
	defer rows.Close()

	var days []gym.RemoteDay
	for rows.Next() {
		var d gym.RemoteDay
		if err := rows.Scan(&d.ID, &d.OwnerID, &d.Name, &d.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning remote day: %w", err)
		}
		days = append(days, d)
	}
	return days, rows.Err()
}

func (p *PostgresRemote) InsertDay(ctx context.Context, day gym.RemoteDay) (gym.RemoteDay, error) {
	const query = `INSERT INTO workout_days (owner_id, name, created_at) VALUES ($1, $2, $3) RETURNING id`

	if err := p.pool.QueryRow(ctx, query, day.OwnerID, day.Name, day.CreatedAt).Scan(&day.ID); err != nil {
		return gym.RemoteDay{}, fmt.Errorf("inserting remote day: %w", err)
	}
	return day, nil
}

func (p *PostgresRemote) Exercises(ctx context.Context) ([]gym.RemoteExercise, error) {
	const query = `SELECT id, day_id, name, position, created_at FROM exercises ORDER BY id`

	rows, err := p.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("fetching remote exercises: %w", err)
	}
	defer rows.Close()

	var exercises []gym.RemoteExercise
	for rows.Next() {
		var ex gym.RemoteExercise
		if err := rows.Scan(&ex.ID, &ex.DayID, &ex.Name, &ex.Position, &ex.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning remote exercise: %w", err)
		}
		exercises = append(exercises, ex)
	}
	return exercises, rows.Err()
}

func (p *PostgresRemote) InsertExercise(ctx context.Context, ex gym.RemoteExercise) (gym.RemoteExercise, error) {
	const query = `INSERT INTO exercises (day_id, name, position, created_at) VALUES ($1, $2, $3, $4) RETURNING id`

	if err := p.pool.QueryRow(ctx, query, ex.DayID, ex.Name, ex.Position, ex.CreatedAt).Scan(&ex.ID); err != nil {
		return gym.RemoteExercise{}, fmt.Errorf("inserting remote exercise: %w", err)
	}
	return ex, nil
}

func (p *PostgresRemote) Sets(ctx context.Context) ([]gym.RemoteSet, error) {
	const query = `SELECT id, exercise_id, weight, reps, set_number, completed_at, completed FROM sets ORDER BY id`

	rows, err := p.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("fetching remote sets: %w", err)
	}
	defer rows.Close()

	var sets []gym.RemoteSet
	for rows.Next() {
		var s gym.RemoteSet
		if err := rows.Scan(&s.ID, &s.ExerciseID, &s.Weight, &s.Reps, &s.SetNumber, &s.CompletedAt, &s.Completed); err != nil {
			return nil, fmt.Errorf("scanning remote set: %w", err)
		}
		sets = append(sets, s)
	}
	return sets, rows.Err()
}

func (p *PostgresRemote) InsertSet(ctx context.Context, set gym.RemoteSet) (gym.RemoteSet, error) {
	const query = `INSERT INTO sets (exercise_id, weight, reps, set_number, completed_at, completed)
        VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`

	if err := p.pool.QueryRow(ctx, query,
		set.ExerciseID, set.Weight, set.Reps, set.SetNumber, set.CompletedAt, set.Completed,
	).Scan(&set.ID); err != nil {
		return gym.RemoteSet{}, fmt.Errorf("inserting remote set: %w", err)
	}
	return set, nil
}

// UpsertSets overwrites the remote rows for already-synced sets in one
// transaction so a partial failure leaves the remote untouched.
func (p *PostgresRemote) UpsertSets(ctx context.Context, sets []gym.RemoteSet) error {
	if len(sets) == 0 {
		return nil
	}

	const query = `INSERT INTO sets (id, exercise_id, weight, reps, set_number, completed_at, completed)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
        ON CONFLICT (id) DO UPDATE SET
            exercise_id = EXCLUDED.exercise_id,
            weight = EXCLUDED.weight,
            reps = EXCLUDED.reps,
            set_number = EXCLUDED.set_number,
            completed_at = EXCLUDED.completed_at,
            completed = EXCLUDED.completed`

	tx, err := p.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("beginning upsert transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, s := range sets {
		if s.ID == 0 {
			return fmt.Errorf("upsert requires a remote id")
		}
		if _, err := tx.Exec(ctx, query,
			s.ID, s.ExerciseID, s.Weight, s.Reps, s.SetNumber, s.CompletedAt, s.Completed,
		); err != nil {
			return fmt.Errorf("upserting remote set %d: %w", s.ID, err)
		}
	}
	return tx.Commit(ctx)
}

func (p *PostgresRemote) Logs(ctx context.Context, ownerID string) ([]gym.RemoteLog, error) {
	const query = `SELECT id, exercise_id, weight, reps, set_number, date, owner_id
        FROM workout_logs WHERE owner_id = $1 ORDER BY id`

	rows, err := p.pool.Query(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("fetching remote logs: %w", err)
	}
	defer rows.Close()

	var logs []gym.RemoteLog
	for rows.Next() {
		var l gym.RemoteLog
		if err := rows.Scan(&l.ID, &l.ExerciseID, &l.Weight, &l.Reps, &l.SetNumber, &l.Date, &l.OwnerID); err != nil {
			return nil, fmt.Errorf("scanning remote log: %w", err)
		}
		logs = append(logs, l)
	}
	return logs, rows.Err()
}

func (p *PostgresRemote) InsertLog(ctx context.Context, log gym.RemoteLog) (gym.RemoteLog, error) {
	const query = `INSERT INTO workout_logs (exercise_id, weight, reps, set_number, date, owner_id)
        VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`

	if err := p.pool.QueryRow(ctx, query,
		log.ExerciseID, log.Weight, log.Reps, log.SetNumber, log.Date, log.OwnerID,
	).Scan(&log.ID); err != nil {
		return gym.RemoteLog{}, fmt.Errorf("inserting remote log: %w", err)
	}
	return log, nil
}

func (p *PostgresRemote) Delete(ctx context.Context, table gym.Table, remoteID int64) error {
	name, ok := remoteTables[table]
	if !ok {
		return fmt.Errorf("unknown table: %s", table)
	}

	// Deletes are idempotent: a row already removed remotely is not an error.
	query := fmt.Sprintf("DELETE FROM %s WHERE id = $1", name)
	if _, err := p.pool.Exec(ctx, query, remoteID); err != nil {
		return fmt.Errorf("deleting from remote %s: %w", name, err)
	}
	return nil
}

func (p *PostgresRemote) Ping(ctx context.Context) error {
	if err := p.pool.Ping(ctx); err != nil {
		return fmt.Errorf("pinging remote database: %w", err)
	}
	return nil
}

// Close releases the connection pool.
func (p *PostgresRemote) Close() {
	p.pool.Close()
}

// Compile-time check that PostgresRemote implements the RemoteStore interface
var _ gym.RemoteStore = (*PostgresRemote)(nil)
