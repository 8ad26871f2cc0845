package database

// Schema is the complete current database schema, equivalent to running
// all migrations in order. Tests apply it directly to in-memory
// databases instead of going through golang-migrate. Keep in sync with
// internal/database/migrations/files.
const Schema = `
CREATE TABLE workout_days (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    name TEXT NOT NULL,
    owner_id TEXT NOT NULL DEFAULT '',
    created_at TIMESTAMP NOT NULL,
    remote_id INTEGER
);

CREATE INDEX idx_workout_days_remote_id ON workout_days(remote_id);
CREATE INDEX idx_workout_days_owner_id ON workout_days(owner_id);

CREATE TABLE exercises (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    day_id INTEGER NOT NULL REFERENCES workout_days(id),
    name TEXT NOT NULL,
    position INTEGER NOT NULL DEFAULT 0,
    created_at TIMESTAMP NOT NULL,
    remote_id INTEGER
);

CREATE INDEX idx_exercises_day_id ON exercises(day_id);
CREATE INDEX idx_exercises_remote_id ON exercises(remote_id);

CREATE TABLE sets (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    exercise_id INTEGER NOT NULL REFERENCES exercises(id),
    weight REAL NOT NULL,
    reps INTEGER NOT NULL,
    set_number INTEGER NOT NULL,
    completed_at TIMESTAMP,
    completed INTEGER NOT NULL DEFAULT 0,
    remote_id INTEGER
);

CREATE INDEX idx_sets_exercise_id ON sets(exercise_id);
CREATE INDEX idx_sets_remote_id ON sets(remote_id);

-- exercise_id intentionally carries no foreign key: logs are history
-- and must survive deletion of the exercise they were logged against.
CREATE TABLE workout_logs (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    exercise_id INTEGER NOT NULL,
    weight REAL NOT NULL,
    reps INTEGER NOT NULL,
    set_number INTEGER NOT NULL,
    date TIMESTAMP NOT NULL,
    owner_id TEXT NOT NULL,
    remote_id INTEGER
);

CREATE INDEX idx_workout_logs_owner_id ON workout_logs(owner_id);
CREATE INDEX idx_workout_logs_remote_id ON workout_logs(remote_id);

CREATE TABLE deletions (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    table_name TEXT NOT NULL,
    remote_id INTEGER NOT NULL
);
`
