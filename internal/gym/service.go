package gym

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"
	"time"
)

// Service implements the user-facing workout operations against the
// local store. It never talks to the remote store directly; callers
// trigger a Syncer cycle after mutating operations when they want the
// change propagated.
type Service struct {
	store    LocalStore
	notifier Notifier
	logger   Logger
	clock    Clock
}

// NewService creates a Service with the provided dependencies.
func NewService(store LocalStore, notifier Notifier, logger Logger, clock Clock) *Service {
	return &Service{
		store:    store,
		notifier: notifier,
		logger:   logger,
		clock:    clock,
	}
}

// Workout days

// CreateDay adds a new workout day for the owner. Names are trimmed;
// an empty name is rejected.
func (s *Service) CreateDay(ctx context.Context, ownerID, name string) (*WorkoutDay, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("day name must not be empty")
	}

	day := WorkoutDay{
		Name:      name,
		OwnerID:   ownerID,
		CreatedAt: s.clock.Now(),
	}
	id, err := s.store.AddDay(ctx, day)
	if err != nil {
		return nil, fmt.Errorf("creating day: %w", err)
	}
	day.ID = id

	s.logger.Info("day created", "id", id, "name", name)
	return &day, nil
}

// Days lists the workout days visible to the owner, newest first.
func (s *Service) Days(ctx context.Context, ownerID string) ([]WorkoutDay, error) {
	all, err := s.store.ListDays(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing days: %w", err)
	}

	days := make([]WorkoutDay, 0, len(all))
	for _, d := range all {
		if ownerCompatible(d.OwnerID, ownerID) {
			days = append(days, d)
		}
	}
	sort.Slice(days, func(i, j int) bool { return days[i].ID > days[j].ID })
	return days, nil
}

// RenameDay updates a day's name. The new name only reaches the remote
// store if the day has not been pushed yet; renames of already-synced
// days stay local until the remote row is next pulled.
func (s *Service) RenameDay(ctx context.Context, id int64, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("day name must not be empty")
	}

	day, err := s.store.GetDay(ctx, id)
	if err != nil {
		return fmt.Errorf("loading day %d: %w", id, err)
	}
	if day == nil {
		return fmt.Errorf("day %d not found", id)
	}

	day.Name = name
	if err := s.store.UpdateDay(ctx, *day); err != nil {
		return fmt.Errorf("renaming day %d: %w", id, err)
	}
	return nil
}

// DeleteDay removes a day with all its exercises and sets in one
// transaction. Every deleted row that was already synced leaves a
// DeletionRecord behind so the remote rows are removed on the next
// sync cycle.
func (s *Service) DeleteDay(ctx context.Context, id int64) error {
	return s.store.Transact(ctx, func(tx Store) error {
		day, err := tx.GetDay(ctx, id)
		if err != nil {
			return fmt.Errorf("loading day %d: %w", id, err)
		}
		if day == nil {
			return fmt.Errorf("day %d not found", id)
		}

		exercises, err := tx.ExercisesByDay(ctx, id)
		if err != nil {
			return fmt.Errorf("listing exercises of day %d: %w", id, err)
		}
		for _, ex := range exercises {
			if err := deleteExerciseCascade(ctx, tx, ex); err != nil {
				return err
			}
		}

		if day.Synced() {
			if _, err := tx.AddDeletion(ctx, DeletionRecord{Table: TableDays, RemoteID: day.RemoteID.Int64}); err != nil {
				return fmt.Errorf("queueing day deletion: %w", err)
			}
		}
		if err := tx.DeleteDay(ctx, id); err != nil {
			return fmt.Errorf("deleting day %d: %w", id, err)
		}

		s.logger.Info("day deleted", "id", id, "name", day.Name)
		return nil
	})
}

// LastWorkout returns the most recent log date among the day's
// exercises, or nil if the day has never been trained.
func (s *Service) LastWorkout(ctx context.Context, ownerID string, dayID int64) (*time.Time, error) {
	exercises, err := s.store.ExercisesByDay(ctx, dayID)
	if err != nil {
		return nil, fmt.Errorf("listing exercises of day %d: %w", dayID, err)
	}
	ids := make(map[int64]bool, len(exercises))
	for _, ex := range exercises {
		ids[ex.ID] = true
	}

	logs, err := s.store.ListLogs(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("listing logs: %w", err)
	}

	var last *time.Time
	for _, l := range logs {
		if !ids[l.ExerciseID] {
			continue
		}
		if last == nil || l.Date.After(*last) {
			d := l.Date
			last = &d
		}
	}
	return last, nil
}

// Exercises

// AddExercise appends an exercise to a day, positioned after the day's
// current last exercise.
func (s *Service) AddExercise(ctx context.Context, dayID int64, name string) (*Exercise, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("exercise name must not be empty")
	}

	day, err := s.store.GetDay(ctx, dayID)
	if err != nil {
		return nil, fmt.Errorf("loading day %d: %w", dayID, err)
	}
	if day == nil {
		return nil, fmt.Errorf("day %d not found", dayID)
	}

	existing, err := s.store.ExercisesByDay(ctx, dayID)
	if err != nil {
		return nil, fmt.Errorf("listing exercises of day %d: %w", dayID, err)
	}
	var maxPos int64
	for _, ex := range existing {
		if ex.Position > maxPos {
			maxPos = ex.Position
		}
	}

	ex := Exercise{
		DayID:     dayID,
		Name:      name,
		Position:  maxPos + 1,
		CreatedAt: s.clock.Now(),
	}
	id, err := s.store.AddExercise(ctx, ex)
	if err != nil {
		return nil, fmt.Errorf("creating exercise: %w", err)
	}
	ex.ID = id
	return &ex, nil
}

// Exercises lists a day's exercises in position order.
func (s *Service) Exercises(ctx context.Context, dayID int64) ([]Exercise, error) {
	exercises, err := s.store.ExercisesByDay(ctx, dayID)
	if err != nil {
		return nil, fmt.Errorf("listing exercises of day %d: %w", dayID, err)
	}
	return exercises, nil
}

// Sets lists an exercise's sets in set-number order.
func (s *Service) Sets(ctx context.Context, exerciseID int64) ([]ExerciseSet, error) {
	sets, err := s.store.SetsByExercise(ctx, exerciseID)
	if err != nil {
		return nil, fmt.Errorf("listing sets of exercise %d: %w", exerciseID, err)
	}
	return sets, nil
}

// RenameExercise updates an exercise's name. As with days, renames of
// already-synced exercises are not pushed.
func (s *Service) RenameExercise(ctx context.Context, id int64, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("exercise name must not be empty")
	}

	ex, err := s.store.GetExercise(ctx, id)
	if err != nil {
		return fmt.Errorf("loading exercise %d: %w", id, err)
	}
	if ex == nil {
		return fmt.Errorf("exercise %d not found", id)
	}

	ex.Name = name
	if err := s.store.UpdateExercise(ctx, *ex); err != nil {
		return fmt.Errorf("renaming exercise %d: %w", id, err)
	}
	return nil
}

// DeleteExercise removes an exercise and its sets, queueing remote
// deletions for every synced row.
func (s *Service) DeleteExercise(ctx context.Context, id int64) error {
	return s.store.Transact(ctx, func(tx Store) error {
		ex, err := tx.GetExercise(ctx, id)
		if err != nil {
			return fmt.Errorf("loading exercise %d: %w", id, err)
		}
		if ex == nil {
			return fmt.Errorf("exercise %d not found", id)
		}
		return deleteExerciseCascade(ctx, tx, *ex)
	})
}

// deleteExerciseCascade deletes an exercise and its sets within an
// existing transaction, queueing DeletionRecords for synced rows.
func deleteExerciseCascade(ctx context.Context, tx Store, ex Exercise) error {
	sets, err := tx.SetsByExercise(ctx, ex.ID)
	if err != nil {
		return fmt.Errorf("listing sets of exercise %d: %w", ex.ID, err)
	}
	for _, set := range sets {
		if set.Synced() {
			if _, err := tx.AddDeletion(ctx, DeletionRecord{Table: TableSets, RemoteID: set.RemoteID.Int64}); err != nil {
				return fmt.Errorf("queueing set deletion: %w", err)
			}
		}
		if err := tx.DeleteSet(ctx, set.ID); err != nil {
			return fmt.Errorf("deleting set %d: %w", set.ID, err)
		}
	}

	if ex.Synced() {
		if _, err := tx.AddDeletion(ctx, DeletionRecord{Table: TableExercises, RemoteID: ex.RemoteID.Int64}); err != nil {
			return fmt.Errorf("queueing exercise deletion: %w", err)
		}
	}
	if err := tx.DeleteExercise(ctx, ex.ID); err != nil {
		return fmt.Errorf("deleting exercise %d: %w", ex.ID, err)
	}
	return nil
}

// Sets

// AddSet appends a set to an exercise, numbered after the exercise's
// current highest set number.
func (s *Service) AddSet(ctx context.Context, exerciseID int64, weight float64, reps int64, completed bool) (*ExerciseSet, error) {
	if weight <= 0 {
		return nil, fmt.Errorf("weight must be positive")
	}
	if reps <= 0 {
		return nil, fmt.Errorf("reps must be positive")
	}

	ex, err := s.store.GetExercise(ctx, exerciseID)
	if err != nil {
		return nil, fmt.Errorf("loading exercise %d: %w", exerciseID, err)
	}
	if ex == nil {
		return nil, fmt.Errorf("exercise %d not found", exerciseID)
	}

	existing, err := s.store.SetsByExercise(ctx, exerciseID)
	if err != nil {
		return nil, fmt.Errorf("listing sets of exercise %d: %w", exerciseID, err)
	}
	var maxNumber int64
	for _, set := range existing {
		if set.SetNumber > maxNumber {
			maxNumber = set.SetNumber
		}
	}

	set := ExerciseSet{
		ExerciseID:  exerciseID,
		Weight:      weight,
		Reps:        reps,
		SetNumber:   maxNumber + 1,
		CompletedAt: sql.NullTime{Time: s.clock.Now(), Valid: true},
		Completed:   completed,
	}
	id, err := s.store.AddSet(ctx, set)
	if err != nil {
		return nil, fmt.Errorf("creating set: %w", err)
	}
	set.ID = id
	return &set, nil
}

// UpdateSet changes a set's weight and reps.
func (s *Service) UpdateSet(ctx context.Context, id int64, weight float64, reps int64) error {
	if weight <= 0 {
		return fmt.Errorf("weight must be positive")
	}
	if reps <= 0 {
		return fmt.Errorf("reps must be positive")
	}

	set, err := s.store.GetSet(ctx, id)
	if err != nil {
		return fmt.Errorf("loading set %d: %w", id, err)
	}
	if set == nil {
		return fmt.Errorf("set %d not found", id)
	}

	set.Weight = weight
	set.Reps = reps
	if err := s.store.UpdateSet(ctx, *set); err != nil {
		return fmt.Errorf("updating set %d: %w", id, err)
	}
	return nil
}

// CompleteSet marks a set completed or not.
func (s *Service) CompleteSet(ctx context.Context, id int64, completed bool) error {
	set, err := s.store.GetSet(ctx, id)
	if err != nil {
		return fmt.Errorf("loading set %d: %w", id, err)
	}
	if set == nil {
		return fmt.Errorf("set %d not found", id)
	}

	set.Completed = completed
	if completed {
		set.CompletedAt = sql.NullTime{Time: s.clock.Now(), Valid: true}
	}
	if err := s.store.UpdateSet(ctx, *set); err != nil {
		return fmt.Errorf("updating set %d: %w", id, err)
	}
	return nil
}

// ToggleExerciseComplete flips every set of an exercise at once: if all
// sets are completed they are all cleared, otherwise all are marked
// completed. The flip is atomic so a reader never observes a half-done
// batch.
func (s *Service) ToggleExerciseComplete(ctx context.Context, exerciseID int64) error {
	return s.store.Transact(ctx, func(tx Store) error {
		sets, err := tx.SetsByExercise(ctx, exerciseID)
		if err != nil {
			return fmt.Errorf("listing sets of exercise %d: %w", exerciseID, err)
		}
		if len(sets) == 0 {
			return nil
		}

		allDone := true
		for _, set := range sets {
			if !set.Completed {
				allDone = false
				break
			}
		}

		for _, set := range sets {
			set.Completed = !allDone
			if set.Completed {
				set.CompletedAt = sql.NullTime{Time: s.clock.Now(), Valid: true}
			}
			if err := tx.UpdateSet(ctx, set); err != nil {
				return fmt.Errorf("updating set %d: %w", set.ID, err)
			}
		}
		return nil
	})
}

// DeleteSet removes a set, queueing a remote deletion if it was synced.
func (s *Service) DeleteSet(ctx context.Context, id int64) error {
	return s.store.Transact(ctx, func(tx Store) error {
		set, err := tx.GetSet(ctx, id)
		if err != nil {
			return fmt.Errorf("loading set %d: %w", id, err)
		}
		if set == nil {
			return fmt.Errorf("set %d not found", id)
		}

		if set.Synced() {
			if _, err := tx.AddDeletion(ctx, DeletionRecord{Table: TableSets, RemoteID: set.RemoteID.Int64}); err != nil {
				return fmt.Errorf("queueing set deletion: %w", err)
			}
		}
		if err := tx.DeleteSet(ctx, id); err != nil {
			return fmt.Errorf("deleting set %d: %w", id, err)
		}
		return nil
	})
}

// Workout completion

// FinishWorkout writes one WorkoutLog per completed set of the day and
// clears the completion flags, all in one transaction over sets and
// logs, so a crash never leaves a half-logged workout. Returns the
// number of logged sets.
func (s *Service) FinishWorkout(ctx context.Context, ownerID string, dayID int64) (int, error) {
	now := s.clock.Now()
	logged := 0

	err := s.store.Transact(ctx, func(tx Store) error {
		exercises, err := tx.ExercisesByDay(ctx, dayID)
		if err != nil {
			return fmt.Errorf("listing exercises of day %d: %w", dayID, err)
		}

		for _, ex := range exercises {
			sets, err := tx.SetsByExercise(ctx, ex.ID)
			if err != nil {
				return fmt.Errorf("listing sets of exercise %d: %w", ex.ID, err)
			}
			for _, set := range sets {
				if !set.Completed {
					continue
				}
				log := WorkoutLog{
					ExerciseID: set.ExerciseID,
					Weight:     set.Weight,
					Reps:       set.Reps,
					SetNumber:  set.SetNumber,
					Date:       now,
					OwnerID:    ownerID,
				}
				if _, err := tx.AddLog(ctx, log); err != nil {
					return fmt.Errorf("logging set %d: %w", set.ID, err)
				}

				set.Completed = false
				if err := tx.UpdateSet(ctx, set); err != nil {
					return fmt.Errorf("resetting set %d: %w", set.ID, err)
				}
				logged++
			}
		}
		return nil
	})
	if err != nil {
		logged = 0
	}
	if err == nil && logged > 0 {
		s.logger.Info("workout finished", "day", dayID, "sets", logged)
		if nerr := s.notifier.Notify(ctx, "Workout complete", fmt.Sprintf("%d sets logged", logged)); nerr != nil {
			s.logger.Warn("workout notification failed", "error", nerr)
		}
	}
	return logged, err
}

// StartRestTimer schedules a rest-over notification after the given
// duration.
func (s *Service) StartRestTimer(ctx context.Context, rest time.Duration) error {
	if rest <= 0 {
		return fmt.Errorf("rest duration must be positive")
	}
	if err := s.notifier.Schedule(ctx, rest, "Rest timer finished", "Time for the next set"); err != nil {
		return fmt.Errorf("scheduling rest notification: %w", err)
	}
	s.logger.Debug("rest timer started", "duration", rest)
	return nil
}

// History

// DeleteLogDay removes every log of the owner whose date falls on the
// same local calendar day as the given date, queueing remote deletions
// for synced logs. Returns the number of deleted logs.
func (s *Service) DeleteLogDay(ctx context.Context, ownerID string, date time.Time) (int, error) {
	deleted := 0
	err := s.store.Transact(ctx, func(tx Store) error {
		logs, err := tx.ListLogs(ctx, ownerID)
		if err != nil {
			return fmt.Errorf("listing logs: %w", err)
		}

		y, m, d := date.Date()
		for _, l := range logs {
			ly, lm, ld := l.Date.Date()
			if ly != y || lm != m || ld != d {
				continue
			}
			if l.Synced() {
				if _, err := tx.AddDeletion(ctx, DeletionRecord{Table: TableLogs, RemoteID: l.RemoteID.Int64}); err != nil {
					return fmt.Errorf("queueing log deletion: %w", err)
				}
			}
			if err := tx.DeleteLog(ctx, l.ID); err != nil {
				return fmt.Errorf("deleting log %d: %w", l.ID, err)
			}
			deleted++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return deleted, nil
}
