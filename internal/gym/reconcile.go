package gym

import (
	"context"
	"fmt"
	"sort"
	"strings"
)

// Reconciler collapses logical duplicates that accumulate from repeated
// offline creation (the same day or exercise name created twice while
// offline), so the remote store never receives redundant rows.
//
// Deletions performed here are local-only and never enqueue a
// DeletionRecord: a merged-away duplicate that was already synced still
// has a surviving counterpart remotely.
type Reconciler struct {
	store  LocalStore
	logger Logger
}

// NewReconciler creates a Reconciler operating on the given store.
func NewReconciler(store LocalStore, logger Logger) *Reconciler {
	return &Reconciler{store: store, logger: logger}
}

// Reconcile merges duplicate days, exercises and sets belonging to the
// given owner (including unowned and offline-created records) inside a
// single transaction spanning all three collections.
func (r *Reconciler) Reconcile(ctx context.Context, ownerID string) error {
	return r.store.Transact(ctx, func(s Store) error {
		return r.mergeDays(ctx, s, ownerID)
	})
}

// mergeDays groups owner-compatible days by trimmed name and collapses
// each group onto a survivor. Singleton groups are left untouched but
// still recurse one level down, so duplicates that predate the owner
// filter are caught too.
func (r *Reconciler) mergeDays(ctx context.Context, s Store, ownerID string) error {
	days, err := s.ListDays(ctx)
	if err != nil {
		return fmt.Errorf("listing days: %w", err)
	}

	byName := make(map[string][]WorkoutDay)
	for _, d := range days {
		if !ownerCompatible(d.OwnerID, ownerID) {
			continue
		}
		name := strings.TrimSpace(d.Name)
		byName[name] = append(byName[name], d)
	}

	for name, group := range byName {
		survivor := group[0]
		if len(group) > 1 {
			r.logger.Info("merging duplicate day", "name", name, "count", len(group))

			sortByPriority(group, func(d WorkoutDay) (bool, int64) { return d.Synced(), d.ID })
			survivor = group[0]

			for _, loser := range group[1:] {
				if err := s.ReassignExercises(ctx, loser.ID, survivor.ID); err != nil {
					return fmt.Errorf("reassigning exercises of day %d: %w", loser.ID, err)
				}
				if err := s.DeleteDay(ctx, loser.ID); err != nil {
					return fmt.Errorf("deleting duplicate day %d: %w", loser.ID, err)
				}
			}
		}

		if err := r.mergeExercises(ctx, s, survivor.ID); err != nil {
			return err
		}
	}

	return nil
}

// mergeExercises collapses same-named exercises within one day, then
// deduplicates the surviving exercise's sets.
func (r *Reconciler) mergeExercises(ctx context.Context, s Store, dayID int64) error {
	exercises, err := s.ExercisesByDay(ctx, dayID)
	if err != nil {
		return fmt.Errorf("listing exercises of day %d: %w", dayID, err)
	}

	byName := make(map[string][]Exercise)
	for _, e := range exercises {
		name := strings.TrimSpace(e.Name)
		byName[name] = append(byName[name], e)
	}

	for name, group := range byName {
		survivor := group[0]
		if len(group) > 1 {
			r.logger.Info("merging duplicate exercise", "name", name, "day", dayID, "count", len(group))

			sortByPriority(group, func(e Exercise) (bool, int64) { return e.Synced(), e.ID })
			survivor = group[0]

			for _, loser := range group[1:] {
				if err := s.ReassignSets(ctx, loser.ID, survivor.ID); err != nil {
					return fmt.Errorf("reassigning sets of exercise %d: %w", loser.ID, err)
				}
				if err := s.DeleteExercise(ctx, loser.ID); err != nil {
					return fmt.Errorf("deleting duplicate exercise %d: %w", loser.ID, err)
				}
			}
		}

		if err := r.mergeSets(ctx, s, survivor.ID); err != nil {
			return err
		}
	}

	return nil
}

// mergeSets deletes sets that collide on (exercise, set number). Sets
// have no name, so they group by their numeric slot; there is nothing
// below them to re-parent.
func (r *Reconciler) mergeSets(ctx context.Context, s Store, exerciseID int64) error {
	sets, err := s.SetsByExercise(ctx, exerciseID)
	if err != nil {
		return fmt.Errorf("listing sets of exercise %d: %w", exerciseID, err)
	}

	byNumber := make(map[int64][]ExerciseSet)
	for _, set := range sets {
		byNumber[set.SetNumber] = append(byNumber[set.SetNumber], set)
	}

	for number, group := range byNumber {
		if len(group) < 2 {
			continue
		}
		r.logger.Info("merging duplicate sets", "exercise", exerciseID, "setNumber", number, "count", len(group))

		sortByPriority(group, func(e ExerciseSet) (bool, int64) { return e.Synced(), e.ID })
		for _, loser := range group[1:] {
			if err := s.DeleteSet(ctx, loser.ID); err != nil {
				return fmt.Errorf("deleting duplicate set %d: %w", loser.ID, err)
			}
		}
	}

	return nil
}

// sortByPriority orders a duplicate group so the survivor comes first:
// a previously-synced record always wins over an unsynced one; among
// equals, the oldest locally-created (lowest local id) wins.
func sortByPriority[T any](group []T, key func(T) (synced bool, id int64)) {
	sort.SliceStable(group, func(i, j int) bool {
		iSynced, iID := key(group[i])
		jSynced, jID := key(group[j])
		if iSynced != jSynced {
			return iSynced
		}
		return iID < jID
	})
}
