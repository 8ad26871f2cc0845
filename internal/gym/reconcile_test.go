package gym_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"gymtrack/internal/gym"
	"gymtrack/internal/testutil"
)

func remoteID(id int64) sql.NullInt64 {
	return sql.NullInt64{Int64: id, Valid: true}
}

func TestReconciler_MergeDays(t *testing.T) {
	ctx := context.Background()
	created := time.Date(2024, 1, 10, 9, 0, 0, 0, time.UTC)

	t.Run("collapses same-named days onto one survivor", func(t *testing.T) {
		store := testutil.NewTestStore(t)

		first, err := store.AddDay(ctx, gym.WorkoutDay{Name: "Push Day", OwnerID: "alice", CreatedAt: created})
		if err != nil {
			t.Fatalf("AddDay() error = %v", err)
		}
		second, err := store.AddDay(ctx, gym.WorkoutDay{Name: "Push Day", OwnerID: "alice", CreatedAt: created})
		if err != nil {
			t.Fatalf("AddDay() error = %v", err)
		}
		// Exercises under the duplicate must move to the survivor.
		exID, err := store.AddExercise(ctx, gym.Exercise{DayID: second, Name: "Bench", Position: 1, CreatedAt: created})
		if err != nil {
			t.Fatalf("AddExercise() error = %v", err)
		}

		r := gym.NewReconciler(store, gym.NewNopLogger())
		if err := r.Reconcile(ctx, "alice"); err != nil {
			t.Fatalf("Reconcile() error = %v", err)
		}

		days, err := store.ListDays(ctx)
		if err != nil {
			t.Fatalf("ListDays() error = %v", err)
		}
		if len(days) != 1 {
			t.Fatalf("len(days) = %d, want 1", len(days))
		}
		if days[0].ID != first {
			t.Errorf("survivor id = %d, want lowest id %d", days[0].ID, first)
		}

		ex, err := store.GetExercise(ctx, exID)
		if err != nil {
			t.Fatalf("GetExercise() error = %v", err)
		}
		if ex == nil || ex.DayID != first {
			t.Errorf("exercise not reassigned to survivor: %+v", ex)
		}
	})

	t.Run("synced duplicate wins over unsynced with lower id", func(t *testing.T) {
		store := testutil.NewTestStore(t)

		if _, err := store.AddDay(ctx, gym.WorkoutDay{Name: "Legs", OwnerID: "alice", CreatedAt: created}); err != nil {
			t.Fatalf("AddDay() error = %v", err)
		}
		synced, err := store.AddDay(ctx, gym.WorkoutDay{Name: "Legs", OwnerID: "alice", CreatedAt: created, RemoteID: remoteID(77)})
		if err != nil {
			t.Fatalf("AddDay() error = %v", err)
		}

		r := gym.NewReconciler(store, gym.NewNopLogger())
		if err := r.Reconcile(ctx, "alice"); err != nil {
			t.Fatalf("Reconcile() error = %v", err)
		}

		days, err := store.ListDays(ctx)
		if err != nil {
			t.Fatalf("ListDays() error = %v", err)
		}
		if len(days) != 1 {
			t.Fatalf("len(days) = %d, want 1", len(days))
		}
		if days[0].ID != synced {
			t.Errorf("survivor id = %d, want synced day %d", days[0].ID, synced)
		}
	})

	t.Run("names are compared trimmed", func(t *testing.T) {
		store := testutil.NewTestStore(t)

		if _, err := store.AddDay(ctx, gym.WorkoutDay{Name: "Pull Day", OwnerID: "alice", CreatedAt: created}); err != nil {
			t.Fatalf("AddDay() error = %v", err)
		}
		if _, err := store.AddDay(ctx, gym.WorkoutDay{Name: "  Pull Day  ", OwnerID: "alice", CreatedAt: created}); err != nil {
			t.Fatalf("AddDay() error = %v", err)
		}

		r := gym.NewReconciler(store, gym.NewNopLogger())
		if err := r.Reconcile(ctx, "alice"); err != nil {
			t.Fatalf("Reconcile() error = %v", err)
		}

		days, err := store.ListDays(ctx)
		if err != nil {
			t.Fatalf("ListDays() error = %v", err)
		}
		if len(days) != 1 {
			t.Errorf("len(days) = %d, want 1", len(days))
		}
	})

	t.Run("leaves other owners' days alone", func(t *testing.T) {
		store := testutil.NewTestStore(t)

		if _, err := store.AddDay(ctx, gym.WorkoutDay{Name: "Push", OwnerID: "alice", CreatedAt: created}); err != nil {
			t.Fatalf("AddDay() error = %v", err)
		}
		if _, err := store.AddDay(ctx, gym.WorkoutDay{Name: "Push", OwnerID: "bob", CreatedAt: created}); err != nil {
			t.Fatalf("AddDay() error = %v", err)
		}

		r := gym.NewReconciler(store, gym.NewNopLogger())
		if err := r.Reconcile(ctx, "alice"); err != nil {
			t.Fatalf("Reconcile() error = %v", err)
		}

		days, err := store.ListDays(ctx)
		if err != nil {
			t.Fatalf("ListDays() error = %v", err)
		}
		if len(days) != 2 {
			t.Errorf("len(days) = %d, want 2", len(days))
		}
	})

	t.Run("adopts offline and unowned duplicates", func(t *testing.T) {
		store := testutil.NewTestStore(t)

		if _, err := store.AddDay(ctx, gym.WorkoutDay{Name: "Push", OwnerID: gym.OfflineOwner, CreatedAt: created}); err != nil {
			t.Fatalf("AddDay() error = %v", err)
		}
		if _, err := store.AddDay(ctx, gym.WorkoutDay{Name: "Push", OwnerID: "", CreatedAt: created}); err != nil {
			t.Fatalf("AddDay() error = %v", err)
		}
		if _, err := store.AddDay(ctx, gym.WorkoutDay{Name: "Push", OwnerID: "alice", CreatedAt: created}); err != nil {
			t.Fatalf("AddDay() error = %v", err)
		}

		r := gym.NewReconciler(store, gym.NewNopLogger())
		if err := r.Reconcile(ctx, "alice"); err != nil {
			t.Fatalf("Reconcile() error = %v", err)
		}

		days, err := store.ListDays(ctx)
		if err != nil {
			t.Fatalf("ListDays() error = %v", err)
		}
		if len(days) != 1 {
			t.Errorf("len(days) = %d, want 1", len(days))
		}
	})
}

func TestReconciler_MergeExercises(t *testing.T) {
	ctx := context.Background()
	created := time.Date(2024, 1, 10, 9, 0, 0, 0, time.UTC)

	store := testutil.NewTestStore(t)
	dayID, err := store.AddDay(ctx, gym.WorkoutDay{Name: "Push", OwnerID: "alice", CreatedAt: created})
	if err != nil {
		t.Fatalf("AddDay() error = %v", err)
	}

	keep, err := store.AddExercise(ctx, gym.Exercise{DayID: dayID, Name: "Bench", Position: 1, CreatedAt: created})
	if err != nil {
		t.Fatalf("AddExercise() error = %v", err)
	}
	dupe, err := store.AddExercise(ctx, gym.Exercise{DayID: dayID, Name: " Bench ", Position: 2, CreatedAt: created})
	if err != nil {
		t.Fatalf("AddExercise() error = %v", err)
	}
	setID, err := store.AddSet(ctx, gym.ExerciseSet{ExerciseID: dupe, Weight: 80, Reps: 8, SetNumber: 1})
	if err != nil {
		t.Fatalf("AddSet() error = %v", err)
	}

	r := gym.NewReconciler(store, gym.NewNopLogger())
	if err := r.Reconcile(ctx, "alice"); err != nil {
		t.Fatalf("Reconcile() error = %v", err)
	}

	exercises, err := store.ExercisesByDay(ctx, dayID)
	if err != nil {
		t.Fatalf("ExercisesByDay() error = %v", err)
	}
	if len(exercises) != 1 {
		t.Fatalf("len(exercises) = %d, want 1", len(exercises))
	}
	if exercises[0].ID != keep {
		t.Errorf("survivor id = %d, want %d", exercises[0].ID, keep)
	}

	set, err := store.GetSet(ctx, setID)
	if err != nil {
		t.Fatalf("GetSet() error = %v", err)
	}
	if set == nil || set.ExerciseID != keep {
		t.Errorf("set not reassigned to survivor: %+v", set)
	}
}

func TestReconciler_MergeSets(t *testing.T) {
	ctx := context.Background()
	created := time.Date(2024, 1, 10, 9, 0, 0, 0, time.UTC)

	store := testutil.NewTestStore(t)
	dayID, err := store.AddDay(ctx, gym.WorkoutDay{Name: "Push", OwnerID: "alice", CreatedAt: created})
	if err != nil {
		t.Fatalf("AddDay() error = %v", err)
	}
	exID, err := store.AddExercise(ctx, gym.Exercise{DayID: dayID, Name: "Bench", Position: 1, CreatedAt: created})
	if err != nil {
		t.Fatalf("AddExercise() error = %v", err)
	}

	// Two sets colliding on set number 1; the synced one must survive.
	if _, err := store.AddSet(ctx, gym.ExerciseSet{ExerciseID: exID, Weight: 80, Reps: 8, SetNumber: 1}); err != nil {
		t.Fatalf("AddSet() error = %v", err)
	}
	syncedSet, err := store.AddSet(ctx, gym.ExerciseSet{ExerciseID: exID, Weight: 85, Reps: 6, SetNumber: 1, RemoteID: remoteID(9)})
	if err != nil {
		t.Fatalf("AddSet() error = %v", err)
	}
	if _, err := store.AddSet(ctx, gym.ExerciseSet{ExerciseID: exID, Weight: 90, Reps: 5, SetNumber: 2}); err != nil {
		t.Fatalf("AddSet() error = %v", err)
	}

	r := gym.NewReconciler(store, gym.NewNopLogger())
	if err := r.Reconcile(ctx, "alice"); err != nil {
		t.Fatalf("Reconcile() error = %v", err)
	}

	sets, err := store.SetsByExercise(ctx, exID)
	if err != nil {
		t.Fatalf("SetsByExercise() error = %v", err)
	}
	if len(sets) != 2 {
		t.Fatalf("len(sets) = %d, want 2", len(sets))
	}
	if sets[0].ID != syncedSet {
		t.Errorf("slot 1 survivor id = %d, want synced set %d", sets[0].ID, syncedSet)
	}
}

func TestReconciler_NeverQueuesDeletions(t *testing.T) {
	ctx := context.Background()
	created := time.Date(2024, 1, 10, 9, 0, 0, 0, time.UTC)

	store := testutil.NewTestStore(t)

	// Both duplicates synced: merging removes a synced local row, but the
	// surviving counterpart still exists remotely, so nothing is queued.
	if _, err := store.AddDay(ctx, gym.WorkoutDay{Name: "Push", OwnerID: "alice", CreatedAt: created, RemoteID: remoteID(1)}); err != nil {
		t.Fatalf("AddDay() error = %v", err)
	}
	if _, err := store.AddDay(ctx, gym.WorkoutDay{Name: "Push", OwnerID: "alice", CreatedAt: created, RemoteID: remoteID(2)}); err != nil {
		t.Fatalf("AddDay() error = %v", err)
	}

	r := gym.NewReconciler(store, gym.NewNopLogger())
	if err := r.Reconcile(ctx, "alice"); err != nil {
		t.Fatalf("Reconcile() error = %v", err)
	}

	deletions, err := store.ListDeletions(ctx)
	if err != nil {
		t.Fatalf("ListDeletions() error = %v", err)
	}
	if len(deletions) != 0 {
		t.Errorf("len(deletions) = %d, want 0", len(deletions))
	}
}

func TestReconciler_Idempotent(t *testing.T) {
	ctx := context.Background()
	created := time.Date(2024, 1, 10, 9, 0, 0, 0, time.UTC)

	store := testutil.NewTestStore(t)
	for i := 0; i < 3; i++ {
		if _, err := store.AddDay(ctx, gym.WorkoutDay{Name: "Push", OwnerID: "alice", CreatedAt: created}); err != nil {
			t.Fatalf("AddDay() error = %v", err)
		}
	}

	r := gym.NewReconciler(store, gym.NewNopLogger())
	if err := r.Reconcile(ctx, "alice"); err != nil {
		t.Fatalf("first Reconcile() error = %v", err)
	}
	if err := r.Reconcile(ctx, "alice"); err != nil {
		t.Fatalf("second Reconcile() error = %v", err)
	}

	days, err := store.ListDays(ctx)
	if err != nil {
		t.Fatalf("ListDays() error = %v", err)
	}
	if len(days) != 1 {
		t.Errorf("len(days) = %d, want 1", len(days))
	}
}
