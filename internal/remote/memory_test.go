package remote

import (
	"context"
	"errors"
	"testing"
	"time"

	"gymtrack/internal/gym"
)

func TestMemoryRemote_DaysScopedByOwner(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryRemote()

	if _, err := m.InsertDay(ctx, gym.RemoteDay{OwnerID: "alice", Name: "Push", CreatedAt: time.Now()}); err != nil {
		t.Fatalf("InsertDay() error = %v", err)
	}
	if _, err := m.InsertDay(ctx, gym.RemoteDay{OwnerID: "bob", Name: "Pull", CreatedAt: time.Now()}); err != nil {
		t.Fatalf("InsertDay() error = %v", err)
	}

	days, err := m.Days(ctx, "alice")
	if err != nil {
		t.Fatalf("Days() error = %v", err)
	}
	if len(days) != 1 {
		t.Fatalf("len(days) = %d, want 1", len(days))
	}
	if days[0].Name != "Push" {
		t.Errorf("days[0].Name = %q, want %q", days[0].Name, "Push")
	}
	if days[0].ID == 0 {
		t.Error("inserted day should have a non-zero id")
	}
}

func TestMemoryRemote_InsertAssignsSequentialIDs(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryRemote()

	first, err := m.InsertExercise(ctx, gym.RemoteExercise{DayID: 1, Name: "Squat"})
	if err != nil {
		t.Fatalf("InsertExercise() error = %v", err)
	}
	second, err := m.InsertExercise(ctx, gym.RemoteExercise{DayID: 1, Name: "Bench"})
	if err != nil {
		t.Fatalf("InsertExercise() error = %v", err)
	}

	if second.ID != first.ID+1 {
		t.Errorf("second.ID = %d, want %d", second.ID, first.ID+1)
	}
}

func TestMemoryRemote_UpsertSets(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryRemote()

	inserted, err := m.InsertSet(ctx, gym.RemoteSet{ExerciseID: 1, Weight: 100, Reps: 5, SetNumber: 1})
	if err != nil {
		t.Fatalf("InsertSet() error = %v", err)
	}

	inserted.Weight = 105
	if err := m.UpsertSets(ctx, []gym.RemoteSet{inserted}); err != nil {
		t.Fatalf("UpsertSets() error = %v", err)
	}

	sets, err := m.Sets(ctx)
	if err != nil {
		t.Fatalf("Sets() error = %v", err)
	}
	if len(sets) != 1 {
		t.Fatalf("len(sets) = %d, want 1", len(sets))
	}
	if sets[0].Weight != 105 {
		t.Errorf("sets[0].Weight = %v, want 105", sets[0].Weight)
	}

	t.Run("rejects zero id", func(t *testing.T) {
		err := m.UpsertSets(ctx, []gym.RemoteSet{{ExerciseID: 1, Weight: 50}})
		if err == nil {
			t.Fatal("UpsertSets() expected error for zero id")
		}
	})
}

func TestMemoryRemote_Delete(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryRemote()

	day, err := m.InsertDay(ctx, gym.RemoteDay{OwnerID: "alice", Name: "Legs"})
	if err != nil {
		t.Fatalf("InsertDay() error = %v", err)
	}

	if err := m.Delete(ctx, gym.TableDays, day.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	days, err := m.Days(ctx, "alice")
	if err != nil {
		t.Fatalf("Days() error = %v", err)
	}
	if len(days) != 0 {
		t.Errorf("len(days) = %d, want 0", len(days))
	}
	if len(m.Deleted) != 1 || m.Deleted[0].Table != gym.TableDays || m.Deleted[0].RemoteID != day.ID {
		t.Errorf("Deleted = %v, want one days/%d entry", m.Deleted, day.ID)
	}

	t.Run("rejects unknown table", func(t *testing.T) {
		if err := m.Delete(ctx, gym.Table("bogus"), 1); err == nil {
			t.Fatal("Delete() expected error for unknown table")
		}
	})
}

func TestMemoryRemote_FailureInjection(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryRemote()
	boom := errors.New("remote unavailable")
	m.FailWith = boom

	if _, err := m.Days(ctx, "alice"); !errors.Is(err, boom) {
		t.Errorf("Days() error = %v, want %v", err, boom)
	}
	if _, err := m.InsertDay(ctx, gym.RemoteDay{}); !errors.Is(err, boom) {
		t.Errorf("InsertDay() error = %v, want %v", err, boom)
	}
	if err := m.Ping(ctx); !errors.Is(err, boom) {
		t.Errorf("Ping() error = %v, want %v", err, boom)
	}
}
