package gym_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"gymtrack/internal/gym"
	"gymtrack/internal/remote"
	"gymtrack/internal/testutil"
)

const owner = "alice"

func newSyncFixture(t *testing.T) (gym.LocalStore, *remote.MemoryRemote, *gym.Syncer) {
	t.Helper()
	store := testutil.NewTestStore(t)
	rem := remote.NewMemoryRemote()
	syncer := gym.NewSyncer(store, rem, gym.NewNopLogger())
	return store, rem, syncer
}

// seedLocalWorkout creates one unsynced day > exercise > set > log chain.
func seedLocalWorkout(t *testing.T, store gym.LocalStore) (dayID, exerciseID, setID, logID int64) {
	t.Helper()
	ctx := context.Background()
	created := time.Date(2024, 2, 1, 18, 0, 0, 0, time.UTC)

	dayID, err := store.AddDay(ctx, gym.WorkoutDay{Name: "Push Day", OwnerID: owner, CreatedAt: created})
	if err != nil {
		t.Fatalf("AddDay() error = %v", err)
	}
	exerciseID, err = store.AddExercise(ctx, gym.Exercise{DayID: dayID, Name: "Bench", Position: 1, CreatedAt: created})
	if err != nil {
		t.Fatalf("AddExercise() error = %v", err)
	}
	setID, err = store.AddSet(ctx, gym.ExerciseSet{ExerciseID: exerciseID, Weight: 80, Reps: 8, SetNumber: 1})
	if err != nil {
		t.Fatalf("AddSet() error = %v", err)
	}
	logID, err = store.AddLog(ctx, gym.WorkoutLog{ExerciseID: exerciseID, Weight: 80, Reps: 8, SetNumber: 1, Date: created, OwnerID: owner})
	if err != nil {
		t.Fatalf("AddLog() error = %v", err)
	}
	return dayID, exerciseID, setID, logID
}

func TestSyncer_PushesLocalChain(t *testing.T) {
	ctx := context.Background()
	store, rem, syncer := newSyncFixture(t)
	dayID, exerciseID, setID, logID := seedLocalWorkout(t, store)

	syncer.Sync(ctx, owner)

	days, exercises, sets, logs := rem.Counts()
	if days != 1 || exercises != 1 || sets != 1 || logs != 1 {
		t.Fatalf("remote counts = %d/%d/%d/%d, want 1/1/1/1", days, exercises, sets, logs)
	}

	day, err := store.GetDay(ctx, dayID)
	if err != nil {
		t.Fatalf("GetDay() error = %v", err)
	}
	if !day.Synced() {
		t.Error("day should carry a remote id after push")
	}
	ex, err := store.GetExercise(ctx, exerciseID)
	if err != nil {
		t.Fatalf("GetExercise() error = %v", err)
	}
	if !ex.Synced() {
		t.Error("exercise should carry a remote id after push")
	}
	set, err := store.GetSet(ctx, setID)
	if err != nil {
		t.Fatalf("GetSet() error = %v", err)
	}
	if !set.Synced() {
		t.Error("set should carry a remote id after push")
	}
	unsyncedLogs, err := store.UnsyncedLogs(ctx)
	if err != nil {
		t.Fatalf("UnsyncedLogs() error = %v", err)
	}
	if len(unsyncedLogs) != 0 {
		t.Errorf("len(unsyncedLogs) = %d, want 0 (log %d should be pushed)", len(unsyncedLogs), logID)
	}

	// Children must reference their parent's remote id, not the local one.
	remoteExercises, err := rem.Exercises(ctx)
	if err != nil {
		t.Fatalf("remote Exercises() error = %v", err)
	}
	if remoteExercises[0].DayID != day.RemoteID.Int64 {
		t.Errorf("remote exercise DayID = %d, want parent remote id %d", remoteExercises[0].DayID, day.RemoteID.Int64)
	}
}

func TestSyncer_Idempotent(t *testing.T) {
	ctx := context.Background()
	store, rem, syncer := newSyncFixture(t)
	seedLocalWorkout(t, store)

	syncer.Sync(ctx, owner)
	syncer.Sync(ctx, owner)
	syncer.Sync(ctx, owner)

	days, exercises, sets, logs := rem.Counts()
	if days != 1 || exercises != 1 || sets != 1 || logs != 1 {
		t.Errorf("remote counts after repeat = %d/%d/%d/%d, want 1/1/1/1", days, exercises, sets, logs)
	}

	localDays, err := store.ListDays(ctx)
	if err != nil {
		t.Fatalf("ListDays() error = %v", err)
	}
	if len(localDays) != 1 {
		t.Errorf("len(localDays) = %d, want 1", len(localDays))
	}
}

func TestSyncer_PullsRemoteChain(t *testing.T) {
	ctx := context.Background()
	store, rem, syncer := newSyncFixture(t)
	created := time.Date(2024, 2, 1, 18, 0, 0, 0, time.UTC)

	day, err := rem.InsertDay(ctx, gym.RemoteDay{OwnerID: owner, Name: "Pull Day", CreatedAt: created})
	if err != nil {
		t.Fatalf("InsertDay() error = %v", err)
	}
	ex, err := rem.InsertExercise(ctx, gym.RemoteExercise{DayID: day.ID, Name: "Row", Position: 1, CreatedAt: created})
	if err != nil {
		t.Fatalf("InsertExercise() error = %v", err)
	}
	if _, err := rem.InsertSet(ctx, gym.RemoteSet{ExerciseID: ex.ID, Weight: 60, Reps: 10, SetNumber: 1}); err != nil {
		t.Fatalf("InsertSet() error = %v", err)
	}
	if _, err := rem.InsertLog(ctx, gym.RemoteLog{ExerciseID: ex.ID, Weight: 60, Reps: 10, SetNumber: 1, Date: created, OwnerID: owner}); err != nil {
		t.Fatalf("InsertLog() error = %v", err)
	}

	syncer.Sync(ctx, owner)

	days, err := store.ListDays(ctx)
	if err != nil {
		t.Fatalf("ListDays() error = %v", err)
	}
	if len(days) != 1 {
		t.Fatalf("len(days) = %d, want 1", len(days))
	}
	if days[0].Name != "Pull Day" || !days[0].Synced() {
		t.Errorf("pulled day = %+v", days[0])
	}

	exercises, err := store.ExercisesByDay(ctx, days[0].ID)
	if err != nil {
		t.Fatalf("ExercisesByDay() error = %v", err)
	}
	if len(exercises) != 1 {
		t.Fatalf("len(exercises) = %d, want 1", len(exercises))
	}
	// The pulled set must hang off the pulled exercise's LOCAL id.
	sets, err := store.SetsByExercise(ctx, exercises[0].ID)
	if err != nil {
		t.Fatalf("SetsByExercise() error = %v", err)
	}
	if len(sets) != 1 {
		t.Fatalf("len(sets) = %d, want 1", len(sets))
	}
	logs, err := store.ListLogs(ctx, owner)
	if err != nil {
		t.Fatalf("ListLogs() error = %v", err)
	}
	if len(logs) != 1 || logs[0].ExerciseID != exercises[0].ID {
		t.Errorf("logs = %+v, want one log on exercise %d", logs, exercises[0].ID)
	}
}

func TestSyncer_ClaimsMatchingLocalDay(t *testing.T) {
	ctx := context.Background()
	store, rem, syncer := newSyncFixture(t)
	created := time.Date(2024, 2, 1, 18, 0, 0, 0, time.UTC)

	// The same day exists unsynced locally (with stray whitespace) and
	// already-pushed remotely, e.g. created on another device.
	localID, err := store.AddDay(ctx, gym.WorkoutDay{Name: "  Push Day ", OwnerID: gym.OfflineOwner, CreatedAt: created})
	if err != nil {
		t.Fatalf("AddDay() error = %v", err)
	}
	remoteDay, err := rem.InsertDay(ctx, gym.RemoteDay{OwnerID: owner, Name: "Push Day", CreatedAt: created})
	if err != nil {
		t.Fatalf("InsertDay() error = %v", err)
	}

	syncer.Sync(ctx, owner)

	days, err := store.ListDays(ctx)
	if err != nil {
		t.Fatalf("ListDays() error = %v", err)
	}
	if len(days) != 1 {
		t.Fatalf("len(days) = %d, want 1 (claim, not recreate)", len(days))
	}
	if days[0].ID != localID {
		t.Errorf("claimed day id = %d, want existing local %d", days[0].ID, localID)
	}
	if !days[0].Synced() || days[0].RemoteID.Int64 != remoteDay.ID {
		t.Errorf("claimed day remote id = %+v, want %d", days[0].RemoteID, remoteDay.ID)
	}
	if days[0].OwnerID != owner {
		t.Errorf("claimed day owner = %q, want %q", days[0].OwnerID, owner)
	}

	// The remote never saw a second copy.
	remoteDays, err := rem.Days(ctx, owner)
	if err != nil {
		t.Fatalf("remote Days() error = %v", err)
	}
	if len(remoteDays) != 1 {
		t.Errorf("len(remoteDays) = %d, want 1", len(remoteDays))
	}
}

func TestSyncer_RefreshesSyncedDayFromRemote(t *testing.T) {
	ctx := context.Background()
	store, rem, syncer := newSyncFixture(t)
	created := time.Date(2024, 2, 1, 18, 0, 0, 0, time.UTC)

	remoteDay, err := rem.InsertDay(ctx, gym.RemoteDay{OwnerID: owner, Name: "Push Day", CreatedAt: created})
	if err != nil {
		t.Fatalf("InsertDay() error = %v", err)
	}
	localID, err := store.AddDay(ctx, gym.WorkoutDay{
		Name: "Renamed Locally", OwnerID: owner, CreatedAt: created,
		RemoteID: sql.NullInt64{Int64: remoteDay.ID, Valid: true},
	})
	if err != nil {
		t.Fatalf("AddDay() error = %v", err)
	}

	syncer.Sync(ctx, owner)

	day, err := store.GetDay(ctx, localID)
	if err != nil {
		t.Fatalf("GetDay() error = %v", err)
	}
	// Renames of already-synced rows are not pushed; the remote name wins
	// on the next pull.
	if day.Name != "Push Day" {
		t.Errorf("day.Name = %q, want remote name %q", day.Name, "Push Day")
	}
}

func TestSyncer_PropagatesDeletions(t *testing.T) {
	ctx := context.Background()
	store, rem, syncer := newSyncFixture(t)
	created := time.Date(2024, 2, 1, 18, 0, 0, 0, time.UTC)

	remoteDay, err := rem.InsertDay(ctx, gym.RemoteDay{OwnerID: owner, Name: "Old Day", CreatedAt: created})
	if err != nil {
		t.Fatalf("InsertDay() error = %v", err)
	}
	if _, err := store.AddDeletion(ctx, gym.DeletionRecord{Table: gym.TableDays, RemoteID: remoteDay.ID}); err != nil {
		t.Fatalf("AddDeletion() error = %v", err)
	}

	syncer.Sync(ctx, owner)

	remoteDays, err := rem.Days(ctx, owner)
	if err != nil {
		t.Fatalf("remote Days() error = %v", err)
	}
	if len(remoteDays) != 0 {
		t.Errorf("len(remoteDays) = %d, want 0", len(remoteDays))
	}
	deletions, err := store.ListDeletions(ctx)
	if err != nil {
		t.Fatalf("ListDeletions() error = %v", err)
	}
	if len(deletions) != 0 {
		t.Errorf("len(deletions) = %d, want 0 after successful propagation", len(deletions))
	}

	// The deleted day must not be pulled back.
	days, err := store.ListDays(ctx)
	if err != nil {
		t.Fatalf("ListDays() error = %v", err)
	}
	if len(days) != 0 {
		t.Errorf("len(days) = %d, want 0", len(days))
	}
}

func TestSyncer_KeepsDeletionOnRemoteFailure(t *testing.T) {
	ctx := context.Background()
	store, rem, syncer := newSyncFixture(t)

	if _, err := store.AddDeletion(ctx, gym.DeletionRecord{Table: gym.TableSets, RemoteID: 5}); err != nil {
		t.Fatalf("AddDeletion() error = %v", err)
	}

	rem.FailWith = errors.New("remote down")
	syncer.Sync(ctx, owner)

	deletions, err := store.ListDeletions(ctx)
	if err != nil {
		t.Fatalf("ListDeletions() error = %v", err)
	}
	if len(deletions) != 1 {
		t.Fatalf("len(deletions) = %d, want 1 (kept for retry)", len(deletions))
	}

	// Next cycle with the remote back up clears it.
	rem.FailWith = nil
	syncer.Sync(ctx, owner)

	deletions, err = store.ListDeletions(ctx)
	if err != nil {
		t.Fatalf("ListDeletions() error = %v", err)
	}
	if len(deletions) != 0 {
		t.Errorf("len(deletions) = %d, want 0", len(deletions))
	}
}

func TestSyncer_CollapsesDuplicatesBeforePush(t *testing.T) {
	ctx := context.Background()
	store, rem, syncer := newSyncFixture(t)
	created := time.Date(2024, 2, 1, 18, 0, 0, 0, time.UTC)

	for i := 0; i < 2; i++ {
		if _, err := store.AddDay(ctx, gym.WorkoutDay{Name: "Push Day", OwnerID: owner, CreatedAt: created}); err != nil {
			t.Fatalf("AddDay() error = %v", err)
		}
	}

	syncer.Sync(ctx, owner)

	days, _, _, _ := rem.Counts()
	if days != 1 {
		t.Errorf("remote days = %d, want 1 (duplicates merged before push)", days)
	}
	localDays, err := store.ListDays(ctx)
	if err != nil {
		t.Fatalf("ListDays() error = %v", err)
	}
	if len(localDays) != 1 {
		t.Errorf("len(localDays) = %d, want 1", len(localDays))
	}
}

func TestSyncer_UpsertsEditedSyncedSets(t *testing.T) {
	ctx := context.Background()
	store, rem, syncer := newSyncFixture(t)
	_, _, setID, _ := seedLocalWorkout(t, store)

	syncer.Sync(ctx, owner)

	set, err := store.GetSet(ctx, setID)
	if err != nil {
		t.Fatalf("GetSet() error = %v", err)
	}
	set.Weight = 85
	set.Completed = true
	if err := store.UpdateSet(ctx, *set); err != nil {
		t.Fatalf("UpdateSet() error = %v", err)
	}

	syncer.Sync(ctx, owner)

	remoteSets, err := rem.Sets(ctx)
	if err != nil {
		t.Fatalf("remote Sets() error = %v", err)
	}
	if len(remoteSets) != 1 {
		t.Fatalf("len(remoteSets) = %d, want 1", len(remoteSets))
	}
	if remoteSets[0].Weight != 85 || !remoteSets[0].Completed {
		t.Errorf("remote set = %+v, want weight 85 completed", remoteSets[0])
	}
}

func TestSyncer_OrphanedChildrenWaitForParent(t *testing.T) {
	ctx := context.Background()
	store, rem, syncer := newSyncFixture(t)
	created := time.Date(2024, 2, 1, 18, 0, 0, 0, time.UTC)

	// A remote exercise whose day belongs to another owner is not
	// resolvable locally and must be skipped, not misattached.
	otherDay, err := rem.InsertDay(ctx, gym.RemoteDay{OwnerID: "bob", Name: "Bob Day", CreatedAt: created})
	if err != nil {
		t.Fatalf("InsertDay() error = %v", err)
	}
	if _, err := rem.InsertExercise(ctx, gym.RemoteExercise{DayID: otherDay.ID, Name: "Curl", Position: 1, CreatedAt: created}); err != nil {
		t.Fatalf("InsertExercise() error = %v", err)
	}

	syncer.Sync(ctx, owner)

	exercises, err := store.ListExercises(ctx)
	if err != nil {
		t.Fatalf("ListExercises() error = %v", err)
	}
	if len(exercises) != 0 {
		t.Errorf("len(exercises) = %d, want 0", len(exercises))
	}
}

func TestSyncer_SkipsEmptyOwner(t *testing.T) {
	ctx := context.Background()
	store, rem, syncer := newSyncFixture(t)
	seedLocalWorkout(t, store)

	syncer.Sync(ctx, "")

	days, _, _, _ := rem.Counts()
	if days != 0 {
		t.Errorf("remote days = %d, want 0 (sync must not run without an owner)", days)
	}
}

func TestSyncer_SwallowsRemoteFailure(t *testing.T) {
	ctx := context.Background()
	store, rem, syncer := newSyncFixture(t)
	dayID, _, _, _ := seedLocalWorkout(t, store)

	rem.FailWith = errors.New("network unreachable")

	// Must not panic or propagate; local state stays pending.
	syncer.Sync(ctx, owner)

	day, err := store.GetDay(ctx, dayID)
	if err != nil {
		t.Fatalf("GetDay() error = %v", err)
	}
	if day.Synced() {
		t.Error("day must stay unsynced after a failed cycle")
	}
}

// blockingRemote parks the first Days call until released, to hold a
// sync cycle open mid-flight.
type blockingRemote struct {
	*remote.MemoryRemote
	entered  chan struct{}
	release  chan struct{}
	daysCall int
}

func (b *blockingRemote) Days(ctx context.Context, ownerID string) ([]gym.RemoteDay, error) {
	b.daysCall++
	if b.daysCall == 1 {
		close(b.entered)
		<-b.release
	}
	return b.MemoryRemote.Days(ctx, ownerID)
}

func TestSyncer_ConcurrentCycleIsDropped(t *testing.T) {
	ctx := context.Background()
	store := testutil.NewTestStore(t)
	rem := &blockingRemote{
		MemoryRemote: remote.NewMemoryRemote(),
		entered:      make(chan struct{}),
		release:      make(chan struct{}),
	}
	syncer := gym.NewSyncer(store, rem, gym.NewNopLogger())

	done := make(chan struct{})
	go func() {
		syncer.Sync(ctx, owner)
		close(done)
	}()

	<-rem.entered
	// Second call while the first cycle is parked inside Days.
	syncer.Sync(ctx, owner)
	close(rem.release)
	<-done

	if rem.daysCall != 1 {
		t.Errorf("Days() called %d times, want 1 (second cycle dropped)", rem.daysCall)
	}

	// The flag must be clear again afterwards.
	syncer.Sync(ctx, owner)
	if rem.daysCall != 2 {
		t.Errorf("Days() called %d times after release, want 2", rem.daysCall)
	}
}
