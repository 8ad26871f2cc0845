package gym

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync/atomic"
)

// Syncer runs the full reconcile-and-exchange cycle between the local
// and remote stores for one owning identity.
//
// A Syncer value allows at most one running cycle at a time: concurrent
// calls to Sync are dropped, not queued. Callers are expected to
// re-trigger on the next relevant event.
type Syncer struct {
	store      LocalStore
	remote     RemoteStore
	reconciler *Reconciler
	logger     Logger

	running atomic.Bool
}

// NewSyncer creates a Syncer over the given stores.
func NewSyncer(store LocalStore, remote RemoteStore, logger Logger) *Syncer {
	return &Syncer{
		store:      store,
		remote:     remote,
		reconciler: NewReconciler(store, logger),
		logger:     logger,
	}
}

// Sync runs one full cycle for ownerID. Failures never propagate to the
// caller: every error is caught and logged, and a failed cycle simply
// leaves state as it was, to be retried on the next invocation. If a
// cycle is already running the call is a silent no-op.
func (s *Syncer) Sync(ctx context.Context, ownerID string) {
	if ownerID == "" {
		s.logger.Warn("sync skipped: empty owner id")
		return
	}
	if !s.running.CompareAndSwap(false, true) {
		s.logger.Debug("sync already in progress, skipping")
		return
	}
	defer s.running.Store(false)

	s.logger.Info("sync started", "owner", ownerID)
	if err := s.run(ctx, ownerID); err != nil {
		s.logger.Error("sync failed", "owner", ownerID, "error", err)
		return
	}
	s.logger.Info("sync finished", "owner", ownerID)
}

// run executes the pipeline in strict order: local cleanup, deletion
// propagation, pulls (parent tables before child tables), pushes (same
// ordering). Individual record failures are logged and skipped; only
// failures that invalidate a whole stage abort the cycle.
func (s *Syncer) run(ctx context.Context, ownerID string) error {
	if err := s.reconciler.Reconcile(ctx, ownerID); err != nil {
		return fmt.Errorf("reconciling local duplicates: %w", err)
	}

	if err := s.propagateDeletions(ctx); err != nil {
		return err
	}

	dayIDs, err := s.pullDays(ctx, ownerID)
	if err != nil {
		return err
	}
	exerciseIDs, err := s.pullExercises(ctx, dayIDs)
	if err != nil {
		return err
	}
	if err := s.pullSets(ctx, exerciseIDs); err != nil {
		return err
	}
	if err := s.pullLogs(ctx, ownerID, exerciseIDs); err != nil {
		return err
	}

	s.pushDays(ctx, ownerID)
	s.pushExercises(ctx)
	s.pushSets(ctx)
	s.upsertSyncedSets(ctx)
	s.pushLogs(ctx, ownerID)

	return nil
}

// propagateDeletions replays every pending DeletionRecord against the
// remote store. A record is removed only after its remote delete
// succeeds; failures leave it queued for the next cycle.
func (s *Syncer) propagateDeletions(ctx context.Context) error {
	records, err := s.store.ListDeletions(ctx)
	if err != nil {
		return fmt.Errorf("listing pending deletions: %w", err)
	}
	if len(records) == 0 {
		return nil
	}

	s.logger.Info("propagating deletions", "count", len(records))
	for _, rec := range records {
		if err := s.remote.Delete(ctx, rec.Table, rec.RemoteID); err != nil {
			s.logger.Error("remote delete failed", "table", rec.Table, "remoteID", rec.RemoteID, "error", err)
			continue
		}
		if err := s.store.DeleteDeletion(ctx, rec.ID); err != nil {
			return fmt.Errorf("removing deletion record %d: %w", rec.ID, err)
		}
	}
	return nil
}

// pullDays fetches the owner's remote days and reconciles them into the
// local store. A day already known by remote id has its name and owner
// refreshed from the remote row. An unknown remote day first tries to
// claim an unsynced local day with the same trimmed name, so a day that
// already exists offline is not re-created; otherwise a new local day
// is inserted. Returns the remote-id to local-id mapping for days.
func (s *Syncer) pullDays(ctx context.Context, ownerID string) (map[int64]int64, error) {
	remoteDays, err := s.remote.Days(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("fetching remote days: %w", err)
	}

	for _, rd := range remoteDays {
		local, err := s.store.DayByRemoteID(ctx, rd.ID)
		if err != nil {
			return nil, fmt.Errorf("looking up day by remote id %d: %w", rd.ID, err)
		}
		if local != nil {
			local.Name = rd.Name
			local.OwnerID = ownerID
			if err := s.store.UpdateDay(ctx, *local); err != nil {
				return nil, fmt.Errorf("refreshing day %d: %w", local.ID, err)
			}
			continue
		}

		claimed, err := s.claimDay(ctx, rd, ownerID)
		if err != nil {
			return nil, err
		}
		if claimed {
			continue
		}

		day := WorkoutDay{
			Name:      rd.Name,
			OwnerID:   ownerID,
			CreatedAt: rd.CreatedAt,
			RemoteID:  sql.NullInt64{Int64: rd.ID, Valid: true},
		}
		if _, err := s.store.AddDay(ctx, day); err != nil {
			return nil, fmt.Errorf("inserting pulled day %q: %w", rd.Name, err)
		}
	}

	days, err := s.store.ListDays(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing days: %w", err)
	}
	ids := make(map[int64]int64, len(days))
	for _, d := range days {
		if d.Synced() {
			ids[d.RemoteID.Int64] = d.ID
		}
	}
	return ids, nil
}

// claimDay attaches the remote id to an existing unsynced local day
// whose trimmed name matches, if one exists for a compatible owner.
func (s *Syncer) claimDay(ctx context.Context, rd RemoteDay, ownerID string) (bool, error) {
	days, err := s.store.ListDays(ctx)
	if err != nil {
		return false, fmt.Errorf("listing days for claim: %w", err)
	}
	want := strings.TrimSpace(rd.Name)
	for _, d := range days {
		if d.Synced() || strings.TrimSpace(d.Name) != want || !ownerCompatible(d.OwnerID, ownerID) {
			continue
		}
		d.RemoteID = sql.NullInt64{Int64: rd.ID, Valid: true}
		d.OwnerID = ownerID
		if err := s.store.UpdateDay(ctx, d); err != nil {
			return false, fmt.Errorf("claiming day %d: %w", d.ID, err)
		}
		s.logger.Debug("claimed local day", "id", d.ID, "remoteID", rd.ID)
		return true, nil
	}
	return false, nil
}

// pullExercises is pull-create-only: local edits take precedence until
// the next push, so existing local exercises are never updated from the
// remote row. Remote exercises whose day is not resolvable locally yet
// are skipped; they attach on a later cycle once the day has been
// pulled. Returns the remote-id to local-id mapping for exercises.
func (s *Syncer) pullExercises(ctx context.Context, dayIDs map[int64]int64) (map[int64]int64, error) {
	remoteExercises, err := s.remote.Exercises(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetching remote exercises: %w", err)
	}

	for _, re := range remoteExercises {
		dayID, ok := dayIDs[re.DayID]
		if !ok {
			continue
		}

		local, err := s.store.ExerciseByRemoteID(ctx, re.ID)
		if err != nil {
			return nil, fmt.Errorf("looking up exercise by remote id %d: %w", re.ID, err)
		}
		if local != nil {
			continue
		}

		claimed, err := s.claimExercise(ctx, re, dayID)
		if err != nil {
			return nil, err
		}
		if claimed {
			continue
		}

		ex := Exercise{
			DayID:     dayID,
			Name:      re.Name,
			Position:  re.Position,
			CreatedAt: re.CreatedAt,
			RemoteID:  sql.NullInt64{Int64: re.ID, Valid: true},
		}
		if _, err := s.store.AddExercise(ctx, ex); err != nil {
			return nil, fmt.Errorf("inserting pulled exercise %q: %w", re.Name, err)
		}
	}

	exercises, err := s.store.ListExercises(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing exercises: %w", err)
	}
	ids := make(map[int64]int64, len(exercises))
	for _, e := range exercises {
		if e.Synced() {
			ids[e.RemoteID.Int64] = e.ID
		}
	}
	return ids, nil
}

// claimExercise attaches the remote id to an unsynced local exercise of
// the same day whose trimmed name matches, if one exists.
func (s *Syncer) claimExercise(ctx context.Context, re RemoteExercise, dayID int64) (bool, error) {
	exercises, err := s.store.ExercisesByDay(ctx, dayID)
	if err != nil {
		return false, fmt.Errorf("listing exercises for claim: %w", err)
	}
	want := strings.TrimSpace(re.Name)
	for _, e := range exercises {
		if e.Synced() || strings.TrimSpace(e.Name) != want {
			continue
		}
		e.RemoteID = sql.NullInt64{Int64: re.ID, Valid: true}
		if err := s.store.UpdateExercise(ctx, e); err != nil {
			return false, fmt.Errorf("claiming exercise %d: %w", e.ID, err)
		}
		s.logger.Debug("claimed local exercise", "id", e.ID, "remoteID", re.ID)
		return true, nil
	}
	return false, nil
}

// pullSets is pull-create-only and never claims: sets carry no natural
// key beyond their numeric slot, and local mutations win until pushed.
func (s *Syncer) pullSets(ctx context.Context, exerciseIDs map[int64]int64) error {
	remoteSets, err := s.remote.Sets(ctx)
	if err != nil {
		return fmt.Errorf("fetching remote sets: %w", err)
	}

	for _, rs := range remoteSets {
		exerciseID, ok := exerciseIDs[rs.ExerciseID]
		if !ok {
			continue
		}

		local, err := s.store.SetByRemoteID(ctx, rs.ID)
		if err != nil {
			return fmt.Errorf("looking up set by remote id %d: %w", rs.ID, err)
		}
		if local != nil {
			continue
		}

		set := ExerciseSet{
			ExerciseID: exerciseID,
			Weight:     rs.Weight,
			Reps:       rs.Reps,
			SetNumber:  rs.SetNumber,
			Completed:  rs.Completed,
			RemoteID:   sql.NullInt64{Int64: rs.ID, Valid: true},
		}
		if rs.CompletedAt != nil {
			set.CompletedAt = sql.NullTime{Time: *rs.CompletedAt, Valid: true}
		}
		if _, err := s.store.AddSet(ctx, set); err != nil {
			return fmt.Errorf("inserting pulled set: %w", err)
		}
	}
	return nil
}

// pullLogs inserts unseen remote logs for resolvable exercises. Logs
// are append-only history and never updated in either direction.
func (s *Syncer) pullLogs(ctx context.Context, ownerID string, exerciseIDs map[int64]int64) error {
	remoteLogs, err := s.remote.Logs(ctx, ownerID)
	if err != nil {
		return fmt.Errorf("fetching remote logs: %w", err)
	}

	for _, rl := range remoteLogs {
		exerciseID, ok := exerciseIDs[rl.ExerciseID]
		if !ok {
			continue
		}

		local, err := s.store.LogByRemoteID(ctx, rl.ID)
		if err != nil {
			return fmt.Errorf("looking up log by remote id %d: %w", rl.ID, err)
		}
		if local != nil {
			continue
		}

		log := WorkoutLog{
			ExerciseID: exerciseID,
			Weight:     rl.Weight,
			Reps:       rl.Reps,
			SetNumber:  rl.SetNumber,
			Date:       rl.Date,
			OwnerID:    ownerID,
			RemoteID:   sql.NullInt64{Int64: rl.ID, Valid: true},
		}
		if _, err := s.store.AddLog(ctx, log); err != nil {
			return fmt.Errorf("inserting pulled log: %w", err)
		}
	}
	return nil
}

// pushDays inserts every unsynced day remotely and stores the returned
// remote id. One day's failure does not stop its siblings.
func (s *Syncer) pushDays(ctx context.Context, ownerID string) {
	days, err := s.store.UnsyncedDays(ctx)
	if err != nil {
		s.logger.Error("listing unsynced days", "error", err)
		return
	}
	for _, d := range days {
		inserted, err := s.remote.InsertDay(ctx, RemoteDay{
			OwnerID:   ownerID,
			Name:      d.Name,
			CreatedAt: d.CreatedAt,
		})
		if err != nil {
			s.logger.Error("pushing day failed", "id", d.ID, "name", d.Name, "error", err)
			continue
		}
		d.RemoteID = sql.NullInt64{Int64: inserted.ID, Valid: true}
		d.OwnerID = ownerID
		if err := s.store.UpdateDay(ctx, d); err != nil {
			s.logger.Error("storing remote id for day", "id", d.ID, "error", err)
		}
	}
}

// pushExercises inserts unsynced exercises whose parent day is already
// synced; the rest wait for a later cycle.
func (s *Syncer) pushExercises(ctx context.Context) {
	exercises, err := s.store.UnsyncedExercises(ctx)
	if err != nil {
		s.logger.Error("listing unsynced exercises", "error", err)
		return
	}
	for _, e := range exercises {
		day, err := s.store.GetDay(ctx, e.DayID)
		if err != nil {
			s.logger.Error("loading parent day", "exercise", e.ID, "error", err)
			continue
		}
		if day == nil || !day.Synced() {
			continue
		}
		inserted, err := s.remote.InsertExercise(ctx, RemoteExercise{
			DayID:     day.RemoteID.Int64,
			Name:      e.Name,
			Position:  e.Position,
			CreatedAt: e.CreatedAt,
		})
		if err != nil {
			s.logger.Error("pushing exercise failed", "id", e.ID, "name", e.Name, "error", err)
			continue
		}
		e.RemoteID = sql.NullInt64{Int64: inserted.ID, Valid: true}
		if err := s.store.UpdateExercise(ctx, e); err != nil {
			s.logger.Error("storing remote id for exercise", "id", e.ID, "error", err)
		}
	}
}

// pushSets inserts unsynced sets whose parent exercise is synced.
func (s *Syncer) pushSets(ctx context.Context) {
	sets, err := s.store.UnsyncedSets(ctx)
	if err != nil {
		s.logger.Error("listing unsynced sets", "error", err)
		return
	}
	for _, set := range sets {
		exercise, err := s.store.GetExercise(ctx, set.ExerciseID)
		if err != nil {
			s.logger.Error("loading parent exercise", "set", set.ID, "error", err)
			continue
		}
		if exercise == nil || !exercise.Synced() {
			continue
		}
		inserted, err := s.remote.InsertSet(ctx, remoteSetFrom(set, exercise.RemoteID.Int64))
		if err != nil {
			s.logger.Error("pushing set failed", "id", set.ID, "error", err)
			continue
		}
		set.RemoteID = sql.NullInt64{Int64: inserted.ID, Valid: true}
		if err := s.store.UpdateSet(ctx, set); err != nil {
			s.logger.Error("storing remote id for set", "id", set.ID, "error", err)
		}
	}
}

// upsertSyncedSets re-pushes every already-synced set each cycle as a
// full overwrite by remote id, so weight/reps/completion edits made
// between cycles reach the remote store. Sets are the only table
// re-pushed after first sync: they mutate constantly during a workout,
// while days, exercises and logs are insert-once.
func (s *Syncer) upsertSyncedSets(ctx context.Context) {
	sets, err := s.store.SyncedSets(ctx)
	if err != nil {
		s.logger.Error("listing synced sets", "error", err)
		return
	}

	updates := make([]RemoteSet, 0, len(sets))
	for _, set := range sets {
		exercise, err := s.store.GetExercise(ctx, set.ExerciseID)
		if err != nil {
			s.logger.Error("loading parent exercise", "set", set.ID, "error", err)
			continue
		}
		if exercise == nil || !exercise.Synced() {
			continue
		}
		rs := remoteSetFrom(set, exercise.RemoteID.Int64)
		rs.ID = set.RemoteID.Int64
		updates = append(updates, rs)
	}

	if len(updates) == 0 {
		return
	}
	if err := s.remote.UpsertSets(ctx, updates); err != nil {
		s.logger.Error("upserting sets failed", "count", len(updates), "error", err)
	}
}

// pushLogs inserts unsynced logs whose parent exercise is synced. Logs
// are insert-only remotely, never upserted.
func (s *Syncer) pushLogs(ctx context.Context, ownerID string) {
	logs, err := s.store.UnsyncedLogs(ctx)
	if err != nil {
		s.logger.Error("listing unsynced logs", "error", err)
		return
	}
	for _, l := range logs {
		exercise, err := s.store.GetExercise(ctx, l.ExerciseID)
		if err != nil {
			s.logger.Error("loading parent exercise", "log", l.ID, "error", err)
			continue
		}
		if exercise == nil || !exercise.Synced() {
			continue
		}
		inserted, err := s.remote.InsertLog(ctx, RemoteLog{
			ExerciseID: exercise.RemoteID.Int64,
			Weight:     l.Weight,
			Reps:       l.Reps,
			SetNumber:  l.SetNumber,
			Date:       l.Date,
			OwnerID:    ownerID,
		})
		if err != nil {
			s.logger.Error("pushing log failed", "id", l.ID, "error", err)
			continue
		}
		l.RemoteID = sql.NullInt64{Int64: inserted.ID, Valid: true}
		if err := s.store.UpdateLog(ctx, l); err != nil {
			s.logger.Error("storing remote id for log", "id", l.ID, "error", err)
		}
	}
}

func remoteSetFrom(set ExerciseSet, exerciseRemoteID int64) RemoteSet {
	rs := RemoteSet{
		ExerciseID: exerciseRemoteID,
		Weight:     set.Weight,
		Reps:       set.Reps,
		SetNumber:  set.SetNumber,
		Completed:  set.Completed,
	}
	if set.CompletedAt.Valid {
		t := set.CompletedAt.Time
		rs.CompletedAt = &t
	}
	return rs
}
