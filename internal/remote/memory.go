package remote

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"gymtrack/internal/gym"
)

// MemoryRemote is an in-memory implementation of the RemoteStore interface.
// It assigns sequential ids on insert, making it useful for testing the
// sync pipeline without a hosted backend.
// This implementation is safe for concurrent use.
type MemoryRemote struct {
	mu     sync.RWMutex
	nextID int64

	days      map[int64]gym.RemoteDay
	exercises map[int64]gym.RemoteExercise
	sets      map[int64]gym.RemoteSet
	logs      map[int64]gym.RemoteLog

	// FailWith, when set, is returned by every call. Tests use it to
	// exercise error paths.
	FailWith error

	// Deleted records every Delete call in order.
	Deleted []DeletedRow
}

// DeletedRow records one Delete call against the remote.
type DeletedRow struct {
	Table    gym.Table
	RemoteID int64
}

// NewMemoryRemote creates a new in-memory remote store.
func NewMemoryRemote() *MemoryRemote {
	return &MemoryRemote{
		nextID:    1,
		days:      make(map[int64]gym.RemoteDay),
		exercises: make(map[int64]gym.RemoteExercise),
		sets:      make(map[int64]gym.RemoteSet),
		logs:      make(map[int64]gym.RemoteLog),
	}
}

func (m *MemoryRemote) Days(ctx context.Context, ownerID string) ([]gym.RemoteDay, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.FailWith != nil {
		return nil, m.FailWith
	}

	var out []gym.RemoteDay
	for _, d := range m.days {
		if d.OwnerID == ownerID {
			out = append(out, d)
		}
	}
	sortByID(out, func(d gym.RemoteDay) int64 { return d.ID })
	return out, nil
}

func (m *MemoryRemote) InsertDay(ctx context.Context, day gym.RemoteDay) (gym.RemoteDay, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWith != nil {
		return gym.RemoteDay{}, m.FailWith
	}

	day.ID = m.nextID
	m.nextID++
	m.days[day.ID] = day
	return day, nil
}

func (m *MemoryRemote) Exercises(ctx context.Context) ([]gym.RemoteExercise, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.FailWith != nil {
		return nil, m.FailWith
	}

	out := make([]gym.RemoteExercise, 0, len(m.exercises))
	for _, ex := range m.exercises {
		out = append(out, ex)
	}
	sortByID(out, func(ex gym.RemoteExercise) int64 { return ex.ID })
	return out, nil
}

func (m *MemoryRemote) InsertExercise(ctx context.Context, ex gym.RemoteExercise) (gym.RemoteExercise, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWith != nil {
		return gym.RemoteExercise{}, m.FailWith
	}

	ex.ID = m.nextID
	m.nextID++
	m.exercises[ex.ID] = ex
	return ex, nil
}

func (m *MemoryRemote) Sets(ctx context.Context) ([]gym.RemoteSet, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.FailWith != nil {
		return nil, m.FailWith
	}

	out := make([]gym.RemoteSet, 0, len(m.sets))
	for _, s := range m.sets {
		out = append(out, s)
	}
	sortByID(out, func(s gym.RemoteSet) int64 { return s.ID })
	return out, nil
}

func (m *MemoryRemote) InsertSet(ctx context.Context, set gym.RemoteSet) (gym.RemoteSet, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWith != nil {
		return gym.RemoteSet{}, m.FailWith
	}

	set.ID = m.nextID
	m.nextID++
	m.sets[set.ID] = set
	return set, nil
}

func (m *MemoryRemote) UpsertSets(ctx context.Context, sets []gym.RemoteSet) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWith != nil {
		return m.FailWith
	}

	for _, s := range sets {
		if s.ID == 0 {
			return fmt.Errorf("upsert requires a remote id")
		}
		m.sets[s.ID] = s
		if s.ID >= m.nextID {
			m.nextID = s.ID + 1
		}
	}
	return nil
}

func (m *MemoryRemote) Logs(ctx context.Context, ownerID string) ([]gym.RemoteLog, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.FailWith != nil {
		return nil, m.FailWith
	}

	var out []gym.RemoteLog
	for _, l := range m.logs {
		if l.OwnerID == ownerID {
			out = append(out, l)
		}
	}
	sortByID(out, func(l gym.RemoteLog) int64 { return l.ID })
	return out, nil
}

func (m *MemoryRemote) InsertLog(ctx context.Context, log gym.RemoteLog) (gym.RemoteLog, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWith != nil {
		return gym.RemoteLog{}, m.FailWith
	}

	log.ID = m.nextID
	m.nextID++
	m.logs[log.ID] = log
	return log, nil
}

func (m *MemoryRemote) Delete(ctx context.Context, table gym.Table, remoteID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWith != nil {
		return m.FailWith
	}
	if !table.Valid() {
		return fmt.Errorf("unknown table: %s", table)
	}

	switch table {
	case gym.TableDays:
		delete(m.days, remoteID)
	case gym.TableExercises:
		delete(m.exercises, remoteID)
	case gym.TableSets:
		delete(m.sets, remoteID)
	case gym.TableLogs:
		delete(m.logs, remoteID)
	}
	m.Deleted = append(m.Deleted, DeletedRow{Table: table, RemoteID: remoteID})
	return nil
}

// Ping always succeeds for the in-memory remote unless a failure is injected.
func (m *MemoryRemote) Ping(ctx context.Context) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.FailWith
}

// Counts returns the number of rows per table, for test assertions.
func (m *MemoryRemote) Counts() (days, exercises, sets, logs int) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.days), len(m.exercises), len(m.sets), len(m.logs)
}

// sortByID orders rows by id so listings are deterministic.
func sortByID[T any](rows []T, id func(T) int64) {
	sort.Slice(rows, func(i, j int) bool { return id(rows[i]) < id(rows[j]) })
}

// Compile-time check that MemoryRemote implements the RemoteStore interface
var _ gym.RemoteStore = (*MemoryRemote)(nil)
