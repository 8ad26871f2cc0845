package gym

import (
	"context"
	"fmt"
	"sort"
	"strings"
)

// Stats summarizes an owner's whole training history.
type Stats struct {
	TotalVolume   float64 // sum of weight * reps over all logs
	TotalSets     int
	TotalWorkouts int // distinct calendar days with at least one log
	Exercises     []ExerciseProgress
}

// ExerciseProgress is the per-exercise view of the history: the best
// weight ever logged and how many sets were logged, ordered by best
// weight descending.
type ExerciseProgress struct {
	Name       string
	BestWeight float64
	Entries    int
}

// GetStats computes training statistics from the owner's workout logs.
func (s *Service) GetStats(ctx context.Context, ownerID string) (*Stats, error) {
	logs, err := s.store.ListLogs(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("listing logs: %w", err)
	}

	exercises, err := s.store.ListExercises(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing exercises: %w", err)
	}
	names := make(map[int64]string, len(exercises))
	for _, ex := range exercises {
		names[ex.ID] = strings.TrimSpace(ex.Name)
	}

	stats := &Stats{}
	dates := make(map[string]bool)
	progress := make(map[string]*ExerciseProgress)

	for _, l := range logs {
		stats.TotalVolume += l.Weight * float64(l.Reps)
		stats.TotalSets++
		dates[l.Date.Format("2006-01-02")] = true

		name := names[l.ExerciseID]
		if name == "" {
			// The exercise was deleted; its history still counts
			// toward the totals but has no per-exercise row.
			continue
		}
		p, ok := progress[name]
		if !ok {
			p = &ExerciseProgress{Name: name}
			progress[name] = p
		}
		p.Entries++
		if l.Weight > p.BestWeight {
			p.BestWeight = l.Weight
		}
	}

	stats.TotalWorkouts = len(dates)
	for _, p := range progress {
		stats.Exercises = append(stats.Exercises, *p)
	}
	sort.Slice(stats.Exercises, func(i, j int) bool {
		if stats.Exercises[i].BestWeight != stats.Exercises[j].BestWeight {
			return stats.Exercises[i].BestWeight > stats.Exercises[j].BestWeight
		}
		return stats.Exercises[i].Name < stats.Exercises[j].Name
	})

	return stats, nil
}
