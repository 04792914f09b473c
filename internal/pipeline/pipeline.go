// Package pipeline sequences the ETL steps that turn raw fund disclosure
// files into the cleaned holdings table: scan, enrich, export. Steps share
// a run state and execute in order; the first fatal error stops the run.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"supercli/internal/infrastructure"
	"supercli/internal/scanner"
	"supercli/pkg/contracts/domain"
)

// Step is a single stage of the ETL run.
type Step interface {
	// ID returns the unique identifier for this step
	ID() string

	// Name returns the human-readable name for this step
	Name() string

	// Execute runs the step against the shared run state
	Execute(ctx context.Context, state *State) error
}

// StepStatus represents the current status of a step
type StepStatus string

const (
	StepStatusCompleted StepStatus = "completed"
	StepStatusFailed    StepStatus = "failed"
)

// StepResult records one step's outcome for the run summary.
type StepResult struct {
	ID       string
	Name     string
	Status   StepStatus
	Duration time.Duration
	Err      error
}

// State is the shared run state. Steps append records and per-fund stats;
// access is serialized for steps that fan work out internally.
type State struct {
	mu      sync.Mutex
	runID   string
	records []*domain.HoldingRecord
	stats   map[string]scanner.Stats
}

// NewState creates an empty run state.
func NewState(runID string) *State {
	return &State{
		runID: runID,
		stats: make(map[string]scanner.Stats),
	}
}

// RunID returns the identifier stamped on this run's log lines.
func (s *State) RunID() string {
	return s.runID
}

// AddRecords appends scanned records under a fund's stats.
func (s *State) AddRecords(fund string, stats scanner.Stats, records []*domain.HoldingRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, records...)

	agg := s.stats[fund]
	agg.RowsScanned += stats.RowsScanned
	agg.TablesFound += stats.TablesFound
	agg.TablesRejected += stats.TablesRejected
	agg.RecordsEmitted += stats.RecordsEmitted
	s.stats[fund] = agg
}

// Records returns every record gathered so far.
func (s *State) Records() []*domain.HoldingRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.records
}

// Stats returns the per-fund scan statistics.
func (s *State) Stats() map[string]scanner.Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]scanner.Stats, len(s.stats))
	for fund, stats := range s.stats {
		out[fund] = stats
	}
	return out
}

// Runner executes steps in order.
type Runner struct {
	steps []Step
}

// NewRunner creates a runner over the given steps.
func NewRunner(steps ...Step) *Runner {
	return &Runner{steps: steps}
}

// Run executes every step sequentially. The first failure stops the run;
// results for executed steps are always returned.
func (r *Runner) Run(ctx context.Context, state *State) ([]StepResult, error) {
	logger := infrastructure.LoggerFromContext(ctx)
	results := make([]StepResult, 0, len(r.steps))

	for _, step := range r.steps {
		if err := ctx.Err(); err != nil {
			return results, err
		}

		logger.Info("step starting",
			slog.String("step", step.ID()),
			slog.String("name", step.Name()))

		start := time.Now()
		err := step.Execute(ctx, state)
		elapsed := time.Since(start)

		result := StepResult{
			ID:       step.ID(),
			Name:     step.Name(),
			Duration: elapsed,
		}
		if err != nil {
			result.Status = StepStatusFailed
			result.Err = err
			results = append(results, result)
			logger.Error("step failed",
				slog.String("step", step.ID()),
				slog.Duration("duration", elapsed),
				slog.String("error", err.Error()))
			return results, fmt.Errorf("step %s failed: %w", step.ID(), err)
		}

		result.Status = StepStatusCompleted
		results = append(results, result)
		logger.Info("step completed",
			slog.String("step", step.ID()),
			slog.Duration("duration", elapsed),
			slog.Int("records", len(state.Records())))
	}

	return results, nil
}
