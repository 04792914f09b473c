package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"supercli/internal/scanner"
	"supercli/pkg/contracts/domain"
)

type fakeStep struct {
	id   string
	err  error
	ran  bool
	exec func(state *State)
}

func (f *fakeStep) ID() string   { return f.id }
func (f *fakeStep) Name() string { return f.id }
func (f *fakeStep) Execute(ctx context.Context, state *State) error {
	f.ran = true
	if f.exec != nil {
		f.exec(state)
	}
	return f.err
}

func TestRunnerExecutesInOrder(t *testing.T) {
	var order []string
	mk := func(id string) *fakeStep {
		return &fakeStep{id: id, exec: func(*State) { order = append(order, id) }}
	}
	a, b, c := mk("a"), mk("b"), mk("c")

	runner := NewRunner(a, b, c)
	results, err := runner.Run(context.Background(), NewState("run-1"))
	require.NoError(t, err)

	assert.Equal(t, []string{"a", "b", "c"}, order)
	require.Len(t, results, 3)
	for _, r := range results {
		assert.Equal(t, StepStatusCompleted, r.Status)
	}
}

func TestRunnerStopsOnFailure(t *testing.T) {
	boom := errors.New("boom")
	a := &fakeStep{id: "a"}
	b := &fakeStep{id: "b", err: boom}
	c := &fakeStep{id: "c"}

	runner := NewRunner(a, b, c)
	results, err := runner.Run(context.Background(), NewState("run-1"))
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)

	assert.True(t, a.ran)
	assert.True(t, b.ran)
	assert.False(t, c.ran)

	require.Len(t, results, 2)
	assert.Equal(t, StepStatusCompleted, results[0].Status)
	assert.Equal(t, StepStatusFailed, results[1].Status)
}

func TestRunnerCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	a := &fakeStep{id: "a"}
	runner := NewRunner(a)
	_, err := runner.Run(ctx, NewState("run-1"))
	require.Error(t, err)
	assert.False(t, a.ran)
}

func TestStateAggregatesStats(t *testing.T) {
	state := NewState("run-1")

	state.AddRecords("CareSuper",
		scanner.Stats{RowsScanned: 10, TablesFound: 2, RecordsEmitted: 5},
		[]*domain.HoldingRecord{{Name: "A"}, {Name: "B"}})
	state.AddRecords("CareSuper",
		scanner.Stats{RowsScanned: 4, TablesFound: 1, RecordsEmitted: 2},
		[]*domain.HoldingRecord{{Name: "C"}})

	assert.Len(t, state.Records(), 3)

	stats := state.Stats()["CareSuper"]
	assert.Equal(t, 14, stats.RowsScanned)
	assert.Equal(t, 3, stats.TablesFound)
	assert.Equal(t, 7, stats.RecordsEmitted)

	assert.Equal(t, "run-1", state.RunID())
}
