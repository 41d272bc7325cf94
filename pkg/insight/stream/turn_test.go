package stream

import (
	"testing"

	"review-insights-be/pkg/insight/evidence"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTurnAccumulatesFragmentsInOrder(t *testing.T) {
	turn := NewTurn()
	assert.Equal(t, StateAwaitingFirstFragment, turn.State())

	require.NoError(t, turn.Apply(Unit{Kind: UnitFragment, Text: "Hello"}))
	assert.Equal(t, StateAccumulating, turn.State())
	require.NoError(t, turn.Apply(Unit{Kind: UnitFragment, Text: " world"}))

	require.NoError(t, turn.Finalize())
	text, _, err := turn.Result()
	require.NoError(t, err)
	assert.Equal(t, "Hello world", text)
}

func TestTurnCitationSnapshotReplacesPrevious(t *testing.T) {
	turn := NewTurn()
	first := []*evidence.Citation{{ReportTitle: "A"}}
	second := []*evidence.Citation{{ReportTitle: "B"}, {ReportTitle: "C"}}

	require.NoError(t, turn.Apply(Unit{Kind: UnitCitations, Citations: first}))
	require.NoError(t, turn.Apply(Unit{Kind: UnitFragment, Text: "answer"}))
	require.NoError(t, turn.Apply(Unit{Kind: UnitCitations, Citations: second}))
	require.NoError(t, turn.Finalize())

	_, citations, err := turn.Result()
	require.NoError(t, err)
	require.Len(t, citations, 2)
	assert.Equal(t, "B", citations[0].ReportTitle)
}

func TestTurnStatusIsTransient(t *testing.T) {
	turn := NewTurn()
	var seen []string
	turn.OnStatus(func(status string) { seen = append(seen, status) })

	require.NoError(t, turn.Apply(Unit{Kind: UnitStatus, Status: "retrieving"}))
	require.NoError(t, turn.Apply(Unit{Kind: UnitStatus, Status: "generating"}))

	// Status markers never advance the state machine or join the answer.
	assert.Equal(t, StateAwaitingFirstFragment, turn.State())
	assert.Empty(t, turn.Text())
	assert.Equal(t, []string{"retrieving", "generating"}, seen)
}

func TestTurnCancelMidStream(t *testing.T) {
	turn := NewTurn()
	require.NoError(t, turn.Apply(Unit{Kind: UnitFragment, Text: "Hel"}))

	turn.Cancel()
	assert.Equal(t, StateCancelled, turn.State())

	// Partial text stays visible but never becomes a completed answer.
	assert.Equal(t, "Hel", turn.Text())
	_, _, err := turn.Result()
	assert.ErrorIs(t, err, ErrTurnCancelled)

	assert.ErrorIs(t, turn.Apply(Unit{Kind: UnitFragment, Text: "lo"}), ErrTurnCancelled)
	assert.ErrorIs(t, turn.Finalize(), ErrTurnCancelled)
	assert.Equal(t, "Hel", turn.Text())
}

func TestTurnFinalizedRejectsFurtherUnits(t *testing.T) {
	turn := NewTurn()
	require.NoError(t, turn.Apply(Unit{Kind: UnitFragment, Text: "done"}))
	require.NoError(t, turn.Finalize())

	assert.ErrorIs(t, turn.Apply(Unit{Kind: UnitFragment, Text: "more"}), ErrTurnFinalized)
	assert.ErrorIs(t, turn.Finalize(), ErrTurnFinalized)

	// Cancel after finalize is a no-op; the answer already exists.
	turn.Cancel()
	text, _, err := turn.Result()
	require.NoError(t, err)
	assert.Equal(t, "done", text)
}

func TestTurnResultRequiresTerminalState(t *testing.T) {
	turn := NewTurn()
	_, _, err := turn.Result()
	assert.ErrorIs(t, err, ErrTurnNotDone)

	require.NoError(t, turn.Apply(Unit{Kind: UnitFragment, Text: "partial"}))
	_, _, err = turn.Result()
	assert.ErrorIs(t, err, ErrTurnNotDone)
}
