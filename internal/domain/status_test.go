package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStatus(t *testing.T) {
	cases := map[string]Status{
		"completed":          StatusCompleted,
		"SUCCESSFUL":         StatusCompleted,
		"success":            StatusCompleted,
		"transfer.completed": StatusCompleted,
		"transfer_completed": StatusCompleted,
		"FAILED":             StatusFailed,
		"transfer.reversed":  StatusFailed,
		"transfer_cancelled": StatusFailed,
		"REVERSED":           StatusFailed,
		"abandoned":          StatusFailed,
		"unsuccessful":       StatusFailed,
		"UNSUCCESSFUL":       StatusFailed,
		"EXPIRED":            StatusFailed,
		"CLOSE":              StatusFailed,
		"blocked":            StatusFailed,
		"PENDING":            StatusPending,
		"NEW":                StatusPending,
		"transfer.queued":    StatusPending,
		"processing":         StatusProcessing,
		"transfer_created":   StatusProcessing,
		"otp":                StatusProcessing,
		"":                   StatusProcessing,
	}
	for raw, want := range cases {
		assert.Equal(t, want, ParseStatus(raw), "raw=%q", raw)
	}
}

func newTransfer(status Status) *Transfer {
	return &Transfer{ID: "t1", Reference: "TXN-1", Status: status}
}

func TestApplyProcessingToTerminal(t *testing.T) {
	now := time.Now()
	tr := newTransfer(StatusProcessing)

	got, err := tr.Apply(StatusUpdate{Status: StatusCompleted, Message: "paid"}, now)
	require.NoError(t, err)
	assert.Equal(t, TransitionApplied, got)
	assert.Equal(t, StatusCompleted, tr.Status)
	assert.Equal(t, "paid", tr.StatusMessage)
	assert.Equal(t, now, tr.UpdatedAt)
}

func TestApplySameTerminalIsNoop(t *testing.T) {
	tr := newTransfer(StatusCompleted)
	before := *tr

	got, err := tr.Apply(StatusUpdate{Status: StatusCompleted}, time.Now())
	require.NoError(t, err)
	assert.Equal(t, TransitionNoop, got)
	assert.Equal(t, before, *tr)
}

func TestApplyConflictingTerminalIsInconsistent(t *testing.T) {
	tr := newTransfer(StatusCompleted)

	_, err := tr.Apply(StatusUpdate{Status: StatusFailed}, time.Now())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInconsistentState))
	assert.Equal(t, StatusCompleted, tr.Status)
}

func TestApplyNeverLeavesTerminal(t *testing.T) {
	for _, terminal := range []Status{StatusCompleted, StatusFailed} {
		tr := newTransfer(terminal)
		got, err := tr.Apply(StatusUpdate{Status: StatusProcessing}, time.Now())
		require.NoError(t, err)
		assert.Equal(t, TransitionStale, got)
		assert.Equal(t, terminal, tr.Status)
	}
}

func TestApplyLowerRankIsStale(t *testing.T) {
	tr := newTransfer(StatusProcessing)
	got, err := tr.Apply(StatusUpdate{Status: StatusPending}, time.Now())
	require.NoError(t, err)
	assert.Equal(t, TransitionStale, got)
	assert.Equal(t, StatusProcessing, tr.Status)
}

func TestApplyOlderEventIsStale(t *testing.T) {
	last := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	tr := newTransfer(StatusProcessing)
	tr.LastEventAt = &last

	got, err := tr.Apply(StatusUpdate{Status: StatusFailed, OccurredAt: last.Add(-time.Minute)}, time.Now())
	require.NoError(t, err)
	assert.Equal(t, TransitionStale, got)
	assert.Equal(t, StatusProcessing, tr.Status)

	got, err = tr.Apply(StatusUpdate{Status: StatusCompleted, OccurredAt: last.Add(time.Minute)}, time.Now())
	require.NoError(t, err)
	assert.Equal(t, TransitionApplied, got)
	require.NotNil(t, tr.LastEventAt)
	assert.Equal(t, last.Add(time.Minute), *tr.LastEventAt)
}

func TestApplyUnknownStatus(t *testing.T) {
	tr := newTransfer(StatusProcessing)
	_, err := tr.Apply(StatusUpdate{Status: "weird"}, time.Now())
	assert.ErrorIs(t, err, ErrValidation)
}
