package domain

import (
	"fmt"
	"strings"
	"time"
)

// Status is the lifecycle state of a transfer.
type Status string

const (
	// StatusPending is only ever reported for transfers the ledger has not seen yet.
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// Terminal reports whether no further transition is allowed.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

func (s Status) rank() int {
	switch s {
	case StatusPending:
		return 0
	case StatusProcessing:
		return 1
	case StatusCompleted, StatusFailed:
		return 2
	}
	return -1
}

var (
	failureWords = []string{"fail", "unsuccess", "revers", "reject", "cancel", "declin", "error", "abandon", "expire", "close", "block"}
	successWords = []string{"success", "complete", "processed", "paid", "settled"}
	pendingWords = []string{"pending", "new", "queued"}
)

// ParseStatus maps a rail's free-form status or event name onto Status.
// Failure keywords win over success keywords so "transfer_completed_failed"
// and "UNSUCCESSFUL" resolve to failed. Anything unrecognized is processing.
func ParseStatus(raw string) Status {
	v := strings.ToLower(strings.TrimSpace(raw))
	switch Status(v) {
	case StatusPending, StatusProcessing, StatusCompleted, StatusFailed:
		return Status(v)
	}
	for _, w := range failureWords {
		if strings.Contains(v, w) {
			return StatusFailed
		}
	}
	for _, w := range successWords {
		if strings.Contains(v, w) {
			return StatusCompleted
		}
	}
	for _, w := range pendingWords {
		if v == w || strings.HasSuffix(v, "."+w) || strings.HasSuffix(v, "_"+w) {
			return StatusPending
		}
	}
	return StatusProcessing
}

// StatusUpdate is a status change reported by a rail.
type StatusUpdate struct {
	Status  Status
	Message string
	// OccurredAt is the rail's event time; zero when the rail does not send one.
	OccurredAt time.Time
}

// Transition is the outcome of applying a StatusUpdate.
type Transition int

const (
	TransitionApplied Transition = iota
	TransitionNoop
	TransitionStale
)

func (t Transition) String() string {
	switch t {
	case TransitionApplied:
		return "applied"
	case TransitionNoop:
		return "noop"
	case TransitionStale:
		return "stale"
	}
	return "unknown"
}

// Apply moves the transfer to u.Status if the move is allowed.
//
// Terminal states are final: replaying the same terminal status is a no-op,
// a different terminal status is ErrInconsistentState. Updates that rank below
// the current status, or carry an event time older than the last applied one,
// are stale and leave the transfer untouched.
func (t *Transfer) Apply(u StatusUpdate, now time.Time) (Transition, error) {
	if u.Status.rank() < 0 {
		return TransitionStale, Validation(fmt.Sprintf("unknown status %q", u.Status))
	}
	if t.Status.Terminal() {
		if u.Status == t.Status {
			return TransitionNoop, nil
		}
		if u.Status.Terminal() {
			return TransitionNoop, &Error{
				Kind:    ErrInconsistentState,
				Message: fmt.Sprintf("transfer %s is %s, refusing %s", t.Reference, t.Status, u.Status),
			}
		}
		return TransitionStale, nil
	}
	if !u.OccurredAt.IsZero() && t.LastEventAt != nil && u.OccurredAt.Before(*t.LastEventAt) {
		return TransitionStale, nil
	}
	if u.Status.rank() < t.Status.rank() {
		return TransitionStale, nil
	}
	if u.Status == t.Status {
		return TransitionNoop, nil
	}

	t.Status = u.Status
	if u.Message != "" {
		t.StatusMessage = u.Message
	}
	if !u.OccurredAt.IsZero() {
		at := u.OccurredAt.UTC()
		t.LastEventAt = &at
	}
	t.UpdatedAt = now
	return TransitionApplied, nil
}
