// Package events publishes transfer lifecycle events for downstream consumers.
package events

import (
	"context"
	"sync"
	"time"

	"github.com/Adebayotoheeb666/pancake/internal/domain"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const (
	TypeTransferCreated       = "transfer.created"
	TypeTransferStatusChanged = "transfer.status_changed"
)

// Event describes one change to a transfer.
type Event struct {
	ID                 string          `json:"id"`
	Type               string          `json:"type"`
	TransferID         string          `json:"transfer_id"`
	Provider           domain.Provider `json:"provider"`
	Reference          string          `json:"reference"`
	ExternalTransferID string          `json:"external_transfer_id,omitempty"`
	Status             domain.Status   `json:"status"`
	Message            string          `json:"message,omitempty"`
	OccurredAt         time.Time       `json:"occurred_at"`
}

// ForTransfer builds an event of type typ from the transfer's current state.
func ForTransfer(typ string, t *domain.Transfer) Event {
	return Event{
		ID:                 uuid.NewString(),
		Type:               typ,
		TransferID:         t.ID,
		Provider:           t.Provider,
		Reference:          t.Reference,
		ExternalTransferID: t.ExternalTransferID,
		Status:             t.Status,
		Message:            t.StatusMessage,
		OccurredAt:         time.Now().UTC(),
	}
}

type Publisher interface {
	Publish(ctx context.Context, e Event) error
	Close() error
}

// LogPublisher writes events to the log. Used when no broker is configured.
type LogPublisher struct{}

func (LogPublisher) Publish(_ context.Context, e Event) error {
	log.Info().
		Str("event_id", e.ID).
		Str("type", e.Type).
		Str("transfer_id", e.TransferID).
		Str("provider", string(e.Provider)).
		Str("reference", e.Reference).
		Str("status", string(e.Status)).
		Msg("transfer event")
	return nil
}

func (LogPublisher) Close() error { return nil }

// Recorder keeps published events in memory.
type Recorder struct {
	mu     sync.Mutex
	Events []Event
	Err    error
}

func (r *Recorder) Publish(_ context.Context, e Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	r.Events = append(r.Events, e)
	return nil
}

func (r *Recorder) Close() error { return nil }

// Types returns the recorded event types in order.
func (r *Recorder) Types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	types := make([]string, len(r.Events))
	for i, e := range r.Events {
		types[i] = e.Type
	}
	return types
}
