// Package webhook turns rail callbacks into ledger status transitions.
package webhook

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/Adebayotoheeb666/pancake/internal/domain"
	"github.com/Adebayotoheeb666/pancake/internal/events"
	"github.com/Adebayotoheeb666/pancake/internal/store"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog/log"
)

// ErrMalformed is returned for bodies that are not valid JSON.
var ErrMalformed = errors.New("malformed webhook payload")

var webhookOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "pancake_webhook_events_total",
	Help: "Rail callbacks processed, labeled by rail and outcome",
}, []string{"provider", "outcome"})

// Result is the outcome of one callback.
type Result struct {
	Notification Notification
	// Transfer is nil when no transfer matched.
	Transfer   *domain.Transfer
	Transition domain.Transition
	// Anomaly is set when the callback contradicted a terminal status.
	Anomaly error
}

// Matched reports whether the callback referred to a known transfer.
func (r *Result) Matched() bool { return r.Transfer != nil }

// Reconciler applies rail callbacks to the ledger.
type Reconciler struct {
	ledger store.TransferLedger
	events events.Publisher
	secret func(domain.Provider) string
	shared string
}

// NewReconciler builds a reconciler. secret returns the signing secret of a
// rail; shared signs the rail-agnostic endpoint. An empty secret disables
// verification for that endpoint.
func NewReconciler(ledger store.TransferLedger, pub events.Publisher, secret func(domain.Provider) string, shared string) *Reconciler {
	if pub == nil {
		pub = events.LogPublisher{}
	}
	return &Reconciler{ledger: ledger, events: pub, secret: secret, shared: shared}
}

// Handle processes a callback from rail p. Nothing is read or written before
// the signature checks out.
func (r *Reconciler) Handle(ctx context.Context, p domain.Provider, header http.Header, body []byte) (*Result, error) {
	src, ok := sources[p]
	if !ok {
		return nil, domain.Validation(fmt.Sprintf("no webhook handler for provider %s", p))
	}
	if err := r.authenticate(string(p), r.secret(p), src.headers, header, body); err != nil {
		return nil, err
	}
	n, err := decode(string(p), src.extract, body)
	if err != nil {
		return nil, err
	}
	return r.apply(ctx, n)
}

// HandleGeneric processes a body that names its rail explicitly. The body must
// carry the named rail's signature; the shared secret only covers rails
// without one of their own and bodies that fail to decode.
func (r *Reconciler) HandleGeneric(ctx context.Context, header http.Header, body []byte) (*Result, error) {
	n, decodeErr := decode("provider", genericNotification, body)
	secret := r.shared
	if decodeErr == nil {
		if s := r.secret(n.Provider); s != "" {
			secret = s
		}
	}
	if err := r.authenticate("provider", secret, genericHeaders, header, body); err != nil {
		return nil, err
	}
	if decodeErr != nil {
		return nil, decodeErr
	}
	return r.apply(ctx, n)
}

func (r *Reconciler) authenticate(label, secret string, names []string, header http.Header, body []byte) error {
	if secret == "" {
		return nil
	}
	var sig string
	for _, name := range names {
		if sig = header.Get(name); sig != "" {
			break
		}
	}
	if !Verify(secret, body, sig) {
		webhookOutcomes.WithLabelValues(label, "bad_signature").Inc()
		log.Warn().Str("provider", label).Bool("signature_present", sig != "").Msg("webhook signature mismatch")
		return domain.Wrap(domain.ErrSignatureMismatch, "Invalid signature", nil)
	}
	return nil
}

func decode(label string, extract func([]byte) (Notification, error), body []byte) (Notification, error) {
	n, err := extract(body)
	if err != nil {
		var de *domain.Error
		if errors.As(err, &de) {
			return Notification{}, err
		}
		webhookOutcomes.WithLabelValues(label, "malformed").Inc()
		log.Error().Err(err).Str("provider", label).Msg("malformed webhook payload")
		return Notification{}, domain.Wrap(ErrMalformed, "Malformed webhook payload", err)
	}
	if n.ExternalID == "" && n.Reference == "" {
		return Notification{}, domain.Validation("Missing external_transfer_id or reference")
	}
	return n, nil
}

func (r *Reconciler) apply(ctx context.Context, n Notification) (*Result, error) {
	msg := n.Message
	if msg == "" {
		msg = fmt.Sprintf("%s webhook: %s", n.Provider, n.RawStatus)
	}
	u := domain.StatusUpdate{Status: domain.ParseStatus(n.RawStatus), Message: msg, OccurredAt: n.OccurredAt}
	logger := log.With().
		Str("provider", string(n.Provider)).
		Str("external_id", n.ExternalID).
		Str("reference", n.Reference).
		Str("status", string(u.Status)).
		Logger()

	var (
		t          *domain.Transfer
		transition domain.Transition
		err        = domain.NotFound("transfer not found")
	)
	if n.ExternalID != "" {
		t, transition, err = r.ledger.UpdateStatusByExternalID(ctx, n.Provider, n.ExternalID, u)
	}
	if errors.Is(err, domain.ErrNotFound) && n.Reference != "" {
		t, transition, err = r.ledger.UpdateStatusByReference(ctx, n.Provider, n.Reference, u)
	}

	res := &Result{Notification: n, Transfer: t, Transition: transition}
	switch {
	case errors.Is(err, domain.ErrNotFound):
		// the callback may have beaten the initial write; ack so the rail stops retrying
		webhookOutcomes.WithLabelValues(string(n.Provider), "unmatched").Inc()
		logger.Warn().Msg("webhook for unknown transfer, needs manual investigation")
		res.Transfer = nil
		return res, nil
	case errors.Is(err, domain.ErrInconsistentState):
		webhookOutcomes.WithLabelValues(string(n.Provider), "inconsistent").Inc()
		logger.Error().Err(err).Msg("webhook contradicts terminal transfer status")
		res.Anomaly = err
		return res, nil
	case err != nil:
		webhookOutcomes.WithLabelValues(string(n.Provider), "error").Inc()
		logger.Error().Err(err).Msg("webhook status update failed")
		return nil, err
	}

	webhookOutcomes.WithLabelValues(string(n.Provider), transition.String()).Inc()
	logger.Info().Str("transfer_id", t.ID).Str("transition", transition.String()).Msg("webhook processed")
	if transition == domain.TransitionApplied {
		if perr := r.events.Publish(ctx, events.ForTransfer(events.TypeTransferStatusChanged, t)); perr != nil {
			logger.Warn().Err(perr).Msg("event publish failed")
		}
	}
	return res, nil
}
