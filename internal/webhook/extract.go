package webhook

import (
	"bytes"
	"encoding/json"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/Adebayotoheeb666/pancake/internal/domain"
)

// Notification is what one rail callback says about one transfer.
type Notification struct {
	Provider   domain.Provider
	ExternalID string
	Reference  string
	RawStatus  string
	Message    string
	OccurredAt time.Time
}

// source describes how to authenticate and read one rail's callbacks.
type source struct {
	headers []string
	extract func(body []byte) (Notification, error)
}

var sources = map[domain.Provider]source{
	domain.ProviderDwolla:      {headers: []string{"X-Request-Signature-SHA-256", "X-Dwolla-Signature", "X-Signature"}, extract: dwollaNotification},
	domain.ProviderFlutterwave: {headers: []string{"Verif-Hash", "X-Flw-Signature", "X-Signature"}, extract: flutterwaveNotification},
	domain.ProviderPaystack:    {headers: []string{"X-Paystack-Signature", "X-Signature"}, extract: paystackNotification},
	domain.ProviderOpay:        {headers: []string{"X-Opay-Signature", "X-Signature"}, extract: opayNotification},
	domain.ProviderMonnify:     {headers: []string{"Monnify-Signature", "X-Signature"}, extract: monnifyNotification},
}

// genericHeaders authenticate the rail-agnostic endpoint.
var genericHeaders = []string{"X-Provider-Signature", "X-Webhook-Signature", "X-Signature"}

// id decodes identifiers sent either as strings or numbers.
type id string

func (i *id) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case len(b) == 0 || string(b) == "null":
		*i = ""
	case b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*i = id(s)
	default:
		var n json.Number
		if err := json.Unmarshal(b, &n); err != nil {
			return fmt.Errorf("id is neither string nor number: %w", err)
		}
		*i = id(n.String())
	}
	return nil
}

func first[T ~string](vals ...T) string {
	for _, v := range vals {
		if v != "" {
			return string(v)
		}
	}
	return ""
}

var timeLayouts = []string{time.RFC3339Nano, "2006-01-02 15:04:05.999999999", "2006-01-02T15:04:05"}

// eventTime parses the first non-empty timestamp. Unparseable values are
// treated as absent.
func eventTime(vals ...string) time.Time {
	for _, v := range vals {
		if v == "" {
			continue
		}
		for _, layout := range timeLayouts {
			if t, err := time.Parse(layout, v); err == nil {
				return t.UTC()
			}
		}
	}
	return time.Time{}
}

func dwollaNotification(body []byte) (Notification, error) {
	var in struct {
		ID         id     `json:"id"`
		EventID    id     `json:"eventId"`
		ResourceID id     `json:"resourceId"`
		Topic      string `json:"topic"`
		EventType  string `json:"eventType"`
		Status     string `json:"status"`
		Reference  string `json:"reference"`
		Timestamp  string `json:"timestamp"`
		Created    string `json:"created"`
		Resource   struct {
			ID       id `json:"id"`
			Metadata struct {
				Reference string `json:"reference"`
			} `json:"metadata"`
		} `json:"resource"`
		Links struct {
			Resource struct {
				Href string `json:"href"`
			} `json:"resource"`
		} `json:"_links"`
	}
	if err := json.Unmarshal(body, &in); err != nil {
		return Notification{}, err
	}
	var linked id
	if href := strings.TrimRight(in.Links.Resource.Href, "/"); href != "" {
		linked = id(path.Base(href))
	}
	return Notification{
		Provider:   domain.ProviderDwolla,
		ExternalID: first(in.Resource.ID, in.ResourceID, linked, in.ID, in.EventID),
		Reference:  first(in.Resource.Metadata.Reference, in.Reference),
		RawStatus:  first(in.EventType, in.Topic, in.Status),
		OccurredAt: eventTime(in.Timestamp, in.Created),
	}, nil
}

func flutterwaveNotification(body []byte) (Notification, error) {
	var in struct {
		ID        id     `json:"id"`
		Event     string `json:"event"`
		Reference string `json:"reference"`
		Data      struct {
			ID              id     `json:"id"`
			Reference       string `json:"reference"`
			Status          string `json:"status"`
			CompleteMessage string `json:"complete_message"`
			CreatedAt       string `json:"created_at"`
		} `json:"data"`
		Transaction struct {
			ID     id     `json:"id"`
			Status string `json:"status"`
		} `json:"transaction"`
	}
	if err := json.Unmarshal(body, &in); err != nil {
		return Notification{}, err
	}
	// data.status carries the outcome; the event name only says what kind of object changed
	return Notification{
		Provider:   domain.ProviderFlutterwave,
		ExternalID: first(in.Data.ID, in.Transaction.ID, in.ID),
		Reference:  first(in.Data.Reference, in.Reference),
		RawStatus:  first(in.Data.Status, in.Transaction.Status, in.Event),
		Message:    in.Data.CompleteMessage,
		OccurredAt: eventTime(in.Data.CreatedAt),
	}, nil
}

func paystackNotification(body []byte) (Notification, error) {
	var in struct {
		Event     string `json:"event"`
		Reference string `json:"reference"`
		Data      struct {
			ID           id     `json:"id"`
			TransferCode string `json:"transfer_code"`
			Reference    string `json:"reference"`
			Status       string `json:"status"`
			Reason       string `json:"reason"`
			UpdatedAt    string `json:"updated_at"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &in); err != nil {
		return Notification{}, err
	}
	return Notification{
		Provider:   domain.ProviderPaystack,
		ExternalID: first(string(in.Data.ID), in.Data.TransferCode),
		Reference:  first(in.Data.Reference, in.Reference),
		RawStatus:  first(in.Data.Status, in.Event),
		OccurredAt: eventTime(in.Data.UpdatedAt),
	}, nil
}

type opayPayload struct {
	TransactionID id     `json:"transactionId"`
	OrderNo       id     `json:"orderNo"`
	Reference     string `json:"reference"`
	Status        string `json:"status"`
	ErrorMsg      string `json:"errorMsg"`
	Timestamp     string `json:"timestamp"`
}

func opayNotification(body []byte) (Notification, error) {
	var in struct {
		Payload *opayPayload `json:"payload"`
		opayPayload
	}
	if err := json.Unmarshal(body, &in); err != nil {
		return Notification{}, err
	}
	p := in.opayPayload
	if in.Payload != nil {
		p = *in.Payload
	}
	return Notification{
		Provider:   domain.ProviderOpay,
		ExternalID: first(p.TransactionID, p.OrderNo),
		Reference:  p.Reference,
		RawStatus:  p.Status,
		Message:    p.ErrorMsg,
		OccurredAt: eventTime(p.Timestamp),
	}, nil
}

func monnifyNotification(body []byte) (Notification, error) {
	var in struct {
		EventType string `json:"eventType"`
		EventData struct {
			TransactionID        id     `json:"transactionId"`
			TransactionReference string `json:"transactionReference"`
			Reference            string `json:"reference"`
			Status               string `json:"status"`
			Description          string `json:"transactionDescription"`
			CompletedOn          string `json:"completedOn"`
			CreatedOn            string `json:"createdOn"`
		} `json:"eventData"`
	}
	if err := json.Unmarshal(body, &in); err != nil {
		return Notification{}, err
	}
	d := in.EventData
	return Notification{
		Provider:   domain.ProviderMonnify,
		ExternalID: first(string(d.TransactionID), d.TransactionReference),
		Reference:  d.Reference,
		RawStatus:  first(d.Status, in.EventType),
		Message:    d.Description,
		OccurredAt: eventTime(d.CompletedOn, d.CreatedOn),
	}, nil
}

// genericNotification reads the rail-agnostic body posted to /webhooks/provider.
func genericNotification(body []byte) (Notification, error) {
	var in struct {
		Provider           string `json:"provider"`
		ExternalTransferID id     `json:"external_transfer_id"`
		Reference          string `json:"reference"`
		Status             string `json:"status"`
		Message            string `json:"message"`
		Timestamp          string `json:"timestamp"`
	}
	if err := json.Unmarshal(body, &in); err != nil {
		return Notification{}, err
	}
	if in.Provider == "" {
		return Notification{}, domain.Validation("Missing provider or external_transfer_id")
	}
	p, err := domain.ParseProvider(in.Provider)
	if err != nil {
		return Notification{}, err
	}
	return Notification{
		Provider:   p,
		ExternalID: string(in.ExternalTransferID),
		Reference:  in.Reference,
		RawStatus:  first(in.Status, string(domain.StatusProcessing)),
		Message:    in.Message,
		OccurredAt: eventTime(in.Timestamp),
	}, nil
}
