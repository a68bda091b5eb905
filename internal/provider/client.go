package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/Adebayotoheeb666/pancake/internal/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog/log"
)

var railLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Name:    "pancake_rail_request_duration_seconds",
	Help:    "Latency of calls to payment rails",
	Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20},
}, []string{"provider", "op", "outcome"})

const maxResponseBytes = 1 << 20

// reply is the part of an HTTP response adapters look at besides the body.
type reply struct {
	code   int
	header http.Header
}

func (r reply) ok() bool {
	return r.code >= 200 && r.code < 300
}

// jsonClient sends JSON requests to one rail with a per-call deadline.
type jsonClient struct {
	provider  domain.Provider
	baseURL   string
	http      *http.Client
	timeout   time.Duration
	headers   map[string]string
	authorize func(ctx context.Context, req *http.Request) error
}

func newJSONClient(p domain.Provider, baseURL string, doer *http.Client, timeout time.Duration) *jsonClient {
	if doer == nil {
		doer = http.DefaultClient
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &jsonClient{
		provider: p,
		baseURL:  strings.TrimRight(baseURL, "/"),
		http:     doer,
		timeout:  timeout,
		headers:  map[string]string{},
	}
}

// requestOption adjusts a single outgoing request.
type requestOption func(*http.Request)

func withHeader(key, value string) requestOption {
	return func(r *http.Request) { r.Header.Set(key, value) }
}

// call sends in as JSON (when non-nil) and decodes the response into out
// whatever the status code, so callers can read a rail's error message.
func (c *jsonClient) call(ctx context.Context, op, method, path string, in, out any, opts ...requestOption) (reply, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	rep, err := c.roundTrip(ctx, method, path, in, out, opts)

	outcome := "ok"
	switch {
	case errors.Is(err, domain.ErrTimeout):
		outcome = "timeout"
	case err != nil:
		outcome = "error"
	case !rep.ok():
		outcome = "rejected"
	}
	elapsed := time.Since(start)
	railLatency.WithLabelValues(string(c.provider), op, outcome).Observe(elapsed.Seconds())
	log.Debug().
		Str("provider", string(c.provider)).
		Str("op", op).
		Int("status", rep.code).
		Str("outcome", outcome).
		Dur("elapsed", elapsed).
		Msg("rail call")

	return rep, err
}

func (c *jsonClient) roundTrip(ctx context.Context, method, path string, in, out any, opts []requestOption) (reply, error) {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return reply{}, fmt.Errorf("encode %s request: %w", path, err)
		}
		body = bytes.NewReader(b)
	}

	target := path
	if !strings.HasPrefix(path, "http://") && !strings.HasPrefix(path, "https://") {
		target = c.baseURL + path
	}
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return reply{}, err
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}
	if c.authorize != nil {
		if err := c.authorize(ctx, req); err != nil {
			return reply{}, err
		}
	}
	for _, opt := range opts {
		opt(req)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if timedOut(ctx, err) {
			return reply{}, fmt.Errorf("%s %s: %w", method, path, domain.ErrTimeout)
		}
		return reply{}, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	rep := reply{code: resp.StatusCode, header: resp.Header}
	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		if timedOut(ctx, err) {
			return rep, fmt.Errorf("%s %s: %w", method, path, domain.ErrTimeout)
		}
		return rep, fmt.Errorf("read %s response: %w", path, err)
	}
	if out != nil && len(bytes.TrimSpace(raw)) > 0 {
		if err := json.Unmarshal(raw, out); err != nil {
			return rep, fmt.Errorf("decode %s response (http %d): %w", path, resp.StatusCode, err)
		}
	}
	return rep, nil
}

func timedOut(ctx context.Context, err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

// flexID decodes ids some rails send as numbers and others as strings.
type flexID string

func (f *flexID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || string(b) == "null" {
		*f = ""
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = flexID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("id is neither string nor number: %w", err)
	}
	*f = flexID(n.String())
	return nil
}
