package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/thomas-vilte/matereview/internal/ai"
	"github.com/thomas-vilte/matereview/internal/models"
)

const maxResponseBytes = 8 << 20

// Backend posts chat-completions requests to an OpenAI-compatible endpoint.
type Backend struct {
	apiKey   string
	endpoint string
	client   *http.Client
}

type Options struct {
	APIKey         string
	Endpoint       string
	ConnectTimeout time.Duration
	ReadTimeout    time.Duration
	// HTTPClient overrides the client built from the timeouts.
	HTTPClient *http.Client
}

func NewBackend(opts Options) *Backend {
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Transport: newTransport(opts.ConnectTimeout, opts.ReadTimeout)}
	}
	return &Backend{
		apiKey:   opts.APIKey,
		endpoint: opts.Endpoint,
		client:   client,
	}
}

// newTransport enforces the connect and read timeouts at the transport level so the
// retry loop's own timing stays independent of them.
func newTransport(connect, read time.Duration) *http.Transport {
	t := http.DefaultTransport.(*http.Transport).Clone()
	t.DialContext = (&net.Dialer{
		Timeout:   connect,
		KeepAlive: 30 * time.Second,
	}).DialContext
	t.TLSHandshakeTimeout = connect
	t.ResponseHeaderTimeout = read
	return t
}

func (b *Backend) Endpoint() string { return b.endpoint }

// Send performs one POST. Any HTTP status is returned as is; only transport failures are errors.
func (b *Backend) Send(ctx context.Context, payload models.CompletionPayload) (models.BackendResponse, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return models.BackendResponse{}, &ai.TransportError{Err: fmt.Errorf("marshaling request: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.endpoint, bytes.NewReader(body))
	if err != nil {
		return models.BackendResponse{}, &ai.TransportError{Err: fmt.Errorf("creating request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+b.apiKey)

	resp, err := b.client.Do(req)
	if err != nil {
		return models.BackendResponse{}, &ai.TransportError{Err: err, Replayable: req.GetBody != nil}
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return models.BackendResponse{}, &ai.TransportError{
			Err:        fmt.Errorf("reading response: %w", err),
			Replayable: req.GetBody != nil,
		}
	}

	return models.BackendResponse{StatusCode: resp.StatusCode, Body: respBody}, nil
}
