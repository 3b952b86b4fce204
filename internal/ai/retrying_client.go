package ai

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"net"
	"time"

	"github.com/thomas-vilte/matereview/internal/errors"
	"github.com/thomas-vilte/matereview/internal/logger"
	"github.com/thomas-vilte/matereview/internal/models"
	"github.com/thomas-vilte/matereview/internal/ports"
)

// TransportError is returned by a ReviewBackend when the round trip failed before a status was received.
type TransportError struct {
	Err error
	// Replayable is false when the request body was consumed and cannot be sent again.
	Replayable bool
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport error: %v", e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// SleepFunc waits for d or until ctx is done, returning ctx's error in the latter case.
type SleepFunc func(ctx context.Context, d time.Duration) error

// MaxBackoff bounds a single backoff delay.
const MaxBackoff = 5 * time.Minute

type ClientOptions struct {
	Model       string
	Temperature float64
	MaxTokens   int
	// RetryLimit is the number of retries after the first attempt.
	RetryLimit int
	BaseDelay  time.Duration

	Sleep SleepFunc
	Now   func() time.Time
}

// RetryingClient sends one review request with bounded retries and exponential backoff.
// It keeps no state between calls and is safe for concurrent use.
type RetryingClient struct {
	backend ports.ReviewBackend
	opts    ClientOptions
}

func NewRetryingClient(backend ports.ReviewBackend, opts ClientOptions) *RetryingClient {
	if opts.Sleep == nil {
		opts.Sleep = sleepContext
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.RetryLimit < 0 {
		opts.RetryLimit = 0
	}
	return &RetryingClient{backend: backend, opts: opts}
}

// MaxAttempts is the total number of requests a call may make.
func (c *RetryingClient) MaxAttempts() int {
	return c.opts.RetryLimit + 1
}

// Backoff returns the delay after the given failed attempt, counted from 1, capped at MaxBackoff.
func (c *RetryingClient) Backoff(attempt int) time.Duration {
	shift := attempt - 1
	if shift < 0 {
		shift = 0
	}
	if shift >= 32 {
		return MaxBackoff
	}
	d := c.opts.BaseDelay << uint(shift)
	if d <= 0 || d > MaxBackoff || d>>uint(shift) != c.opts.BaseDelay {
		return MaxBackoff
	}
	return d
}

// Call returns non-empty review text for prompt.
func (c *RetryingClient) Call(ctx context.Context, prompt string) (string, error) {
	payload := models.CompletionPayload{
		Model: c.opts.Model,
		Messages: []models.CompletionMessage{
			{Role: "user", Content: prompt},
		},
		Temperature: c.opts.Temperature,
		MaxTokens:   c.opts.MaxTokens,
	}

	maxAttempts := c.MaxAttempts()
	var lastErr error

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return "", errors.ErrRequestFailed.
				WithMessage("Review request cancelled").
				WithError(err).
				WithContext("attempts", attempt-1)
		}

		start := c.opts.Now()
		resp, err := c.backend.Send(ctx, payload)
		elapsed := c.opts.Now().Sub(start)

		attrs := []any{
			slog.Int("attempt", attempt),
			slog.Int("max_attempts", maxAttempts),
			slog.Duration("elapsed", elapsed),
		}

		if err != nil {
			if reason, fatal := failFast(ctx, err); fatal {
				logger.Warn(ctx, "review request failed", append(attrs, "outcome", reason, "error", err)...)
				return "", errors.ErrRequestFailed.
					WithError(err).
					WithContext("attempts", attempt).
					WithContext("reason", reason)
			}

			lastErr = err
			if attempt == maxAttempts {
				logger.Warn(ctx, "review request failed", append(attrs, "outcome", "retries_exhausted", "error", err)...)
				break
			}

			delay := c.Backoff(attempt)
			logger.Warn(ctx, "review request failed", append(attrs, "outcome", "retry", "delay", delay, "error", err)...)

			if err := c.opts.Sleep(ctx, delay); err != nil {
				return "", errors.ErrRequestFailed.
					WithMessage("Review request cancelled during backoff").
					WithError(err).
					WithContext("attempts", attempt)
			}
			continue
		}

		if !resp.IsSuccess() {
			logger.Warn(ctx, "review request rejected", append(attrs, "outcome", "rejected", "status", resp.StatusCode)...)
			return "", errors.ErrBackendRejected.
				WithMessage(fmt.Sprintf("Review endpoint returned HTTP %d", resp.StatusCode)).
				WithContext("status", resp.StatusCode).
				WithContext("body", snippet(resp.Body))
		}

		parsed, err := ParseCompletion(resp.Body)
		if err != nil {
			logger.Warn(ctx, "review response unusable", append(attrs, "outcome", "invalid_response", "error", err)...)
			return "", err
		}

		attrs = append(attrs, "outcome", "success", "status", resp.StatusCode)
		if parsed.Usage != nil {
			attrs = append(attrs, "total_tokens", parsed.Usage.TotalTokens)
		}
		if parsed.FinishReason == "length" {
			attrs = append(attrs, "truncated", true)
		}
		logger.Info(ctx, "review request succeeded", attrs...)

		return parsed.Content, nil
	}

	return "", errors.ErrRequestFailed.
		WithMessage(fmt.Sprintf("Review request failed after %d attempts", maxAttempts)).
		WithError(lastErr).
		WithContext("attempts", maxAttempts)
}

// failFast reports whether a transport error must not be retried, and why.
func failFast(ctx context.Context, err error) (string, bool) {
	if ctx.Err() != nil || stderrors.Is(err, context.Canceled) {
		return "cancelled", true
	}

	var dnsErr *net.DNSError
	if stderrors.As(err, &dnsErr) {
		return "unreachable", true
	}

	var transportErr *TransportError
	if stderrors.As(err, &transportErr) && !transportErr.Replayable {
		return "not_replayable", true
	}

	return "", false
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
