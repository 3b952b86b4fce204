package ports

import (
	"context"

	"github.com/thomas-vilte/matereview/internal/models"
)

// ReviewBackend performs one HTTP round trip to a completion endpoint.
// A non-nil error means the transport failed; any HTTP status is returned in the response.
type ReviewBackend interface {
	Send(ctx context.Context, payload models.CompletionPayload) (models.BackendResponse, error)

	// Endpoint returns the URL requests are sent to (e.g.: "https://api.openai.com/v1/chat/completions")
	Endpoint() string
}

// Reviewer turns a rendered prompt into non-empty review text.
type Reviewer interface {
	Call(ctx context.Context, prompt string) (string, error)
}
