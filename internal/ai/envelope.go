package ai

import (
	"encoding/json"
	"strings"

	"github.com/thomas-vilte/matereview/internal/errors"
	"github.com/thomas-vilte/matereview/internal/models"
)

// Pointer fields tell a missing key apart from an empty one.
type (
	completionEnvelope struct {
		Choices *[]completionChoice `json:"choices"`
		Model   string              `json:"model"`
		Usage   *models.TokenUsage  `json:"usage"`
	}

	completionChoice struct {
		Message      *completionMessage `json:"message"`
		FinishReason string             `json:"finish_reason"`
	}

	completionMessage struct {
		Role    string  `json:"role"`
		Content *string `json:"content"`
	}
)

// ParsedCompletion is the useful part of a successful response.
type ParsedCompletion struct {
	Content      string
	FinishReason string
	Usage        *models.TokenUsage
}

// ParseCompletion extracts the first choice's content from a chat-completions body.
// Broken JSON or missing fields are ResponseMalformed; no choices or blank content is ResponseEmpty.
func ParseCompletion(body []byte) (ParsedCompletion, error) {
	var env completionEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return ParsedCompletion{}, errors.ErrResponseMalformed.WithError(err).WithContext("body", snippet(body))
	}

	if env.Choices == nil {
		return ParsedCompletion{}, errors.ErrResponseMalformed.
			WithMessage("Response has no choices field").
			WithContext("body", snippet(body))
	}
	if len(*env.Choices) == 0 {
		return ParsedCompletion{}, errors.ErrResponseEmpty.WithMessage("Response has an empty choices list")
	}

	first := (*env.Choices)[0]
	if first.Message == nil {
		return ParsedCompletion{}, errors.ErrResponseMalformed.
			WithMessage("First choice has no message").
			WithContext("body", snippet(body))
	}
	if first.Message.Content == nil {
		return ParsedCompletion{}, errors.ErrResponseMalformed.
			WithMessage("First choice message has no content").
			WithContext("body", snippet(body))
	}
	if strings.TrimSpace(*first.Message.Content) == "" {
		return ParsedCompletion{}, errors.ErrResponseEmpty
	}

	if env.Usage != nil && env.Usage.Model == "" {
		env.Usage.Model = env.Model
	}

	return ParsedCompletion{
		Content:      *first.Message.Content,
		FinishReason: first.FinishReason,
		Usage:        env.Usage,
	}, nil
}

const maxSnippet = 512

func snippet(body []byte) string {
	if len(body) <= maxSnippet {
		return string(body)
	}
	return string(body[:maxSnippet]) + "..."
}
