package models

type (
	// CompletionPayload is the request body sent to a chat-completions endpoint.
	CompletionPayload struct {
		Model       string              `json:"model"`
		Messages    []CompletionMessage `json:"messages"`
		Temperature float64             `json:"temperature"`
		MaxTokens   int                 `json:"max_tokens"`
	}

	CompletionMessage struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	}

	// BackendResponse is the raw result of one round trip: status code and body, nothing decoded.
	BackendResponse struct {
		StatusCode int
		Body       []byte
	}
)

// IsSuccess reports a 2xx status.
func (r BackendResponse) IsSuccess() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}
