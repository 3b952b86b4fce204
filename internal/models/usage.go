package models

// TokenUsage is the token accounting reported by the review endpoint, when it reports any.
type TokenUsage struct {
	InputTokens  int    `json:"prompt_tokens"`
	OutputTokens int    `json:"completion_tokens"`
	TotalTokens  int    `json:"total_tokens"`
	Model        string `json:"model,omitempty"`
	CacheHit     bool   `json:"cache_hit,omitempty"`
	DurationMs   int64  `json:"duration_ms,omitempty"`
}
