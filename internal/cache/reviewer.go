package cache

import (
	"context"
	"encoding/json"

	"github.com/thomas-vilte/matereview/internal/logger"
	"github.com/thomas-vilte/matereview/internal/ports"
)

type reviewEntry struct {
	Review string `json:"review"`
	Model  string `json:"model"`
}

// Reviewer serves identical prompts from the cache and stores only successful reviews.
type Reviewer struct {
	next  ports.Reviewer
	cache *Cache
	model string
}

func NewReviewer(next ports.Reviewer, cache *Cache, model string) *Reviewer {
	return &Reviewer{next: next, cache: cache, model: model}
}

func (r *Reviewer) Call(ctx context.Context, prompt string) (string, error) {
	key := r.cache.GenerateHash(r.model, prompt)

	raw, found, err := r.cache.Get(key)
	if err != nil {
		logger.Warn(ctx, "review cache read failed", "error", err)
	}
	if found {
		var entry reviewEntry
		if err := json.Unmarshal(raw, &entry); err == nil && entry.Review != "" {
			logger.Info(ctx, "review served from cache", "key", key[:12])
			return entry.Review, nil
		}
	}

	review, err := r.next.Call(ctx, prompt)
	if err != nil {
		return "", err
	}

	if err := r.cache.Set(key, reviewEntry{Review: review, Model: r.model}); err != nil {
		logger.Warn(ctx, "review cache write failed", "error", err)
	}
	return review, nil
}
