package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

type CachedResponse struct {
	Hash      string          `json:"hash"`
	Response  json.RawMessage `json:"response"`
	CreatedAt time.Time       `json:"created_at"`
}

// Cache stores JSON responses on disk keyed by content hash.
type Cache struct {
	cacheDir string
	ttl      time.Duration
	now      func() time.Time
}

// NewCache opens a cache under dir, or under the user cache directory when dir is "".
func NewCache(dir string, ttl time.Duration) (*Cache, error) {
	if dir == "" {
		base, err := os.UserCacheDir()
		if err != nil {
			return nil, fmt.Errorf("error getting user cache directory: %w", err)
		}
		dir = filepath.Join(base, "matereview", "reviews")
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("error creating cache directory: %w", err)
	}

	c := &Cache{
		cacheDir: dir,
		ttl:      ttl,
		now:      time.Now,
	}

	_ = c.CleanExpired()

	return c, nil
}

func (c *Cache) Dir() string {
	return c.cacheDir
}

// GenerateHash returns the hex SHA-256 of the concatenated parts.
func (c *Cache) GenerateHash(parts ...string) string {
	h := sha256.New()
	for _, p := range parts {
		h.Write([]byte(p))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Get returns the cached response for hash; expired entries are removed and reported as misses.
func (c *Cache) Get(hash string) (json.RawMessage, bool, error) {
	filePath := c.path(hash)

	data, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("error reading cache: %w", err)
	}

	var cached CachedResponse
	if err := json.Unmarshal(data, &cached); err != nil {
		return nil, false, fmt.Errorf("error decoding cache entry: %w", err)
	}

	if c.now().Sub(cached.CreatedAt) > c.ttl {
		_ = os.Remove(filePath)
		return nil, false, nil
	}

	return cached.Response, true, nil
}

func (c *Cache) Set(hash string, response interface{}) error {
	responseData, err := json.Marshal(response)
	if err != nil {
		return fmt.Errorf("error encoding response: %w", err)
	}

	data, err := json.MarshalIndent(CachedResponse{
		Hash:      hash,
		Response:  responseData,
		CreatedAt: c.now(),
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("error encoding cache entry: %w", err)
	}

	if err := os.WriteFile(c.path(hash), data, 0644); err != nil {
		return fmt.Errorf("error writing cache: %w", err)
	}
	return nil
}

// CleanExpired removes entries whose file is older than the TTL.
func (c *Cache) CleanExpired() error {
	entries, err := os.ReadDir(c.cacheDir)
	if err != nil {
		return fmt.Errorf("error reading cache directory: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if c.now().Sub(info.ModTime()) > c.ttl {
			_ = os.Remove(filepath.Join(c.cacheDir, entry.Name()))
		}
	}

	return nil
}

// Clean removes the whole cache directory.
func (c *Cache) Clean() error {
	return os.RemoveAll(c.cacheDir)
}

func (c *Cache) path(hash string) string {
	return filepath.Join(c.cacheDir, hash+".json")
}
