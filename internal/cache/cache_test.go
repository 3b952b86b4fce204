package cache

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestCache(t *testing.T, ttl time.Duration) *Cache {
	t.Helper()
	c, err := NewCache(t.TempDir(), ttl)
	require.NoError(t, err)
	return c
}

func TestNewCache(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "reviews")

	c, err := NewCache(dir, time.Hour)

	require.NoError(t, err)
	assert.Equal(t, dir, c.Dir())
	assert.DirExists(t, dir)
}

func TestCache_GenerateHash(t *testing.T) {
	c := &Cache{}

	hash1 := c.GenerateHash("model", "content")
	hash2 := c.GenerateHash("model", "content")
	hash3 := c.GenerateHash("modelc", "ontent")

	assert.Equal(t, hash1, hash2)
	assert.NotEqual(t, hash1, hash3, "part boundaries are part of the key")
	assert.Len(t, hash1, 64)
}

func TestCache_SetAndGet(t *testing.T) {
	c := setupTestCache(t, time.Hour)
	type testData struct {
		Name string `json:"name"`
	}
	hash := c.GenerateHash("matereview-key")

	require.NoError(t, c.Set(hash, testData{Name: "review"}))

	resp, found, err := c.Get(hash)
	require.NoError(t, err)
	require.True(t, found)

	var got testData
	require.NoError(t, json.Unmarshal(resp, &got))
	assert.Equal(t, "review", got.Name)
}

func TestCache_Get_NotFound(t *testing.T) {
	c := setupTestCache(t, time.Hour)

	_, found, err := c.Get("non-existent-hash")

	assert.NoError(t, err)
	assert.False(t, found)
}

func TestCache_Get_Corrupted(t *testing.T) {
	c := setupTestCache(t, time.Hour)
	require.NoError(t, os.WriteFile(filepath.Join(c.Dir(), "bad.json"), []byte("{"), 0644))

	_, found, err := c.Get("bad")

	assert.Error(t, err)
	assert.False(t, found)
}

func TestCache_Get_Expired(t *testing.T) {
	c := setupTestCache(t, time.Hour)
	now := time.Now()
	c.now = func() time.Time { return now }

	require.NoError(t, c.Set("expired-hash", "some data"))
	c.now = func() time.Time { return now.Add(2 * time.Hour) }

	_, found, err := c.Get("expired-hash")

	assert.NoError(t, err)
	assert.False(t, found)
	assert.NoFileExists(t, filepath.Join(c.Dir(), "expired-hash.json"))
}

func TestCache_CleanExpired(t *testing.T) {
	c := setupTestCache(t, time.Hour)
	require.NoError(t, c.Set("fresh", "data"))
	require.NoError(t, c.Set("old", "data"))

	oldFilePath := filepath.Join(c.Dir(), "old.json")
	oldTime := time.Now().Add(-2 * time.Hour)
	require.NoError(t, os.Chtimes(oldFilePath, oldTime, oldTime))

	require.NoError(t, c.CleanExpired())

	assert.NoFileExists(t, oldFilePath)
	assert.FileExists(t, filepath.Join(c.Dir(), "fresh.json"))
}

func TestCache_Clean(t *testing.T) {
	c := setupTestCache(t, time.Hour)
	require.NoError(t, c.Set("hash1", "data"))

	require.NoError(t, c.Clean())

	assert.NoDirExists(t, c.Dir())
}
