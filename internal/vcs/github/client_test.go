package github

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewGitHubClient(t *testing.T) {
	t.Run("with token", func(t *testing.T) {
		client := NewGitHubClient("acme", "reviews", "ghp_test")

		require.NotNil(t, client)
		assert.NotNil(t, client.repoService)
		assert.Equal(t, "acme", client.Owner())
		assert.Equal(t, "reviews", client.Repo())
	})

	t.Run("anonymous", func(t *testing.T) {
		client := NewGitHubClient("acme", "reviews", "")

		require.NotNil(t, client)
		assert.NotNil(t, client.repoService)
	})
}
