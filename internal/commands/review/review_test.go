package review

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thomas-vilte/matereview/internal/config"
	"github.com/thomas-vilte/matereview/internal/errors"
	"github.com/thomas-vilte/matereview/internal/i18n"
	"github.com/urfave/cli/v3"
)

const testReview = "## Report\n* **Issue count:** High(0) Medium(2) Low(1)\nThe helper duplicates logic already present in the package.\n"

func setupRepo(t *testing.T, commits int) string {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not installed")
	}

	dir := t.TempDir()
	git := func(args ...string) {
		out, err := exec.Command("git", append([]string{"-C", dir}, args...)...).CombinedOutput()
		require.NoError(t, err, "git %v: %s", args, out)
	}
	git("init", "-b", "main")
	git("config", "user.email", "dev@example.com")
	git("config", "user.name", "Dev")
	git("config", "commit.gpgsign", "false")

	for i := 0; i < commits; i++ {
		content := strings.Repeat("line\n", i+1)
		require.NoError(t, os.WriteFile(filepath.Join(dir, "main.go"), []byte(content), 0o644))
		git("add", "main.go")
		git("commit", "-m", "change "+string(rune('a'+i)))
	}
	return dir
}

func reviewServer(t *testing.T, calls *atomic.Int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]string{"role": "assistant", "content": testReview}},
			},
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func setEnv(t *testing.T, apiURL string) {
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("CODE_REVIEW_API_URL", apiURL)
	t.Setenv("CODE_REVIEW_REPORT_BACKEND", "local")
	t.Setenv("CODE_REVIEW_REPORT_DIR", "records")
	t.Setenv("CODE_REVIEW_LANG", "en")
}

func runReview(t *testing.T, args ...string) (string, error) {
	t.Helper()
	translations, err := i18n.NewTranslations("en", "")
	require.NoError(t, err)

	var out bytes.Buffer
	app := &cli.Command{
		Name:     "matereview",
		Writer:   &out,
		Commands: []*cli.Command{NewReviewCommandFactory().CreateCommand(translations, nil)},
	}
	err = app.Run(context.Background(), append([]string{"matereview", "review"}, args...))
	return out.String(), err
}

func TestReviewCommand(t *testing.T) {
	t.Run("reviews the latest commit and saves the report", func(t *testing.T) {
		dir := setupRepo(t, 2)
		var calls atomic.Int32
		setEnv(t, reviewServer(t, &calls).URL)

		out, err := runReview(t, "--repo", dir, "--no-notify")

		require.NoError(t, err)
		assert.Equal(t, int32(1), calls.Load())
		assert.Contains(t, out, "Report saved to records/Dev/")
		assert.Contains(t, out, "MEDIUM")
		assert.Contains(t, out, "High:0 Medium:2 Low:1")
		assert.Contains(t, out, "Notifications disabled")
		assert.Contains(t, out, testReview)

		matches, err := filepath.Glob(filepath.Join(dir, "records", "Dev", "*", "change_b - Dev.md"))
		require.NoError(t, err)
		require.Len(t, matches, 1)
		data, err := os.ReadFile(matches[0])
		require.NoError(t, err)
		assert.Contains(t, string(data), "The helper duplicates logic")
	})

	t.Run("single commit has nothing to review", func(t *testing.T) {
		dir := setupRepo(t, 1)
		var calls atomic.Int32
		setEnv(t, reviewServer(t, &calls).URL)

		out, err := runReview(t, "--repo", dir)

		require.Error(t, err)
		assert.ErrorIs(t, err, errors.ErrInsufficientHistory)
		assert.Equal(t, 0, errors.ExitCode(err))
		assert.Contains(t, out, "Nothing to review")
		assert.Equal(t, int32(0), calls.Load())
	})

	t.Run("invalid configuration stops before any work", func(t *testing.T) {
		dir := setupRepo(t, 2)
		var calls atomic.Int32
		setEnv(t, reviewServer(t, &calls).URL)

		cfgPath := filepath.Join(t.TempDir(), "review.toml")
		cfg := config.Default()
		cfg.AI.APIKeyEnv = "MATEREVIEW_TEST_UNSET_KEY"
		require.NoError(t, config.SaveConfig(cfg, cfgPath))

		_, err := runReview(t, "--repo", dir, "--config", cfgPath)

		require.Error(t, err)
		assert.ErrorIs(t, err, errors.ErrConfigInvalid)
		assert.Equal(t, 2, errors.ExitCode(err))
		assert.Equal(t, int32(0), calls.Load())
	})

	t.Run("backend rejection is fatal", func(t *testing.T) {
		dir := setupRepo(t, 2)
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, `{"error":"invalid key"}`, http.StatusUnauthorized)
		}))
		defer srv.Close()
		setEnv(t, srv.URL)

		out, err := runReview(t, "--repo", dir, "--no-notify")

		require.Error(t, err)
		assert.ErrorIs(t, err, errors.ErrBackendRejected)
		assert.Equal(t, 1, errors.ExitCode(err))
		assert.Contains(t, out, "Review failed")
		_, statErr := os.Stat(filepath.Join(dir, "records"))
		assert.True(t, os.IsNotExist(statErr))
	})
}

func TestResolveConfig_Flags(t *testing.T) {
	base := config.Default()
	base.AI.APIKey = "sk-test"

	var got *config.Config
	app := &cli.Command{
		Name:  "matereview",
		Flags: Flags(mustTranslations(t)),
		Action: func(_ context.Context, cmd *cli.Command) error {
			var err error
			got, err = resolveConfig(cmd, base)
			return err
		},
	}

	require.NoError(t, app.Run(context.Background(), []string{"matereview", "--lang", "zh", "--cache"}))
	assert.Equal(t, "zh", got.Language)
	assert.True(t, got.Cache.Enabled)
	assert.Equal(t, "en", base.Language, "base config must not be modified")
	assert.False(t, base.Cache.Enabled)
}

func mustTranslations(t *testing.T) *i18n.Translations {
	t.Helper()
	translations, err := i18n.NewTranslations("en", "")
	require.NoError(t, err)
	return translations
}
