package report

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thomas-vilte/matereview/internal/models"
)

const sampleDiff = `diff --git a/main.go b/main.go
index 1111111..2222222 100644
--- a/main.go
+++ b/main.go
@@ -1,2 +1,3 @@
 package main
-func a() {}
+func a() int { return 1 }
+func b() {}
`

func sampleChange() models.ChangeInfo {
	hash := "abcdef0123456789abcdef0123456789abcdef01"
	return models.ChangeInfo{
		CommitMessage:   "fix: handle a|b\nsecond line",
		AuthorName:      "Alice Doe",
		CommitTimestamp: "2024-03-01T09:00:00Z",
		CommitHash:      &hash,
		DiffText:        sampleDiff,
	}
}

var reviewedAt = time.Date(2024, 3, 2, 14, 5, 6, 0, time.UTC)

func TestRender(t *testing.T) {
	out := Render(sampleChange(), "## Findings\n- High(1) Medium(0) Low(0)\n", reviewedAt)

	assert.True(t, strings.HasPrefix(out, reportTitle))
	assert.Contains(t, out, "| Review time | 2024-03-02 14:05:06 |")
	assert.Contains(t, out, `| Commit message | fix: handle a\|b<br>second line |`)
	assert.Contains(t, out, "| Author | Alice Doe |")
	assert.Contains(t, out, "| Commit time | 2024-03-01T09:00:00Z |")
	assert.Contains(t, out, "| Commit hash | `abcdef0123456789abcdef0123456789abcdef01` |")
	assert.Contains(t, out, "| `main.go` | modified | 2 | 1 |")
	assert.True(t, strings.HasSuffix(out, "## Review\n\n## Findings\n- High(1) Medium(0) Low(0)\n"))
	assert.NotContains(t, out, "```")
}

func TestRender_PlainReviewIsFenced(t *testing.T) {
	change := sampleChange()
	change.CommitHash = nil

	out := Render(change, "looks fine overall", reviewedAt)

	assert.NotContains(t, out, "Commit hash")
	assert.True(t, strings.HasSuffix(out, "```\nlooks fine overall\n```\n"))
}

func TestRender_EmptyReviewAndDiff(t *testing.T) {
	out := Render(models.ChangeInfo{CommitMessage: "m", AuthorName: "a"}, "  ", reviewedAt)

	assert.NotContains(t, out, "Changed files")
	assert.True(t, strings.HasSuffix(out, emptyReview+"\n"))
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestMarkdownWriter_PropagatesWriteError(t *testing.T) {
	err := (&MarkdownWriter{}).Write(failingWriter{}, sampleChange(), "x", reviewedAt)
	assert.EqualError(t, err, "disk full")

	var buf bytes.Buffer
	require.NoError(t, (&MarkdownWriter{}).Write(&buf, sampleChange(), "x", reviewedAt))
	assert.NotEmpty(t, buf.String())
}

func TestPath(t *testing.T) {
	change := models.ChangeInfo{CommitMessage: "feat: add a/b <x>?", AuthorName: "Bob"}

	assert.Equal(t, "code-review-records/Bob/2024-03-02/feat__add_a_b__x__ - Bob.md",
		Path("code-review-records", change, reviewedAt))
	assert.Equal(t, "Bob/2024-03-02/feat__add_a_b__x__ - Bob.md", Path("", change, reviewedAt))
}

func TestSanitizeFileName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", "unknown"},
		{"   ", "unknown"},
		{"fix: a\\b", "fix__a_b"},
		{"multi\nline  message", "multi_line_message"},
		{"控制|字符", "控制_字符"},
		{strings.Repeat("é", 150), strings.Repeat("é", 100)},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, SanitizeFileName(tt.in), "input %q", tt.in)
	}
}
