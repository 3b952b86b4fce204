package report

import (
	"fmt"
	"io"
	"path"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/thomas-vilte/matereview/internal/models"
	"github.com/thomas-vilte/matereview/internal/regex"
)

const (
	reportTitle     = "# Code Review Report"
	emptyReview     = "*No review content*"
	unknownName     = "unknown"
	maxFileNameLen  = 100
	dateLayout      = "2006-01-02"
	timestampLayout = "2006-01-02 15:04:05"
)

// MarkdownWriter renders a stored review report.
type MarkdownWriter struct{}

func (m *MarkdownWriter) Write(w io.Writer, change models.ChangeInfo, reviewText string, reviewedAt time.Time) error {
	ew := &errWriter{w: w}

	ew.printf("%s\n\n", reportTitle)

	ew.printf("## Details\n\n")
	ew.printf("| Field | Value |\n")
	ew.printf("|-------|-------|\n")
	ew.printf("| Review time | %s |\n", reviewedAt.Format(timestampLayout))
	ew.printf("| Commit message | %s |\n", escapeCell(change.CommitMessage))
	ew.printf("| Author | %s |\n", escapeCell(change.AuthorName))
	ew.printf("| Commit time | %s |\n", change.CommitTimestamp)
	if hash := change.Hash(); hash != "" {
		ew.printf("| Commit hash | `%s` |\n", hash)
	}
	ew.printf("| Changes | %s |\n\n", change.ChangeSummary())

	if files := change.Files(); len(files) > 0 {
		ew.printf("## Changed files\n\n")
		ew.printf("| File | Status | + | - |\n")
		ew.printf("|------|--------|---|---|\n")
		for _, f := range files {
			ew.printf("| `%s` | %s | %d | %d |\n", escapeCell(f.Name()), fileStatus(f), f.AddedLines, f.DeletedLines)
		}
		ew.printf("\n")
	}

	ew.printf("## Review\n\n")
	ew.printf("%s", formatReview(reviewText))

	return ew.err
}

// Render returns the report as a string.
func Render(change models.ChangeInfo, reviewText string, reviewedAt time.Time) string {
	var sb strings.Builder
	_ = (&MarkdownWriter{}).Write(&sb, change, reviewText, reviewedAt)
	return sb.String()
}

// Path returns the slash separated report location
// <baseDir>/<author>/<yyyy-mm-dd>/<commit subject> - <author>.md.
func Path(baseDir string, change models.ChangeInfo, reviewedAt time.Time) string {
	author := SanitizeFileName(change.AuthorName)
	subject, _, _ := strings.Cut(strings.TrimSpace(change.CommitMessage), "\n")
	name := fmt.Sprintf("%s - %s.md", SanitizeFileName(subject), author)
	return path.Join(baseDir, author, reviewedAt.Format(dateLayout), name)
}

// SanitizeFileName replaces characters that are unsafe in file names and collapses whitespace.
func SanitizeFileName(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return unknownName
	}
	s = regex.UnsafePathChars.ReplaceAllString(s, "_")
	s = regex.RepeatedSpace.ReplaceAllString(s, "_")
	if utf8.RuneCountInString(s) > maxFileNameLen {
		s = string([]rune(s)[:maxFileNameLen])
	}
	return s
}

func formatReview(text string) string {
	if strings.TrimSpace(text) == "" {
		return emptyReview + "\n"
	}
	text = strings.TrimRight(text, "\n")
	if regex.MarkdownSyntax.MatchString(text) {
		return text + "\n"
	}
	return "```\n" + text + "\n```\n"
}

func fileStatus(f models.FileChange) string {
	switch {
	case f.IsNew:
		return "added"
	case f.IsDeleted:
		return "deleted"
	case f.IsRenamed:
		return "renamed"
	case f.IsBinary:
		return "binary"
	default:
		return "modified"
	}
}

func escapeCell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	s = strings.ReplaceAll(strings.TrimRight(s, "\n"), "\n", "<br>")
	return s
}

type errWriter struct {
	w   io.Writer
	err error
}

func (e *errWriter) printf(format string, args ...interface{}) {
	if e.err != nil {
		return
	}
	_, e.err = fmt.Fprintf(e.w, format, args...)
}
