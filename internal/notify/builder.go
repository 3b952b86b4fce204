package notify

import (
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/thomas-vilte/matereview/internal/models"
	"github.com/thomas-vilte/matereview/internal/regex"
)

const (
	DefaultTitle = "Code review completed"

	statsUnknown  = "see report"
	minSummaryLen = 20
	maxSummaryLen = 100
	ellipsis      = "..."
	defaultBranch = "main"
)

// Builder derives a NotificationMessage from a ReviewOutcome. Build is pure: the same outcome
// always produces the same message.
type Builder struct {
	// ReportBaseURL is the repository URL relative report locations are resolved against.
	ReportBaseURL string
	Branch        string
}

func NewBuilder(reportBaseURL, branch string) *Builder {
	if branch == "" {
		branch = defaultBranch
	}
	return &Builder{ReportBaseURL: reportBaseURL, Branch: branch}
}

func (b *Builder) Build(outcome models.ReviewOutcome) models.NotificationMessage {
	stats, severity := IssueStats(outcome.ReviewText)

	metadata := map[string]string{
		models.MetaCommitMessage: outcome.Change.CommitMessage,
		models.MetaAuthorName:    outcome.Change.AuthorName,
		models.MetaIssueStats:    stats,
		models.MetaCompletedAt:   outcome.CompletedAt.Format(time.RFC3339),
	}
	if outcome.Change.CommitHash != nil {
		metadata[models.MetaCommitHash] = *outcome.Change.CommitHash
	}
	if loc := outcome.Location(); loc != "" {
		metadata[models.MetaReportPath] = loc
	}

	return models.NotificationMessage{
		Title:     DefaultTitle,
		Content:   outcome.ReviewText,
		Summary:   Summary(outcome.ReviewText),
		LinkURL:   b.linkURL(outcome.Location()),
		Severity:  severity,
		Metadata:  metadata,
		Timestamp: outcome.CompletedAt,
	}
}

func (b *Builder) linkURL(location string) *string {
	if location == "" {
		return nil
	}
	if strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://") {
		return &location
	}
	if b.ReportBaseURL == "" {
		return nil
	}

	branch := b.Branch
	if branch == "" {
		branch = defaultBranch
	}
	repo := strings.TrimSuffix(strings.TrimSuffix(b.ReportBaseURL, "/"), ".git")
	link := fmt.Sprintf("%s/blob/%s/%s", repo, branch, strings.TrimPrefix(location, "/"))
	return &link
}

// Summary returns the first prose line of at least 20 characters, skipping headings and bullets.
// Without one it falls back to the start of the whole text.
func Summary(text string) string {
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.ContainsAny(line[:1], "#*-+") {
			continue
		}
		if utf8.RuneCountInString(line) >= minSummaryLen {
			return truncate(line)
		}
	}
	return truncate(strings.TrimSpace(text))
}

func truncate(s string) string {
	r := []rune(s)
	if len(r) <= maxSummaryLen {
		return s
	}
	return string(r[:maxSummaryLen]) + ellipsis
}

// IssueStats parses the first line carrying issue counters. A missing line, or one where every
// counter is zero, yields "see report" and LOW.
func IssueStats(text string) (string, models.Severity) {
	for _, line := range strings.Split(text, "\n") {
		matches := regex.IssueCount.FindAllStringSubmatch(line, -1)
		if len(matches) == 0 {
			continue
		}

		var high, medium, low int
		for _, m := range matches {
			switch {
			case m[1] != "":
				high, _ = strconv.Atoi(m[1])
			case m[2] != "":
				medium, _ = strconv.Atoi(m[2])
			case m[3] != "":
				low, _ = strconv.Atoi(m[3])
			}
		}

		if high+medium+low == 0 {
			return statsUnknown, models.SeverityLow
		}

		stats := fmt.Sprintf("High:%d Medium:%d Low:%d", high, medium, low)
		if high > 0 {
			return stats, models.SeverityHigh
		}
		return stats, models.SeverityMedium
	}
	return statsUnknown, models.SeverityLow
}
