package models

import "time"

// Severity ranks a review by the most serious issue it reports.
type Severity string

const (
	SeverityHigh   Severity = "HIGH"
	SeverityMedium Severity = "MEDIUM"
	SeverityLow    Severity = "LOW"
)

// Metadata keys always present on a NotificationMessage.
const (
	MetaCommitMessage = "commitMessage"
	MetaAuthorName    = "authorName"
	MetaIssueStats    = "issueStats"
	MetaCompletedAt   = "completedAt"
	MetaCommitHash    = "commitHash"
	MetaReportPath    = "reportPath"
)

// NotificationMessage is the channel-agnostic payload handed to every Notifier.
type NotificationMessage struct {
	Title    string
	Content  string
	Summary  string
	LinkURL  *string
	Severity Severity
	Metadata map[string]string
	// Timestamp is copied from the outcome, never read from a clock.
	Timestamp time.Time
}

// Link returns the link URL or "".
func (m NotificationMessage) Link() string {
	if m.LinkURL == nil {
		return ""
	}
	return *m.LinkURL
}
