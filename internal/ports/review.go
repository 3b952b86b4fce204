package ports

import (
	"context"

	"github.com/thomas-vilte/matereview/internal/models"
)

// ChangeSource supplies the latest change to review.
type ChangeSource interface {
	// GetLatestDiff returns the diff of the newest commit against its parent.
	// It fails with errors.ErrInsufficientHistory when fewer than two revisions exist.
	GetLatestDiff(ctx context.Context) (models.ChangeInfo, error)
}

// ReportSink persists a review report.
type ReportSink interface {
	// Save stores the report and returns its location, or "" when the sink has no stable address.
	Save(ctx context.Context, change models.ChangeInfo, reviewText string) (string, error)
}

// Notifier delivers a message to one channel.
type Notifier interface {
	Name() string
	IsEnabled() bool
	Send(ctx context.Context, msg models.NotificationMessage) error
}
