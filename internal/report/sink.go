package report

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/thomas-vilte/matereview/internal/errors"
	"github.com/thomas-vilte/matereview/internal/logger"
	"github.com/thomas-vilte/matereview/internal/models"
)

// LocalSink writes reports below Root and returns their path relative to it.
type LocalSink struct {
	Root    string
	BaseDir string
	now     func() time.Time
}

func NewLocalSink(root, baseDir string) *LocalSink {
	return &LocalSink{Root: root, BaseDir: baseDir, now: time.Now}
}

func (s *LocalSink) Save(ctx context.Context, change models.ChangeInfo, reviewText string) (string, error) {
	reviewedAt := s.now()
	rel := Path(s.BaseDir, change, reviewedAt)
	full := filepath.Join(s.Root, filepath.FromSlash(rel))

	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", errors.ErrReportPersistFailed.WithError(err).WithContext("path", rel)
	}
	if err := os.WriteFile(full, []byte(Render(change, reviewText, reviewedAt)), 0o644); err != nil {
		return "", errors.ErrReportPersistFailed.WithError(err).WithContext("path", rel)
	}

	logger.Info(ctx, "report written", "path", rel)
	return rel, nil
}

// NoneSink discards reports.
type NoneSink struct{}

func (NoneSink) Save(ctx context.Context, _ models.ChangeInfo, _ string) (string, error) {
	logger.Debug(ctx, "report persistence disabled")
	return "", nil
}
