package github

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/go-github/v80/github"
	"github.com/thomas-vilte/matereview/internal/errors"
	"github.com/thomas-vilte/matereview/internal/logger"
	"github.com/thomas-vilte/matereview/internal/models"
	"github.com/thomas-vilte/matereview/internal/report"
)

// ReportSink stores review reports in a GitHub repository through the contents API.
type ReportSink struct {
	client  *GitHubClient
	baseDir string
	branch  string
	now     func() time.Time
}

func NewReportSink(client *GitHubClient, baseDir, branch string) *ReportSink {
	return &ReportSink{client: client, baseDir: baseDir, branch: branch, now: time.Now}
}

// Save creates the report file, or updates it when one already exists at the same path.
func (s *ReportSink) Save(ctx context.Context, change models.ChangeInfo, reviewText string) (string, error) {
	reviewedAt := s.now()
	path := report.Path(s.baseDir, change, reviewedAt)

	opts := &github.RepositoryContentFileOptions{
		Message:   github.Ptr(commitMessage(change)),
		Content:   []byte(report.Render(change, reviewText, reviewedAt)),
		Committer: &github.CommitAuthor{Name: github.Ptr(botName), Email: github.Ptr(botEmail)},
	}
	if s.branch != "" {
		opts.Branch = github.Ptr(s.branch)
	}

	sha, err := s.existingSHA(ctx, path)
	if err != nil {
		return "", errors.ErrReportPersistFailed.WithError(err).WithContext("path", path)
	}

	c := s.client
	if sha == "" {
		_, _, err = c.repoService.CreateFile(ctx, c.owner, c.repo, path, opts)
	} else {
		opts.SHA = github.Ptr(sha)
		_, _, err = c.repoService.UpdateFile(ctx, c.owner, c.repo, path, opts)
	}
	if err != nil {
		return "", errors.ErrReportPersistFailed.WithError(err).WithContext("path", path)
	}

	logger.Info(ctx, "report pushed", "repo", c.owner+"/"+c.repo, "path", path, "updated", sha != "")
	return path, nil
}

func (s *ReportSink) existingSHA(ctx context.Context, path string) (string, error) {
	var opts *github.RepositoryContentGetOptions
	if s.branch != "" {
		opts = &github.RepositoryContentGetOptions{Ref: s.branch}
	}

	file, _, resp, err := s.client.repoService.GetContents(ctx, s.client.owner, s.client.repo, path, opts)
	if err != nil {
		if isNotFound(resp, err) {
			return "", nil
		}
		return "", fmt.Errorf("checking existing report: %w", err)
	}
	if file == nil {
		return "", fmt.Errorf("report path %s is a directory", path)
	}
	return file.GetSHA(), nil
}

func commitMessage(change models.ChangeInfo) string {
	subject, _, _ := strings.Cut(strings.TrimSpace(change.CommitMessage), "\n")
	return fmt.Sprintf("Add code review report: %s - %s", subject, change.AuthorName)
}
