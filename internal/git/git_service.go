package git

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/thomas-vilte/matereview/internal/errors"
	"github.com/thomas-vilte/matereview/internal/logger"
	"github.com/thomas-vilte/matereview/internal/models"
	"github.com/thomas-vilte/matereview/internal/regex"
)

const logFormat = "%H%x00%an%x00%ct%x00%B"

// GitService reads the latest change from a local repository through the git CLI.
type GitService struct {
	repoPath string
}

// NewGitService returns a service for the repository at repoPath; "" means the working directory.
func NewGitService(repoPath string) *GitService {
	return &GitService{repoPath: repoPath}
}

// GetLatestDiff returns HEAD's metadata and its diff against the commit that follows HEAD in
// `git rev-list` order. For a merge commit that is the most recent commit by date, not necessarily
// the first parent.
func (s *GitService) GetLatestDiff(ctx context.Context) (models.ChangeInfo, error) {
	out, err := s.run(ctx, "rev-list", "--max-count=2", "HEAD")
	if err != nil {
		if isMissingHead(err) {
			return models.ChangeInfo{}, errors.ErrInsufficientHistory.WithError(err)
		}
		return models.ChangeInfo{}, err
	}

	revs := strings.Fields(out)
	if len(revs) < 2 {
		return models.ChangeInfo{}, errors.ErrInsufficientHistory.WithContext("commits", len(revs))
	}
	head, parent := revs[0], revs[1]

	change, err := s.commitInfo(ctx, head)
	if err != nil {
		return models.ChangeInfo{}, err
	}

	diff, err := s.run(ctx, "diff", parent, head)
	if err != nil {
		return models.ChangeInfo{}, err
	}
	change.DiffText = diff

	logger.Debug(ctx, "latest diff loaded",
		"commit", change.ShortHash(),
		"parent", shortSHA(parent),
		"added", change.AddedLineCount(),
		"deleted", change.DeletedLineCount())

	return change, nil
}

func (s *GitService) commitInfo(ctx context.Context, rev string) (models.ChangeInfo, error) {
	out, err := s.run(ctx, "log", "-1", "--format="+logFormat, rev)
	if err != nil {
		return models.ChangeInfo{}, err
	}

	parts := strings.SplitN(out, "\x00", 4)
	if len(parts) < 4 {
		return models.ChangeInfo{}, errors.ErrGitOperationFailed.
			WithMessage("Unexpected git log output").
			WithContext("stderr", out)
	}

	hash := strings.TrimSpace(parts[0])
	return models.ChangeInfo{
		CommitHash:      &hash,
		AuthorName:      parts[1],
		CommitTimestamp: formatUnix(parts[2]),
		CommitMessage:   strings.TrimSpace(parts[3]),
	}, nil
}

// GetCurrentBranch returns the checked out branch, "" on a detached HEAD.
func (s *GitService) GetCurrentBranch(ctx context.Context) (string, error) {
	out, err := s.run(ctx, "branch", "--show-current")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

// GetRepoInfo returns the owner and name of the origin remote.
func (s *GitService) GetRepoInfo(ctx context.Context) (string, string, error) {
	out, err := s.run(ctx, "remote", "get-url", "origin")
	if err != nil {
		return "", "", err
	}
	return ParseRepoURL(strings.TrimSpace(out))
}

// ParseRepoURL extracts owner and repository name from an SSH or HTTP(S) remote URL.
func ParseRepoURL(url string) (string, string, error) {
	var matches []string
	if m := regex.SSHRepo.FindStringSubmatch(url); m != nil {
		matches = m
	} else if m := regex.HTTPSRepo.FindStringSubmatch(url); m != nil {
		matches = m
	}

	if len(matches) >= 4 {
		return matches[2], strings.TrimSuffix(matches[3], ".git"), nil
	}
	return "", "", errors.ErrConfigInvalid.WithMessage(fmt.Sprintf("Cannot extract owner/repo from %q", url))
}

func (s *GitService) run(ctx context.Context, args ...string) (string, error) {
	sub := args[0]
	if s.repoPath != "" {
		args = append([]string{"-C", s.repoPath}, args...)
	}

	cmd := exec.CommandContext(ctx, "git", args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", errors.ErrGitOperationFailed.
			WithError(fmt.Errorf("git %s: %w", sub, err)).
			WithContext("stderr", strings.TrimSpace(stderr.String()))
	}
	return stdout.String(), nil
}

// isMissingHead reports a repository without any commit, where HEAD cannot be resolved.
func isMissingHead(err error) bool {
	appErr, ok := err.(*errors.AppError)
	if !ok {
		return false
	}
	stderr, _ := appErr.Context["stderr"].(string)
	return strings.Contains(stderr, "ambiguous argument 'HEAD'") ||
		strings.Contains(stderr, "unknown revision") ||
		strings.Contains(stderr, "does not have any commits")
}

func formatUnix(raw string) string {
	sec, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return strings.TrimSpace(raw)
	}
	return time.Unix(sec, 0).UTC().Format(time.RFC3339)
}

func shortSHA(sha string) string {
	if len(sha) > 7 {
		return sha[:7]
	}
	return sha
}
