package github

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/go-github/v80/github"
	"github.com/thomas-vilte/matereview/internal/models"
	"github.com/thomas-vilte/matereview/internal/regex"
)

// CommitCommentNotifier posts the review summary as a comment on the reviewed commit.
type CommitCommentNotifier struct {
	client  *GitHubClient
	enabled bool
}

func NewCommitCommentNotifier(client *GitHubClient, enabled bool) *CommitCommentNotifier {
	return &CommitCommentNotifier{client: client, enabled: enabled}
}

func (n *CommitCommentNotifier) Name() string { return "commit_comment" }

func (n *CommitCommentNotifier) IsEnabled() bool {
	return n.enabled && n.client != nil && n.client.owner != "" && n.client.repo != ""
}

func (n *CommitCommentNotifier) Send(ctx context.Context, msg models.NotificationMessage) error {
	sha := msg.Metadata[models.MetaCommitHash]
	if !regex.CommitSHA.MatchString(sha) {
		return fmt.Errorf("commit comment needs a commit hash, got %q", sha)
	}

	comment := &github.RepositoryComment{Body: github.Ptr(CommentBody(msg))}
	if _, _, err := n.client.repoService.CreateComment(ctx, n.client.owner, n.client.repo, sha, comment); err != nil {
		return fmt.Errorf("creating commit comment on %s: %w", sha, err)
	}
	return nil
}

// CommentBody renders the markdown posted on the commit.
func CommentBody(msg models.NotificationMessage) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "### %s\n\n", msg.Title)
	if msg.Summary != "" {
		fmt.Fprintf(&sb, "%s\n\n", msg.Summary)
	}
	fmt.Fprintf(&sb, "| Severity | Issues |\n|----------|--------|\n| %s | %s |\n", msg.Severity, msg.Metadata[models.MetaIssueStats])
	if link := msg.Link(); link != "" {
		fmt.Fprintf(&sb, "\n[Full report](%s)\n", link)
	}
	return sb.String()
}
