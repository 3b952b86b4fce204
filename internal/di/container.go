package di

import (
	"context"
	"path/filepath"

	"github.com/thomas-vilte/matereview/internal/ai"
	"github.com/thomas-vilte/matereview/internal/ai/openai"
	"github.com/thomas-vilte/matereview/internal/cache"
	"github.com/thomas-vilte/matereview/internal/config"
	"github.com/thomas-vilte/matereview/internal/errors"
	"github.com/thomas-vilte/matereview/internal/git"
	"github.com/thomas-vilte/matereview/internal/logger"
	"github.com/thomas-vilte/matereview/internal/notify"
	"github.com/thomas-vilte/matereview/internal/ports"
	"github.com/thomas-vilte/matereview/internal/report"
	"github.com/thomas-vilte/matereview/internal/services"
	"github.com/thomas-vilte/matereview/internal/vcs/github"
)

// Container builds the review collaborators from a validated configuration.
type Container struct {
	config *config.Config

	// Lazily initialized
	gitService *git.GitService
	reviewer   ports.Reviewer
	sink       ports.ReportSink
	notifiers  []ports.Notifier
	github     *github.GitHubClient
}

func NewContainer(cfg *config.Config) *Container {
	return &Container{config: cfg}
}

func (c *Container) GetGitService() *git.GitService {
	if c.gitService == nil {
		c.gitService = git.NewGitService(c.config.RepoPath)
	}
	return c.gitService
}

// GetReviewer returns the retrying review client, wrapped by the review cache when enabled.
func (c *Container) GetReviewer(ctx context.Context) ports.Reviewer {
	if c.reviewer != nil {
		return c.reviewer
	}

	aiCfg := c.config.AI
	backend := openai.NewBackend(openai.Options{
		APIKey:         aiCfg.APIKey,
		Endpoint:       aiCfg.APIURL,
		ConnectTimeout: aiCfg.ConnectTimeout,
		ReadTimeout:    aiCfg.ReadTimeout,
	})

	var reviewer ports.Reviewer = ai.NewRetryingClient(backend, ai.ClientOptions{
		Model:       aiCfg.Model,
		Temperature: aiCfg.Temperature,
		MaxTokens:   aiCfg.MaxTokens,
		RetryLimit:  aiCfg.RetryLimit,
		BaseDelay:   aiCfg.BaseDelay,
	})

	if c.config.Cache.Enabled {
		store, err := cache.NewCache(c.config.Cache.Dir, c.config.Cache.TTL)
		if err != nil {
			// A broken cache must not block the review.
			logger.Warn(ctx, "review cache disabled", "error", err)
		} else {
			logger.Debug(ctx, "review cache enabled", "dir", store.Dir())
			reviewer = cache.NewReviewer(reviewer, store, aiCfg.Model)
		}
	}

	c.reviewer = reviewer
	return c.reviewer
}

// GetReportSink returns the sink selected by report.backend.
func (c *Container) GetReportSink() (ports.ReportSink, error) {
	if c.sink != nil {
		return c.sink, nil
	}

	rc := c.config.Report
	switch rc.Backend {
	case config.BackendLocal:
		root := c.config.RepoPath
		if root == "" {
			root = "."
		}
		if filepath.IsAbs(rc.Dir) {
			root = ""
		}
		c.sink = report.NewLocalSink(root, filepath.ToSlash(rc.Dir))
	case config.BackendGitHub:
		client, err := c.getGitHubClient()
		if err != nil {
			return nil, err
		}
		c.sink = github.NewReportSink(client, rc.Dir, rc.Branch)
	case config.BackendNone:
		c.sink = report.NoneSink{}
	default:
		return nil, errors.ErrConfigInvalid.WithMessage("unsupported report backend: " + rc.Backend)
	}
	return c.sink, nil
}

// GetNotifiers returns every configured notifier. Disabled ones are filtered by the fanout.
func (c *Container) GetNotifiers(ctx context.Context) []ports.Notifier {
	if c.notifiers != nil {
		return c.notifiers
	}

	nc := c.config.Notification
	owner, repo, branch := c.localRepository(ctx)
	repoName := ""
	if owner != "" && repo != "" {
		repoName = owner + "/" + repo
	}

	notifiers := []ports.Notifier{
		notify.NewWeChatNotifier(nc.WeChat, notify.WithWeChatRepository(repoName, branch)),
		notify.NewWebhookNotifier(nc.Webhook.URL, nc.Webhook.Enabled, nil),
	}
	if cc := nc.CommitComment; cc.Enabled {
		if cc.Owner == "" || cc.Repo == "" {
			cc.Owner, cc.Repo = owner, repo
		}
		client := github.NewGitHubClient(cc.Owner, cc.Repo, c.config.Report.Token)
		notifiers = append(notifiers, github.NewCommitCommentNotifier(client, true))
	}

	c.notifiers = notifiers
	return c.notifiers
}

// localRepository reads owner, name and branch from the reviewed checkout. Parts git cannot
// tell are returned empty.
func (c *Container) localRepository(ctx context.Context) (owner, repo, branch string) {
	gs := c.GetGitService()

	var err error
	if owner, repo, err = gs.GetRepoInfo(ctx); err != nil {
		logger.Debug(ctx, "origin remote unavailable", "error", err)
	}
	if branch, err = gs.GetCurrentBranch(ctx); err != nil {
		logger.Debug(ctx, "current branch unavailable", "error", err)
	}
	return owner, repo, branch
}

func (c *Container) GetBuilder() *notify.Builder {
	return notify.NewBuilder(c.config.ReportBaseURL(), c.config.Report.Branch)
}

// GetReviewPipeline assembles the pipeline. With notify false no notifier is attached.
func (c *Container) GetReviewPipeline(ctx context.Context, notifyEnabled bool, opts ...services.Option) (*services.ReviewPipeline, error) {
	sink, err := c.GetReportSink()
	if err != nil {
		return nil, err
	}

	var notifiers []ports.Notifier
	if notifyEnabled {
		notifiers = c.GetNotifiers(ctx)
	}

	opts = append([]services.Option{services.WithLanguage(c.config.Language)}, opts...)
	return services.NewReviewPipeline(c.GetGitService(), c.GetReviewer(ctx), sink, notifiers, c.GetBuilder(), opts...), nil
}

func (c *Container) getGitHubClient() (*github.GitHubClient, error) {
	if c.github != nil {
		return c.github, nil
	}
	owner, repo, err := git.ParseRepoURL(c.config.Report.RepoURL)
	if err != nil {
		return nil, err
	}
	c.github = github.NewGitHubClient(owner, repo, c.config.Report.Token)
	return c.github, nil
}
