package github

import (
	"context"
	"errors"
	"net/http"

	"github.com/google/go-github/v80/github"
	"golang.org/x/oauth2"
)

const (
	botName  = "Code Review Bot"
	botEmail = "code-review@bot.com"
)

// RepositoriesService is the part of the go-github repositories API the adapters use.
type RepositoriesService interface {
	GetContents(ctx context.Context, owner, repo, path string, opts *github.RepositoryContentGetOptions) (*github.RepositoryContent, []*github.RepositoryContent, *github.Response, error)
	CreateFile(ctx context.Context, owner, repo, path string, opts *github.RepositoryContentFileOptions) (*github.RepositoryContentResponse, *github.Response, error)
	UpdateFile(ctx context.Context, owner, repo, path string, opts *github.RepositoryContentFileOptions) (*github.RepositoryContentResponse, *github.Response, error)
	CreateComment(ctx context.Context, owner, repo, sha string, comment *github.RepositoryComment) (*github.RepositoryComment, *github.Response, error)
}

type GitHubClient struct {
	repoService RepositoriesService
	owner       string
	repo        string
}

func NewGitHubClient(owner, repo, token string) *GitHubClient {
	var httpClient *http.Client
	if token != "" {
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
		httpClient = oauth2.NewClient(context.Background(), ts)
	}

	client := github.NewClient(httpClient)
	return NewGitHubClientWithServices(client.Repositories, owner, repo)
}

func NewGitHubClientWithServices(repoService RepositoriesService, owner, repo string) *GitHubClient {
	return &GitHubClient{
		repoService: repoService,
		owner:       owner,
		repo:        repo,
	}
}

func (ghc *GitHubClient) Owner() string { return ghc.owner }
func (ghc *GitHubClient) Repo() string  { return ghc.repo }

func isNotFound(resp *github.Response, err error) bool {
	if resp != nil && resp.StatusCode == http.StatusNotFound {
		return true
	}
	var ghErr *github.ErrorResponse
	if errors.As(err, &ghErr) && ghErr.Response != nil {
		return ghErr.Response.StatusCode == http.StatusNotFound
	}
	return false
}
