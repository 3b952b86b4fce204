package github

import (
	"context"

	"github.com/google/go-github/v80/github"
	"github.com/stretchr/testify/mock"
)

type MockRepoService struct {
	mock.Mock
}

func (m *MockRepoService) GetContents(ctx context.Context, owner, repo, path string, opts *github.RepositoryContentGetOptions) (*github.RepositoryContent, []*github.RepositoryContent, *github.Response, error) {
	args := m.Called(ctx, owner, repo, path, opts)
	var file *github.RepositoryContent
	if args.Get(0) != nil {
		file = args.Get(0).(*github.RepositoryContent)
	}
	var dir []*github.RepositoryContent
	if args.Get(1) != nil {
		dir = args.Get(1).([]*github.RepositoryContent)
	}
	var resp *github.Response
	if args.Get(2) != nil {
		resp = args.Get(2).(*github.Response)
	}
	return file, dir, resp, args.Error(3)
}

func (m *MockRepoService) CreateFile(ctx context.Context, owner, repo, path string, opts *github.RepositoryContentFileOptions) (*github.RepositoryContentResponse, *github.Response, error) {
	args := m.Called(ctx, owner, repo, path, opts)
	return contentResponse(args)
}

func (m *MockRepoService) UpdateFile(ctx context.Context, owner, repo, path string, opts *github.RepositoryContentFileOptions) (*github.RepositoryContentResponse, *github.Response, error) {
	args := m.Called(ctx, owner, repo, path, opts)
	return contentResponse(args)
}

func (m *MockRepoService) CreateComment(ctx context.Context, owner, repo, sha string, comment *github.RepositoryComment) (*github.RepositoryComment, *github.Response, error) {
	args := m.Called(ctx, owner, repo, sha, comment)
	var c *github.RepositoryComment
	if args.Get(0) != nil {
		c = args.Get(0).(*github.RepositoryComment)
	}
	var resp *github.Response
	if args.Get(1) != nil {
		resp = args.Get(1).(*github.Response)
	}
	return c, resp, args.Error(2)
}

func contentResponse(args mock.Arguments) (*github.RepositoryContentResponse, *github.Response, error) {
	var c *github.RepositoryContentResponse
	if args.Get(0) != nil {
		c = args.Get(0).(*github.RepositoryContentResponse)
	}
	var resp *github.Response
	if args.Get(1) != nil {
		resp = args.Get(1).(*github.Response)
	}
	return c, resp, args.Error(2)
}
