package ai

import (
	"context"

	"github.com/stretchr/testify/mock"
	"github.com/thomas-vilte/matereview/internal/models"
)

type MockReviewBackend struct {
	mock.Mock
}

func (m *MockReviewBackend) Send(ctx context.Context, payload models.CompletionPayload) (models.BackendResponse, error) {
	args := m.Called(ctx, payload)
	return args.Get(0).(models.BackendResponse), args.Error(1)
}

func (m *MockReviewBackend) Endpoint() string {
	args := m.Called()
	return args.String(0)
}
