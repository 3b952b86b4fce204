package notify

import (
	"context"

	"github.com/stretchr/testify/mock"
	"github.com/thomas-vilte/matereview/internal/models"
)

type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) Name() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockNotifier) IsEnabled() bool {
	args := m.Called()
	return args.Bool(0)
}

func (m *MockNotifier) Send(ctx context.Context, msg models.NotificationMessage) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}
