package cache

import (
	"context"

	"github.com/stretchr/testify/mock"
)

type MockReviewer struct {
	mock.Mock
}

func (m *MockReviewer) Call(ctx context.Context, prompt string) (string, error) {
	args := m.Called(ctx, prompt)
	return args.String(0), args.Error(1)
}
