package services

import (
	"context"

	"github.com/stretchr/testify/mock"
	"github.com/thomas-vilte/matereview/internal/models"
)

type MockChangeSource struct {
	mock.Mock
}

func (m *MockChangeSource) GetLatestDiff(ctx context.Context) (models.ChangeInfo, error) {
	args := m.Called(ctx)
	return args.Get(0).(models.ChangeInfo), args.Error(1)
}

type MockReviewer struct {
	mock.Mock
}

func (m *MockReviewer) Call(ctx context.Context, prompt string) (string, error) {
	args := m.Called(ctx, prompt)
	return args.String(0), args.Error(1)
}

type MockReportSink struct {
	mock.Mock
}

func (m *MockReportSink) Save(ctx context.Context, change models.ChangeInfo, reviewText string) (string, error) {
	args := m.Called(ctx, change, reviewText)
	return args.String(0), args.Error(1)
}
