package mocks

import (
	"context"

	"imgbed/internal/model"
	"imgbed/internal/service"

	"github.com/stretchr/testify/mock"
)

type MockUploadService struct {
	mock.Mock
}

func (m *MockUploadService) Process(ctx context.Context, files []service.LocalFile, urls []string) ([]model.UploadResult, error) {
	args := m.Called(ctx, files, urls)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.UploadResult), args.Error(1)
}
