package mocks

import (
	"context"

	"filerelay/internal/provider"

	"github.com/stretchr/testify/mock"
)

type MockProvider struct {
	mock.Mock
}

func (m *MockProvider) Upload(ctx context.Context, data []byte, fileName, folder string) (provider.Result, error) {
	args := m.Called(ctx, data, fileName, folder)
	return args.Get(0).(provider.Result), args.Error(1)
}
