package mocks

import (
	"context"

	"filerelay/internal/client"
	"filerelay/internal/model"

	"github.com/stretchr/testify/mock"
)

// MockUploader records uploads. It honours the Uploader contract by closing
// events before returning.
type MockUploader struct {
	mock.Mock
}

func (m *MockUploader) Upload(ctx context.Context, f *client.File, events chan<- client.ProgressEvent) (*model.UploadResult, error) {
	defer func() {
		if events != nil {
			close(events)
		}
	}()
	args := m.Called(ctx, f)
	if events != nil && f.Size > 0 {
		events <- client.ProgressEvent{Loaded: f.Size, Total: f.Size}
	}
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.UploadResult), args.Error(1)
}

type MockClipboard struct {
	mock.Mock
}

func (m *MockClipboard) WriteAll(text string) error {
	args := m.Called(text)
	return args.Error(0)
}
