package reconciler

import (
	"context"
	"io"

	"github.com/stretchr/testify/mock"
)

type MockDocumentsAPI struct {
	mock.Mock
}

func (m *MockDocumentsAPI) ListDocuments(ctx context.Context) ([]RemoteDocument, error) {
	args := m.Called(ctx)
	docs, _ := args.Get(0).([]RemoteDocument)
	return docs, args.Error(1)
}

func (m *MockDocumentsAPI) SignDocument(ctx context.Context, id, filename string, content io.Reader) (RemoteDocument, error) {
	args := m.Called(ctx, id, filename, content)
	return args.Get(0).(RemoteDocument), args.Error(1)
}

func (m *MockDocumentsAPI) DeleteDocument(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockDocumentsAPI) FetchFile(ctx context.Context, url string) ([]byte, error) {
	args := m.Called(ctx, url)
	data, _ := args.Get(0).([]byte)
	return data, args.Error(1)
}

type MockConverter struct {
	mock.Mock
}

func (m *MockConverter) ConvertToHTML(ctx context.Context, docx []byte) (string, error) {
	args := m.Called(ctx, docx)
	return args.String(0), args.Error(1)
}
