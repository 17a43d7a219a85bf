package mocks

import (
	"context"

	"ebandeja/internal/model"
	"ebandeja/internal/service"

	"github.com/stretchr/testify/mock"
)

type MockDocumentService struct {
	mock.Mock
}

func (m *MockDocumentService) List(ctx context.Context) ([]model.Document, error) {
	args := m.Called(ctx)
	docs, _ := args.Get(0).([]model.Document)
	return docs, args.Error(1)
}

func (m *MockDocumentService) Create(ctx context.Context, up service.Upload) (*model.Document, error) {
	args := m.Called(ctx, up)
	doc, _ := args.Get(0).(*model.Document)
	return doc, args.Error(1)
}

func (m *MockDocumentService) Sign(ctx context.Context, id string, up service.Upload) (*model.Document, error) {
	args := m.Called(ctx, id, up)
	doc, _ := args.Get(0).(*model.Document)
	return doc, args.Error(1)
}

func (m *MockDocumentService) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}
