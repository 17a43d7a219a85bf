package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"ebandeja/internal/model"
	"ebandeja/internal/storage"
	storeMocks "ebandeja/internal/storage/mocks"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const (
	pendingID = "11111111-aaaa-bbbb-cccc-000000000001"
	signedID  = "22222222-aaaa-bbbb-cccc-000000000002"
)

func pendingKey(id, name string) string { return buildKey(folderPending, id, name) }
func signedKey(id, name string) string  { return buildKey(folderSigned, id, name) }

func TestList(t *testing.T) {
	ctx := context.Background()
	older := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	newer := older.Add(time.Hour)

	t.Run("merges folders and sorts newest first", func(t *testing.T) {
		mStore := new(storeMocks.MockStorage)
		mStore.On("List", ctx, "pending/").Return([]storage.ObjectInfo{
			{Key: pendingKey(pendingID, "draft.pdf"), LastModified: older},
			{Key: "pending/garbage-without-separator.pdf"},
		}, nil)
		mStore.On("List", ctx, "signed/").Return([]storage.ObjectInfo{
			{Key: signedKey(signedID, "contrato.docx"), LastModified: newer},
		}, nil)
		mStore.On("PresignGet", ctx, mock.Anything, FileURLTTL).
			Return("https://storage.local/signed-url", nil)

		svc := NewDocumentService(mStore)
		docs, err := svc.List(ctx)
		require.NoError(t, err)
		require.Len(t, docs, 2)

		assert.Equal(t, signedID, docs[0].ID)
		assert.Equal(t, model.StatusSigned, docs[0].Status)
		assert.Equal(t, "contrato.docx", docs[0].Name)
		assert.Equal(t, "docx", docs[0].Type)

		assert.Equal(t, pendingID, docs[1].ID)
		assert.Equal(t, model.StatusPending, docs[1].Status)
		assert.Equal(t, "https://storage.local/signed-url", docs[1].FileURL)
		mStore.AssertExpectations(t)
	})

	t.Run("signed object wins over pending with the same id", func(t *testing.T) {
		mStore := new(storeMocks.MockStorage)
		mStore.On("List", ctx, "pending/").Return([]storage.ObjectInfo{
			{Key: pendingKey(pendingID, "draft.pdf"), LastModified: older},
		}, nil)
		mStore.On("List", ctx, "signed/").Return([]storage.ObjectInfo{
			{Key: signedKey(pendingID, "FIRMADO draft.pdf"), LastModified: newer},
		}, nil)
		mStore.On("PresignGet", ctx, signedKey(pendingID, "FIRMADO draft.pdf"), FileURLTTL).
			Return("https://storage.local/firmado", nil)

		svc := NewDocumentService(mStore)
		docs, err := svc.List(ctx)
		require.NoError(t, err)
		require.Len(t, docs, 1)
		assert.Equal(t, model.StatusSigned, docs[0].Status)
		assert.Equal(t, "FIRMADO draft.pdf", docs[0].Name)
		mStore.AssertExpectations(t)
	})

	t.Run("storage failure is wrapped", func(t *testing.T) {
		mStore := new(storeMocks.MockStorage)
		mStore.On("List", ctx, "pending/").Return(nil, errors.New("minio down"))

		svc := NewDocumentService(mStore)
		_, err := svc.List(ctx)
		assert.ErrorContains(t, err, "list pending folder")
	})
}

func TestCreate(t *testing.T) {
	ctx := context.Background()

	t.Run("happy path", func(t *testing.T) {
		mStore := new(storeMocks.MockStorage)
		mStore.On("Put", ctx, mock.MatchedBy(func(key string) bool {
			return strings.HasPrefix(key, "pending/") && strings.HasSuffix(key, "__draft.pdf")
		}), mock.Anything, storage.PutObjectOptions{
			Size:        11,
			ContentType: "application/pdf",
			Metadata:    map[string]string{"original-filename": "draft.pdf"},
		}).Return(storage.ObjectInfo{}, nil)
		mStore.On("PresignGet", ctx, mock.Anything, FileURLTTL).
			Return("https://storage.local/url", nil)

		svc := NewDocumentService(mStore)
		doc, err := svc.Create(ctx, Upload{
			Reader:      strings.NewReader("hello world"),
			Filename:    "draft.pdf",
			ContentType: "application/pdf",
			Size:        11,
		})
		require.NoError(t, err)
		assert.NotEmpty(t, doc.ID)
		assert.Equal(t, "draft.pdf", doc.Name)
		assert.Equal(t, "pdf", doc.Type)
		assert.Equal(t, model.StatusPending, doc.Status)
		assert.Equal(t, "https://storage.local/url", doc.FileURL)
		mStore.AssertExpectations(t)
	})

	t.Run("rejected file never touches storage", func(t *testing.T) {
		mStore := new(storeMocks.MockStorage)

		svc := NewDocumentService(mStore)
		_, err := svc.Create(ctx, Upload{
			Reader:   strings.NewReader("hello"),
			Filename: "notes.txt",
			Size:     5,
		})
		assert.ErrorIs(t, err, ErrInvalidType)
		mStore.AssertNotCalled(t, "Put")
	})

	t.Run("storage error is wrapped", func(t *testing.T) {
		mStore := new(storeMocks.MockStorage)
		mStore.On("Put", ctx, mock.Anything, mock.Anything, mock.Anything).
			Return(storage.ObjectInfo{}, errors.New("put failed"))

		svc := NewDocumentService(mStore)
		_, err := svc.Create(ctx, Upload{
			Reader:      strings.NewReader("hello"),
			Filename:    "draft.pdf",
			ContentType: "application/pdf",
			Size:        5,
		})
		assert.ErrorContains(t, err, "upload to storage")
	})
}

func TestSign(t *testing.T) {
	ctx := context.Background()
	created := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

	draftKey := pendingKey(pendingID, "draft.pdf")

	setupListing := func(mStore *storeMocks.MockStorage) {
		mStore.On("List", ctx, "pending/").Return([]storage.ObjectInfo{
			{Key: draftKey, LastModified: created},
		}, nil)
		mStore.On("List", ctx, "signed/").Return([]storage.ObjectInfo(nil), nil)
	}

	t.Run("happy path replaces the draft", func(t *testing.T) {
		mStore := new(storeMocks.MockStorage)
		setupListing(mStore)
		wantKey := signedKey(pendingID, "firmado.pdf")
		mStore.On("Put", ctx, wantKey, mock.Anything, mock.Anything).
			Return(storage.ObjectInfo{}, nil)
		mStore.On("Delete", ctx, draftKey).Return(nil)
		mStore.On("PresignGet", ctx, wantKey, FileURLTTL).
			Return("https://storage.local/firmado", nil)

		svc := NewDocumentService(mStore)
		doc, err := svc.Sign(ctx, pendingID, Upload{
			Reader:      strings.NewReader("signed content"),
			Filename:    "firmado.pdf",
			ContentType: "application/pdf",
			Size:        14,
		})
		require.NoError(t, err)
		assert.Equal(t, pendingID, doc.ID)
		assert.Equal(t, model.StatusSigned, doc.Status)
		assert.Equal(t, "firmado.pdf", doc.Name)
		mStore.AssertExpectations(t)
	})

	t.Run("invalid id", func(t *testing.T) {
		svc := NewDocumentService(new(storeMocks.MockStorage))
		_, err := svc.Sign(ctx, "nope", Upload{})
		assert.ErrorIs(t, err, ErrInvalidID)
	})

	t.Run("unknown id", func(t *testing.T) {
		mStore := new(storeMocks.MockStorage)
		setupListing(mStore)

		svc := NewDocumentService(mStore)
		_, err := svc.Sign(ctx, signedID, Upload{
			Reader:   strings.NewReader("x"),
			Filename: "firmado.pdf",
			Size:     1,
		})
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("invalid replacement leaves storage untouched", func(t *testing.T) {
		mStore := new(storeMocks.MockStorage)
		setupListing(mStore)

		svc := NewDocumentService(mStore)
		_, err := svc.Sign(ctx, pendingID, Upload{
			Reader:   strings.NewReader("x"),
			Filename: "firmado.txt",
			Size:     1,
		})
		assert.ErrorIs(t, err, ErrInvalidType)
		mStore.AssertNotCalled(t, "Put")
		mStore.AssertNotCalled(t, "Delete")
	})
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	created := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

	t.Run("removes every object of the document", func(t *testing.T) {
		mStore := new(storeMocks.MockStorage)
		draftKey := pendingKey(pendingID, "draft.pdf")
		mStore.On("List", ctx, "pending/").Return([]storage.ObjectInfo{
			{Key: draftKey, LastModified: created},
		}, nil)
		mStore.On("List", ctx, "signed/").Return([]storage.ObjectInfo(nil), nil)
		// currentPath duplicates pendingPath; the delete must be deduplicated.
		mStore.On("Delete", ctx, draftKey).Return(nil).Once()

		svc := NewDocumentService(mStore)
		require.NoError(t, svc.Delete(ctx, pendingID))
		mStore.AssertExpectations(t)
	})

	t.Run("invalid id", func(t *testing.T) {
		svc := NewDocumentService(new(storeMocks.MockStorage))
		assert.ErrorIs(t, svc.Delete(ctx, "x"), ErrInvalidID)
	})

	t.Run("unknown id", func(t *testing.T) {
		mStore := new(storeMocks.MockStorage)
		mStore.On("List", ctx, "pending/").Return([]storage.ObjectInfo(nil), nil)
		mStore.On("List", ctx, "signed/").Return([]storage.ObjectInfo(nil), nil)

		svc := NewDocumentService(mStore)
		assert.ErrorIs(t, svc.Delete(ctx, pendingID), ErrNotFound)
	})
}
