package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/google/uuid"

	"ebandeja/internal/model"
	"ebandeja/internal/storage"
)

const (
	// FileURLTTL is the lifetime of the signed download URL minted for
	// every listed document.
	FileURLTTL = 24 * time.Hour
	// MaxFileSize is the hard cap on uploaded files. A file of exactly
	// this size is accepted; one byte more is rejected.
	MaxFileSize = 20 << 20

	folderPending = "pending"
	folderSigned  = "signed"
)

// Validation and lookup failures surfaced to users. Messages are the
// user-facing Spanish texts; handlers map them to HTTP statuses.
var (
	ErrInvalidID    = errors.New("identificador de documento invalido")
	ErrNotFound     = errors.New("documento no encontrado")
	ErrFileRequired = errors.New("no se recibio ningun archivo")
	ErrInvalidType  = errors.New("formato invalido, solo se permiten PDF y DOCX")
	ErrInvalidMIME  = errors.New("tipo MIME no permitido para este archivo")
	ErrEmptyFile    = errors.New("el archivo recibido esta vacio")
	ErrTooLarge     = errors.New("el archivo supera el tamano maximo permitido (20MB)")
)

// Upload describes an incoming file. Size must be the exact byte count.
type Upload struct {
	Reader      io.Reader
	Filename    string
	ContentType string
	Size        int64
}

// DocumentService defines the use cases for the document inbox. There is no
// database behind it: the object-store listing under pending/ and signed/ is
// the authoritative catalog, and document identity is encoded in object keys.
type DocumentService interface {
	// List returns every document, newest first, each carrying a fresh
	// signed download URL.
	List(ctx context.Context) ([]model.Document, error)

	// Create validates and stores a new draft under pending/ and returns
	// it with status Pendiente.
	Create(ctx context.Context, up Upload) (*model.Document, error)

	// Sign attaches the signed replacement for an existing document,
	// removes the superseded objects, and returns the document with
	// status Firmado.
	Sign(ctx context.Context, id string, up Upload) (*model.Document, error)

	// Delete removes every object belonging to the document.
	Delete(ctx context.Context, id string) error
}

type documentService struct {
	store storage.Storage
	now   func() time.Time
}

// NewDocumentService constructs a DocumentService on top of an object store.
func NewDocumentService(store storage.Storage) DocumentService {
	return &documentService{store: store, now: time.Now}
}

// record is the merged per-id view of the pending/ and signed/ folders.
type record struct {
	id          string
	name        string
	typ         string
	status      string
	createdAt   time.Time
	pendingPath string
	signedPath  string
	currentPath string
}

func (s *documentService) List(ctx context.Context) ([]model.Document, error) {
	records, err := s.listRecords(ctx)
	if err != nil {
		return nil, err
	}

	docs := make([]model.Document, 0, len(records))
	for _, rec := range records {
		doc, err := s.toDocument(ctx, rec)
		if err != nil {
			return nil, err
		}
		docs = append(docs, *doc)
	}
	return docs, nil
}

func (s *documentService) Create(ctx context.Context, up Upload) (*model.Document, error) {
	ext, err := validateUpload(up)
	if err != nil {
		return nil, err
	}

	id := uuid.NewString()
	name := sanitizeFileName(up.Filename, ext)
	key := buildKey(folderPending, id, name)

	if err := s.putObject(ctx, key, up); err != nil {
		return nil, err
	}

	return s.toDocument(ctx, record{
		id:          id,
		name:        name,
		typ:         ext,
		status:      model.StatusPending,
		createdAt:   s.now().UTC(),
		pendingPath: key,
		currentPath: key,
	})
}

func (s *documentService) Sign(ctx context.Context, id string, up Upload) (*model.Document, error) {
	if !validDocumentID(id) {
		return nil, ErrInvalidID
	}

	existing, err := s.findRecord(ctx, id)
	if err != nil {
		return nil, err
	}

	ext, err := validateUpload(up)
	if err != nil {
		return nil, err
	}

	name := sanitizeFileName(up.Filename, ext)
	signedKey := buildKey(folderSigned, id, name)

	if err := s.putObject(ctx, signedKey, up); err != nil {
		return nil, err
	}

	// Drop the superseded draft and any previously signed object.
	stale := []string{existing.pendingPath}
	if existing.signedPath != signedKey {
		stale = append(stale, existing.signedPath)
	}
	if err := s.removeObjects(ctx, stale); err != nil {
		return nil, err
	}

	return s.toDocument(ctx, record{
		id:          id,
		name:        name,
		typ:         ext,
		status:      model.StatusSigned,
		createdAt:   s.now().UTC(),
		signedPath:  signedKey,
		currentPath: signedKey,
	})
}

func (s *documentService) Delete(ctx context.Context, id string) error {
	if !validDocumentID(id) {
		return ErrInvalidID
	}

	existing, err := s.findRecord(ctx, id)
	if err != nil {
		return err
	}

	return s.removeObjects(ctx, []string{
		existing.pendingPath,
		existing.signedPath,
		existing.currentPath,
	})
}

// listRecords merges both folders by id. A signed object wins over a pending
// one carrying the same id. Newest first.
func (s *documentService) listRecords(ctx context.Context) ([]record, error) {
	pending, err := s.listFolder(ctx, folderPending)
	if err != nil {
		return nil, err
	}
	signed, err := s.listFolder(ctx, folderSigned)
	if err != nil {
		return nil, err
	}

	byID := make(map[string]*record)
	order := make([]string, 0, len(pending)+len(signed))

	for _, e := range pending {
		if _, ok := byID[e.id]; !ok {
			order = append(order, e.id)
		}
		byID[e.id] = &record{
			id:          e.id,
			name:        e.name,
			typ:         e.typ,
			status:      model.StatusPending,
			createdAt:   e.createdAt,
			pendingPath: e.path,
			currentPath: e.path,
		}
	}
	for _, e := range signed {
		rec, ok := byID[e.id]
		if !ok {
			order = append(order, e.id)
			rec = &record{id: e.id}
			byID[e.id] = rec
		}
		rec.name = e.name
		rec.typ = e.typ
		rec.status = model.StatusSigned
		rec.createdAt = e.createdAt
		rec.signedPath = e.path
		rec.currentPath = e.path
	}

	records := make([]record, 0, len(order))
	for _, id := range order {
		records = append(records, *byID[id])
	}
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].createdAt.After(records[j].createdAt)
	})
	return records, nil
}

// listFolder parses a folder listing into entries, skipping keys that do not
// follow the <id>__<encoded name> convention.
func (s *documentService) listFolder(ctx context.Context, folder string) ([]keyEntry, error) {
	infos, err := s.store.List(ctx, folder+"/")
	if err != nil {
		return nil, fmt.Errorf("list %s folder: %w", folder, err)
	}

	entries := make([]keyEntry, 0, len(infos))
	for _, info := range infos {
		if e, ok := parseKey(folder, info); ok {
			entries = append(entries, e)
		}
	}
	return entries, nil
}

func (s *documentService) findRecord(ctx context.Context, id string) (*record, error) {
	records, err := s.listRecords(ctx)
	if err != nil {
		return nil, err
	}
	for i := range records {
		if records[i].id == id {
			return &records[i], nil
		}
	}
	return nil, ErrNotFound
}

func (s *documentService) putObject(ctx context.Context, key string, up Upload) error {
	_, err := s.store.Put(ctx, key, up.Reader, storage.PutObjectOptions{
		Size:        up.Size,
		ContentType: up.ContentType,
		Metadata: map[string]string{
			"original-filename": up.Filename,
		},
	})
	if err != nil {
		return fmt.Errorf("upload to storage: %w", err)
	}
	return nil
}

func (s *documentService) removeObjects(ctx context.Context, keys []string) error {
	seen := make(map[string]bool, len(keys))
	for _, key := range keys {
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		if err := s.store.Delete(ctx, key); err != nil {
			return fmt.Errorf("delete from storage: %w", err)
		}
	}
	return nil
}

func (s *documentService) toDocument(ctx context.Context, rec record) (*model.Document, error) {
	fileURL, err := s.store.PresignGet(ctx, rec.currentPath, FileURLTTL)
	if err != nil {
		return nil, fmt.Errorf("presign file url: %w", err)
	}
	return &model.Document{
		ID:        rec.id,
		Name:      rec.name,
		Type:      rec.typ,
		Status:    rec.status,
		CreatedAt: rec.createdAt,
		FileURL:   fileURL,
	}, nil
}
