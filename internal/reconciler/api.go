package reconciler

import (
	"context"
	"errors"
	"io"
	"time"
)

// ErrUnauthenticated is returned by DocumentsAPI implementations when the
// server rejects the call with a 401.
var ErrUnauthenticated = errors.New("no autenticado")

// RemoteDocument mirrors the server's document JSON.
type RemoteDocument struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Type      string    `json:"type"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
	FileURL   string    `json:"fileUrl"`
}

// DocumentsAPI is the remote surface the reconciler drives. The HTTP
// implementation lives in this package; tests substitute mocks.
type DocumentsAPI interface {
	// ListDocuments fetches the authoritative document list.
	ListDocuments(ctx context.Context) ([]RemoteDocument, error)
	// SignDocument uploads the signed replacement for one document and
	// returns the resulting record.
	SignDocument(ctx context.Context, id, filename string, content io.Reader) (RemoteDocument, error)
	// DeleteDocument removes one document.
	DeleteDocument(ctx context.Context, id string) error
	// FetchFile downloads a signed URL's content.
	FetchFile(ctx context.Context, url string) ([]byte, error)
}

// Converter turns DOCX bytes into display-safe HTML. The conversion engine
// is an external collaborator; implementations are expected to sanitize
// their output (no scripts, no event handlers, no javascript: links).
type Converter interface {
	ConvertToHTML(ctx context.Context, docx []byte) (string, error)
}

// Renderer receives reconciler state changes. Implementations draw the UI;
// the reconciler never decides how anything looks.
type Renderer interface {
	// Render is called with a snapshot of the document list and the
	// active document id ("" when none).
	Render(docs []Document, activeID string)
	// ShowLogin switches to the logged-out view.
	ShowLogin()
	// Notify surfaces a recoverable, user-visible message.
	Notify(message string)
}
