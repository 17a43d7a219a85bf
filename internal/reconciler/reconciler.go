package reconciler

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"time"
)

const (
	statusPending = "Pendiente"
	statusSigned  = "Firmado"
	typeDocx      = "docx"
)

// Errors surfaced by reconciler operations. Everything is also reported to
// the Renderer, so callers may ignore the returns in fire-and-forget style.
var (
	ErrInvalidFileType  = errors.New("solo se permiten archivos PDF o DOCX")
	ErrNoActiveDocument = errors.New("no hay documento activo")
)

// Document is the local projection of a remote record plus transient preview
// state. The list is rebuilt from the server on every refresh; only the DOCX
// render cache survives, and only while name and status are unchanged.
type Document struct {
	ID     string
	Name   string
	Type   string
	Status string
	Date   time.Time
	URL    string

	DocxHTML       string
	PreviewError   string
	PreviewReady   bool
	PreviewLoading bool
}

// CanSign reports whether the sign action applies: only pending documents
// accept a replacement, Firmado is terminal.
func (d Document) CanSign() bool { return d.Status == statusPending }

// Signed reports whether the document reached its terminal state.
func (d Document) Signed() bool { return d.Status == statusSigned }

// Reconciler maps the server's authoritative document list onto local
// preview state and drives a Renderer. Operations are safe for concurrent
// use; DOCX conversion runs in background goroutines.
type Reconciler struct {
	api      DocumentsAPI
	convert  Converter
	renderer Renderer

	mu       sync.Mutex
	docs     []Document
	activeID string
	loading  bool

	previews sync.WaitGroup
}

// New creates a Reconciler. All three collaborators are required.
func New(api DocumentsAPI, convert Converter, renderer Renderer) *Reconciler {
	return &Reconciler{api: api, convert: convert, renderer: renderer}
}

// Wait blocks until in-flight background preview conversions are done.
// Mostly useful in tests and on shutdown.
func (r *Reconciler) Wait() {
	r.previews.Wait()
}

// LoadDocuments fetches the canonical list and replaces local state through
// the merge rule. Concurrent calls collapse to one: while a fetch is in
// flight, later calls are dropped, not queued. focusID, when present in the
// fresh list, becomes the active document; otherwise the previous active id
// is kept if still listed, else the first item.
func (r *Reconciler) LoadDocuments(ctx context.Context, focusID string) error {
	r.mu.Lock()
	if r.loading {
		r.mu.Unlock()
		return nil
	}
	r.loading = true
	r.mu.Unlock()

	remote, err := r.api.ListDocuments(ctx)

	r.mu.Lock()
	r.loading = false

	if errors.Is(err, ErrUnauthenticated) {
		r.docs = nil
		r.activeID = ""
		r.mu.Unlock()
		r.renderer.ShowLogin()
		return nil
	}
	if err != nil {
		r.mu.Unlock()
		r.renderer.Notify(err.Error())
		return err
	}

	r.docs = mergeDocuments(r.docs, remote)
	r.activeID = selectActive(r.docs, focusID, r.activeID)
	active := r.activeID
	r.mu.Unlock()

	r.render()
	if active != "" {
		r.ShowPreview(ctx, active)
	}
	return nil
}

// ShowPreview makes id the active document and resolves its preview: PDFs
// display directly from their URL; a DOCX without a cached render kicks off
// one background fetch-and-convert (repeated calls while it runs are
// deduplicated by the loading flag). An unknown id is ignored.
func (r *Reconciler) ShowPreview(ctx context.Context, id string) {
	r.mu.Lock()
	doc := r.find(id)
	if doc == nil {
		r.mu.Unlock()
		return
	}
	r.activeID = id

	needFetch := doc.Type == typeDocx && !doc.PreviewReady && !doc.PreviewLoading
	if needFetch {
		doc.PreviewLoading = true
	}
	url := doc.URL
	r.mu.Unlock()

	r.render()

	if needFetch {
		r.previews.Add(1)
		go func() {
			defer r.previews.Done()
			r.fetchPreview(ctx, id, url)
		}()
	}
}

// CompleteSigning uploads the replacement file for the active document and
// refreshes the list focused on the resulting record. The extension check
// runs before any network call; a server failure leaves state unchanged.
func (r *Reconciler) CompleteSigning(ctx context.Context, filename string, content io.Reader) error {
	r.mu.Lock()
	id := r.activeID
	r.mu.Unlock()

	if id == "" {
		return ErrNoActiveDocument
	}
	if ext := extensionOf(filename); ext != "pdf" && ext != typeDocx {
		r.renderer.Notify(ErrInvalidFileType.Error())
		return ErrInvalidFileType
	}

	doc, err := r.api.SignDocument(ctx, id, filename, content)
	if err != nil {
		r.renderer.Notify(err.Error())
		return err
	}

	return r.LoadDocuments(ctx, doc.ID)
}

// DeleteDocument removes id on the server, then refreshes. On failure the
// local list stays untouched and the error message is surfaced.
func (r *Reconciler) DeleteDocument(ctx context.Context, id string) error {
	if err := r.api.DeleteDocument(ctx, id); err != nil {
		r.renderer.Notify(err.Error())
		return err
	}

	r.mu.Lock()
	if r.activeID == id {
		r.activeID = ""
	}
	r.mu.Unlock()

	return r.LoadDocuments(ctx, "")
}

// DownloadActive fetches the active document's current content and returns
// it with a save name, appending the document type as extension when the
// display name lacks one.
func (r *Reconciler) DownloadActive(ctx context.Context) (string, []byte, error) {
	r.mu.Lock()
	doc := r.find(r.activeID)
	if doc == nil {
		r.mu.Unlock()
		return "", nil, ErrNoActiveDocument
	}
	name, typ, url := doc.Name, doc.Type, doc.URL
	r.mu.Unlock()

	data, err := r.api.FetchFile(ctx, url)
	if err != nil {
		r.renderer.Notify(err.Error())
		return "", nil, err
	}

	if extensionOf(name) == "" && typ != "" {
		name += "." + typ
	}
	return name, data, nil
}

// Documents returns a snapshot of the current list.
func (r *Reconciler) Documents() []Document {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Document(nil), r.docs...)
}

// ActiveID returns the active document id, "" when none.
func (r *Reconciler) ActiveID() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.activeID
}

// fetchPreview downloads and converts one DOCX. The result always lands in
// the cache; a re-render happens only if the document is still the active
// one when the conversion finishes.
func (r *Reconciler) fetchPreview(ctx context.Context, id, url string) {
	html := ""
	failure := ""

	data, err := r.api.FetchFile(ctx, url)
	if err != nil {
		failure = "No se pudo descargar el documento para la vista previa."
	} else {
		html, err = r.convert.ConvertToHTML(ctx, data)
		switch {
		case err != nil:
			failure = "El archivo DOCX no se pudo procesar correctamente."
		case strings.TrimSpace(html) == "":
			html = ""
			failure = "El DOCX no tiene contenido visible para vista previa."
		}
	}

	r.mu.Lock()
	doc := r.find(id)
	if doc == nil {
		// Deleted or replaced while converting; drop the result.
		r.mu.Unlock()
		return
	}
	doc.PreviewLoading = false
	doc.PreviewReady = true
	doc.DocxHTML = html
	doc.PreviewError = failure
	stillActive := r.activeID == id
	r.mu.Unlock()

	if stillActive {
		r.render()
	}
}

func (r *Reconciler) render() {
	r.mu.Lock()
	docs := append([]Document(nil), r.docs...)
	active := r.activeID
	r.mu.Unlock()
	r.renderer.Render(docs, active)
}

// find returns a pointer into r.docs; callers hold the lock.
func (r *Reconciler) find(id string) *Document {
	for i := range r.docs {
		if r.docs[i].ID == id {
			return &r.docs[i]
		}
	}
	return nil
}

// mergeDocuments rebuilds the local list from the server records. The DOCX
// render cache of a previous entry is preserved only when both name and
// status are unchanged; any other change resets the preview for re-fetch.
func mergeDocuments(prev []Document, remote []RemoteDocument) []Document {
	prevByID := make(map[string]*Document, len(prev))
	for i := range prev {
		prevByID[prev[i].ID] = &prev[i]
	}

	docs := make([]Document, 0, len(remote))
	for _, rec := range remote {
		doc := Document{
			ID:     rec.ID,
			Name:   rec.Name,
			Type:   rec.Type,
			Status: rec.Status,
			Date:   rec.CreatedAt,
			URL:    rec.FileURL,
			// Nothing to convert for non-DOCX types.
			PreviewReady: rec.Type != typeDocx,
		}
		if old, ok := prevByID[rec.ID]; ok && old.Name == rec.Name && old.Status == rec.Status {
			doc.DocxHTML = old.DocxHTML
			doc.PreviewError = old.PreviewError
			doc.PreviewReady = old.PreviewReady
			doc.PreviewLoading = old.PreviewLoading
		}
		docs = append(docs, doc)
	}
	return docs
}

// selectActive picks the active id: an explicitly focused document wins,
// then the previously active one, then the first item.
func selectActive(docs []Document, focusID, prevActive string) string {
	if focusID != "" && contains(docs, focusID) {
		return focusID
	}
	if prevActive != "" && contains(docs, prevActive) {
		return prevActive
	}
	if len(docs) > 0 {
		return docs[0].ID
	}
	return ""
}

func contains(docs []Document, id string) bool {
	for i := range docs {
		if docs[i].ID == id {
			return true
		}
	}
	return false
}

func extensionOf(name string) string {
	i := strings.LastIndexByte(name, '.')
	if i < 0 || i == len(name)-1 {
		return ""
	}
	return strings.ToLower(name[i+1:])
}
