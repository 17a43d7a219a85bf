package service

import (
	"net/url"
	"regexp"
	"strings"
	"time"

	"ebandeja/internal/storage"
)

var allowedExtensions = map[string]bool{
	"pdf":  true,
	"docx": true,
}

// allowedMIMETypes accepts the two document types plus octet-stream, which
// browsers send for files they cannot classify. An absent content type is
// tolerated; the extension check is the effective gate.
var allowedMIMETypes = map[string]bool{
	"application/pdf": true,
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": true,
	"application/octet-stream": true,
}

var documentIDPattern = regexp.MustCompile(`^[a-zA-Z0-9-]{8,64}$`)

func validDocumentID(id string) bool {
	return documentIDPattern.MatchString(strings.TrimSpace(id))
}

// validateUpload runs every request-side check before any storage write and
// returns the lowercased extension of an acceptable file.
func validateUpload(up Upload) (string, error) {
	if up.Reader == nil || up.Filename == "" {
		return "", ErrFileRequired
	}
	ext := extensionOf(up.Filename)
	if !allowedExtensions[ext] {
		return "", ErrInvalidType
	}
	if ct := mediaType(up.ContentType); ct != "" && !allowedMIMETypes[ct] {
		return "", ErrInvalidMIME
	}
	if up.Size == 0 {
		return "", ErrEmptyFile
	}
	if up.Size > MaxFileSize {
		return "", ErrTooLarge
	}
	return ext, nil
}

// mediaType strips any parameters ("; charset=...") from a Content-Type.
func mediaType(ct string) string {
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = ct[:i]
	}
	return strings.ToLower(strings.TrimSpace(ct))
}

func extensionOf(name string) string {
	i := strings.LastIndexByte(name, '.')
	if i < 0 || i == len(name)-1 {
		return ""
	}
	return strings.ToLower(name[i+1:])
}

// sanitizeFileName normalizes a user-supplied name: path separators become
// spaces, whitespace runs collapse, and the extension is reattached. An
// empty base falls back to "documento".
func sanitizeFileName(name, ext string) string {
	extWithDot := ""
	if ext != "" {
		extWithDot = "." + ext
	}
	base := name
	if extWithDot != "" && strings.HasSuffix(strings.ToLower(name), extWithDot) {
		base = name[:len(name)-len(extWithDot)]
	}
	base = strings.NewReplacer("/", " ", "\\", " ").Replace(base)
	base = strings.Join(strings.Fields(base), " ")
	if base == "" {
		base = "documento"
	}
	return base + extWithDot
}

// keyEntry is one parsed object key under a folder.
type keyEntry struct {
	id        string
	name      string
	typ       string
	path      string
	createdAt time.Time
}

// buildKey encodes document identity into the object key:
// <folder>/<id>__<escaped file name>.
func buildKey(folder, id, name string) string {
	return folder + "/" + id + "__" + url.PathEscape(name)
}

// parseKey recovers the identity from an object key. Keys that do not follow
// the convention, carry an invalid id, or name a disallowed type are skipped
// by returning ok=false.
func parseKey(folder string, info storage.ObjectInfo) (keyEntry, bool) {
	rest, found := strings.CutPrefix(info.Key, folder+"/")
	if !found || rest == "" {
		return keyEntry{}, false
	}

	sep := strings.Index(rest, "__")
	if sep <= 0 {
		return keyEntry{}, false
	}

	id := rest[:sep]
	if !validDocumentID(id) {
		return keyEntry{}, false
	}

	name, err := url.PathUnescape(rest[sep+2:])
	if err != nil {
		name = rest[sep+2:]
	}
	ext := extensionOf(name)
	if name == "" || !allowedExtensions[ext] {
		return keyEntry{}, false
	}

	createdAt := info.LastModified
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	return keyEntry{
		id:        id,
		name:      name,
		typ:       ext,
		path:      info.Key,
		createdAt: createdAt,
	}, true
}
