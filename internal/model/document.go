package model

import "time"

// Document status values as shown to users. The lifecycle is
// Pendiente -> Firmado; Firmado is terminal.
const (
	StatusPending = "Pendiente"
	StatusSigned  = "Firmado"
)

// Document is the client-facing projection of a stored file.
// This is a pure domain model with no storage-specific dependencies or tags;
// the object-store listing is the system of record it is derived from.
type Document struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Type      string    `json:"type"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
	// FileURL is a time-limited signed URL granting read access to the
	// current object without further authentication.
	FileURL string `json:"fileUrl"`
}
