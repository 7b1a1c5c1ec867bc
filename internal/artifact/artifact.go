// Package artifact holds the machine-readable records a research run
// produces alongside its conversational reply. An artifact points at the
// raw WoRMS responses (source URIs) and carries structured metadata such
// as the AphiaID and record count, so downstream consumers never have to
// re-parse the reply text.
package artifact

import (
	"time"

	"github.com/google/uuid"
)

// MimeTypeJSON is the mimetype every WoRMS payload artifact carries.
const MimeTypeJSON = "application/json"

// Artifact is a write-once record referencing retrieved data.
//
// Zero values:
//   - ID: uuid.Nil (assigned by the store on registration)
//   - MimeType: "" (invalid, required)
//   - Description: "" (invalid, required)
//   - SourceURIs: nil (invalid, at least one required)
//   - Metadata: nil (optional)
type Artifact struct {
	ID          uuid.UUID
	MimeType    string
	Description string
	SourceURIs  []string
	Metadata    map[string]any
	CreatedAt   time.Time
}

// Draft is the caller-supplied portion of an artifact, before the store
// assigns identity and timestamp.
type Draft struct {
	MimeType    string
	Description string
	SourceURIs  []string
	Metadata    map[string]any
}

// Validate reports whether the draft satisfies the registration rules:
// a mimetype, a description and at least one source URI.
func (d Draft) Validate() error {
	if d.MimeType == "" {
		return ErrMissingMimeType
	}
	if d.Description == "" {
		return ErrMissingDescription
	}
	if len(d.SourceURIs) == 0 {
		return ErrMissingSource
	}
	for _, uri := range d.SourceURIs {
		if uri == "" {
			return ErrMissingSource
		}
	}
	return nil
}
