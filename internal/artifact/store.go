package artifact

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/rijul21/worms-agent/internal/log"
)

// Store keeps the artifacts registered during a research session, in
// memory and in registration order. Artifacts are write-once: there is no
// update or delete, a registered record never changes.
type Store struct {
	mu        sync.Mutex
	artifacts []*Artifact
	byID      map[uuid.UUID]*Artifact
	logger    log.Logger
}

// NewStore creates an empty store.
func NewStore(logger log.Logger) *Store {
	return &Store{
		byID:   make(map[uuid.UUID]*Artifact),
		logger: logger,
	}
}

// Register validates the draft, assigns it an ID and timestamp and stores
// it. The returned artifact is a copy owned by the store.
func (s *Store) Register(d Draft) (*Artifact, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}

	a := &Artifact{
		ID:          uuid.New(),
		MimeType:    d.MimeType,
		Description: d.Description,
		SourceURIs:  append([]string(nil), d.SourceURIs...),
		Metadata:    d.Metadata,
		CreatedAt:   time.Now().UTC(),
	}

	s.mu.Lock()
	s.artifacts = append(s.artifacts, a)
	s.byID[a.ID] = a
	s.mu.Unlock()

	s.logger.Info("artifact created",
		"category", log.CategoryAgent,
		"artifact_id", a.ID,
		"description", a.Description)

	return a, nil
}

// Get retrieves an artifact by ID. Returns ErrNotFound if absent.
func (s *Store) Get(id uuid.UUID) (*Artifact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	return a, nil
}

// List returns all registered artifacts in registration order.
func (s *Store) List() []*Artifact {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*Artifact(nil), s.artifacts...)
}

// Len reports the number of registered artifacts.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.artifacts)
}
