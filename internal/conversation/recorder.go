package conversation

import (
	"context"
	"sync"

	"github.com/rijul21/worms-agent/internal/artifact"
	"github.com/rijul21/worms-agent/internal/log"
)

// Recorder is a Host that captures everything for inspection in tests.
type Recorder struct {
	mu        sync.Mutex
	processes []string
	entries   []LogEntry
	replies   []string
	store     *artifact.Store
}

// LogEntry is one captured process log call.
type LogEntry struct {
	Process string
	Message string
	Data    map[string]any
}

// NewRecorder creates an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{store: artifact.NewStore(log.NewNop())}
}

func (r *Recorder) BeginProcess(ctx context.Context, label string) (Process, error) {
	r.mu.Lock()
	r.processes = append(r.processes, label)
	r.mu.Unlock()
	return &recorderProcess{recorder: r, label: label}, nil
}

func (r *Recorder) Reply(ctx context.Context, text string) error {
	r.mu.Lock()
	r.replies = append(r.replies, text)
	r.mu.Unlock()
	return nil
}

// Processes returns the labels passed to BeginProcess, in order.
func (r *Recorder) Processes() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.processes...)
}

// Entries returns the captured log entries, in order.
func (r *Recorder) Entries() []LogEntry {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]LogEntry(nil), r.entries...)
}

// Replies returns the captured terminal replies, in order.
func (r *Recorder) Replies() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.replies...)
}

// Artifacts returns the registered artifacts, in order.
func (r *Recorder) Artifacts() []*artifact.Artifact {
	return r.store.List()
}

type recorderProcess struct {
	recorder *Recorder
	label    string
}

func (p *recorderProcess) Log(ctx context.Context, message string, data map[string]any) error {
	p.recorder.mu.Lock()
	p.recorder.entries = append(p.recorder.entries, LogEntry{
		Process: p.label,
		Message: message,
		Data:    data,
	})
	p.recorder.mu.Unlock()
	return nil
}

func (p *recorderProcess) CreateArtifact(ctx context.Context, d artifact.Draft) (*artifact.Artifact, error) {
	return p.recorder.store.Register(d)
}
