// Package conversation defines the boundary between the research agent and
// whatever hosts the conversation. The agent only ever performs four
// operations against its host: begin a labeled process, append structured
// log entries to it, register an artifact, and send the terminal reply.
// The console implementation backs the CLI; the recorder backs tests.
package conversation

import (
	"context"

	"github.com/rijul21/worms-agent/internal/artifact"
)

// Host receives everything the agent produces during a request.
// Implementations must be safe for concurrent use; tool executions overlap.
type Host interface {
	// BeginProcess opens a labeled unit of work. The label is shown to the
	// user verbatim (e.g. "Researching Orcinus orca").
	BeginProcess(ctx context.Context, label string) (Process, error)

	// Reply delivers the terminal reply. The agent calls this exactly once
	// per request.
	Reply(ctx context.Context, text string) error
}

// Process is an open unit of work that accumulates log entries and
// artifacts.
type Process interface {
	// Log appends a structured entry. data may be nil.
	Log(ctx context.Context, message string, data map[string]any) error

	// CreateArtifact validates and registers an artifact produced by this
	// process.
	CreateArtifact(ctx context.Context, d artifact.Draft) (*artifact.Artifact, error)
}
