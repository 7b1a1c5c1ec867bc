package conversation

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/rijul21/worms-agent/internal/artifact"
	"github.com/rijul21/worms-agent/internal/log"
)

// RenderFunc transforms reply text before it is written, e.g. markdown
// rendering for a terminal. A nil RenderFunc writes the text as-is.
type RenderFunc func(string) (string, error)

// Console is the Host implementation for the CLI. Process activity goes to
// the structured logger; replies go to the output writer, optionally
// through a renderer.
type Console struct {
	mu     sync.Mutex
	out    io.Writer
	render RenderFunc
	store  *artifact.Store
	logger log.Logger
}

// NewConsole builds a console host writing replies to out. render may be
// nil.
func NewConsole(out io.Writer, render RenderFunc, store *artifact.Store, logger log.Logger) *Console {
	return &Console{out: out, render: render, store: store, logger: logger}
}

// BeginProcess logs the process label and returns a process bound to this
// console.
func (c *Console) BeginProcess(ctx context.Context, label string) (Process, error) {
	c.logger.Info(label, "category", log.CategoryAgent)
	return &consoleProcess{console: c, label: label}, nil
}

// Reply renders and writes the terminal reply.
func (c *Console) Reply(ctx context.Context, text string) error {
	out := text
	if c.render != nil {
		rendered, err := c.render(text)
		if err != nil {
			// Fall back to plain text when rendering fails.
			c.logger.Warn("reply rendering failed", "error", err)
		} else {
			out = rendered
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	_, err := fmt.Fprintln(c.out, out)
	return err
}

// Artifacts exposes the artifacts registered so far.
func (c *Console) Artifacts() []*artifact.Artifact {
	return c.store.List()
}

type consoleProcess struct {
	console *Console
	label   string
}

func (p *consoleProcess) Log(ctx context.Context, message string, data map[string]any) error {
	attrs := make([]any, 0, 2+2*len(data))
	attrs = append(attrs, "process", p.label)
	for k, v := range data {
		attrs = append(attrs, k, v)
	}
	p.console.logger.Info(message, attrs...)
	return nil
}

func (p *consoleProcess) CreateArtifact(ctx context.Context, d artifact.Draft) (*artifact.Artifact, error) {
	return p.console.store.Register(d)
}
