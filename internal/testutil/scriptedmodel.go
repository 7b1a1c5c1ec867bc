// Package testutil provides deterministic Genkit test doubles.
package testutil

import (
	"context"
	"sync"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
)

// ScriptedModel is a Genkit model that replays a fixed sequence of
// responses, one per generate call. Each step is either plain text or a
// set of tool requests; once the script is exhausted, the fallback text
// is returned. This makes multi-turn tool loops fully deterministic: the
// test enqueues the exact tool calls the loop should make and a closing
// text turn to end it.
//
// Thread-safe for concurrent use.
type ScriptedModel struct {
	mu       sync.Mutex
	steps    []scriptStep
	next     int
	fallback string
	calls    []ScriptedCall
}

type scriptStep struct {
	text  string
	tools []*ai.ToolRequest
}

// ScriptedCall records one generate call seen by the model.
type ScriptedCall struct {
	UserMessage string // last user message text
	Response    string // text returned for this turn
}

// NewScriptedModel creates a model that returns fallback once the script
// runs out.
func NewScriptedModel(fallback string) *ScriptedModel {
	return &ScriptedModel{fallback: fallback}
}

// EnqueueText appends a plain-text turn to the script.
func (m *ScriptedModel) EnqueueText(text string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.steps = append(m.steps, scriptStep{text: text})
}

// EnqueueToolCalls appends a turn that requests the given tools.
func (m *ScriptedModel) EnqueueToolCalls(tools ...*ai.ToolRequest) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.steps = append(m.steps, scriptStep{tools: tools})
}

// Calls returns a copy of every generate call recorded so far.
func (m *ScriptedModel) Calls() []ScriptedCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := make([]ScriptedCall, len(m.calls))
	copy(cp, m.calls)
	return cp
}

// Register registers the model under "mock/scripted" and returns its
// reference. Point the configuration's model name at it to route a
// planner or decider through the script.
func (m *ScriptedModel) Register(g *genkit.Genkit) ai.Model {
	return genkit.DefineModel(g, "mock/scripted", &ai.ModelOptions{
		Label: "Scripted Test Model",
		Supports: &ai.ModelSupports{
			Multiturn:  true,
			Tools:      true,
			SystemRole: true,
		},
	}, m.generate)
}

// ModelName is the provider-qualified name Register uses.
const ModelName = "mock/scripted"

func (m *ScriptedModel) generate(ctx context.Context, req *ai.ModelRequest, cb ai.ModelStreamCallback) (*ai.ModelResponse, error) {
	var userText string
	for i := len(req.Messages) - 1; i >= 0; i-- {
		if req.Messages[i].Role == ai.RoleUser {
			userText = req.Messages[i].Text()
			break
		}
	}

	m.mu.Lock()
	var step scriptStep
	if m.next < len(m.steps) {
		step = m.steps[m.next]
		m.next++
	} else {
		step = scriptStep{text: m.fallback}
	}
	m.calls = append(m.calls, ScriptedCall{UserMessage: userText, Response: step.text})
	m.mu.Unlock()

	if cb != nil && step.text != "" {
		_ = cb(ctx, &ai.ModelResponseChunk{
			Content: []*ai.Part{ai.NewTextPart(step.text)},
		})
	}

	var parts []*ai.Part
	for _, tr := range step.tools {
		parts = append(parts, &ai.Part{
			Kind:        ai.PartToolRequest,
			ToolRequest: tr,
		})
	}
	if step.text != "" || len(parts) == 0 {
		parts = append(parts, ai.NewTextPart(step.text))
	}

	return &ai.ModelResponse{
		Request: req,
		Message: &ai.Message{
			Role:    ai.RoleModel,
			Content: parts,
		},
	}, nil
}
