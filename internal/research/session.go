package research

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/rijul21/worms-agent/internal/conversation"
	"github.com/rijul21/worms-agent/internal/log"
)

// TerminalKind distinguishes how a session ended.
type TerminalKind int

const (
	// TerminalNone means no control tool has fired yet.
	TerminalNone TerminalKind = iota

	// TerminalFinish means the decision process called finish.
	TerminalFinish

	// TerminalAbort means the decision process called abort.
	TerminalAbort
)

// Session is the per-request state: the call tracker, the open process on
// the conversation host, and the terminal reply. It is created at request
// start and discarded at request end.
type Session struct {
	ID      uuid.UUID
	Tracker *Tracker
	Process conversation.Process

	mu    sync.Mutex
	kind  TerminalKind
	reply string
}

// NewSession creates the state for one request.
func NewSession(proc conversation.Process, logger log.Logger) *Session {
	return &Session{
		ID:      uuid.New(),
		Tracker: NewTracker(logger),
		Process: proc,
	}
}

// Finish records the terminal summary. The first control call wins; later
// finish or abort calls are ignored and Finish reports false.
func (s *Session) Finish(summary string) bool {
	return s.terminate(TerminalFinish, summary)
}

// Abort records the terminal failure reason. First control call wins.
func (s *Session) Abort(reason string) bool {
	return s.terminate(TerminalAbort, reason)
}

func (s *Session) terminate(kind TerminalKind, reply string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.kind != TerminalNone {
		return false
	}
	s.kind = kind
	s.reply = reply
	return true
}

// Terminated reports whether a control tool has fired.
func (s *Session) Terminated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.kind != TerminalNone
}

// Terminal returns the recorded reply and how the session ended.
func (s *Session) Terminal() (string, TerminalKind) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reply, s.kind
}

type sessionKey struct{}

// ContextWithSession attaches a session to a context. Tool handlers invoked
// through the model runtime recover it with SessionFromContext.
func ContextWithSession(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, s)
}

// SessionFromContext extracts the session attached by ContextWithSession.
func SessionFromContext(ctx context.Context) (*Session, bool) {
	s, ok := ctx.Value(sessionKey{}).(*Session)
	return s, ok
}
