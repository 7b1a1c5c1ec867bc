package research

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/rijul21/worms-agent/internal/log"
)

// CallKey canonicalizes a tool invocation: argument names sorted, values
// stringified, joined deterministically. Two invocations with the same key
// are the same call for memoization purposes, regardless of call order or
// call site.
func CallKey(tool string, args map[string]any) string {
	names := make([]string, 0, len(args))
	for name := range args {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, fmt.Sprintf("%s=%v", name, args[name]))
	}
	return tool + "(" + strings.Join(parts, ", ") + ")"
}

// Tracker memoizes tool results within one request. The first caller for a
// key executes the body; concurrent callers for the same key wait and
// adopt that result instead of issuing a duplicate call. Success text and
// error text are both memoized. A tracker lives exactly as long as its
// request and is never persisted.
type Tracker struct {
	mu     sync.Mutex
	calls  map[string]*trackedCall
	logger log.Logger
}

type trackedCall struct {
	done   chan struct{}
	result string
}

// NewTracker creates an empty tracker for one request.
func NewTracker(logger log.Logger) *Tracker {
	return &Tracker{
		calls:  make(map[string]*trackedCall),
		logger: logger,
	}
}

// Do returns the memoized result for key, executing fn exactly once per
// key. Waiting callers return ctx.Err if the context ends before the
// winner finishes.
func (t *Tracker) Do(ctx context.Context, key string, fn func(context.Context) string) (string, error) {
	t.mu.Lock()
	if c, ok := t.calls[key]; ok {
		t.mu.Unlock()

		select {
		case <-c.done:
		case <-ctx.Done():
			return "", ctx.Err()
		}

		t.logger.Debug("returned cached result",
			"category", log.CategoryCache,
			"call", key)
		return c.result, nil
	}

	c := &trackedCall{done: make(chan struct{})}
	t.calls[key] = c
	t.mu.Unlock()

	c.result = fn(ctx)
	close(c.done)
	return c.result, nil
}

// Len reports the number of distinct keys seen. Exposed for tests.
func (t *Tracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.calls)
}
