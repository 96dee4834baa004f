package conduct

import (
	"context"
	"sync"
	"time"

	"github.com/batonhq/baton/internal/agent"
)

// invocation records one call the fake invoker received.
type invocation struct {
	persona     string
	instruction string
	opts        agent.InvokeOptions
}

// fakeInvoker scripts agent behavior for tests. When fn is nil every call
// succeeds with content "ok".
type fakeInvoker struct {
	mu    sync.Mutex
	calls []invocation
	fn    func(call invocation) (agent.Response, error)
}

func (f *fakeInvoker) Invoke(ctx context.Context, persona, instruction string, opts agent.InvokeOptions) (agent.Response, error) {
	if err := ctx.Err(); err != nil {
		return agent.Response{}, err
	}

	call := invocation{persona: persona, instruction: instruction, opts: opts}
	f.mu.Lock()
	f.calls = append(f.calls, call)
	f.mu.Unlock()

	if f.fn == nil {
		return doneResponse(persona, "ok"), nil
	}
	return f.fn(call)
}

func (f *fakeInvoker) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func (f *fakeInvoker) call(i int) invocation {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[i]
}

func doneResponse(persona, content string) agent.Response {
	return agent.Response{
		Persona:   persona,
		Status:    agent.StatusDone,
		Content:   content,
		Timestamp: time.Now(),
	}
}

func errorResponse(persona, message string) agent.Response {
	return agent.Response{
		Persona:   persona,
		Status:    agent.StatusError,
		Error:     message,
		Timestamp: time.Now(),
	}
}
