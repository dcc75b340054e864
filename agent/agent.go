package agent

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/hackbay/sembot/assistant"
)

// Runtime is the model-reasoning runtime the agent drives. Implemented by
// assistant.Client; tests substitute a scripted fake.
type Runtime interface {
	CreateAssistant(ctx context.Context, name, instructions, model string, tools []assistant.ToolDefinition) (*assistant.Assistant, error)
	CreateThread(ctx context.Context) (*assistant.Thread, error)
	AddUserMessage(ctx context.Context, threadID, content string) error
	CreateRun(ctx context.Context, threadID, assistantID string) (*assistant.Run, error)
	RetrieveRun(ctx context.Context, threadID, runID string) (*assistant.Run, error)
	SubmitToolOutputs(ctx context.Context, threadID, runID string, outputs []assistant.ToolOutput) (*assistant.Run, error)
	LatestAssistantMessage(ctx context.Context, threadID string) (string, error)
}

// Session is the persistent dialogue context for one consumer (one Slack
// channel). Created once, reused for every turn, never expired.
type Session struct {
	ThreadID string
}

// Agent drives conversational turns through the Assistants run protocol,
// dispatching requested tool calls through its registry.
//
// Turns on different sessions are independent; callers must not run two
// turns on the same session concurrently.
type Agent struct {
	runtime      Runtime
	registry     *Registry
	assistantID  string
	pollInterval time.Duration
	sleep        func(time.Duration)

	mu       sync.Mutex
	sessions map[string]*Session
}

// New creates the backing assistant (declaring every registered tool) and
// returns an agent ready to execute turns.
func New(ctx context.Context, runtime Runtime, registry *Registry, name, instructions, model string, pollInterval time.Duration) (*Agent, error) {
	created, err := runtime.CreateAssistant(ctx, name, instructions, model, registry.Definitions())
	if err != nil {
		return nil, fmt.Errorf("failed to create assistant: %w", err)
	}

	return &Agent{
		runtime:      runtime,
		registry:     registry,
		assistantID:  created.ID,
		pollInterval: pollInterval,
		sleep:        time.Sleep,
		sessions:     make(map[string]*Session),
	}, nil
}

// SessionFor returns the session for a consumer key, creating the backing
// thread on first contact. Sessions live for the process lifetime.
func (a *Agent) SessionFor(ctx context.Context, key string) (*Session, error) {
	a.mu.Lock()
	sess, ok := a.sessions[key]
	a.mu.Unlock()
	if ok {
		return sess, nil
	}

	thread, err := a.runtime.CreateThread(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create thread for %s: %w", key, err)
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	// Another caller may have created the session while we were waiting on
	// the runtime; keep the first one so the consumer sees a single thread.
	if existing, ok := a.sessions[key]; ok {
		return existing, nil
	}
	sess = &Session{ThreadID: thread.ID}
	a.sessions[key] = sess
	log.Printf("[agent] session opened key=%s thread=%s", key, thread.ID)
	return sess, nil
}

// Execute runs one conversational turn: append the prompt, start a run,
// answer tool calls until the run completes, and return the assistant's
// final message.
//
// Tool failures are fed back to the model as the tool's output text, so a
// bad tool call degrades the answer instead of aborting the turn. A failed
// run aborts the turn with no retry.
func (a *Agent) Execute(ctx context.Context, session *Session, prompt string) (string, error) {
	if err := a.runtime.AddUserMessage(ctx, session.ThreadID, prompt); err != nil {
		return "", err
	}

	run, err := a.runtime.CreateRun(ctx, session.ThreadID, a.assistantID)
	if err != nil {
		return "", err
	}

	for {
		switch {
		case run.Status == assistant.StatusRequiresAction:
			run, err = a.answerToolCalls(ctx, session.ThreadID, run)
			if err != nil {
				return "", err
			}

		case run.Status == assistant.StatusCompleted:
			return a.runtime.LatestAssistantMessage(ctx, session.ThreadID)

		case run.Terminal():
			if run.LastError != nil {
				return "", fmt.Errorf("run %s %s: %s (%s)", run.ID, run.Status, run.LastError.Message, run.LastError.Code)
			}
			return "", fmt.Errorf("run %s ended with status %s", run.ID, run.Status)

		default:
			a.sleep(a.pollInterval)
			run, err = a.runtime.RetrieveRun(ctx, session.ThreadID, run.ID)
			if err != nil {
				return "", err
			}
		}
	}
}

// answerToolCalls resolves every pending tool call of a requires_action run
// and submits the full batch. The API requires all pending calls answered
// together, so even a failing invocation produces an output (its error text).
func (a *Agent) answerToolCalls(ctx context.Context, threadID string, run *assistant.Run) (*assistant.Run, error) {
	if run.RequiredAction == nil {
		return nil, fmt.Errorf("run %s requires action but reported none", run.ID)
	}

	calls := run.RequiredAction.SubmitToolOutputs.ToolCalls
	outputs := make([]assistant.ToolOutput, 0, len(calls))
	for _, call := range calls {
		log.Printf("[agent] calling tool %s with %s", call.Function.Name, call.Function.Arguments)
		out, err := a.registry.Invoke(ctx, call.Function.Name, call.Function.Arguments)
		if err != nil {
			log.Printf("[agent] tool %s error: %v", call.Function.Name, err)
			out = err.Error()
		}
		outputs = append(outputs, assistant.ToolOutput{ToolCallID: call.ID, Output: out})
	}

	return a.runtime.SubmitToolOutputs(ctx, threadID, run.ID, outputs)
}
