package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/hackbay/sembot/assistant"
)

var (
	// ErrDuplicateTool is returned when a tool name is registered twice.
	ErrDuplicateTool = errors.New("tool already registered")
	// ErrUnknownTool is returned when an invocation names no registered tool.
	ErrUnknownTool = errors.New("unknown tool")
)

// Tool is a named capability the model may ask the agent to perform.
// Parameters is a JSON-schema object describing the handler's arguments.
type Tool struct {
	Name        string
	Description string
	Parameters  map[string]interface{}
	Handler     func(ctx context.Context, args map[string]interface{}) (string, error)
}

// Registry maps tool names to handlers. Registration happens at startup;
// after that the registry is read-only and safe to share across turns.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]Tool
	order []string
}

func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]Tool)}
}

// Register adds a tool under its name.
func (r *Registry) Register(tool Tool) error {
	if tool.Name == "" {
		return fmt.Errorf("tool name is empty")
	}
	if tool.Handler == nil {
		return fmt.Errorf("tool %s has no handler", tool.Name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.tools[tool.Name]; exists {
		return fmt.Errorf("%s: %w", tool.Name, ErrDuplicateTool)
	}
	r.tools[tool.Name] = tool
	r.order = append(r.order, tool.Name)
	return nil
}

// Invoke decodes rawArgs as a JSON object and calls the named tool's
// handler. No retries and no timeout: a hanging handler hangs the caller.
func (r *Registry) Invoke(ctx context.Context, name, rawArgs string) (string, error) {
	r.mu.RLock()
	tool, ok := r.tools[name]
	r.mu.RUnlock()

	if !ok {
		return "", fmt.Errorf("%s: %w", name, ErrUnknownTool)
	}

	args := make(map[string]interface{})
	if rawArgs != "" {
		if err := json.Unmarshal([]byte(rawArgs), &args); err != nil {
			return "", fmt.Errorf("invalid arguments for tool %s: %w", name, err)
		}
	}

	out, err := tool.Handler(ctx, args)
	if err != nil {
		return "", fmt.Errorf("tool %s failed: %w", name, err)
	}
	return out, nil
}

// Definitions returns the registered tools as Assistants API function
// declarations, in registration order.
func (r *Registry) Definitions() []assistant.ToolDefinition {
	r.mu.RLock()
	defer r.mu.RUnlock()

	defs := make([]assistant.ToolDefinition, 0, len(r.order))
	for _, name := range r.order {
		tool := r.tools[name]
		defs = append(defs, assistant.ToolDefinition{
			Type: "function",
			Function: assistant.FunctionDefinition{
				Name:        tool.Name,
				Description: tool.Description,
				Parameters:  tool.Parameters,
			},
		})
	}
	return defs
}
