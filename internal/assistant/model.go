package assistant

import (
	"context"

	"github.com/google/uuid"
)

const (
	RoleUser  = "user"
	RoleModel = "model"
	// RoleTool carries tool results back to the model.
	RoleTool = "tool"
)

type Message struct {
	Role        string       `json:"role"`
	Text        string       `json:"text,omitempty"`
	ToolCalls   []ToolCall   `json:"tool_calls,omitempty"`
	ToolResults []ToolResult `json:"tool_results,omitempty"`
}

type ToolCall struct {
	Name string         `json:"name"`
	Args map[string]any `json:"args"`
}

type ToolResult struct {
	Name    string         `json:"name"`
	Content map[string]any `json:"content"`
}

// Turn is one model response: text, tool calls or both.
type Turn struct {
	Text      string
	ToolCalls []ToolCall
}

// Model is a chat backend with function calling. Generate streams text
// deltas to onDelta as they arrive and returns the assembled turn.
type Model interface {
	Generate(ctx context.Context, history []Message, onDelta func(string)) (*Turn, error)
}

// Scope identifies who a chat runs for. Tools only touch the scope's tenant.
type Scope struct {
	TenantID uuid.UUID
	UserID   uuid.UUID
}

const (
	EventDelta = "delta"
	EventTool  = "tool"
	EventDone  = "done"
	EventError = "error"
)

// Event is one streamed frame sent to the client.
type Event struct {
	Type  string `json:"type"`
	Text  string `json:"text,omitempty"`
	Tool  string `json:"tool,omitempty"`
	Error string `json:"error,omitempty"`
}

type Reply struct {
	Text       string   `json:"text"`
	ToolsUsed  []string `json:"tools_used"`
	Iterations int      `json:"iterations"`
}
