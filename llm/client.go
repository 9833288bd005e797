package llm

import "context"

// Client is the interface for chat-completion providers.
type Client interface {
	// Complete makes a synchronous call and returns the full response.
	Complete(ctx context.Context, req Request) (*Response, error)

	// Stream makes a call and sends raw delta events to the channel.
	// The channel is closed when streaming is complete. Tool-call fragments
	// are forwarded as delivered, addressed by index; reassembly is the
	// caller's job.
	Stream(ctx context.Context, req Request, ch chan<- Delta) error
}

// Finish reasons reported by the provider.
const (
	FinishStop      = "stop"
	FinishToolCalls = "tool_calls"
)

// Message represents a chat message for the provider.
type Message struct {
	Role       string     `json:"role"`
	Content    string     `json:"content"`
	Name       string     `json:"name,omitempty"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"`
}

// ToolCall is a complete tool invocation request attached to an assistant
// message. Arguments is the raw JSON object text, unparsed.
type ToolCall struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// ToolSchema describes a tool for the provider.
type ToolSchema struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

// Request is the input to a provider call.
type Request struct {
	Model    string       `json:"model"`
	Messages []Message    `json:"messages"`
	Tools    []ToolSchema `json:"tools,omitempty"`
}

// Response is the full result of a synchronous call.
type Response struct {
	Content      string     `json:"content"`
	ToolCalls    []ToolCall `json:"tool_calls,omitempty"`
	FinishReason string     `json:"finish_reason,omitempty"`
}

// Delta is a single incremental fragment of a streamed response. Any
// combination of fields may be set; a non-empty FinishReason marks the
// terminal event.
type Delta struct {
	Content      string
	ToolCalls    []ToolCallDelta
	FinishReason string
}

// ToolCallDelta is a partial tool call addressed by a zero-based index.
// The ID may only be present on the first fragment for that index; Name and
// Arguments are string fragments concatenated in arrival order.
type ToolCallDelta struct {
	Index     int
	ID        string
	Name      string
	Arguments string
}
