package agent

// Chunk types emitted on the caller-facing streaming protocol.
const (
	ChunkAgentSelected = "agent_selected"
	ChunkContent       = "content"
	ChunkToolCall      = "tool_call"
	ChunkToolResult    = "tool_result"
	ChunkDone          = "done"
	ChunkError         = "error"
)

// Chunk is one event on the caller-facing stream. Which fields are set
// depends on Type. Done is true only on the terminal "done" or "error" chunk.
type Chunk struct {
	Type         string     `json:"type"`
	AgentType    string     `json:"agent_type,omitempty"`
	Content      string     `json:"content,omitempty"`
	ToolName     string     `json:"tool_name,omitempty"`
	UIDescriptor string     `json:"ui_descriptor,omitempty"`
	Arguments    string     `json:"arguments,omitempty"`
	Result       any        `json:"result,omitempty"`
	UIContext    *UIContext `json:"ui_context,omitempty"`
	Error        string     `json:"error,omitempty"`
	Done         bool       `json:"done"`
}

// EmitFunc receives stream chunks as they are produced.
type EmitFunc func(Chunk)
