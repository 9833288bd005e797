package agent

import "fmt"

// Message represents a chat message in a conversation.
type Message struct {
	Role       string     `json:"role"` // "system", "user", "assistant", "tool"
	Content    string     `json:"content"`
	Name       string     `json:"name,omitempty"`         // agent name on assistant messages, tool name on tool messages
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`   // set on assistant messages requesting tools
	ToolCallID string     `json:"tool_call_id,omitempty"` // set when Role == "tool"
}

// ToolCall is the model's request to invoke a tool. Arguments is the raw
// JSON object text; it stays opaque until parsed at dispatch time.
type ToolCall struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// --- Role constants ---

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// ValidRole returns true if r is a known message role.
func ValidRole(r string) bool {
	switch r {
	case RoleSystem, RoleUser, RoleAssistant, RoleTool:
		return true
	}
	return false
}

// --- Constructors ---

// Human creates a user message.
func Human(content string) Message {
	return Message{Role: RoleUser, Content: content}
}

// System creates a system message.
func System(content string) Message {
	return Message{Role: RoleSystem, Content: content}
}

// AI creates an assistant message with optional tool calls.
func AI(content string, toolCalls ...ToolCall) Message {
	return Message{Role: RoleAssistant, Content: content, ToolCalls: toolCalls}
}

// ToolMsg creates a tool result message answering the call with the given id.
func ToolMsg(toolCallID, name, content string) Message {
	return Message{Role: RoleTool, Content: content, ToolCallID: toolCallID, Name: name}
}

// Validate checks that a message sequence is well-formed: known roles, tool
// messages answering a call id, assistant tool calls carrying ids and names.
func Validate(msgs []Message) error {
	for i, msg := range msgs {
		if !ValidRole(msg.Role) {
			return fmt.Errorf("message[%d]: unknown role %q", i, msg.Role)
		}
		switch msg.Role {
		case RoleTool:
			if msg.ToolCallID == "" {
				return fmt.Errorf("message[%d]: tool message missing tool_call_id", i)
			}
		case RoleAssistant:
			for j, tc := range msg.ToolCalls {
				if tc.ID == "" {
					return fmt.Errorf("message[%d].tool_calls[%d]: missing id", i, j)
				}
				if tc.Name == "" {
					return fmt.Errorf("message[%d].tool_calls[%d]: missing name", i, j)
				}
			}
		}
	}
	return nil
}
