package agent

// DefaultMaxIterations bounds the model-tool loop for a single turn.
const DefaultMaxIterations = 10

// ToolDefinition declares a tool to the model: its name, what it does, and
// the JSON schema of its parameters. Immutable once the agent is built.
type ToolDefinition struct {
	Name        string
	Description string
	Parameters  map[string]any // JSON Schema "properties" plus any extra keys
	Required    []string
}

// Config is the immutable configuration of one agent. A single Config (and
// the Agent built from it) is created at process start and shared read-only
// across all conversations.
type Config struct {
	Name          string // attached to assistant messages when set
	SystemPrompt  string
	Model         string
	Tools         []ToolDefinition
	MaxIterations int // 0 means DefaultMaxIterations
}

func (c *Config) maxIterations() int {
	if c.MaxIterations > 0 {
		return c.MaxIterations
	}
	return DefaultMaxIterations
}

// schema builds the JSON-schema parameters object sent to the provider.
func (t ToolDefinition) schema() map[string]any {
	props := t.Parameters
	if props == nil {
		props = map[string]any{}
	}
	required := t.Required
	if required == nil {
		required = []string{}
	}
	return map[string]any{
		"type":       "object",
		"properties": props,
		"required":   required,
	}
}
