package agent

// Handler executes one tool invocation. It receives the parsed arguments and
// the shared turn context, and returns a JSON-serializable result. A returned
// error is converted to a structured {"error": ...} tool result at the
// dispatch boundary; handlers never abort the turn.
type Handler func(args map[string]any, tc *TurnContext) (any, error)

// Registry maps tool names to handlers plus an optional human-readable UI
// descriptor surfaced in tool_call chunks. Registration happens during agent
// construction, before any turn runs; lookups after that are read-only.
type Registry struct {
	handlers    map[string]Handler
	descriptors map[string]string
}

// NewRegistry creates an empty tool registry.
func NewRegistry() *Registry {
	return &Registry{
		handlers:    make(map[string]Handler),
		descriptors: make(map[string]string),
	}
}

// Register binds a handler to a tool name. The descriptor may be empty.
func (r *Registry) Register(name, descriptor string, h Handler) {
	r.handlers[name] = h
	if descriptor != "" {
		r.descriptors[name] = descriptor
	}
}

// Handler returns the handler for a tool name, or nil.
func (r *Registry) Handler(name string) Handler {
	return r.handlers[name]
}

// Descriptor returns the UI descriptor for a tool name, or "".
func (r *Registry) Descriptor(name string) string {
	return r.descriptors[name]
}

// Names returns all registered tool names.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.handlers))
	for name := range r.handlers {
		names = append(names, name)
	}
	return names
}
