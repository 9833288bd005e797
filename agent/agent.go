package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"shopchat/llm"
)

// Agent owns the bounded model-tool loop for one conversational domain. It
// is built once from an immutable Config and shared read-only across all
// conversations; per-turn state lives in the TurnContext the caller passes
// in.
type Agent struct {
	cfg      Config
	client   llm.Client
	registry *Registry
	schemas  []llm.ToolSchema
}

// New creates an agent from a config and a chat-completion client. Tool
// handlers are bound afterwards with RegisterTool, before the first turn.
func New(cfg Config, client llm.Client) *Agent {
	a := &Agent{
		cfg:      cfg,
		client:   client,
		registry: NewRegistry(),
	}
	for _, t := range cfg.Tools {
		a.schemas = append(a.schemas, llm.ToolSchema{
			Name:        t.Name,
			Description: t.Description,
			Parameters:  t.schema(),
		})
	}
	return a
}

// RegisterTool binds a handler (and optional UI descriptor) to a tool name.
func (a *Agent) RegisterTool(name, descriptor string, h Handler) {
	a.registry.Register(name, descriptor, h)
}

// Name returns the agent's configured name.
func (a *Agent) Name() string {
	return a.cfg.Name
}

// RunResult is the outcome of a blocking turn.
type RunResult struct {
	Content      string
	FinishReason string
}

// Run executes one turn in blocking mode: loop until the model answers
// without tool calls, executing requested tools in between. Every message
// produced is appended to tc in order.
func (a *Agent) Run(ctx context.Context, prompt string, tc *TurnContext) (*RunResult, error) {
	msgs := a.buildMessages(prompt, tc)

	for iteration := 1; ; iteration++ {
		if iteration > a.cfg.maxIterations() {
			return nil, ErrMaxIterations
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		resp, err := a.client.Complete(ctx, a.buildRequest(msgs))
		if err != nil {
			return nil, fmt.Errorf("chat completion: %w", err)
		}

		assistant := Message{
			Role:      RoleAssistant,
			Content:   resp.Content,
			Name:      a.cfg.Name,
			ToolCalls: toToolCalls(resp.ToolCalls),
		}
		msgs = append(msgs, assistant)
		tc.Append(assistant)

		if len(assistant.ToolCalls) == 0 {
			return &RunResult{Content: resp.Content, FinishReason: resp.FinishReason}, nil
		}

		for _, call := range assistant.ToolCalls {
			toolMsg := a.dispatchToolCall(call, tc, nil, nil)
			msgs = append(msgs, toolMsg)
			tc.Append(toolMsg)
		}
	}
}

// RunStream executes one turn in streaming mode, emitting chunks as they are
// produced. Terminal failures (iteration budget, provider errors) are
// converted to a single user-safe error chunk; RunStream never emits both an
// error and a done chunk for the same turn.
func (a *Agent) RunStream(ctx context.Context, prompt string, tc *TurnContext, emit EmitFunc) {
	err := a.runStream(ctx, prompt, tc, emit)
	if err == nil {
		return
	}

	msg := genericUserMessage
	if err == ErrMaxIterations {
		msg = maxIterationsUserMessage
	}
	slog.Error("agent stream error", "agent", a.cfg.Name, "error", err)
	emit(Chunk{Type: ChunkError, Error: msg, Done: true})
}

func (a *Agent) runStream(ctx context.Context, prompt string, tc *TurnContext, emit EmitFunc) error {
	msgs := a.buildMessages(prompt, tc)

	var uiContext *UIContext
	toolResults := make(map[string]map[string]any)

	for iteration := 1; ; iteration++ {
		if iteration > a.cfg.maxIterations() {
			return ErrMaxIterations
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		assistant, err := a.streamOnce(ctx, msgs, emit)
		if err != nil {
			return err
		}

		msgs = append(msgs, assistant)
		tc.Append(assistant)

		if len(assistant.ToolCalls) == 0 {
			emit(Chunk{
				Type:      ChunkDone,
				Content:   assistant.Content,
				UIContext: uiContext,
				Done:      true,
			})
			return nil
		}

		// Tool calls run strictly sequentially, in the order the model
		// emitted them: a render request may reference an earlier call's
		// result.
		for _, call := range assistant.ToolCalls {
			emit(Chunk{
				Type:         ChunkToolCall,
				ToolName:     call.Name,
				UIDescriptor: a.registry.Descriptor(call.Name),
				Arguments:    call.Arguments,
			})

			toolMsg := a.dispatchToolCall(call, tc, toolResults, &uiContext)
			emit(Chunk{Type: ChunkToolResult, ToolName: call.Name, Result: rawResult(toolMsg.Content)})

			msgs = append(msgs, toolMsg)
			tc.Append(toolMsg)
		}
	}
}

// streamOnce makes a single provider call and reassembles the streamed
// deltas into one assistant message, emitting content chunks as fragments
// arrive.
func (a *Agent) streamOnce(ctx context.Context, msgs []Message, emit EmitFunc) (Message, error) {
	acc := NewStreamAccumulator()
	ch := make(chan llm.Delta, 64)

	errCh := make(chan error, 1)
	go func() {
		errCh <- a.client.Stream(ctx, a.buildRequest(msgs), ch)
	}()

	for d := range ch {
		if d.Content != "" {
			emit(Chunk{Type: ChunkContent, Content: d.Content})
		}
		acc.Add(d)
	}

	if err := <-errCh; err != nil {
		return Message{}, fmt.Errorf("chat completion stream: %w", err)
	}

	msg := acc.Message()
	msg.Name = a.cfg.Name
	return msg, nil
}

// dispatchToolCall parses the call's arguments, invokes the handler, and
// serializes the outcome into a tool message keyed by the call id. Failures
// at any step become a structured {"error": ...} result fed back to the
// model; nothing here aborts the turn. When toolResults and uiContext are
// provided (streaming mode), structured results are tracked as render data
// sources and UI render requests are resolved.
func (a *Agent) dispatchToolCall(call ToolCall, tc *TurnContext, toolResults map[string]map[string]any, uiContext **UIContext) Message {
	result := a.executeTool(call, tc)

	if toolResults != nil {
		if obj, ok := result.(map[string]any); ok {
			toolResults[call.Name] = obj
		}
		if uiContext != nil {
			*uiContext = ResolveUIContext(result, toolResults, call.Name, *uiContext)
		}
	}

	content, err := json.Marshal(result)
	if err != nil {
		slog.Error("failed to serialize tool result", "tool", call.Name, "error", err)
		content = []byte(`{"error":"Failed to serialize tool result"}`)
	}
	return ToolMsg(call.ID, call.Name, string(content))
}

func (a *Agent) executeTool(call ToolCall, tc *TurnContext) (result any) {
	// A handler must never raise past the dispatch boundary.
	defer func() {
		if r := recover(); r != nil {
			slog.Error("tool handler panic", "tool", call.Name, "panic", r)
			result = map[string]any{"error": fmt.Sprintf("%v", r)}
		}
	}()

	var args map[string]any
	if err := json.Unmarshal([]byte(call.Arguments), &args); err != nil {
		slog.Error("failed to parse tool arguments", "tool", call.Name, "error", err)
		return map[string]any{"error": "Invalid arguments format"}
	}

	handler := a.registry.Handler(call.Name)
	if handler == nil {
		slog.Error("no handler registered for tool", "tool", call.Name)
		return map[string]any{"error": "Tool not found: " + call.Name}
	}

	out, err := handler(args, tc)
	if err != nil {
		slog.Error("tool execution error", "tool", call.Name, "error", err)
		return map[string]any{"error": err.Error()}
	}
	return out
}

// buildMessages assembles the provider message list: system prompt, prior
// context, then the new user prompt. An empty prompt is skipped, which is
// used for system-triggered turns with no new user text. The user prompt is also
// recorded on the turn log.
func (a *Agent) buildMessages(prompt string, tc *TurnContext) []Message {
	msgs := []Message{System(a.cfg.SystemPrompt)}
	if tc != nil {
		msgs = append(msgs, tc.Messages...)
	}
	if prompt != "" {
		msgs = append(msgs, Human(prompt))
		tc.Append(Human(prompt))
	}
	return msgs
}

func (a *Agent) buildRequest(msgs []Message) llm.Request {
	out := make([]llm.Message, len(msgs))
	for i, m := range msgs {
		out[i] = llm.Message{
			Role:       m.Role,
			Content:    m.Content,
			Name:       m.Name,
			ToolCallID: m.ToolCallID,
		}
		for _, tc := range m.ToolCalls {
			out[i].ToolCalls = append(out[i].ToolCalls, llm.ToolCall(tc))
		}
	}
	return llm.Request{
		Model:    a.cfg.Model,
		Messages: out,
		Tools:    a.schemas, // nil when no tools are registered
	}
}

func toToolCalls(calls []llm.ToolCall) []ToolCall {
	if len(calls) == 0 {
		return nil
	}
	out := make([]ToolCall, len(calls))
	for i, tc := range calls {
		out[i] = ToolCall(tc)
	}
	return out
}

// rawResult decodes a serialized tool result for the tool_result chunk, so
// the caller sees structure rather than an embedded JSON string.
func rawResult(content string) any {
	var v any
	if err := json.Unmarshal([]byte(content), &v); err != nil {
		return content
	}
	return v
}
