package agent

import (
	"sort"
	"strings"

	"shopchat/llm"
)

// StreamAccumulator reassembles an ordered sequence of provider deltas into
// one complete assistant message. Content fragments are concatenated; tool
// call fragments are buffered per zero-based index, with the id taken from
// whichever fragment carries it and name/arguments concatenated across
// fragments. A fresh accumulator is used for every provider call; it holds
// no state across loop iterations.
type StreamAccumulator struct {
	content      strings.Builder
	calls        map[int]*toolCallBuffer
	finishReason string
}

type toolCallBuffer struct {
	id   string
	name strings.Builder
	args strings.Builder
}

// NewStreamAccumulator creates an accumulator with empty buffers.
func NewStreamAccumulator() *StreamAccumulator {
	return &StreamAccumulator{calls: make(map[int]*toolCallBuffer)}
}

// Add consumes one delta event.
func (a *StreamAccumulator) Add(d llm.Delta) {
	a.content.WriteString(d.Content)

	for _, tc := range d.ToolCalls {
		buf, ok := a.calls[tc.Index]
		if !ok {
			buf = &toolCallBuffer{}
			a.calls[tc.Index] = buf
		}
		if tc.ID != "" {
			buf.id = tc.ID
		}
		buf.name.WriteString(tc.Name)
		buf.args.WriteString(tc.Arguments)
	}

	if d.FinishReason != "" {
		a.finishReason = d.FinishReason
	}
}

// FinishReason returns the terminal finish reason seen so far, or "".
func (a *StreamAccumulator) FinishReason() string {
	return a.finishReason
}

// Message finalizes the accumulated assistant message. Buffered tool calls
// are attached, ordered by index, only when the provider signalled a
// tool-call finish and at least one call was buffered.
func (a *StreamAccumulator) Message() Message {
	msg := Message{Role: RoleAssistant, Content: a.content.String()}

	if a.finishReason != llm.FinishToolCalls || len(a.calls) == 0 {
		return msg
	}

	indexes := make([]int, 0, len(a.calls))
	for idx := range a.calls {
		indexes = append(indexes, idx)
	}
	sort.Ints(indexes)

	for _, idx := range indexes {
		buf := a.calls[idx]
		msg.ToolCalls = append(msg.ToolCalls, ToolCall{
			ID:        buf.id,
			Name:      buf.name.String(),
			Arguments: buf.args.String(),
		})
	}
	return msg
}
