package agent

import "log/slog"

// Tool result fields that request a UI render.
const (
	uiActionField   = "ui_action"
	dataSourceField = "data_source"
)

// UIContext is a resolved instruction describing which previously produced
// tool data should be rendered and under which view. At most one survives a
// turn; the last resolution wins.
type UIContext struct {
	Action     string `json:"action"`
	Data       any    `json:"data"`
	SourceTool string `json:"source_tool"`
}

// ResolveUIContext inspects a tool result for a UI render request and
// resolves its data_source against previously captured tool results. When
// the result carries no request, or the referenced tool was never called,
// the existing context is returned unchanged; the model may call the render
// tool with a stale or wrong reference, and that must not fail the turn.
func ResolveUIContext(result any, priorResults map[string]map[string]any, toolName string, existing *UIContext) *UIContext {
	obj, ok := result.(map[string]any)
	if !ok {
		return existing
	}

	action, ok := obj[uiActionField].(string)
	if !ok || action == "" {
		return existing
	}

	dataSource, _ := obj[dataSourceField].(string)
	data, ok := priorResults[dataSource]
	if !ok {
		slog.Warn("no UI data available for action",
			"action", action, "data_source", dataSource, "tool", toolName)
		return existing
	}

	return &UIContext{
		Action:     action,
		Data:       data,
		SourceTool: dataSource,
	}
}
