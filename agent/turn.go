package agent

// TurnContext is the per-turn mutable bag passed by reference into the agent
// and every tool handler. The agent appends each message it produces, in
// order, so the caller can persist the exact conversation log after the turn
// completes. Create one per inbound turn; never share across turns.
type TurnContext struct {
	SessionID      string
	ConversationID string
	Messages       []Message
}

// Append records a message on the turn log. Safe to call on a nil context,
// which records nothing (used for throwaway turns like classification).
func (tc *TurnContext) Append(msg Message) {
	if tc == nil {
		return
	}
	tc.Messages = append(tc.Messages, msg)
}
