package agent

import "errors"

// ErrMaxIterations is returned when a turn needs more provider calls than
// the configured budget allows. Terminal for the turn, not the process.
var ErrMaxIterations = errors.New("exceeded maximum iterations")

// User-safe messages surfaced on terminal error chunks. Internal detail is
// logged, never streamed to the caller.
const (
	maxIterationsUserMessage = "I'm having trouble completing this request. Please try rephrasing or breaking it into smaller steps."
	genericUserMessage       = "I encountered an error while processing your request. Please try again."
)
