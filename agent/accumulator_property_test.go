package agent

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"shopchat/llm"
)

// splitString cuts s into len(cuts)+1 pieces at positions derived from cuts.
func splitString(s string, cuts []int) []string {
	if len(s) == 0 {
		return []string{""}
	}
	points := make([]int, 0, len(cuts))
	for _, c := range cuts {
		points = append(points, c%(len(s)+1))
	}
	prev := 0
	var parts []string
	for _, p := range points {
		if p < prev {
			p = prev
		}
		parts = append(parts, s[prev:p])
		prev = p
	}
	parts = append(parts, s[prev:])
	return parts
}

// Reassembling arbitrarily fragmented name and argument strings always
// yields their full concatenation, regardless of where the provider cut
// the fragments.
func TestStreamAccumulator_ReassemblyProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("fragmented tool call reassembles exactly", prop.ForAll(
		func(name string, args string, nameCuts []int, argCuts []int) bool {
			nameParts := splitString(name, nameCuts)
			argParts := splitString(args, argCuts)

			acc := NewStreamAccumulator()
			acc.Add(llm.Delta{ToolCalls: []llm.ToolCallDelta{{Index: 0, ID: "call_1"}}})
			for _, p := range nameParts {
				acc.Add(llm.Delta{ToolCalls: []llm.ToolCallDelta{{Index: 0, Name: p}}})
			}
			for _, p := range argParts {
				acc.Add(llm.Delta{ToolCalls: []llm.ToolCallDelta{{Index: 0, Arguments: p}}})
			}
			acc.Add(llm.Delta{FinishReason: llm.FinishToolCalls})

			msg := acc.Message()
			if len(msg.ToolCalls) != 1 {
				return false
			}
			return msg.ToolCalls[0].ID == "call_1" &&
				msg.ToolCalls[0].Name == name &&
				msg.ToolCalls[0].Arguments == args
		},
		gen.AlphaString(),
		gen.AnyString(),
		gen.SliceOf(gen.IntRange(0, 1<<20)),
		gen.SliceOf(gen.IntRange(0, 1<<20)),
	))

	properties.Property("fragmented content reassembles exactly", prop.ForAll(
		func(content string, cuts []int) bool {
			acc := NewStreamAccumulator()
			for _, p := range splitString(content, cuts) {
				acc.Add(llm.Delta{Content: p})
			}
			acc.Add(llm.Delta{FinishReason: llm.FinishStop})
			return acc.Message().Content == content
		},
		gen.AnyString(),
		gen.SliceOf(gen.IntRange(0, 1<<20)),
	))

	properties.TestingRun(t)
}
