package domain

import "strings"

const NoOutputMessage = "Program executed with no output."

// ExecutionRequest is transient, it lives as long as the HTTP request that carries it.
type ExecutionRequest struct {
	Code         string
	Language     Language
	Room         RoomID
	ConnectionID ConnectionID
}

// Output is what the toolchain wrote, both channels kept apart.
type Output struct {
	Stdout string
	Stderr string
}

// Failed reports whether anything was written on the error channel.
func (o Output) Failed() bool {
	return strings.TrimSpace(o.Stderr) != ""
}

// ExecutionResult is broadcast once and then discarded.
type ExecutionResult struct {
	Output
	AIExplanation string
}

// Combined is the single text shown in the terminal pane: stdout first,
// then stderr, then a placeholder when the program printed nothing.
func (r ExecutionResult) Combined() string {
	switch {
	case r.Stdout != "":
		return r.Stdout
	case r.Stderr != "":
		return r.Stderr
	default:
		return NoOutputMessage
	}
}
