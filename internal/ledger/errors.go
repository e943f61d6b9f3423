package ledger

import (
	"fmt"
	"strings"
)

// StackFrame is one frame of a node-side error, carrying a message template
// with ${name} placeholders and the data to substitute into them.
type StackFrame struct {
	Format string         `json:"format"`
	Data   map[string]any `json:"data"`
}

// RemoteErrorData is the structured body a node attaches to a failed call.
type RemoteErrorData struct {
	Code    int          `json:"code"`
	Name    string       `json:"name"`
	Message string       `json:"message"`
	Stack   []StackFrame `json:"stack"`
}

// RemoteError wraps a structured failure returned by the node. The raw
// message is preserved; FormattedMessage derives the user-facing text.
type RemoteError struct {
	Code    int              `json:"code"`
	Message string           `json:"message"`
	Data    *RemoteErrorData `json:"data,omitempty"`
}

func (e *RemoteError) Error() string {
	if msg := e.FormattedMessage(); msg != "" {
		return msg
	}
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("remote error %d", e.Code)
}

// FormattedMessage interpolates the first stack frame's template, replacing
// every ${name} placeholder with the matching value from the frame's data.
// Returns "" when no structured message is present.
func (e *RemoteError) FormattedMessage() string {
	if e == nil || e.Data == nil || len(e.Data.Stack) == 0 {
		return ""
	}
	frame := e.Data.Stack[0]
	message := frame.Format
	for key, value := range frame.Data {
		message = strings.ReplaceAll(message, "${"+key+"}", fmt.Sprintf("%v", value))
	}
	return message
}
