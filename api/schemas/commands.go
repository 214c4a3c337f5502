// api/schemas/commands.go
package schemas

import (
	encjson "encoding/json"
	"fmt"
)

// CommandType enumerates the request types of the control protocol.
type CommandType string

const (
	CmdStartAutomation  CommandType = "START_AUTOMATION"
	CmdStopAutomation   CommandType = "STOP_AUTOMATION"
	CmdPauseAutomation  CommandType = "PAUSE_AUTOMATION"
	CmdResumeAutomation CommandType = "RESUME_AUTOMATION"
	CmdGetStatus        CommandType = "GET_STATUS"
	CmdTestSelector     CommandType = "TEST_SELECTOR"
	CmdLogAction        CommandType = "LOG_ACTION"
)

// Command is one request of the control protocol. Data is decoded per-type
// by the engine's handler.
type Command struct {
	Type CommandType        `json:"type"`
	Data encjson.RawMessage `json:"data,omitempty"`
}

// Response is the uniform reply envelope.
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// OK wraps a payload in a successful response.
func OK(data interface{}) Response {
	return Response{Success: true, Data: data}
}

// Fail wraps an error message in a failed response.
func Fail(format string, args ...interface{}) Response {
	return Response{Success: false, Error: fmt.Sprintf(format, args...)}
}

// StartRequest is the payload of a START_AUTOMATION command.
type StartRequest struct {
	ScenarioID    string         `json:"scenarioId"`
	WebsiteConfig *WebsiteConfig `json:"websiteConfig"`
}

// StartResult is the payload of a successful START_AUTOMATION response.
type StartResult struct {
	SessionID string `json:"sessionId"`
}

// StatusData is the payload of a GET_STATUS response.
type StatusData struct {
	IsRunning      bool    `json:"isRunning"`
	IsPaused       bool    `json:"isPaused"`
	CurrentSession string  `json:"currentSession,omitempty"`
	CurrentPage    string  `json:"currentPage,omitempty"`
	// Progress is a percentage in [0,100].
	Progress float64 `json:"progress"`
	// DurationMs is elapsed session time in milliseconds.
	DurationMs int64 `json:"duration"`
	// Status is the session state name (idle, running, paused, completed,
	// timedOut, error).
	Status string `json:"status"`
	// LastError carries the originating message when Status is "error".
	LastError string `json:"lastError,omitempty"`
	// Metrics is the per-metric current/required snapshot.
	Metrics map[string]MetricStatus `json:"metrics,omitempty"`
}

// MetricStatus is one metric's current/required pair.
type MetricStatus struct {
	Current  float64 `json:"current"`
	Required float64 `json:"required"`
	Optional bool    `json:"optional,omitempty"`
}

// TestSelectorRequest is the payload of a TEST_SELECTOR command.
type TestSelectorRequest struct {
	Selector string `json:"selector"`
}

// TestSelectorResult reports whether a selector resolved and, if so, a short
// description of the element.
type TestSelectorResult struct {
	Found   bool   `json:"found"`
	Element string `json:"element,omitempty"`
}

// LogActionRequest is the payload of a fire-and-forget LOG_ACTION command.
type LogActionRequest struct {
	ActionType string                 `json:"actionType"`
	Context    map[string]interface{} `json:"context,omitempty"`
}
