package cli

import (
	"encoding/json"
	"fmt"
	"os"
)

// jsonOutput is set by the root --json flag.
var jsonOutput bool

// Response is the envelope every command emits in JSON mode.
type Response struct {
	OK       bool        `json:"ok"`
	Data     interface{} `json:"data,omitempty"`
	Error    *ErrorInfo  `json:"error,omitempty"`
	Warnings []Warning   `json:"warnings,omitempty"`
	Meta     *Meta       `json:"meta,omitempty"`
}

// ErrorInfo is the structured error payload.
type ErrorInfo struct {
	Code       string      `json:"code"`
	Message    string      `json:"message"`
	Details    interface{} `json:"details,omitempty"`
	Suggestion string      `json:"suggestion,omitempty"`
}

// Warning reports a non-fatal problem, typically one branch of a
// search failing while the others returned records.
type Warning struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Branch  string `json:"branch,omitempty"`
	Client  string `json:"client,omitempty"`
}

// Meta carries response-level counters.
type Meta struct {
	Count       int   `json:"count,omitempty"`
	QueryTimeMs int64 `json:"query_time_ms,omitempty"`
}

func isJSONOutput() bool {
	return jsonOutput
}

func emit(resp Response) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(resp)
}

// outputSuccess emits an ok envelope with optional meta.
func outputSuccess(data interface{}, meta *Meta) {
	emit(Response{OK: true, Data: data, Meta: meta})
}

// outputSuccessWithWarnings emits an ok envelope carrying warnings.
func outputSuccessWithWarnings(data interface{}, warnings []Warning, meta *Meta) {
	emit(Response{OK: true, Data: data, Warnings: warnings, Meta: meta})
}

// outputError emits a failed envelope.
func outputError(code, message string, details interface{}, suggestion string) {
	emit(Response{OK: false, Error: &ErrorInfo{
		Code:       code,
		Message:    message,
		Details:    details,
		Suggestion: suggestion,
	}})
}

// The handle* family reports a command failure in the active output
// mode. In JSON mode they print the envelope and return nil so cobra
// does not repeat the error; in text mode they return an error for
// cobra to print.

func handleError(code string, err error, suggestion string) error {
	return commandFailure(code, err.Error(), nil, suggestion, err)
}

func handleErrorMsg(code, message, suggestion string) error {
	return commandFailure(code, message, nil, suggestion, nil)
}

func handleErrorWithDetails(code, message, suggestion string, details interface{}) error {
	return commandFailure(code, message, details, suggestion, nil)
}

func commandFailure(code, message string, details interface{}, suggestion string, err error) error {
	if jsonOutput {
		outputError(code, message, details, suggestion)
		return nil
	}
	if err != nil {
		return err
	}
	return fmt.Errorf("%s", message)
}
