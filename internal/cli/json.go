package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// jsonOutput is set by --json.
var jsonOutput bool

func isJSONOutput() bool { return jsonOutput }

// Response is the envelope every --json command prints, success or not.
type Response struct {
	OK       bool       `json:"ok"`
	Data     any        `json:"data,omitempty"`
	Error    *ErrorInfo `json:"error,omitempty"`
	Warnings []Warning  `json:"warnings,omitempty"`
	Meta     *Meta      `json:"meta,omitempty"`
}

// ErrorInfo carries a stable code alongside the message.
type ErrorInfo struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	Details    any    `json:"details,omitempty"`
	Suggestion string `json:"suggestion,omitempty"`
}

// Warning is a problem that did not stop the command. Pos is a byte offset
// into the query for query diagnostics.
type Warning struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Pos     *int   `json:"pos,omitempty"`
}

type Meta struct {
	Count       int   `json:"count"`
	QueryTimeMs int64 `json:"query_time_ms"`
}

func writeEnvelope(w io.Writer, resp Response) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(resp)
}

func outputSuccess(data any, meta *Meta) {
	outputSuccessWithWarnings(data, nil, meta)
}

func outputSuccessWithWarnings(data any, warnings []Warning, meta *Meta) {
	_ = writeEnvelope(os.Stdout, Response{OK: true, Data: data, Warnings: warnings, Meta: meta})
}

func outputError(code, message string, details any, suggestion string) {
	info := &ErrorInfo{Code: code, Message: message, Details: details, Suggestion: suggestion}
	_ = writeEnvelope(os.Stdout, Response{Error: info})
}

// handleError prints the error envelope in JSON mode and returns errReported.
// In text mode the suggestion is appended for Execute to print.
func handleError(code string, err error, suggestion string) error {
	return reportError(code, err, suggestion, nil)
}

func handleErrorWithDetails(code, message, suggestion string, details any) error {
	return reportError(code, fmt.Errorf("%s", message), suggestion, details)
}

func reportError(code string, err error, suggestion string, details any) error {
	if jsonOutput {
		outputError(code, err.Error(), details, suggestion)
		return errReported
	}
	if suggestion == "" {
		return err
	}
	return fmt.Errorf("%w\n\n%s", err, suggestion)
}
