package interpreter

import "github.com/iishyfishyy/cmdpal/internal/executor"

// ParseFailureMessage is the error reported when the model reply is not a usable JSON object
const ParseFailureMessage = "failed to parse model response"

// ParsedResponse is the result of one interaction with the model
type ParsedResponse struct {
	Commands         []string                   `json:"commands"`
	Explanation      string                     `json:"explanation"`
	Caution          *string                    `json:"caution"`
	Error            *string                    `json:"error,omitempty"`
	ExecutionResults []executor.ExecutionResult `json:"execution_results,omitempty"`
}

// HasCommands reports whether the model produced at least one command
func (r *ParsedResponse) HasCommands() bool {
	return len(r.Commands) > 0
}

// HasError reports whether the model declined, parsing failed or execution failed
func (r *ParsedResponse) HasError() bool {
	return r.Error != nil
}

// ErrorText returns the error message or ""
func (r *ParsedResponse) ErrorText() string {
	if r.Error == nil {
		return ""
	}
	return *r.Error
}

// CautionText returns the caution or ""
func (r *ParsedResponse) CautionText() string {
	if r.Caution == nil {
		return ""
	}
	return *r.Caution
}

// SetError replaces the error message
func (r *ParsedResponse) SetError(msg string) {
	r.Error = &msg
}

func failed() ParsedResponse {
	msg := ParseFailureMessage
	return ParsedResponse{
		Commands: []string{},
		Error:    &msg,
	}
}
