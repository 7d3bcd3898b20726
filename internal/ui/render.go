package ui

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/iishyfishyy/cmdpal/internal/interpreter"
	"github.com/iishyfishyy/cmdpal/internal/risk"
)

var (
	errorLabel       = color.New(color.FgRed)
	commandsLabel    = color.New(color.FgBlue, color.Bold)
	explanationLabel = color.New(color.FgMagenta, color.Bold)
	cautionLabel     = color.New(color.FgYellow, color.Bold)
	resultsLabel     = color.New(color.FgGreen, color.Bold)
	execErrorLabel   = color.New(color.FgRed, color.Bold)
	bannerStyle      = color.New(color.FgCyan, color.Bold)
	promptStyle      = color.New(color.FgGreen)
	goodbyeStyle     = color.New(color.FgYellow)
	hintStyle        = color.New(color.Faint)
)

// RenderResponse prints a response. An error the model reported, or a parse failure, is
// shown alone. Execution results and their failure summary are printed when executed is set.
func RenderResponse(w io.Writer, resp *interpreter.ParsedResponse, executed bool) {
	if resp == nil {
		return
	}

	if resp.HasError() && len(resp.ExecutionResults) == 0 {
		errorLabel.Fprint(w, "Error: ")
		fmt.Fprintln(w, resp.ErrorText())
		return
	}

	commandsLabel.Fprint(w, "Command(s):\n\n")
	for _, cmd := range resp.Commands {
		fmt.Fprintln(w, cmd)
	}
	fmt.Fprintln(w)

	explanationLabel.Fprint(w, "Explanation: ")
	fmt.Fprintln(w, resp.Explanation)

	if caution := resp.CautionText(); caution != "" {
		cautionLabel.Fprint(w, "Caution: ")
		fmt.Fprintln(w, caution)
	}

	if !executed || len(resp.ExecutionResults) == 0 {
		return
	}

	resultsLabel.Fprintln(w, "Execution Results:")
	for _, result := range resp.ExecutionResults {
		commandsLabel.Fprintf(w, "Command: %s\n", result.Command)
		fmt.Fprintf(w, "Output:\n%s\n\n", result.Output)
	}
	if resp.HasError() {
		execErrorLabel.Fprintln(w, "Execution Error:")
		fmt.Fprintln(w, resp.ErrorText())
	}
}

// RenderProposal prints generated commands that are waiting for confirmation, followed by
// any risk findings
func RenderProposal(w io.Writer, resp *interpreter.ParsedResponse) {
	RenderResponse(w, resp, false)
	if resp != nil && !resp.HasError() {
		fmt.Fprintln(w)
		RenderFindings(w, risk.AssessAll(resp.Commands))
	}
}

// RenderBackendError prints a failure to reach the model
func RenderBackendError(w io.Writer, err error) {
	errorLabel.Fprint(w, "An error occurred: ")
	fmt.Fprintln(w, err.Error())
}

// RenderHint prints a dimmed note
func RenderHint(w io.Writer, message string) {
	hintStyle.Fprintln(w, message)
}

// RenderBanner prints the welcome line of the interactive loop
func RenderBanner(w io.Writer) {
	bannerStyle.Fprint(w, "Welcome to the Linux Command Assistant. Type 'exit' to quit.\n\n")
}

// RenderPrompt prints the input prompt of the interactive loop
func RenderPrompt(w io.Writer) {
	promptStyle.Fprintln(w, "Enter your command or question:")
	color.New(color.Bold).Fprintln(w, "Remember to prefix your command with '!' to execute commands.")
}

// RenderGoodbye prints the farewell line
func RenderGoodbye(w io.Writer) {
	goodbyeStyle.Fprintln(w, "Goodbye!")
}
