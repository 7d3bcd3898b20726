package ui

import (
	"fmt"
	"io"
	"strings"

	"github.com/AlecAivazis/survey/v2"
	"github.com/fatih/color"
	"github.com/iishyfishyy/cmdpal/internal/risk"
)

// Action represents the user's choice
type Action int

const (
	ActionRun Action = iota
	ActionCancel
	ActionModify
)

// PromptOllamaURL asks for the address of the Ollama server
func PromptOllamaURL(current string) (string, error) {
	var url string
	prompt := &survey.Input{
		Message: "Ollama server URL:",
		Default: current,
	}

	if err := survey.AskOne(prompt, &url, survey.WithValidator(survey.Required)); err != nil {
		return "", err
	}

	return strings.TrimSpace(url), nil
}

// SelectModel asks the user to pick one of the models the server has
func SelectModel(models []string, current string) (string, error) {
	var model string
	prompt := &survey.Select{
		Message: "Select a model:",
		Options: models,
	}
	for _, m := range models {
		if m == current {
			prompt.Default = current
		}
	}

	if err := survey.AskOne(prompt, &model); err != nil {
		return "", err
	}

	return model, nil
}

// PromptModel asks for a model name when the server could not list any
func PromptModel(current string) (string, error) {
	var model string
	prompt := &survey.Input{
		Message: "Model name:",
		Default: current,
	}

	if err := survey.AskOne(prompt, &model, survey.WithValidator(survey.Required)); err != nil {
		return "", err
	}

	return strings.TrimSpace(model), nil
}

// PromptYesNo asks a yes/no question
func PromptYesNo(message string, def bool) (bool, error) {
	answer := def
	prompt := &survey.Confirm{
		Message: message,
		Default: def,
	}

	if err := survey.AskOne(prompt, &answer); err != nil {
		return false, err
	}

	return answer, nil
}

// Choices offered by ConfirmCommands
const (
	ChoiceRun    = "Run it"
	ChoiceModify = "Modify it"
	ChoiceCancel = "Cancel"
)

// ConfirmCommands asks what to do with commands already shown by RenderProposal
func ConfirmCommands() (Action, error) {
	var choice string
	prompt := &survey.Select{
		Message: "What would you like to do?",
		Options: []string{
			ChoiceRun,
			ChoiceModify,
			ChoiceCancel,
		},
	}

	if err := survey.AskOne(prompt, &choice); err != nil {
		return ActionCancel, err
	}

	return ActionFor(choice), nil
}

// ActionFor maps a menu choice to an Action, anything unknown cancels
func ActionFor(choice string) Action {
	switch choice {
	case ChoiceRun:
		return ActionRun
	case ChoiceModify:
		return ActionModify
	default:
		return ActionCancel
	}
}

// PromptForModification asks the user how to change the request
func PromptForModification() (string, error) {
	var modification string
	prompt := &survey.Input{
		Message: "How would you like to modify the commands?",
	}

	if err := survey.AskOne(prompt, &modification, survey.WithValidator(survey.Required)); err != nil {
		return "", err
	}

	return modification, nil
}

// ShowSection displays a section header
func ShowSection(title string) {
	cyan := color.New(color.FgCyan, color.Bold)
	cyan.Printf("\n%s\n", title)
	cyan.Println(strings.Repeat("=", len(title)))
}

// ShowSuccess displays a success message
func ShowSuccess(message string) {
	green := color.New(color.FgGreen, color.Bold)
	green.Printf("✓ %s\n", message)
}

// ShowError displays an error message
func ShowError(message string) {
	red := color.New(color.FgRed, color.Bold)
	red.Printf("✗ %s\n", message)
}

// ShowWarning displays a warning
func ShowWarning(message string) {
	yellow := color.New(color.FgYellow, color.Bold)
	yellow.Printf("! %s\n", message)
}

// ShowInfo displays an info message
func ShowInfo(message string) {
	blue := color.New(color.FgBlue)
	blue.Println(message)
}

// RenderFindings prints risk findings, one per line. Nothing is printed without findings.
func RenderFindings(w io.Writer, findings []risk.Finding) {
	if len(findings) == 0 {
		return
	}
	yellow := color.New(color.FgYellow, color.Bold)
	yellow.Fprintln(w, "Warning: review before running")
	for _, f := range findings {
		fmt.Fprintf(w, "  %s (%s)\n", f.String(), f.Command)
	}
	fmt.Fprintln(w)
}
