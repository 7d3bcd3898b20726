// Package repl implements the interactive loop: read a request, ask the model, show the answer.
package repl

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/iishyfishyy/cmdpal/internal/history"
	"github.com/iishyfishyy/cmdpal/internal/interpreter"
	"github.com/iishyfishyy/cmdpal/internal/risk"
	"github.com/iishyfishyy/cmdpal/internal/ui"
	"go.uber.org/zap"
)

const (
	// ExitCommand ends the loop, compared case-insensitively
	ExitCommand = "exit"

	// ExecuteMarker in front of a request runs the generated commands
	ExecuteMarker = "!"
)

// resetCommands forget the conversation when memory is on, compared case-insensitively
var resetCommands = []string{"clear", "reset"}

// Assistant is what the loop needs from the model side
type Assistant interface {
	Generate(ctx context.Context, prompt string) (*interpreter.ParsedResponse, error)
	Execute(ctx context.Context, resp *interpreter.ParsedResponse)
}

// Memory is conversation state that can be forgotten
type Memory interface {
	Reset()
}

// Recorder stores finished turns
type Recorder interface {
	Record(ctx context.Context, entry history.Entry) (history.Entry, error)
}

// Input is one parsed line
type Input struct {
	Prompt  string
	Execute bool
	Exit    bool

	// Reset is set for a reset command, Prompt still holds the text
	Reset bool
}

// ParseInput interprets a raw line. Surrounding whitespace is ignored; a leading marker
// requests execution and is stripped together with the space after it.
func ParseInput(line string) Input {
	trimmed := strings.TrimSpace(line)
	if strings.EqualFold(trimmed, ExitCommand) {
		return Input{Exit: true}
	}
	for _, cmd := range resetCommands {
		if strings.EqualFold(trimmed, cmd) {
			return Input{Prompt: trimmed, Reset: true}
		}
	}
	if strings.HasPrefix(trimmed, ExecuteMarker) {
		return Input{
			Prompt:  strings.TrimSpace(strings.TrimPrefix(trimmed, ExecuteMarker)),
			Execute: true,
		}
	}
	return Input{Prompt: trimmed}
}

// REPL reads requests line by line and handles them one at a time
type REPL struct {
	assistant Assistant
	in        io.Reader
	out       io.Writer
	recorder  Recorder
	memory    Memory
	spinner   bool
	logger    *zap.Logger
}

// Option configures a REPL
type Option func(*REPL)

// WithRecorder stores every turn
func WithRecorder(r Recorder) Option {
	return func(l *REPL) {
		l.recorder = r
	}
}

// WithMemory lets the reset commands clear m. Without it they are sent as requests.
func WithMemory(m Memory) Option {
	return func(l *REPL) {
		l.memory = m
	}
}

// WithSpinner animates a spinner while waiting for the model
func WithSpinner(enabled bool) Option {
	return func(l *REPL) {
		l.spinner = enabled
	}
}

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) Option {
	return func(l *REPL) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// New creates a loop reading from in and writing to out
func New(assistant Assistant, in io.Reader, out io.Writer, opts ...Option) *REPL {
	l := &REPL{
		assistant: assistant,
		in:        in,
		out:       out,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Run loops until the exit command, end of input or ctx is done. Failures of a single turn
// are printed and never end the loop.
func (l *REPL) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	ui.RenderBanner(l.out)

	lines := make(chan string)
	readErr := make(chan error, 1)
	go l.readLines(ctx, lines, readErr)

	for {
		ui.RenderPrompt(l.out)

		var line string
		select {
		case <-ctx.Done():
			ui.RenderGoodbye(l.out)
			return nil
		case err := <-readErr:
			if err != nil {
				return fmt.Errorf("failed to read input: %w", err)
			}
			ui.RenderGoodbye(l.out)
			return nil
		case line = <-lines:
		}

		input := ParseInput(line)
		if input.Exit {
			ui.RenderGoodbye(l.out)
			return nil
		}
		if input.Reset && l.memory != nil {
			l.memory.Reset()
			ui.RenderHint(l.out, "Conversation memory cleared.")
			fmt.Fprintln(l.out)
			continue
		}
		if input.Prompt == "" {
			ui.RenderHint(l.out, "Please type a request, or 'exit' to quit.")
			fmt.Fprintln(l.out)
			continue
		}

		l.Turn(ctx, input)
		fmt.Fprintln(l.out)
	}
}

// readLines feeds lines until EOF. A nil error on readErr means end of input.
func (l *REPL) readLines(ctx context.Context, lines chan<- string, readErr chan<- error) {
	scanner := bufio.NewScanner(l.in)
	for scanner.Scan() {
		select {
		case lines <- scanner.Text():
		case <-ctx.Done():
			return
		}
	}
	readErr <- scanner.Err()
}

// Turn handles one request from generation to display
func (l *REPL) Turn(ctx context.Context, input Input) {
	resp, err := l.generate(ctx, input.Prompt)
	if err != nil {
		l.logger.Debug("backend call failed", zap.Error(err))
		ui.RenderBackendError(l.out, err)
		return
	}

	if input.Execute && resp.HasCommands() && !resp.HasError() {
		ui.RenderFindings(l.out, risk.AssessAll(resp.Commands))
		l.assistant.Execute(ctx, resp)
	}

	ui.RenderResponse(l.out, resp, input.Execute)
	l.record(ctx, input, resp)
}

func (l *REPL) generate(ctx context.Context, prompt string) (*interpreter.ParsedResponse, error) {
	if l.spinner {
		stop := ui.NewSpinner(l.out).Start(ctx)
		defer stop()
	}
	return l.assistant.Generate(ctx, prompt)
}

func (l *REPL) record(ctx context.Context, input Input, resp *interpreter.ParsedResponse) {
	if l.recorder == nil {
		return
	}
	executed := input.Execute && len(resp.ExecutionResults) > 0
	if _, err := l.recorder.Record(ctx, history.NewEntry(input.Prompt, resp, executed)); err != nil {
		l.logger.Warn("failed to record history", zap.Error(err))
	}
}
