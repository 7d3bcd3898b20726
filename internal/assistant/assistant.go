// Package assistant runs one turn: ask the model, parse its reply and optionally run the commands.
package assistant

import (
	"context"
	"fmt"

	"github.com/iishyfishyy/cmdpal/internal/agent"
	"github.com/iishyfishyy/cmdpal/internal/executor"
	"github.com/iishyfishyy/cmdpal/internal/interpreter"
	"go.uber.org/zap"
)

// Assistant ties together the model, the response parser and the command runner
type Assistant struct {
	agent  agent.Agent
	parser *interpreter.Parser
	runner *executor.Runner
	logger *zap.Logger
}

// New creates an assistant. A nil parser or runner gets the package defaults.
func New(a agent.Agent, parser *interpreter.Parser, runner *executor.Runner, logger *zap.Logger) *Assistant {
	if logger == nil {
		logger = zap.NewNop()
	}
	if parser == nil {
		parser = interpreter.NewParser(logger)
	}
	if runner == nil {
		runner = executor.NewRunner(logger)
	}
	return &Assistant{
		agent:  a,
		parser: parser,
		runner: runner,
		logger: logger,
	}
}

// Generate asks the model for commands. Backend failures are returned as is; a reply the
// parser cannot use comes back as a response with Error set.
func (a *Assistant) Generate(ctx context.Context, prompt string) (*interpreter.ParsedResponse, error) {
	a.logger.Debug("sending request", zap.String("prompt", prompt))

	raw, err := a.agent.Chat(ctx, prompt)
	if err != nil {
		return nil, err
	}

	a.logger.Debug("model replied", zap.String("raw", raw))
	resp := a.parser.Parse(raw)
	return &resp, nil
}

// Execute runs the commands of resp in order. Nothing runs when the model produced no
// commands or reported an error. Failed commands are summarized into resp.Error.
func (a *Assistant) Execute(ctx context.Context, resp *interpreter.ParsedResponse) {
	if resp == nil || !resp.HasCommands() || resp.HasError() {
		return
	}

	resp.ExecutionResults = a.runner.Run(ctx, resp.Commands)

	failed := 0
	for _, result := range resp.ExecutionResults {
		if result.Failed() {
			failed++
		}
	}
	if failed > 0 {
		a.logger.Debug("commands failed",
			zap.Int("failed", failed),
			zap.Int("total", len(resp.ExecutionResults)),
		)
		resp.SetError(fmt.Sprintf("%d of %d commands failed", failed, len(resp.ExecutionResults)))
	}
}

// Handle generates a response and runs it when execute is set
func (a *Assistant) Handle(ctx context.Context, prompt string, execute bool) (*interpreter.ParsedResponse, error) {
	resp, err := a.Generate(ctx, prompt)
	if err != nil {
		return nil, err
	}
	if execute {
		a.Execute(ctx, resp)
	}
	return resp, nil
}
