package assistant

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/iishyfishyy/cmdpal/internal/agent"
	"github.com/iishyfishyy/cmdpal/internal/executor"
	"github.com/iishyfishyy/cmdpal/internal/interpreter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func reply(text string) agent.Agent {
	return agent.Func(func(ctx context.Context, prompt string) (string, error) {
		return text, nil
	})
}

func newTestAssistant(t *testing.T, a agent.Agent) (*Assistant, string) {
	t.Helper()
	logger := zaptest.NewLogger(t)
	runner := executor.NewRunner(logger)
	runner.Shell = "/bin/sh"
	runner.Dir = t.TempDir()
	return New(a, interpreter.NewParser(logger), runner, logger), runner.Dir
}

func TestGenerate_ReturnsParsedResponse(t *testing.T) {
	var gotPrompt string
	a := agent.Func(func(ctx context.Context, prompt string) (string, error) {
		gotPrompt = prompt
		return "```json\n{\"commands\":[\"ls -la\"],\"explanation\":\"Lists all files\",\"caution\":null}\n```", nil
	})
	asst, _ := newTestAssistant(t, a)

	resp, err := asst.Generate(context.Background(), "list all files")
	require.NoError(t, err)

	assert.Equal(t, "list all files", gotPrompt)
	assert.Equal(t, []string{"ls -la"}, resp.Commands)
	assert.Equal(t, "Lists all files", resp.Explanation)
	assert.Nil(t, resp.Caution)
	assert.Nil(t, resp.Error)
	assert.Nil(t, resp.ExecutionResults)
}

func TestGenerate_BackendErrorPropagates(t *testing.T) {
	backendErr := &agent.BackendError{Op: "chat", Err: errors.New("connection refused")}
	a := agent.Func(func(ctx context.Context, prompt string) (string, error) {
		return "", backendErr
	})
	asst, _ := newTestAssistant(t, a)

	resp, err := asst.Generate(context.Background(), "anything")

	assert.Nil(t, resp)
	var target *agent.BackendError
	require.ErrorAs(t, err, &target)
	assert.Same(t, backendErr, target)
}

func TestGenerate_UnparsableReply(t *testing.T) {
	asst, _ := newTestAssistant(t, reply("I think you want ls"))

	resp, err := asst.Generate(context.Background(), "list files")
	require.NoError(t, err)

	assert.Empty(t, resp.Commands)
	assert.Equal(t, interpreter.ParseFailureMessage, resp.ErrorText())
}

func TestHandle_ModelDeclined(t *testing.T) {
	asst, dir := newTestAssistant(t, reply(`{"error":"Cannot map this request to a Linux command"}`))

	resp, err := asst.Handle(context.Background(), "make me a sandwich", true)
	require.NoError(t, err)

	assert.Equal(t, "Cannot map this request to a Linux command", resp.ErrorText())
	assert.Empty(t, resp.Commands)
	assert.Nil(t, resp.ExecutionResults)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestHandle_WithoutExecute(t *testing.T) {
	asst, dir := newTestAssistant(t, reply(`{"commands":["touch created"],"explanation":"x","caution":null}`))

	resp, err := asst.Handle(context.Background(), "create a file", false)
	require.NoError(t, err)

	assert.Nil(t, resp.ExecutionResults)
	assert.NoFileExists(t, filepath.Join(dir, "created"))
}

func TestHandle_ExecuteIsolatesFailures(t *testing.T) {
	asst, dir := newTestAssistant(t, reply(`{"commands":["mkdir test","cd missing-dir","ls"],"explanation":"Make and enter","caution":null}`))

	resp, err := asst.Handle(context.Background(), "make a test dir and enter it", true)
	require.NoError(t, err)

	require.Len(t, resp.ExecutionResults, 3)
	assert.Equal(t, "mkdir test", resp.ExecutionResults[0].Command)
	assert.False(t, resp.ExecutionResults[0].Failed())
	assert.True(t, strings.HasPrefix(resp.ExecutionResults[1].Output, executor.ErrorPrefix))
	assert.Equal(t, "test\n", resp.ExecutionResults[2].Output)
	assert.DirExists(t, filepath.Join(dir, "test"))

	assert.Equal(t, "1 of 3 commands failed", resp.ErrorText())
	assert.Equal(t, []string{"mkdir test", "cd missing-dir", "ls"}, resp.Commands)
}

func TestHandle_ExecuteAllSucceed(t *testing.T) {
	asst, _ := newTestAssistant(t, reply(`{"commands":["echo one","echo two"],"explanation":"Echo","caution":null}`))

	resp, err := asst.Handle(context.Background(), "say one and two", true)
	require.NoError(t, err)

	assert.Nil(t, resp.Error)
	require.Len(t, resp.ExecutionResults, 2)
	assert.Equal(t, "one\n", resp.ExecutionResults[0].Output)
	assert.Equal(t, "two\n", resp.ExecutionResults[1].Output)
}

func TestExecute_NoCommands(t *testing.T) {
	asst, _ := newTestAssistant(t, reply(""))

	resp := &interpreter.ParsedResponse{Commands: []string{}, Explanation: "nothing"}
	asst.Execute(context.Background(), resp)
	assert.Nil(t, resp.ExecutionResults)
	assert.Nil(t, resp.Error)

	assert.NotPanics(t, func() { asst.Execute(context.Background(), nil) })
}

func TestNew_Defaults(t *testing.T) {
	asst := New(reply(`{"commands":["true"]}`), nil, nil, nil)

	resp, err := asst.Generate(context.Background(), "do nothing")
	require.NoError(t, err)
	assert.Equal(t, []string{"true"}, resp.Commands)
}
