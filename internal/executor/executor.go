package executor

import (
	"bytes"
	"context"
	"errors"
	"os"
	"os/exec"
	"runtime"
	"strings"
	"time"

	"go.uber.org/zap"
)

// ErrorPrefix starts the output of every failed command
const ErrorPrefix = "Error: "

// ExecutionResult is the outcome of one command in a batch
type ExecutionResult struct {
	Command string `json:"command"`
	Output  string `json:"output"`
}

// Failed reports whether the command failed
func (r ExecutionResult) Failed() bool {
	return strings.HasPrefix(r.Output, ErrorPrefix)
}

// Runner executes generated commands through the host shell
type Runner struct {
	// Shell is the interpreter invoked with -c, empty means $SHELL or /bin/sh
	Shell string

	// Dir is the working directory, empty means the current one
	Dir string

	// Timeout bounds each command, 0 means no limit
	Timeout time.Duration

	logger *zap.Logger
}

// NewRunner creates a runner using the user's shell
func NewRunner(logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{logger: logger}
}

// Run executes commands one after another. A failing command does not stop the batch:
// the result always has one entry per command, in order.
func (r *Runner) Run(ctx context.Context, commands []string) []ExecutionResult {
	results := make([]ExecutionResult, 0, len(commands))
	for _, command := range commands {
		results = append(results, r.RunOne(ctx, command))
	}
	return results
}

// RunOne executes a single command and captures its standard output. A non-zero exit
// or anything written to standard error marks the command as failed.
func (r *Runner) RunOne(ctx context.Context, command string) ExecutionResult {
	if r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}

	shell, shellArgs := r.shellCommand(command)
	r.logger.Debug("executing command",
		zap.String("shell", shell),
		zap.String("command", command),
	)

	cmd := exec.CommandContext(ctx, shell, shellArgs...)
	cmd.Dir = r.Dir
	// Stdin stays nil (/dev/null): commands that prompt read EOF instead of waiting
	if r.Timeout > 0 {
		// background children may hold the pipes open after the shell is killed
		cmd.WaitDelay = time.Second
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	errText := strings.TrimSpace(stderr.String())

	if err != nil {
		var exitError *exec.ExitError
		if errors.As(err, &exitError) {
			r.logger.Debug("command failed", zap.String("command", command), zap.Int("exit_code", exitError.ExitCode()))
		} else {
			r.logger.Debug("command failed", zap.String("command", command), zap.Error(err))
		}
		if ctx.Err() != nil {
			errText = strings.TrimSpace(ctx.Err().Error() + "\n" + errText)
		}
		if errText == "" {
			errText = err.Error()
		}
		return ExecutionResult{Command: command, Output: ErrorPrefix + errText}
	}

	if errText != "" {
		r.logger.Debug("command wrote to stderr", zap.String("command", command))
		return ExecutionResult{Command: command, Output: ErrorPrefix + errText}
	}

	return ExecutionResult{Command: command, Output: stdout.String()}
}

// shellCommand determines the shell based on OS and configuration
func (r *Runner) shellCommand(command string) (string, []string) {
	if runtime.GOOS == "windows" {
		return "cmd", []string{"/C", command}
	}

	shell := r.Shell
	if shell == "" {
		shell = os.Getenv("SHELL")
	}
	if shell == "" {
		shell = "/bin/sh"
	}
	return shell, []string{"-c", command}
}
