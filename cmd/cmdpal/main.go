package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/atotto/clipboard"
	"github.com/iishyfishyy/cmdpal/internal/agent"
	"github.com/iishyfishyy/cmdpal/internal/assistant"
	"github.com/iishyfishyy/cmdpal/internal/config"
	"github.com/iishyfishyy/cmdpal/internal/executor"
	"github.com/iishyfishyy/cmdpal/internal/history"
	"github.com/iishyfishyy/cmdpal/internal/interpreter"
	"github.com/iishyfishyy/cmdpal/internal/repl"
	"github.com/iishyfishyy/cmdpal/internal/risk"
	"github.com/iishyfishyy/cmdpal/internal/ui"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/term"
)

var (
	// version is set at build time
	version = "dev"

	// CLI flags
	debug     bool
	ollamaURL string
	model     string
	memory    bool

	execute      bool
	copyCommand  bool
	historySize  int
	clearHistory bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "cmdpal",
		Short:         "Turn plain English into Linux shell commands",
		Long:          "cmdpal asks a local Ollama model for shell commands, explains them and can run them for you",
		Version:       version,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runInteractive,
	}

	rootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&ollamaURL, "url", "", "Ollama server URL (overrides config and OLLAMA_URL)")
	rootCmd.PersistentFlags().StringVar(&model, "model", "", "Model name (overrides config and OLLAMA_MODEL)")
	rootCmd.PersistentFlags().BoolVar(&memory, "memory", false, "Remember earlier requests of this session")

	askCmd := &cobra.Command{
		Use:   "ask [request...]",
		Short: "Generate commands for a single request",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runAsk,
	}
	askCmd.Flags().BoolVarP(&execute, "exec", "x", false, "Run the generated commands without asking")
	askCmd.Flags().BoolVarP(&copyCommand, "copy", "c", false, "Copy the generated commands to the clipboard")

	configureCmd := &cobra.Command{
		Use:   "configure",
		Short: "Choose the Ollama server and model",
		Args:  cobra.NoArgs,
		RunE:  runConfigure,
	}

	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent requests",
		Args:  cobra.NoArgs,
		RunE:  runHistory,
	}
	historyCmd.Flags().IntVarP(&historySize, "limit", "n", 20, "Number of entries to show")
	historyCmd.Flags().BoolVar(&clearHistory, "clear", false, "Delete all entries")

	rootCmd.AddCommand(askCmd)
	rootCmd.AddCommand(configureCmd)
	rootCmd.AddCommand(historyCmd)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		ui.ShowError(err.Error())
		stop()
		os.Exit(1)
	}
}

// app holds everything a command needs
type app struct {
	cfg          *config.Config
	logger       *zap.Logger
	assistant    *assistant.Assistant
	conversation *agent.Conversation
	history      *history.Store
}

func newLogger() *zap.Logger {
	if !debug {
		return zap.NewNop()
	}
	logger, err := zap.NewDevelopment()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to create logger: %v\n", err)
		return zap.NewNop()
	}
	return logger
}

// loadConfig reads config, .env and environment, then applies the command line flags
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	if ollamaURL != "" {
		cfg.OllamaURL = ollamaURL
	}
	if model != "" {
		cfg.Model = model
	}
	if memory {
		cfg.Memory = true
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func newApp() (*app, error) {
	logger := newLogger()

	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	logger.Debug("configuration loaded",
		zap.String("url", cfg.OllamaURL),
		zap.String("model", cfg.Model),
		zap.Bool("memory", cfg.Memory),
		zap.Bool("history", cfg.History.Enabled),
	)

	var conv *agent.Conversation
	if cfg.Memory {
		conv = agent.NewConversation()
	}
	ollama := agent.NewOllamaAgent(cfg.OllamaURL, cfg.Model, agentOptions(cfg, logger, conv)...)

	unwrappers := interpreter.DefaultUnwrappers
	if cfg.LenientParsing {
		unwrappers = interpreter.LenientUnwrappers
	}
	parser := interpreter.NewParser(logger, unwrappers...)

	runner := executor.NewRunner(logger)
	runner.Shell = cfg.Shell
	runner.Timeout = cfg.CommandTimeoutDuration()

	var backend agent.Agent = ollama
	if cfg.Endpoint == config.EndpointGenerate {
		backend = agent.Func(ollama.Complete)
	}

	a := &app{
		cfg:          cfg,
		logger:       logger,
		assistant:    assistant.New(backend, parser, runner, logger),
		conversation: conv,
	}

	if cfg.History.Enabled {
		path, err := cfg.HistoryPath()
		if err == nil {
			a.history, err = history.Open(path)
		}
		if err != nil {
			// history is optional, the assistant works without it
			ui.ShowWarning(fmt.Sprintf("History disabled: %v", err))
			a.history = nil
		}
	}

	return a, nil
}

// agentOptions maps the configuration onto the Ollama agent. conv may be nil.
func agentOptions(cfg *config.Config, logger *zap.Logger, conv *agent.Conversation) []agent.Option {
	opts := []agent.Option{
		agent.WithTimeout(cfg.RequestTimeoutDuration()),
		agent.WithLogger(logger),
	}
	if strings.TrimSpace(cfg.SystemPrompt) != "" {
		opts = append(opts, agent.WithSystemPrompt(cfg.SystemPrompt))
	}
	if conv != nil {
		opts = append(opts, agent.WithConversation(conv))
	}
	return opts
}

func (a *app) close() {
	if a.history != nil {
		if err := a.history.Close(); err != nil {
			a.logger.Debug("failed to close history", zap.Error(err))
		}
	}
	_ = a.logger.Sync()
}

func (a *app) record(ctx context.Context, request string, resp *interpreter.ParsedResponse, executed bool) {
	if a.history == nil {
		return
	}
	if _, err := a.history.Record(ctx, history.NewEntry(request, resp, executed)); err != nil {
		a.logger.Warn("failed to record history", zap.Error(err))
	}
}

func isTerminal() bool {
	return term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd()))
}

func runInteractive(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	opts := []repl.Option{
		repl.WithLogger(a.logger),
		repl.WithSpinner(term.IsTerminal(int(os.Stdout.Fd()))),
	}
	if a.history != nil {
		opts = append(opts, repl.WithRecorder(a.history))
	}
	if a.conversation != nil {
		opts = append(opts, repl.WithMemory(a.conversation))
	}

	return repl.New(a.assistant, os.Stdin, os.Stdout, opts...).Run(cmd.Context())
}

func runAsk(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	request := strings.Join(args, " ")

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	a.logger.Debug("one-shot request", zap.String("request", request), zap.Bool("exec", execute))

	interactive := isTerminal()
	for {
		resp, err := a.generate(ctx, request, interactive)
		if err != nil {
			return fmt.Errorf("an error occurred: %w", err)
		}

		if !resp.HasCommands() || resp.HasError() {
			ui.RenderResponse(os.Stdout, resp, false)
			a.record(ctx, request, resp, false)
			return nil
		}

		if copyCommand {
			if err := clipboard.WriteAll(strings.Join(resp.Commands, "\n")); err != nil {
				ui.ShowError(fmt.Sprintf("Failed to copy to clipboard: %v", err))
			} else {
				ui.ShowSuccess("Commands copied to clipboard!")
			}
		}

		if execute {
			ui.RenderFindings(os.Stdout, risk.AssessAll(resp.Commands))
			a.assistant.Execute(ctx, resp)
			ui.RenderResponse(os.Stdout, resp, true)
			a.record(ctx, request, resp, true)
			return nil
		}

		ui.RenderProposal(os.Stdout, resp)
		if !interactive {
			a.record(ctx, request, resp, false)
			return nil
		}

		action, err := ui.ConfirmCommands()
		if err != nil {
			return fmt.Errorf("failed to get user confirmation: %w", err)
		}

		switch action {
		case ui.ActionRun:
			a.assistant.Execute(ctx, resp)
			fmt.Println()
			ui.RenderResponse(os.Stdout, resp, true)
			a.record(ctx, request, resp, true)
			return nil

		case ui.ActionCancel:
			ui.ShowInfo("Cancelled.")
			a.record(ctx, request, resp, false)
			return nil

		case ui.ActionModify:
			modification, err := ui.PromptForModification()
			if err != nil {
				return fmt.Errorf("failed to get modification: %w", err)
			}
			a.record(ctx, request, resp, false)
			request = fmt.Sprintf("%s\nChange the previous answer: %s", request, modification)
			fmt.Println()
		}
	}
}

func (a *app) generate(ctx context.Context, request string, spin bool) (*interpreter.ParsedResponse, error) {
	if spin {
		stop := ui.NewSpinner(os.Stdout).Start(ctx)
		defer stop()
	}
	return a.assistant.Generate(ctx, request)
}

func runHistory(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	path, err := cfg.HistoryPath()
	if err != nil {
		return err
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		ui.ShowInfo("No history yet.")
		return nil
	}

	store, err := history.Open(path)
	if err != nil {
		return err
	}
	defer store.Close()

	if clearHistory {
		if err := store.Clear(cmd.Context()); err != nil {
			return err
		}
		ui.ShowSuccess("History cleared.")
		return nil
	}

	entries, err := store.Recent(cmd.Context(), historySize)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		ui.ShowInfo("No history yet.")
		return nil
	}

	ui.RenderHistory(os.Stdout, entries)
	return nil
}
