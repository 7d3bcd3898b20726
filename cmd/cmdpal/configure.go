package main

import (
	"context"
	"fmt"
	"time"

	"github.com/iishyfishyy/cmdpal/internal/agent"
	"github.com/iishyfishyy/cmdpal/internal/config"
	"github.com/iishyfishyy/cmdpal/internal/ui"
	"github.com/spf13/cobra"
)

// modelListTimeout bounds the model lookup while configuring
const modelListTimeout = 10 * time.Second

func runConfigure(cmd *cobra.Command, args []string) error {
	ui.ShowSection("cmdpal Configuration")

	// Start from the file only, so values from the environment are not persisted
	cfg, err := config.LoadFile()
	if err != nil {
		return err
	}
	if ollamaURL != "" {
		cfg.OllamaURL = ollamaURL
	}

	exists, err := config.Exists()
	if err != nil {
		return err
	}
	if !exists {
		ui.ShowInfo("No configuration found. Let's set up cmdpal.\n")
	}

	url, err := ui.PromptOllamaURL(cfg.OllamaURL)
	if err != nil {
		return err
	}
	cfg.OllamaURL = url

	ui.ShowInfo(fmt.Sprintf("Looking for models on %s...", cfg.OllamaURL))
	models, err := listModels(cmd.Context(), cfg.OllamaURL)
	switch {
	case err != nil:
		ui.ShowWarning(fmt.Sprintf("Could not reach Ollama: %v", err))
		cfg.Model, err = ui.PromptModel(cfg.Model)
	case len(models) == 0:
		ui.ShowWarning("The server has no models. Pull one with 'ollama pull <model>'.")
		cfg.Model, err = ui.PromptModel(cfg.Model)
	default:
		ui.ShowSuccess(fmt.Sprintf("Found %d models", len(models)))
		cfg.Model, err = ui.SelectModel(models, cfg.Model)
	}
	if err != nil {
		return err
	}

	cfg.History.Enabled, err = ui.PromptYesNo("Keep a history of requests?", cfg.History.Enabled)
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if err := config.Save(cfg); err != nil {
		return fmt.Errorf("failed to save configuration: %w", err)
	}

	configPath, _ := config.GetConfigPath()
	ui.ShowSuccess(fmt.Sprintf("Configuration saved to %s", configPath))
	ui.ShowInfo("\nYou're all set! Try running: cmdpal ask \"list all files\"")

	return nil
}

func listModels(ctx context.Context, url string) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, modelListTimeout)
	defer cancel()

	return agent.NewOllamaAgent(url, "", agent.WithLogger(newLogger())).ListModels(ctx)
}
