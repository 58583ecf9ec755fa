package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/samkitpalrecha/AgentCodeV3/internal/config"
	"github.com/samkitpalrecha/AgentCodeV3/internal/logging"
	"github.com/samkitpalrecha/AgentCodeV3/internal/stream"
	"github.com/samkitpalrecha/AgentCodeV3/internal/task"
	"github.com/samkitpalrecha/AgentCodeV3/internal/telemetry"
)

// app wires the client components for the CLI commands.
type app struct {
	cfg      *config.Config
	logger   *logging.FileLogger
	registry *prometheus.Registry
	metrics  *telemetry.Metrics
	runner   *task.Runner
	markdown *markdownRenderer
}

func newApp(backendOverride string) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if backendOverride != "" {
		cfg.BackendURL = backendOverride
	}

	logger := logging.NewComponentLogger("CLI")
	logger.SetLevel(logging.ParseLevel(cfg.LogLevel))

	registry := prometheus.NewRegistry()
	metrics := telemetry.New(registry)

	transport := stream.New(stream.Config{
		BaseURL:       cfg.BackendURL,
		HeaderTimeout: cfg.HeaderTimeout(),
		MaxErrorBody:  cfg.MaxErrorBodyBytes,
		Logger:        logging.NewComponentLogger("Transport"),
		Metrics:       metrics,
	})

	markdown, err := newMarkdownRenderer()
	if err != nil {
		return nil, err
	}

	return &app{
		cfg:      cfg,
		logger:   logger,
		registry: registry,
		metrics:  metrics,
		runner:   task.NewRunner(transport, logging.NewComponentLogger("Runner"), metrics),
		markdown: markdown,
	}, nil
}

// printStats dumps the gathered counters, for run --stats.
func (a *app) printStats() {
	families, err := a.registry.Gather()
	if err != nil {
		return
	}
	fmt.Println(gray("--- session stats ---"))
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			name := mf.GetName()
			for _, label := range m.GetLabel() {
				name += fmt.Sprintf("{%s=%s}", label.GetName(), label.GetValue())
			}
			fmt.Printf("%s %s\n", gray(name), gray(fmt.Sprintf("%.0f", m.GetCounter().GetValue())))
		}
	}
}

// NewRootCommand creates the root cobra command.
func NewRootCommand() *cobra.Command {
	var backend string

	rootCmd := &cobra.Command{
		Use:   "agentcode",
		Short: "Client for the AgentCode streaming backend",
		Long: "agentcode streams an AI code agent's progress from the AgentCode backend\n" +
			"and reconciles the result into your file: applied directly (autofix),\n" +
			"previewed as a diff (inspect) or appended to a chat (conversation).",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&backend, "backend", "", "backend base URL (overrides config)")

	rootCmd.AddCommand(newRunCommand(&backend))
	rootCmd.AddCommand(newChatCommand(&backend))
	rootCmd.AddCommand(newConfigCommand())

	return rootCmd
}

func newConfigCommand() *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage client configuration",
	}

	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write a starter agentcode.yaml to your home directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			home, err := os.UserHomeDir()
			if err != nil {
				return err
			}
			path := filepath.Join(home, "agentcode.yaml")
			if err := config.WriteDefault(path); err != nil {
				return err
			}
			fmt.Println(successStyle("wrote " + path))
			return nil
		},
	}

	configCmd.AddCommand(initCmd)
	return configCmd
}
