package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"ccreator/config"
	"ccreator/generator"
	"ccreator/logger"
	"ccreator/orchestrator"
)

var (
	configPath string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "ccreator",
	Short: "AI content synthesizer: blog post, briefing and illustration from a URL or text",
	Long: `ccreator turns a web page or a piece of text into a blog post, a briefing
document and an illustration, and can turn text or a prompt into an image.

Providers are configured in config/config.json or with CCREATOR_* environment
variables (e.g. CCREATOR_LLM_PROVIDER=gemini CCREATOR_LLM_API_KEY=...).`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", config.DefaultPath, "path to config.json")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logs")
	rootCmd.AddCommand(serveCmd, generateCmd, imageCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadConfig reads the config and installs the default logger.
func loadConfig() (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, err
	}
	level := cfg.Server.LogLevel
	if verbose {
		level = "debug"
	}
	return cfg, logger.Init(level, cfg.Server.LogFormat), nil
}

// buildService wires the configured providers into an instrumented agent.
func buildService(ctx context.Context, cfg *config.Config, log *slog.Logger, reg prometheus.Registerer) (orchestrator.Service, error) {
	llm, err := generator.NewLLM(ctx, cfg.LLM.LLMSettings())
	if err != nil {
		return nil, fmt.Errorf("build llm: %w", err)
	}
	imager, err := generator.NewImageClient(ctx, cfg.ImageSettings())
	if err != nil {
		return nil, fmt.Errorf("build image client: %w", err)
	}
	fetcher := generator.NewPageFetcher(nil, cfg.Fetch.FetchSettings())
	agent, err := generator.NewAgent(llm, imager, fetcher, log)
	if err != nil {
		return nil, err
	}
	log.Debug("generation service ready",
		"llm_provider", cfg.LLM.Provider,
		"image_provider", cfg.Image.Provider)
	return generator.Instrument(agent, reg)
}

// newOrchestrator builds a CLI orchestrator that logs every transition at debug.
func newOrchestrator(svc orchestrator.Service, cfg *config.Config, log *slog.Logger) (*orchestrator.Orchestrator, error) {
	return orchestrator.New(svc,
		orchestrator.WithLogger(log),
		orchestrator.WithMessages(orchestrator.MessagesFor(cfg.Server.Locale)),
		orchestrator.WithListener(func(a orchestrator.Action, next orchestrator.State) {
			log.Debug("transition",
				"action", fmt.Sprintf("%T", a),
				"loading", int(next.Loading()),
				"error", next.Error)
		}))
}
