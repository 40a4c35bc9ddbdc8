package main

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/BTreeMap/ThoughtWeaver/internal/api"
	"github.com/BTreeMap/ThoughtWeaver/internal/catalog"
	"github.com/BTreeMap/ThoughtWeaver/internal/config"
	"github.com/BTreeMap/ThoughtWeaver/internal/flow"
	"github.com/BTreeMap/ThoughtWeaver/internal/genai"
	"github.com/BTreeMap/ThoughtWeaver/internal/lockfile"
	"github.com/BTreeMap/ThoughtWeaver/internal/session"
	"github.com/BTreeMap/ThoughtWeaver/internal/store"
)

func newServeCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return a.serve(ctx)
		},
	}

	flags := cmd.Flags()
	flags.String("addr", "", "API server address (overrides $THOUGHTWEAVER_API_ADDR)")
	flags.String("db-dsn", "", "template store DSN, Postgres URL or SQLite path (overrides $DATABASE_URL)")
	flags.String("openai-model", "", "OpenAI model for generated replies (overrides $THOUGHTWEAVER_OPENAI_MODEL)")
	flags.Duration("reply-delay", 0, "delay before an assistant reply")
	flags.Duration("suggestion-delay", 0, "delay before a workflow suggestion check")
	flags.Duration("completion-delay", 0, "delay before an activated step completes")
	flags.Bool("retain-history", false, "keep each conversation's timeline and steps when switching")
	flags.Bool("resuggest-completed", false, "allow suggesting roles whose step already completed")

	for key, name := range map[string]string{
		config.KeyAPIAddr:                   "addr",
		config.KeyDBDSN:                     "db-dsn",
		config.KeyOpenAIModel:               "openai-model",
		config.KeyReplyDelay:                "reply-delay",
		config.KeySuggestionDelay:           "suggestion-delay",
		config.KeyCompletionDelay:           "completion-delay",
		config.KeyWorkflowRetainHistory:     "retain-history",
		config.KeyWorkflowReSuggestComplete: "resuggest-completed",
	} {
		a.bindKey(cmd, key, name)
	}
	return cmd
}

// serve composes the engine from configuration and runs the API until ctx ends.
func (a *app) serve(ctx context.Context) error {
	cfg := a.cfg
	slog.Info("Bootstrapping ThoughtWeaver with configured modules")

	if cfg.DB.DSN != "" && store.DetectDSNType(cfg.DB.DSN) == "sqlite3" {
		lock, err := lockfile.ForDatabase(cfg.DB.DSN)
		if err != nil {
			return err
		}
		defer lock.Release()
	}

	templates, err := store.Open(cfg.DB.DSN)
	if err != nil {
		slog.Error("Failed to open template store", "error", err)
		return err
	}
	defer func() {
		if err := templates.Close(); err != nil {
			slog.Error("Failed to close template store", "error", err)
		}
	}()

	cat := catalog.Default()
	generator, err := buildGenerator(cfg, cat)
	if err != nil {
		return err
	}

	orch := flow.NewOrchestrator(session.New(), buildFlowOptions(cfg, cat, generator, templates)...)
	defer orch.Close()

	server := api.NewServer(orch, templates, cat, api.WithAddr(cfg.API.Addr))
	if err := server.Run(ctx); err != nil {
		return fmt.Errorf("API server failed: %w", err)
	}
	slog.Info("ThoughtWeaver exited successfully")
	return nil
}

// buildGenerator uses OpenAI when a key is configured and simulated replies otherwise.
func buildGenerator(cfg *config.Config, cat *catalog.Catalog) (genai.ReplyGenerator, error) {
	if cfg.OpenAI.APIKey == "" {
		slog.Info("No OpenAI API key configured, using simulated replies")
		return genai.NewSimulatedGenerator(cat), nil
	}
	client, err := genai.NewClient(
		genai.WithAPIKey(cfg.OpenAI.APIKey),
		genai.WithModel(cfg.OpenAI.Model),
		genai.WithAssistants(cat),
	)
	if err != nil {
		slog.Error("Failed to create OpenAI client", "error", err)
		return nil, err
	}
	slog.Info("Using OpenAI reply generator", "model", cfg.OpenAI.Model)
	return client, nil
}

// buildFlowOptions constructs orchestrator options from configuration.
func buildFlowOptions(cfg *config.Config, cat *catalog.Catalog, gen genai.ReplyGenerator, templates store.TemplateStore) []flow.Option {
	return []flow.Option{
		flow.WithCatalog(cat),
		flow.WithGenerator(gen),
		flow.WithTemplateStore(templates),
		flow.WithReplyDelay(cfg.Timing.ReplyDelay),
		flow.WithSuggestionDelay(cfg.Timing.SuggestionDelay),
		flow.WithCompletionDelay(cfg.Timing.CompletionDelay),
		flow.WithRetainHistory(cfg.Workflow.RetainHistory),
		flow.WithReSuggestCompleted(cfg.Workflow.ReSuggestCompleted),
	}
}
