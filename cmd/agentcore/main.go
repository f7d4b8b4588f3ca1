// Package main provides the CLI entry point for the agent execution core.
//
// agentcore drives autonomous software-engineering tasks end to end: a
// task description goes in, a sandboxed agent loop plans, executes,
// verifies, and learns from it, and a stream of structured events comes
// back out.
//
// # Basic usage
//
// Run a task to completion, printing its event stream as it happens:
//
//	agentcore run --config agentcore.yaml "add a health check endpoint"
//
// Check a running process's component health:
//
//	agentcore health --config agentcore.yaml
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/agentcore/core/internal/browseragent"
	"github.com/agentcore/core/internal/config"
	"github.com/agentcore/core/internal/format"
	"github.com/agentcore/core/internal/knowledge"
	"github.com/agentcore/core/internal/learning"
	"github.com/agentcore/core/internal/llm"
	"github.com/agentcore/core/internal/loop"
	"github.com/agentcore/core/internal/observability"
	"github.com/agentcore/core/internal/orchestrator"
	"github.com/agentcore/core/internal/planner"
	"github.com/agentcore/core/internal/sandbox"
	"github.com/agentcore/core/internal/session"
	"github.com/agentcore/core/internal/tools"
	tokenusage "github.com/agentcore/core/internal/usage"
)

// Build information, populated by ldflags during release builds.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"

	configPath string
)

func main() {
	handler := observability.NewRedactingHandler(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(slog.New(handler))

	if err := buildRootCmd().Execute(); err != nil {
		slog.Error("command failed", "error", err)
		os.Exit(1)
	}
}

func buildRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:     "agentcore",
		Short:   "agentcore runs autonomous software-engineering tasks in a sandboxed agent loop",
		Version: fmt.Sprintf("%s (commit %s, built %s)", version, commit, date),
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "agentcore.yaml", "path to the YAML configuration file")
	root.AddCommand(buildRunCmd(), buildHealthCmd(), buildServeCmd())
	return root
}

func buildRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run [task description]",
		Short: "submit a task and stream its events to stdout until it reaches a terminal state",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, spend, cleanup, err := buildManager(cmd.Context())
			if err != nil {
				return err
			}
			defer cleanup()

			start := time.Now()
			taskID, err := mgr.Create(args[0])
			if err != nil {
				return fmt.Errorf("create task: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "task %s submitted\n", taskID)

			history, live, err := mgr.Attach(taskID)
			if err != nil {
				return fmt.Errorf("attach to task: %w", err)
			}
			for _, e := range history {
				printEvent(cmd.OutOrStdout(), string(e.Kind), e.Message)
			}
			for e := range live {
				printEvent(cmd.OutOrStdout(), string(e.Kind), e.Message)
			}
			if err := mgr.Wait(cmd.Context(), taskID); err != nil {
				return err
			}
			elapsed := format.FormatDurationSeconds(float64(time.Since(start).Milliseconds()), nil)
			fmt.Fprintf(cmd.OutOrStdout(), "task %s finished in %s\n", taskID, elapsed)
			if spent := spend.GetTaskTotals(taskID); spent != nil {
				fmt.Fprintf(cmd.OutOrStdout(), "task %s used %s\n", taskID, tokenusage.FormatUsageDetailed(spent))
			}
			return nil
		},
	}
	return cmd
}

func buildHealthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "run every registered readiness check and print the aggregate result",
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, _, cleanup, err := buildManager(cmd.Context())
			if err != nil {
				return err
			}
			defer cleanup()

			report := mgr.Health(cmd.Context())
			for _, r := range report.FailedChecks() {
				fmt.Fprintf(cmd.OutOrStdout(), "UNHEALTHY %s: %s\n", r.Name, r.Message)
			}
			if !report.IsHealthy() {
				return fmt.Errorf("health: one or more checks failed")
			}
			fmt.Fprintln(cmd.OutOrStdout(), "healthy")
			return nil
		},
	}
}

func printEvent(w interface{ Write([]byte) (int, error) }, kind, message string) {
	if message != "" {
		fmt.Fprintf(w, "[%s] %s: %s\n", time.Now().Format(time.RFC3339), kind, message)
		return
	}
	fmt.Fprintf(w, "[%s] %s\n", time.Now().Format(time.RFC3339), kind)
}

// buildManager wires every component named in the configuration file into
// a session.Manager ready to accept tasks, returning a cleanup func that
// releases the sandbox provider's connection and any learning-store
// backend.
func buildManager(ctx context.Context) (*session.Manager, *tokenusage.Tracker, func(), error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("load config: %w", err)
	}

	provider, err := llm.NewProvider(ctx, llm.BackendConfig{
		Kind:         llm.BackendKind(cfg.LLM.Provider),
		APIKey:       cfg.LLM.APIKey,
		BaseURL:      cfg.LLM.Endpoint,
		DefaultModel: cfg.LLM.Model,
	})
	if err != nil {
		return nil, nil, nil, fmt.Errorf("build llm provider: %w", err)
	}
	llmClient := llm.New(provider)
	llmClient.SetRateLimit(4, 8)

	var fallback *llm.FallbackClient
	if len(cfg.LLM.Fallbacks) > 0 {
		backends := llm.Backends{cfg.LLM.Provider: llmClient}
		for _, spec := range cfg.LLM.Fallbacks {
			fbProvider, fbModel := config.SplitProvider(spec, cfg.LLM.Provider)
			if _, ok := backends[fbProvider]; ok {
				continue
			}
			p, err := llm.NewProvider(ctx, llm.BackendConfig{
				Kind:         llm.BackendKind(fbProvider),
				APIKey:       cfg.LLM.APIKey,
				DefaultModel: fbModel,
			})
			if err != nil {
				slog.Warn("agentcore: skipping unreachable fallback backend", "provider", fbProvider, "err", err)
				continue
			}
			backends[fbProvider] = llm.New(p)
		}
		fallback = llm.NewFallbackClient(backends, cfg.LLM.Provider, cfg.LLM.Model, cfg.LLM.Fallbacks)
	}

	var sandboxProvider sandbox.Provider
	switch cfg.Sandbox.Backend {
	case "firecracker":
		sandboxProvider, err = sandbox.NewFirecrackerProvider(sandbox.FirecrackerConfig{})
	default:
		sandboxProvider, err = sandbox.NewDockerProvider("")
	}
	if err != nil {
		return nil, nil, nil, fmt.Errorf("build sandbox provider: %w", err)
	}
	sandboxClient := sandbox.New(sandboxProvider, sandbox.Config{
		CreateTimeout:  cfg.Sandbox.CreateTimeout,
		RPCTimeout:     cfg.Sandbox.RPCTimeout,
		DefaultExecTTL: cfg.Sandbox.DefaultExecTTL,
		MaxExecTTL:     cfg.Sandbox.MaxExecTTL,
		WorkspaceRoot:  cfg.Sandbox.WorkspaceMount,
	}, nil)

	registry := tools.NewRegistry()
	validator, err := tools.NewValidator(registry)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("build tool validator: %w", err)
	}

	stores, err := learning.New(nil)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("build learning stores: %w", err)
	}
	if cfg.Learning.Backend == "json" && cfg.Learning.JSONPath != "" {
		if err := stores.LoadJSON(cfg.Learning.JSONPath); err != nil {
			slog.Warn("agentcore: starting with empty learning stores", "err", err)
		}
	}

	plan := planner.New(llmClient, cfg.LLM.Model, "")

	orch := orchestrator.New(stores.Interactions)

	var knowledgeAgent *knowledge.Agent
	if cfg.Knowledge.SearchEndpoint != "" {
		searcher := knowledge.NewSearXNGSearcher(cfg.Knowledge.SearchEndpoint)
		knowledgeAgent = knowledge.New(searcher, llmClient, cfg.LLM.Model)
		orch.Register("knowledge", func(ctx context.Context, input string) (string, error) {
			result := knowledgeAgent.Research(ctx, input, knowledge.DepthMedium, 5)
			return result.Answer, nil
		})
	}

	browserAgent := browseragent.New(browseragent.Config{Headless: cfg.Browser.Headless, Model: cfg.LLM.Model}, llmClient)
	orch.Register("browser", func(ctx context.Context, input string) (string, error) {
		result, err := browserAgent.RunTask(ctx, input)
		if err != nil {
			return "", err
		}
		return result.Summary, nil
	})

	metrics := observability.NewMetrics()
	tracer, shutdownTracer := observability.NewTracer(observability.TraceConfig{
		ServiceName:    "agentcore",
		ServiceVersion: version,
		Endpoint:       os.Getenv("AGENTCORE_OTEL_ENDPOINT"),
	})
	spend := tokenusage.NewTracker(tokenusage.DefaultTrackerConfig())

	deps := loop.Deps{
		Sandbox:       sandboxClient,
		LLM:           llmClient,
		ModelFallback: fallback,
		Usage:         spend,
		Model:         cfg.LLM.Model,
		Tools:         registry,
		Validator:     validator,
		Planner:       plan,
		Knowledge:     knowledgeAgent,
		Browser:       browserAgent,
		Orchestrator:  orch,
		Learning:      stores,
		Logger:        slog.Default(),
		Metrics:       metrics,
		Tracer:        tracer,
		MaxIterations: cfg.Loop.MaxIterations,
		MaxTokens:     cfg.Loop.MaxTokens,
	}

	mgr := session.New(deps, cfg.Events.SubscriberBufferDepth)

	sigCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		mgr.Shutdown(shutdownCtx)
	}()

	cleanup := func() {
		stop()
		_ = shutdownTracer(context.Background())
		if cfg.Learning.Backend == "json" && cfg.Learning.JSONPath != "" {
			if err := stores.SaveJSON(cfg.Learning.JSONPath); err != nil {
				slog.Warn("agentcore: failed to persist learning stores", "err", err)
			}
		}
	}
	return mgr, spend, cleanup, nil
}
