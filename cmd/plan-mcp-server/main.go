package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/codex-k8s/plan-mcp-server/configs"
	"github.com/codex-k8s/plan-mcp-server/internal/app"
	"github.com/codex-k8s/plan-mcp-server/internal/audit"
	"github.com/codex-k8s/plan-mcp-server/internal/config"
	"github.com/codex-k8s/plan-mcp-server/internal/constants"
	"github.com/codex-k8s/plan-mcp-server/internal/dsl"
	"github.com/codex-k8s/plan-mcp-server/internal/idempotency"
	"github.com/codex-k8s/plan-mcp-server/internal/log"
	"github.com/codex-k8s/plan-mcp-server/internal/protocol"
	"github.com/codex-k8s/plan-mcp-server/internal/render"
	"github.com/codex-k8s/plan-mcp-server/internal/runtime"
	"github.com/codex-k8s/plan-mcp-server/internal/startup"
	"github.com/codex-k8s/plan-mcp-server/internal/templates"
	"github.com/codex-k8s/plan-mcp-server/internal/timeutil"
)

func main() {
	embeddedConfig := flag.String("embedded-config", "", "Use an embedded config from configs/ (overrides PLAN_MCP_EMBEDDED_CONFIG)")
	planFile := flag.String("plan", "", "Run a plan request from a JSON file, print the response and exit")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}

	if *embeddedConfig != "" {
		cfg.EmbeddedConfig = *embeddedConfig
	}
	rendered, err := loadConfig(cfg.ConfigPath, cfg.EmbeddedConfig)
	if err != nil {
		fmt.Fprintf(os.Stderr, "render config failed: %v\n", err)
		os.Exit(1)
	}
	dslCfg, err := dsl.Load(rendered)
	if err != nil {
		fmt.Fprintf(os.Stderr, "parse config failed: %v\n", err)
		os.Exit(1)
	}

	logger := log.New(cfg.LogLevel)
	if dslCfg.Server.Transport == constants.TransportStdio || *planFile != "" {
		logger = log.NewWithWriter(os.Stderr, cfg.LogLevel)
	}

	templateBundle, err := templates.Load(cfg.Lang)
	if err != nil {
		logger.Error("load templates failed", "error", err)
		os.Exit(1)
	}
	if !strings.EqualFold(strings.TrimSpace(cfg.Lang), templateBundle.Lang()) {
		logger.Warn("unsupported message language, using fallback", "requested", cfg.Lang, "lang", templateBundle.Lang())
	}

	var cache *idempotency.Cache[any]
	if dslCfg.Server.Idempotency.Enabled {
		ttl, err := timeutil.ParseOptional(dslCfg.Server.Idempotency.TTL)
		if err != nil {
			logger.Error("invalid idempotency ttl", "error", err)
			os.Exit(1)
		}
		cache = idempotency.NewCache[any](ttl, dslCfg.Server.Idempotency.MaxEntries)
	}

	builder := runtime.Builder{
		Logger:         logger,
		Audit:          audit.New(logger),
		Templates:      templateBundle,
		Cache:          cache,
		MaxConcurrency: cfg.MaxConcurrency,
	}
	rt, err := builder.Build(dslCfg)
	if err != nil {
		logger.Error("build server failed", "error", err)
		os.Exit(1)
	}

	baseCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT, syscall.SIGHUP)
	defer stop()

	if _, err := startup.Run(baseCtx, dslCfg.StartupPlan, rt.Executor, logger); err != nil {
		logger.Error("startup plan failed", "error", err)
		os.Exit(1)
	}

	if *planFile != "" {
		if err := runPlanFile(baseCtx, rt, *planFile); err != nil {
			logger.Error("plan run failed", "error", err)
			os.Exit(1)
		}
		return
	}

	switch dslCfg.Server.Transport {
	case constants.TransportStdio:
		err = runStdio(baseCtx, rt.Server)
	default:
		err = runHTTP(baseCtx, cfg, dslCfg, rt, logger)
	}
	if err != nil {
		logger.Error("runtime error", "error", err)
		os.Exit(1)
	}
}

func loadConfig(path, embedded string) ([]byte, error) {
	if embedded == "" {
		return render.RenderFile(path)
	}
	raw, err := configs.Load(embedded)
	if err != nil {
		return nil, err
	}
	return render.RenderBytes(embedded, raw)
}

func runPlanFile(ctx context.Context, rt *runtime.Runtime, path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read plan: %w", err)
	}
	var req protocol.PlanRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		return fmt.Errorf("parse plan: %w", err)
	}
	resp := rt.ExecutePlan(ctx, req)
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(resp); err != nil {
		return err
	}
	if resp.Status != protocol.StatusSuccess {
		return fmt.Errorf("plan finished with status %s", resp.Status)
	}
	return nil
}

func runStdio(ctx context.Context, server *mcp.Server) error {
	return server.Run(ctx, &mcp.StdioTransport{})
}

func runHTTP(ctx context.Context, envCfg config.Config, dslCfg *dsl.Config, rt *runtime.Runtime, logger *slog.Logger) error {
	handler := mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
		return rt.Server
	}, &mcp.StreamableHTTPOptions{
		Stateless: dslCfg.Server.HTTP.Stateless,
	})

	application, err := app.New(ctx, dslCfg.Server, handler, len(rt.Registry.Names()), logger, envCfg.ShutdownTimeout)
	if err != nil {
		return err
	}
	return application.Run(ctx)
}
