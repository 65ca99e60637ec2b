package app

import (
	"context"
	"log/slog"
	"net/http"

	"sdsfinder/internal/batch"
	"sdsfinder/internal/catalog"
	"sdsfinder/internal/config"
	"sdsfinder/internal/domain"
	"sdsfinder/internal/fetch"
	"sdsfinder/internal/logging"
	"sdsfinder/internal/metrics"
	"sdsfinder/internal/ports"
	"sdsfinder/internal/registry"
	"sdsfinder/internal/resolve"
	"sdsfinder/internal/server"
)

// Application wires the adapter registry, orchestrators, and REST layer
// into the three operations callers use: resolve one identifier, fetch
// one resolved document, run a batch.
type Application struct {
	cfg         config.Config
	resolver    *resolve.Resolver
	fetcher     *fetch.Executor
	coordinator *batch.Coordinator
	server      *server.Server
}

// New builds a fully wired application instance.
func New(cfg config.Config, baseLogger *slog.Logger) *Application {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level)
	}

	m := metrics.New(nil)

	opts := catalog.Options{
		UserAgent: cfg.Catalogs.UserAgent,
		Logger:    baseLogger.With("component", "catalog"),
	}
	reg := registry.Default(opts)

	resolver := resolve.New(reg, m, baseLogger.With("component", "resolver"))
	fetcher := fetch.New(nil, m, baseLogger.With("component", "fetch"))
	coordinator := batch.New(resolver, fetcher, baseLogger.With("component", "batch"))
	srv := server.New(resolver, fetcher, coordinator,
		cfg.Server.TempRoot, cfg.Batch.PoolSize,
		baseLogger.With("component", "server"))

	return &Application{
		cfg:         cfg,
		resolver:    resolver,
		fetcher:     fetcher,
		coordinator: coordinator,
		server:      srv,
	}
}

// ResolveOne looks one identifier up under the given policy without
// downloading anything.
func (a *Application) ResolveOne(ctx context.Context, value string, kind domain.Kind, policy ports.Policy) (domain.ResolutionResult, error) {
	return a.resolver.Resolve(ctx, domain.NewIdentifier(value, kind), policy)
}

// FetchOne downloads a document a caller already resolved.
func (a *Application) FetchOne(ctx context.Context, id domain.Identifier, outcome domain.SourceOutcome, targetDir string) domain.DownloadOutcome {
	return a.fetcher.Fetch(ctx, id, outcome, targetDir)
}

// RunBatch resolves and downloads a collection of identifiers.
func (a *Application) RunBatch(ctx context.Context, identifiers []string, kind domain.Kind, targetDir string, concurrency int) (domain.BatchSummary, error) {
	return a.coordinator.RunBatch(ctx, identifiers, kind, targetDir, concurrency)
}

// Handler exposes the REST routing table.
func (a *Application) Handler() http.Handler {
	return a.server.Handler()
}
