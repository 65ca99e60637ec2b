// Package batch distributes identifier collections across a bounded
// pool of workers, each owning one identifier end-to-end.
package batch

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/sync/errgroup"

	"sdsfinder/internal/domain"
	"sdsfinder/internal/ports"
)

const defaultConcurrency = 10

// Coordinator fans a batch out over resolution and fetch. Individual
// identifier failures are recorded in the summary, never raised; the
// only returned errors are contract violations and an unusable target
// directory.
type Coordinator struct {
	resolver ports.Resolver
	fetcher  ports.Fetcher
	logger   *slog.Logger
}

// New wires the coordinator.
func New(resolver ports.Resolver, fetcher ports.Fetcher, logger *slog.Logger) *Coordinator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Coordinator{resolver: resolver, fetcher: fetcher, logger: logger}
}

// RunBatch deduplicates the identifiers, ensures targetDir exists, and
// processes each identifier on a pool of at most concurrency workers:
// short-circuit resolution followed by a fetch. Identifiers whose file
// already exists under targetDir are completed without probing any
// catalog.
func (c *Coordinator) RunBatch(ctx context.Context, identifiers []string, kind domain.Kind, targetDir string, concurrency int) (domain.BatchSummary, error) {
	if !kind.Valid() {
		return domain.BatchSummary{}, fmt.Errorf("unknown identifier kind %q", kind)
	}
	if concurrency <= 0 {
		concurrency = defaultConcurrency
	}

	// Repeated identifiers are resolved once.
	unique := make(map[string]struct{}, len(identifiers))
	for _, raw := range identifiers {
		id := domain.NewIdentifier(raw, kind)
		if id.Value != "" {
			unique[id.Value] = struct{}{}
		}
	}

	summary := domain.BatchSummary{
		Requested: len(unique),
		Completed: map[string]struct{}{},
		Missing:   map[string]struct{}{},
	}
	if len(unique) == 0 {
		return summary, nil
	}

	// Racing MkdirAll calls are fine; it only fails for real problems.
	if err := os.MkdirAll(targetDir, 0o755); err != nil {
		return domain.BatchSummary{}, fmt.Errorf("create target dir: %w", err)
	}

	var (
		mu       sync.Mutex
		outcomes = make([]domain.DownloadOutcome, 0, len(unique))
	)

	g := &errgroup.Group{}
	g.SetLimit(concurrency)
	for value := range unique {
		id := domain.NewIdentifier(value, kind)
		g.Go(func() error {
			outcome := c.process(ctx, id, targetDir)
			mu.Lock()
			outcomes = append(outcomes, outcome)
			mu.Unlock()
			// Worker failures live inside the outcome; returning an
			// error here would cancel siblings.
			return nil
		})
	}
	_ = g.Wait()

	for _, outcome := range outcomes {
		if outcome.Downloaded {
			summary.Completed[outcome.Identifier.Value] = struct{}{}
		} else {
			summary.Missing[outcome.Identifier.Value] = struct{}{}
		}
	}

	c.logger.Info("batch finished",
		"requested", summary.Requested,
		"completed", len(summary.Completed),
		"missing", len(summary.Missing))

	return summary, nil
}

// process handles one identifier end-to-end on its worker.
func (c *Coordinator) process(ctx context.Context, id domain.Identifier, targetDir string) domain.DownloadOutcome {
	// Skip-if-present comes before any catalog is probed, so re-running
	// a batch costs nothing for sheets already on disk.
	target := filepath.Join(targetDir, id.FileName(""))
	if _, err := os.Stat(target); err == nil {
		return domain.DownloadOutcome{Identifier: id, Downloaded: true}
	}

	result, err := c.resolver.Resolve(ctx, id, ports.PolicyShortCircuit)
	if err != nil {
		c.logger.Warn("resolution aborted", "identifier", id.Value, "error", err)
		return domain.DownloadOutcome{Identifier: id}
	}
	if !result.Found {
		return domain.DownloadOutcome{Identifier: id}
	}

	return c.fetcher.Fetch(ctx, id, *result.Primary, targetDir)
}
