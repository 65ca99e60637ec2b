// Package resolve runs the adapter registry against one identifier
// under a selectable probing policy.
package resolve

import (
	"context"
	"fmt"
	"log/slog"

	"sdsfinder/internal/domain"
	"sdsfinder/internal/ports"
	"sdsfinder/internal/registry"
)

// Resolver is the resolution orchestrator. A failed adapter never stops
// evaluation of the ones after it; the only errors returned here are
// contract violations (unknown kind or policy).
type Resolver struct {
	registry *registry.Registry
	observer ports.Observer
	logger   *slog.Logger
}

var _ ports.Resolver = (*Resolver)(nil)

// New wires the resolver. observer may be nil.
func New(reg *registry.Registry, observer ports.Observer, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{registry: reg, observer: observer, logger: logger}
}

// Resolve probes the identifier's adapter chain in registry order.
// Under PolicyShortCircuit the chain stops at the first success and
// untried adapters are absent from the result; under PolicyExhaustive
// every adapter contributes one outcome.
func (r *Resolver) Resolve(ctx context.Context, id domain.Identifier, policy ports.Policy) (domain.ResolutionResult, error) {
	if policy != ports.PolicyShortCircuit && policy != ports.PolicyExhaustive {
		return domain.ResolutionResult{}, fmt.Errorf("unknown resolution policy %q", policy)
	}

	chain, err := r.registry.ForKind(id.Kind)
	if err != nil {
		return domain.ResolutionResult{}, err
	}

	result := domain.ResolutionResult{Identifier: id}
	for _, adapter := range chain {
		outcome := adapter.Lookup(ctx, id)
		result.All = append(result.All, outcome)

		if r.observer != nil {
			r.observer.LookupDone(outcome.Database, outcome.Status)
		}

		switch outcome.Status {
		case domain.StatusSuccess:
			result.Successes = append(result.Successes, outcome)
		case domain.StatusError:
			r.logger.Warn("catalog lookup failed",
				"catalog", outcome.Database,
				"identifier", id.Value,
				"error", outcome.ErrorDetail)
		}

		if policy == ports.PolicyShortCircuit && outcome.Status == domain.StatusSuccess {
			break
		}
	}

	if len(result.Successes) > 0 {
		result.Found = true
		result.Primary = &result.Successes[0]
	}

	r.logger.Debug("resolution finished",
		"identifier", id.Value,
		"kind", id.Kind,
		"policy", policy,
		"probed", len(result.All),
		"found", result.Found)

	return result, nil
}
