// Package registry keeps the ordered adapter lists per identifier kind.
// The order is a fixed priority: it drives short-circuiting and decides
// which of several successful catalogs becomes the primary source.
package registry

import (
	"fmt"

	"sdsfinder/internal/catalog"
	"sdsfinder/internal/domain"
	"sdsfinder/internal/ports"
)

// Registry maps each identifier kind to its adapter chain.
type Registry struct {
	chains map[domain.Kind][]ports.SourceAdapter
}

// New builds an empty registry.
func New() *Registry {
	return &Registry{chains: map[domain.Kind][]ports.SourceAdapter{}}
}

// Register appends adapters to a kind's chain in priority order.
func (r *Registry) Register(kind domain.Kind, adapters ...ports.SourceAdapter) {
	if r.chains == nil {
		r.chains = map[domain.Kind][]ports.SourceAdapter{}
	}
	r.chains[kind] = append(r.chains[kind], adapters...)
}

// ForKind returns the adapter chain for a kind, or an error for a kind
// nothing was registered under. Callers must not mutate the slice.
func (r *Registry) ForKind(kind domain.Kind) ([]ports.SourceAdapter, error) {
	chain, ok := r.chains[kind]
	if !ok || len(chain) == 0 {
		return nil, fmt.Errorf("no adapters registered for kind %q", kind)
	}
	return chain, nil
}

// Default wires the production adapter chains. The CAS order follows the
// historical fallback chain (ChemBlink answered most reliably); the
// product-name order leads with ChemicalSafety, the only catalog with a
// real synonym search.
func Default(opts catalog.Options) *Registry {
	r := New()

	r.Register(domain.KindCAS,
		catalog.NewChemBlinkCAS(opts),
		catalog.NewAvantorCAS(opts),
		catalog.NewFisherCAS(opts),
		catalog.NewTCICAS(opts),
		catalog.NewChemicalSafetyCAS(opts),
		catalog.NewFluorochemCAS(opts),
	)

	r.Register(domain.KindProductName,
		catalog.NewChemicalSafetyName(opts),
		catalog.NewVWRName(opts),
		catalog.NewFisherName(opts),
		catalog.NewTCIName(opts),
		catalog.NewChemBlinkName(opts),
		catalog.NewFluorochemName(opts),
	)

	return r
}
