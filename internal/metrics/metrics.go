package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"sdsfinder/internal/domain"
	"sdsfinder/internal/ports"
)

// Metrics counts catalog lookups and document fetches.
type Metrics struct {
	Lookups   *prometheus.CounterVec
	Downloads *prometheus.CounterVec
}

var _ ports.Observer = (*Metrics)(nil)

// New creates and registers the Prometheus metrics with reg; a nil reg
// uses the default registerer.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		Lookups: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "sdsfinder_catalog_lookups_total",
			Help: "Catalog lookups by catalog and outcome status",
		}, []string{"catalog", "status"}),
		Downloads: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "sdsfinder_downloads_total",
			Help: "Document fetch attempts by result",
		}, []string{"result"}),
	}
}

// LookupDone records one adapter invocation.
func (m *Metrics) LookupDone(database string, status domain.Status) {
	m.Lookups.WithLabelValues(database, string(status)).Inc()
}

// FetchDone records one fetch attempt.
func (m *Metrics) FetchDone(downloaded bool) {
	result := "missing"
	if downloaded {
		result = "downloaded"
	}
	m.Downloads.WithLabelValues(result).Inc()
}
