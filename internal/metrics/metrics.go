// Package metrics holds the Prometheus collectors for lineage imports.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Pass names used as label values.
const (
	PassRelax  = "relax"
	PassSpouse = "spouse"
)

var (
	// importsTotal counts imports by result kind ("ok" on success)
	importsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "lineage_imports_total",
		Help: "Total text imports by result",
	}, []string{"result"})

	// importPeople tracks how many people an import produced
	importPeople = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "lineage_import_people",
		Help:    "People per successful import",
		Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 1000},
	})

	// levelRounds tracks rounds used by each level pass
	levelRounds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "lineage_level_rounds",
		Help:    "Rounds run by each level solver pass",
		Buckets: []float64{1, 2, 3, 5, 10, 25, 50, 100},
	}, []string{"pass"})

	// roundBoundHits counts passes stopped by the round bound
	roundBoundHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "lineage_round_bound_hits_total",
		Help: "Level solver passes that stopped at the round bound",
	}, []string{"pass"})
)

// ObserveImport records the outcome of one import.
func ObserveImport(result string, people int) {
	importsTotal.WithLabelValues(result).Inc()
	if people > 0 {
		importPeople.Observe(float64(people))
	}
}

// ObservePass records one level solver pass.
func ObservePass(pass string, rounds int, converged bool) {
	levelRounds.WithLabelValues(pass).Observe(float64(rounds))
	if !converged {
		roundBoundHits.WithLabelValues(pass).Inc()
	}
}

// Handler exposes the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
