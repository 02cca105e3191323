package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	BracketsGenerated = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "bracket_generated_total", Help: "Total brackets built"},
	)
	ResultsRecorded = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "bracket_results_recorded_total", Help: "Total match results recorded"},
	)
	SnapshotWrites = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "bracket_snapshot_writes_total", Help: "Snapshot writes by key"},
		[]string{"key"},
	)
	SnapshotFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "bracket_snapshot_failures_total", Help: "Failed snapshot writes by key"},
		[]string{"key"},
	)
)

func Register() {
	prometheus.MustRegister(BracketsGenerated, ResultsRecorded, SnapshotWrites, SnapshotFailures)
}
