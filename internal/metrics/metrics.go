package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	Verdicts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "executor_verdicts_total",
		Help: "Result flags assigned to judged runs",
	}, []string{"executor", "flag"})

	PreflightFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "executor_preflight_failures_total",
		Help: "Submissions rejected before execution, by error kind",
	}, []string{"executor", "kind"})

	Incidents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "executor_incidents_total",
		Help: "Unexplained failures escalated to operators",
	}, []string{"executor"})
)

func Handler() http.Handler {
	return promhttp.Handler()
}
