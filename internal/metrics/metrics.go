package metrics

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Send-statistics for operator alerting and dashboards.
var (
	FanoutSent = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "lotbot_fanout_sent_total",
		Help: "Messages delivered during fan-out, by sport.",
	}, []string{"sport"})

	FanoutUnreachable = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "lotbot_fanout_unreachable_total",
		Help: "Recipients that removed the chat, by sport.",
	}, []string{"sport"})

	FanoutFailed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "lotbot_fanout_failed_total",
		Help: "Transient delivery failures during fan-out, by sport.",
	}, []string{"sport"})

	SettlementsApplied = promauto.NewCounter(prometheus.CounterOpts{
		Name: "lotbot_settlements_applied_total",
		Help: "Bankroll adjustments applied by the settlement engine.",
	})

	ParseErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "lotbot_parse_errors_total",
		Help: "Authoring messages rejected by the parsers, by kind.",
	}, []string{"kind"})
)

type HealthFunc func(ctx context.Context) error

// StartServer serves /metrics and /healthz on its own port, in a
// goroutine.
func StartServer(port string, healthFn HealthFunc) *http.Server {
	mux := http.NewServeMux()

	mux.Handle("/metrics", promhttp.Handler())

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 500*time.Millisecond)
		defer cancel()

		if err := healthFn(ctx); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(fmt.Sprintf("unhealthy: %v", err)))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	srv := &http.Server{
		Addr:    ":" + port,
		Handler: mux,
	}

	go func() {
		_ = srv.ListenAndServe()
	}()

	return srv
}
