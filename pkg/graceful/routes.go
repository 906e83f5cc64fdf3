package graceful

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const probeTimeout = 3 * time.Second

// Probes is the health surface served on /healthz and /readyz.
type Probes interface {
	Liveness(ctx context.Context) error
	Readiness(ctx context.Context) error
}

type probeResponse struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// Routes returns the operational HTTP surface: Prometheus metrics and probes.
func Routes(probes Probes) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", probeHandler(probes.Liveness))
	mux.HandleFunc("/readyz", probeHandler(probes.Readiness))
	return mux
}

func probeHandler(probe func(ctx context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), probeTimeout)
		defer cancel()

		status := http.StatusOK
		body := probeResponse{Status: "ok"}
		if err := probe(ctx); err != nil {
			status = http.StatusServiceUnavailable
			body = probeResponse{Status: "unavailable", Error: err.Error()}
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(body)
	}
}
