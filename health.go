package relay

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/rs/zerolog"
)

// HealthStatus tracks application health
type HealthStatus struct {
	mu      sync.RWMutex
	healthy bool
	ready   bool
}

func newHealthStatus() *HealthStatus {
	return &HealthStatus{}
}

func (h *HealthStatus) SetHealthy(healthy bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.healthy = healthy
}

func (h *HealthStatus) SetReady(ready bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.ready = ready
}

func (h *HealthStatus) IsHealthy() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.healthy
}

func (h *HealthStatus) IsReady() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.ready
}

// Handler serves /health (alive) and /ready (accepting traffic).
func (h *HealthStatus) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeStatus(w, h.IsHealthy(), "healthy", "unhealthy")
	})
	mux.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		writeStatus(w, h.IsReady(), "ready", "not ready")
	})
	return mux
}

func writeStatus(w http.ResponseWriter, ok bool, up, down string) {
	w.Header().Set("Content-Type", "application/json")
	status := up
	if ok {
		w.WriteHeader(http.StatusOK)
	} else {
		w.WriteHeader(http.StatusServiceUnavailable)
		status = down
	}
	json.NewEncoder(w).Encode(map[string]string{"status": status})
}

// startServer serves handler on addr in the background.
func startServer(name, addr string, handler http.Handler, logger zerolog.Logger) *http.Server {
	server := &http.Server{
		Addr:    addr,
		Handler: handler,
	}

	go func() {
		logger.Info().Str("server", name).Str("addr", addr).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Str("server", name).Msg("server error")
		}
	}()

	return server
}
