package health

import (
	"encoding/json"
	"net/http"
	"time"
)

type Result struct {
	Healthy   bool          `json:"healthy"`
	Error     error         `json:"-"`
	ErrorStr  string        `json:"error,omitempty"`
	Latency   time.Duration `json:"-"`
	LatencyMs float64       `json:"latency_ms"`
	Timestamp time.Time     `json:"timestamp"`
}

func NewResult(err error, latency time.Duration) *Result {
	r := &Result{
		Healthy:   err == nil,
		Error:     err,
		Latency:   latency,
		LatencyMs: float64(latency.Microseconds()) / 1000.0,
		Timestamp: time.Now(),
	}
	if err != nil {
		r.ErrorStr = err.Error()
	}
	return r
}

type StateInfo struct {
	Name            string    `json:"name"`
	State           string    `json:"state"`
	Critical        bool      `json:"critical"`
	LastCheck       *Result   `json:"last_check,omitempty"`
	ConsecFailures  int64     `json:"consecutive_failures"`
	TotalFailures   int64     `json:"total_failures"`
	LastStateChange time.Time `json:"last_state_change"`
	Uptime          string    `json:"uptime,omitempty"`
}

// StateProvider reports the health of the daemon's dependencies.
type StateProvider interface {
	GetAllStates() []StateInfo
	IsReady() bool
}

type response struct {
	Status  string      `json:"status"`
	Targets []StateInfo `json:"targets,omitempty"`
}

func HealthzHandler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		rw.Header().Set("Content-Type", "application/json")
		rw.WriteHeader(http.StatusOK)
		json.NewEncoder(rw).Encode(response{Status: "ok"})
	}
}

// ReadyzHandler answers 503 while any critical target is not up.
func ReadyzHandler(p StateProvider) http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		rw.Header().Set("Content-Type", "application/json")

		resp := response{Targets: p.GetAllStates()}

		if p.IsReady() {
			resp.Status = "ready"
			rw.WriteHeader(http.StatusOK)
		} else {
			resp.Status = "not_ready"
			rw.WriteHeader(http.StatusServiceUnavailable)
		}

		json.NewEncoder(rw).Encode(resp)
	}
}
