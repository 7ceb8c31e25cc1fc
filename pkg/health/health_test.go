package health

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedStates struct {
	ready  bool
	states []StateInfo
}

func (f fixedStates) GetAllStates() []StateInfo { return f.states }
func (f fixedStates) IsReady() bool             { return f.ready }

func TestNewResult(t *testing.T) {
	ok := NewResult(nil, 1500*time.Microsecond)
	assert.True(t, ok.Healthy)
	assert.Empty(t, ok.ErrorStr)
	assert.InDelta(t, 1.5, ok.LatencyMs, 0.001)

	bad := NewResult(errors.New("refused"), time.Millisecond)
	assert.False(t, bad.Healthy)
	assert.Equal(t, "refused", bad.ErrorStr)
}

func TestReadyz(t *testing.T) {
	tests := []struct {
		name   string
		ready  bool
		code   int
		status string
	}{
		{"ready", true, http.StatusOK, "ready"},
		{"not ready", false, http.StatusServiceUnavailable, "not_ready"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := fixedStates{ready: tt.ready, states: []StateInfo{{Name: "opdb", State: "up", Critical: true}}}

			rec := httptest.NewRecorder()
			ReadyzHandler(p)(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))

			assert.Equal(t, tt.code, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

			var body response
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.status, body.Status)
			require.Len(t, body.Targets, 1)
			assert.Equal(t, "opdb", body.Targets[0].Name)
		})
	}
}

func TestHealthz(t *testing.T) {
	rec := httptest.NewRecorder()
	HealthzHandler()(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}
