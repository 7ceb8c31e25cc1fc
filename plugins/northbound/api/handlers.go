package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/veesix-networks/osvolt/pkg/logger"
	"github.com/veesix-networks/osvolt/pkg/models/olt"
	"github.com/veesix-networks/osvolt/pkg/provision"
)

const (
	resultInvalid     = "invalid"
	resultError       = "error"
	resultRateLimited = "rate_limited"
)

// provisioning wraps a route: rate limiting, the call into the surface and
// the mapping of its outcome to an HTTP status.
func (c *Component) provisioning(rt route) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		log := logger.WithRequest(c.logger, logger.RequestAttrs{
			RequestID: requestID(r.Context()),
			Method:    r.Method,
			Path:      r.URL.Path,
		})

		if !c.limiter.allow(clientKey(r), start) {
			c.metrics.RateLimited(rt.Operation)
			c.metrics.ObserveRequest(rt.Operation, resultRateLimited, time.Since(start))
			log.Warn("Rate limit exceeded", "operation", rt.Operation, "remote", r.RemoteAddr)
			c.writeError(w, r, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}

		res, err := rt.handle(r)
		elapsed := time.Since(start)

		if err != nil {
			if errors.Is(err, olt.ErrInvalidIdentifier) {
				c.metrics.ObserveRequest(rt.Operation, resultInvalid, elapsed)
				log.Info("Rejected malformed request", "operation", rt.Operation, "error", err)
				c.writeError(w, r, http.StatusBadRequest, err.Error())
				return
			}

			c.metrics.ObserveRequest(rt.Operation, resultError, elapsed)
			log.Error("Provisioning request failed", "operation", rt.Operation, "error", err)
			c.writeError(w, r, http.StatusInternalServerError, err.Error())
			return
		}

		c.metrics.ObserveRequest(rt.Operation, res.String(), elapsed)
		log.Info("Provisioning request handled", "operation", rt.Operation, "result", res, "duration", elapsed)

		switch res {
		case provision.Accepted:
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
		case provision.AcceptedNoContent:
			w.WriteHeader(http.StatusNoContent)
		case provision.NotFound:
			w.WriteHeader(http.StatusNotFound)
		default:
			c.writeError(w, r, http.StatusInternalServerError, "unexpected result "+res.String())
		}
	})
}

func (c *Component) handleStatus(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	c.writeJSON(w, c.GetStatus())
}

func (c *Component) handleOpenAPI(w http.ResponseWriter, r *http.Request) {
	spec := buildOpenAPISpec(c.cfg.BasePath, c.routes(), c.health != nil)

	data, err := spec.MarshalJSON()
	if err != nil {
		c.writeError(w, r, http.StatusInternalServerError, err.Error())
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Write(data)
}

func (c *Component) writeError(w http.ResponseWriter, r *http.Request, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	c.writeJSON(w, ErrorResponse{Error: message, RequestID: requestID(r.Context())})
}

func (c *Component) writeJSON(w http.ResponseWriter, v any) {
	encoder := json.NewEncoder(w)
	encoder.SetEscapeHTML(false)
	if err := encoder.Encode(v); err != nil {
		c.logger.Debug("Failed to write response", "error", err)
	}
}
