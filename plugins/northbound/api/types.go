package api

import (
	"github.com/veesix-networks/osvolt/pkg/access"
	"github.com/veesix-networks/osvolt/pkg/events"
)

type Status struct {
	State         string        `json:"state"`
	ListenAddress string        `json:"listen_address"`
	BasePath      string        `json:"base_path"`
	Running       bool          `json:"running"`
	Access        *access.Stats `json:"access,omitempty"`
	Events        *events.Stats `json:"events,omitempty"`
}

type ErrorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}
