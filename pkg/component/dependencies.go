package component

import (
	"github.com/veesix-networks/osvolt/pkg/access"
	"github.com/veesix-networks/osvolt/pkg/config"
	"github.com/veesix-networks/osvolt/pkg/events"
	"github.com/veesix-networks/osvolt/pkg/health"
	"github.com/veesix-networks/osvolt/pkg/metrics"
)

// Dependencies is handed to every plugin factory. Access is the service the
// northbound surface provisions through. Health is nil when the watchdog is
// disabled.
type Dependencies struct {
	Config   *config.Config
	EventBus events.Bus
	Access   access.Service
	Metrics  *metrics.Metrics
	Health   health.StateProvider
}
