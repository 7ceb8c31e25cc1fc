// Package all links every plugin into the binary. Plugins register their
// component factory from init.
package all

import (
	_ "github.com/veesix-networks/osvolt/plugins/exporter/prometheus"
	_ "github.com/veesix-networks/osvolt/plugins/northbound/api"
)
