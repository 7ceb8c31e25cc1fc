package prometheus

import "github.com/veesix-networks/osvolt/pkg/component"

const Namespace = "exporter.prometheus"

func init() {
	component.Register(Namespace, New)
}
