package api

import "github.com/veesix-networks/osvolt/pkg/component"

const Namespace = "northbound.api"

func init() {
	component.Register(Namespace, NewComponent)
}
