package api

import (
	"net/http"

	"github.com/veesix-networks/osvolt/pkg/models/olt"
	"github.com/veesix-networks/osvolt/pkg/provision"
)

const (
	OpProvisionAttachment    = "provision_attachment"
	OpRemoveAttachment       = "remove_attachment"
	OpProvisionService       = "provision_service"
	OpProvisionServiceTagged = "provision_service_tagged"
	OpRemoveService          = "remove_service"
	OpRemoveServiceTagged    = "remove_service_tagged"
)

type route struct {
	Method    string
	Path      string
	Operation string
	Summary   string
	Params    []string
	handle    func(r *http.Request) (provision.Result, error)
}

func (c *Component) routes() []route {
	return []route{
		{
			Method:    http.MethodPost,
			Path:      "/{device}/{port}",
			Operation: OpProvisionAttachment,
			Summary:   "Provision a subscriber on a device port",
			Params:    []string{"device", "port"},
			handle: func(r *http.Request) (provision.Result, error) {
				port, err := olt.ParsePort(r.PathValue("port"))
				if err != nil {
					return 0, err
				}
				return c.surface.ProvisionByAttachmentPoint(r.PathValue("device"), port)
			},
		},
		{
			Method:    http.MethodDelete,
			Path:      "/{device}/{port}",
			Operation: OpRemoveAttachment,
			Summary:   "Remove the provisioning of a subscriber on a device port",
			Params:    []string{"device", "port"},
			handle: func(r *http.Request) (provision.Result, error) {
				port, err := olt.ParsePort(r.PathValue("port"))
				if err != nil {
					return 0, err
				}
				return c.surface.RemoveByAttachmentPoint(r.PathValue("device"), port)
			},
		},
		{
			Method:    http.MethodPost,
			Path:      "/services/{portName}",
			Operation: OpProvisionService,
			Summary:   "Provision service for the subscriber on a named port",
			Params:    []string{"portName"},
			handle: func(r *http.Request) (provision.Result, error) {
				return c.surface.ProvisionByPortName(r.Context(), r.PathValue("portName"))
			},
		},
		{
			Method:    http.MethodPost,
			Path:      "/services/{portName}/{sTag}/{cTag}",
			Operation: OpProvisionServiceTagged,
			Summary:   "Provision a double-tagged service for the subscriber on a named port",
			Params:    []string{"portName", "sTag", "cTag"},
			handle: func(r *http.Request) (provision.Result, error) {
				return c.surface.ProvisionByPortNameWithTags(r.Context(),
					r.PathValue("portName"), r.PathValue("sTag"), r.PathValue("cTag"))
			},
		},
		{
			Method:    http.MethodDelete,
			Path:      "/services/{portName}",
			Operation: OpRemoveService,
			Summary:   "Remove services of the subscriber on a named port",
			Params:    []string{"portName"},
			handle: func(r *http.Request) (provision.Result, error) {
				return c.surface.RemoveByPortName(r.Context(), r.PathValue("portName"))
			},
		},
		{
			Method:    http.MethodDelete,
			Path:      "/services/{portName}/{sTag}/{cTag}",
			Operation: OpRemoveServiceTagged,
			Summary:   "Remove a double-tagged service of the subscriber on a named port",
			Params:    []string{"portName", "sTag", "cTag"},
			handle: func(r *http.Request) (provision.Result, error) {
				return c.surface.RemoveByPortNameWithTags(r.Context(),
					r.PathValue("portName"), r.PathValue("sTag"), r.PathValue("cTag"))
			},
		},
	}
}
