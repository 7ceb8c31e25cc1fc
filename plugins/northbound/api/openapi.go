package api

import (
	"net/http"
	"reflect"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/veesix-networks/osvolt/pkg/version"
)

const (
	tagAttachment = "Attachment point"
	tagService    = "Subscriber service"
	tagGeneral    = "General"
)

var paramDescriptions = map[string]string{
	"device":   "Device identifier, e.g. of:00000000000000a1",
	"port":     "Port number on the device",
	"portName": "Subscriber port name",
	"sTag":     "Service (outer) VLAN tag, 0-4094",
	"cTag":     "Customer (inner) VLAN tag, 0-4094",
}

func buildOpenAPISpec(basePath string, routes []route, withHealth bool) *openapi3.T {
	spec := &openapi3.T{
		OpenAPI: "3.0.3",
		Info: &openapi3.Info{
			Title:       "osvOLT API",
			Description: "Subscriber provisioning API for OLT access devices",
			Version:     version.Version,
		},
		Paths: &openapi3.Paths{},
		Tags: openapi3.Tags{
			{Name: tagAttachment, Description: "Provisioning by device and port number"},
			{Name: tagService, Description: "Provisioning by subscriber port name"},
			{Name: tagGeneral, Description: "General API endpoints"},
		},
	}

	for _, rt := range routes {
		urlPath := basePath + rt.Path

		existing := spec.Paths.Value(urlPath)
		if existing == nil {
			existing = &openapi3.PathItem{}
		}
		existing.SetOperation(rt.Method, routeOperation(rt))
		spec.Paths.Set(urlPath, existing)
	}

	addFixedEndpoints(spec, basePath)
	if withHealth {
		addHealthEndpoints(spec, basePath)
	}

	return spec
}

func routeOperation(rt route) *openapi3.Operation {
	tag := tagService
	if !strings.HasPrefix(rt.Path, "/services/") {
		tag = tagAttachment
	}

	var params openapi3.Parameters
	for _, name := range rt.Params {
		params = append(params, &openapi3.ParameterRef{
			Value: &openapi3.Parameter{
				Name:        name,
				In:          "path",
				Required:    true,
				Description: paramDescriptions[name],
				Schema:      paramSchema(name),
			},
		})
	}

	var responses []openapi3.NewResponsesOption

	switch rt.Operation {
	case OpProvisionAttachment:
		responses = append(responses, withEmpty(http.StatusOK, "Provisioning request accepted"))
	case OpRemoveAttachment:
		responses = append(responses, withEmpty(http.StatusNoContent, "Removal request accepted"))
	default:
		responses = append(responses,
			withEmpty(http.StatusOK, "Request applied"),
			withEmpty(http.StatusNotFound, "Rejected by the access device service"),
		)
	}

	responses = append(responses,
		withError(http.StatusBadRequest, "Malformed identifier"),
		withError(http.StatusTooManyRequests, "Rate limit exceeded"),
		withError(http.StatusInternalServerError, "Internal server error"),
	)

	return &openapi3.Operation{
		Tags:        []string{tag},
		Summary:     rt.Summary,
		OperationID: rt.Operation,
		Parameters:  params,
		Responses:   openapi3.NewResponses(responses...),
	}
}

func addFixedEndpoints(spec *openapi3.T, basePath string) {
	spec.Paths.Set(basePath+"/status", &openapi3.PathItem{
		Get: &openapi3.Operation{
			Tags:        []string{tagGeneral},
			Summary:     "Get API and access service status",
			OperationID: "getStatus",
			Responses: openapi3.NewResponses(
				openapi3.WithStatus(http.StatusOK, &openapi3.ResponseRef{
					Value: &openapi3.Response{
						Description: ptr("Component status"),
						Content: openapi3.NewContentWithJSONSchemaRef(
							schemaFromType(reflect.TypeOf(Status{})),
						),
					},
				}),
			),
		},
	})

	spec.Paths.Set(basePath+"/openapi.json", &openapi3.PathItem{
		Get: &openapi3.Operation{
			Tags:        []string{tagGeneral},
			Summary:     "Get this OpenAPI document",
			OperationID: "getOpenAPI",
			Responses: openapi3.NewResponses(
				openapi3.WithStatus(http.StatusOK, &openapi3.ResponseRef{
					Value: &openapi3.Response{Description: ptr("OpenAPI 3 document")},
				}),
			),
		},
	})
}

func addHealthEndpoints(spec *openapi3.T, basePath string) {
	spec.Paths.Set(basePath+"/healthz", &openapi3.PathItem{
		Get: &openapi3.Operation{
			Tags:        []string{tagGeneral},
			Summary:     "Liveness probe",
			OperationID: "getHealthz",
			Responses: openapi3.NewResponses(
				withEmpty(http.StatusOK, "Process is alive"),
			),
		},
	})

	spec.Paths.Set(basePath+"/readyz", &openapi3.PathItem{
		Get: &openapi3.Operation{
			Tags:        []string{tagGeneral},
			Summary:     "Readiness probe reporting watchdog target states",
			OperationID: "getReadyz",
			Responses: openapi3.NewResponses(
				withEmpty(http.StatusOK, "All critical targets are up"),
				withEmpty(http.StatusServiceUnavailable, "A critical target is down"),
			),
		},
	})
}

func paramSchema(name string) *openapi3.SchemaRef {
	switch name {
	case "port":
		return &openapi3.SchemaRef{Value: &openapi3.Schema{
			Type:   &openapi3.Types{"integer"},
			Format: "int64",
			Min:    fptr(0),
			Max:    fptr(4294967295),
		}}
	case "sTag", "cTag":
		return &openapi3.SchemaRef{Value: &openapi3.Schema{
			Type: &openapi3.Types{"integer"},
			Min:  fptr(0),
			Max:  fptr(4094),
		}}
	}
	return &openapi3.SchemaRef{Value: &openapi3.Schema{Type: &openapi3.Types{"string"}}}
}

func withEmpty(status int, desc string) openapi3.NewResponsesOption {
	return openapi3.WithStatus(status, &openapi3.ResponseRef{Value: &openapi3.Response{Description: ptr(desc)}})
}

func withError(status int, desc string) openapi3.NewResponsesOption {
	return openapi3.WithStatus(status, &openapi3.ResponseRef{
		Value: &openapi3.Response{
			Description: ptr(desc),
			Content: openapi3.NewContentWithJSONSchemaRef(
				schemaFromType(reflect.TypeOf(ErrorResponse{})),
			),
		},
	})
}

func schemaFromType(t reflect.Type) *openapi3.SchemaRef {
	if t == nil {
		return &openapi3.SchemaRef{Value: &openapi3.Schema{Type: &openapi3.Types{"object"}}}
	}

	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	switch t.Kind() {
	case reflect.Bool:
		return &openapi3.SchemaRef{Value: &openapi3.Schema{Type: &openapi3.Types{"boolean"}}}

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return &openapi3.SchemaRef{Value: &openapi3.Schema{Type: &openapi3.Types{"integer"}}}

	case reflect.Float32, reflect.Float64:
		return &openapi3.SchemaRef{Value: &openapi3.Schema{Type: &openapi3.Types{"number"}}}

	case reflect.String:
		return &openapi3.SchemaRef{Value: &openapi3.Schema{Type: &openapi3.Types{"string"}}}

	case reflect.Slice:
		return &openapi3.SchemaRef{
			Value: &openapi3.Schema{
				Type:  &openapi3.Types{"array"},
				Items: schemaFromType(t.Elem()),
			},
		}

	case reflect.Map:
		return &openapi3.SchemaRef{
			Value: &openapi3.Schema{
				Type:                 &openapi3.Types{"object"},
				AdditionalProperties: openapi3.AdditionalProperties{Schema: schemaFromType(t.Elem())},
			},
		}

	case reflect.Struct:
		return structToSchema(t)
	}

	return &openapi3.SchemaRef{Value: &openapi3.Schema{Type: &openapi3.Types{"object"}}}
}

func structToSchema(t reflect.Type) *openapi3.SchemaRef {
	properties := openapi3.Schemas{}

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}

		jsonTag := field.Tag.Get("json")
		if jsonTag == "-" {
			continue
		}

		name := field.Name
		if tagName, _, _ := strings.Cut(jsonTag, ","); tagName != "" {
			name = tagName
		}

		properties[name] = schemaFromType(field.Type)
	}

	return &openapi3.SchemaRef{
		Value: &openapi3.Schema{
			Type:       &openapi3.Types{"object"},
			Properties: properties,
		},
	}
}

func ptr(s string) *string {
	return &s
}

func fptr(f float64) *float64 {
	return &f
}
