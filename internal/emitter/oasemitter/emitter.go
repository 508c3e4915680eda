// Package oasemitter renders the model as one OpenAPI 3 document: a path per
// command and a component schema per object.
package oasemitter

import (
	"context"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/go-json-experiment/json"
	"github.com/go-json-experiment/json/jsontext"
	"gopkg.in/yaml.v3"

	"github.com/mark3labs/apigen/internal/emitter"
	"github.com/mark3labs/apigen/internal/errs"
	"github.com/mark3labs/apigen/internal/model"
)

const (
	JSONFile = "openapi.json"
	YAMLFile = "openapi.yaml"

	schemaPrefix = "#/components/schemas/"
)

// Renderer emits openapi.json and openapi.yaml.
type Renderer struct{}

func New() *Renderer { return &Renderer{} }

func (r *Renderer) Name() string { return "openapi" }

// Path anchors every unit inside the single document.
func (r *Renderer) Path(kind emitter.Kind, className, namespace string) string {
	if kind == emitter.Method {
		return JSONFile + "#/paths/" + className
	}
	return JSONFile + "#/components/schemas/" + className
}

// Render is a no-op; Aggregate builds the document.
func (r *Renderer) Render(u emitter.Unit, info emitter.Info) ([]byte, error) { return nil, nil }

func (r *Renderer) Aggregate(units []emitter.Unit, info emitter.Info) (map[string][]byte, error) {
	doc := Document(units, info)
	if err := Validate(context.Background(), doc); err != nil {
		return nil, err
	}
	js, err := json.Marshal(doc, jsontext.WithIndent("  "), json.Deterministic(true))
	if err != nil {
		return nil, errs.Wrap(errs.InvalidInput, err, "encode %s", JSONFile)
	}
	ys, err := yaml.Marshal(doc)
	if err != nil {
		return nil, errs.Wrap(errs.InvalidInput, err, "encode %s", YAMLFile)
	}
	return map[string][]byte{JSONFile: append(js, '\n'), YAMLFile: ys}, nil
}

// Document builds the OpenAPI document as plain maps.
func Document(units []emitter.Unit, info emitter.Info) map[string]any {
	title := info.Namespace
	if title == "" {
		title = "API"
	}
	version := info.APIVersion
	if version == "" {
		version = "unversioned"
	}
	paths := map[string]any{}
	schemas := map[string]any{}
	for _, u := range units {
		switch u.Kind {
		case emitter.Method:
			paths["/"+u.Method.Name] = map[string]any{"get": operation(u.Method)}
		default:
			schemas[u.Object.ClassName()] = objectSchema(u.Object)
		}
	}
	return map[string]any{
		"openapi": "3.0.3",
		"info": map[string]any{
			"title":   title,
			"version": version,
		},
		"paths":      paths,
		"components": map[string]any{"schemas": schemas},
	}
}

// Validate loads doc with kin-openapi and runs its document validation.
func Validate(ctx context.Context, doc map[string]any) error {
	raw, err := json.Marshal(doc, json.Deterministic(true))
	if err != nil {
		return errs.Wrap(errs.InvalidInput, err, "encode document")
	}
	loader := openapi3.NewLoader()
	loaded, err := loader.LoadFromData(raw)
	if err != nil {
		return errs.Wrap(errs.InvalidInput, err, "load generated document")
	}
	if err := loaded.Validate(ctx); err != nil {
		return errs.Wrap(errs.InvalidInput, err, "generated document is invalid")
	}
	return nil
}

func operation(m *model.Method) map[string]any {
	op := map[string]any{
		"operationId": m.Name,
		"x-async":     m.Async,
		"responses": map[string]any{
			"200": map[string]any{
				"description": "successful response",
				"content": map[string]any{
					"application/json": map[string]any{
						"schema": map[string]any{"$ref": schemaPrefix + m.Response.ClassName()},
					},
				},
			},
		},
	}
	if m.Description != "" {
		op["summary"] = m.Description
	}
	if m.Since != "" {
		op["x-since"] = m.Since
	}
	if len(m.Related) > 0 {
		op["x-related"] = toAny(m.Related)
	}
	var params []any
	for _, v := range m.Params.All() {
		p := map[string]any{
			"name":     v.Name,
			"in":       "query",
			"required": v.Required,
			"schema":   schema(v),
		}
		if v.Description != "" {
			p["description"] = v.Description
		}
		params = append(params, p)
	}
	if len(params) > 0 {
		op["parameters"] = params
	}
	return op
}

func objectSchema(o *model.ObjectVariable) map[string]any {
	props := map[string]any{}
	for _, v := range o.Properties.All() {
		props[v.Name] = schema(v)
	}
	s := map[string]any{"type": "object", "x-namespace": o.Namespace}
	if len(props) > 0 {
		s["properties"] = props
	}
	if o.Description != "" {
		s["description"] = o.Description
	}
	return s
}

func schema(v *model.Variable) map[string]any {
	var s map[string]any
	switch {
	case v.Object != nil && v.IsCollection():
		s = map[string]any{"type": "array", "items": map[string]any{"$ref": schemaPrefix + v.Object.ClassName()}}
	case v.Object != nil:
		// Siblings of $ref are ignored in 3.0, so the field doc stays off it.
		return map[string]any{"$ref": schemaPrefix + v.Object.ClassName()}
	default:
		s = scalarSchema(v)
	}
	if v.Description != "" {
		s["description"] = v.Description
	}
	if v.Length > 0 && s["type"] == "string" {
		s["maxLength"] = v.Length
	}
	return s
}

func scalarSchema(v *model.Variable) map[string]any {
	switch v.Type.Kind {
	case model.Boolean:
		return map[string]any{"type": "boolean"}
	case model.Integer:
		return map[string]any{"type": "integer", "format": "int64"}
	case model.Float:
		return map[string]any{"type": "number", "format": "double"}
	case model.Date:
		return map[string]any{"type": "string", "format": "date-time"}
	case model.UUID:
		return map[string]any{"type": "string", "format": "uuid"}
	case model.URL:
		return map[string]any{"type": "string", "format": "uri"}
	case model.Collection:
		if v.Type.Tag == "map" {
			return map[string]any{"type": "object"}
		}
		return map[string]any{"type": "array", "items": map[string]any{"type": "string"}}
	case model.Object:
		return map[string]any{"type": "object"}
	case model.Opaque:
		if v.Type.Tag != "" {
			return map[string]any{"type": "string", "x-raw-type": v.Type.Tag}
		}
		return map[string]any{"type": "string"}
	default:
		return map[string]any{"type": "string"}
	}
}

func toAny(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}
