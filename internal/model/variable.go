package model

import (
	"strings"

	"github.com/Masterminds/semver/v3"

	"github.com/mark3labs/apigen/internal/descriptor"
	"github.com/mark3labs/apigen/internal/errs"
)

// Direction tells request parameters from response properties.
type Direction int

const (
	Request Direction = iota
	Response
)

func (d Direction) String() string {
	if d == Response {
		return "response"
	}
	return "request"
}

// Variable is one named, typed field of a request or response.
type Variable struct {
	Name        string
	Description string
	RawType     string
	Type        ResolvedType
	Length      int
	Required    bool
	Since       string
	// SinceVersion is nil when Since is empty or unparseable.
	SinceVersion *semver.Version
	Related      []string
	Direction    Direction
	// Object is the deduplicated shape of an object valued field. For
	// collections it is the element shape.
	Object *ObjectVariable
}

// NewVariable builds a Variable from a decoded parameter. An empty name is
// errs.InvalidInput.
func NewVariable(method string, p descriptor.Param, dir Direction) (*Variable, error) {
	name := strings.TrimSpace(p.Name)
	if name == "" {
		return nil, errs.Invalid(method, dir.String(), "%s field has an empty name", dir)
	}
	v := &Variable{
		Name:        name,
		Description: strings.TrimSpace(p.Description),
		RawType:     p.Type,
		Type:        Resolve(p.Type),
		Length:      p.Length,
		Required:    p.Required,
		Since:       strings.TrimSpace(p.Since),
		Related:     append([]string(nil), p.Related...),
		Direction:   dir,
	}
	if v.Since != "" {
		if sv, err := ParseVersion(v.Since); err == nil {
			v.SinceVersion = sv
		}
	}
	return v, nil
}

func (v *Variable) IsCollection() bool { return v.Type.IsCollection() }
func (v *Variable) IsDate() bool       { return v.Type.IsDate() }
func (v *Variable) IsObject() bool     { return v.Object != nil }

// ItemType is the element type of a collection. Object elements report
// Object; anything else falls back to DefaultItemType.
func (v *Variable) ItemType() ResolvedType {
	if v.Object != nil {
		return ResolvedType{Kind: Object, Tag: "object"}
	}
	return DefaultItemType
}

// Doc renders the field documentation line, e.g.
// "the zone ID (required, since 4.2.0)". Only request parameters carry the
// required or optional marker.
func (v *Variable) Doc() string {
	var attrs []string
	if v.Direction == Request {
		if v.Required {
			attrs = append(attrs, "required")
		} else {
			attrs = append(attrs, "optional")
		}
	}
	if v.Since != "" {
		attrs = append(attrs, "since "+v.Since)
	}
	desc := v.Description
	if len(attrs) == 0 {
		return desc
	}
	suffix := "(" + strings.Join(attrs, ", ") + ")"
	if desc == "" {
		return suffix
	}
	return desc + " " + suffix
}

// token is the signature fragment of v: name, resolved type and required flag.
// Object shapes embed their own signature.
func (v *Variable) token() string {
	var t string
	switch {
	case v.Object != nil && v.IsCollection():
		t = "[]{" + v.Object.signature + "}"
	case v.Object != nil:
		t = "{" + v.Object.signature + "}"
	default:
		t = v.Type.token()
	}
	req := "0"
	if v.Required {
		req = "1"
	}
	return v.Name + "|" + t + "|" + req
}
