package model

import (
	"strings"

	"github.com/Masterminds/semver/v3"
)

// Method is a fully resolved API command.
type Method struct {
	Name         string
	Description  string
	Async        bool
	Since        string
	SinceVersion *semver.Version
	Related      []string
	Params       *Container
	Response     *ObjectVariable
}

// IsList reports whether the command is a listing, which is paged.
func (m *Method) IsList() bool { return strings.HasPrefix(m.Name, "list") }

func (m *Method) RequiredCount() int { return len(m.Params.Required()) }
func (m *Method) OptionalCount() int { return len(m.Params.Optional()) }

// RequestClassName is the name of the request builder type.
func (m *Method) RequestClassName() string { return Ucfirst(m.Name) + "Request" }

// Doc is the method description followed by async and since markers.
func (m *Method) Doc() string {
	var attrs []string
	if m.Async {
		attrs = append(attrs, "async")
	}
	if m.Since != "" {
		attrs = append(attrs, "since "+m.Since)
	}
	if len(attrs) == 0 {
		return m.Description
	}
	suffix := "(" + strings.Join(attrs, ", ") + ")"
	if m.Description == "" {
		return suffix
	}
	return m.Description + " " + suffix
}
