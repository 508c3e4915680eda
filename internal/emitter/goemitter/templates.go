package goemitter

import (
	_ "embed"
	"strings"
)

//go:embed support/date.go
var dateSource string

// dateSupport is support/date.go without its package clause and imports.
func dateSupport() string {
	body := dateSource
	if i := strings.Index(body, "\n)\n"); i >= 0 {
		body = body[i+len("\n)\n"):]
	}
	return strings.TrimSpace(body) + "\n"
}

const header = "// Code generated by apigen. DO NOT EDIT.\n\n"

const structTemplate = header + `package {{.Package}}

{{comment .Doc}}
type {{.Name}} struct {
{{- range .Fields}}
{{- if .Doc}}
	{{comment .Doc}}
{{- end}}
	{{.GoName}} {{.GoType}} ` + "`json:\"{{.JSONName}},omitempty\"`" + `
{{- end}}
}
`

const requestTemplate = header + `package {{.Package}}

import "net/url"

{{comment .Doc}}
type {{.Name}} struct {
	params url.Values
}

// New{{.Name}} returns a {{.Command}} request{{if .Required}} with its required parameters set{{end}}.
func New{{.Name}}({{range $i, $p := .Required}}{{if $i}}, {{end}}{{$p.Arg}} {{$p.GoType}}{{end}}) *{{.Name}} {
	r := &{{.Name}}{params: url.Values{}}
{{- range .Required}}
	r.Set{{.GoName}}({{.Arg}})
{{- end}}
	return r
}
{{range .Params}}
// Set{{.GoName}} sets {{.JSONName}}.{{if .Doc}}
{{comment .Doc}}{{end}}
func (r *{{$.Name}}) Set{{.GoName}}(v {{.GoType}}) *{{$.Name}} {
	{{.Encode}}
	return r
}
{{end}}
// Command is the API command name.
func (r *{{.Name}}) Command() string { return {{printf "%q" .Command}} }

// IsAsync reports whether the command runs as an async job.
func (r *{{.Name}}) IsAsync() bool { return {{.Async}} }

// Params returns the query parameters including the command.
func (r *{{.Name}}) Params() url.Values {
	out := make(url.Values, len(r.params)+1)
	for k, v := range r.params {
		out[k] = append([]string(nil), v...)
	}
	out.Set("command", r.Command())
	return out
}
`

const docTemplate = header + `{{comment .Doc}}
package {{.Package}}
`

const supportTemplate = header + `package {{.Package}}

import (
	"encoding/json"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Request is implemented by every request builder.
type Request interface {
	Command() string
	IsAsync() bool
	Params() url.Values
}

{{dateSupport}}
func formatBool(v bool) string      { return strconv.FormatBool(v) }
func formatInt(v int64) string      { return strconv.FormatInt(v, 10) }
func formatFloat(v float64) string  { return strconv.FormatFloat(v, 'f', -1, 64) }
func formatList(v []string) string  { return strings.Join(v, ",") }

// setMap encodes m as name[i].key / name[i].value pairs in key order.
func setMap(p url.Values, name string, m map[string]string) {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for i, k := range keys {
		prefix := name + "[" + strconv.Itoa(i) + "]."
		p.Set(prefix+"key", k)
		p.Set(prefix+"value", m[k])
	}
}
`
