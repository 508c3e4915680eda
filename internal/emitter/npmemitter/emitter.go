// Package npmemitter renders the model as an npm package of TypeScript
// sources: an interface per object grouped by namespace and a request
// class per method.
package npmemitter

import (
	"bytes"
	"path"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"text/template"

	"github.com/go-json-experiment/json"
	"github.com/go-json-experiment/json/jsontext"

	"github.com/mark3labs/apigen/internal/emitter"
	"github.com/mark3labs/apigen/internal/errs"
	"github.com/mark3labs/apigen/internal/model"
)

var tmpl = template.Must(template.New("ts").Funcs(template.FuncMap{"doc": jsdoc, "quote": strconv.Quote}).Parse(
	`{{define "interface"}}` + interfaceTemplate + `{{end}}` +
		`{{define "request"}}` + requestTemplate + `{{end}}` +
		`{{define "index"}}` + indexTemplate + `{{end}}` +
		`{{define "support"}}` + supportTemplate + `{{end}}`))

var identRe = regexp.MustCompile(`^[A-Za-z_$][A-Za-z0-9_$]*$`)

// keywords cannot be used as constructor parameter names.
var keywords = map[string]struct{}{
	"break": {}, "case": {}, "catch": {}, "class": {}, "const": {}, "continue": {}, "debugger": {},
	"default": {}, "delete": {}, "do": {}, "else": {}, "enum": {}, "export": {}, "extends": {},
	"false": {}, "finally": {}, "for": {}, "function": {}, "if": {}, "import": {}, "in": {},
	"instanceof": {}, "new": {}, "null": {}, "return": {}, "super": {}, "switch": {}, "this": {},
	"throw": {}, "true": {}, "try": {}, "typeof": {}, "var": {}, "void": {}, "while": {},
	"with": {}, "yield": {}, "let": {}, "static": {}, "implements": {}, "interface": {},
	"package": {}, "private": {}, "protected": {}, "public": {}, "await": {},
}

const (
	srcDir      = "src"
	requestsDir = "requests"
	defaultName = "apigen-client"
)

// Renderer emits a TypeScript npm package.
type Renderer struct {
	PackageName string
	casing      *model.Casing
}

// New derives the npm package name from namespace, e.g. "Acme.CloudStack"
// becomes "acme-cloudstack".
func New(namespace string) *Renderer {
	name := sanitizePackageName(derivePackageName(namespace))
	if name == "" {
		name = defaultName
	}
	return &Renderer{PackageName: name, casing: model.NewCasing(nil)}
}

func (r *Renderer) Name() string { return "typescript" }

func (r *Renderer) Path(kind emitter.Kind, className, namespace string) string {
	if kind == emitter.Method {
		return path.Join(srcDir, requestsDir, className+".ts")
	}
	return path.Join(srcDir, namespace, className+".ts")
}

func (r *Renderer) Render(u emitter.Unit, info emitter.Info) ([]byte, error) {
	if u.Kind == emitter.Method {
		return r.execute("request", r.requestData(u.Method), u.Name())
	}
	return r.execute("interface", r.interfaceData(u.Object), u.Name())
}

// Aggregate emits package.json, tsconfig.json, the support module and the
// index re-exporting every unit.
func (r *Renderer) Aggregate(units []emitter.Unit, info emitter.Info) (map[string][]byte, error) {
	idx := indexData{Version: info.APIVersion}
	for _, u := range units {
		e := export{Name: u.Name(), From: "./" + strings.TrimSuffix(strings.TrimPrefix(u.Path, srcDir+"/"), ".ts")}
		if u.Kind == emitter.Method {
			idx.Requests = append(idx.Requests, e)
		} else {
			idx.Types = append(idx.Types, e)
		}
	}
	index, err := r.execute("index", idx, "index.ts")
	if err != nil {
		return nil, err
	}
	support, err := r.execute("support", nil, "support.ts")
	if err != nil {
		return nil, err
	}
	pkg, err := r.packageJSON(info)
	if err != nil {
		return nil, err
	}
	return map[string][]byte{
		"package.json":                 pkg,
		"tsconfig.json":                []byte(tsconfig),
		path.Join(srcDir, "index.ts"):   index,
		path.Join(srcDir, "support.ts"): support,
	}, nil
}

type packageManifest struct {
	Name            string            `json:"name"`
	Version         string            `json:"version"`
	Description     string            `json:"description"`
	Private         bool              `json:"private"`
	Main            string            `json:"main"`
	Types           string            `json:"types"`
	Scripts         map[string]string `json:"scripts"`
	DevDependencies map[string]string `json:"devDependencies"`
}

func (r *Renderer) packageJSON(info emitter.Info) ([]byte, error) {
	version := "0.0.0"
	if v, err := model.ParseVersion(info.APIVersion); err == nil {
		version = v.String()
	}
	desc := "Typed client model"
	if info.Namespace != "" {
		desc += " for " + info.Namespace
	}
	m := packageManifest{
		Name:            r.PackageName,
		Version:         version,
		Description:     desc,
		Private:         true,
		Main:            "dist/index.js",
		Types:           "dist/index.d.ts",
		Scripts:         map[string]string{"build": "tsc -p tsconfig.json"},
		DevDependencies: map[string]string{"typescript": "^5.4.0"},
	}
	b, err := json.Marshal(m, jsontext.WithIndent("  "), json.Deterministic(true))
	if err != nil {
		return nil, errs.Wrap(errs.InvalidInput, err, "encode package.json")
	}
	return append(b, '\n'), nil
}

func (r *Renderer) execute(name string, data any, unit string) ([]byte, error) {
	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		return nil, errs.Wrap(errs.InvalidInput, err, "execute %s template for %s", name, unit)
	}
	return buf.Bytes(), nil
}

type export struct {
	Name string
	From string
}

type indexData struct {
	Version  string
	Types    []export
	Requests []export
}

type fieldData struct {
	Key    string
	Type   string
	Doc    string
	Setter string
	Arg    string
	Encode string
}

type interfaceData struct {
	Name    string
	Doc     string
	Imports []export
	Fields  []fieldData
}

type requestData struct {
	Name     string
	Command  string
	Async    bool
	Doc      string
	Params   []fieldData
	Required []fieldData
}

func (r *Renderer) interfaceData(o *model.ObjectVariable) interfaceData {
	d := interfaceData{Name: o.ClassName(), Doc: objectDoc(o)}
	imports := map[string]string{}
	for _, v := range o.Properties.All() {
		if v.Object != nil && v.Object.ClassName() != d.Name {
			imports[v.Object.ClassName()] = relImport(o.Namespace, v.Object)
		}
		d.Fields = append(d.Fields, fieldData{Key: propertyKey(v.Name), Type: responseType(v), Doc: v.Doc()})
	}
	for name, from := range imports {
		d.Imports = append(d.Imports, export{Name: name, From: from})
	}
	sort.Slice(d.Imports, func(i, j int) bool { return d.Imports[i].Name < d.Imports[j].Name })
	return d
}

func relImport(fromNamespace string, target *model.ObjectVariable) string {
	if target.Namespace == fromNamespace {
		return "./" + target.ClassName()
	}
	return "../" + target.Namespace + "/" + target.ClassName()
}

func objectDoc(o *model.ObjectVariable) string {
	var b strings.Builder
	switch {
	case o.IsRoot():
		b.WriteString("Response of " + strings.Join(o.RootOf(), ", ") + ".")
	case o.Shared:
		b.WriteString("Shared by " + strings.Join(o.Methods(), ", ") + ".")
	default:
		b.WriteString("Nested in the response of " + strings.Join(o.Methods(), ", ") + ".")
	}
	if o.Description != "" {
		b.WriteString("\n\n" + o.Description)
	}
	return b.String()
}

func (r *Renderer) requestData(m *model.Method) requestData {
	doc := "Builds a " + m.Name + " call."
	if d := m.Doc(); d != "" {
		doc += "\n\n" + d
	}
	if len(m.Related) > 0 {
		doc += "\n\nRelated: " + strings.Join(m.Related, ", ") + "."
	}
	d := requestData{Name: m.RequestClassName(), Command: m.Name, Async: m.Async, Doc: doc}
	setters := map[string]int{}
	args := map[string]int{}
	for _, v := range m.Params.All() {
		pascal := r.pascal(v.Name)
		f := fieldData{
			Key:    v.Name,
			Type:   requestType(v),
			Doc:    v.Doc(),
			Setter: claim(setters, "set"+pascal),
		}
		f.Encode = encode(v, f.Type)
		if v.Required {
			f.Arg = claim(args, argName(pascal))
			d.Required = append(d.Required, f)
		}
		d.Params = append(d.Params, f)
	}
	return d
}

// pascal turns a descriptor field name into an identifier fragment.
func (r *Renderer) pascal(name string) string {
	var b strings.Builder
	for _, c := range name {
		if c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') {
			b.WriteRune(c)
		} else {
			b.WriteRune('_')
		}
	}
	id := r.casing.Pascal(b.String())
	if id == "" || (id[0] >= '0' && id[0] <= '9') {
		id = "F" + id
	}
	return id
}

func argName(pascal string) string {
	a := model.Lcfirst(pascal)
	if _, ok := keywords[a]; ok || a == "value" {
		return a + "_"
	}
	return a
}

// propertyKey quotes names that are not valid identifiers.
func propertyKey(name string) string {
	if identRe.MatchString(name) {
		return name
	}
	return strconv.Quote(name)
}

func responseType(v *model.Variable) string {
	if v.Object != nil {
		if v.IsCollection() {
			return v.Object.ClassName() + "[]"
		}
		return v.Object.ClassName()
	}
	switch v.Type.Kind {
	case model.Boolean:
		return "boolean"
	case model.Integer, model.Float:
		return "number"
	case model.Collection:
		if v.Type.Tag == "map" {
			return "Record<string, string>"
		}
		return "string[]"
	case model.Object:
		return "Record<string, unknown>"
	default:
		return "string"
	}
}

func requestType(v *model.Variable) string {
	switch v.Type.Kind {
	case model.Date:
		return "Date | string"
	case model.Object:
		return "Record<string, string>"
	default:
		return responseType(v)
	}
}

func encode(v *model.Variable, tsType string) string {
	key := strconv.Quote(v.Name)
	if tsType == "Record<string, string>" {
		return "setMap(this.params, " + key + ", value)"
	}
	return "this.params[" + key + "] = formatValue(value)"
}

// jsdoc renders text as a doc block at the given indent, or nothing.
func jsdoc(text, indent string) string {
	text = strings.TrimSpace(strings.ReplaceAll(text, "*/", "*\\/"))
	if text == "" {
		return ""
	}
	lines := strings.Split(text, "\n")
	if len(lines) == 1 {
		return indent + "/** " + lines[0] + " */\n"
	}
	var b strings.Builder
	b.WriteString(indent + "/**\n")
	for _, l := range lines {
		l = strings.TrimRight(l, " \t")
		if l == "" {
			b.WriteString(indent + " *\n")
			continue
		}
		b.WriteString(indent + " * " + l + "\n")
	}
	b.WriteString(indent + " */\n")
	return b.String()
}

func claim(seen map[string]int, name string) string {
	n := seen[name]
	seen[name] = n + 1
	if n == 0 {
		return name
	}
	candidate := name + strconv.Itoa(n+1)
	for seen[candidate] > 0 {
		n++
		candidate = name + strconv.Itoa(n+1)
	}
	seen[candidate] = 1
	return candidate
}

// sanitizePackageName keeps lowercase letters, digits, dash, underscore and dot.
func sanitizePackageName(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return ""
	}
	name = strings.ReplaceAll(name, " ", "-")
	name = strings.ReplaceAll(name, "/", "-")
	b := strings.Builder{}
	for _, r := range name {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '-' || r == '_' || r == '.' {
			b.WriteRune(r)
		}
	}
	return strings.Trim(b.String(), "-._")
}

// derivePackageName joins the words of a namespace with dashes.
func derivePackageName(namespace string) string {
	t := strings.ToLower(strings.TrimSpace(namespace))
	repl := strings.NewReplacer("/", " ", "_", " ", ".", " ", ",", " ", ":", " ")
	return strings.Join(strings.Fields(repl.Replace(t)), "-")
}
