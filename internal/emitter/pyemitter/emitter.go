// Package pyemitter renders the model as a Python package: dataclasses per
// object grouped by namespace, and one request class per method.
package pyemitter

import (
	"bytes"
	"fmt"
	"path"
	"sort"
	"strconv"
	"strings"
	"text/template"

	"github.com/mark3labs/apigen/internal/emitter"
	"github.com/mark3labs/apigen/internal/errs"
	"github.com/mark3labs/apigen/internal/model"
)

var tmpl = template.Must(template.New("py").Funcs(template.FuncMap{"doc": docstring, "quote": strconv.Quote}).Parse(
	`{{define "dataclass"}}` + dataclassTemplate + `{{end}}` +
		`{{define "request"}}` + requestTemplate + `{{end}}` +
		`{{define "init"}}` + initTemplate + `{{end}}` +
		`{{define "support"}}` + supportTemplate + `{{end}}`))

var keywords = map[string]struct{}{
	"False": {}, "None": {}, "True": {}, "and": {}, "as": {}, "assert": {}, "async": {},
	"await": {}, "break": {}, "class": {}, "continue": {}, "def": {}, "del": {}, "elif": {},
	"else": {}, "except": {}, "finally": {}, "for": {}, "from": {}, "global": {}, "if": {},
	"import": {}, "in": {}, "is": {}, "lambda": {}, "nonlocal": {}, "not": {}, "or": {},
	"pass": {}, "raise": {}, "return": {}, "try": {}, "while": {}, "with": {}, "yield": {},
	// names the generated modules use themselves
	"cls": {}, "self": {}, "field": {}, "datetime": {},
}

const requestsDir = "requests"

// Renderer emits Python source under Root.
type Renderer struct {
	// Root is the package directory, e.g. "acme/cloud_stack".
	Root string
}

// New maps each namespace segment to a snake_case package directory.
func New(namespace string) *Renderer {
	var segs []string
	for _, s := range strings.Split(namespace, ".") {
		if s = identifier(model.SnakeCase(s)); s != "" {
			segs = append(segs, s)
		}
	}
	if len(segs) == 0 {
		segs = []string{"client"}
	}
	return &Renderer{Root: strings.Join(segs, "/")}
}

func (r *Renderer) Name() string { return "python" }

func (r *Renderer) module() string { return strings.ReplaceAll(r.Root, "/", ".") }

func (r *Renderer) Path(kind emitter.Kind, className, namespace string) string {
	dir := requestsDir
	if kind != emitter.Method {
		dir = identifier(model.SnakeCase(namespace))
	}
	return path.Join(r.Root, dir, identifier(model.SnakeCase(className))+".py")
}

func (r *Renderer) modulePath(o *model.ObjectVariable) string {
	p := strings.TrimSuffix(r.Path(emitter.ObjectDefinition, o.ClassName(), o.Namespace), ".py")
	return strings.ReplaceAll(p, "/", ".")
}

func (r *Renderer) Render(u emitter.Unit, info emitter.Info) ([]byte, error) {
	if u.Kind == emitter.Method {
		return r.execute("request", r.requestData(u.Method), u.Name())
	}
	return r.execute("dataclass", r.dataclassData(u.Object), u.Name())
}

// Aggregate writes __init__.py for every package directory and the support
// module.
func (r *Renderer) Aggregate(units []emitter.Unit, info emitter.Info) (map[string][]byte, error) {
	exports := map[string][]export{}
	dirs := map[string]struct{}{}
	for d := r.Root; d != "." && d != "/"; d = path.Dir(d) {
		dirs[d] = struct{}{}
	}
	for _, u := range units {
		dir := path.Dir(u.Path)
		dirs[dir] = struct{}{}
		exports[dir] = append(exports[dir], export{Module: strings.TrimSuffix(path.Base(u.Path), ".py"), Name: u.Name()})
	}

	out := map[string][]byte{}
	for dir := range dirs {
		data := initData{Exports: exports[dir]}
		sort.Slice(data.Exports, func(i, j int) bool { return data.Exports[i].Name < data.Exports[j].Name })
		switch {
		case dir == r.Root:
			data.Doc = "Typed client model"
			if info.APIVersion != "" {
				data.Doc += " for API version " + info.APIVersion
			}
			data.Doc += "."
			data.Version = info.APIVersion
		case path.Base(dir) == requestsDir && path.Dir(dir) == r.Root:
			data.Doc = "Request builders, one per API command."
		case strings.HasPrefix(dir, r.Root+"/"):
			data.Doc = "Response types of the " + path.Base(dir) + " namespace."
		default:
			data.Doc = "Parent package of " + r.module() + "."
		}
		src, err := r.execute("init", data, dir)
		if err != nil {
			return nil, err
		}
		out[path.Join(dir, "__init__.py")] = src
	}
	support, err := r.execute("support", nil, "_support")
	if err != nil {
		return nil, err
	}
	out[path.Join(r.Root, "_support.py")] = support
	return out, nil
}

func (r *Renderer) execute(name string, data any, unit string) ([]byte, error) {
	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		return nil, errs.Wrap(errs.InvalidInput, err, "execute %s template for %s", name, unit)
	}
	return buf.Bytes(), nil
}

type export struct {
	Module string
	Name   string
}

type initData struct {
	Doc     string
	Version string
	Exports []export
}

type fieldData struct {
	Attr    string
	Type    string
	Default string
	Parse   string
	Encode  string
	Doc     string
}

type dataclassData struct {
	Module  string
	Name    string
	Summary string
	Doc     string
	Imports []export
	Fields  []fieldData
}

type requestData struct {
	Module   string
	Name     string
	Summary  string
	Doc      string
	Command  string
	Async    bool
	Params   []fieldData
	Required []fieldData
}

func (r *Renderer) dataclassData(o *model.ObjectVariable) dataclassData {
	d := dataclassData{Module: r.module(), Name: o.ClassName()}
	switch {
	case o.IsRoot():
		d.Summary = o.ClassName() + " is the response of " + strings.Join(o.RootOf(), ", ") + "."
	case o.Shared:
		d.Summary = o.ClassName() + " is shared by " + strings.Join(o.Methods(), ", ") + "."
	default:
		d.Summary = o.ClassName() + " is nested in the response of " + strings.Join(o.Methods(), ", ") + "."
	}
	d.Doc = d.Summary
	if o.Description != "" {
		d.Doc += "\n\n" + o.Description
	}

	imports := map[string]export{}
	attrs := attrSet{}
	for _, v := range o.Properties.All() {
		f := fieldData{Attr: attrs.claim(v.Name), Doc: v.Doc()}
		key := strconv.Quote(v.Name)
		get := "data.get(" + key + ")"
		switch {
		case v.Object != nil:
			cls := v.Object.ClassName()
			if cls != o.ClassName() {
				imports[cls] = export{Module: r.modulePath(v.Object), Name: cls}
			}
			if v.IsCollection() {
				f.Type, f.Default = "List["+cls+"]", "field(default_factory=list)"
				f.Parse = "[" + cls + ".from_dict(x) for x in " + get + " or []]"
			} else {
				f.Type, f.Default = "Optional["+cls+"]", "None"
				f.Parse = cls + ".from_dict(" + get + ") if " + get + " is not None else None"
			}
		case v.IsDate():
			f.Type, f.Default = "Optional[Union[datetime, str]]", "None"
			f.Parse = "_support.parse_date(" + get + ")"
		case v.IsCollection() && v.Type.Tag == "map", v.Type.Kind == model.Object:
			f.Type, f.Default = "Dict[str, Any]", "field(default_factory=dict)"
			f.Parse = get + " or {}"
		case v.IsCollection():
			f.Type, f.Default = "List[str]", "field(default_factory=list)"
			f.Parse = "list(" + get + " or [])"
		default:
			f.Type, f.Default = "Optional["+scalarType(v)+"]", "None"
			f.Parse = get
		}
		d.Fields = append(d.Fields, f)
	}
	for _, cls := range sortedExportKeys(imports) {
		d.Imports = append(d.Imports, imports[cls])
	}
	return d
}

func (r *Renderer) requestData(m *model.Method) requestData {
	name := m.RequestClassName()
	d := requestData{Module: r.module(), Name: name, Command: m.Name, Async: m.Async}
	d.Summary = name + " builds a " + m.Name + " call."
	d.Doc = d.Summary
	if doc := m.Doc(); doc != "" {
		d.Doc += "\n\n" + doc
	}
	if len(m.Related) > 0 {
		d.Doc += "\n\nRelated: " + strings.Join(m.Related, ", ") + "."
	}
	attrs := attrSet{}
	for _, v := range m.Params.All() {
		f := fieldData{Attr: attrs.claim(v.Name), Doc: v.Doc()}
		key := strconv.Quote(v.Name)
		switch {
		case v.Type.Kind == model.Object || (v.IsCollection() && v.Type.Tag == "map"):
			f.Type = "Dict[str, Any]"
			f.Encode = "_support.set_map(self._params, " + key + ", value)"
		case v.IsCollection():
			f.Type = "List[str]"
			f.Encode = "self._params[" + key + "] = _support.format_value(value)"
		case v.IsDate():
			f.Type = "datetime"
			f.Encode = "self._params[" + key + "] = _support.format_value(value)"
		default:
			f.Type = scalarType(v)
			f.Encode = "self._params[" + key + "] = _support.format_value(value)"
		}
		if v.Required {
			d.Required = append(d.Required, f)
		}
		d.Params = append(d.Params, f)
	}
	return d
}

func scalarType(v *model.Variable) string {
	switch v.Type.Kind {
	case model.Boolean:
		return "bool"
	case model.Integer:
		return "int"
	case model.Float:
		return "float"
	default:
		return "str"
	}
}

// identifier lowercases s and replaces anything that is not a letter, digit
// or underscore. Leading digits and keywords get an underscore.
func identifier(s string) string {
	var b strings.Builder
	for _, c := range s {
		switch {
		case c >= 'a' && c <= 'z', c >= '0' && c <= '9', c == '_':
			b.WriteRune(c)
		case c >= 'A' && c <= 'Z':
			b.WriteRune(c + ('a' - 'A'))
		default:
			b.WriteRune('_')
		}
	}
	id := b.String()
	if id == "" {
		return ""
	}
	if id[0] >= '0' && id[0] <= '9' {
		id = "_" + id
	}
	if _, kw := keywords[id]; kw {
		id += "_"
	}
	return id
}

// attrSet hands out unique attribute names.
type attrSet map[string]int

func (s attrSet) claim(name string) string {
	id := identifier(name)
	if id == "" {
		id = "field_"
	}
	n := s[id]
	s[id] = n + 1
	if n == 0 {
		return id
	}
	for {
		n++
		candidate := fmt.Sprintf("%s_%d", id, n)
		if s[candidate] == 0 {
			s[candidate] = 1
			return candidate
		}
	}
}

// docstring escapes text for a triple quoted literal.
func docstring(text string) string {
	text = strings.ReplaceAll(text, `\`, `\\`)
	text = strings.ReplaceAll(text, `"""`, `\"\"\"`)
	if strings.HasSuffix(text, `"`) {
		text += " "
	}
	return text
}

func sortedExportKeys(m map[string]export) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
