// Package goemitter renders the model as a single Go package: one request
// builder per method and one struct per object.
package goemitter

import (
	"bytes"
	"fmt"
	"go/format"
	"go/token"
	"strconv"
	"strings"
	"text/template"

	"github.com/mark3labs/apigen/internal/emitter"
	"github.com/mark3labs/apigen/internal/errs"
	"github.com/mark3labs/apigen/internal/model"
)

var tmpl = template.Must(template.New("go").Funcs(template.FuncMap{"comment": comment, "dateSupport": dateSupport}).Parse(`{{define "struct"}}` + structTemplate + `{{end}}` +
	`{{define "request"}}` + requestTemplate + `{{end}}` +
	`{{define "doc"}}` + docTemplate + `{{end}}` +
	`{{define "support"}}` + supportTemplate + `{{end}}`))

// reserved names are declared by the support file.
var reserved = map[string]struct{}{"Date": {}, "Request": {}}

// argReserved shadows identifiers used inside generated constructors.
var argReserved = map[string]struct{}{"r": {}, "url": {}, "v": {}, "out": {}}

const (
	supportFile = "apigen.go"
	docFile     = "doc.go"
)

// Renderer emits Go source.
type Renderer struct {
	Package string
	casing  *model.Casing
}

// New derives the package name from the last namespace segment.
func New(namespace string) *Renderer {
	return &Renderer{Package: PackageName(namespace), casing: model.NewCasing(nil)}
}

// PackageName lowercases the last dotted segment of namespace and drops
// anything that is not a letter or digit. It falls back to "client".
func PackageName(namespace string) string {
	seg := namespace
	if i := strings.LastIndex(seg, "."); i >= 0 {
		seg = seg[i+1:]
	}
	var b strings.Builder
	for _, r := range strings.ToLower(seg) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	name := b.String()
	if name == "" || (name[0] >= '0' && name[0] <= '9') || token.IsKeyword(name) {
		return "client"
	}
	return name
}

func (r *Renderer) Name() string { return "go" }

// Path ignores the namespace: every unit lands in one flat package.
func (r *Renderer) Path(kind emitter.Kind, className, namespace string) string {
	return fileName(className)
}

// knownOS and knownArch are the file name suffixes go/build treats as build
// constraints.
var (
	knownOS = map[string]struct{}{
		"aix": {}, "android": {}, "darwin": {}, "dragonfly": {}, "freebsd": {}, "hurd": {},
		"illumos": {}, "ios": {}, "js": {}, "linux": {}, "nacl": {}, "netbsd": {}, "openbsd": {},
		"plan9": {}, "solaris": {}, "wasip1": {}, "windows": {}, "zos": {},
	}
	knownArch = map[string]struct{}{
		"386": {}, "amd64": {}, "amd64p32": {}, "arm": {}, "armbe": {}, "arm64": {}, "arm64be": {},
		"loong64": {}, "mips": {}, "mipsle": {}, "mips64": {}, "mips64le": {}, "mips64p32": {},
		"mips64p32le": {}, "ppc": {}, "ppc64": {}, "ppc64le": {}, "riscv": {}, "riscv64": {},
		"s390": {}, "s390x": {}, "sparc": {}, "sparc64": {}, "wasm": {},
	}
)

// fileName is the snake case file for className. Names the toolchain would
// read as a test file or a build constraint get a _type suffix.
func fileName(className string) string {
	base := model.SnakeCase(className)
	if i := strings.LastIndexByte(base, '_'); i > 0 {
		last := base[i+1:]
		_, isOS := knownOS[last]
		_, isArch := knownArch[last]
		if last == "test" || isOS || isArch {
			base += "_type"
		}
	}
	return base + ".go"
}

func (r *Renderer) Render(u emitter.Unit, info emitter.Info) ([]byte, error) {
	name := u.Name()
	if _, clash := reserved[name]; clash {
		return nil, errs.New(errs.NamingCollision, "type %s clashes with a generated support type", name)
	}
	if u.Kind == emitter.Method {
		return r.execute("request", r.requestData(u.Method), name)
	}
	return r.execute("struct", r.structData(u.Object), name)
}

// Aggregate emits the package doc and the support file.
func (r *Renderer) Aggregate(units []emitter.Unit, info emitter.Info) (map[string][]byte, error) {
	var methods, types int
	for _, u := range units {
		if u.Kind == emitter.Method {
			methods++
		} else {
			types++
		}
	}
	doc := fmt.Sprintf("Package %s is a typed client model", r.Package)
	if info.APIVersion != "" {
		doc += " for API version " + info.APIVersion
	}
	doc += fmt.Sprintf(".\n\nIt declares %d request builders and %d response types.", methods, types)

	docSrc, err := r.execute("doc", map[string]string{"Package": r.Package, "Doc": doc}, docFile)
	if err != nil {
		return nil, err
	}
	support, err := r.execute("support", map[string]string{"Package": r.Package}, supportFile)
	if err != nil {
		return nil, err
	}
	return map[string][]byte{docFile: docSrc, supportFile: support}, nil
}

func (r *Renderer) execute(name string, data any, unit string) ([]byte, error) {
	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		return nil, errs.Wrap(errs.InvalidInput, err, "execute %s template for %s", name, unit)
	}
	src, err := format.Source(buf.Bytes())
	if err != nil {
		return nil, errs.Wrap(errs.InvalidInput, err, "format %s", unit)
	}
	return src, nil
}

type fieldData struct {
	GoName   string
	GoType   string
	JSONName string
	Doc      string
	Arg      string
	Encode   string
}

type structData struct {
	Package string
	Name    string
	Doc     string
	Fields  []fieldData
}

type requestData struct {
	Package  string
	Name     string
	Command  string
	Async    bool
	Doc      string
	Params   []fieldData
	Required []fieldData
}

func (r *Renderer) structData(o *model.ObjectVariable) structData {
	d := structData{Package: r.Package, Name: o.ClassName(), Doc: objectDoc(o)}
	names := newNameSet()
	for _, v := range o.Properties.All() {
		d.Fields = append(d.Fields, fieldData{
			GoName:   names.claim(r.goName(v.Name)),
			GoType:   responseType(v),
			JSONName: v.Name,
			Doc:      v.Doc(),
		})
	}
	return d
}

func objectDoc(o *model.ObjectVariable) string {
	var b strings.Builder
	b.WriteString(o.ClassName())
	switch {
	case o.IsRoot():
		b.WriteString(" is the response of " + strings.Join(o.RootOf(), ", ") + ".")
	case o.Shared:
		b.WriteString(" is shared by " + strings.Join(o.Methods(), ", ") + ".")
	default:
		b.WriteString(" is nested in the response of " + strings.Join(o.Methods(), ", ") + ".")
	}
	if o.Description != "" {
		b.WriteString("\n\n" + o.Description)
	}
	return b.String()
}

func (r *Renderer) requestData(m *model.Method) requestData {
	name := m.RequestClassName()
	doc := name + " builds a " + m.Name + " call."
	if d := m.Doc(); d != "" {
		doc += "\n\n" + d
	}
	if len(m.Related) > 0 {
		doc += "\n\nRelated: " + strings.Join(m.Related, ", ") + "."
	}
	d := requestData{Package: r.Package, Name: name, Command: m.Name, Async: m.Async, Doc: doc}
	names := newNameSet()
	args := newNameSet()
	for _, v := range m.Params.All() {
		f := fieldData{
			GoName:   names.claim(r.goName(v.Name)),
			GoType:   requestType(v),
			JSONName: v.Name,
			Doc:      v.Doc(),
		}
		f.Encode = encode(v, f.GoType)
		if v.Required {
			f.Arg = args.claim(argName(f.GoName))
			d.Required = append(d.Required, f)
		}
		d.Params = append(d.Params, f)
	}
	return d
}

// goName turns a descriptor field name into an exported identifier.
func (r *Renderer) goName(name string) string {
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

func argName(goName string) string {
	a := model.Lcfirst(goName)
	if token.IsKeyword(a) {
		return a + "_"
	}
	if _, ok := argReserved[a]; ok {
		return a + "_"
	}
	return a
}

func responseType(v *model.Variable) string {
	if v.Object != nil {
		if v.IsCollection() {
			return "[]" + v.Object.ClassName()
		}
		return "*" + v.Object.ClassName()
	}
	return scalarType(v)
}

func requestType(v *model.Variable) string {
	if v.Type.Kind == model.Object {
		return "map[string]string"
	}
	return scalarType(v)
}

func scalarType(v *model.Variable) string {
	switch v.Type.Kind {
	case model.Boolean:
		return "bool"
	case model.Integer:
		return "int64"
	case model.Float:
		return "float64"
	case model.Date:
		return "Date"
	case model.Collection:
		if v.Type.Tag == "map" {
			return "map[string]string"
		}
		return "[]string"
	case model.Object:
		return "map[string]any"
	default:
		return "string"
	}
}

func encode(v *model.Variable, goType string) string {
	key := strconv.Quote(v.Name)
	switch goType {
	case "bool":
		return "r.params.Set(" + key + ", formatBool(v))"
	case "int64":
		return "r.params.Set(" + key + ", formatInt(v))"
	case "float64":
		return "r.params.Set(" + key + ", formatFloat(v))"
	case "Date":
		return "r.params.Set(" + key + ", v.String())"
	case "[]string":
		return "r.params.Set(" + key + ", formatList(v))"
	case "map[string]string":
		return "setMap(r.params, " + key + ", v)"
	default:
		return "r.params.Set(" + key + ", v)"
	}
}

// comment renders text as // lines.
func comment(text string) string {
	lines := strings.Split(strings.TrimRight(text, "\n"), "\n")
	for i, l := range lines {
		l = strings.TrimRight(l, " \t")
		if l == "" {
			lines[i] = "//"
			continue
		}
		lines[i] = "// " + l
	}
	return strings.Join(lines, "\n")
}

// nameSet hands out unique identifiers, suffixing repeats with a counter.
type nameSet map[string]int

func newNameSet() nameSet { return nameSet{} }

func (s nameSet) claim(name string) string {
	n := s[name]
	s[name] = n + 1
	if n == 0 {
		return name
	}
	candidate := name + strconv.Itoa(n+1)
	for s[candidate] > 0 {
		n++
		candidate = name + strconv.Itoa(n+1)
	}
	s[candidate] = 1
	return candidate
}
