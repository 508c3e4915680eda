package goemitter

import (
	"context"
	"go/ast"
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/cockroachdb/errors"

	"github.com/mark3labs/apigen/internal/descriptor"
	"github.com/mark3labs/apigen/internal/emitter"
	"github.com/mark3labs/apigen/internal/errs"
	"github.com/mark3labs/apigen/internal/model"
)

func sampleModel(t *testing.T, extra ...descriptor.Raw) *model.Result {
	t.Helper()
	raws := append([]descriptor.Raw{
		map[string]any{
			"name":        "listFoos",
			"description": "Lists foos",
			"params": []any{
				map[string]any{"name": "zoneid", "type": "uuid", "required": true, "description": "the zone"},
				map[string]any{"name": "type", "type": "string", "required": true},
				map[string]any{"name": "listall", "type": "boolean"},
				map[string]any{"name": "tags", "type": "map"},
				map[string]any{"name": "ids", "type": "list"},
			},
			"response": []any{
				map[string]any{"name": "id", "type": "string"},
				map[string]any{"name": "created", "type": "date"},
				map[string]any{"name": "cpunumber", "type": "integer"},
				map[string]any{"name": "tags", "type": "set", "response": []any{
					map[string]any{"name": "key", "type": "string"},
					map[string]any{"name": "value", "type": "string"},
				}},
			},
		},
		map[string]any{
			"name":    "deployWidget",
			"isasync": true,
			"since":   "4.2.0",
			"params":  []any{map[string]any{"name": "url", "type": "url", "required": true}},
			"response": []any{
				map[string]any{"name": "jobid", "type": "uuid"},
			},
		},
	}, extra...)
	res, err := model.Build(context.Background(), raws)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	return res
}

func emitTo(t *testing.T, res *model.Result) (string, *emitter.Result) {
	t.Helper()
	dir := t.TempDir()
	out, err := emitter.Emit(context.Background(), New("Acme.CloudStack"), res.Methods, res.Graph, emitter.Options{
		OutDir: dir,
		Info:   emitter.Info{Namespace: "Acme.CloudStack", APIVersion: "4.18.1"},
	})
	if err != nil {
		t.Fatalf("emit: %v", err)
	}
	return dir, out
}

func parseDir(t *testing.T, dir string) map[string]*ast.File {
	t.Helper()
	fset := token.NewFileSet()
	files := map[string]*ast.File{}
	matches, _ := filepath.Glob(filepath.Join(dir, "*.go"))
	for _, p := range matches {
		f, err := parser.ParseFile(fset, p, nil, parser.ParseComments)
		if err != nil {
			t.Fatalf("parse %s: %v", filepath.Base(p), err)
		}
		files[filepath.Base(p)] = f
	}
	return files
}

// fieldTypes maps struct field names to their printed types.
func fieldTypes(t *testing.T, f *ast.File, typeName string) map[string]string {
	t.Helper()
	out := map[string]string{}
	ast.Inspect(f, func(n ast.Node) bool {
		ts, ok := n.(*ast.TypeSpec)
		if !ok || ts.Name.Name != typeName {
			return true
		}
		st, ok := ts.Type.(*ast.StructType)
		if !ok {
			t.Fatalf("%s is not a struct", typeName)
		}
		for _, fld := range st.Fields.List {
			for _, n := range fld.Names {
				out[n.Name] = exprString(fld.Type)
			}
		}
		return false
	})
	return out
}

func exprString(e ast.Expr) string {
	switch x := e.(type) {
	case *ast.Ident:
		return x.Name
	case *ast.StarExpr:
		return "*" + exprString(x.X)
	case *ast.ArrayType:
		return "[]" + exprString(x.Elt)
	case *ast.MapType:
		return "map[" + exprString(x.Key) + "]" + exprString(x.Value)
	case *ast.SelectorExpr:
		return exprString(x.X) + "." + x.Sel.Name
	default:
		return "?"
	}
}

func funcNames(f *ast.File) []string {
	var out []string
	for _, d := range f.Decls {
		if fd, ok := d.(*ast.FuncDecl); ok {
			out = append(out, fd.Name.Name)
		}
	}
	sort.Strings(out)
	return out
}

func TestEmit_PlanAndParse(t *testing.T) {
	t.Parallel()
	dir, out := emitTo(t, sampleModel(t))

	var planned []string
	for _, p := range out.Planned {
		planned = append(planned, p.RelPath)
	}
	want := []string{
		"apigen.go",
		"deploy_widget_request.go",
		"doc.go",
		"foo_response.go",
		"list_foos_request.go",
		"manifest.json",
		"tag_response.go",
		"widget_response.go",
	}
	if strings.Join(planned, ",") != strings.Join(want, ",") {
		t.Fatalf("planned files:\n got %v\nwant %v", planned, want)
	}

	files := parseDir(t, dir)
	for name, f := range files {
		if f.Name.Name != "cloudstack" {
			t.Errorf("%s: package %s", name, f.Name.Name)
		}
	}
	root := fieldTypes(t, files["foo_response.go"], "FooResponse")
	wantRoot := map[string]string{"Id": "string", "Created": "Date", "Cpunumber": "int64", "Tags": "[]TagResponse"}
	for k, v := range wantRoot {
		if root[k] != v {
			t.Errorf("Foo.%s: got %q want %q (all: %v)", k, root[k], v, root)
		}
	}
	tag := fieldTypes(t, files["tag_response.go"], "TagResponse")
	if tag["Key"] != "string" || tag["Value"] != "string" {
		t.Errorf("TagResponse fields: %v", tag)
	}
}

func TestEmit_RequestBuilders(t *testing.T) {
	t.Parallel()
	dir, _ := emitTo(t, sampleModel(t))
	files := parseDir(t, dir)

	list := files["list_foos_request.go"]
	got := funcNames(list)
	want := []string{"Command", "IsAsync", "NewListFoosRequest", "Params", "SetIds", "SetListall", "SetPage", "SetPagesize", "SetTags", "SetType", "SetZoneid"}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Fatalf("list funcs:\n got %v\nwant %v", got, want)
	}
	for _, d := range list.Decls {
		fd, ok := d.(*ast.FuncDecl)
		if !ok {
			continue
		}
		switch fd.Name.Name {
		case "NewListFoosRequest":
			var params []string
			for _, p := range fd.Type.Params.List {
				for _, n := range p.Names {
					params = append(params, n.Name+" "+exprString(p.Type))
				}
			}
			if strings.Join(params, ", ") != "zoneid string, type_ string" {
				t.Errorf("constructor params: %v", params)
			}
		case "SetTags", "SetIds", "SetListall":
			typ := exprString(fd.Type.Params.List[0].Type)
			wantTyp := map[string]string{"SetTags": "map[string]string", "SetIds": "[]string", "SetListall": "bool"}[fd.Name.Name]
			if typ != wantTyp {
				t.Errorf("%s takes %s, want %s", fd.Name.Name, typ, wantTyp)
			}
		}
	}

	src, err := os.ReadFile(filepath.Join(dir, "deploy_widget_request.go"))
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	for _, frag := range []string{
		"func NewDeployWidgetRequest(url_ string) *DeployWidgetRequest",
		"func (r *DeployWidgetRequest) IsAsync() bool { return true }",
		`func (r *DeployWidgetRequest) Command() string { return "deployWidget" }`,
		"(async, since 4.2.0)",
		"// Code generated by apigen. DO NOT EDIT.",
	} {
		if !strings.Contains(string(src), frag) {
			t.Errorf("deploy_widget_request.go missing %q", frag)
		}
	}
}

func TestEmit_SupportAndDoc(t *testing.T) {
	t.Parallel()
	dir, _ := emitTo(t, sampleModel(t))
	files := parseDir(t, dir)
	got := funcNames(files["apigen.go"])
	for _, want := range []string{"MarshalJSON", "String", "UnmarshalJSON", "formatBool", "formatList", "setMap"} {
		found := false
		for _, g := range got {
			if g == want {
				found = true
			}
		}
		if !found {
			t.Errorf("apigen.go missing func %s", want)
		}
	}
	support, err := os.ReadFile(filepath.Join(dir, "apigen.go"))
	if err != nil {
		t.Fatalf("read apigen.go: %v", err)
	}
	if !strings.Contains(string(support), "func (d *Date) UnmarshalJSON(b []byte) error {") ||
		!strings.Contains(string(support), "\t\td.Raw = string(b)") {
		t.Errorf("apigen.go does not carry the tested Date implementation")
	}
	if strings.Contains(string(support), "package support") {
		t.Errorf("apigen.go leaked the support package clause")
	}
	doc := files["doc.go"]
	if doc.Doc == nil || !strings.Contains(doc.Doc.Text(), "API version 4.18.1") {
		t.Errorf("doc.go package comment missing version")
	}
}

func TestEmit_Deterministic(t *testing.T) {
	t.Parallel()
	a, _ := emitTo(t, sampleModel(t))
	b, _ := emitTo(t, sampleModel(t))
	for _, name := range []string{"foo_response.go", "list_foos_request.go", "manifest.json"} {
		x, _ := os.ReadFile(filepath.Join(a, name))
		y, _ := os.ReadFile(filepath.Join(b, name))
		if string(x) != string(y) {
			t.Errorf("%s differs between runs", name)
		}
	}
}

func TestRender_ReservedName(t *testing.T) {
	t.Parallel()
	res := sampleModel(t, map[string]any{
		"name":     "getDate",
		"response": []any{map[string]any{"name": "value", "type": "string"}},
	}, map[string]any{
		"name":     "getOtherDate",
		"response": []any{map[string]any{"name": "value", "type": "string"}},
	})
	_, err := emitter.Emit(context.Background(), New("x"), res.Methods, res.Graph, emitter.Options{OutDir: t.TempDir(), DryRun: true})
	if !errors.Is(err, errs.ErrNamingCollision) {
		t.Fatalf("expected naming collision for Date, got %v", err)
	}
}

func TestPackageName(t *testing.T) {
	t.Parallel()
	cases := map[string]string{
		"Acme.CloudStack": "cloudstack",
		"client":          "client",
		"":                "client",
		"Acme.9lives":     "client",
		"Acme.Types":      "types",
		"Acme.Func":       "client",
		"my_pkg":          "mypkg",
	}
	for in, want := range cases {
		if got := PackageName(in); got != want {
			t.Errorf("PackageName(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestComment(t *testing.T) {
	t.Parallel()
	got := comment("first line\n\nsecond  \n")
	want := "// first line\n//\n// second"
	if got != want {
		t.Fatalf("comment: got %q want %q", got, want)
	}
}

func TestNameSet(t *testing.T) {
	t.Parallel()
	s := newNameSet()
	got := []string{s.claim("Id"), s.claim("Id"), s.claim("Id2"), s.claim("Id")}
	want := "Id,Id2,Id22,Id3"
	if strings.Join(got, ",") != want {
		t.Fatalf("claims: got %v want %s", got, want)
	}
}

func TestFileName_AvoidsToolchainSuffixes(t *testing.T) {
	t.Parallel()
	cases := map[string]string{
		"FooResponse":      "foo_response.go",
		"FooTest":          "foo_test_type.go",
		"ServerLinux":      "server_linux_type.go",
		"BuildArm64":       "build_arm64_type.go",
		"HostWindows":      "host_windows_type.go",
		"Linux":            "linux.go",
		"ListTestsRequest": "list_tests_request.go",
	}
	for in, want := range cases {
		if got := fileName(in); got != want {
			t.Errorf("fileName(%q) = %q, want %q", in, got, want)
		}
	}
	r := New("Acme.CloudStack")
	if got := r.Path(emitter.Class, "FooTest", "Shared"); got != "foo_test_type.go" {
		t.Errorf("Path: got %q", got)
	}
}
