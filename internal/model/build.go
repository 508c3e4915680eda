package model

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/cockroachdb/errors"

	"github.com/mark3labs/apigen/internal/descriptor"
	"github.com/mark3labs/apigen/internal/errs"
)

// ErrCyclicShape marks a response shape that contains itself. It is raised
// as a NamingCollision because no finite class set can name it.
var ErrCyclicShape = errors.New("cyclic object shape")

// BuildOption configures how methods are compiled into the model.
type BuildOption func(*buildConfig)

type buildConfig struct {
	include        []*regexp.Regexp
	exclude        []*regexp.Regexp
	apiVersion     *semver.Version
	overrides      map[string]string
	implicitPaging bool
	maxDepth       int
}

func compilePatterns(patterns []string) []*regexp.Regexp {
	var out []*regexp.Regexp
	for _, p := range patterns {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		re, err := regexp.Compile(p)
		if err != nil {
			// Config validation reports bad patterns; here they never match.
			re = regexp.MustCompile("a^$")
		}
		out = append(out, re)
	}
	return out
}

// WithIncludePatterns keeps only methods whose name matches at least one of
// the regular expressions.
func WithIncludePatterns(patterns []string) BuildOption {
	return func(c *buildConfig) { c.include = append(c.include, compilePatterns(patterns)...) }
}

// WithExcludePatterns drops methods whose name matches any of the regular
// expressions.
func WithExcludePatterns(patterns []string) BuildOption {
	return func(c *buildConfig) { c.exclude = append(c.exclude, compilePatterns(patterns)...) }
}

// WithAPIVersion drops methods and fields introduced after v.
func WithAPIVersion(v *semver.Version) BuildOption {
	return func(c *buildConfig) { c.apiVersion = v }
}

// WithNameOverrides adds spellings for run-together terms, keyed by the
// lowercase descriptor name.
func WithNameOverrides(m map[string]string) BuildOption {
	return func(c *buildConfig) {
		if c.overrides == nil {
			c.overrides = map[string]string{}
		}
		for k, v := range m {
			c.overrides[k] = v
		}
	}
}

// WithImplicitPaging toggles the page/pagesize parameters added to list
// methods. On by default.
func WithImplicitPaging(on bool) BuildOption {
	return func(c *buildConfig) { c.implicitPaging = on }
}

// WithMaxDepth bounds object nesting.
func WithMaxDepth(n int) BuildOption {
	return func(c *buildConfig) { c.maxDepth = n }
}

// Skip records a method that was left out of the run.
type Skip struct {
	Method string
	Code   errs.Code
	Err    error
}

func (s Skip) Reason() string { return s.Err.Error() }

// Result is the compiled model of one run.
type Result struct {
	Methods  []*Method
	Graph    *Graph
	Total    int
	Filtered int
	Skipped  []Skip
}

func (r *Result) Processed() int { return len(r.Methods) }

// Summary is the one line run report, e.g. "3 processed, 1 skipped of 4 methods".
func (r *Result) Summary() string {
	s := fmt.Sprintf("%d processed, %d skipped of %d methods", len(r.Methods), len(r.Skipped), r.Total)
	if r.Filtered > 0 {
		s += fmt.Sprintf(", %d filtered", r.Filtered)
	}
	return s
}

// Builder compiles decoded methods into a shared Graph.
type Builder struct {
	cfg    buildConfig
	casing *Casing
	graph  *Graph
}

func NewBuilder(opts ...BuildOption) *Builder {
	cfg := buildConfig{implicitPaging: true, maxDepth: descriptor.MaxDepth}
	for _, opt := range opts {
		opt(&cfg)
	}
	casing := NewCasing(cfg.overrides)
	return &Builder{cfg: cfg, casing: casing, graph: NewGraph(casing)}
}

func (b *Builder) Graph() *Graph { return b.graph }

// Accept applies the name patterns and the API version filter.
func (b *Builder) Accept(d *descriptor.Method) bool {
	if len(b.cfg.include) > 0 {
		matched := false
		for _, re := range b.cfg.include {
			if re.MatchString(d.Name) {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}
	for _, re := range b.cfg.exclude {
		if re.MatchString(d.Name) {
			return false
		}
	}
	if b.cfg.apiVersion != nil && d.Since != "" {
		if sv, err := ParseVersion(d.Since); err == nil && introducedAfter(sv, b.cfg.apiVersion) {
			return false
		}
	}
	return true
}

// Build decodes and compiles every raw descriptor. Recoverable per method
// failures are collected in Result.Skipped; anything else aborts the run.
// Methods are processed in name order so naming is independent of listing
// order.
func Build(ctx context.Context, raws []descriptor.Raw, opts ...BuildOption) (*Result, error) {
	b := NewBuilder(opts...)
	res := &Result{Graph: b.graph, Total: len(raws)}

	decoded := make([]*descriptor.Method, 0, len(raws))
	for i, raw := range raws {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		d, err := descriptor.DecodeMethod(raw)
		if err != nil {
			if !errs.Recoverable(err) {
				return nil, err
			}
			res.Skipped = append(res.Skipped, Skip{Method: rawName(raw, i), Code: errs.CodeOf(err), Err: err})
			continue
		}
		decoded = append(decoded, d)
	}
	sort.SliceStable(decoded, func(i, j int) bool { return decoded[i].Name < decoded[j].Name })

	seen := make(map[string]struct{}, len(decoded))
	for _, d := range decoded {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if _, dup := seen[d.Name]; dup {
			err := errs.Invalid(d.Name, "name", "duplicate method; first declaration kept")
			res.Skipped = append(res.Skipped, Skip{Method: d.Name, Code: errs.InvalidInput, Err: err})
			continue
		}
		seen[d.Name] = struct{}{}
		if !b.Accept(d) {
			res.Filtered++
			continue
		}
		m, err := b.Method(d)
		if err != nil {
			if !errs.Recoverable(err) {
				return nil, err
			}
			res.Skipped = append(res.Skipped, Skip{Method: d.Name, Code: errs.CodeOf(err), Err: err})
			continue
		}
		res.Methods = append(res.Methods, m)
	}
	if err := b.graph.Finalize(); err != nil {
		return nil, err
	}
	return res, nil
}

func rawName(raw descriptor.Raw, i int) string {
	if obj, ok := raw.(map[string]any); ok {
		if s, ok := obj["name"].(string); ok && strings.TrimSpace(s) != "" {
			return s
		}
	}
	return fmt.Sprintf("#%d", i)
}

// Method compiles one decoded method and interns its response shapes. Nothing
// is added to the graph when an error is returned.
func (b *Builder) Method(d *descriptor.Method) (*Method, error) {
	m := &Method{
		Name:        d.Name,
		Description: strings.TrimSpace(d.Description),
		Async:       d.Async,
		Since:       strings.TrimSpace(d.Since),
		Related:     append([]string(nil), d.Related...),
		Params:      NewContainer(),
	}
	if m.Since != "" {
		if sv, err := ParseVersion(m.Since); err == nil {
			m.SinceVersion = sv
		}
	}
	for _, p := range d.Params {
		v, err := NewVariable(d.Name, p, Request)
		if err != nil {
			return nil, err
		}
		if b.dropped(v) || m.Params.Has(v.Name) {
			continue
		}
		_ = m.Params.Add(v)
	}
	if b.cfg.implicitPaging && m.IsList() {
		for _, p := range pagingParams {
			if !m.Params.Has(p.Name) {
				v, _ := NewVariable(d.Name, p, Request)
				_ = m.Params.Add(v)
			}
		}
	}

	decl := descriptor.Param{Name: Resource(d.Name), Description: m.Description, Type: "object"}
	root, err := b.object(d.Name, decl, d.Response, []string{d.Name}, 0, map[*descriptor.Property]struct{}{})
	if err != nil {
		return nil, err
	}
	root.signature = rootSignature(root.baseName, root.signature)
	m.Response = b.graph.Intern(root, d.Name)
	return m, nil
}

var pagingParams = []descriptor.Param{
	{Name: "page", Type: "integer", Description: "page number of the result set"},
	{Name: "pagesize", Type: "integer", Description: "number of results per page"},
}

func (b *Builder) dropped(v *Variable) bool {
	return introducedAfter(v.SinceVersion, b.cfg.apiVersion)
}

// object builds an undeduplicated shape for decl. path is the chain of
// enclosing names, starting with the method.
func (b *Builder) object(method string, decl descriptor.Param, props []descriptor.Property, path []string, depth int, visiting map[*descriptor.Property]struct{}) (*ObjectVariable, error) {
	if depth > b.cfg.maxDepth {
		return nil, b.cyclic(method, path, decl.Name)
	}
	if len(props) > 0 {
		key := &props[0]
		if _, ok := visiting[key]; ok {
			return nil, b.cyclic(method, path, decl.Name)
		}
		visiting[key] = struct{}{}
		defer delete(visiting, key)
	}

	base, err := NewVariable(method, decl, Response)
	if err != nil {
		return nil, err
	}
	name := base.Name
	if base.IsCollection() {
		name = Singular(name)
	}
	o := &ObjectVariable{
		Variable:   *base,
		Properties: NewContainer(),
		baseName:   b.casing.TypeName(name),
		path:       path,
		method:     method,
	}
	childPath := append(append([]string(nil), path...), base.Name)

	tokens := make([]string, 0, len(props))
	for _, p := range props {
		v, err := NewVariable(method, p.Param, Response)
		if err != nil {
			return nil, err
		}
		if b.dropped(v) || o.Properties.Has(v.Name) {
			continue
		}
		if p.HasProperties() {
			child, err := b.object(method, p.Param, p.Properties, childPath, depth+1, visiting)
			if err != nil {
				return nil, err
			}
			v.Object = child
			if !v.IsCollection() {
				v.Type = ResolvedType{Kind: Object, Tag: v.Type.Tag}
			}
		}
		_ = o.Properties.Add(v)
		tokens = append(tokens, v.token())
	}
	sum := sha256.Sum256([]byte(strings.Join(tokens, "\n")))
	o.signature = hex.EncodeToString(sum[:])
	return o, nil
}

// rootSignature keys a response root by its resource as well as its shape,
// so only methods on the same resource share a root class.
func rootSignature(resource, shape string) string {
	sum := sha256.Sum256([]byte("root:" + resource + "\n" + shape))
	return hex.EncodeToString(sum[:])
}

func (b *Builder) cyclic(method string, path []string, name string) error {
	where := strings.Join(append(append([]string(nil), path[1:]...), name), ".")
	return errs.Wrap(errs.NamingCollision, ErrCyclicShape, "%s: response.%s is cyclic or nests deeper than %d levels", method, where, b.cfg.maxDepth)
}
