// Package emitter turns a compiled model into emission units and writes what
// a Renderer produces for them.
//
// Every method yields one Method unit and every distinct object yields one
// Class unit (a method's response root) or ObjectDefinition unit (nested).
// Unit paths come from the renderer as a pure function of class name and
// namespace; two units on one path is a NamingCollision.
package emitter

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path"
	"sort"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/go-json-experiment/json"
	"github.com/go-json-experiment/json/jsontext"
	"go.uber.org/zap"

	"github.com/mark3labs/apigen/internal/errs"
	"github.com/mark3labs/apigen/internal/logger"
	"github.com/mark3labs/apigen/internal/model"
)

// Kind classifies an emission unit.
type Kind int

const (
	Method Kind = iota
	Class
	ObjectDefinition
)

func (k Kind) String() string {
	switch k {
	case Method:
		return "method"
	case Class:
		return "class"
	case ObjectDefinition:
		return "object"
	default:
		return "unknown"
	}
}

// Unit is one piece of emitted code: a method or an object, and where it goes.
type Unit struct {
	Path   string
	Kind   Kind
	Method *model.Method
	Object *model.ObjectVariable
}

// Name is the emitted type name of the unit.
func (u Unit) Name() string {
	if u.Kind == Method {
		return u.Method.RequestClassName()
	}
	return u.Object.ClassName()
}

// Info carries run level facts into renderers.
type Info struct {
	// Namespace is the root namespace of the emitted package.
	Namespace string
	// APIVersion is the remote version reported by the capability listing.
	APIVersion string
}

// Renderer produces source text for units in one target language.
type Renderer interface {
	// Name identifies the renderer in logs and the manifest.
	Name() string
	// Path returns the output path of a unit, relative to the output root.
	// A fragment ("file#anchor") marks a unit that lives inside an aggregate
	// file and is not written on its own.
	Path(kind Kind, className, namespace string) string
	// Render returns the content of u. A nil slice means the unit has no
	// standalone file.
	Render(u Unit, info Info) ([]byte, error)
}

// Aggregator is implemented by renderers that also emit files spanning every
// unit, such as package indexes or a single API document.
type Aggregator interface {
	Aggregate(units []Unit, info Info) (map[string][]byte, error)
}

// Options controls emission.
type Options struct {
	OutDir string
	Force  bool // overwrite a non-empty output directory
	DryRun bool // plan only
	Info   Info
	// OnUnit is called after each unit is rendered.
	OnUnit func(Unit)
	Logger *zap.SugaredLogger
}

// PlannedFile describes a file the driver intends to write.
type PlannedFile struct {
	RelPath string
	Size    int
	Mode    os.FileMode
}

// Result lists the units and the planned files, both sorted.
type Result struct {
	Renderer string
	Units    []Unit
	Planned  []PlannedFile
}

// ManifestFile is the name of the reproducibility manifest.
const ManifestFile = "manifest.json"

// Units builds the sorted unit set for methods and every object in graph.
func Units(r Renderer, methods []*model.Method, graph *model.Graph) ([]Unit, error) {
	var units []Unit
	objects := graph.Objects()
	known := make(map[*model.ObjectVariable]struct{}, len(objects))
	for _, o := range objects {
		kind := ObjectDefinition
		if o.IsRoot() {
			kind = Class
		}
		units = append(units, Unit{Path: r.Path(kind, o.ClassName(), o.Namespace), Kind: kind, Object: o})
		known[o] = struct{}{}
	}
	for _, m := range methods {
		if m.Response != nil {
			if _, ok := known[m.Response]; !ok {
				return nil, errs.New(errs.NamingCollision, "%s: response %s is not part of the object graph", m.Name, m.Response.ClassName())
			}
		}
		units = append(units, Unit{Path: r.Path(Method, m.RequestClassName(), ""), Kind: Method, Method: m})
	}

	sort.SliceStable(units, func(i, j int) bool { return units[i].Path < units[j].Path })
	for i := 1; i < len(units); i++ {
		if units[i].Path == units[i-1].Path {
			return nil, errs.New(errs.NamingCollision, "%s and %s both emit to %s", units[i-1].Name(), units[i].Name(), units[i].Path)
		}
	}
	return units, nil
}

// Emit renders every unit with r and writes the result under opts.OutDir.
func Emit(ctx context.Context, r Renderer, methods []*model.Method, graph *model.Graph, opts Options) (*Result, error) {
	if strings.TrimSpace(opts.OutDir) == "" {
		return nil, errs.New(errs.ConfigurationError, "output directory is required")
	}
	log := opts.Logger
	if log == nil {
		log = logger.Nop()
	}
	units, err := Units(r, methods, graph)
	if err != nil {
		return nil, err
	}

	files := map[string][]byte{}
	put := func(rel string, content []byte, owner string) error {
		rel = path.Clean(rel)
		if _, dup := files[rel]; dup || rel == ManifestFile {
			return errs.New(errs.NamingCollision, "%s: file %s is emitted twice", owner, rel)
		}
		files[rel] = content
		return nil
	}
	for _, u := range units {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		content, err := r.Render(u, opts.Info)
		if err != nil {
			return nil, errors.Wrapf(err, "render %s %s", u.Kind, u.Name())
		}
		if content != nil {
			if strings.Contains(u.Path, "#") {
				return nil, errs.New(errs.NamingCollision, "%s: unit path %s is a fragment but rendered content", u.Name(), u.Path)
			}
			if err := put(u.Path, content, u.Name()); err != nil {
				return nil, err
			}
		}
		log.Debugw("rendered unit", logger.FieldFile, u.Path, "kind", u.Kind.String())
		if opts.OnUnit != nil {
			opts.OnUnit(u)
		}
	}
	if agg, ok := r.(Aggregator); ok {
		extra, err := agg.Aggregate(units, opts.Info)
		if err != nil {
			return nil, errors.Wrapf(err, "aggregate %s output", r.Name())
		}
		for _, rel := range sortedKeys(extra) {
			if err := put(rel, extra[rel], r.Name()); err != nil {
				return nil, err
			}
		}
	}
	manifest, err := buildManifest(r.Name(), opts.Info, units, files)
	if err != nil {
		return nil, err
	}
	files[ManifestFile] = manifest

	rels := sortedKeys(files)
	planned := make([]PlannedFile, 0, len(rels))
	for _, rel := range rels {
		planned = append(planned, PlannedFile{RelPath: rel, Size: len(files[rel]), Mode: 0o644})
	}
	if !opts.DryRun {
		if err := writeFiles(opts.OutDir, files, opts.Force); err != nil {
			return nil, err
		}
		log.Infow("wrote output", logger.FieldCount, len(files), logger.FieldFile, opts.OutDir)
	}
	return &Result{Renderer: r.Name(), Units: units, Planned: planned}, nil
}

type manifestUnit struct {
	Path string `json:"path"`
	Kind string `json:"kind"`
	Name string `json:"name"`
}

type manifestFile struct {
	Path   string `json:"path"`
	SHA256 string `json:"sha256"`
}

type manifest struct {
	Generator  string         `json:"generator"`
	Renderer   string         `json:"renderer"`
	Namespace  string         `json:"namespace"`
	APIVersion string         `json:"apiVersion,omitempty"`
	Units      []manifestUnit `json:"units"`
	Files      []manifestFile `json:"files"`
}

func buildManifest(renderer string, info Info, units []Unit, files map[string][]byte) ([]byte, error) {
	m := manifest{
		Generator:  "apigen",
		Renderer:   renderer,
		Namespace:  info.Namespace,
		APIVersion: info.APIVersion,
		Units:      make([]manifestUnit, 0, len(units)),
		Files:      make([]manifestFile, 0, len(files)),
	}
	for _, u := range units {
		m.Units = append(m.Units, manifestUnit{Path: u.Path, Kind: u.Kind.String(), Name: u.Name()})
	}
	for _, rel := range sortedKeys(files) {
		sum := sha256.Sum256(files[rel])
		m.Files = append(m.Files, manifestFile{Path: rel, SHA256: hex.EncodeToString(sum[:])})
	}
	b, err := json.Marshal(m, jsontext.WithIndent("  "), json.Deterministic(true))
	if err != nil {
		return nil, errs.Wrap(errs.InvalidInput, err, "encode manifest")
	}
	return append(b, '\n'), nil
}

func sortedKeys(m map[string][]byte) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
