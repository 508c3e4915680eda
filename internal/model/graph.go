package model

import (
	"sort"
	"strings"
	"sync"

	"github.com/mark3labs/apigen/internal/errs"
)

// Graph is the deduplicated set of object shapes reachable from every method
// response of a run. The signature table is mutex guarded so Intern may be
// called from several goroutines.
type Graph struct {
	mu      sync.Mutex
	casing  *Casing
	bySig   map[string]*ObjectVariable
	objects []*ObjectVariable
}

func NewGraph(casing *Casing) *Graph {
	if casing == nil {
		casing = NewCasing(nil)
	}
	return &Graph{casing: casing, bySig: map[string]*ObjectVariable{}}
}

// Intern registers root, and every object nested under it, as referenced by
// method. It returns the canonical root; nested fields are rewired to their
// canonical shapes.
func (g *Graph) Intern(root *ObjectVariable, method string) *ObjectVariable {
	g.mu.Lock()
	defer g.mu.Unlock()
	canon := g.intern(root, method)
	canon.roots[method] = struct{}{}
	return canon
}

func (g *Graph) intern(o *ObjectVariable, method string) *ObjectVariable {
	for _, v := range o.Properties.order {
		if v.Object != nil {
			v.Object = g.intern(v.Object, method)
		}
	}
	if existing, ok := g.bySig[o.signature]; ok {
		existing.methods[method] = struct{}{}
		if o.declKey() < existing.declKey() {
			existing.adopt(o)
		}
		return existing
	}
	o.methods = map[string]struct{}{method: {}}
	o.roots = map[string]struct{}{}
	g.bySig[o.signature] = o
	g.objects = append(g.objects, o)
	return o
}

// Len is the number of distinct shapes.
func (g *Graph) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.objects)
}

// Objects returns every distinct shape sorted by class name.
func (g *Graph) Objects() []*ObjectVariable {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := append([]*ObjectVariable(nil), g.objects...)
	sort.SliceStable(out, func(i, j int) bool {
		if a, b := out[i].ClassName(), out[j].ClassName(); a != b {
			return a < b
		}
		return out[i].signature < out[j].signature
	})
	return out
}

// Lookup finds an object by its final class name.
func (g *Graph) Lookup(className string) (*ObjectVariable, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, o := range g.objects {
		if o.ClassName() == className {
			return o, true
		}
	}
	return nil, false
}

// Finalize decides sharing and namespaces, then assigns collision free class
// names. Every member of a colliding group is qualified with one more segment
// of its owner path until the group dissolves. A group whose members are all
// fully qualified is a NamingCollision.
func (g *Graph) Finalize() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	for _, o := range g.objects {
		o.Shared = len(o.methods) > 1
		o.ClassNameOverride = ""
		if o.Shared {
			o.Namespace = SharedNamespace
		} else {
			o.Namespace = g.casing.TypeName(Resource(o.method))
		}
	}

	level := make(map[*ObjectVariable]int, len(g.objects))
	for {
		groups := map[string][]*ObjectVariable{}
		for _, o := range g.objects {
			name := g.qualified(o, level[o])
			groups[name] = append(groups[name], o)
		}
		collided := false
		var stuck []string
		for name, group := range groups {
			if len(group) < 2 {
				continue
			}
			collided = true
			moved := false
			for _, o := range group {
				if level[o] < len(o.path) {
					level[o]++
					moved = true
				}
			}
			if !moved {
				stuck = append(stuck, name)
			}
		}
		if len(stuck) > 0 {
			sort.Strings(stuck)
			return errs.New(errs.NamingCollision, "class names still collide after full qualification: %s", strings.Join(stuck, ", "))
		}
		if !collided {
			break
		}
	}
	for _, o := range g.objects {
		if level[o] > 0 {
			o.ClassNameOverride = g.qualified(o, level[o])
		}
	}
	return nil
}

// qualified prefixes the class name with the last n owner path segments.
func (g *Graph) qualified(o *ObjectVariable, n int) string {
	name := ClassName(o.baseName, o.Shared)
	if n <= 0 {
		return name
	}
	if n > len(o.path) {
		n = len(o.path)
	}
	var b strings.Builder
	for _, seg := range o.path[len(o.path)-n:] {
		b.WriteString(g.casing.Pascal(seg))
	}
	return Identifier(b.String() + name)
}
