package model

import (
	"sort"
	"strings"
)

// SharedNamespace holds objects referenced by more than one method.
const SharedNamespace = "Shared"

// ObjectVariable is a deduplicated object shape. The embedded Variable is the
// canonical declaration: the first field, in method then path order, that
// produced the shape.
type ObjectVariable struct {
	Variable
	Shared bool
	// ClassNameOverride is set only by collision disambiguation.
	ClassNameOverride string
	Properties        *Container
	Namespace         string

	baseName  string
	path      []string
	method    string
	signature string
	methods   map[string]struct{}
	roots     map[string]struct{}
}

// ClassName returns the emitted type name.
func (o *ObjectVariable) ClassName() string {
	if o.ClassNameOverride != "" {
		return o.ClassNameOverride
	}
	return ClassName(o.baseName, o.Shared)
}

// ClassName appends the Response suffix to method scoped objects.
func ClassName(base string, shared bool) string {
	if shared {
		return base
	}
	return base + "Response"
}

// Signature is the structural identity used for deduplication.
func (o *ObjectVariable) Signature() string { return o.signature }

// Methods lists the distinct methods referencing o, sorted.
func (o *ObjectVariable) Methods() []string { return sortedSet(o.methods) }

// RootOf lists the methods whose response root is o, sorted.
func (o *ObjectVariable) RootOf() []string { return sortedSet(o.roots) }

// IsRoot reports whether o is the response root of any method.
func (o *ObjectVariable) IsRoot() bool { return len(o.roots) > 0 }

// OwnerPath is the chain of enclosing names of the canonical declaration,
// starting with the declaring method.
func (o *ObjectVariable) OwnerPath() []string { return append([]string(nil), o.path...) }

// declKey orders candidate declarations; the smallest becomes canonical.
func (o *ObjectVariable) declKey() string {
	return strings.Join(append([]string{o.method}, o.path...), "\x00") + "\x00" + o.Name
}

// adopt replaces the canonical declaration of o with that of other.
func (o *ObjectVariable) adopt(other *ObjectVariable) {
	props := o.Properties
	o.Variable = other.Variable
	o.baseName = other.baseName
	o.path = other.path
	o.method = other.method
	o.Properties = props
}

func sortedSet(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
