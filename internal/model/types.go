package model

import (
	"strconv"
	"strings"
)

// Kind is the closed set of resolved type classifications. Opaque is the
// explicit fallback for tags the resolver does not know.
type Kind int

const (
	Opaque Kind = iota
	String
	Boolean
	Integer
	Float
	Date
	UUID
	URL
	Collection
	Object
)

var kindNames = [...]string{
	Opaque:     "opaque",
	String:     "string",
	Boolean:    "boolean",
	Integer:    "integer",
	Float:      "float",
	Date:       "date",
	UUID:       "uuid",
	URL:        "url",
	Collection: "collection",
	Object:     "object",
}

func (k Kind) String() string {
	if k >= 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "kind(" + strconv.Itoa(int(k)) + ")"
}

// ResolvedType is the classification of a raw type tag. Tag keeps the
// normalized raw tag so opaque types can still be named.
type ResolvedType struct {
	Kind Kind
	Tag  string
}

// Resolve maps a raw descriptor type tag to its classification. It never
// fails: unknown tags resolve to Opaque carrying the tag.
func Resolve(raw string) ResolvedType {
	tag := strings.ToLower(strings.TrimSpace(raw))
	var k Kind
	switch tag {
	case "string":
		k = String
	case "boolean":
		k = Boolean
	case "integer", "long", "short", "int":
		k = Integer
	case "float", "double":
		k = Float
	case "date", "tzdate":
		k = Date
	case "uuid":
		k = UUID
	case "url":
		k = URL
	case "set", "list", "map", "responseobject", "uservmresponse":
		k = Collection
	case "object":
		k = Object
	default:
		k = Opaque
	}
	return ResolvedType{Kind: k, Tag: tag}
}

// DefaultItemType is the element type of a collection whose descriptor does
// not nest an object shape.
var DefaultItemType = ResolvedType{Kind: String, Tag: "string"}

func (t ResolvedType) IsCollection() bool { return t.Kind == Collection }
func (t ResolvedType) IsDate() bool       { return t.Kind == Date }
func (t ResolvedType) IsKnown() bool      { return t.Kind != Opaque }

// DocType is the name used in documentation. Opaque tags document as string.
func (t ResolvedType) DocType() string {
	switch t.Kind {
	case Opaque:
		return "string"
	case Collection:
		return "list"
	default:
		return t.Kind.String()
	}
}

// token is the signature fragment for a scalar or collection type.
func (t ResolvedType) token() string {
	if t.Kind == Opaque {
		return "opaque:" + t.Tag
	}
	return t.Kind.String()
}
