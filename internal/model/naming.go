package model

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// DefaultClassOverrides spells a few run-together descriptor terms as proper
// words. Keys are lowercase descriptor names.
var DefaultClassOverrides = map[string]string{
	"affinitygroup":  "AffinityGroup",
	"ipaddress":      "IPAddress",
	"loadbalancer":   "LoadBalancer",
	"resourcetag":    "ResourceTag",
	"securitygroup":  "SecurityGroup",
	"virtualmachine": "VirtualMachine",
}

// irregularSingulars covers plurals the suffix rules get wrong.
var irregularSingulars = map[string]string{
	"children": "child",
	"indices":  "index",
	"statuses": "status",
	"aliases":  "alias",
	"data":     "data",
	"series":   "series",
}

// Casing turns descriptor names into class names. The zero value is usable and
// applies no overrides.
type Casing struct {
	overrides map[string]string
}

// NewCasing returns a Casing with DefaultClassOverrides merged with overrides.
// Later entries win.
func NewCasing(overrides map[string]string) *Casing {
	c := &Casing{overrides: make(map[string]string, len(DefaultClassOverrides)+len(overrides))}
	for k, v := range DefaultClassOverrides {
		c.overrides[k] = v
	}
	for k, v := range overrides {
		c.overrides[strings.ToLower(strings.TrimSpace(k))] = strings.TrimSpace(v)
	}
	return c
}

// Pascal converts name to PascalCase. Separators are dropped and each part is
// title-cased without lowering the rest, so camelCase survives.
func (c *Casing) Pascal(name string) string {
	if c != nil {
		if o, ok := c.overrides[strings.ToLower(name)]; ok && o != "" {
			return o
		}
	}
	parts := strings.FieldsFunc(name, func(r rune) bool {
		return r == '_' || r == '-' || r == '.' || r == ' ' || r == '/'
	})
	// cases.Caser is stateful; one per call keeps Pascal goroutine safe.
	title := cases.Title(language.Und, cases.NoLower)
	var b strings.Builder
	for _, p := range parts {
		if c != nil {
			if o, ok := c.overrides[strings.ToLower(p)]; ok && o != "" {
				b.WriteString(o)
				continue
			}
		}
		b.WriteString(title.String(p))
	}
	return b.String()
}

// TypeName is Pascal reduced to a legal identifier in every target language.
func (c *Casing) TypeName(name string) string { return Identifier(c.Pascal(name)) }

// Identifier drops everything but letters and digits from s. A result that is
// empty or starts with a digit is prefixed with T.
func Identifier(s string) string {
	var b strings.Builder
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	id := b.String()
	if first, _ := utf8.DecodeRuneInString(id); id == "" || unicode.IsDigit(first) {
		id = "T" + id
	}
	return id
}

// Ucfirst upper-cases the first rune of s.
func Ucfirst(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}

// Lcfirst lower-cases the first rune of s.
func Lcfirst(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToLower(r)) + s[size:]
}

// Singular strips an English plural suffix. Case of the stem is preserved.
func Singular(name string) string {
	lower := strings.ToLower(name)
	if s, ok := irregularSingulars[lower]; ok {
		return matchCase(name, s)
	}
	switch {
	case len(lower) > 3 && strings.HasSuffix(lower, "ies"):
		return name[:len(name)-3] + matchCase(name[len(name)-3:], "y")
	case strings.HasSuffix(lower, "sses"), strings.HasSuffix(lower, "xes"),
		strings.HasSuffix(lower, "ches"), strings.HasSuffix(lower, "shes"):
		return name[:len(name)-2]
	case strings.HasSuffix(lower, "ss"), strings.HasSuffix(lower, "us"), strings.HasSuffix(lower, "is"):
		return name
	case len(lower) > 1 && strings.HasSuffix(lower, "s"):
		return name[:len(name)-1]
	}
	return name
}

// matchCase returns repl upper-cased when ref is entirely upper case.
func matchCase(ref, repl string) string {
	if ref != "" && strings.ToUpper(ref) == ref && strings.ToLower(ref) != ref {
		return strings.ToUpper(repl)
	}
	return repl
}

// Resource derives the resource a method operates on: the leading lowercase
// verb is stripped and list methods are singularized, so listFoos yields foo.
// A name without an upper-case rune is returned unchanged.
func Resource(method string) string {
	idx := strings.IndexFunc(method, unicode.IsUpper)
	if idx <= 0 {
		return method
	}
	res := method[idx:]
	if strings.HasPrefix(method, "list") {
		res = Singular(res)
	}
	return Lcfirst(res)
}

// SnakeCase converts camelCase or PascalCase to snake_case. Runs of capitals
// are kept together: IPAddress becomes ip_address.
func SnakeCase(s string) string {
	runes := []rune(s)
	var b strings.Builder
	for i, r := range runes {
		if r == '-' || r == '.' || r == ' ' {
			r = '_'
		}
		if unicode.IsUpper(r) {
			if i > 0 && runes[i-1] != '_' {
				prevLower := unicode.IsLower(runes[i-1]) || unicode.IsDigit(runes[i-1])
				nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
				if prevLower || (nextLower && unicode.IsUpper(runes[i-1])) {
					b.WriteByte('_')
				}
			}
			b.WriteRune(unicode.ToLower(r))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
