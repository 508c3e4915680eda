package descriptor

import (
	"reflect"
	"sort"
	"strconv"
	"strings"

	"github.com/mark3labs/apigen/internal/errs"
)

// Raw is one undecoded entry of an API listing, exactly as the source decoded it
// from JSON or YAML. Well-formed entries are map[string]any; anything else is
// rejected per method by DecodeMethod.
type Raw any

// Method is a decoded method descriptor.
type Method struct {
	Name        string
	Description string
	Async       bool
	Since       string
	Related     []string
	Params      []Param
	Response    []Property
}

// Param is one request parameter.
type Param struct {
	Name        string
	Description string
	Type        string
	Required    bool
	Length      int
	Since       string
	Related     []string
}

// Property is one response property. Properties is non-empty when the
// descriptor nests a property list under it.
type Property struct {
	Param
	Properties []Property
}

// HasProperties reports whether the descriptor declares nested properties.
func (p Property) HasProperties() bool { return len(p.Properties) > 0 }

// Capabilities is the decoded capability listing of the remote API.
type Capabilities struct {
	Version string
	Raw     map[string]any
}

// DecodeMethod turns one listing entry into a Method. Shape problems are
// reported as errs.MalformedInput with the offending raw value; an empty name is
// errs.InvalidInput.
func DecodeMethod(raw Raw) (*Method, error) {
	obj, ok := raw.(map[string]any)
	if !ok {
		return nil, errs.Malformed("", "", raw, "method descriptor must be an object")
	}
	name, err := stringField(obj, "name")
	if err != nil {
		return nil, errs.Malformed("", "name", obj["name"], "method name must be a string")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errs.Invalid("", "name", "method name is empty")
	}

	m := &Method{Name: name}
	if m.Description, err = stringField(obj, "description"); err != nil {
		return nil, errs.Malformed(name, "description", obj["description"], "description must be a string")
	}
	asyncKey := "isasync"
	if _, ok := obj[asyncKey]; !ok {
		asyncKey = "async"
	}
	if m.Async, err = boolValue(obj[asyncKey]); err != nil {
		return nil, errs.Malformed(name, asyncKey, obj[asyncKey], "async flag must be a boolean")
	}
	if m.Since, err = versionField(obj, "since"); err != nil {
		return nil, errs.Malformed(name, "since", obj["since"], "since must be a version string")
	}
	if m.Related, err = relatedValue(obj["related"]); err != nil {
		return nil, errs.Malformed(name, "related", obj["related"], "related must be a list or comma separated string")
	}

	params, err := listValue(obj["params"])
	if err != nil {
		return nil, errs.Malformed(name, "params", obj["params"], "parameters must be a list of objects")
	}
	for i, p := range params {
		dp, err := decodeParam(name, "params["+strconv.Itoa(i)+"]", p)
		if err != nil {
			return nil, err
		}
		m.Params = append(m.Params, dp)
	}

	resp, err := listValue(obj["response"])
	if err != nil {
		return nil, errs.Malformed(name, "response", obj["response"], "response must be a list of objects")
	}
	w := &walker{method: name, visiting: make(map[uintptr]struct{})}
	for i, p := range resp {
		prop, err := w.property("response["+strconv.Itoa(i)+"]", p, 0)
		if err != nil {
			return nil, err
		}
		m.Response = append(m.Response, prop)
	}
	return m, nil
}

func decodeParam(method, field string, raw any) (Param, error) {
	obj, ok := raw.(map[string]any)
	if !ok {
		return Param{}, errs.Malformed(method, field, raw, "entry must be an object")
	}
	var p Param
	var err error
	if p.Name, err = stringField(obj, "name"); err != nil {
		return Param{}, errs.Malformed(method, field+".name", obj["name"], "name must be a string")
	}
	p.Name = strings.TrimSpace(p.Name)
	if p.Description, err = stringField(obj, "description"); err != nil {
		return Param{}, errs.Malformed(method, field+".description", obj["description"], "description must be a string")
	}
	if p.Type, err = stringField(obj, "type"); err != nil {
		return Param{}, errs.Malformed(method, field+".type", obj["type"], "type must be a string")
	}
	if p.Required, err = boolValue(obj["required"]); err != nil {
		return Param{}, errs.Malformed(method, field+".required", obj["required"], "required must be a boolean or \"true\"/\"false\"")
	}
	if p.Length, err = intValue(obj["length"]); err != nil {
		return Param{}, errs.Malformed(method, field+".length", obj["length"], "length must be a number")
	}
	if p.Since, err = versionField(obj, "since"); err != nil {
		return Param{}, errs.Malformed(method, field+".since", obj["since"], "since must be a version string")
	}
	if p.Related, err = relatedValue(obj["related"]); err != nil {
		return Param{}, errs.Malformed(method, field+".related", obj["related"], "related must be a list or comma separated string")
	}
	return p, nil
}

// MaxDepth bounds property nesting. Real descriptors stay well below it.
const MaxDepth = 32

// walker decodes nested response properties while tracking the raw objects on
// the current path, so self-referential input (YAML aliases) fails instead of
// recursing forever.
type walker struct {
	method   string
	visiting map[uintptr]struct{}
}

func (w *walker) property(field string, raw any, depth int) (Property, error) {
	p, err := decodeParam(w.method, field, raw)
	if err != nil {
		return Property{}, err
	}
	if depth >= MaxDepth {
		return Property{}, errs.New(errs.NamingCollision, "%s: %s: nesting deeper than %d levels", w.method, field, MaxDepth)
	}
	obj := raw.(map[string]any)
	id := reflect.ValueOf(obj).Pointer()
	if _, cyclic := w.visiting[id]; cyclic {
		return Property{}, errs.New(errs.NamingCollision, "%s: %s: property %q contains itself", w.method, field, p.Name)
	}
	w.visiting[id] = struct{}{}
	defer delete(w.visiting, id)

	prop := Property{Param: p}
	// listApis nests child properties under "response"; normalized dumps use "properties".
	key := "properties"
	if _, ok := obj[key]; !ok {
		key = "response"
	}
	children, err := listValue(obj[key])
	if err != nil {
		return Property{}, errs.Malformed(w.method, field+"."+key, obj[key], "nested properties must be a list of objects")
	}
	for i, c := range children {
		child, err := w.property(field+"."+prop.Name+"["+strconv.Itoa(i)+"]", c, depth+1)
		if err != nil {
			return Property{}, err
		}
		prop.Properties = append(prop.Properties, child)
	}
	return prop, nil
}

func stringField(obj map[string]any, key string) (string, error) {
	switch v := obj[key].(type) {
	case nil:
		return "", nil
	case string:
		return v, nil
	default:
		return "", errs.ErrMalformedInput
	}
}

// versionField accepts a string or a bare number such as 4.2 decoded from YAML.
func versionField(obj map[string]any, key string) (string, error) {
	switch v := obj[key].(type) {
	case nil:
		return "", nil
	case string:
		return strings.TrimSpace(v), nil
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), nil
	case int:
		return strconv.Itoa(v), nil
	default:
		return "", errs.ErrMalformedInput
	}
}

func boolValue(v any) (bool, error) {
	switch val := v.(type) {
	case nil:
		return false, nil
	case bool:
		return val, nil
	case string:
		switch strings.ToLower(strings.TrimSpace(val)) {
		case "true":
			return true, nil
		case "false", "":
			return false, nil
		}
	}
	return false, errs.ErrMalformedInput
}

func intValue(v any) (int, error) {
	switch val := v.(type) {
	case nil:
		return 0, nil
	case int:
		return val, nil
	case int64:
		return int(val), nil
	case float64:
		if val != float64(int(val)) {
			return 0, errs.ErrMalformedInput
		}
		return int(val), nil
	case string:
		s := strings.TrimSpace(val)
		if s == "" {
			return 0, nil
		}
		n, err := strconv.Atoi(s)
		if err != nil {
			return 0, errs.ErrMalformedInput
		}
		return n, nil
	default:
		return 0, errs.ErrMalformedInput
	}
}

// listValue treats nil as an empty list and rejects any non-list value.
func listValue(v any) ([]any, error) {
	switch val := v.(type) {
	case nil:
		return nil, nil
	case []any:
		return val, nil
	default:
		return nil, errs.ErrMalformedInput
	}
}

// relatedValue returns a sorted, de-duplicated set of related names.
func relatedValue(v any) ([]string, error) {
	var parts []string
	switch val := v.(type) {
	case nil:
		return nil, nil
	case string:
		parts = strings.Split(val, ",")
	case []any:
		for _, item := range val {
			s, ok := item.(string)
			if !ok {
				return nil, errs.ErrMalformedInput
			}
			parts = append(parts, s)
		}
	default:
		return nil, errs.ErrMalformedInput
	}
	seen := make(map[string]struct{}, len(parts))
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if _, dup := seen[p]; dup {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	if len(out) == 0 {
		return nil, nil
	}
	sort.Strings(out)
	return out, nil
}
