// Package descriptor supplies raw API method and capability descriptors, either
// from static listing files or from a live endpoint, and decodes individual
// method entries into typed descriptors.
package descriptor

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/mark3labs/apigen/internal/errs"
)

// Source is the contract the generator consumes. Implementations do I/O only;
// per-method shape validation happens in DecodeMethod.
type Source interface {
	ListMethods(ctx context.Context) ([]Raw, error)
	ListCapabilities(ctx context.Context) (*Capabilities, error)
}

// extractAPIs finds the method list inside a decoded listApis document. It
// accepts the full response envelope, a bare {"api": [...]} object, or a
// top-level list.
func extractAPIs(doc any, location string) ([]Raw, error) {
	switch v := doc.(type) {
	case []any:
		out := make([]Raw, len(v))
		for i := range v {
			out[i] = v[i]
		}
		return out, nil
	case map[string]any:
		if inner, ok := lookupFold(v, "listapisresponse"); ok {
			return extractAPIs(inner, location)
		}
		if list, ok := lookupFold(v, "api"); ok {
			if _, isList := list.([]any); !isList {
				return nil, errs.New(errs.TransportError, "%s: \"api\" is not a list", location)
			}
			return extractAPIs(list, location)
		}
		if _, ok := lookupFold(v, "errorresponse"); ok {
			return nil, errs.New(errs.TransportError, "%s: endpoint returned an error response: %s", location, errorText(v))
		}
		if len(v) == 0 {
			return nil, nil
		}
		return nil, errs.New(errs.TransportError, "%s: no api listing found (keys: %s)", location, strings.Join(sortedKeys(v), ", "))
	case nil:
		return nil, errs.New(errs.TransportError, "%s: empty document", location)
	default:
		return nil, errs.New(errs.TransportError, "%s: unexpected document of type %T", location, doc)
	}
}

// extractCapabilities finds the capability object inside a decoded
// listCapabilities document.
func extractCapabilities(doc any, location string) (*Capabilities, error) {
	obj, ok := doc.(map[string]any)
	if !ok {
		return nil, errs.New(errs.TransportError, "%s: capabilities document must be an object", location)
	}
	if inner, ok := lookupFold(obj, "listcapabilitiesresponse"); ok {
		return extractCapabilities(inner, location)
	}
	if inner, ok := lookupFold(obj, "capability"); ok {
		return extractCapabilities(inner, location)
	}
	caps := &Capabilities{Raw: obj}
	for _, key := range []string{"cloudstackversion", "version", "apiversion"} {
		if v, ok := lookupFold(obj, key); ok {
			caps.Version = strings.TrimSpace(fmt.Sprint(v))
			break
		}
	}
	return caps, nil
}

func lookupFold(obj map[string]any, key string) (any, bool) {
	if v, ok := obj[key]; ok {
		return v, true
	}
	for k, v := range obj {
		if strings.EqualFold(k, key) {
			return v, true
		}
	}
	return nil, false
}

func errorText(obj map[string]any) string {
	inner, _ := lookupFold(obj, "errorresponse")
	m, ok := inner.(map[string]any)
	if !ok {
		return fmt.Sprint(inner)
	}
	if text, ok := lookupFold(m, "errortext"); ok {
		return fmt.Sprint(text)
	}
	return fmt.Sprint(m)
}

func sortedKeys(obj map[string]any) []string {
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
