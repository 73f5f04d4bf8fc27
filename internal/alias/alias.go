package alias

import (
	"github.com/jlewallen/dimsum/internal/document"
)

// markers lists the producer marker keys removed by StripMarkers. Each one
// records the producing runtime's type name or object identity and nothing
// else.
var markers = map[string]struct{}{
	"py/object": {},
	"py/type":   {},
	"py/ref":    {},
}

// containers lists the producer keys that wrap a sequence. A map holding one
// of these and nothing but markers stands for the sequence itself.
var containers = map[string]struct{}{
	"py/tuple": {},
	"py/set":   {},
}

// IsMarker reports whether key is a producer marker.
func IsMarker(key string) bool {
	_, ok := markers[key]
	return ok
}

// Lookup returns the value stored under canonical, or under the first legacy
// name present when canonical is absent. The returned name is the spelling
// that matched. Absence is not an error here; callers that require the field
// report it themselves.
func Lookup(m document.Map, canonical string, legacy ...string) (document.Value, string, bool) {
	if v, ok := m[canonical]; ok {
		return v, canonical, true
	}
	for _, name := range legacy {
		if v, ok := m[name]; ok {
			return v, name, true
		}
	}
	return nil, "", false
}

// TypeName returns the type name a producer stored in place of a plain value,
// as in {"py/type": "model.scopes.ItemClass"}.
func TypeName(v document.Value) (string, bool) {
	m, ok := v.(document.Map)
	if !ok {
		return "", false
	}
	s, ok := m["py/type"].(document.String)
	return string(s), ok
}

// StripMarkers returns a copy of v with every producer marker key removed at
// every depth, and every wrapped sequence ({"py/tuple": [...]}) replaced by
// its list. Other keys, including data-carrying producer keys such as
// "py/state", are kept. The input is not modified.
func StripMarkers(v document.Value) document.Value {
	switch val := v.(type) {
	case document.Map:
		if list, ok := unwrapContainer(val); ok {
			return StripMarkers(list)
		}
		out := make(document.Map, len(val))
		for k, elem := range val {
			if IsMarker(k) {
				continue
			}
			out[k] = StripMarkers(elem)
		}
		return out
	case document.List:
		out := make(document.List, len(val))
		for i, elem := range val {
			out[i] = StripMarkers(elem)
		}
		return out
	default:
		return v
	}
}

func unwrapContainer(m document.Map) (document.List, bool) {
	var (
		list  document.List
		found bool
	)
	for k, v := range m {
		if IsMarker(k) {
			continue
		}
		if _, ok := containers[k]; !ok || found {
			return nil, false
		}
		l, ok := v.(document.List)
		if !ok {
			return nil, false
		}
		list, found = l, true
	}
	return list, found
}
