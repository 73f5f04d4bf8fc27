package alias

import "github.com/jlewallen/dimsum/internal/document"

// Table declares, per canonical field name, the legacy spellings accepted for
// it. Each document kind that has drifted carries its own Table.
type Table map[string][]string

// Envelope is the alias table for the outer entity record. The retired
// producer wrote the class under "klass" and the component map under
// "chimeras".
var Envelope = Table{
	"class":  {"klass"},
	"scopes": {"chimeras"},
}

// Normalize returns a copy of m in which every legacy key named by t has been
// renamed to its canonical spelling. When both spellings are present the
// canonical value wins and the legacy key is dropped. Keys the table does not
// mention are copied as-is.
func Normalize(m document.Map, t Table) document.Map {
	out := make(document.Map, len(m))
	for k, v := range m {
		out[k] = v
	}
	for canonical, legacy := range t {
		v, _, ok := Lookup(m, canonical, legacy...)
		for _, l := range legacy {
			delete(out, l)
		}
		if ok {
			out[canonical] = v
		}
	}
	return out
}
