package decode

import (
	"slices"

	"github.com/samber/lo"

	"github.com/jlewallen/dimsum/internal/document"
	"github.com/jlewallen/dimsum/internal/model"
)

// DecodeComponents decodes every entry of an entity's scope map. Each input
// tag appears exactly once in the result. Unknown tags decode to
// model.Unrecognized. The first shape mismatch fails the whole map: no
// partial result is returned.
//
// Tags are visited in sorted order so that a document with several bad
// components always reports the same one.
func (r *Registry) DecodeComponents(scopes map[string]document.Value) (map[string]model.Component, error) {
	out := make(map[string]model.Component, len(scopes))

	tags := lo.Keys(scopes)
	slices.Sort(tags)

	for _, tag := range tags {
		c, err := r.Decode(tag, scopes[tag])
		if err != nil {
			return nil, err
		}
		out[tag] = c
	}
	return out, nil
}

// Unrecognized returns the tags in components that decoded to
// model.Unrecognized, sorted.
func Unrecognized(components map[string]model.Component) []string {
	tags := lo.FilterMap(lo.Entries(components), func(e lo.Entry[string, model.Component], _ int) (string, bool) {
		_, ok := e.Value.(model.Unrecognized)
		return e.Key, ok
	})
	slices.Sort(tags)
	return tags
}
