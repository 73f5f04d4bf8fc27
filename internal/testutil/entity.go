package testutil

import (
	"maps"

	"github.com/jlewallen/dimsum/internal/document"
)

// EntityBuilder assembles persisted entity documents for tests.
//
// The zero configuration produces a minimal valid envelope: key, version 1,
// a full identity with signature, class "thing", empty acls, empty props and
// no scopes. Options switch on the quirks found in real persisted data.
type EntityBuilder struct {
	key       string
	version   int64
	class     string
	legacy    bool
	pickled   bool
	markers   bool
	signature any
	parent    map[string]any
	creator   map[string]any
	props     map[string]any
	scopes    map[string]any
	chimeras  bool
	omitted   map[string]bool
	overrides map[string]any
}

// NewEntity starts a builder for an entity with the given key.
func NewEntity(key string) *EntityBuilder {
	return &EntityBuilder{
		key:       key,
		version:   1,
		class:     "thing",
		signature: "sig-" + key,
		props:     map[string]any{},
		scopes:    map[string]any{},
		omitted:   map[string]bool{},
		overrides: map[string]any{},
	}
}

// Version sets the edit counter.
func (b *EntityBuilder) Version(v int64) *EntityBuilder {
	b.version = v
	return b
}

// Class sets the class tag.
func (b *EntityBuilder) Class(class string) *EntityBuilder {
	b.class = class
	return b
}

// LegacyClass writes the class under its retired "klass" spelling.
func (b *EntityBuilder) LegacyClass() *EntityBuilder {
	b.legacy = true
	return b
}

// PickledClass writes the class the way the retired producer stored type
// objects: {"py/type": class}.
func (b *EntityBuilder) PickledClass() *EntityBuilder {
	b.pickled = true
	return b
}

// LegacyScopes writes the scope map under its retired "chimeras" spelling.
func (b *EntityBuilder) LegacyScopes() *EntityBuilder {
	b.chimeras = true
	return b
}

// Markers attaches producer markers to the envelope and its sub-documents.
func (b *EntityBuilder) Markers() *EntityBuilder {
	b.markers = true
	return b
}

// NoSignature drops identity.signature entirely.
func (b *EntityBuilder) NoSignature() *EntityBuilder {
	b.signature = nil
	return b
}

// NullSignature writes identity.signature as null.
func (b *EntityBuilder) NullSignature() *EntityBuilder {
	b.signature = document.Null{}
	return b
}

// Parent sets the parent reference.
func (b *EntityBuilder) Parent(key, klass, name string) *EntityBuilder {
	b.parent = Ref(key, klass, name)
	return b
}

// Creator sets the creator reference.
func (b *EntityBuilder) Creator(key, klass, name string) *EntityBuilder {
	b.creator = Ref(key, klass, name)
	return b
}

// Prop adds a free-form property.
func (b *EntityBuilder) Prop(name string, value any) *EntityBuilder {
	b.props[name] = value
	return b
}

// Scope adds a component document under tag.
func (b *EntityBuilder) Scope(tag string, doc any) *EntityBuilder {
	b.scopes[tag] = doc
	return b
}

// Omit removes a top-level field from the output.
func (b *EntityBuilder) Omit(field string) *EntityBuilder {
	b.omitted[field] = true
	return b
}

// Set replaces a top-level field with an arbitrary value.
func (b *EntityBuilder) Set(field string, value any) *EntityBuilder {
	b.overrides[field] = value
	return b
}

// Map returns the document as plain Go values.
func (b *EntityBuilder) Map() map[string]any {
	identity := map[string]any{
		"public":  "public-" + b.key,
		"private": "private-" + b.key,
	}
	if b.signature != nil {
		identity["signature"] = b.signature
	}

	acls := map[string]any{"rules": []any{}}
	version := map[string]any{"i": b.version}
	props := map[string]any{"map": maps.Clone(b.props)}

	if b.markers {
		identity["py/object"] = "model.crypto.Identity"
		acls["py/object"] = "model.permissions.Acls"
		version["py/object"] = "model.entity.Version"
		props["py/object"] = "model.properties.Common"
	}

	doc := map[string]any{
		"key":      b.key,
		"version":  version,
		"identity": identity,
		"acls":     acls,
		"props":    props,
	}
	var class any = b.class
	if b.pickled {
		class = map[string]any{"py/type": b.class}
	}
	if b.legacy {
		doc["klass"] = class
	} else {
		doc["class"] = class
	}
	if b.chimeras {
		doc["chimeras"] = maps.Clone(b.scopes)
	} else {
		doc["scopes"] = maps.Clone(b.scopes)
	}
	if b.parent != nil {
		doc["parent"] = b.parent
	}
	if b.creator != nil {
		doc["creator"] = b.creator
	}
	if b.markers {
		doc["py/object"] = "model.entity.Entity"
	}

	for field := range b.omitted {
		delete(doc, field)
	}
	for field, value := range b.overrides {
		doc[field] = value
	}
	return doc
}

// JSON returns the document serialized with sorted keys.
func (b *EntityBuilder) JSON() string {
	return string(document.MustMarshalCanonical(b.Map()))
}

// Ref builds an entity reference document.
func Ref(key, klass, name string) map[string]any {
	return map[string]any{
		"py/object": "model.entity.EntityRef",
		"key":       key,
		"klass":     klass,
		"name":      name,
	}
}

// Identity builds an identity document without private key, as found inside
// component documents.
func Identity(public string) map[string]any {
	return map[string]any{
		"py/object": "model.crypto.Identity",
		"public":    public,
		"signature": nil,
	}
}

// Carryable builds a carryable component document.
func Carryable(loose bool, quantity float64) map[string]any {
	return map[string]any{
		"py/object": "model.scopes.carryable.Carryable",
		"kind":      map[string]any{"identity": Identity("kind-public")},
		"loose":     loose,
		"quantity":  quantity,
	}
}

// Occupyable builds an occupyable component document holding refs.
func Occupyable(occupancy int64, occupied ...map[string]any) map[string]any {
	list := make([]any, 0, len(occupied))
	for _, ref := range occupied {
		list = append(list, ref)
	}
	return map[string]any{
		"occupancy": occupancy,
		"occupied":  list,
	}
}

// Containing builds a containing component document holding refs.
func Containing(locked bool, holding ...map[string]any) map[string]any {
	list := make([]any, 0, len(holding))
	for _, ref := range holding {
		list = append(list, ref)
	}
	return map[string]any{
		"holding":  list,
		"locked":   locked,
		"capacity": nil,
		"produces": map[string]any{},
	}
}
