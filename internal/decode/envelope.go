package decode

import (
	"fmt"

	"github.com/tidwall/gjson"

	"github.com/jlewallen/dimsum/internal/alias"
	"github.com/jlewallen/dimsum/internal/document"
	"github.com/jlewallen/dimsum/internal/model"
)

// DecodeEntity decodes the fixed outer record of an entity. The component
// documents are returned undecoded in Entity.Scopes.
//
// Producer markers are ignored and legacy field names are accepted (see
// alias.Envelope). The class is either a string or the producer's type form
// {"py/type": name}. Property values are returned exactly as stored. A
// missing or mis-shaped required field fails the whole decode with a
// *MalformedEnvelopeError. Optional fields (parent, creator,
// identity.signature) decode to nil when absent or null. A missing scope map
// decodes to an empty one.
func DecodeEntity(doc document.Value) (*model.Entity, error) {
	root, ok := doc.(document.Map)
	if !ok {
		return nil, &MalformedEnvelopeError{
			Message: fmt.Sprintf("expected map, got %s", document.KindOf(doc)),
		}
	}

	raw := alias.Normalize(root, alias.Envelope)
	m, _ := alias.StripMarkers(raw).(document.Map)

	r := &envelopeReader{}

	key, err := r.str(m, "key", "key")
	if err != nil {
		return nil, err
	}
	r.key = key

	entity := &model.Entity{Key: key}

	if entity.Version, err = r.version(m); err != nil {
		return nil, err
	}
	if entity.Parent, err = r.optionalRef(m, "parent"); err != nil {
		return nil, err
	}
	if entity.Creator, err = r.optionalRef(m, "creator"); err != nil {
		return nil, err
	}
	if entity.Identity, err = r.identity(m); err != nil {
		return nil, err
	}
	if entity.Class, err = r.class(raw); err != nil {
		return nil, err
	}
	if entity.Acls, err = r.acls(m, "acls"); err != nil {
		return nil, err
	}
	if entity.Props, err = r.props(raw); err != nil {
		return nil, err
	}
	if entity.Scopes, err = r.scopes(m); err != nil {
		return nil, err
	}

	return entity, nil
}

// DecodeEntityText parses text and decodes its envelope. When the text does
// not parse, the returned *DocumentParseError carries the entity key if it
// can still be read from the damaged text.
func DecodeEntityText(text string) (*model.Entity, error) {
	doc, err := document.ParseString(text)
	if err != nil {
		return nil, &DocumentParseError{Key: recoverKey(text), Err: err}
	}
	return DecodeEntity(doc)
}

// recoverKey makes a best-effort attempt to read the top-level key from text
// that failed to parse.
func recoverKey(text string) string {
	res := gjson.Get(text, "key")
	if res.Type == gjson.String {
		return res.Str
	}
	return ""
}

// envelopeReader extracts envelope fields, stamping errors with the entity
// key once it is known.
type envelopeReader struct {
	key string
}

func (r *envelopeReader) fail(field, format string, args ...any) error {
	return &MalformedEnvelopeError{
		Key:     r.key,
		Field:   field,
		Message: fmt.Sprintf(format, args...),
	}
}

func (r *envelopeReader) required(m document.Map, name, path string) (document.Value, error) {
	v, ok := m[name]
	if !ok {
		return nil, r.fail(path, "required field is missing")
	}
	return v, nil
}

func (r *envelopeReader) str(m document.Map, name, path string) (string, error) {
	v, err := r.required(m, name, path)
	if err != nil {
		return "", err
	}
	s, ok := v.(document.String)
	if !ok {
		return "", r.fail(path, "expected string, got %s", document.KindOf(v))
	}
	return string(s), nil
}

// class reads the class tag from the unstripped envelope, where the legacy
// form still carries its type name.
func (r *envelopeReader) class(m document.Map) (string, error) {
	v, err := r.required(m, "class", "class")
	if err != nil {
		return "", err
	}
	if s, ok := v.(document.String); ok {
		return string(s), nil
	}
	if name, ok := alias.TypeName(v); ok {
		return name, nil
	}
	return "", r.fail("class", "expected string or type, got %s", document.KindOf(v))
}

func (r *envelopeReader) mapField(m document.Map, name, path string) (document.Map, error) {
	v, err := r.required(m, name, path)
	if err != nil {
		return nil, err
	}
	sub, ok := v.(document.Map)
	if !ok {
		return nil, r.fail(path, "expected map, got %s", document.KindOf(v))
	}
	return sub, nil
}

func (r *envelopeReader) version(m document.Map) (int64, error) {
	v, err := r.mapField(m, "version", "version")
	if err != nil {
		return 0, err
	}
	i, err := r.required(v, "i", "version.i")
	if err != nil {
		return 0, err
	}
	n, ok := i.(document.Int)
	if !ok {
		return 0, r.fail("version.i", "expected int, got %s", document.KindOf(i))
	}
	return int64(n), nil
}

func (r *envelopeReader) optionalRef(m document.Map, name string) (*model.EntityRef, error) {
	v, ok := m[name]
	if !ok {
		return nil, nil
	}
	if _, isNull := v.(document.Null); isNull {
		return nil, nil
	}
	sub, ok := v.(document.Map)
	if !ok {
		return nil, r.fail(name, "expected reference or null, got %s", document.KindOf(v))
	}

	ref := &model.EntityRef{}
	var err error
	if ref.Key, err = r.str(sub, "key", name+".key"); err != nil {
		return nil, err
	}
	if ref.Klass, err = r.optionalStr(sub, "klass", name+".klass"); err != nil {
		return nil, err
	}
	if ref.Name, err = r.optionalStr(sub, "name", name+".name"); err != nil {
		return nil, err
	}
	return ref, nil
}

func (r *envelopeReader) optionalStr(m document.Map, name, path string) (string, error) {
	v, ok := m[name]
	if !ok {
		return "", nil
	}
	switch s := v.(type) {
	case document.Null:
		return "", nil
	case document.String:
		return string(s), nil
	default:
		return "", r.fail(path, "expected string or null, got %s", document.KindOf(v))
	}
}

func (r *envelopeReader) identity(m document.Map) (model.Identity, error) {
	var id model.Identity

	v, err := r.mapField(m, "identity", "identity")
	if err != nil {
		return id, err
	}
	if id.Public, err = r.str(v, "public", "identity.public"); err != nil {
		return id, err
	}
	if id.Private, err = r.str(v, "private", "identity.private"); err != nil {
		return id, err
	}

	if sig, ok := v["signature"]; ok {
		switch s := sig.(type) {
		case document.Null:
		case document.String:
			str := string(s)
			id.Signature = &str
		default:
			return id, r.fail("identity.signature", "expected string or null, got %s", document.KindOf(sig))
		}
	}
	return id, nil
}

func (r *envelopeReader) acls(m document.Map, path string) (model.Acls, error) {
	acls := model.Acls{Rules: []model.AclRule{}}

	v, err := r.mapField(m, "acls", path)
	if err != nil {
		return acls, err
	}
	rulesPath := path + ".rules"
	raw, err := r.required(v, "rules", rulesPath)
	if err != nil {
		return acls, err
	}
	rules, ok := raw.(document.List)
	if !ok {
		return acls, r.fail(rulesPath, "expected list, got %s", document.KindOf(raw))
	}

	for i, elem := range rules {
		rulePath := fmt.Sprintf("%s[%d]", rulesPath, i)
		rule, ok := elem.(document.Map)
		if !ok {
			return acls, r.fail(rulePath, "expected map, got %s", document.KindOf(elem))
		}

		var parsed model.AclRule
		if parsed.Keys, err = r.strList(rule, "keys", rulePath+".keys"); err != nil {
			return acls, err
		}
		if parsed.Perm, err = r.str(rule, "perm", rulePath+".perm"); err != nil {
			return acls, err
		}
		acls.Rules = append(acls.Rules, parsed)
	}
	return acls, nil
}

func (r *envelopeReader) strList(m document.Map, name, path string) ([]string, error) {
	v, err := r.required(m, name, path)
	if err != nil {
		return nil, err
	}
	list, ok := v.(document.List)
	if !ok {
		return nil, r.fail(path, "expected list, got %s", document.KindOf(v))
	}
	out := make([]string, 0, len(list))
	for i, elem := range list {
		s, ok := elem.(document.String)
		if !ok {
			return nil, r.fail(fmt.Sprintf("%s[%d]", path, i), "expected string, got %s", document.KindOf(elem))
		}
		out = append(out, string(s))
	}
	return out, nil
}

// props reads the property map from the unstripped envelope: values are
// opaque and pass through with any producer keys they hold.
func (r *envelopeReader) props(m document.Map) (document.Map, error) {
	v, err := r.mapField(m, "props", "props")
	if err != nil {
		return nil, err
	}
	return r.mapField(v, "map", "props.map")
}

func (r *envelopeReader) scopes(m document.Map) (map[string]document.Value, error) {
	out := map[string]document.Value{}

	v, ok := m["scopes"]
	if !ok {
		return out, nil
	}
	switch s := v.(type) {
	case document.Null:
		return out, nil
	case document.Map:
		for tag, body := range s {
			out[tag] = body
		}
		return out, nil
	default:
		return nil, r.fail("scopes", "expected map, got %s", document.KindOf(v))
	}
}
