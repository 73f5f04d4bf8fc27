package decode

import (
	"errors"

	"github.com/jlewallen/dimsum/internal/document"
	"github.com/jlewallen/dimsum/internal/model"
)

// Decoded is a fully decoded entity: its envelope plus typed components
// keyed by tag.
type Decoded struct {
	Entity     *model.Entity              `json:"entity"`
	Components map[string]model.Component `json:"components"`
}

// Decoder runs the full pipeline: parse, envelope, components.
// A Decoder is not safe for concurrent use; parallel callers each own one.
type Decoder struct {
	registry *Registry
}

// NewDecoder creates a Decoder with its own registry.
func NewDecoder() (*Decoder, error) {
	registry, err := NewRegistry()
	if err != nil {
		return nil, err
	}
	return &Decoder{registry: registry}, nil
}

// Registry returns the decoder's component registry.
func (d *Decoder) Registry() *Registry {
	return d.registry
}

// Decode decodes an already parsed entity document.
func (d *Decoder) Decode(doc document.Value) (*Decoded, error) {
	entity, err := DecodeEntity(doc)
	if err != nil {
		return nil, err
	}
	return d.components(entity)
}

// DecodeText parses and decodes one serialized entity.
func (d *Decoder) DecodeText(text string) (*Decoded, error) {
	entity, err := DecodeEntityText(text)
	if err != nil {
		return nil, err
	}
	return d.components(entity)
}

// DecodeRow decodes the serialized document of a stored row. The row key is
// recorded on any failure that could not recover a key from the document.
func (d *Decoder) DecodeRow(key, serialized string) (*Decoded, error) {
	decoded, err := d.DecodeText(serialized)
	if err != nil {
		return nil, withKey(err, key)
	}
	return decoded, nil
}

func (d *Decoder) components(entity *model.Entity) (*Decoded, error) {
	components, err := d.registry.DecodeComponents(entity.Scopes)
	if err != nil {
		return nil, withKey(err, entity.Key)
	}
	return &Decoded{Entity: entity, Components: components}, nil
}

// withKey fills in the entity key on a decode error that lacks one.
func withKey(err error, key string) error {
	var pe *DocumentParseError
	if errors.As(err, &pe) && pe.Key == "" {
		pe.Key = key
	}
	var me *MalformedEnvelopeError
	if errors.As(err, &me) && me.Key == "" {
		me.Key = key
	}
	var ce *ComponentShapeMismatchError
	if errors.As(err, &ce) && ce.Key == "" {
		ce.Key = key
	}
	return err
}
