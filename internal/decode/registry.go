package decode

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"

	"github.com/samber/lo"

	"github.com/jlewallen/dimsum/internal/alias"
	"github.com/jlewallen/dimsum/internal/document"
	"github.com/jlewallen/dimsum/internal/model"
	"github.com/jlewallen/dimsum/internal/schema"
)

// decodeFunc turns a validated, marker-free component document into its
// typed value.
type decodeFunc func(doc document.Value) (model.Component, error)

// decoders is the static tag table. Every entry must have a shape declared
// in the schema package.
var decoders = map[string]decodeFunc{
	model.TagCarryable:          as[model.Carryable],
	model.TagContaining:         as[model.Containing],
	model.TagLocation:           as[model.Location],
	model.TagOccupyable:         as[model.Occupyable],
	model.TagOccupying:          as[model.Occupying],
	model.TagExit:               as[model.Exit],
	model.TagOwnership:          as[model.Ownership],
	model.TagBehaviors:          as[model.Behaviors],
	model.TagBehaviorCollection: as[model.BehaviorCollection],
	model.TagEncyclopedia:       as[model.Encyclopedia],
	model.TagHealth:             as[model.Health],
	model.TagAuth:               as[model.Auth],
	model.TagWellKnown:          as[model.WellKnown],
	model.TagUsernames:          as[model.Usernames],
	model.TagIdentifiers:        as[model.Identifiers],
	model.TagWeather:            as[model.Weather],
	model.TagPost:               as[model.Post],
	model.TagApparel:            as[model.Apparel],
	model.TagMovement:           as[model.Movement],
	model.TagMemory:             as[model.Memory],
	model.TagEdible:             as[model.Edible],
	model.TagKey:                as[model.Key],
	model.TagInteractable:       as[model.Interactable],
}

// as decodes doc into T through its JSON form.
func as[T model.Component](doc document.Value) (model.Component, error) {
	data, err := document.Marshal(doc)
	if err != nil {
		return nil, err
	}
	var c T
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, err
	}
	return c, nil
}

// Registry maps component tags to their decoders and shapes.
// A Registry is not safe for concurrent use; give each goroutine its own.
type Registry struct {
	shapes   *schema.Set
	decoders map[string]decodeFunc
}

// NewRegistry builds a registry over the embedded component shapes.
func NewRegistry() (*Registry, error) {
	shapes, err := schema.New()
	if err != nil {
		return nil, fmt.Errorf("compile shapes: %w", err)
	}
	return newRegistry(shapes, decoders)
}

func newRegistry(shapes *schema.Set, table map[string]decodeFunc) (*Registry, error) {
	for tag := range table {
		if !shapes.Has(tag) {
			return nil, fmt.Errorf("tag %q has a decoder but no shape", tag)
		}
	}
	return &Registry{shapes: shapes, decoders: table}, nil
}

// Tags returns the known tags, sorted.
func (r *Registry) Tags() []string {
	tags := lo.Keys(r.decoders)
	slices.Sort(tags)
	return tags
}

// Decode decodes one component document. An unknown tag yields
// model.Unrecognized and no error. A known tag whose document does not
// match its shape yields a *ComponentShapeMismatchError.
func (r *Registry) Decode(tag string, doc document.Value) (model.Component, error) {
	fn, ok := r.decoders[tag]
	if !ok {
		return model.Unrecognized{Name: tag}, nil
	}

	clean := alias.StripMarkers(doc)

	if err := r.shapes.Validate(tag, clean); err != nil {
		var fe *schema.FieldError
		if errors.As(err, &fe) {
			return nil, &ComponentShapeMismatchError{Tag: tag, Field: fe.Field, Message: fe.Message}
		}
		return nil, fmt.Errorf("validate %s: %w", tag, err)
	}

	c, err := fn(clean)
	if err != nil {
		return nil, shapeErrorFromJSON(tag, err)
	}
	return c, nil
}

// shapeErrorFromJSON converts the rare mismatch the shape check lets through
// (for example an integer too large for its field) into a shape error.
func shapeErrorFromJSON(tag string, err error) error {
	var te *json.UnmarshalTypeError
	if errors.As(err, &te) {
		return &ComponentShapeMismatchError{
			Tag:     tag,
			Field:   te.Field,
			Message: fmt.Sprintf("cannot use %s as %s", te.Value, te.Type),
		}
	}
	return &ComponentShapeMismatchError{Tag: tag, Message: err.Error()}
}
