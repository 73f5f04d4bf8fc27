package decode

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jlewallen/dimsum/internal/document"
	"github.com/jlewallen/dimsum/internal/model"
	"github.com/jlewallen/dimsum/internal/schema"
)

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()
	r, err := NewRegistry()
	require.NoError(t, err)
	return r
}

func TestRegistryTagsMatchShapes(t *testing.T) {
	r := newTestRegistry(t)
	shapes, err := schema.New()
	require.NoError(t, err)

	assert.Equal(t, shapes.Tags(), r.Tags())
	assert.Len(t, r.Tags(), 23)
}

func TestRegistryRejectsTagWithoutShape(t *testing.T) {
	shapes, err := schema.New()
	require.NoError(t, err)

	_, err = newRegistry(shapes, map[string]decodeFunc{"ghost": as[model.Memory]})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ghost")
}

func TestRegistryDecodeEveryTag(t *testing.T) {
	r := newTestRegistry(t)
	ref := `{"py/object":"model.entity.EntityRef","key":"k1","klass":"Area","name":"Kitchen"}`
	acls := `{"py/object":"model.permissions.Acls","rules":[{"keys":["*"],"perm":"read"}]}`

	tests := []struct {
		tag   string
		doc   string
		check func(t *testing.T, c model.Component)
	}{
		{"carryable", `{"kind":{"identity":{"public":"p"}},"loose":false,"quantity":5,"acls":` + acls + `}`, func(t *testing.T, c model.Component) {
			v := c.(model.Carryable)
			assert.Equal(t, 5.0, v.Quantity)
			require.NotNil(t, v.Acls)
			assert.Equal(t, "read", v.Acls.Rules[0].Perm)
		}},
		{"containing", `{"capacity":3,"holding":[` + ref + `],"locked":true,"openable":{"py/object":"Locked","pattern":{}},"produces":{"water":{"kind":"x"}}}`, func(t *testing.T, c model.Component) {
			v := c.(model.Containing)
			require.NotNil(t, v.Capacity)
			assert.Equal(t, int64(3), *v.Capacity)
			assert.Equal(t, "k1", v.Holding[0].Key)
			assert.True(t, v.Locked)
			assert.Equal(t, document.Map{"pattern": document.Map{}}, v.Openable)
			assert.Equal(t, document.Map{"water": document.Map{"kind": document.String("x")}}, v.Produces)
		}},
		{"location", `{"container":null}`, func(t *testing.T, c model.Component) {
			assert.Nil(t, c.(model.Location).Container)
		}},
		{"occupyable", `{"occupancy":10,"occupied":[` + ref + `,` + ref + `]}`, func(t *testing.T, c model.Component) {
			v := c.(model.Occupyable)
			assert.Equal(t, int64(10), v.Occupancy)
			assert.Len(t, v.Occupied, 2)
		}},
		{"occupying", `{"area":` + ref + `}`, func(t *testing.T, c model.Component) {
			assert.Equal(t, "Kitchen", c.(model.Occupying).Area.Name)
		}},
		{"exit", `{"area":` + ref + `,"unavailable":{"reason":"locked"}}`, func(t *testing.T, c model.Component) {
			v := c.(model.Exit)
			assert.Equal(t, "k1", v.Area.Key)
			assert.Equal(t, "locked", v.Unavailable.Reason)
		}},
		{"ownership", `{"owner":` + ref + `}`, func(t *testing.T, c model.Component) {
			assert.Equal(t, "k1", c.(model.Ownership).Owner.Key)
		}},
		{"behaviors", `{"behaviors":{"py/object":"Behaviors","map":{"b:test:drop":{"python":"def x(): pass","executable":true,"logs":[{"context":{"a":1},"logs":["line"],"exceptions":null,"success":true,"time":1.5,"elapsed":0.25}]}}}}`, func(t *testing.T, c model.Component) {
			b := c.(model.Behaviors).Behaviors.Map["b:test:drop"]
			require.NotNil(t, b.Python)
			assert.True(t, b.Executable)
			require.Len(t, b.Logs, 1)
			assert.True(t, b.Logs[0].Success)
			assert.Equal(t, 1.5, b.Logs[0].Time)
			assert.True(t, b.Logs[0].Exceptions.IsZero())
			assert.Equal(t, 0.25, b.Logs[0].Elapsed)
		}},
		{"behaviorCollection", `{"entities":{"e1":[{"py/object":"BehaviorMeta"}]}}`, func(t *testing.T, c model.Component) {
			assert.Len(t, c.(model.BehaviorCollection).Entities["e1"], 1)
		}},
		{"encyclopedia", `{"body":"# Welcome"}`, func(t *testing.T, c model.Component) {
			assert.Equal(t, "# Welcome", c.(model.Encyclopedia).Body)
		}},
		{"health", `{"medical":{"nutrition":{"properties":{"sugar":2}}}}`, func(t *testing.T, c model.Component) {
			v := c.(model.Health)
			assert.Equal(t, document.Int(2), v.Medical.Nutrition.Properties["sugar"])
		}},
		{"auth", `{"password":{"py/tuple":["salt","hash"]}}`, func(t *testing.T, c model.Component) {
			assert.Equal(t, [2]string{"salt", "hash"}, *c.(model.Auth).Password)
		}},
		{"wellKnown", `{"entities":{"world":"w1"}}`, func(t *testing.T, c model.Component) {
			assert.Equal(t, "w1", c.(model.WellKnown).Entities["world"])
		}},
		{"usernames", `{"users":{"jlewallen":"p1"}}`, func(t *testing.T, c model.Component) {
			assert.Equal(t, "p1", c.(model.Usernames).Users["jlewallen"])
		}},
		{"identifiers", `{"gid":42}`, func(t *testing.T, c model.Component) {
			assert.Equal(t, int64(42), c.(model.Identifiers).GID)
		}},
		{"weather", `{"wind":{"magnitude":2.5}}`, func(t *testing.T, c model.Component) {
			assert.Equal(t, 2.5, c.(model.Weather).Wind.Magnitude)
		}},
		{"post", `{"queue":[{"entity_key":"e2","when":{"time":"2021-06-01T00:00:00"},"message":"hello"}]}`, func(t *testing.T, c model.Component) {
			q := c.(model.Post).Queue
			require.Len(t, q, 1)
			assert.Equal(t, "e2", q[0].EntityKey)
			assert.Equal(t, "hello", q[0].Message)
		}},
		{"apparel", `{}`, func(t *testing.T, c model.Component) {
			assert.Equal(t, model.Apparel{}, c)
		}},
		{"movement", `{"py/object":"Movement"}`, func(t *testing.T, c model.Component) {
			assert.Equal(t, model.Movement{}, c)
		}},
		{"memory", `{}`, func(t *testing.T, c model.Component) {
			assert.Equal(t, model.Memory{}, c)
		}},
		{"edible", `{"nutrition":{"properties":{}},"servings":2}`, func(t *testing.T, c model.Component) {
			assert.Equal(t, int64(2), c.(model.Edible).Servings)
		}},
		{"key", `{"patterns":{"front-door":{"public":"lock"}}}`, func(t *testing.T, c model.Component) {
			assert.Equal(t, "lock", c.(model.Key).Patterns["front-door"].Public)
		}},
		{"interactable", `{"interactions":{"open":true,"eat":false}}`, func(t *testing.T, c model.Component) {
			assert.True(t, c.(model.Interactable).Interactions["open"])
		}},
	}

	covered := map[string]bool{}
	for _, tt := range tests {
		covered[tt.tag] = true
		t.Run(tt.tag, func(t *testing.T) {
			c, err := r.Decode(tt.tag, parse(t, tt.doc))
			require.NoError(t, err)
			assert.Equal(t, tt.tag, c.Tag())
			tt.check(t, c)
		})
	}

	for _, tag := range r.Tags() {
		assert.True(t, covered[tag], "tag %s has no decode case", tag)
	}
}

func TestRegistryDecodeMissingRequiredField(t *testing.T) {
	r := newTestRegistry(t)
	ref := `{"key":"k1","klass":"Area","name":"Kitchen"}`

	tests := []struct {
		name  string
		tag   string
		doc   string
		field string
	}{
		{"exit without area", "exit", `{"unavailable":null}`, "area"},
		{"exit area null", "exit", `{"area":null}`, "area"},
		{"occupying without area", "occupying", `{}`, "area"},
		{"ownership without owner", "ownership", `{"py/object":"model.scopes.ownership.Ownership"}`, "owner"},
		{"ownership owner without key", "ownership", `{"owner":{"name":"x"}}`, "owner.key"},
		{"weather without wind", "weather", `{}`, "wind"},
		{"containing without produces", "containing", `{"holding":[` + ref + `],"locked":false}`, "produces"},
		{"behavior without logs", "behaviors", `{"behaviors":{"map":{"b":{"executable":true}}}}`, "behaviors.map.b.logs"},
		{"log without elapsed", "behaviors", `{"behaviors":{"map":{"b":{"executable":true,"logs":[{"context":{},"logs":[],"success":true,"time":1}]}}}}`, "behaviors.map.b.logs[0].elapsed"},
		{"health without nutrition", "health", `{"medical":{}}`, "medical.nutrition"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := r.Decode(tt.tag, parse(t, tt.doc))
			require.Error(t, err)

			var ce *ComponentShapeMismatchError
			require.ErrorAs(t, err, &ce)
			assert.Equal(t, tt.tag, ce.Tag)
			assert.Equal(t, tt.field, ce.Field)
			assert.Equal(t, "scopes."+tt.tag+"."+tt.field, Path(err))
		})
	}
}

func TestRegistryDecodeWrappedPasswordMismatch(t *testing.T) {
	r := newTestRegistry(t)

	_, err := r.Decode("auth", parse(t, `{"password":{"py/tuple":["only"]}}`))
	require.Error(t, err)

	var ce *ComponentShapeMismatchError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "password", ce.Field)
	assert.NotContains(t, ce.Message, "empty disjunction")
}

func TestRegistryDecodeUnknownNeverErrors(t *testing.T) {
	r := newTestRegistry(t)

	for _, doc := range []document.Value{nil, document.Null{}, document.Int(1), document.Map{"x": document.List{}}} {
		c, err := r.Decode("fromTheFuture", doc)
		require.NoError(t, err)
		assert.Equal(t, model.Unrecognized{Name: "fromTheFuture"}, c)
	}
}

func TestRegistryDecodeNullKnownTag(t *testing.T) {
	r := newTestRegistry(t)

	_, err := r.Decode("memory", document.Null{})
	require.Error(t, err)

	var ce *ComponentShapeMismatchError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "memory", ce.Tag)
	assert.Empty(t, ce.Field)
	assert.Equal(t, "scopes.memory", Path(err))
}

func TestRegistryDecodeComponentsEmpty(t *testing.T) {
	r := newTestRegistry(t)

	out, err := r.DecodeComponents(map[string]document.Value{})
	require.NoError(t, err)
	assert.NotNil(t, out)
	assert.Empty(t, out)
}

func TestShapeErrorFromJSONOverflow(t *testing.T) {
	r := newTestRegistry(t)

	// too large for int64, so it parses as a float
	_, err := r.Decode("identifiers", parse(t, `{"gid":92233720368547758080}`))
	require.Error(t, err)
	assert.Equal(t, ErrCodeComponentShapeMismatch, Kind(err))
}
