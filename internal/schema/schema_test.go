package schema

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jlewallen/dimsum/internal/document"
)

func newTestSet(t *testing.T) *Set {
	t.Helper()
	s, err := New()
	require.NoError(t, err)
	return s
}

func mustParse(t *testing.T, text string) document.Value {
	t.Helper()
	v, err := document.ParseString(text)
	require.NoError(t, err)
	return v
}

func TestNewDeclaresKnownTags(t *testing.T) {
	s := newTestSet(t)

	tags := s.Tags()
	assert.Contains(t, tags, "carryable")
	assert.Contains(t, tags, "occupyable")
	assert.Contains(t, tags, "memory")
	assert.IsIncreasing(t, tags)
	assert.True(t, s.Has("key"))
	assert.False(t, s.Has("mysteryTag"))
}

func TestValidateAccepts(t *testing.T) {
	s := newTestSet(t)

	tests := []struct {
		tag string
		doc string
	}{
		{"carryable", `{"kind":{"identity":{"public":"p","private":"q"}},"loose":true,"quantity":1.0}`},
		{"carryable", `{"kind":{"identity":{"public":"p"}},"loose":false,"quantity":3,"acls":null}`},
		{"containing", `{"holding":[],"locked":false,"capacity":null,"produces":{}}`},
		{"occupyable", `{"occupancy":2,"occupied":[{"key":"k1","klass":"Person","name":"Jacob"}]}`},
		{"exit", `{"area":{"key":"a2"},"unavailable":null}`},
		{"auth", `{"password":["salt","hash"]}`},
		{"apparel", `{}`},
		{"weather", `{"wind":{"magnitude":4}}`},
		{"post", `{"queue":[{"entity_key":"e1","when":{"time":"2021-01-01T00:00:00"},"message":"hi"}]}`},
		{"location", `{"extra":"ignored"}`},
	}

	for _, tt := range tests {
		t.Run(tt.tag, func(t *testing.T) {
			assert.NoError(t, s.Validate(tt.tag, mustParse(t, tt.doc)))
		})
	}
}

func TestValidateRejects(t *testing.T) {
	s := newTestSet(t)

	tests := []struct {
		name  string
		tag   string
		doc   string
		field string
	}{
		{"missing occupancy", "occupyable", `{"occupied":[]}`, "occupancy"},
		{"wrong type", "carryable", `{"kind":{"identity":{"public":"p"}},"loose":"yes","quantity":1}`, "loose"},
		{"float for int", "identifiers", `{"gid":1.5}`, "gid"},
		{"null for required", "encyclopedia", `{"body":null}`, "body"},
		{"missing nested", "occupyable", `{"occupancy":1,"occupied":[{"name":"x"}]}`, "occupied[0].key"},
		{"short pair", "auth", `{"password":["only"]}`, "password"},
		{"not a struct", "apparel", `"shirt"`, ""},
		{"missing area", "exit", `{"unavailable":null}`, "area"},
		{"null owner", "ownership", `{"owner":null}`, "owner"},
		{"missing wind", "weather", `{}`, "wind"},
		{"missing produces", "containing", `{"holding":[],"locked":false}`, "produces"},
		{"missing nutrition", "health", `{"medical":{}}`, "medical.nutrition"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := s.Validate(tt.tag, mustParse(t, tt.doc))
			require.Error(t, err)

			var fe *FieldError
			require.ErrorAs(t, err, &fe)
			assert.Equal(t, tt.field, fe.Field)
			assert.NotEmpty(t, fe.Message)
		})
	}
}

func TestValidateDisjunctionReportsAlternative(t *testing.T) {
	s := newTestSet(t)

	err := s.Validate("auth", mustParse(t, `{"password":{"salt":"x"}}`))
	require.Error(t, err)

	var fe *FieldError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, "password", fe.Field)
	assert.NotContains(t, fe.Message, "empty disjunction")
	assert.False(t, strings.HasSuffix(fe.Message, ":"))
	assert.Contains(t, fe.Message, "conflicting values")
}

func TestValidateUnknownTag(t *testing.T) {
	s := newTestSet(t)
	err := s.Validate("mysteryTag", document.Map{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mysteryTag")
}

func TestValidateDeterministic(t *testing.T) {
	s := newTestSet(t)
	doc := mustParse(t, `{"occupied":[{"name":"x"}]}`)

	first := s.Validate("occupyable", doc)
	second := s.Validate("occupyable", doc)
	require.Error(t, first)
	assert.Equal(t, first.Error(), second.Error())
}

func TestCompileRequiresScopes(t *testing.T) {
	_, err := Compile(`other: {}`)
	require.Error(t, err)

	var ce *CompileError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "scopes", ce.Field)
}

func TestCompileInvalidSyntax(t *testing.T) {
	_, err := Compile(`scopes: { this is not valid CUE }`)
	require.Error(t, err)
}

func TestFieldErrorFormat(t *testing.T) {
	assert.Equal(t, "occupancy: field is required but not present",
		(&FieldError{Field: "occupancy", Message: "field is required but not present"}).Error())
	assert.Equal(t, "conflicting values", (&FieldError{Message: "conflicting values"}).Error())
}
