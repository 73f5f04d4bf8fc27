package schema

import (
	_ "embed"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/jlewallen/dimsum/internal/document"
)

//go:embed scopes.cue
var scopesSource string

const scopesField = "scopes"

// Set is a compiled collection of component shapes keyed by tag.
type Set struct {
	ctx    *cue.Context
	scopes cue.Value
	tags   []string
}

// New compiles the embedded component shapes.
func New() (*Set, error) {
	return Compile(scopesSource)
}

// Compile compiles component shapes from CUE source. The source must declare
// a top-level "scopes" struct with one field per tag.
func Compile(source string) (*Set, error) {
	ctx := cuecontext.New()
	root := ctx.CompileString(source, cue.Filename("scopes.cue"))
	if err := root.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	scopes := root.LookupPath(cue.ParsePath(scopesField))
	if !scopes.Exists() {
		return nil, &CompileError{
			Field:   scopesField,
			Message: "scopes struct is required",
			Pos:     root.Pos(),
		}
	}

	iter, err := scopes.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}
	var tags []string
	for iter.Next() {
		tags = append(tags, iter.Selector().Unquoted())
	}
	slices.Sort(tags)

	return &Set{ctx: ctx, scopes: scopes, tags: tags}, nil
}

// Tags returns the tags with a declared shape, sorted.
func (s *Set) Tags() []string {
	return slices.Clone(s.tags)
}

// Has reports whether tag has a declared shape.
func (s *Set) Has(tag string) bool {
	_, found := slices.BinarySearch(s.tags, tag)
	return found
}

// Validate checks doc against the shape declared for tag. The document must
// already be free of producer markers. A shape violation is returned as a
// *FieldError naming the first offending field.
func (s *Set) Validate(tag string, doc document.Value) error {
	if !s.Has(tag) {
		return fmt.Errorf("no shape declared for tag %q", tag)
	}

	shape := s.scopes.LookupPath(cue.MakePath(cue.Str(tag)))
	data := s.ctx.Encode(document.Native(doc))
	if err := data.Err(); err != nil {
		return fmt.Errorf("encode %s: %w", tag, err)
	}

	unified := shape.Unify(data)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return toFieldError(err, shape.Path().Selectors())
	}
	return nil
}

// FieldError reports a document that does not match its declared shape.
// Field is a dotted path relative to the document root, empty when the
// document itself has the wrong shape.
type FieldError struct {
	Field   string
	Message string
}

func (e *FieldError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// toFieldError picks the first violation by path so that repeated validation
// of the same document always reports the same field. A failed disjunction
// reports a summary line followed by one error per alternative; the summary
// is skipped in favor of the alternatives.
func toFieldError(err error, prefix []cue.Selector) *FieldError {
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return &FieldError{Message: err.Error()}
	}

	candidates := make([]*FieldError, 0, len(errs))
	var summaries []*FieldError
	for _, e := range errs {
		format, args := e.Msg()
		fe := &FieldError{
			Field:   fieldPath(e.Path(), prefix),
			Message: strings.TrimSuffix(fmt.Sprintf(format, args...), ":"),
		}
		if strings.Contains(format, "empty disjunction") {
			summaries = append(summaries, fe)
			continue
		}
		candidates = append(candidates, fe)
	}
	if len(candidates) == 0 {
		candidates = summaries
	}
	slices.SortStableFunc(candidates, func(a, b *FieldError) int {
		if c := strings.Compare(a.Field, b.Field); c != 0 {
			return c
		}
		return strings.Compare(a.Message, b.Message)
	})
	return candidates[0]
}

// fieldPath renders a CUE error path relative to the shape it was checked
// against, e.g. "holding[0].key". Definition selectors are dropped.
func fieldPath(path []string, prefix []cue.Selector) string {
	trimmed := path
	for _, sel := range prefix {
		if len(trimmed) == 0 || trimmed[0] != sel.String() {
			break
		}
		trimmed = trimmed[1:]
	}

	var b strings.Builder
	for _, elem := range trimmed {
		if strings.HasPrefix(elem, "#") {
			continue
		}
		if _, err := strconv.Atoi(elem); err == nil {
			b.WriteString("[" + elem + "]")
			continue
		}
		if b.Len() > 0 {
			b.WriteByte('.')
		}
		b.WriteString(unquote(elem))
	}
	return b.String()
}

func unquote(label string) string {
	if s, err := strconv.Unquote(label); err == nil {
		return s
	}
	return label
}

// CompileError represents a schema compilation error with source position.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	firstErr := errs[0]
	positions := errors.Positions(firstErr)
	if len(positions) > 0 {
		return &CompileError{
			Field:   "cue",
			Message: firstErr.Error(),
			Pos:     positions[0],
		}
	}

	return err
}

// Source returns the embedded CUE source of the component shapes.
func Source() string {
	return scopesSource
}
