package harness

import (
	"fmt"
	"slices"
	"strings"

	"github.com/samber/lo"

	"github.com/jlewallen/dimsum/internal/decode"
	"github.com/jlewallen/dimsum/internal/loader"
)

// AssertionError is returned when an assertion fails.
// It includes the report's failures to help debug the mismatch.
type AssertionError struct {
	Type     string           // Assertion type for categorization
	Expected string           // Human-readable expected outcome
	Actual   string           // Human-readable actual outcome
	Failures []loader.Failure // Every failure in the report
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Failures) > 0 {
		fmt.Fprintf(&buf, "\nFailures:\n")
		for i, f := range e.Failures {
			fmt.Fprintf(&buf, "  [%d] %s %s\n", i+1, f.Key, f.Message())
		}
	}

	return buf.String()
}

func mismatch(report *loader.Report, typ, expected, actual string) error {
	return &AssertionError{
		Type:     typ,
		Expected: expected,
		Actual:   actual,
		Failures: report.Failures,
	}
}

func assertCount(report *loader.Report, a Assertion, actual int) error {
	if actual == a.Count {
		return nil
	}
	return mismatch(report, a.Type, fmt.Sprintf("%d", a.Count), fmt.Sprintf("%d", actual))
}

// assertFailure checks that the row failed with the expected kind and path.
func assertFailure(report *loader.Report, a Assertion) error {
	f, ok := lo.Find(report.Failures, func(f loader.Failure) bool {
		return f.Key == a.Key
	})
	if !ok {
		return mismatch(report, a.Type,
			fmt.Sprintf("row %s to fail with %s", a.Key, a.Kind),
			"row did not fail")
	}

	if string(f.Kind) != a.Kind {
		return mismatch(report, a.Type,
			fmt.Sprintf("row %s to fail with %s", a.Key, a.Kind),
			fmt.Sprintf("failed with %s", f.Kind))
	}

	if a.Path != "" && f.Path != a.Path {
		return mismatch(report, a.Type,
			fmt.Sprintf("row %s to fail at %s", a.Key, a.Path),
			fmt.Sprintf("failed at %q", f.Path))
	}

	return nil
}

// assertDecoded checks that the row decoded, and its class and component
// tags when the assertion names them.
func assertDecoded(report *loader.Report, a Assertion) error {
	d, ok := lo.Find(report.Entities, func(d *decode.Decoded) bool {
		return d.Entity.Key == a.Key
	})
	if !ok {
		return mismatch(report, a.Type,
			fmt.Sprintf("row %s to decode", a.Key),
			"row not among decoded entities")
	}

	if a.Class != "" && d.Entity.Class != a.Class {
		return mismatch(report, a.Type,
			fmt.Sprintf("row %s to have class %q", a.Key, a.Class),
			fmt.Sprintf("class %q", d.Entity.Class))
	}

	if a.Components != nil {
		want := slices.Sorted(slices.Values(a.Components))
		got := componentTags(d)
		if !slices.Equal(want, got) {
			return mismatch(report, a.Type,
				fmt.Sprintf("row %s to have components %v", a.Key, want),
				fmt.Sprintf("components %v", got))
		}
	}

	return nil
}

// componentTags returns the decoded entity's component tags in sorted order.
func componentTags(d *decode.Decoded) []string {
	tags := lo.Keys(d.Components)
	slices.Sort(tags)
	return tags
}

// EvaluateAssertions runs every assertion against report and returns the
// failure messages. An empty slice means all assertions held.
func EvaluateAssertions(report *loader.Report, assertions []Assertion) []string {
	var errors []string

	for i, assertion := range assertions {
		var err error

		switch assertion.Type {
		case AssertProcessed:
			err = assertCount(report, assertion, report.Processed)
		case AssertFailed:
			err = assertCount(report, assertion, report.Failed)
		case AssertFailure:
			err = assertFailure(report, assertion)
		case AssertDecoded:
			err = assertDecoded(report, assertion)
		case AssertTagCount:
			err = assertCount(report, assertion, report.Tags[assertion.Tag])
		case AssertUnrecognized:
			err = assertCount(report, assertion, report.Unrecognized[assertion.Tag])
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, assertion.Type)
		}

		if err != nil {
			errors = append(errors, err.Error())
		}
	}

	return errors
}
