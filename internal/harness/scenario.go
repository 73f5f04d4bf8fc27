package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/jlewallen/dimsum/internal/decode"
)

// Scenario defines a world-load scenario.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Workers is the number of parallel decoders. Zero means one.
	Workers int `yaml:"workers,omitempty"`

	// FailFast stops the load at the first failing row.
	FailFast bool `yaml:"fail_fast,omitempty"`

	// RunID fixes the report's run id for deterministic snapshots.
	// If empty, defaults to "test-run-default".
	RunID string `yaml:"run_id,omitempty"`

	// Rows are written to the store before loading.
	Rows []RowStep `yaml:"rows"`

	// Assertions validate the load report.
	Assertions []Assertion `yaml:"assertions"`
}

// RowStep is one persisted row. Exactly one of Document and Serialized is set.
type RowStep struct {
	Key     string `yaml:"key"`
	GID     uint64 `yaml:"gid,omitempty"`
	Version uint64 `yaml:"version,omitempty"`

	// Document is encoded to the serialized column as JSON.
	Document map[string]any `yaml:"document,omitempty"`

	// Serialized is stored verbatim, for rows that are not valid documents.
	Serialized string `yaml:"serialized,omitempty"`
}

// Assertion validates the load report.
type Assertion struct {
	// Type specifies the assertion type:
	// - "processed": Count rows were processed
	// - "failed": Count rows failed
	// - "failure": row Key failed with Kind (and Path when set)
	// - "decoded": row Key decoded (with Class and Components when set)
	// - "tag_count": Count decoded rows carry Tag
	// - "unrecognized": Count decoded rows carry the unregistered Tag
	Type string `yaml:"type"`

	Key        string   `yaml:"key,omitempty"`
	Kind       string   `yaml:"kind,omitempty"`
	Path       string   `yaml:"path,omitempty"`
	Class      string   `yaml:"class,omitempty"`
	Components []string `yaml:"components,omitempty"`
	Tag        string   `yaml:"tag,omitempty"`
	Count      int      `yaml:"count,omitempty"`
}

// Assertion type constants.
const (
	AssertProcessed    = "processed"
	AssertFailed       = "failed"
	AssertFailure      = "failure"
	AssertDecoded      = "decoded"
	AssertTagCount     = "tag_count"
	AssertUnrecognized = "unrecognized"
)

var errorKinds = []string{
	string(decode.ErrCodeComponentShapeMismatch),
	string(decode.ErrCodeDocumentParse),
	string(decode.ErrCodeMalformedEnvelope),
}

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	// Strict field validation catches typos like "assertion:" vs "assertions:"
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// LoadScenarios loads every *.yaml file in dir, in file name order.
func LoadScenarios(dir string) ([]*Scenario, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.yaml"))
	if err != nil {
		return nil, fmt.Errorf("failed to list scenarios: %w", err)
	}
	slices.Sort(paths)

	scenarios := make([]*Scenario, 0, len(paths))
	for _, path := range paths {
		s, err := LoadScenario(path)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
		}
		scenarios = append(scenarios, s)
	}
	return scenarios, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if s.Workers < 0 {
		return fmt.Errorf("workers must be non-negative")
	}

	if len(s.Rows) == 0 {
		return fmt.Errorf("rows list is required and must be non-empty")
	}

	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	seen := make(map[string]bool, len(s.Rows))
	for i, row := range s.Rows {
		if row.Key == "" {
			return fmt.Errorf("rows[%d]: key is required", i)
		}
		if seen[row.Key] {
			return fmt.Errorf("rows[%d]: duplicate key %q", i, row.Key)
		}
		seen[row.Key] = true

		hasDoc := row.Document != nil
		hasText := row.Serialized != ""
		if hasDoc == hasText {
			return fmt.Errorf("rows[%d]: exactly one of document or serialized is required", i)
		}
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}

	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}
	if a.Count < 0 {
		return fmt.Errorf("assertions[%d]: count must be non-negative", index)
	}

	switch a.Type {
	case AssertProcessed, AssertFailed:
	case AssertFailure:
		if a.Key == "" {
			return fmt.Errorf("assertions[%d]: key is required for failure", index)
		}
		if !slices.Contains(errorKinds, a.Kind) {
			return fmt.Errorf("assertions[%d]: kind must be one of %v", index, errorKinds)
		}
	case AssertDecoded:
		if a.Key == "" {
			return fmt.Errorf("assertions[%d]: key is required for decoded", index)
		}
	case AssertTagCount, AssertUnrecognized:
		if a.Tag == "" {
			return fmt.Errorf("assertions[%d]: tag is required for %s", index, a.Type)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}
