// Package harness runs world-load scenarios against the entity loader.
//
// A scenario seeds a fresh in-memory store with persisted rows, loads them
// through the same decoders the CLI uses, and checks the resulting report.
//
// # Scenario Format
//
// Scenarios are defined in YAML files with the following structure:
//
//	name: scenario_name
//	description: "What this scenario validates"
//	workers: 2          # optional, defaults to 1
//	fail_fast: false    # optional
//	run_id: fixed-id    # optional, defaults to "test-run-default"
//	rows:
//	  - key: e1
//	    gid: 1
//	    document:       # written with the wire encoding
//	      key: e1
//	      version: { i: 1 }
//	      ...
//	  - key: e2
//	    serialized: '{"key":"e2",'   # written verbatim
//	assertions:
//	  - type: processed
//	    count: 2
//	  - type: failure
//	    key: e2
//	    kind: DOCUMENT_PARSE
//	  - type: decoded
//	    key: e1
//	    class: thing
//	    components: [carryable]
//
// # Assertion Types
//
//   - processed: the report counted exactly Count rows
//   - failed: the report counted exactly Count failures
//   - failure: the row Key failed with Kind, and at Path when given
//   - decoded: the row Key decoded, with Class and exactly Components when given
//   - tag_count: exactly Count decoded rows carry Tag
//   - unrecognized: exactly Count decoded rows carry the unregistered Tag
//
// # Golden Snapshots
//
// RunWithGolden compares a canonical JSON snapshot of the report against
// testdata/golden/{name}.golden. Regenerate with:
//
//	go test ./internal/harness -update
package harness
