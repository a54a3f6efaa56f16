// Package harness provides scenario-based conformance testing for the
// governance engine.
//
// Scenarios are defined in YAML files carrying an inline packet
// definition and an ordered list of lifecycle operations:
//
//	name: lifecycle
//	description: "Claim and complete two dependent packets"
//	definition:
//	  packets:
//	    - id: a
//	    - id: b
//	  dependencies:
//	    b: [a]
//	steps:
//	  - op: init
//	    actor: alice
//	  - op: claim
//	    packet: a
//	    actor: alice
//	  - op: done
//	    packet: a
//	    actor: alice
//
// Each scenario runs against a fresh state document with a
// deterministic clock. The resulting trace (per-step outcomes, final
// packet statuses and the audit event sequence) is projected into
// canonical JSON and compared byte-for-byte against a golden file.
// Timestamps, event ids and hashes are deliberately excluded from the
// projection so traces are stable across runs and machines.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
package harness
