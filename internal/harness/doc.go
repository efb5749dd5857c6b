// Package harness runs relay conformance scenarios.
//
// A scenario drives a relay over its HTTP surface, in process, against an
// in-memory engine and a manually advanced clock. Every step is recorded in
// a trace that can be compared with a golden file.
//
// # Scenario Format
//
// Scenarios are defined in YAML files with the following structure:
//
//	name: scenario_name
//	description: "What this scenario validates"
//	batch_id: "batch-fixed"       # optional, default "test-batch-default"
//	pull_fps: 8                   # optional, default 8
//	max_pending: 4096             # optional, 0 = unbounded
//	steps:
//	  - action: engine_place
//	    name: Cube
//	    location: [200, 100, 50]
//	  - action: push
//	    source: A
//	    changes:
//	      - name: Cube
//	        location: [1, 2, 0.5]
//	    expect:
//	      applied: 1
//	  - action: advance
//	    duration: 200ms
//	  - action: pull
//	    target: A
//	    expect:
//	      count: 0
//	assertions:
//	  - type: engine_location
//	    name: Cube
//	    location: [200, 100, 50]
//	  - type: pending
//	    target: B
//	    count: 0
//
// # Step Actions
//
//   - engine_place: create or move an object on the engine (engine units)
//   - engine_remove: delete an object from the engine
//   - engine_offline: make every engine call fail (offline: true) or recover
//   - advance: move the clock forward by duration
//   - push: POST /sync/push with source and changes, or a raw body
//   - pull: GET /sync/pull?target=...
//   - health: GET /sync/health
//
// # Assertion Types
//
//   - engine_location: an engine object's final location
//   - engine_absent: an object does not exist on the engine
//   - pending: a relay queue's final depth
//   - engine_calls: how many list and set calls reached the engine
//
// # Deterministic Testing
//
// Every scenario runs against a fresh relay with a fixed batch id and a
// clock starting at testutil.Epoch, so identical scenarios produce
// byte-identical traces.
package harness
