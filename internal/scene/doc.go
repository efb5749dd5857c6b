// Package scene provides the shared data model for the livelink relay.
//
// This package contains value types only. All other internal packages
// import scene; scene imports nothing internal.
//
// Key design constraints:
//   - TransformState is an immutable value; a new state replaces the old one
//   - Every TransformState is expressed in the reporting side's native units
//   - Handles are NFC normalized at ingress so both sides key identically
//   - Side is a closed two-variant enum, never a free-form string
package scene
