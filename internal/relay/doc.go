// Package relay implements the livelink Sync Service.
//
// The relay sits between an authoring tool (side A) and a real-time engine
// (side B) that cannot call each other. Side A pushes its local edits and
// pulls remote ones on its own timer. Side B is never pushed to; the relay
// polls it and diffs the result against a snapshot.
//
// ARCHITECTURE:
//
// Request-Driven, No Background Loop:
// The relay owns no goroutine. Every state transition happens inside a
// Push or Pull call. The engine poll runs synchronously inside Pull and is
// rate gated so it executes at most once per poll interval regardless of
// how often Pull is called.
//
// Single Critical Section:
// Push and Pull each hold the service mutex for their entire duration.
// No caller observes a partially updated queue or snapshot.
//
// Flow:
//  1. Push(A): convert A→B, apply each record to the engine; a failed
//     apply degrades to an enqueue toward B
//  2. Push(B): append records as-is toward A
//  3. Pull(A): poll-and-diff when due, then drain toward A
//  4. Pull(B): drain toward B
//
// ERROR HANDLING:
//
// Only malformed requests fail (ValidationError). Engine failures are
// transient: a failed apply becomes a queued record and a failed poll
// contributes zero changes. Nothing in the relay is fatal.
//
// Feedback-loop prevention is side A's responsibility: applying a pulled
// record must not be re-detected as a local edit. See package authoring.
package relay
