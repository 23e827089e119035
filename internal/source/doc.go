// Package source implements head discovery and change reconciliation
// against a versioned backend.
//
// ARCHITECTURE:
//
// Single ordered pass:
// A reconciliation pass is one bounded loop, processed strictly in
// order with no internal parallelism. This ensures:
// - Observations are emitted in enumeration order (branches then tags)
// - Cancellation checks happen at deterministic points (between heads)
// - The backend never sees more than one session per pass at a time
//
// Pass flow:
//  1. Enumerate branch heads, then tag heads (enumerator variant)
//  2. Per head: resolve the latest change on a scoped connection
//  3. Per head: substitute the trigger event's revision on name match
//  4. Per head: filter through the caller's criterion, if any
//  5. Emit (head, revision) to the observer sink
//
// No state is retained between passes; every pass starts clean and the
// host owns the persisted set of known heads.
//
// ERROR HANDLING: any failure during enumeration, revision resolution
// or criteria evaluation aborts the whole pass. Partial branch sets are
// worse than no result - a silently incomplete scan would make the host
// delete heads that still exist. Cancellation is not a failure: the
// observations emitted before the signal are valid and final.
package source
