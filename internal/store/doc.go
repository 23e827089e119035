// Package store provides SQLite-backed persistence for observed heads.
//
// The reconciliation engine itself is stateless; this store is the
// host-side aggregation of its observer sink. Each scan records:
//   - Passes: one row per reconciliation pass (UUIDv7 token, source,
//     started/finished markers)
//   - Observations: one row per emitted (head, revision) pair, in
//     emission order (seq within the pass)
//
// Diffing two passes of the same source classifies heads as added,
// updated (change number moved) or removed - this is the "what
// changed" answer the whole subsystem exists to produce.
//
// Database configuration:
//   - WAL mode: concurrent reads during writes
//   - synchronous=NORMAL: balance durability/performance
//   - busy_timeout=5000: wait for locks up to 5 seconds
//   - foreign_keys=ON: observations cannot outlive their pass
package store
