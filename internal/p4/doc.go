// Package p4 defines the connection contract to the versioned backend
// and the scoped-connection discipline every caller must follow.
//
// Connections are short-lived: acquired for one query (or one head's
// criteria check), used, and released. WithConnection enforces this -
// there is no way to obtain a connection that outlives its closure.
// A stuck or revoked credential therefore fails one call fast instead
// of poisoning a long session, and the backend never sees more than one
// session per reconciliation pass at a time.
//
// Credential storage and pooling live outside this module; a Provider
// is handed in by the host. The in-memory Fake implements both
// Provider and Connection for tests.
package p4
