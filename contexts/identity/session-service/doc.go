// Package sessionservice implements the session lifecycle and credential
// verification for scrawl.
//
// Layering:
// - application: session manager and credential verifier using explicit ports
// - ports: stable boundaries for persistence, clocks, key and hash providers
// - adapters: concrete memory, postgres, token, credential and HTTP pieces
// - transport: module-private DTOs for HTTP contracts
//
// Boundary notes:
// - Session expiry is recovered inside Acquire and never escapes as an error.
// - Acquire and Login on the same key are serialized in-process; the
//   repository additionally enforces key uniqueness on insert.
package sessionservice
