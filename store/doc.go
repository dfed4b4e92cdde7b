// Package store implements the authoritative, mutable session index on
// Redis: which tokens are currently honored, and which access tokens
// belong to which principal.
//
// # Key layout
//
//	access:{token}       -> principal id   (access-token lifetime)
//	refresh:{token}      -> principal id   (refresh-token lifetime)
//	tokens:{principalId} -> access tokens  (refresh-token lifetime)
//
// Access and refresh tokens live in separate namespaces because they have
// different TTLs and different revocation granularity: access tokens are
// revoked in bulk through the per-principal index, refresh tokens are
// only ever deleted by key.
//
// # What this package must NOT do
//
//   - Decode or verify tokens; they are opaque strings here.
//   - Decide authentication outcomes; it only answers membership queries.
package store
