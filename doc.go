// Package authgate issues, validates, and revokes signed bearer
// credentials for a multi-user service, enforcing single sign-on: at
// most one login session per principal is valid at a time, and a new
// login tears down every session opened elsewhere.
//
// Validity is always the conjunction of two independent sources of
// truth. A token must carry a verifiable, unexpired signature (package
// token) AND still be present in the centralized revocable session index
// (package store). The root [Gate] orchestrates the two on login,
// logout, refresh, and per-request authentication.
//
// Construction goes through [New]:
//
//	gate, err := authgate.New().
//		WithConfig(cfg).
//		WithRedis(rdb).
//		WithDirectory(dir).
//		Build()
//
// The Redis client and the principal directory are injected; their
// lifecycle belongs to the composition root.
package authgate
