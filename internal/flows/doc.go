// Package flows holds the request-scoped flow runners behind the root
// gate: login, refresh, authenticate, and logout.
//
// Each runner takes a Deps struct of narrow interfaces and funcs wired
// once by the root package, and returns a result struct carrying a
// classified FailureKind. The root maps failure kinds onto its public
// sentinel errors, emits audit events, and bumps metrics; runners stay
// free of those concerns so they can be tested against fakes.
package flows
