package flows

// Deps aggregates per-flow dependency bundles, wired once by the root
// gate at build time.
type Deps struct {
	Login        LoginDeps
	Refresh      RefreshDeps
	Authenticate AuthenticateDeps
	Logout       LogoutDeps
}
