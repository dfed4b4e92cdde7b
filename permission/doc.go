// Package permission defines the authorization boundary consumed by
// request handlers after authentication has established a principal.
//
// Policies take the acting principal, the target resource id, and the
// operation as typed parameters and are called directly by handlers.
// There is no argument-name or decorator convention to rely on.
package permission
