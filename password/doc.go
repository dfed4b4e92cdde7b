// Package password provides bcrypt hashing and verification for login
// credentials.
//
// bcrypt only considers the first 72 bytes of input; longer passwords are
// truncated before hashing and before comparison so the two paths always
// agree.
package password
