// Package token implements the stateless credential codec: it turns a
// principal identifier into a signed, time-bounded JWT and back.
//
// # Design
//
// Tokens are HS256 JWTs over a shared service secret with the claim set
// {sub, exp, type, jti}. The type claim is decoded into a closed [Kind]
// enum so unknown token types are rejected at the type level. Expiry is
// whole Unix seconds; a token is expired starting the exact second of exp.
//
// # Architecture boundaries
//
// Decoding is a pure function of the token string and the secret. This
// package never consults the session store: revocation is the store's
// concern, and a token that decodes here may still be rejected upstream
// because it has been revoked.
package token
