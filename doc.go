// Package account implements a cookie based user account service: signup,
// login, logout, email verification, and password reset.
//
// Tokens:
//   - Every flow is gated by a signed bearer token carried in the "visit"
//     cookie or in a one time link. Tokens are purpose scoped: an auth token
//     cannot verify an email, a reset token cannot log anyone in. The
//     verifier checks signature, expiry, and issuer; each flow matches the
//     purpose itself.
//   - Tokens are stateless. Logout only drops the cookie, and a password
//     reset does not revoke tokens already in the wild; both die at expiry.
//
// Identity:
//   - Resolved identity travels in the request context via WithContext and
//     FromContext, so concurrent requests never observe each other's user.
//
// Storage:
//   - Users live in a Bun managed table behind the narrow Users interface.
//     Flow handlers run their writes through RepositoryManager.RunInTx.
package account
