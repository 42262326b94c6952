// Package jwt issues and verifies the HS256 access and refresh tokens that carry
// an identity's {id, email, role} claims.
//
// Verification failures are classified: an otherwise valid token whose expiry has
// passed wraps [ErrTokenExpired], every other failure wraps [ErrTokenInvalid].
// Callers branch on the class with errors.Is.
package jwt
