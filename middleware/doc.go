// Package middleware runs [trybeauth.Engine.Authenticate] in front of HTTP
// handlers.
//
// [Gate] wraps a net/http handler and [GinGate] is the Gin equivalent. Both
// write the JSON error envelope on rejection, copy a rotated access token into
// the configured response header and attach the token claims to the request
// context for [ClaimsFromContext].
//
// The decision itself belongs to the Engine: this package never parses tokens
// or touches the store.
package middleware
