// Package trybeauth is the account and session layer of the Pistis Trybe API.
//
// An [Engine] registers direct-signup identities, logs them in with an
// Argon2id password check, and decides for every request whether it may reach
// its handler. Sessions are a pair of HS256 tokens: a short access token sent
// by the client and a long refresh token kept only in the [IdentityStore].
// When an access token has expired the Engine exchanges the stored refresh
// token for a new pair and hands the caller the new access token to return in
// a response header.
//
// # Architecture boundaries
//
// trybeauth is the public surface. It exposes [Engine], [Builder], [Config]
// and the value types passed in and out of Engine methods. Flow orchestration
// and audit dispatch live under internal/. Storage backends live under store/
// and HTTP adapters under middleware/ and httpapi/; none of them is imported
// by this package.
//
// Engine methods never write HTTP responses. Failures are returned as [*Error]
// values whose [Kind] determines the status code.
//
// # Route classes
//
// Excluded endpoints (login, register, refresh-token) always pass. Paths that
// start with none of the protected prefixes also pass without a token. Every
// other path requires a bearer token.
package trybeauth
