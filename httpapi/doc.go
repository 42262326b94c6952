// Package httpapi serves the auth routes of the Pistis Trybe API:
//
//	POST /v1/auth/register
//	POST /v1/auth/login
//	POST /v1/auth/logout
//	GET  /v1/users/me
//
// Every route sits behind [middleware.Gate]. Request bodies are validated
// here; business rules are the Engine's. Responses use the
// {status, message, data} envelope.
package httpapi
