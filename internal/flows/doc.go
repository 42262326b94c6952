// Package flows contains pure-function orchestrators for every Engine operation.
//
// Each flow function (RunRegister, RunLogin, RunAuthenticate, RunRotation,
// RunLogout) accepts a typed dependency struct and returns results without
// side-effects beyond those dependencies. Mock dependencies make every branch
// testable and keep the Engine type thin.
//
// # Architecture boundaries
//
// Flow functions coordinate calls to the credential store, token manager,
// password hasher, audit dispatcher and metrics. They do NOT own any of these
// resources; ownership stays with the Engine.
//
// # What this package must NOT do
//
//   - Hold mutable state between calls.
//   - Import trybeauth (to avoid import cycles).
//   - Perform I/O directly. All I/O is mediated through dependency functions.
//   - Write HTTP responses.
package flows
