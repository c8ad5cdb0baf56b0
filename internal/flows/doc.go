// Package flows contains pure-function orchestrators for every Engine operation.
//
// Each flow function (RunSignup, RunLogin, RunRefresh, RunLogout, RunValidate)
// accepts a typed dependency struct and returns a result carrying either the
// success payload or a classified failure kind. The Engine maps failure kinds to
// public errors, metrics and audit events.
//
// # Architecture boundaries
//
// Flow functions coordinate the token codec, the credential store and the user
// lookups handed to them. They do NOT own any of these resources; ownership
// stays with the Engine.
//
// # What this package must NOT do
//
//   - Hold mutable state between calls.
//   - Import cartauth (to avoid import cycles).
//   - Perform I/O directly; all I/O is mediated through dependency fields.
package flows
