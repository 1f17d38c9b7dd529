// Package flows contains the orchestration for every Engine operation.
//
// Each Run function (RunRegister, RunLogin, RunRefresh, RunLogout, RunValidate) takes a
// typed dependency struct and returns a result carrying a failure kind. The Engine maps
// failure kinds to public errors, metrics and audit events; flows never do.
//
// Flows hold no state between calls and perform I/O only through their dependencies.
// This package must not import the root package.
package flows
