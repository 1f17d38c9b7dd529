// Package tokenauth provides a token authentication engine: users register with a
// username and password, log in to receive a short-lived access token and a long-lived
// refresh token, exchange refresh tokens for new access tokens, and log out by revoking
// a refresh token.
//
// Access and refresh tokens are JWTs signed in two independent domains, so a token of
// one kind never verifies as the other. Access tokens are validated by signature and
// expiry alone; refresh tokens must additionally be present in the [CredentialStore].
//
// Engine methods are safe to call from multiple goroutines after [Builder.Build].
//
// # Architecture boundaries
//
// tokenauth is the public surface. It exposes [Engine], [Builder], [Config], the sentinel
// errors and [Kind] taxonomy, and value types such as [MetricsSnapshot]. Flow
// orchestration and audit dispatch live under internal/. Store backends live in the
// credential package; HTTP concerns live in middleware and httpapi.
//
// # What this package must NOT do
//
//   - Log or audit passwords, password hashes or token strings.
//   - Hold mutable process-wide state; secrets and connections arrive through the Builder.
//   - Import any sub-package that re-imports tokenauth.
package tokenauth
