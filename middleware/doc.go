// Package middleware exposes the HTTP access gate built on top of tokenauth.Engine.
//
// [RequireAccess] reads the bearer token from the Authorization header, validates it
// through the engine and injects the decoded claims into the request context, where
// [ClaimsFromContext] retrieves them.
//
// Rejections are JSON bodies of the form {"message": "..."}:
//
//   - 401 "token required" when no bearer token is present.
//   - 403 "token expired" for a well-signed token past its expiry.
//   - 403 "token invalid" for anything else.
//
// # What this package must NOT do
//
//   - Parse or create JWTs directly (delegates to the engine).
//   - Access the credential store; access tokens are self-contained.
package middleware
