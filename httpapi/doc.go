// Package httpapi exposes the token authentication engine over HTTP.
//
// Endpoints (JSON bodies):
//
//	POST   /register  {"username","password"}  201 {"message"}
//	POST   /login     {"username","password"}  200 {"accessToken","refreshToken"}
//	POST   /token     {"token"}                200 {"accessToken"}
//	DELETE /logout    {"token"}                204
//	GET    /profile   Authorization: Bearer    200 {"message","user"}
//
// Errors are {"message": "..."} with the status derived from the engine error kind,
// except a /token request without a token, which is a bare 401.
package httpapi
