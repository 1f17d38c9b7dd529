// Package jwt issues and verifies access and refresh tokens in two independent signing
// domains. A token from one domain never verifies in the other.
package jwt
