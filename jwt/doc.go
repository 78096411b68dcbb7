// Package jwt issues and verifies the HS256 session tokens handed out after
// email verification, login and a completed password reset. Tokens carry the
// account id as subject plus issuer and expiry claims; everything else about
// the account stays server side.
package jwt
