// Package password implements argon2id hashing and verification for the
// credential engine. Hashes are serialized in PHC string format so parameters
// travel with the hash and can be tightened without invalidating stored rows.
//
// The same vault also hashes password-reset tokens, which keeps a stolen
// database dump useless for completing a reset flow.
package password
