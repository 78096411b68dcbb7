// Package internal contains helper utilities that are intentionally private
// to credauth, currently secure OTP generation.
//
// # What this package must NOT do
//
//   - Export types that appear in the public credauth API.
//   - Be imported by any package outside the credauth module.
package internal
