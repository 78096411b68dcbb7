// Package credauth provides an account-credential engine covering registration
// with email OTP proof-of-control, login, and a two-step time-boxed password
// recovery flow. Every flow is built around single-use expiring artifacts
// (registration OTP, reset OTP, reset token, session token).
//
// The package is designed for concurrent server workloads: Engine methods are
// safe to call from multiple goroutines after initialization through
// [Builder.Build].
//
// # Architecture boundaries
//
// credauth is the public surface. It exposes [Engine], [Builder], [Config],
// the storage contracts ([AccountStore], [ChallengeLedger], [PasswordResetter])
// and the [Mailer] collaborator. Persistence lives under store/ and transport
// under httpapi/; neither is imported here.
//
// # What this package must NOT do
//
//   - Read process environment or open network/database connections itself;
//     every external capability is injected through the Builder.
//   - Hold a storage connection across a Mailer call. Mail always goes out
//     after the owning rows are committed.
//   - Retry failed storage or mail calls; failures are terminal for the
//     request and surface as typed [Error] values.
package credauth
