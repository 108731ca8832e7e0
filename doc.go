// Package accounts provides account lifecycle primitives: self
// registration policy, password reset issuance and confirmation, plus the
// repositories and HTTP resource endpoints that expose them.
//
// Lifecycle:
//   - Accounts carry an AccountStatus persisted via Bun. A freshly
//     registered account is active only when visitors may register and no
//     email verification is required, blocked otherwise.
//   - AccountStateMachine centralizes the transition graph, hooks, and
//     persistence. The password reset confirmation uses it for the one-time
//     activation of a blocked, never-accessed account.
//
// Lifecycle events:
//   - Dispatcher is a synchronous in-process broadcast with three extension
//     points: registration-validate (observers may veto persistence),
//     registration-complete (advisory), and password-reset-requested
//     (observers deliver the reset email).
//
// Reset tokens:
//   - ResetTokenizer derives reset hashes from the account state and a
//     server secret. Tokens are never stored: logging in or changing the
//     password invalidates every outstanding token.
package accounts
