// Package users implements the account lifecycle core of an application:
// credential verification, account activation, password reset, and
// role-membership authorization.
//
// Account lifecycle:
//   - Accounts are created pending (ActivatedAt nil) with an opaque
//     ActivationCode already assigned. ActivationManager consumes the code
//     and stamps ActivatedAt; the code itself is never cleared so "was
//     issued" stays distinguishable from "never issued".
//   - Enabled is an administrative gate independent of activation. The
//     Lifecycle machine centralizes Enable/Disable transitions, actor
//     attribution, hooks, and audit events.
//
// Services:
//   - Authenticator verifies login/password (or a federated identity URL)
//     against a Store and CredentialVerifier, gating on activation and
//     enabled state. A wrong password is a nil result, never an error.
//   - PasswordResetManager issues and consumes one-time reset codes.
//   - AuthorizationChecker answers role queries with a centralized "admin"
//     superuser bypass.
//
// Activity sinks:
//   - ActivitySink is a light-weight audit emitter used by the services and
//     the lifecycle machine. Sinks run best-effort (errors are logged) so
//     you can forward to a database or queue without blocking the caller.
package users
