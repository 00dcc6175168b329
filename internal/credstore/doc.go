// Package credstore provides scoped key-value storage for session credentials.
//
// Supports several storage backends with different security and deployment tradeoffs:
//   - File: Local directory, one file per key, atomic writes and secure permissions
//   - Keyring: OS-native credential storage (macOS Keychain, Windows Credential Manager, etc.)
//   - Env: Seeded from environment variables, later writes kept in process memory
//   - Redis: Shared storage for headless agents running the same session
//   - Memory: Process-local storage, lost on exit
//
// Credentials wraps any Store with the access/refresh pair used by the gateway.
package credstore
