// Package credstore provides persistent storage for the API credential pair.
//
// A credential pair is a short-lived access token and a longer-lived refresh
// token. Every backend keeps both tokens in a single record, so clearing them
// is one operation and no reader ever observes one token without the other
// after a Clear.
//
// Supported backends:
//   - File: Local filesystem storage with atomic writes and secure permissions
//   - Keyring: OS-native credential storage (macOS Keychain, Windows Credential Manager, etc.)
//   - Env: Seeded from environment variables, then held in process memory
//   - Memory: Process memory only, used by tests and short-lived processes
package credstore
