// Package session provides SessionStore implementations. A session carries
// one caller-visible conversation so the CLI and server can seed each run
// with prior exchanges; there is no cross-session memory.
package session
