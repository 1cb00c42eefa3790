// Package session owns the client side of one sensor endpoint connection.
//
// Ownership boundary:
// - dial, socket tuning, and the token/greeting handshake
// - exact-length frame reads with an overall deadline
// - reconnect backoff primitives
package session
