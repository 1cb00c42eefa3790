// Package protocol owns the sensor wire contract primitives.
//
// Ownership boundary:
// - modular checksum
// - wire constants (handshake token, request opcode, frame lengths)
// - decode error classes
package protocol
