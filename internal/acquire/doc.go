// Package acquire drives per-endpoint frame acquisition.
//
// Ownership boundary:
// - the request/decode/route loop over one live session
// - the reconnect worker composing dial, loop, and backoff
// - per-endpoint counters
package acquire
