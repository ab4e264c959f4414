// Package audit re-derives a session's full history as an ordered stream
// of control events and encodes it as newline-delimited canonical JSON.
//
// Serialization is a pure function of a session snapshot: the same state
// always produces the same bytes, so an external inspector can reconstruct
// the entire history from the latest stream alone.
package audit
