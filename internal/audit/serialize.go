package audit

import (
	"fmt"
	"io"

	"github.com/roach88/mandate/internal/ledger"
)

// Serialize re-derives the full session history as an ordered event
// sequence: one advance_time carrying the clock, then every statement, then
// every agreement, then every enactment, each group in insertion order.
//
// This is a complete re-derivation, not an incremental diff. Every call
// walks the whole snapshot, so an inspector can reconstruct the entire
// history from the latest stream alone, with no dependency on streams it
// may have missed. Serialize never mutates anything.
func Serialize(snap ledger.Snapshot) []Event {
	events := make([]Event, 0, 1+len(snap.Statements)+len(snap.Agreements)+len(snap.Enacted))

	events = append(events, Event{
		Type:      TypeAdvanceTime,
		Timestamp: snap.Now,
	})
	for _, s := range snap.Statements {
		events = append(events, Event{
			Type:    TypeStateMessage,
			Who:     s.ID.Author,
			To:      RecipientBroadcast,
			Message: s,
		})
	}
	for _, a := range snap.Agreements {
		events = append(events, Event{
			Type:      TypeAddAgreement,
			Agreement: a,
		})
	}
	for _, e := range snap.Enacted {
		events = append(events, Event{
			Type:   TypeEnactAction,
			Who:    e.ID.Actor,
			To:     RecipientBroadcast,
			Action: e,
		})
	}
	return events
}

// Encode writes events to w as newline-delimited canonical JSON, one record
// per event. For a given snapshot the output bytes are identical across
// calls and across runs.
func Encode(w io.Writer, events []Event) error {
	for i, e := range events {
		line, err := MarshalCanonical(e.wireMap())
		if err != nil {
			return fmt.Errorf("encode event %d (%s): %w", i, e.Type, err)
		}
		if _, err := w.Write(append(line, '\n')); err != nil {
			return fmt.Errorf("write event %d (%s): %w", i, e.Type, err)
		}
	}
	return nil
}

// EncodeSnapshot serializes and encodes a snapshot in one step.
func EncodeSnapshot(w io.Writer, snap ledger.Snapshot) error {
	return Encode(w, Serialize(snap))
}
