package audit

import (
	"github.com/roach88/mandate/internal/ledger"
)

// Event type discriminators in the audit wire format. The discriminator is
// carried in every record's "type" field so downstream tooling can dispatch
// on variant without schema knowledge.
const (
	TypeAdvanceTime  = "advance_time"
	TypeStateMessage = "state_message"
	TypeAddAgreement = "add_agreement"
	TypeEnactAction  = "enact_action"
)

// RecipientBroadcast is the only addressing mode the ledger emits: every
// statement and enactment is visible to all participants.
const RecipientBroadcast = "broadcast"

// Event is one entry in the audit stream. Exactly one of the optional
// fields is populated, matching Type.
type Event struct {
	Type string

	// Timestamp carries the session clock for advance_time events.
	Timestamp ledger.Time

	// Who and To address state_message and enact_action events.
	Who string
	To  string

	// Message is the cited statement for state_message events.
	Message *ledger.Statement

	// Agreement is the cited agreement for add_agreement events.
	Agreement *ledger.Agreement

	// Action is the cited enactment for enact_action events.
	Action *ledger.Enactment
}

// wireMap renders the event as the map form fed to the canonical encoder.
// Field sets per variant are fixed; key order is imposed by the encoder.
func (e Event) wireMap() map[string]any {
	switch e.Type {
	case TypeAdvanceTime:
		return map[string]any{
			"type":      e.Type,
			"timestamp": e.Timestamp,
		}
	case TypeStateMessage:
		return map[string]any{
			"type":    e.Type,
			"who":     e.Who,
			"to":      e.To,
			"message": statementMap(e.Message),
		}
	case TypeAddAgreement:
		return map[string]any{
			"type":      e.Type,
			"agreement": agreementMap(e.Agreement),
		}
	case TypeEnactAction:
		return map[string]any{
			"type":   e.Type,
			"who":    e.Who,
			"to":     e.To,
			"action": enactmentMap(e.Action),
		}
	default:
		return map[string]any{"type": e.Type}
	}
}

func statementMap(s *ledger.Statement) map[string]any {
	return map[string]any{
		"author":  s.ID.Author,
		"index":   s.ID.Index,
		"payload": s.Payload,
	}
}

func agreementMap(a *ledger.Agreement) map[string]any {
	return map[string]any{
		"at":      a.At,
		"message": statementMap(a.Message),
	}
}

func enactmentMap(e *ledger.Enactment) map[string]any {
	justification := make([]any, len(e.Justification))
	for i, s := range e.Justification {
		justification[i] = statementMap(s)
	}
	return map[string]any{
		"actor":         e.ID.Actor,
		"seq":           e.ID.Seq,
		"label":         ledger.Label(e.ID.Seq),
		"basis":         agreementMap(e.Basis),
		"justification": justification,
	}
}
