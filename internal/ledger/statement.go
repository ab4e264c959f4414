package ledger

// Time is the logical timestamp used throughout the ledger.
//
// Timestamps are opaque to the core: they carry no monotonicity guarantee
// and no relation to wall-clock time. They matter only as audit context.
type Time = uint64

// StatementID identifies a statement by its author and its position in the
// statement log at creation time. Indices are dense, 0-based, and never
// reused; authorship is a free-form label, not a verified identity.
type StatementID struct {
	Author string `json:"author"`
	Index  int    `json:"index"`
}

// Statement is an immutable declared fact.
//
// The statement log is the sole owner of statement storage. Agreements and
// enactments hold *Statement references into the log rather than copies, so
// all three logs can cite the same fact without payload divergence.
type Statement struct {
	ID      StatementID `json:"id"`
	Payload string      `json:"payload"`
}

// Agreement elevates a statement to binding status at a specific time.
// The (statement, time) pair never changes after creation.
type Agreement struct {
	At      Time       `json:"at"`
	Message *Statement `json:"message"`
}

// EnactmentID identifies an enacted action by its actor and a monotonically
// increasing sequence number. Seq is unbounded; the single-character labels
// of earlier designs are a presentation concern (see Label).
type EnactmentID struct {
	Actor string `json:"actor"`
	Seq   uint64 `json:"seq"`
}

// Enactment records an actor's exercise of authority, legitimized by one
// agreement (the basis) and a non-empty set of statements (the
// justification). Justification references are kept sorted by statement
// index so every derived encoding is deterministic.
type Enactment struct {
	ID            EnactmentID  `json:"id"`
	Basis         *Agreement   `json:"basis"`
	Justification []*Statement `json:"justification"`
}
