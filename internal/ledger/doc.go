// Package ledger implements the append-only session ledger: statements,
// agreements, and enactments, plus the settable session clock.
//
// The ledger models a justification-based authorization protocol:
//   - Statements: declared facts, attributed to an author
//   - Agreements: statements elevated to binding status at a time
//   - Enactments: actions legitimized by one agreement (the basis) and a
//     set of statements (the justification)
//
// INVARIANTS:
//
// Dense insertion-order indices:
// Every log assigns 0-based indices strictly in insertion order. Nothing is
// ever deleted or renumbered, so an index, once returned, stays valid for
// the life of the session.
//
// Referential integrity at creation time:
// An agreement may only cite a statement index that already exists; an
// enactment may only cite an existing agreement index and existing
// statement indices. Rejected mutations leave every log unchanged and the
// session keeps running.
//
// Immutable records, shared storage:
// The statement log is the single owner of statement storage. Agreements
// and enactments hold read-only references into it, never copies, so the
// three logs cite the same underlying facts without payload divergence.
//
// Single ordering authority:
// One writer mutex covers all three logs and the clock. Enact validation
// reads across the agreement and statement logs and must observe a
// consistent snapshot, so finer-grained locking would be unsound.
package ledger
