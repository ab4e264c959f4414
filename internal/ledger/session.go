package ledger

import (
	"sort"
	"sync"
)

// Session is the explicit state object for one ledger session: the three
// append-only logs plus the clock. It is created empty, lives for the
// session, and is discarded at exit; nothing persists across restarts.
//
// Every mutation first passes referential-integrity checks against the
// current log contents and only then appends. A rejected mutation leaves
// all logs untouched.
//
// Thread-safety: a single writer mutex covers all three logs and the clock
// together. Enact validation reads across the agreement and statement logs,
// so any concurrent access must observe one consistent snapshot; a single
// ordering authority is the only safe granularity here.
type Session struct {
	mu         sync.Mutex
	token      string
	clock      *Clock
	statements []*Statement
	agreements []*Agreement
	enacted    []*Enactment
	nextSeq    uint64
}

// NewSession creates an empty session tagged with a token from gen.
// A nil gen defaults to UUIDv7 tokens.
func NewSession(gen SessionTokenGenerator) *Session {
	if gen == nil {
		gen = UUIDv7Generator{}
	}
	return &Session{
		token: gen.Generate(),
		clock: NewClock(),
	}
}

// Token returns the session's correlation token.
func (s *Session) Token() string {
	return s.token
}

// Declare appends a new statement and returns its index.
//
// Declare always succeeds: statements are unvalidated free-form facts. The
// index is the log length at creation time and is never reused.
func (s *Session) Declare(author, payload string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := len(s.statements)
	s.statements = append(s.statements, &Statement{
		ID:      StatementID{Author: author, Index: idx},
		Payload: payload,
	})
	return idx
}

// Bind elevates the statement at stmtIdx to a binding agreement effective
// at the given time, returning the new agreement index.
//
// Fails with an UNKNOWN_STATEMENT validation error when stmtIdx does not
// exist; the agreement log is left unchanged.
func (s *Session) Bind(stmtIdx int, at Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if stmtIdx < 0 || stmtIdx >= len(s.statements) {
		return 0, NewUnknownStatementError(stmtIdx)
	}

	idx := len(s.agreements)
	s.agreements = append(s.agreements, &Agreement{
		At:      at,
		Message: s.statements[stmtIdx],
	})
	return idx, nil
}

// Enact records an action by actor, grounded on the agreement at basisIdx
// and justified by the statements at justification indices. Returns the new
// enactment's ID.
//
// Validation order:
//  1. BASIS_UNKNOWN when basisIdx does not exist in the agreement log.
//  2. JUSTIFICATION_UNKNOWN when any justification index does not exist in
//     the statement log. Justification is an unordered set, so the smallest
//     invalid index is reported to keep the error deterministic.
//
// Duplicate justification indices are collapsed. Re-enacting an identical
// basis/justification pair is permitted and produces a new, distinct entry.
// Sequence numbers are unbounded, so enactment never runs out of IDs.
func (s *Session) Enact(actor string, basisIdx int, justification []int) (EnactmentID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if basisIdx < 0 || basisIdx >= len(s.agreements) {
		return EnactmentID{}, NewBasisUnknownError(basisIdx)
	}

	indices := normalizeIndices(justification)
	if len(indices) == 0 {
		return EnactmentID{}, NewEmptyJustificationError()
	}
	// indices is sorted ascending, so the first out-of-range entry is the
	// smallest invalid one.
	for _, j := range indices {
		if j < 0 || j >= len(s.statements) {
			return EnactmentID{}, NewJustificationUnknownError(j)
		}
	}

	cited := make([]*Statement, len(indices))
	for i, j := range indices {
		cited[i] = s.statements[j]
	}

	id := EnactmentID{Actor: actor, Seq: s.nextSeq}
	s.nextSeq++
	s.enacted = append(s.enacted, &Enactment{
		ID:            id,
		Basis:         s.agreements[basisIdx],
		Justification: cited,
	})
	return id, nil
}

// SetTime unconditionally overwrites the session clock. See Clock for why
// moving time backwards is allowed.
func (s *Session) SetTime(t Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clock.Set(t)
}

// Now returns the session clock's current reading.
func (s *Session) Now() Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.clock.Current()
}

// Counts returns the lengths of the three logs.
func (s *Session) Counts() (statements, agreements, enactments int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.statements), len(s.agreements), len(s.enacted)
}

// Snapshot captures a consistent view of the session for read-only
// consumers such as the audit serializer and the shell's table renderer.
//
// The slices are fresh copies of the log headers; the entries they point at
// are the canonical immutable records, shared with the session.
type Snapshot struct {
	Now        Time
	Statements []*Statement
	Agreements []*Agreement
	Enacted    []*Enactment
}

// Snapshot returns a consistent copy of the session state, taken under the
// writer lock so cross-log references are never observed mid-mutation.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		Now:        s.clock.Current(),
		Statements: make([]*Statement, len(s.statements)),
		Agreements: make([]*Agreement, len(s.agreements)),
		Enacted:    make([]*Enactment, len(s.enacted)),
	}
	copy(snap.Statements, s.statements)
	copy(snap.Agreements, s.agreements)
	copy(snap.Enacted, s.enacted)
	return snap
}

// normalizeIndices deduplicates and sorts justification indices ascending.
// The total order makes both error selection and every derived encoding of
// the justification set deterministic.
func normalizeIndices(indices []int) []int {
	seen := make(map[int]bool, len(indices))
	out := make([]int, 0, len(indices))
	for _, j := range indices {
		if !seen[j] {
			seen[j] = true
			out = append(out, j)
		}
	}
	sort.Ints(out)
	return out
}
