package ledger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSession() *Session {
	return NewSession(NewFixedGenerator("session-test"))
}

func TestSession_Declare_AlwaysSucceeds(t *testing.T) {
	s := newTestSession()

	assert.Equal(t, 0, s.Declare("alice", "hello"))
	assert.Equal(t, 1, s.Declare("bob", "world"))
	assert.Equal(t, 2, s.Declare("alice", "")) // empty payload is a valid fact

	stmts, agrees, enacts := s.Counts()
	assert.Equal(t, 3, stmts)
	assert.Equal(t, 0, agrees)
	assert.Equal(t, 0, enacts)
}

func TestSession_Declare_AssignsDenseIndices(t *testing.T) {
	s := newTestSession()

	for i := 0; i < 10; i++ {
		assert.Equal(t, i, s.Declare("author", "payload"))
	}

	snap := s.Snapshot()
	for i, stmt := range snap.Statements {
		assert.Equal(t, i, stmt.ID.Index)
	}
}

func TestSession_Bind_Success(t *testing.T) {
	s := newTestSession()
	s.Declare("alice", "hello")

	idx, err := s.Bind(0, 10)
	require.NoError(t, err)
	assert.Equal(t, 0, idx)

	snap := s.Snapshot()
	require.Len(t, snap.Agreements, 1)
	assert.Equal(t, Time(10), snap.Agreements[0].At)
	// Shared reference, not a copy.
	assert.Same(t, snap.Statements[0], snap.Agreements[0].Message)
}

func TestSession_Bind_UnknownStatement(t *testing.T) {
	s := newTestSession()
	s.Declare("alice", "hello")

	_, err := s.Bind(5, 0)
	require.Error(t, err)
	assert.True(t, IsUnknownStatement(err))

	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, 5, ve.Index)
	assert.Equal(t, "bind", ve.Op)

	// The registry is untouched.
	_, agrees, _ := s.Counts()
	assert.Equal(t, 0, agrees)
}

func TestSession_Bind_NegativeIndex(t *testing.T) {
	s := newTestSession()
	s.Declare("alice", "hello")

	_, err := s.Bind(-1, 0)
	assert.True(t, IsUnknownStatement(err))
}

func TestSession_Bind_FailureDoesNotAbortSession(t *testing.T) {
	s := newTestSession()
	s.Declare("alice", "hello")

	_, err := s.Bind(7, 1)
	require.Error(t, err)

	// The session keeps accepting operations after a rejection.
	idx, err := s.Bind(0, 2)
	require.NoError(t, err)
	assert.Equal(t, 0, idx)
}

func TestSession_Enact_Success(t *testing.T) {
	s := newTestSession()
	s.Declare("alice", "hello")
	s.Declare("bob", "world")
	_, err := s.Bind(0, 10)
	require.NoError(t, err)

	id, err := s.Enact("carol", 0, []int{0, 1})
	require.NoError(t, err)
	assert.Equal(t, EnactmentID{Actor: "carol", Seq: 0}, id)

	snap := s.Snapshot()
	require.Len(t, snap.Enacted, 1)
	e := snap.Enacted[0]
	assert.Same(t, snap.Agreements[0], e.Basis)
	require.Len(t, e.Justification, 2)
	assert.Same(t, snap.Statements[0], e.Justification[0])
	assert.Same(t, snap.Statements[1], e.Justification[1])
}

func TestSession_Enact_BasisUnknown(t *testing.T) {
	s := newTestSession()
	s.Declare("alice", "hello")

	_, err := s.Enact("carol", 0, []int{0})
	require.Error(t, err)
	assert.True(t, IsBasisUnknown(err))

	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, 0, ve.Index)

	_, _, enacts := s.Counts()
	assert.Equal(t, 0, enacts)
}

func TestSession_Enact_JustificationUnknown_SmallestIndexWins(t *testing.T) {
	s := newTestSession()
	s.Declare("alice", "hello")
	_, err := s.Bind(0, 10)
	require.NoError(t, err)

	// Both 7 and 3 are invalid; the smallest must be reported regardless
	// of the order the caller lists them in.
	_, err = s.Enact("carol", 0, []int{7, 0, 3})
	require.Error(t, err)
	assert.True(t, IsJustificationUnknown(err))

	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, 3, ve.Index)

	_, _, enacts := s.Counts()
	assert.Equal(t, 0, enacts)
}

func TestSession_Enact_EmptyJustification(t *testing.T) {
	s := newTestSession()
	s.Declare("alice", "hello")
	_, err := s.Bind(0, 10)
	require.NoError(t, err)

	_, err = s.Enact("carol", 0, nil)
	require.Error(t, err)

	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, ErrCodeEmptyJustification, ve.Code)
}

func TestSession_Enact_DeduplicatesAndSortsJustification(t *testing.T) {
	s := newTestSession()
	s.Declare("alice", "a")
	s.Declare("bob", "b")
	s.Declare("carol", "c")
	_, err := s.Bind(0, 1)
	require.NoError(t, err)

	_, err = s.Enact("dave", 0, []int{2, 0, 2, 1, 0})
	require.NoError(t, err)

	snap := s.Snapshot()
	e := snap.Enacted[0]
	require.Len(t, e.Justification, 3)
	assert.Equal(t, 0, e.Justification[0].ID.Index)
	assert.Equal(t, 1, e.Justification[1].ID.Index)
	assert.Equal(t, 2, e.Justification[2].ID.Index)
}

func TestSession_Enact_RepeatProducesDistinctEntries(t *testing.T) {
	s := newTestSession()
	s.Declare("alice", "hello")
	_, err := s.Bind(0, 10)
	require.NoError(t, err)

	id1, err := s.Enact("carol", 0, []int{0})
	require.NoError(t, err)
	id2, err := s.Enact("carol", 0, []int{0})
	require.NoError(t, err)

	// No deduplication: same basis/justification yields a new entry.
	assert.NotEqual(t, id1, id2)
	assert.Equal(t, uint64(0), id1.Seq)
	assert.Equal(t, uint64(1), id2.Seq)

	_, _, enacts := s.Counts()
	assert.Equal(t, 2, enacts)
}

func TestSession_Enact_SequenceSurvivesManyEntries(t *testing.T) {
	s := newTestSession()
	s.Declare("alice", "hello")
	_, err := s.Bind(0, 0)
	require.NoError(t, err)

	// Well past the 26 entries a single-character label could express.
	for i := 0; i < 100; i++ {
		id, err := s.Enact("carol", 0, []int{0})
		require.NoError(t, err)
		assert.Equal(t, uint64(i), id.Seq)
	}
}

func TestSession_SetTime_AllowsBackwardMoves(t *testing.T) {
	s := newTestSession()

	s.SetTime(100)
	assert.Equal(t, Time(100), s.Now())

	s.SetTime(5)
	assert.Equal(t, Time(5), s.Now())
}

func TestSession_ClockDoesNotAffectRecordedTimes(t *testing.T) {
	s := newTestSession()
	s.Declare("alice", "hello")
	_, err := s.Bind(0, 50)
	require.NoError(t, err)

	// Moving the clock backwards leaves the agreement's time alone.
	s.SetTime(1)
	snap := s.Snapshot()
	assert.Equal(t, Time(50), snap.Agreements[0].At)
	assert.Equal(t, Time(1), snap.Now)
}

func TestSession_Snapshot_IsStable(t *testing.T) {
	s := newTestSession()
	s.Declare("alice", "hello")
	snap := s.Snapshot()

	// Later mutations don't grow an already-taken snapshot.
	s.Declare("bob", "world")
	assert.Len(t, snap.Statements, 1)
}

func TestSession_Token(t *testing.T) {
	s := NewSession(NewFixedGenerator("fixed-token"))
	assert.Equal(t, "fixed-token", s.Token())
}
