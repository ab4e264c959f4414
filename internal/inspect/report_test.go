package inspect

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/mandate/internal/audit"
	"github.com/roach88/mandate/internal/ledger"
)

// encodedSession builds a session and returns its serialized audit stream.
func encodedSession(t *testing.T) *bytes.Buffer {
	t.Helper()
	s := ledger.NewSession(ledger.NewFixedGenerator("inspect-test"))

	s.Declare("alice", "hello")
	s.Declare("bob", "world")
	_, err := s.Bind(0, 10)
	require.NoError(t, err)
	_, err = s.Bind(1, 20)
	require.NoError(t, err)
	s.SetTime(10)
	_, err = s.Enact("carol", 0, []int{0, 1})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, audit.EncodeSnapshot(&buf, s.Snapshot()))
	return &buf
}

func TestLoad_ReconstructsSession(t *testing.T) {
	report, err := Load(encodedSession(t))
	require.NoError(t, err)

	assert.Equal(t, uint64(10), report.Clock)
	assert.Equal(t, 6, report.Events)

	require.Len(t, report.Statements, 2)
	assert.Equal(t, StatementRow{Index: 0, Author: "alice", Payload: "hello"}, report.Statements[0])
	assert.Equal(t, StatementRow{Index: 1, Author: "bob", Payload: "world"}, report.Statements[1])

	require.Len(t, report.Agreements, 2)
	assert.Equal(t, AgreementRow{Index: 0, At: 10, StatementIdx: 0}, report.Agreements[0])
	assert.Equal(t, AgreementRow{Index: 1, At: 20, StatementIdx: 1}, report.Agreements[1])

	require.Len(t, report.Enactments, 1)
	e := report.Enactments[0]
	assert.Equal(t, uint64(0), e.Seq)
	assert.Equal(t, "carol", e.Actor)
	assert.Equal(t, "a", e.Label)
	assert.Equal(t, uint64(10), e.BasisAt)
	assert.Equal(t, "0,1", e.Justification)
}

func TestLoad_ClockOnlyStream(t *testing.T) {
	report, err := Load(strings.NewReader(`{"timestamp":7,"type":"advance_time"}` + "\n"))
	require.NoError(t, err)

	assert.Equal(t, uint64(7), report.Clock)
	assert.Equal(t, 1, report.Events)
	assert.Empty(t, report.Statements)
	assert.Empty(t, report.Agreements)
	assert.Empty(t, report.Enactments)
}

func TestLoad_EmptyStream(t *testing.T) {
	_, err := Load(strings.NewReader(""))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "advance_time")
}

func TestLoad_MissingClock(t *testing.T) {
	stream := `{"message":{"author":"a","index":0,"payload":"p"},"to":"broadcast","type":"state_message","who":"a"}` + "\n"
	_, err := Load(strings.NewReader(stream))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must open with advance_time")
}

func TestLoad_DuplicateClock(t *testing.T) {
	stream := `{"timestamp":1,"type":"advance_time"}` + "\n" +
		`{"timestamp":2,"type":"advance_time"}` + "\n"
	_, err := Load(strings.NewReader(stream))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate advance_time")
}

func TestLoad_MalformedLine(t *testing.T) {
	stream := `{"timestamp":1,"type":"advance_time"}` + "\n" + `{not json` + "\n"
	_, err := Load(strings.NewReader(stream))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 2")
}

func TestLoad_UnknownEventType(t *testing.T) {
	stream := `{"timestamp":1,"type":"advance_time"}` + "\n" +
		`{"type":"retract_statement"}` + "\n"
	_, err := Load(strings.NewReader(stream))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown event type")
}

func TestLoad_StateMessageWithoutBody(t *testing.T) {
	stream := `{"timestamp":1,"type":"advance_time"}` + "\n" +
		`{"type":"state_message","who":"a","to":"broadcast"}` + "\n"
	_, err := Load(strings.NewReader(stream))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "without message")
}

func TestLoad_SkipsBlankLines(t *testing.T) {
	stream := `{"timestamp":1,"type":"advance_time"}` + "\n\n"
	report, err := Load(strings.NewReader(stream))
	require.NoError(t, err)
	assert.Equal(t, 1, report.Events)
}
