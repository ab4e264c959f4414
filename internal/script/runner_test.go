package script

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/mandate/internal/ledger"
)

func runYAML(t *testing.T, yamlSrc string) (*ledger.Session, *Result) {
	t.Helper()
	scenario, err := Parse([]byte(yamlSrc))
	require.NoError(t, err)

	session := ledger.NewSession(ledger.NewFixedGenerator("script-test"))
	return session, Run(session, scenario)
}

func TestRun_HappyPath(t *testing.T) {
	session, result := runYAML(t, validScenarioYAML)

	assert.True(t, result.Passed, "failures: %v", result.Failures)
	require.Len(t, result.Steps, 5)

	assert.Equal(t, 0, result.Steps[0].ReturnedIndex)
	assert.Equal(t, 1, result.Steps[1].ReturnedIndex)
	assert.Equal(t, 0, result.Steps[2].ReturnedIndex)

	stmts, agrees, enacts := session.Counts()
	assert.Equal(t, 2, stmts)
	assert.Equal(t, 1, agrees)
	assert.Equal(t, 1, enacts)
	assert.Equal(t, ledger.Time(10), session.Now())
}

func TestRun_ExpectedErrorPasses(t *testing.T) {
	_, result := runYAML(t, `
name: expected-rejection
steps:
  - op: declare
    author: alice
    payload: hello
  - op: bind
    statement: 5
    at: 0
    expect:
      error: unknown_statement
      index: 5
  - op: bind
    statement: 0
    at: 10
`)

	assert.True(t, result.Passed, "failures: %v", result.Failures)
	assert.Equal(t, "unknown_statement", result.Steps[1].ErrorCode)
	assert.Equal(t, 5, result.Steps[1].ErrorIndex)
	// The rejected bind did not consume an agreement index.
	assert.Equal(t, 0, result.Steps[2].ReturnedIndex)
}

func TestRun_UnexpectedErrorFails(t *testing.T) {
	_, result := runYAML(t, `
name: surprise-rejection
steps:
  - op: bind
    statement: 0
    at: 10
`)

	assert.False(t, result.Passed)
	require.Len(t, result.Failures, 1)
	assert.Contains(t, result.Failures[0], "unknown_statement")
}

func TestRun_WrongErrorCodeFails(t *testing.T) {
	_, result := runYAML(t, `
name: wrong-code
steps:
  - op: declare
    author: alice
    payload: hello
  - op: bind
    statement: 0
    at: 10
  - op: enact
    actor: carol
    basis: 0
    justification: [9]
    expect:
      error: basis_unknown
`)

	assert.False(t, result.Passed)
	require.Len(t, result.Failures, 1)
	assert.Contains(t, result.Failures[0], "justification_unknown")
}

func TestRun_ExpectedSuccessIndexMismatchFails(t *testing.T) {
	_, result := runYAML(t, `
name: wrong-index
steps:
  - op: declare
    author: alice
    payload: hello
    expect:
      index: 3
`)

	assert.False(t, result.Passed)
	require.Len(t, result.Failures, 1)
	assert.Contains(t, result.Failures[0], "expected index 3")
}

func TestRun_RejectionDoesNotAbortRun(t *testing.T) {
	session, result := runYAML(t, `
name: keeps-going
steps:
  - op: bind
    statement: 0
    at: 1
    expect:
      error: unknown_statement
  - op: declare
    author: alice
    payload: hello
  - op: bind
    statement: 0
    at: 2
`)

	assert.True(t, result.Passed, "failures: %v", result.Failures)
	_, agrees, _ := session.Counts()
	assert.Equal(t, 1, agrees)
}

func TestRun_AssertBlockFailure(t *testing.T) {
	_, result := runYAML(t, `
name: wrong-counts
steps:
  - op: declare
    author: alice
    payload: hello
assert:
  statements: 2
`)

	assert.False(t, result.Passed)
	require.Len(t, result.Failures, 1)
	assert.Contains(t, result.Failures[0], "expected 2 statements, got 1")
}

func TestRun_JustificationUnknownReportsSmallestIndex(t *testing.T) {
	_, result := runYAML(t, `
name: smallest-invalid
steps:
  - op: declare
    author: alice
    payload: hello
  - op: bind
    statement: 0
    at: 1
  - op: enact
    actor: carol
    basis: 0
    justification: [9, 0, 4]
    expect:
      error: justification_unknown
      index: 4
`)

	assert.True(t, result.Passed, "failures: %v", result.Failures)
}
