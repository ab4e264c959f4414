package script

import (
	"errors"
	"fmt"

	"github.com/roach88/mandate/internal/ledger"
)

// Result holds the outcome of running a scenario against a session.
type Result struct {
	ScenarioName string       `json:"scenario_name"`
	Steps        []StepResult `json:"steps"`
	Passed       bool         `json:"passed"`
	Failures     []string     `json:"failures,omitempty"`
}

// StepResult records one executed step.
type StepResult struct {
	Index int    `json:"index"`
	Op    string `json:"op"`

	// ReturnedIndex is the new statement/agreement index for declare and
	// bind, or the enactment sequence number for enact. -1 when the step
	// failed or has no index.
	ReturnedIndex int `json:"returned_index"`

	// ErrorCode is the validation error code the step produced, or "".
	ErrorCode string `json:"error_code,omitempty"`

	// ErrorIndex is the offending index carried by the error, or -1.
	ErrorIndex int `json:"error_index,omitempty"`

	Passed bool   `json:"passed"`
	Detail string `json:"detail,omitempty"`
}

// Run executes every step of a scenario against the session, in order.
//
// Validation errors never abort the run: a rejected mutation leaves the
// session intact and later steps still execute, mirroring an interactive
// session. A step fails the scenario when its outcome contradicts its
// expect clause (or errors without one). The final assert block, if
// present, is checked after all steps.
func Run(session *ledger.Session, scenario *Scenario) *Result {
	result := &Result{ScenarioName: scenario.Name}

	for i, step := range scenario.Steps {
		sr := runStep(session, i, &step)
		result.Steps = append(result.Steps, sr)
		if !sr.Passed {
			result.Failures = append(result.Failures,
				fmt.Sprintf("steps[%d] (%s): %s", i, step.Op, sr.Detail))
		}
	}

	if scenario.Assert != nil {
		stmts, agrees, enacts := session.Counts()
		checkCount(result, "statements", scenario.Assert.Statements, stmts)
		checkCount(result, "agreements", scenario.Assert.Agreements, agrees)
		checkCount(result, "enactments", scenario.Assert.Enactments, enacts)
	}

	result.Passed = len(result.Failures) == 0
	return result
}

// runStep applies one step and evaluates its expect clause.
func runStep(session *ledger.Session, index int, step *Step) StepResult {
	sr := StepResult{Index: index, Op: step.Op, ReturnedIndex: -1, ErrorIndex: -1}

	var err error
	switch step.Op {
	case OpDeclare:
		sr.ReturnedIndex = session.Declare(step.Author, step.Payload)
	case OpBind:
		var idx int
		idx, err = session.Bind(*step.Statement, *step.At)
		if err == nil {
			sr.ReturnedIndex = idx
		}
	case OpEnact:
		var id ledger.EnactmentID
		id, err = session.Enact(step.Actor, *step.Basis, step.Justification)
		if err == nil {
			sr.ReturnedIndex = int(id.Seq)
		}
	case OpNow:
		session.SetTime(*step.At)
	}

	if err != nil {
		var ve *ledger.ValidationError
		if errors.As(err, &ve) {
			sr.ErrorCode = wireErrorCode(ve.Code)
			sr.ErrorIndex = ve.Index
		} else {
			sr.Detail = fmt.Sprintf("unexpected error: %v", err)
			return sr
		}
	}

	sr.Passed, sr.Detail = evaluateExpect(step.Expect, &sr)
	return sr
}

// evaluateExpect compares a step's outcome to its expect clause.
func evaluateExpect(expect *ExpectClause, sr *StepResult) (bool, string) {
	if expect == nil || expect.Error == "" {
		if sr.ErrorCode != "" {
			return false, fmt.Sprintf("expected success, got %s(%d)", sr.ErrorCode, sr.ErrorIndex)
		}
		if expect != nil && expect.Index != nil && sr.ReturnedIndex != *expect.Index {
			return false, fmt.Sprintf("expected index %d, got %d", *expect.Index, sr.ReturnedIndex)
		}
		return true, ""
	}

	if sr.ErrorCode == "" {
		return false, fmt.Sprintf("expected error %s, step succeeded with index %d", expect.Error, sr.ReturnedIndex)
	}
	if sr.ErrorCode != expect.Error {
		return false, fmt.Sprintf("expected error %s, got %s", expect.Error, sr.ErrorCode)
	}
	if expect.Index != nil && sr.ErrorIndex != *expect.Index {
		return false, fmt.Sprintf("expected offending index %d, got %d", *expect.Index, sr.ErrorIndex)
	}
	return true, ""
}

// checkCount compares one assert-block count against the session.
func checkCount(result *Result, name string, want *int, got int) {
	if want != nil && got != *want {
		result.Failures = append(result.Failures,
			fmt.Sprintf("assert: expected %d %s, got %d", *want, name, got))
	}
}

// wireErrorCode maps ledger error codes to the snake_case codes scenarios
// use.
func wireErrorCode(code ledger.ValidationErrorCode) string {
	switch code {
	case ledger.ErrCodeUnknownStatement:
		return "unknown_statement"
	case ledger.ErrCodeBasisUnknown:
		return "basis_unknown"
	case ledger.ErrCodeJustificationUnknown:
		return "justification_unknown"
	case ledger.ErrCodeEmptyJustification:
		return "empty_justification"
	default:
		return string(code)
	}
}
