package ledger

import (
	"errors"
	"fmt"
)

// ValidationError represents a referential-integrity failure detected while
// validating a mutation against the current log contents.
//
// Validation errors are recoverable and local: the rejected mutation leaves
// every log unchanged and the session keeps accepting operations.
//
// ValidationError includes structured fields so callers can render a
// diagnostic naming the offending index and the operation that rejected it.
type ValidationError struct {
	// Code identifies the error category.
	Code ValidationErrorCode

	// Op names the operation that rejected the mutation ("bind", "enact").
	Op string

	// Index is the offending statement or agreement index.
	Index int
}

// ValidationErrorCode categorizes validation errors.
type ValidationErrorCode string

const (
	// ErrCodeUnknownStatement indicates bind cited a statement index that
	// does not exist in the statement log.
	ErrCodeUnknownStatement ValidationErrorCode = "UNKNOWN_STATEMENT"

	// ErrCodeBasisUnknown indicates enact cited an agreement index that
	// does not exist in the agreement log.
	ErrCodeBasisUnknown ValidationErrorCode = "BASIS_UNKNOWN"

	// ErrCodeJustificationUnknown indicates enact cited a statement index
	// that does not exist. When several indices are invalid the smallest
	// one is reported, so the error is deterministic for a given set.
	ErrCodeJustificationUnknown ValidationErrorCode = "JUSTIFICATION_UNKNOWN"

	// ErrCodeEmptyJustification indicates enact was given no justification
	// indices at all.
	ErrCodeEmptyJustification ValidationErrorCode = "EMPTY_JUSTIFICATION"
)

// Error implements the error interface.
func (e *ValidationError) Error() string {
	switch e.Code {
	case ErrCodeEmptyJustification:
		return fmt.Sprintf("%s: %s requires at least one justification statement", e.Code, e.Op)
	default:
		return fmt.Sprintf("%s: %s rejected index %d", e.Code, e.Op, e.Index)
	}
}

// IsUnknownStatement returns true if the error is an unknown-statement
// rejection from bind. Uses errors.As to handle wrapped errors.
func IsUnknownStatement(err error) bool {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Code == ErrCodeUnknownStatement
	}
	return false
}

// IsBasisUnknown returns true if the error is an unknown-basis rejection
// from enact. Uses errors.As to handle wrapped errors.
func IsBasisUnknown(err error) bool {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Code == ErrCodeBasisUnknown
	}
	return false
}

// IsJustificationUnknown returns true if the error is an unknown-justification
// rejection from enact. Uses errors.As to handle wrapped errors.
func IsJustificationUnknown(err error) bool {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Code == ErrCodeJustificationUnknown
	}
	return false
}

// NewUnknownStatementError creates a ValidationError for a bind that cited
// a statement index outside the statement log.
func NewUnknownStatementError(index int) *ValidationError {
	return &ValidationError{Code: ErrCodeUnknownStatement, Op: "bind", Index: index}
}

// NewBasisUnknownError creates a ValidationError for an enact that cited an
// agreement index outside the agreement log.
func NewBasisUnknownError(index int) *ValidationError {
	return &ValidationError{Code: ErrCodeBasisUnknown, Op: "enact", Index: index}
}

// NewJustificationUnknownError creates a ValidationError for an enact whose
// justification cited a statement index outside the statement log.
func NewJustificationUnknownError(index int) *ValidationError {
	return &ValidationError{Code: ErrCodeJustificationUnknown, Op: "enact", Index: index}
}

// NewEmptyJustificationError creates a ValidationError for an enact with no
// justification indices.
func NewEmptyJustificationError() *ValidationError {
	return &ValidationError{Code: ErrCodeEmptyJustification, Op: "enact", Index: -1}
}
