package ruleerrors

import (
	"fmt"

	"github.com/pkg/errors"
)

// RejectCode is the code a peer is told a block or transaction was
// rejected with.
type RejectCode uint32

// Reject codes. Codes from RejectInternal up are never sent to peers.
const (
	RejectMalformed       RejectCode = 0x01
	RejectInvalid         RejectCode = 0x10
	RejectObsolete        RejectCode = 0x11
	RejectDuplicate       RejectCode = 0x12
	RejectNonstandard     RejectCode = 0x40
	RejectInsufficientFee RejectCode = 0x42
	RejectCheckpoint      RejectCode = 0x43

	RejectInternal     RejectCode = 0x100
	RejectAlreadyKnown RejectCode = 0x101
	RejectConflict     RejectCode = 0x102
)

var rejectCodeStrings = map[RejectCode]string{
	RejectMalformed:       "malformed",
	RejectInvalid:         "invalid",
	RejectObsolete:        "obsolete",
	RejectDuplicate:       "duplicate",
	RejectNonstandard:     "nonstandard",
	RejectInsufficientFee: "insufficientfee",
	RejectCheckpoint:      "checkpoint",
	RejectInternal:        "internal",
	RejectAlreadyKnown:    "already-known",
	RejectConflict:        "conflict",
}

func (code RejectCode) String() string {
	if s, ok := rejectCodeStrings[code]; ok {
		return s
	}
	return fmt.Sprintf("Unknown RejectCode (%d)", uint32(code))
}

// ValidationMode tells whether a validation passed, failed on a rule, or
// could not be decided.
type ValidationMode int

const (
	// ModeValid means every check passed.
	ModeValid ValidationMode = iota

	// ModeInvalid means a rule was violated. The object is rejected and,
	// unless the state is Corrupt, remembered as invalid.
	ModeInvalid

	// ModeError means validity could not be determined, for example
	// because a prerequisite is missing or the environment failed. The
	// object must not be remembered as invalid.
	ModeError
)

var validationModeStrings = map[ValidationMode]string{
	ModeValid:   "valid",
	ModeInvalid: "invalid",
	ModeError:   "error",
}

func (mode ValidationMode) String() string {
	if s, ok := validationModeStrings[mode]; ok {
		return s
	}
	return fmt.Sprintf("Unknown ValidationMode (%d)", int(mode))
}

// ValidationState is the structured verdict of validating a block or a
// transaction.
type ValidationState struct {
	Mode         ValidationMode
	RejectCode   RejectCode
	RejectReason string
	DebugMessage string

	// Corrupt marks data that may have been corrupted in transit, such
	// as a malleated merkle tree. The block hash then does not identify
	// invalid content and must not be marked invalid.
	Corrupt bool

	// Err is the error the state was derived from.
	Err error
}

// NewValidationState classifies err. A nil err yields a valid state.
// Rule errors yield an invalid state unless they are indeterminate. Any
// other error is an environment failure and yields an error state.
func NewValidationState(err error) *ValidationState {
	if err == nil {
		return &ValidationState{Mode: ModeValid}
	}

	var ruleErr RuleError
	if !errors.As(err, &ruleErr) {
		return &ValidationState{
			Mode:         ModeError,
			RejectCode:   RejectInternal,
			RejectReason: "internal-error",
			DebugMessage: err.Error(),
			Err:          err,
		}
	}

	mode := ModeInvalid
	if ruleErr.indeterminate {
		mode = ModeError
	}
	return &ValidationState{
		Mode:         mode,
		RejectCode:   ruleErr.rejectCode,
		RejectReason: ruleErr.reason,
		DebugMessage: err.Error(),
		Corrupt:      ruleErr.corruption,
		Err:          err,
	}
}

// IsValid returns whether every check passed.
func (s *ValidationState) IsValid() bool {
	return s.Mode == ModeValid
}

// IsInvalid returns whether a rule was violated.
func (s *ValidationState) IsInvalid() bool {
	return s.Mode == ModeInvalid
}

// IsError returns whether validity could not be determined.
func (s *ValidationState) IsError() bool {
	return s.Mode == ModeError
}

// ShouldMarkInvalid returns whether the validated block should be
// remembered as permanently invalid.
func (s *ValidationState) ShouldMarkInvalid() bool {
	return s.Mode == ModeInvalid && !s.Corrupt
}

func (s *ValidationState) String() string {
	if s.Mode == ModeValid {
		return "valid"
	}
	return fmt.Sprintf("%s: %s (code %s) %s", s.Mode, s.RejectReason, s.RejectCode, s.DebugMessage)
}

// IsIndeterminate returns whether err leaves validity undecided: either an
// indeterminate rule error or an error that is not a rule error at all.
func IsIndeterminate(err error) bool {
	return NewValidationState(err).IsError()
}
