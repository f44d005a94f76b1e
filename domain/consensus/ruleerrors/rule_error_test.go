package ruleerrors

import (
	"errors"
	"testing"

	"github.com/freicoin/freicoind/domain/consensus/model/externalapi"
	pkgerrors "github.com/pkg/errors"
)

func TestNewErrMissingTxOut(t *testing.T) {
	outer := NewErrMissingTxOut([]*externalapi.DomainOutpoint{{TransactionID: externalapi.DomainTransactionID{255, 255, 255}, Index: 5}})
	expectedOuterErr := "ErrMissingTxOut: missing the following outpoint: [0000000000000000000000000000000000000000000000000000000000ffffff:5]"
	inner := &ErrMissingTxOut{}
	if !errors.As(outer, inner) {
		t.Fatal("TestNewErrMissingTxOut: Outer should contain ErrMissingTxOut in it")
	}

	if len(inner.MissingOutpoints) != 1 {
		t.Fatalf("TestNewErrMissingTxOut: Expected len(inner.MissingOutpoints) 1, found: %d", len(inner.MissingOutpoints))
	}
	if inner.MissingOutpoints[0].Index != 5 {
		t.Fatalf("TestNewErrMissingTxOut: Expected 5. found: %d", inner.MissingOutpoints[0].Index)
	}

	rule := &RuleError{}
	if !errors.As(outer, rule) {
		t.Fatal("TestNewErrMissingTxOut: Outer should contain RuleError in it")
	}
	if rule.message != "ErrMissingTxOut" {
		t.Fatalf("TestNewErrMissingTxOut: Expected message = 'ErrMissingTxOut', found: '%s'", rule.message)
	}
	if rule.Reason() != "bad-txns-inputs-missingorspent" {
		t.Fatalf("TestNewErrMissingTxOut: unexpected reason '%s'", rule.Reason())
	}

	if outer.Error() != expectedOuterErr {
		t.Fatalf("TestNewErrMissingTxOut: Expected %s. found: %s", expectedOuterErr, outer.Error())
	}
}

func TestWrappedRuleErrorIsSentinel(t *testing.T) {
	err := pkgerrors.Wrapf(ErrSpendTooHigh, "value in %d < value out %d", 10, 11)
	if !errors.Is(err, ErrSpendTooHigh) {
		t.Fatalf("TestWrappedRuleErrorIsSentinel: expected %v to be ErrSpendTooHigh", err)
	}
	if errors.Is(err, ErrBadFees) {
		t.Fatalf("TestWrappedRuleErrorIsSentinel: %v must not match ErrBadFees", err)
	}

	txID := externalapi.DomainTransactionID{1}
	annotated := NewErrInvalidTransaction(&txID, err)
	if !errors.Is(annotated, ErrSpendTooHigh) {
		t.Fatalf("TestWrappedRuleErrorIsSentinel: annotation hid the sentinel")
	}
	var invalidTx ErrInvalidTransaction
	if !errors.As(annotated, &invalidTx) || *invalidTx.TransactionID != txID {
		t.Fatalf("TestWrappedRuleErrorIsSentinel: transaction id not reachable")
	}
}

func TestValidationState(t *testing.T) {
	tests := []struct {
		name              string
		err               error
		mode              ValidationMode
		code              RejectCode
		reason            string
		corrupt           bool
		shouldMarkInvalid bool
	}{
		{name: "nil", err: nil, mode: ModeValid},
		{
			name:              "plain rule error",
			err:               pkgerrors.Wrap(ErrHighHash, "proof of work failed"),
			mode:              ModeInvalid,
			code:              RejectInvalid,
			reason:            "high-hash",
			shouldMarkInvalid: true,
		},
		{
			name:    "corruption",
			err:     pkgerrors.WithStack(ErrBadMerkleRoot),
			mode:    ModeInvalid,
			code:    RejectInvalid,
			reason:  "bad-txnmrklroot",
			corrupt: true,
		},
		{
			name:   "missing parent",
			err:    NewErrMissingParents([]*externalapi.DomainHash{{1}}),
			mode:   ModeError,
			code:   RejectInvalid,
			reason: "prev-blk-not-found",
		},
		{
			name:   "time too new",
			err:    pkgerrors.Wrap(ErrTimeTooNew, "block timestamp too far in the future"),
			mode:   ModeError,
			code:   RejectInvalid,
			reason: "time-too-new",
		},
		{
			name:   "environment",
			err:    pkgerrors.New("disk on fire"),
			mode:   ModeError,
			code:   RejectInternal,
			reason: "internal-error",
		},
		{
			name:              "checkpoint",
			err:               ErrCheckpointMismatch,
			mode:              ModeInvalid,
			code:              RejectCheckpoint,
			reason:            "checkpoint mismatch",
			shouldMarkInvalid: true,
		},
	}

	for _, test := range tests {
		state := NewValidationState(test.err)
		if state.Mode != test.mode {
			t.Errorf("%s: expected mode %s, got %s", test.name, test.mode, state.Mode)
		}
		if state.RejectCode != test.code {
			t.Errorf("%s: expected code %s, got %s", test.name, test.code, state.RejectCode)
		}
		if state.RejectReason != test.reason {
			t.Errorf("%s: expected reason %q, got %q", test.name, test.reason, state.RejectReason)
		}
		if state.Corrupt != test.corrupt {
			t.Errorf("%s: expected corrupt %t, got %t", test.name, test.corrupt, state.Corrupt)
		}
		if state.ShouldMarkInvalid() != test.shouldMarkInvalid {
			t.Errorf("%s: expected ShouldMarkInvalid %t", test.name, test.shouldMarkInvalid)
		}
	}
}
