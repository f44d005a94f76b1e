package ruleerrors

import (
	"fmt"

	"github.com/freicoin/freicoind/domain/consensus/model/externalapi"
	"github.com/pkg/errors"
)

// These constants are used to identify a specific RuleError.
var (
	// ErrDuplicateBlock indicates a block with the same hash already
	// exists.
	ErrDuplicateBlock = newRuleError("ErrDuplicateBlock", RejectDuplicate, "duplicate")

	// ErrKnownInvalid indicates the block was already found invalid.
	ErrKnownInvalid = newRuleError("ErrKnownInvalid", RejectDuplicate, "duplicate-invalid")

	// ErrHighHash indicates the block hash is above the target its
	// header claims.
	ErrHighHash = newRuleError("ErrHighHash", RejectInvalid, "high-hash")

	// ErrTargetOutOfRange indicates the compact target in the header is
	// negative, overflows, is zero or is above the network's
	// proof-of-work limit.
	ErrTargetOutOfRange = newRuleError("ErrTargetOutOfRange", RejectInvalid, "bad-diffbits-range")

	// ErrUnexpectedDifficulty indicates specified bits do not align with
	// the value computed by the retarget policy.
	ErrUnexpectedDifficulty = newRuleError("ErrUnexpectedDifficulty", RejectInvalid, "bad-diffbits")

	// ErrTimeTooOld indicates the time is not after the median time of
	// the previous blocks.
	ErrTimeTooOld = newRuleError("ErrTimeTooOld", RejectInvalid, "time-too-old")

	// ErrTimeTooNew indicates the block timestamp is too far in the
	// future. The block may become acceptable later, so it is not
	// marked invalid.
	ErrTimeTooNew = newIndeterminateRuleError("ErrTimeTooNew", RejectInvalid, "time-too-new")

	// ErrBlockVersionTooOld indicates the block version is no longer
	// accepted since the majority of the network has upgraded.
	ErrBlockVersionTooOld = newRuleError("ErrBlockVersionTooOld", RejectObsolete, "bad-version")

	// ErrCheckpointMismatch indicates a block at a checkpointed height
	// does not match the checkpoint.
	ErrCheckpointMismatch = newRuleError("ErrCheckpointMismatch", RejectCheckpoint, "checkpoint mismatch")

	// ErrForkTooOld indicates a block forks the chain below the last
	// checkpoint.
	ErrForkTooOld = newRuleError("ErrForkTooOld", RejectCheckpoint, "bad-fork-prior-to-checkpoint")

	// ErrBIP34HashMismatch indicates the block at the BIP34 activation
	// height is not the one the network parameters name.
	ErrBIP34HashMismatch = newRuleError("ErrBIP34HashMismatch", RejectCheckpoint, "bad-bip34-hash")

	// ErrInvalidAncestorBlock indicates that an ancestor of this block
	// has already failed validation.
	ErrInvalidAncestorBlock = newRuleError("ErrInvalidAncestorBlock", RejectInvalid, "bad-prevblk")

	// ErrBadMerkleRoot indicates the calculated merkle root does not
	// match the header.
	ErrBadMerkleRoot = newCorruptionRuleError("ErrBadMerkleRoot", RejectInvalid, "bad-txnmrklroot")

	// ErrMutatedMerkle indicates the transaction list has a duplicated
	// tail that leaves the merkle root unchanged.
	ErrMutatedMerkle = newCorruptionRuleError("ErrMutatedMerkle", RejectInvalid, "bad-txns-duplicate")

	// ErrNoTransactions indicates the block has no transactions. A valid
	// block must have at least the coinbase transaction.
	ErrNoTransactions = newRuleError("ErrNoTransactions", RejectInvalid, "bad-blk-length")

	// ErrBlockTooBig indicates the stripped block size is above the
	// limit.
	ErrBlockTooBig = newRuleError("ErrBlockTooBig", RejectInvalid, "bad-blk-length")

	// ErrBlockWeightTooHigh indicates the block weight is above the
	// limit.
	ErrBlockWeightTooHigh = newRuleError("ErrBlockWeightTooHigh", RejectInvalid, "bad-blk-weight")

	// ErrFirstTxNotCoinbase indicates the first transaction in a block
	// is not a coinbase transaction.
	ErrFirstTxNotCoinbase = newRuleError("ErrFirstTxNotCoinbase", RejectInvalid, "bad-cb-missing")

	// ErrMultipleCoinbases indicates a block contains more than one
	// coinbase transaction.
	ErrMultipleCoinbases = newRuleError("ErrMultipleCoinbases", RejectInvalid, "bad-cb-multiple")

	// ErrTooManySigOps indicates the signature operation cost of a block
	// is above the limit.
	ErrTooManySigOps = newRuleError("ErrTooManySigOps", RejectInvalid, "bad-blk-sigops")

	// ErrUnfinalizedTx indicates a block holds a transaction that is not
	// final at the block's height and time.
	ErrUnfinalizedTx = newRuleError("ErrUnfinalizedTx", RejectInvalid, "bad-txns-nonfinal")

	// ErrUnfinalizedSequenceLock indicates a transaction's relative lock
	// has not yet elapsed.
	ErrUnfinalizedSequenceLock = newRuleError("ErrUnfinalizedSequenceLock", RejectInvalid, "bad-txns-nonfinal")

	// ErrBadCoinbaseHeight indicates the coinbase does not start with the
	// block height.
	ErrBadCoinbaseHeight = newRuleError("ErrBadCoinbaseHeight", RejectInvalid, "bad-cb-height")

	// ErrBadCoinbaseLockHeight indicates the coinbase lock height is not
	// the block height.
	ErrBadCoinbaseLockHeight = newRuleError("ErrBadCoinbaseLockHeight", RejectInvalid, "bad-cb-lockheight")

	// ErrBadCoinbaseLockTime indicates the coinbase lock time selects a
	// different rule set than the median time past of the parent.
	ErrBadCoinbaseLockTime = newRuleError("ErrBadCoinbaseLockTime", RejectInvalid, "bad-cb-locktime")

	// ErrBadCoinbaseAmount indicates the coinbase claims more than the
	// block subsidy plus fees.
	ErrBadCoinbaseAmount = newRuleError("ErrBadCoinbaseAmount", RejectInvalid, "bad-cb-amount")

	// ErrBadWitnessNonceSize indicates the coinbase witness is not a
	// single 32-byte reserved value.
	ErrBadWitnessNonceSize = newCorruptionRuleError("ErrBadWitnessNonceSize", RejectInvalid, "bad-witness-nonce-size")

	// ErrBadWitnessCommitment indicates the witness commitment in the
	// coinbase does not match the block's witness data.
	ErrBadWitnessCommitment = newCorruptionRuleError("ErrBadWitnessCommitment", RejectInvalid, "bad-witness-merkle-match")

	// ErrUnexpectedWitness indicates witness data in a block that may
	// not carry any.
	ErrUnexpectedWitness = newCorruptionRuleError("ErrUnexpectedWitness", RejectInvalid, "unexpected-witness")

	// ErrOverwriteTx indicates a transaction would overwrite an unspent
	// output of an earlier transaction with the same id.
	ErrOverwriteTx = newRuleError("ErrOverwriteTx", RejectInvalid, "bad-txns-BIP30")

	// ErrNoTxInputs indicates a transaction does not have any inputs.
	ErrNoTxInputs = newRuleError("ErrNoTxInputs", RejectInvalid, "bad-txns-vin-empty")

	// ErrNoTxOutputs indicates a transaction does not have any outputs.
	ErrNoTxOutputs = newRuleError("ErrNoTxOutputs", RejectInvalid, "bad-txns-vout-empty")

	// ErrTxTooBig indicates a transaction's stripped size is above the
	// block size limit.
	ErrTxTooBig = newRuleError("ErrTxTooBig", RejectInvalid, "bad-txns-oversize")

	// ErrNegativeTxOutValue indicates an output with a negative value.
	ErrNegativeTxOutValue = newRuleError("ErrNegativeTxOutValue", RejectInvalid, "bad-txns-vout-negative")

	// ErrTxOutValueTooHigh indicates an output value above the money
	// supply limit.
	ErrTxOutValueTooHigh = newRuleError("ErrTxOutValueTooHigh", RejectInvalid, "bad-txns-vout-toolarge")

	// ErrTxOutTotalTooHigh indicates the sum of the outputs is above the
	// money supply limit.
	ErrTxOutTotalTooHigh = newRuleError("ErrTxOutTotalTooHigh", RejectInvalid, "bad-txns-txouttotal-toolarge")

	// ErrDuplicateTxInputs indicates a transaction references the same
	// input more than once.
	ErrDuplicateTxInputs = newRuleError("ErrDuplicateTxInputs", RejectInvalid, "bad-txns-inputs-duplicate")

	// ErrBadCoinbaseScriptLen indicates the coinbase signature script is
	// outside the allowed length range.
	ErrBadCoinbaseScriptLen = newRuleError("ErrBadCoinbaseScriptLen", RejectInvalid, "bad-cb-length")

	// ErrNullPrevout indicates a non-coinbase input spends the null
	// outpoint.
	ErrNullPrevout = newRuleError("ErrNullPrevout", RejectInvalid, "bad-txns-prevout-null")

	// ErrImmatureSpend indicates a transaction is attempting to spend a
	// coinbase that has not yet reached the required maturity.
	ErrImmatureSpend = newRuleError("ErrImmatureSpend", RejectInvalid, "bad-txns-premature-spend-of-coinbase")

	// ErrBadInputValue indicates an input value or the input total is
	// out of range.
	ErrBadInputValue = newRuleError("ErrBadInputValue", RejectInvalid, "bad-txns-inputvalues-outofrange")

	// ErrLockHeightBelowRefHeight indicates a transaction spends a coin
	// whose reference height is above the transaction's lock height.
	ErrLockHeightBelowRefHeight = newRuleError("ErrLockHeightBelowRefHeight", RejectInvalid, "bad-txns-lock-height")

	// ErrSpendTooHigh indicates a transaction's outputs, adjusted for
	// demurrage, are worth more than its adjusted inputs.
	ErrSpendTooHigh = newRuleError("ErrSpendTooHigh", RejectInvalid, "bad-txns-in-belowout")

	// ErrBadFees indicates the fees of a transaction or a block are out
	// of range.
	ErrBadFees = newRuleError("ErrBadFees", RejectInvalid, "bad-txns-fee-outofrange")

	// ErrScriptValidation indicates the result of executing transaction
	// script failed.
	ErrScriptValidation = newRuleError("ErrScriptValidation", RejectInvalid, "mandatory-script-verify-flag-failed")
)

// RuleError identifies a rule violation. It is used to indicate that
// processing of a block or transaction failed due to one of the many
// validation rules. The caller can use errors.As to determine if a failure
// was specifically due to a rule violation.
type RuleError struct {
	message       string
	rejectCode    RejectCode
	reason        string
	corruption    bool
	indeterminate bool
	inner         error
}

// Error satisfies the error interface and prints human-readable errors.
func (e RuleError) Error() string {
	if e.inner != nil {
		return e.message + ": " + e.inner.Error()
	}
	return e.message
}

// Unwrap satisfies the errors.Unwrap interface
func (e RuleError) Unwrap() error {
	return e.inner
}

// Cause satisfies the github.com/pkg/errors.Cause interface
func (e RuleError) Cause() error {
	return e.inner
}

// RejectCode returns the reject code peers are sent for this error.
func (e RuleError) RejectCode() RejectCode {
	return e.rejectCode
}

// Reason returns the machine-readable reject reason.
func (e RuleError) Reason() string {
	return e.reason
}

// IsCorruption returns whether the error may stem from data corrupted in
// transit rather than from an invalid block.
func (e RuleError) IsCorruption() bool {
	return e.corruption
}

// IsIndeterminate returns whether the condition may resolve itself later.
func (e RuleError) IsIndeterminate() bool {
	return e.indeterminate
}

func newRuleError(message string, rejectCode RejectCode, reason string) RuleError {
	return RuleError{message: message, rejectCode: rejectCode, reason: reason}
}

func newCorruptionRuleError(message string, rejectCode RejectCode, reason string) RuleError {
	return RuleError{message: message, rejectCode: rejectCode, reason: reason, corruption: true}
}

func newIndeterminateRuleError(message string, rejectCode RejectCode, reason string) RuleError {
	return RuleError{message: message, rejectCode: rejectCode, reason: reason, indeterminate: true}
}

// ErrMissingTxOut indicates a transaction output referenced by an input
// either does not exist or has already been spent.
type ErrMissingTxOut struct {
	MissingOutpoints []*externalapi.DomainOutpoint
}

func (e ErrMissingTxOut) Error() string {
	return fmt.Sprintf("missing the following outpoint: %v", e.MissingOutpoints)
}

// NewErrMissingTxOut creates a new ErrMissingTxOut error wrapped in a
// RuleError
func NewErrMissingTxOut(missingOutpoints []*externalapi.DomainOutpoint) error {
	return errors.WithStack(RuleError{
		message:    "ErrMissingTxOut",
		rejectCode: RejectInvalid,
		reason:     "bad-txns-inputs-missingorspent",
		inner:      ErrMissingTxOut{missingOutpoints},
	})
}

// ErrMissingParents indicates a block points to an unknown parent. The block
// is held until the parent arrives.
type ErrMissingParents struct {
	MissingParentHashes []*externalapi.DomainHash
}

func (e ErrMissingParents) Error() string {
	return fmt.Sprintf("missing the following parent hashes: %v", e.MissingParentHashes)
}

// NewErrMissingParents creates a new ErrMissingParents error wrapped in a
// RuleError
func NewErrMissingParents(missingParentHashes []*externalapi.DomainHash) error {
	return errors.WithStack(RuleError{
		message:       "ErrMissingParents",
		rejectCode:    RejectInvalid,
		reason:        "prev-blk-not-found",
		indeterminate: true,
		inner:         ErrMissingParents{missingParentHashes},
	})
}

// ErrInvalidTransaction ties a rule violation to the transaction of the
// block that caused it.
type ErrInvalidTransaction struct {
	TransactionID *externalapi.DomainTransactionID
	Err           error
}

func (e ErrInvalidTransaction) Error() string {
	return fmt.Sprintf("transaction %s: %s", e.TransactionID, e.Err)
}

// Unwrap satisfies the errors.Unwrap interface
func (e ErrInvalidTransaction) Unwrap() error {
	return e.Err
}

// NewErrInvalidTransaction annotates err with the id of the transaction that
// caused it. The RuleError inside err stays reachable through errors.As.
func NewErrInvalidTransaction(transactionID *externalapi.DomainTransactionID, err error) error {
	return errors.WithStack(ErrInvalidTransaction{TransactionID: transactionID, Err: err})
}

// IsRuleError returns whether err is or wraps a RuleError.
func IsRuleError(err error) bool {
	var ruleErr RuleError
	return errors.As(err, &ruleErr)
}
