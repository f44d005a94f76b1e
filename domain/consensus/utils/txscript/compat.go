package txscript

import (
	"github.com/freicoin/freicoind/domain/consensus/model/externalapi"
	"github.com/freicoin/freicoind/domain/consensus/utils/consensushashing"
)

// ScriptVerifyLockHeightNotUnderSignature marks script test vectors that
// were produced for systems without lock heights. It is never part of a
// flag set used to validate blocks or transactions and only selects
// NewCompatTransactionSigChecker in test harnesses.
const ScriptVerifyLockHeightNotUnderSignature ScriptFlags = 1 << 30

// NewCompatTransactionSigChecker returns a checker whose digests leave the
// lock height out, so signatures made by systems without lock heights
// verify. Validation of real transactions must use
// NewTransactionSigChecker.
func NewCompatTransactionSigChecker(tx *externalapi.DomainTransaction, idx int,
	amount int64) *TransactionSigChecker {

	checker := NewTransactionSigChecker(tx, idx, amount, nil, nil)
	checker.extraHash = consensushashing.SigHashNoLockHeight
	return checker
}
