package model

import (
	"context"

	"github.com/freicoin/freicoind/domain/chaincfg"
	"github.com/freicoin/freicoind/domain/consensus/datastructures/blockindex"
	"github.com/freicoin/freicoind/domain/consensus/model/externalapi"
	"github.com/freicoin/freicoind/domain/consensus/utils/txscript"
)

// SequenceLock is the earliest height and median time past at which a
// transaction's relative locks are satisfied. A value of -1 means no lock.
// The lock holds while the block height or median time past is less than
// or equal to the value.
type SequenceLock struct {
	Seconds     int64
	BlockHeight int32
}

// TransactionValidator exposes a set of validation classes, after which
// it's possible to determine whether a transaction is valid
type TransactionValidator interface {
	ValidateTransactionInIsolation(tx *externalapi.DomainTransaction, rules *chaincfg.RuleSet) error
	IsFinalized(tx *externalapi.DomainTransaction, blockHeight int32, blockTime int64) bool
	ValidateTransactionInContext(tx *externalapi.DomainTransaction, view UTXOView, spendHeight int32,
		rules *chaincfg.RuleSet) (fee int64, spentCoins []*externalapi.Coin, err error)
	CalculateSequenceLock(tx *externalapi.DomainTransaction, spentCoins []*externalapi.Coin,
		prevNode *blockindex.Node, enforceRelativeLocks bool) (*SequenceLock, error)
	IsSequenceLockActive(lock *SequenceLock, blockHeight int32, medianTimePast int64) bool
	ValidateScripts(ctx context.Context, txs []*externalapi.DomainTransaction,
		spentCoins [][]*externalapi.Coin, flags txscript.ScriptFlags) error
}
