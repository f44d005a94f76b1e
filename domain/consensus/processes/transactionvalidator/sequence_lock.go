package transactionvalidator

import (
	"github.com/freicoin/freicoind/domain/consensus/datastructures/blockindex"
	"github.com/freicoin/freicoind/domain/consensus/model"
	"github.com/freicoin/freicoind/domain/consensus/model/externalapi"
	"github.com/freicoin/freicoind/domain/consensus/utils/constants"
	"github.com/pkg/errors"
)

// CalculateSequenceLock computes the relative lock of tx, a transaction to
// be included in a block on top of prevNode that spends spentCoins. Relative
// locks are only honored for version 2 transactions and later, and only
// once enforceRelativeLocks is set.
func (v *transactionValidator) CalculateSequenceLock(tx *externalapi.DomainTransaction,
	spentCoins []*externalapi.Coin, prevNode *blockindex.Node, enforceRelativeLocks bool) (*model.SequenceLock, error) {

	// A value of -1 for each relative lock type represents a relative time
	// lock value that will allow a transaction to be included in a block
	// at any given height or time.
	sequenceLock := &model.SequenceLock{Seconds: -1, BlockHeight: -1}

	// Sequence locks don't apply to coinbase transactions Therefore, we
	// return sequence lock values of -1 indicating that this transaction
	// can be included within a block at any given height or time.
	if !enforceRelativeLocks || tx.IsCoinBase() || tx.Version < 2 {
		return sequenceLock, nil
	}
	if len(spentCoins) != len(tx.Inputs) {
		return nil, errors.Errorf("got %d spent coins for %d inputs", len(spentCoins), len(tx.Inputs))
	}

	for i, input := range tx.Inputs {
		// Given a sequence number, we apply the relative time lock
		// mask in order to obtain the time lock delta required before
		// this input can be spent.
		sequenceNum := input.Sequence
		relativeLock := int64(sequenceNum & constants.SequenceLockTimeMask)
		coinHeight := spentCoins[i].BlockHeight

		switch {
		// Relative time locks are disabled for this input, so we can
		// skip any further calculation.
		case sequenceNum&constants.SequenceLockTimeDisabled == constants.SequenceLockTimeDisabled:
			continue
		case sequenceNum&constants.SequenceLockTimeIsSeconds == constants.SequenceLockTimeIsSeconds:
			// This input requires a relative time lock expressed
			// in seconds before it can be spent. It counts from the
			// median time past of the block prior to the one that
			// confirmed the coin.
			prevInputHeight := coinHeight - 1
			if prevInputHeight < 0 {
				prevInputHeight = 0
			}
			blockNode := prevNode.Ancestor(prevInputHeight)
			if blockNode == nil {
				return nil, errors.Errorf("no ancestor at height %d for the coin spent by input %d",
					prevInputHeight, i)
			}
			medianTime := blockNode.MedianTimePast()

			// Time based relative time-locks have a time granularity of
			// constants.SequenceLockTimeGranularity, so we shift left by this
			// amount to convert to the proper relative time-lock. We also
			// subtract one from the relative lock to maintain the original
			// lockTime semantics.
			timeLockSeconds := (relativeLock << constants.SequenceLockTimeGranularity) - 1
			timeLock := medianTime + timeLockSeconds
			if timeLock > sequenceLock.Seconds {
				sequenceLock.Seconds = timeLock
			}
		default:
			// The relative lock-time for this input is expressed
			// in blocks so we calculate the relative offset from
			// the coin's height as its converted absolute lock-time.
			// We subtract one from the relative lock in order to
			// maintain the original lockTime semantics.
			blockHeight := int64(coinHeight) + relativeLock - 1
			if blockHeight > int64(sequenceLock.BlockHeight) {
				sequenceLock.BlockHeight = int32(blockHeight)
			}
		}
	}
	return sequenceLock, nil
}

// IsSequenceLockActive determines if a transaction's sequence locks have
// been met, meaning that all the inputs of a given transaction have reached
// a height or time sufficient for their relative lock-time maturity.
func (v *transactionValidator) IsSequenceLockActive(sequenceLock *model.SequenceLock, blockHeight int32,
	medianTimePast int64) bool {

	// If either the seconds, or height relative-lock time has not yet
	// reached, then the transaction is not yet mature according to its
	// sequence locks.
	if sequenceLock.Seconds >= medianTimePast || sequenceLock.BlockHeight >= blockHeight {
		return false
	}
	return true
}
