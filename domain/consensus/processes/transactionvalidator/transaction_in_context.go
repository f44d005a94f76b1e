package transactionvalidator

import (
	"github.com/freicoin/freicoind/domain/chaincfg"
	"github.com/freicoin/freicoind/domain/consensus/model"
	"github.com/freicoin/freicoind/domain/consensus/model/externalapi"
	"github.com/freicoin/freicoind/domain/consensus/ruleerrors"
	"github.com/freicoin/freicoind/domain/consensus/utils/amount"
	"github.com/freicoin/freicoind/domain/consensus/utils/constants"
	"github.com/pkg/errors"
)

// IsFinalized determines whether or not a transaction is finalized in a
// block at blockHeight whose lock time cutoff is blockTime.
func (v *transactionValidator) IsFinalized(tx *externalapi.DomainTransaction, blockHeight int32,
	blockTime int64) bool {

	// A transaction declaring a reference height above the block cannot
	// be included in it, whatever its lock time.
	if int64(tx.LockHeight) > int64(blockHeight) {
		return false
	}

	// Lock time of zero means the transaction is finalized.
	lockTime := int64(tx.LockTime)
	if lockTime == 0 {
		return true
	}

	// The lock time field of a transaction is either a block height at
	// which the transaction is finalized or a timestamp depending on if the
	// value is before the constants.LockTimeThreshold. When it is under the
	// threshold it is a block height.
	blockTimeOrHeight := blockTime
	if lockTime < constants.LockTimeThreshold {
		blockTimeOrHeight = int64(blockHeight)
	}
	if lockTime < blockTimeOrHeight {
		return true
	}

	// At this point, the transaction's lock time hasn't occurred yet, but
	// the transaction might still be finalized if the sequence number
	// for all transaction inputs is maxed out.
	for _, input := range tx.Inputs {
		if input.Sequence != constants.MaxTxInSequenceNum {
			return false
		}
	}
	return true
}

// ValidateTransactionInContext validates a non-coinbase transaction against
// the coins it spends in view, as if included in a block at spendHeight. It
// returns the demurrage-adjusted fee and the spent coins in input order.
// view is only read.
func (v *transactionValidator) ValidateTransactionInContext(tx *externalapi.DomainTransaction,
	view model.UTXOView, spendHeight int32, rules *chaincfg.RuleSet) (int64, []*externalapi.Coin, error) {

	spentCoins, err := fetchSpentCoins(tx, view)
	if err != nil {
		return 0, nil, err
	}

	if int64(tx.LockHeight) > int64(spendHeight) {
		return 0, nil, errors.Wrapf(ruleerrors.ErrUnfinalizedTx, "transaction lock height %d is "+
			"above the spend height %d", tx.LockHeight, spendHeight)
	}

	err = checkTransactionCoinbaseMaturity(tx, spentCoins, spendHeight, rules)
	if err != nil {
		return 0, nil, err
	}
	err = checkTransactionReferenceHeights(tx, spentCoins, rules)
	if err != nil {
		return 0, nil, err
	}

	adjustedIn, err := v.adjustedInputValue(spentCoins, spendHeight)
	if err != nil {
		return 0, nil, err
	}
	adjustedOut := v.adjustedOutputValue(tx, spendHeight)

	// Ensure the transaction does not spend more than its inputs are worth
	// at the spend height.
	if adjustedIn < adjustedOut {
		return 0, nil, errors.Wrapf(ruleerrors.ErrSpendTooHigh, "demurrage-adjusted value of all "+
			"transaction inputs is %d which is less than the adjusted amount spent of %d",
			adjustedIn, adjustedOut)
	}
	fee := adjustedIn - adjustedOut
	if !amount.MoneyRange(fee) {
		return 0, nil, errors.Wrapf(ruleerrors.ErrBadFees, "transaction fee of %d is out of range", fee)
	}
	return fee, spentCoins, nil
}

func fetchSpentCoins(tx *externalapi.DomainTransaction, view model.UTXOView) ([]*externalapi.Coin, error) {
	spentCoins := make([]*externalapi.Coin, len(tx.Inputs))
	var missingOutpoints []*externalapi.DomainOutpoint
	for i, input := range tx.Inputs {
		coin, found, err := view.GetCoin(&input.PreviousOutpoint)
		if err != nil {
			return nil, err
		}
		if !found {
			outpoint := input.PreviousOutpoint
			missingOutpoints = append(missingOutpoints, &outpoint)
			continue
		}
		spentCoins[i] = coin
	}
	if len(missingOutpoints) > 0 {
		return nil, ruleerrors.NewErrMissingTxOut(missingOutpoints)
	}
	return spentCoins, nil
}

func checkTransactionCoinbaseMaturity(tx *externalapi.DomainTransaction, spentCoins []*externalapi.Coin,
	spendHeight int32, rules *chaincfg.RuleSet) error {

	for i, coin := range spentCoins {
		if !coin.IsCoinbase {
			continue
		}
		if spendHeight-coin.BlockHeight < rules.CoinbaseMaturity {
			return errors.Wrapf(ruleerrors.ErrImmatureSpend, "tried to spend coinbase "+
				"transaction output %s from height %d at height %d before required "+
				"maturity of %d blocks", tx.Inputs[i].PreviousOutpoint, coin.BlockHeight,
				spendHeight, rules.CoinbaseMaturity)
		}
	}
	return nil
}

// checkTransactionReferenceHeights ensures no coin is spent into a
// transaction denominated at an earlier height than the coin itself.
func checkTransactionReferenceHeights(tx *externalapi.DomainTransaction, spentCoins []*externalapi.Coin,
	rules *chaincfg.RuleSet) error {

	for i, coin := range spentCoins {
		if tx.LockHeight >= coin.RefHeight {
			continue
		}
		if rules.ZeroValueRefHeightExempt && coin.Value == 0 {
			continue
		}
		return errors.Wrapf(ruleerrors.ErrLockHeightBelowRefHeight, "transaction lock height %d "+
			"is below the reference height %d of output %s", tx.LockHeight, coin.RefHeight,
			tx.Inputs[i].PreviousOutpoint)
	}
	return nil
}

func (v *transactionValidator) adjustValue(value int64, from uint32, spendHeight int32) int64 {
	if int64(from) >= int64(spendHeight) {
		return value
	}
	distance := uint32(int64(spendHeight) - int64(from))
	if spendHeight < v.params.TruncateInputsActivationHeight {
		return amount.TimeAdjustValueForwardRounded(value, distance)
	}
	return amount.TimeAdjustValueForward(value, distance)
}

func (v *transactionValidator) adjustedInputValue(spentCoins []*externalapi.Coin, spendHeight int32) (int64, error) {
	var total int64
	for _, coin := range spentCoins {
		if !amount.MoneyRange(coin.Value) {
			return 0, errors.Wrapf(ruleerrors.ErrBadInputValue, "input value of %d is out of range",
				coin.Value)
		}

		var err error
		total, err = amount.Add(total, v.adjustValue(coin.Value, coin.RefHeight, spendHeight))
		if err != nil {
			return 0, errors.Wrapf(ruleerrors.ErrBadInputValue, "total value of all transaction "+
				"inputs is higher than max allowed value of %d", amount.MaxMoney)
		}
	}
	return total, nil
}

// adjustedOutputValue cannot overflow: the output total was range checked
// in isolation and demurrage only shrinks values.
func (v *transactionValidator) adjustedOutputValue(tx *externalapi.DomainTransaction, spendHeight int32) int64 {
	var total int64
	for _, output := range tx.Outputs {
		total += v.adjustValue(output.Value, tx.LockHeight, spendHeight)
	}
	return total
}
