package transactionvalidator

import (
	"github.com/freicoin/freicoind/domain/chaincfg"
	"github.com/freicoin/freicoind/domain/consensus/model/externalapi"
	"github.com/freicoin/freicoind/domain/consensus/ruleerrors"
	"github.com/freicoin/freicoind/domain/consensus/utils/amount"
	"github.com/freicoin/freicoind/domain/consensus/utils/constants"
	"github.com/freicoin/freicoind/domain/consensus/utils/serialization"
	"github.com/pkg/errors"
)

// ValidateTransactionInIsolation runs the checks that need nothing but the
// transaction and the rule set in force.
func (v *transactionValidator) ValidateTransactionInIsolation(tx *externalapi.DomainTransaction,
	rules *chaincfg.RuleSet) error {

	err := checkTransactionInputCount(tx)
	if err != nil {
		return err
	}
	err = checkTransactionOutputCount(tx, rules)
	if err != nil {
		return err
	}
	err = checkTransactionSize(tx, rules)
	if err != nil {
		return err
	}
	err = checkTransactionAmountRanges(tx)
	if err != nil {
		return err
	}
	err = checkDuplicateTransactionInputs(tx)
	if err != nil {
		return err
	}
	if tx.IsCoinBase() {
		return checkCoinbaseScriptLength(tx, rules)
	}
	return checkNullPreviousOutpoints(tx)
}

func checkTransactionInputCount(tx *externalapi.DomainTransaction) error {
	if len(tx.Inputs) == 0 {
		return errors.Wrapf(ruleerrors.ErrNoTxInputs, "transaction has no inputs")
	}
	return nil
}

func checkTransactionOutputCount(tx *externalapi.DomainTransaction, rules *chaincfg.RuleSet) error {
	if len(tx.Outputs) == 0 && !rules.AllowEmptyOutputs {
		return errors.Wrapf(ruleerrors.ErrNoTxOutputs, "transaction has no outputs")
	}
	return nil
}

func checkTransactionSize(tx *externalapi.DomainTransaction, rules *chaincfg.RuleSet) error {
	size := serialization.TransactionSerializeSize(tx, false)
	if size > rules.MaxTransactionSize {
		return errors.Wrapf(ruleerrors.ErrTxTooBig, "serialized transaction is too big - got "+
			"%d, max %d", size, rules.MaxTransactionSize)
	}
	return nil
}

func checkTransactionAmountRanges(tx *externalapi.DomainTransaction) error {
	// Ensure the transaction amounts are in range. Each transaction
	// output must not be negative or more than the max allowed per
	// transaction. Also, the total of all outputs must abide by the same
	// restrictions.
	var totalValue int64
	for _, output := range tx.Outputs {
		if output.Value < 0 {
			return errors.Wrapf(ruleerrors.ErrNegativeTxOutValue, "transaction output has negative "+
				"value of %d", output.Value)
		}
		if output.Value > amount.MaxMoney {
			return errors.Wrapf(ruleerrors.ErrTxOutValueTooHigh, "transaction output value of %d is "+
				"higher than max allowed value of %d", output.Value, amount.MaxMoney)
		}

		var err error
		totalValue, err = amount.Add(totalValue, output.Value)
		if err != nil {
			return errors.Wrapf(ruleerrors.ErrTxOutTotalTooHigh, "total value of all transaction "+
				"outputs exceeds max allowed value of %d", amount.MaxMoney)
		}
	}
	return nil
}

func checkDuplicateTransactionInputs(tx *externalapi.DomainTransaction) error {
	existingTxOut := make(map[externalapi.DomainOutpoint]struct{})
	for _, input := range tx.Inputs {
		if _, exists := existingTxOut[input.PreviousOutpoint]; exists {
			return errors.Wrapf(ruleerrors.ErrDuplicateTxInputs, "transaction "+
				"contains duplicate inputs")
		}
		existingTxOut[input.PreviousOutpoint] = struct{}{}
	}
	return nil
}

func checkCoinbaseScriptLength(tx *externalapi.DomainTransaction, rules *chaincfg.RuleSet) error {
	if !rules.RestrictCoinbaseScript {
		return nil
	}
	scriptLength := len(tx.Inputs[0].SignatureScript)
	if scriptLength < constants.MinCoinbaseScriptLen || scriptLength > constants.MaxCoinbaseScriptLen {
		return errors.Wrapf(ruleerrors.ErrBadCoinbaseScriptLen, "coinbase transaction script "+
			"length of %d is out of range (min: %d, max: %d)", scriptLength,
			constants.MinCoinbaseScriptLen, constants.MaxCoinbaseScriptLen)
	}
	return nil
}

func checkNullPreviousOutpoints(tx *externalapi.DomainTransaction) error {
	for _, input := range tx.Inputs {
		if input.PreviousOutpoint.IsNull() {
			return errors.Wrapf(ruleerrors.ErrNullPrevout, "transaction input refers to a "+
				"previous output that is null")
		}
	}
	return nil
}
