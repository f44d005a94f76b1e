package transactionvalidator

import (
	"context"

	"github.com/freicoin/freicoind/domain/consensus/metrics"
	"github.com/freicoin/freicoind/domain/consensus/model/externalapi"
	"github.com/freicoin/freicoind/domain/consensus/ruleerrors"
	"github.com/freicoin/freicoind/domain/consensus/utils/consensushashing"
	"github.com/freicoin/freicoind/domain/consensus/utils/txscript"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

// ValidateScripts verifies the input scripts of txs under flags.
// spentCoins[i] holds the coins spent by txs[i], and is nil for a coinbase.
// Inputs are checked concurrently and the first failure cancels the rest.
func (v *transactionValidator) ValidateScripts(ctx context.Context, txs []*externalapi.DomainTransaction,
	spentCoins [][]*externalapi.Coin, flags txscript.ScriptFlags) error {

	if len(spentCoins) != len(txs) {
		return errors.Errorf("got spent coins for %d transactions out of %d", len(spentCoins), len(txs))
	}

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(v.scriptWorkers)

	checks := 0
	for txIndex, tx := range txs {
		if tx.IsCoinBase() {
			continue
		}
		coins := spentCoins[txIndex]
		if len(coins) != len(tx.Inputs) {
			return errors.Errorf("got %d spent coins for the %d inputs of transaction %d",
				len(coins), len(tx.Inputs), txIndex)
		}

		precomputed := consensushashing.NewPrecomputedTransactionData(tx)
		for inputIndex := range tx.Inputs {
			tx, inputIndex, coin := tx, inputIndex, coins[inputIndex]
			checks++
			group.Go(func() error {
				if err := groupCtx.Err(); err != nil {
					return err
				}
				return v.validateInputScript(tx, inputIndex, coin, precomputed, flags)
			})
		}
	}

	err := group.Wait()
	metrics.ScriptChecks(checks)
	return err
}

func (v *transactionValidator) validateInputScript(tx *externalapi.DomainTransaction, inputIndex int,
	coin *externalapi.Coin, precomputed *consensushashing.PrecomputedTransactionData,
	flags txscript.ScriptFlags) error {

	input := tx.Inputs[inputIndex]
	checker := txscript.NewTransactionSigChecker(tx, inputIndex, coin.Value, precomputed, v.sigCache)
	err := txscript.VerifyScript(input.SignatureScript, coin.ScriptPublicKey, input.Witness, flags, checker)
	if err != nil {
		return ruleerrors.NewErrInvalidTransaction(consensushashing.TransactionID(tx),
			errors.Wrapf(ruleerrors.ErrScriptValidation, "failed to validate input %d which "+
				"references output %s - %s (input script bytes %x, prev output script bytes %x)",
				inputIndex, input.PreviousOutpoint, err, input.SignatureScript, coin.ScriptPublicKey))
	}
	return nil
}
