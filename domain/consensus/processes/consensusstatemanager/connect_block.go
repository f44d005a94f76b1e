package consensusstatemanager

import (
	"context"

	"github.com/freicoin/freicoind/domain/consensus/datastructures/blockindex"
	"github.com/freicoin/freicoind/domain/consensus/model"
	"github.com/freicoin/freicoind/domain/consensus/model/externalapi"
	"github.com/freicoin/freicoind/domain/consensus/ruleerrors"
	"github.com/freicoin/freicoind/domain/consensus/utils/amount"
	"github.com/freicoin/freicoind/domain/consensus/utils/consensushashing"
	"github.com/freicoin/freicoind/domain/consensus/utils/constants"
	"github.com/freicoin/freicoind/domain/consensus/utils/txscript"
	"github.com/freicoin/freicoind/domain/consensus/utils/utxo"
	"github.com/freicoin/freicoind/infrastructure/logger"
	"github.com/pkg/errors"
)

// ConnectBlock applies block, whose index node is node, to view and returns
// the undo record that reverses it. view must be current as of the parent
// of the block. On error view is left partially modified, so callers pass
// an overlay they can drop.
func (csm *consensusStateManager) ConnectBlock(ctx context.Context, view model.UTXOView,
	block *externalapi.DomainBlock, node *blockindex.Node) (*externalapi.BlockUndo, error) {

	onEnd := logger.LogAndMeasureExecutionTime(log, "ConnectBlock")
	defer onEnd()

	bestHash, err := view.GetBestBlockHash()
	if err != nil {
		return nil, err
	}
	prevNode := node.Parent
	expectedBest := &externalapi.DomainHash{}
	if prevNode != nil {
		expectedBest = &prevNode.Hash
	}
	if !bestHash.Equal(expectedBest) {
		return nil, errors.Errorf("cannot connect block %s to a view current as of %s", node.Hash, bestHash)
	}

	undo := &externalapi.BlockUndo{}

	// The outputs of the genesis coinbase are not spendable.
	if prevNode == nil {
		return undo, view.SetBestBlockHash(&node.Hash)
	}

	rules := csm.params.Rules(csm.params.IsProtocolCleanupActiveAtMedianTime(prevNode.MedianTimePast()))
	flags, err := csm.blockValidator.ScriptFlags(node)
	if err != nil {
		return nil, err
	}
	enforceRelativeLocks, err := csm.blockValidator.EnforceRelativeLocks(prevNode)
	if err != nil {
		return nil, err
	}
	enforceOverwrite := node.Height < csm.params.BIP34Height

	var fees int64
	var sigOpCost int64
	var scriptTxs []*externalapi.DomainTransaction
	var scriptCoins [][]*externalapi.Coin

	for _, tx := range block.Transactions {
		txID := consensushashing.TransactionID(tx)

		if enforceOverwrite {
			err := checkOverwrite(view, tx, txID)
			if err != nil {
				return nil, ruleerrors.NewErrInvalidTransaction(txID, err)
			}
		}

		var spentCoins []*externalapi.Coin
		if !tx.IsCoinBase() {
			var fee int64
			fee, spentCoins, err = csm.transactionValidator.ValidateTransactionInContext(tx, view, node.Height, rules)
			if err != nil {
				return nil, ruleerrors.NewErrInvalidTransaction(txID, err)
			}

			err = csm.checkSequenceLocks(tx, spentCoins, prevNode, enforceRelativeLocks)
			if err != nil {
				return nil, ruleerrors.NewErrInvalidTransaction(txID, err)
			}

			fees, err = amount.Add(fees, fee)
			if err != nil || !amount.MoneyRange(fees) {
				return nil, errors.Wrapf(ruleerrors.ErrBadFees, "accumulated fees of block %s are "+
					"out of range", node.Hash)
			}
		}

		sigOpCost += transactionSigOpCost(tx, spentCoins, flags)
		if rules.MaxBlockSigOpsCost != 0 && sigOpCost > rules.MaxBlockSigOpsCost {
			return nil, errors.Wrapf(ruleerrors.ErrTooManySigOps, "block %s has a signature "+
				"operation cost above the limit of %d", node.Hash, rules.MaxBlockSigOpsCost)
		}

		if !tx.IsCoinBase() {
			txUndo := &externalapi.TxUndo{SpentCoins: make([]*externalapi.Coin, 0, len(tx.Inputs))}
			for _, input := range tx.Inputs {
				coin, found, err := view.SpendCoin(&input.PreviousOutpoint)
				if err != nil {
					return nil, err
				}
				if !found {
					return nil, ruleerrors.NewErrInvalidTransaction(txID,
						ruleerrors.NewErrMissingTxOut([]*externalapi.DomainOutpoint{&input.PreviousOutpoint}))
				}
				txUndo.SpentCoins = append(txUndo.SpentCoins, coin)
			}
			undo.TxUndos = append(undo.TxUndos, txUndo)
			scriptTxs = append(scriptTxs, tx)
			scriptCoins = append(scriptCoins, spentCoins)
		}

		err = utxo.AddTransactionCoins(view, tx, node.Height, tx.IsCoinBase())
		if err != nil {
			return nil, err
		}
	}

	err = csm.coinbaseManager.ValidateCoinbaseClaim(block.Transactions[0], node.Height, fees)
	if err != nil {
		return nil, err
	}

	if csm.skipScripts(node) {
		log.Debugf("Skipping script checks of block %s below the assumed valid block", node.Hash)
	} else {
		err = csm.transactionValidator.ValidateScripts(ctx, scriptTxs, scriptCoins, flags)
		if err != nil {
			return nil, err
		}
	}

	err = view.SetBestBlockHash(&node.Hash)
	if err != nil {
		return nil, err
	}
	return undo, nil
}

// checkOverwrite rejects transactions whose outputs would replace coins
// that are still unspent.
func checkOverwrite(view model.UTXOView, tx *externalapi.DomainTransaction,
	txID *externalapi.DomainTransactionID) error {

	for i := range tx.Outputs {
		_, found, err := view.GetCoin(externalapi.NewDomainOutpoint(txID, uint32(i)))
		if err != nil {
			return err
		}
		if found {
			return errors.Wrapf(ruleerrors.ErrOverwriteTx, "transaction %s overwrites the unspent "+
				"output %d", txID, i)
		}
	}
	return nil
}

func (csm *consensusStateManager) checkSequenceLocks(tx *externalapi.DomainTransaction,
	spentCoins []*externalapi.Coin, prevNode *blockindex.Node, enforceRelativeLocks bool) error {

	sequenceLock, err := csm.transactionValidator.CalculateSequenceLock(tx, spentCoins, prevNode, enforceRelativeLocks)
	if err != nil {
		return err
	}
	height := prevNode.Height + 1
	medianTimePast := prevNode.MedianTimePast()
	if !csm.transactionValidator.IsSequenceLockActive(sequenceLock, height, medianTimePast) {
		return errors.Wrapf(ruleerrors.ErrUnfinalizedSequenceLock, "transaction sequence locks "+
			"(height %d, time %d) are not satisfied at height %d and median time %d",
			sequenceLock.BlockHeight, sequenceLock.Seconds, height, medianTimePast)
	}
	return nil
}

// transactionSigOpCost is the signature operation cost of tx: legacy and
// pay-to-script-hash operations scaled by the witness scale factor, plus
// witness operations. spentCoins is nil for a coinbase.
func transactionSigOpCost(tx *externalapi.DomainTransaction, spentCoins []*externalapi.Coin,
	flags txscript.ScriptFlags) int64 {

	legacy := 0
	for _, input := range tx.Inputs {
		legacy += txscript.GetSigOpCount(input.SignatureScript)
	}
	for _, output := range tx.Outputs {
		legacy += txscript.GetSigOpCount(output.ScriptPublicKey)
	}
	cost := int64(legacy) * constants.WitnessScaleFactor
	if tx.IsCoinBase() {
		return cost
	}

	bip16 := flags&txscript.ScriptBip16 == txscript.ScriptBip16
	witness := flags&txscript.ScriptVerifyWitness == txscript.ScriptVerifyWitness
	for i, input := range tx.Inputs {
		pkScript := spentCoins[i].ScriptPublicKey
		if bip16 && txscript.IsPayToScriptHash(pkScript) {
			cost += int64(txscript.GetPreciseSigOpCount(input.SignatureScript, pkScript, true)) *
				constants.WitnessScaleFactor
		}
		if witness {
			cost += int64(txscript.GetWitnessSigOpCount(input.SignatureScript, pkScript, input.Witness))
		}
	}
	return cost
}

// skipScripts returns whether node is an ancestor of the assumed valid block
// on a best header chain with at least the minimum chain work.
func (csm *consensusStateManager) skipScripts(node *blockindex.Node) bool {
	if csm.assumeValid == nil {
		return false
	}
	assumeValidNode := csm.blockIndex.LookupNode(csm.assumeValid)
	if assumeValidNode == nil || !node.IsAncestorOf(assumeValidNode) {
		return false
	}
	bestHeader := csm.blockIndex.BestHeader()
	if !assumeValidNode.IsAncestorOf(bestHeader) {
		return false
	}
	return csm.params.MinimumChainWork == nil || bestHeader.ChainWork.Cmp(csm.params.MinimumChainWork) >= 0
}
