package consensusstatemanager

import (
	"github.com/freicoin/freicoind/domain/consensus/datastructures/blockindex"
	"github.com/freicoin/freicoind/domain/consensus/model"
	"github.com/freicoin/freicoind/domain/consensus/model/externalapi"
	"github.com/freicoin/freicoind/domain/consensus/utils/consensushashing"
	"github.com/freicoin/freicoind/domain/consensus/utils/txscript"
	"github.com/freicoin/freicoind/domain/consensus/utils/utxo"
	"github.com/pkg/errors"
)

// DisconnectBlock reverses the effects of block on view using undo. view
// must be current as of block.
//
// Coins that are missing or already present are tolerated with a warning,
// as happens around the historical duplicate coinbases, but a coin that
// differs from what block created means the undo data does not belong to
// this view and is an error.
func (csm *consensusStateManager) DisconnectBlock(view model.UTXOView, block *externalapi.DomainBlock,
	node *blockindex.Node, undo *externalapi.BlockUndo) error {

	bestHash, err := view.GetBestBlockHash()
	if err != nil {
		return err
	}
	if !bestHash.Equal(&node.Hash) {
		return errors.Errorf("cannot disconnect block %s from a view current as of %s", node.Hash, bestHash)
	}

	if node.Parent != nil && len(undo.TxUndos)+1 != len(block.Transactions) {
		return errors.Errorf("undo record of block %s holds %d transactions, expected %d",
			node.Hash, len(undo.TxUndos), len(block.Transactions)-1)
	}

	clean := true
	for txIndex := len(block.Transactions) - 1; txIndex >= 0 && node.Parent != nil; txIndex-- {
		tx := block.Transactions[txIndex]
		txID := consensushashing.TransactionID(tx)

		for outputIndex, output := range tx.Outputs {
			if txscript.IsUnspendable(output.ScriptPublicKey) {
				continue
			}
			outpoint := externalapi.NewDomainOutpoint(txID, uint32(outputIndex))
			coin, found, err := view.SpendCoin(outpoint)
			if err != nil {
				return err
			}
			if !found {
				clean = false
				continue
			}
			expected := utxo.NewCoin(tx, output, node.Height)
			if !coin.Equal(expected) {
				return errors.Errorf("coin %s does not match the output of block %s", outpoint, node.Hash)
			}
		}

		if tx.IsCoinBase() {
			continue
		}
		txUndo := undo.TxUndos[txIndex-1]
		if len(txUndo.SpentCoins) != len(tx.Inputs) {
			return errors.Errorf("undo record of transaction %s holds %d coins, expected %d",
				txID, len(txUndo.SpentCoins), len(tx.Inputs))
		}
		for inputIndex := len(tx.Inputs) - 1; inputIndex >= 0; inputIndex-- {
			outpoint := &tx.Inputs[inputIndex].PreviousOutpoint
			_, found, err := view.GetCoin(outpoint)
			if err != nil {
				return err
			}
			if found {
				clean = false
			}
			err = view.AddCoin(outpoint, txUndo.SpentCoins[inputIndex], found)
			if err != nil {
				return err
			}
		}
	}

	if !clean {
		log.Warnf("Disconnected block %s uncleanly", node.Hash)
	}

	prevHash := &externalapi.DomainHash{}
	if node.Parent != nil {
		prevHash = &node.Parent.Hash
	}
	return view.SetBestBlockHash(prevHash)
}
