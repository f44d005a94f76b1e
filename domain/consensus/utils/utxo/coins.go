package utxo

import (
	"github.com/freicoin/freicoind/domain/consensus/model"
	"github.com/freicoin/freicoind/domain/consensus/model/externalapi"
	"github.com/freicoin/freicoind/domain/consensus/utils/consensushashing"
	"github.com/freicoin/freicoind/domain/consensus/utils/txscript"
)

// NewCoin returns the coin created by output of tx in a block at
// blockHeight. Its reference height is the lock height of tx.
func NewCoin(tx *externalapi.DomainTransaction, output *externalapi.DomainTransactionOutput,
	blockHeight int32) *externalapi.Coin {

	return &externalapi.Coin{
		Value:           output.Value,
		ScriptPublicKey: output.ScriptPublicKey,
		RefHeight:       tx.LockHeight,
		BlockHeight:     blockHeight,
		IsCoinbase:      tx.IsCoinBase(),
	}
}

// AddTransactionCoins adds every spendable output of tx to view.
// possibleOverwrite must be set for coinbases, whose ids were not unique
// before BIP34.
func AddTransactionCoins(view model.UTXOView, tx *externalapi.DomainTransaction, blockHeight int32,
	possibleOverwrite bool) error {

	txID := consensushashing.TransactionID(tx)
	for i, output := range tx.Outputs {
		if txscript.IsUnspendable(output.ScriptPublicKey) {
			continue
		}
		outpoint := externalapi.NewDomainOutpoint(txID, uint32(i))
		err := view.AddCoin(outpoint, NewCoin(tx, output, blockHeight), possibleOverwrite)
		if err != nil {
			return err
		}
	}
	return nil
}
