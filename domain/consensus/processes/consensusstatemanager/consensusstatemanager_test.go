package consensusstatemanager_test

import (
	"context"
	"testing"

	"github.com/freicoin/freicoind/domain/chaincfg"
	"github.com/freicoin/freicoind/domain/consensus"
	"github.com/freicoin/freicoind/domain/consensus/model/externalapi"
	"github.com/freicoin/freicoind/domain/consensus/utils/consensushashing"
	"github.com/freicoin/freicoind/domain/consensus/utils/constants"
	"github.com/freicoin/freicoind/domain/consensus/utils/utxo"
	"github.com/stretchr/testify/require"
)

func TestDisconnectAndReconnectBlock(t *testing.T) {
	tc, teardown, err := consensus.NewFactory().NewTestConsensus(
		consensus.NewConfig(&chaincfg.RegressionNetParams), "TestDisconnectAndReconnectBlock")
	if err != nil {
		t.Fatalf("Error setting up consensus: %+v", err)
	}
	defer teardown(false)

	parentHash := tc.Params().GenesisHash
	var firstHash *externalapi.DomainHash
	for i := 0; i <= constants.CoinbaseMaturity; i++ {
		parentHash, err = tc.AddBlock(parentHash, nil)
		require.NoError(t, err)
		if firstHash == nil {
			firstHash = parentHash
		}
	}

	firstBlock, err := tc.GetBlock(firstHash)
	require.NoError(t, err)
	coinbase := firstBlock.Transactions[0]
	spentOutpoint := externalapi.NewDomainOutpoint(consensushashing.TransactionID(coinbase), 0)
	spend := &externalapi.DomainTransaction{
		Version: 2,
		Inputs: []*externalapi.DomainTransactionInput{{
			PreviousOutpoint: *spentOutpoint,
			Sequence:         constants.MaxTxInSequenceNum,
		}},
		Outputs: []*externalapi.DomainTransactionOutput{{
			Value:           coinbase.Outputs[0].Value / 2,
			ScriptPublicKey: consensus.OpTrueScript,
		}},
		LockHeight: coinbase.LockHeight,
	}
	createdOutpoint := externalapi.NewDomainOutpoint(consensushashing.TransactionID(spend), 0)

	blockHash, err := tc.AddBlock(parentHash, []*externalapi.DomainTransaction{spend})
	require.NoError(t, err)
	block, err := tc.GetBlock(blockHash)
	require.NoError(t, err)
	node := tc.BlockIndex().LookupNode(blockHash)
	require.NotNil(t, node)

	undo, err := tc.UndoStore().Undo(tc.DatabaseContext(), blockHash)
	require.NoError(t, err)
	require.Len(t, undo.TxUndos, 1)
	require.Len(t, undo.TxUndos[0].SpentCoins, 1)

	base, err := tc.CoinsStore().View(tc.DatabaseContext())
	require.NoError(t, err)
	view := utxo.NewCoinsViewCache(base)

	csm := tc.ConsensusStateManager()
	err = csm.DisconnectBlock(view, block, node, undo)
	require.NoError(t, err)

	bestHash, err := view.GetBestBlockHash()
	require.NoError(t, err)
	require.True(t, bestHash.Equal(parentHash))
	_, found, err := view.GetCoin(createdOutpoint)
	require.NoError(t, err)
	require.False(t, found)
	restored, found, err := view.GetCoin(spentOutpoint)
	require.NoError(t, err)
	require.True(t, found)
	require.True(t, restored.Equal(undo.TxUndos[0].SpentCoins[0]))

	// Disconnecting from a view at another block is refused.
	err = csm.DisconnectBlock(view, block, node, undo)
	require.Error(t, err)

	reconnectUndo, err := csm.ConnectBlock(context.Background(), view, block, node)
	require.NoError(t, err)
	require.Equal(t, undo, reconnectUndo)
	_, found, err = view.GetCoin(spentOutpoint)
	require.NoError(t, err)
	require.False(t, found)

	// Connecting on top of the wrong block is refused.
	_, err = csm.ConnectBlock(context.Background(), view, block, node)
	require.Error(t, err)
}
