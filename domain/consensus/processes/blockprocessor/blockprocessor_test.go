package blockprocessor_test

import (
	"context"
	"testing"

	"github.com/freicoin/freicoind/domain/chaincfg"
	"github.com/freicoin/freicoind/domain/consensus"
	"github.com/freicoin/freicoind/domain/consensus/model/externalapi"
	"github.com/freicoin/freicoind/domain/consensus/ruleerrors"
	"github.com/freicoin/freicoind/domain/consensus/utils/consensushashing"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

func newTestConsensus(t *testing.T, testName string) consensus.TestConsensus {
	tc, teardown, err := consensus.NewFactory().NewTestConsensus(
		consensus.NewConfig(&chaincfg.RegressionNetParams), testName)
	if err != nil {
		t.Fatalf("%s: Error setting up consensus: %+v", testName, err)
	}
	t.Cleanup(func() { teardown(false) })
	return tc
}

func TestMutatedBlockIsNotMarkedInvalid(t *testing.T) {
	tc := newTestConsensus(t, "TestMutatedBlockIsNotMarkedInvalid")

	spending := func(id byte) *externalapi.DomainTransaction {
		return &externalapi.DomainTransaction{
			Version: 2,
			Inputs: []*externalapi.DomainTransactionInput{{
				PreviousOutpoint: externalapi.DomainOutpoint{TransactionID: externalapi.DomainTransactionID{id}},
			}},
			Outputs: []*externalapi.DomainTransactionOutput{{Value: 1, ScriptPublicKey: consensus.OpTrueScript}},
		}
	}
	// With an odd number of transactions the last one is paired with
	// itself in the merkle tree.
	tx := spending(2)
	block, err := tc.BuildBlock(tc.Params().GenesisHash, []*externalapi.DomainTransaction{spending(1), tx})
	require.NoError(t, err)
	blockHash := consensushashing.BlockHash(block)

	// Repeating the last transaction leaves the merkle root, and so the
	// block hash, unchanged.
	mutated := &externalapi.DomainBlock{
		Header:       block.Header,
		Transactions: append(append([]*externalapi.DomainTransaction{}, block.Transactions...), tx),
	}
	require.True(t, consensushashing.BlockHash(mutated).Equal(blockHash))

	err = tc.ValidateAndInsertBlock(context.Background(), mutated)
	if !errors.Is(err, ruleerrors.ErrMutatedMerkle) {
		t.Fatalf("TestMutatedBlockIsNotMarkedInvalid: expected ErrMutatedMerkle, got %v", err)
	}
	require.False(t, tc.GetBlockInfo(blockHash).Exists)

	// The genuine block then fails on its own merits: its transactions
	// spend outputs that do not exist.
	err = tc.ValidateAndInsertBlock(context.Background(), block)
	require.Error(t, err)
	require.False(t, errors.Is(err, ruleerrors.ErrMutatedMerkle))
}

func TestUnfinalizedBlockIsMarkedInvalid(t *testing.T) {
	tc := newTestConsensus(t, "TestUnfinalizedBlockIsMarkedInvalid")

	tx := &externalapi.DomainTransaction{
		Version: 2,
		Inputs: []*externalapi.DomainTransactionInput{{
			PreviousOutpoint: externalapi.DomainOutpoint{TransactionID: externalapi.DomainTransactionID{1}},
			Sequence:         0,
		}},
		Outputs:  []*externalapi.DomainTransactionOutput{{Value: 1, ScriptPublicKey: consensus.OpTrueScript}},
		LockTime: 500,
	}
	block, err := tc.BuildBlock(tc.Params().GenesisHash, []*externalapi.DomainTransaction{tx})
	require.NoError(t, err)
	blockHash := consensushashing.BlockHash(block)

	err = tc.ValidateAndInsertBlock(context.Background(), block)
	if !errors.Is(err, ruleerrors.ErrUnfinalizedTx) {
		t.Fatalf("TestUnfinalizedBlockIsMarkedInvalid: expected ErrUnfinalizedTx, got %v", err)
	}
	info := tc.GetBlockInfo(blockHash)
	require.True(t, info.Exists)
	require.True(t, info.Status.Has(externalapi.StatusValidateFailed))

	err = tc.ValidateAndInsertBlock(context.Background(), block)
	if !errors.Is(err, ruleerrors.ErrKnownInvalid) {
		t.Fatalf("TestUnfinalizedBlockIsMarkedInvalid: expected ErrKnownInvalid, got %v", err)
	}
}
