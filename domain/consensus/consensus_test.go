package consensus_test

import (
	"context"
	"os"
	"testing"

	"github.com/freicoin/freicoind/domain/chaincfg"
	"github.com/freicoin/freicoind/domain/consensus"
	"github.com/freicoin/freicoind/domain/consensus/model"
	"github.com/freicoin/freicoind/domain/consensus/model/externalapi"
	"github.com/freicoin/freicoind/domain/consensus/ruleerrors"
	"github.com/freicoin/freicoind/domain/consensus/utils/consensushashing"
	"github.com/freicoin/freicoind/domain/consensus/utils/constants"
	"github.com/freicoin/freicoind/domain/consensus/utils/versionbits"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

// recordingSink keeps the validation notifications of a test consensus.
type recordingSink struct {
	checked      map[externalapi.DomainHash]*ruleerrors.ValidationState
	connected    int
	disconnected int
	forks        int
}

func newRecordingSink() *recordingSink {
	return &recordingSink{checked: make(map[externalapi.DomainHash]*ruleerrors.ValidationState)}
}

func (s *recordingSink) BlockChecked(block *externalapi.DomainBlock, state *ruleerrors.ValidationState) {
	s.checked[*consensushashing.BlockHash(block)] = state
}

func (s *recordingSink) BlockConnected(*externalapi.DomainBlock, int32) {
	s.connected++
}

func (s *recordingSink) BlockDisconnected(*externalapi.DomainBlock, int32) {
	s.disconnected++
}

func (s *recordingSink) UpdatedBlockTip(_ *externalapi.DomainHash, forkHash *externalapi.DomainHash) {
	if forkHash != nil {
		s.forks++
	}
}

func newRegtestConfig(sink model.ValidationSink) *consensus.Config {
	config := consensus.NewConfig(&chaincfg.RegressionNetParams)
	config.ValidationSink = sink
	return config
}

func newTestConsensus(t *testing.T, config *consensus.Config, testName string) consensus.TestConsensus {
	tc, teardown, err := consensus.NewFactory().NewTestConsensus(config, testName)
	if err != nil {
		t.Fatalf("%s: Error setting up consensus: %+v", testName, err)
	}
	t.Cleanup(func() { teardown(false) })
	return tc
}

// mineBlocks adds count empty blocks on top of parent and returns their
// hashes in order.
func mineBlocks(t *testing.T, tc consensus.TestConsensus, parent *externalapi.DomainHash,
	count int) []*externalapi.DomainHash {

	hashes := make([]*externalapi.DomainHash, 0, count)
	for i := 0; i < count; i++ {
		blockHash, err := tc.AddBlock(parent, nil)
		require.NoError(t, err)
		hashes = append(hashes, blockHash)
		parent = blockHash
	}
	return hashes
}

// spendOutput returns a version 2 transaction spending output index of tx
// into a single anyone-can-spend output worth half of it.
func spendOutput(tx *externalapi.DomainTransaction, index uint32, sequence uint32) *externalapi.DomainTransaction {
	return &externalapi.DomainTransaction{
		Version: 2,
		Inputs: []*externalapi.DomainTransactionInput{{
			PreviousOutpoint: *externalapi.NewDomainOutpoint(consensushashing.TransactionID(tx), index),
			Sequence:         sequence,
		}},
		Outputs: []*externalapi.DomainTransactionOutput{{
			Value:           tx.Outputs[index].Value / 2,
			ScriptPublicKey: consensus.OpTrueScript,
		}},
		LockHeight: tx.LockHeight,
	}
}

func coinbaseOf(t *testing.T, tc consensus.TestConsensus, blockHash *externalapi.DomainHash) *externalapi.DomainTransaction {
	block, err := tc.GetBlock(blockHash)
	require.NoError(t, err)
	return block.Transactions[0]
}

func TestGenesisInitialization(t *testing.T) {
	tc := newTestConsensus(t, newRegtestConfig(nil), "TestGenesisInitialization")

	params := tc.Params()
	if !tc.TipHash().Equal(params.GenesisHash) {
		t.Fatalf("TestGenesisInitialization: expected tip %s, got %s", params.GenesisHash, tc.TipHash())
	}
	require.Equal(t, int32(0), tc.TipHeight())

	spendHeight, err := tc.GetSpendHeight()
	require.NoError(t, err)
	require.Equal(t, int32(1), spendHeight)

	tips := tc.ChainTips()
	require.Len(t, tips, 1)
	require.Equal(t, model.ChainTipActive, tips[0].Status)

	info := tc.GetBlockInfo(params.GenesisHash)
	require.True(t, info.Exists)
	require.True(t, info.IsInActiveChain)
	require.True(t, info.Status.Has(externalapi.StatusValid))
}

func TestAddBlocks(t *testing.T) {
	sink := newRecordingSink()
	tc := newTestConsensus(t, newRegtestConfig(sink), "TestAddBlocks")

	hashes := mineBlocks(t, tc, tc.Params().GenesisHash, 5)
	require.Equal(t, int32(5), tc.TipHeight())
	require.True(t, tc.TipHash().Equal(hashes[4]))
	// The genesis block is connected when the chain state initializes.
	require.Equal(t, 6, sink.connected)

	for height, blockHash := range hashes {
		byHeight, ok := tc.GetBlockHashByHeight(int32(height + 1))
		require.True(t, ok)
		require.True(t, byHeight.Equal(blockHash))
	}

	// The coinbase of every block is in the UTXO set.
	coinbase := coinbaseOf(t, tc, hashes[2])
	coin, found, err := tc.GetCoin(externalapi.NewDomainOutpoint(consensushashing.TransactionID(coinbase), 0))
	require.NoError(t, err)
	require.True(t, found)
	require.True(t, coin.IsCoinbase)
	require.Equal(t, int32(3), coin.BlockHeight)
	require.Equal(t, coinbase.Outputs[0].Value, coin.Value)

	block, err := tc.GetBlock(hashes[4])
	require.NoError(t, err)
	err = tc.ValidateAndInsertBlock(context.Background(), block)
	if !errors.Is(err, ruleerrors.ErrDuplicateBlock) {
		t.Fatalf("TestAddBlocks: expected ErrDuplicateBlock, got %v", err)
	}
}

func TestReorganization(t *testing.T) {
	sink := newRecordingSink()
	tc := newTestConsensus(t, newRegtestConfig(sink), "TestReorganization")
	genesisHash := tc.Params().GenesisHash

	chainA := mineBlocks(t, tc, genesisHash, 3)

	// A competing chain of equal work does not replace the chain whose
	// tip arrived first.
	chainB := mineBlocks(t, tc, genesisHash, 3)
	require.True(t, tc.TipHash().Equal(chainA[2]))

	chainB = append(chainB, mineBlocks(t, tc, chainB[2], 1)...)
	require.True(t, tc.TipHash().Equal(chainB[3]))
	require.Equal(t, 3, sink.disconnected)
	require.Equal(t, 1, sink.forks)

	coinbaseA := coinbaseOf(t, tc, chainA[1])
	_, found, err := tc.GetCoin(externalapi.NewDomainOutpoint(consensushashing.TransactionID(coinbaseA), 0))
	require.NoError(t, err)
	if found {
		t.Fatalf("TestReorganization: coinbase of a disconnected block is still unspent")
	}

	tips := tc.ChainTips()
	require.Len(t, tips, 2)
	statuses := map[externalapi.DomainHash]*model.ChainTip{}
	for _, tip := range tips {
		statuses[tip.Hash] = tip
	}
	require.Equal(t, model.ChainTipActive, statuses[*chainB[3]].Status)
	require.Equal(t, model.ChainTipValidFork, statuses[*chainA[2]].Status)
	require.Equal(t, int32(3), statuses[*chainA[2]].BranchLen)

	// Extending A past B moves the chain back.
	mineBlocks(t, tc, chainA[2], 2)
	require.Equal(t, int32(5), tc.TipHeight())
	require.True(t, tc.GetBlockInfo(chainA[0]).IsInActiveChain)
	require.False(t, tc.GetBlockInfo(chainB[0]).IsInActiveChain)
}

func TestReorganizationToMoreWork(t *testing.T) {
	sink := newRecordingSink()
	config := newRegtestConfig(sink)
	config.Params.NoRetargeting = false
	config.Params.AllowMinDifficultyBlocks = false
	config.Params.OriginalAdjustInterval = 4
	tc := newTestConsensus(t, config, "TestReorganizationToMoreWork")
	genesisHash := tc.Params().GenesisHash

	// On schedule, the retarget at height 4 only tightens the target to
	// three quarters.
	chainA := mineBlocks(t, tc, genesisHash, 4)
	require.True(t, tc.TipHash().Equal(chainA[3]))

	// One second apart, the same retarget hits the four-fold limit.
	parent := genesisHash
	chainB := make([]*externalapi.DomainHash, 0, 4)
	for i := 0; i < 4; i++ {
		parentBlock, err := tc.GetBlock(parent)
		require.NoError(t, err)
		block, err := tc.BuildBlock(parent, nil)
		require.NoError(t, err)
		block.Header.Timestamp = parentBlock.Header.Timestamp + 1
		tc.SolveBlock(block)
		require.NoError(t, tc.ValidateAndInsertBlock(context.Background(), block))
		parent = consensushashing.BlockHash(block)
		chainB = append(chainB, parent)
	}

	blockA, err := tc.GetBlock(chainA[3])
	require.NoError(t, err)
	blockB, err := tc.GetBlock(chainB[3])
	require.NoError(t, err)
	require.NotEqual(t, blockA.Header.Bits, blockB.Header.Bits)

	// Both chains are four blocks long. The later one has more work and
	// replaces the first.
	require.Equal(t, int32(4), tc.TipHeight())
	require.True(t, tc.TipHash().Equal(chainB[3]))
	require.Equal(t, 4, sink.disconnected)
	require.Equal(t, 1, sink.forks)
	require.False(t, tc.GetBlockInfo(chainA[0]).IsInActiveChain)
}

func TestInvalidateAndReconsiderBlock(t *testing.T) {
	tc := newTestConsensus(t, newRegtestConfig(nil), "TestInvalidateAndReconsiderBlock")

	hashes := mineBlocks(t, tc, tc.Params().GenesisHash, constants.CoinbaseMaturity+1)
	commitmentBefore, err := tc.UTXOCommitment()
	require.NoError(t, err)

	// A block that moves coins around, then a few more on top.
	spend := spendOutput(coinbaseOf(t, tc, hashes[0]), 0, constants.MaxTxInSequenceNum)
	spendBlockHash, err := tc.AddBlock(hashes[len(hashes)-1], []*externalapi.DomainTransaction{spend})
	require.NoError(t, err)
	tail := mineBlocks(t, tc, spendBlockHash, 3)
	commitmentAfter, err := tc.UTXOCommitment()
	require.NoError(t, err)
	require.NotEqual(t, commitmentBefore, commitmentAfter)

	err = tc.InvalidateBlock(context.Background(), spendBlockHash)
	require.NoError(t, err)
	require.True(t, tc.TipHash().Equal(hashes[len(hashes)-1]))
	require.True(t, tc.GetBlockInfo(spendBlockHash).Status.Has(externalapi.StatusValidateFailed))
	require.True(t, tc.GetBlockInfo(tail[2]).Status.Has(externalapi.StatusInvalidAncestor))

	commitment, err := tc.UTXOCommitment()
	require.NoError(t, err)
	if !commitment.Equal(commitmentBefore) {
		t.Fatalf("TestInvalidateAndReconsiderBlock: disconnecting did not restore the UTXO set: "+
			"expected %s, got %s", commitmentBefore, commitment)
	}

	err = tc.ReconsiderBlock(context.Background(), spendBlockHash)
	require.NoError(t, err)
	require.True(t, tc.TipHash().Equal(tail[2]))
	commitment, err = tc.UTXOCommitment()
	require.NoError(t, err)
	require.True(t, commitment.Equal(commitmentAfter))

	err = tc.InvalidateBlock(context.Background(), tc.Params().GenesisHash)
	require.Error(t, err)
}

func TestRejectedBlocks(t *testing.T) {
	sink := newRecordingSink()
	tc := newTestConsensus(t, newRegtestConfig(sink), "TestRejectedBlocks")

	hashes := mineBlocks(t, tc, tc.Params().GenesisHash, 2)

	// Spending a coinbase before it matured only fails once the block is
	// connected.
	spend := spendOutput(coinbaseOf(t, tc, hashes[0]), 0, constants.MaxTxInSequenceNum)
	block, err := tc.BuildBlock(hashes[1], []*externalapi.DomainTransaction{spend})
	require.NoError(t, err)
	blockHash := consensushashing.BlockHash(block)

	err = tc.ValidateAndInsertBlock(context.Background(), block)
	if !errors.Is(err, ruleerrors.ErrKnownInvalid) {
		t.Fatalf("TestRejectedBlocks: expected ErrKnownInvalid, got %v", err)
	}
	state := sink.checked[*blockHash]
	require.NotNil(t, state)
	if !errors.Is(state.Err, ruleerrors.ErrImmatureSpend) {
		t.Fatalf("TestRejectedBlocks: expected ErrImmatureSpend, got %v", state.Err)
	}
	require.True(t, tc.TipHash().Equal(hashes[1]))

	err = tc.ValidateAndInsertBlock(context.Background(), block)
	if !errors.Is(err, ruleerrors.ErrKnownInvalid) {
		t.Fatalf("TestRejectedBlocks: expected ErrKnownInvalid on resubmission, got %v", err)
	}

	child, err := tc.BuildBlock(blockHash, nil)
	require.NoError(t, err)
	err = tc.ValidateAndInsertBlock(context.Background(), child)
	if !errors.Is(err, ruleerrors.ErrInvalidAncestorBlock) {
		t.Fatalf("TestRejectedBlocks: expected ErrInvalidAncestorBlock, got %v", err)
	}

	tips := tc.ChainTips()
	require.Len(t, tips, 2)
	for _, tip := range tips {
		if tip.Hash.Equal(blockHash) {
			require.Equal(t, model.ChainTipInvalid, tip.Status)
		}
	}
}

func TestCoinbaseLockTimeSelectsRules(t *testing.T) {
	sink := newRecordingSink()
	tc := newTestConsensus(t, newRegtestConfig(sink), "TestCoinbaseLockTimeSelectsRules")
	hashes := mineBlocks(t, tc, tc.Params().GenesisHash, 1)

	// A coinbase signature script too long for the legacy rules.
	buildLongCoinbaseBlock := func(lockTime uint32) *externalapi.DomainBlock {
		block, err := tc.BuildBlock(hashes[0], nil)
		require.NoError(t, err)
		coinbase := block.Transactions[0]
		padding := make([]byte, 152-len(coinbase.Inputs[0].SignatureScript))
		coinbase.Inputs[0].SignatureScript = append(coinbase.Inputs[0].SignatureScript, padding...)
		coinbase.LockTime = lockTime
		tc.SolveBlock(block)
		return block
	}

	err := tc.ValidateAndInsertBlock(context.Background(), buildLongCoinbaseBlock(0))
	if !errors.Is(err, ruleerrors.ErrBadCoinbaseScriptLen) {
		t.Fatalf("TestCoinbaseLockTimeSelectsRules: expected ErrBadCoinbaseScriptLen, got %v", err)
	}

	// Claiming the protocol cleanup rules ahead of the parent's median
	// time past does not relax them.
	claiming := buildLongCoinbaseBlock(uint32(tc.Params().ProtocolCleanupActivationTime))
	err = tc.ValidateAndInsertBlock(context.Background(), claiming)
	if !errors.Is(err, ruleerrors.ErrBadCoinbaseLockTime) {
		t.Fatalf("TestCoinbaseLockTimeSelectsRules: expected ErrBadCoinbaseLockTime, got %v", err)
	}
	require.True(t, tc.GetBlockInfo(consensushashing.BlockHash(claiming)).Status.Has(externalapi.StatusValidateFailed))
	require.True(t, tc.TipHash().Equal(hashes[0]))
}

func TestSequenceLocks(t *testing.T) {
	config := newRegtestConfig(nil)
	sink := newRecordingSink()
	config.ValidationSink = sink
	err := config.Params.UpdateBIP9Parameters(chaincfg.DeploymentLockTime, chaincfg.AlwaysActive, 0)
	require.NoError(t, err)
	tc := newTestConsensus(t, config, "TestSequenceLocks")

	state, err := tc.DeploymentState(chaincfg.DeploymentLockTime)
	require.NoError(t, err)
	require.Equal(t, versionbits.ThresholdActive, state)

	hashes := mineBlocks(t, tc, tc.Params().GenesisHash, constants.CoinbaseMaturity+1)

	// The funding transaction confirms at height H.
	funding := spendOutput(coinbaseOf(t, tc, hashes[0]), 0, constants.MaxTxInSequenceNum)
	fundingBlockHash, err := tc.AddBlock(hashes[len(hashes)-1], []*externalapi.DomainTransaction{funding})
	require.NoError(t, err)
	fundingHeight := tc.TipHeight()

	// Its output is locked for five blocks.
	locked := spendOutput(funding, 0, 5)

	parent := mineBlocks(t, tc, fundingBlockHash, 3)[2]
	early, err := tc.BuildBlock(parent, []*externalapi.DomainTransaction{locked})
	require.NoError(t, err)
	err = tc.ValidateAndInsertBlock(context.Background(), early)
	require.Error(t, err)
	earlyState := sink.checked[*consensushashing.BlockHash(early)]
	require.NotNil(t, earlyState)
	if !errors.Is(earlyState.Err, ruleerrors.ErrUnfinalizedSequenceLock) {
		t.Fatalf("TestSequenceLocks: expected ErrUnfinalizedSequenceLock at height %d, got %v",
			fundingHeight+4, earlyState.Err)
	}

	parent = mineBlocks(t, tc, parent, 1)[0]
	_, err = tc.AddBlock(parent, []*externalapi.DomainTransaction{locked})
	require.NoError(t, err)
	require.Equal(t, fundingHeight+5, tc.TipHeight())
}

func TestOrphanBlocks(t *testing.T) {
	source := newTestConsensus(t, newRegtestConfig(nil), "TestOrphanBlocksSource")
	hashes := mineBlocks(t, source, source.Params().GenesisHash, 3)
	blocks := make([]*externalapi.DomainBlock, len(hashes))
	for i, blockHash := range hashes {
		block, err := source.GetBlock(blockHash)
		require.NoError(t, err)
		blocks[i] = block
	}

	tc := newTestConsensus(t, newRegtestConfig(nil), "TestOrphanBlocks")
	for i := len(blocks) - 1; i > 0; i-- {
		err := tc.ValidateAndInsertBlock(context.Background(), blocks[i])
		var missingParents ruleerrors.ErrMissingParents
		if !errors.As(err, &missingParents) {
			t.Fatalf("TestOrphanBlocks: expected ErrMissingParents, got %v", err)
		}
		require.True(t, ruleerrors.IsIndeterminate(err))
	}
	require.Equal(t, 2, tc.OrphanCount())

	err := tc.ValidateAndInsertBlock(context.Background(), blocks[2])
	if !errors.Is(err, ruleerrors.ErrDuplicateBlock) {
		t.Fatalf("TestOrphanBlocks: expected ErrDuplicateBlock for a known orphan, got %v", err)
	}

	require.NoError(t, tc.ValidateAndInsertBlock(context.Background(), blocks[0]))
	require.Equal(t, 0, tc.OrphanCount())
	require.True(t, tc.TipHash().Equal(hashes[2]))
}

func TestReloadChainState(t *testing.T) {
	dataDir, err := os.MkdirTemp("", "TestReloadChainState")
	require.NoError(t, err)
	defer os.RemoveAll(dataDir)

	factory := consensus.NewFactory()
	factory.SetTestDataDir(dataDir)

	tc, teardown, err := factory.NewTestConsensus(newRegtestConfig(nil), "TestReloadChainState")
	require.NoError(t, err)
	hashes := mineBlocks(t, tc, tc.Params().GenesisHash, 4)
	forkHash, err := tc.AddBlock(hashes[1], nil)
	require.NoError(t, err)
	commitment, err := tc.UTXOCommitment()
	require.NoError(t, err)
	teardown(true)

	tc, teardown, err = factory.NewTestConsensus(newRegtestConfig(nil), "TestReloadChainState")
	require.NoError(t, err)
	defer teardown(true)

	require.Equal(t, int32(4), tc.TipHeight())
	require.True(t, tc.TipHash().Equal(hashes[3]))
	reloaded, err := tc.UTXOCommitment()
	require.NoError(t, err)
	require.True(t, reloaded.Equal(commitment))
	require.True(t, tc.GetBlockInfo(forkHash).Exists)
	require.Len(t, tc.ChainTips(), 2)

	// The reloaded chain keeps growing.
	mineBlocks(t, tc, hashes[3], 1)
	require.Equal(t, int32(5), tc.TipHeight())
}

func TestComputeBlockVersion(t *testing.T) {
	tc := newTestConsensus(t, newRegtestConfig(nil), "TestComputeBlockVersion")
	version, err := tc.ComputeBlockVersion()
	require.NoError(t, err)
	require.Equal(t, uint32(versionbits.TopBits), uint32(version)&versionbits.TopMask)
}
