package blockvalidator

import (
	"testing"
	"time"

	"github.com/freicoin/freicoind/domain/chaincfg"
	"github.com/freicoin/freicoind/domain/consensus/datastructures/blockindex"
	"github.com/freicoin/freicoind/domain/consensus/model/externalapi"
	"github.com/freicoin/freicoind/domain/consensus/processes/coinbasemanager"
	"github.com/freicoin/freicoind/domain/consensus/processes/difficultymanager"
	"github.com/freicoin/freicoind/domain/consensus/processes/pastmediantimemanager"
	"github.com/freicoin/freicoind/domain/consensus/processes/transactionvalidator"
	"github.com/freicoin/freicoind/domain/consensus/ruleerrors"
	"github.com/freicoin/freicoind/domain/consensus/utils/consensushashing"
	"github.com/freicoin/freicoind/domain/consensus/utils/constants"
	"github.com/freicoin/freicoind/domain/consensus/utils/hashes"
	"github.com/freicoin/freicoind/domain/consensus/utils/pow"
	"github.com/freicoin/freicoind/domain/consensus/utils/txscript"
	"github.com/freicoin/freicoind/domain/consensus/utils/versionbits"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

var opTrue = []byte{txscript.OP_TRUE}

type testHarness struct {
	params    *chaincfg.Params
	index     *blockindex.BlockIndex
	genesis   *blockindex.Node
	validator *blockValidator
}

func newTestHarness(t *testing.T, params *chaincfg.Params) *testHarness {
	index := blockindex.New()
	genesis, err := index.AddHeader(params.GenesisBlock.Header)
	require.NoError(t, err)
	index.SetTip(genesis)

	sigCache, err := txscript.NewSigCache(100)
	require.NoError(t, err)
	now := time.Unix(int64(params.GenesisBlock.Header.Timestamp)+1_000_000, 0)

	validator := New(params, true, index,
		versionbits.NewCache(params),
		difficultymanager.New(params),
		pastmediantimemanager.New(index, pastmediantimemanager.NewFixedTimeSource(now)),
		transactionvalidator.New(params, sigCache, 1),
		coinbasemanager.New(params),
	).(*blockValidator)

	return &testHarness{params: params, index: index, genesis: genesis, validator: validator}
}

func newRegtestHarness(t *testing.T) *testHarness {
	params := chaincfg.RegressionNetParams
	return newTestHarness(t, &params)
}

func coinbaseForHeight(t *testing.T, height int32) *externalapi.DomainTransaction {
	sigScript, err := txscript.NewScriptBuilder().AddInt64(int64(height)).AddInt64(0).Script()
	require.NoError(t, err)
	return &externalapi.DomainTransaction{
		Version: 2,
		Inputs: []*externalapi.DomainTransactionInput{{
			PreviousOutpoint: externalapi.DomainOutpoint{Index: 0xffffffff},
			SignatureScript:  sigScript,
			Sequence:         constants.MaxTxInSequenceNum,
		}},
		Outputs:    []*externalapi.DomainTransactionOutput{{Value: 1, ScriptPublicKey: opTrue}},
		LockHeight: uint32(height),
	}
}

func spendingTx(id byte) *externalapi.DomainTransaction {
	return &externalapi.DomainTransaction{
		Version: 2,
		Inputs: []*externalapi.DomainTransactionInput{{
			PreviousOutpoint: externalapi.DomainOutpoint{TransactionID: externalapi.DomainTransactionID{id}},
			Sequence:         constants.MaxTxInSequenceNum,
		}},
		Outputs: []*externalapi.DomainTransactionOutput{{Value: 1, ScriptPublicKey: opTrue}},
	}
}

// buildBlock returns a solved block on top of prevNode carrying a coinbase
// followed by txs.
func (h *testHarness) buildBlock(t *testing.T, prevNode *blockindex.Node,
	txs ...*externalapi.DomainTransaction) *externalapi.DomainBlock {

	transactions := append([]*externalapi.DomainTransaction{coinbaseForHeight(t, prevNode.Height+1)}, txs...)
	merkleRoot, _ := consensushashing.BlockMerkleRoot(transactions)
	block := &externalapi.DomainBlock{
		Header: &externalapi.DomainBlockHeader{
			Version:       4,
			PrevBlockHash: prevNode.Hash,
			MerkleRoot:    *merkleRoot,
			Timestamp:     uint32(prevNode.Timestamp() + 600),
			Bits:          prevNode.Header.Bits,
		},
		Transactions: transactions,
	}
	h.solve(block.Header)
	return block
}

func (h *testHarness) solve(header *externalapi.DomainBlockHeader) {
	for pow.CheckProofOfWork(consensushashing.HeaderHash(header), header.Bits, h.params.PowLimit) != nil {
		header.Nonce++
	}
}

// remerkle recomputes the merkle root after the transactions changed and
// solves the header again.
func (h *testHarness) remerkle(block *externalapi.DomainBlock) {
	merkleRoot, _ := consensushashing.BlockMerkleRoot(block.Transactions)
	block.Header.MerkleRoot = *merkleRoot
	h.solve(block.Header)
}

func TestValidateHeaderInIsolation(t *testing.T) {
	h := newRegtestHarness(t)
	block := h.buildBlock(t, h.genesis)
	require.NoError(t, h.validator.ValidateHeaderInIsolation(block.Header))

	header := *block.Header
	header.Bits = 0x1d00ffff
	for pow.CheckProofOfWork(consensushashing.HeaderHash(&header), header.Bits, h.params.PowLimit) == nil {
		header.Nonce++
	}
	err := h.validator.ValidateHeaderInIsolation(&header)
	if !errors.Is(err, ruleerrors.ErrHighHash) {
		t.Fatalf("TestValidateHeaderInIsolation: expected ErrHighHash, got %v", err)
	}

	header.Bits = 0x2100ffff
	err = h.validator.ValidateHeaderInIsolation(&header)
	if !errors.Is(err, ruleerrors.ErrTargetOutOfRange) {
		t.Fatalf("TestValidateHeaderInIsolation: expected ErrTargetOutOfRange, got %v", err)
	}
}

func TestValidateBodyInIsolation(t *testing.T) {
	h := newRegtestHarness(t)

	tests := []struct {
		name     string
		mutate   func(block *externalapi.DomainBlock)
		expected error
	}{
		{name: "valid", mutate: func(*externalapi.DomainBlock) {}},
		{
			name: "no transactions",
			mutate: func(block *externalapi.DomainBlock) {
				block.Transactions = nil
			},
			expected: ruleerrors.ErrNoTransactions,
		},
		{
			name: "merkle root does not match",
			mutate: func(block *externalapi.DomainBlock) {
				block.Header.MerkleRoot = externalapi.DomainHash{1}
			},
			expected: ruleerrors.ErrBadMerkleRoot,
		},
		{
			name: "duplicated trailing transaction",
			mutate: func(block *externalapi.DomainBlock) {
				block.Transactions = append(block.Transactions, block.Transactions[len(block.Transactions)-1])
				h.remerkle(block)
			},
			expected: ruleerrors.ErrMutatedMerkle,
		},
		{
			name: "first transaction is not a coinbase",
			mutate: func(block *externalapi.DomainBlock) {
				block.Transactions[0], block.Transactions[1] = block.Transactions[1], block.Transactions[0]
				h.remerkle(block)
			},
			expected: ruleerrors.ErrFirstTxNotCoinbase,
		},
		{
			name: "second coinbase",
			mutate: func(block *externalapi.DomainBlock) {
				block.Transactions = append(block.Transactions, coinbaseForHeight(t, 2))
				h.remerkle(block)
			},
			expected: ruleerrors.ErrMultipleCoinbases,
		},
		{
			name: "transaction without outputs",
			mutate: func(block *externalapi.DomainBlock) {
				block.Transactions[1].Outputs = nil
				h.remerkle(block)
			},
			expected: ruleerrors.ErrNoTxOutputs,
		},
	}

	for _, test := range tests {
		block := h.buildBlock(t, h.genesis, spendingTx(1), spendingTx(2))
		test.mutate(block)
		err := h.validator.ValidateBodyInIsolation(block)
		if test.expected == nil {
			require.NoError(t, err, test.name)
			continue
		}
		if !errors.Is(err, test.expected) {
			t.Fatalf("TestValidateBodyInIsolation: %s: expected %v, got %v", test.name, test.expected, err)
		}
	}
}

func TestCheckLegacySigOps(t *testing.T) {
	h := newRegtestHarness(t)
	rules := h.params.Rules(false)

	checkSig := make([]byte, rules.MaxBlockSigOpsCost/constants.WitnessScaleFactor+1)
	for i := range checkSig {
		checkSig[i] = txscript.OP_CHECKSIG
	}
	tx := spendingTx(1)
	tx.Outputs[0].ScriptPublicKey = checkSig
	block := h.buildBlock(t, h.genesis, tx)

	err := h.validator.ValidateBodyInIsolation(block)
	if !errors.Is(err, ruleerrors.ErrTooManySigOps) {
		t.Fatalf("TestCheckLegacySigOps: expected ErrTooManySigOps, got %v", err)
	}
	require.Equal(t, len(checkSig), LegacySigOpCount(tx))
}

func TestValidateHeaderInContext(t *testing.T) {
	h := newRegtestHarness(t)

	tests := []struct {
		name     string
		mutate   func(header *externalapi.DomainBlockHeader)
		expected error
	}{
		{name: "valid", mutate: func(*externalapi.DomainBlockHeader) {}},
		{
			name: "unexpected difficulty",
			mutate: func(header *externalapi.DomainBlockHeader) {
				header.Bits = 0x207ffffe
			},
			expected: ruleerrors.ErrUnexpectedDifficulty,
		},
		{
			name: "timestamp at median time past",
			mutate: func(header *externalapi.DomainBlockHeader) {
				header.Timestamp = h.genesis.Header.Timestamp
			},
			expected: ruleerrors.ErrTimeTooOld,
		},
		{
			name: "timestamp too far in the future",
			mutate: func(header *externalapi.DomainBlockHeader) {
				header.Timestamp += 10_000_000
			},
			expected: ruleerrors.ErrTimeTooNew,
		},
	}

	for _, test := range tests {
		block := h.buildBlock(t, h.genesis)
		test.mutate(block.Header)
		err := h.validator.ValidateHeaderInContext(block.Header, h.genesis)
		if test.expected == nil {
			require.NoError(t, err, test.name)
			continue
		}
		if !errors.Is(err, test.expected) {
			t.Fatalf("TestValidateHeaderInContext: %s: expected %v, got %v", test.name, test.expected, err)
		}
	}

	require.True(t, ruleerrors.IsIndeterminate(errors.Wrap(ruleerrors.ErrTimeTooNew, "wrapped")))
}

func TestValidateHeaderInContextInvalidAncestor(t *testing.T) {
	h := newRegtestHarness(t)
	parent, err := h.index.AddHeader(h.buildBlock(t, h.genesis).Header)
	require.NoError(t, err)
	h.index.SetStatusFlags(parent, externalapi.StatusValidateFailed)

	err = h.validator.ValidateHeaderInContext(h.buildBlock(t, parent).Header, parent)
	if !errors.Is(err, ruleerrors.ErrInvalidAncestorBlock) {
		t.Fatalf("TestValidateHeaderInContextInvalidAncestor: expected ErrInvalidAncestorBlock, got %v", err)
	}
}

func TestCheckpoints(t *testing.T) {
	params := chaincfg.RegressionNetParams
	h := newTestHarness(t, &params)
	first := h.buildBlock(t, h.genesis)
	firstNode, err := h.index.AddHeader(first.Header)
	require.NoError(t, err)

	params.Checkpoints = append(params.Checkpoints,
		chaincfg.Checkpoint{Height: 1, Hash: consensushashing.HeaderHash(first.Header)})

	// A competing block at a checkpointed height.
	competing := h.buildBlock(t, h.genesis)
	competing.Header.Timestamp++
	h.solve(competing.Header)
	err = h.validator.ValidateHeaderInContext(competing.Header, h.genesis)
	if !errors.Is(err, ruleerrors.ErrCheckpointMismatch) {
		t.Fatalf("TestCheckpoints: expected ErrCheckpointMismatch, got %v", err)
	}

	// Past the checkpoint the chain extends normally.
	require.NoError(t, h.validator.ValidateHeaderInContext(h.buildBlock(t, firstNode).Header, firstNode))

	// Forks below a known checkpoint are rejected outright.
	second, err := h.index.AddHeader(h.buildBlock(t, firstNode).Header)
	require.NoError(t, err)
	params.Checkpoints = []chaincfg.Checkpoint{{Height: 2, Hash: &second.Hash}}
	err = h.validator.ValidateHeaderInContext(competing.Header, h.genesis)
	if !errors.Is(err, ruleerrors.ErrForkTooOld) {
		t.Fatalf("TestCheckpoints: expected ErrForkTooOld, got %v", err)
	}
}

func TestValidateBodyInContext(t *testing.T) {
	h := newRegtestHarness(t)

	block := h.buildBlock(t, h.genesis, spendingTx(1))
	require.NoError(t, h.validator.ValidateBodyInContext(block, h.genesis))

	nonFinal := spendingTx(1)
	nonFinal.LockHeight = 2
	block = h.buildBlock(t, h.genesis, nonFinal)
	err := h.validator.ValidateBodyInContext(block, h.genesis)
	if !errors.Is(err, ruleerrors.ErrUnfinalizedTx) {
		t.Fatalf("TestValidateBodyInContext: expected ErrUnfinalizedTx, got %v", err)
	}

	withWitness := spendingTx(1)
	withWitness.Inputs[0].Witness = [][]byte{{1}}
	block = h.buildBlock(t, h.genesis, withWitness)
	err = h.validator.ValidateBodyInContext(block, h.genesis)
	if !errors.Is(err, ruleerrors.ErrUnexpectedWitness) {
		t.Fatalf("TestValidateBodyInContext: expected ErrUnexpectedWitness, got %v", err)
	}
}

func TestValidateBodyInContextCoinbaseHeight(t *testing.T) {
	params := chaincfg.RegressionNetParams
	params.BIP34Height = 1
	h := newTestHarness(t, &params)

	block := h.buildBlock(t, h.genesis)
	require.NoError(t, h.validator.ValidateBodyInContext(block, h.genesis))

	block.Transactions[0].LockHeight = 0
	h.remerkle(block)
	err := h.validator.ValidateBodyInContext(block, h.genesis)
	if !errors.Is(err, ruleerrors.ErrBadCoinbaseLockHeight) {
		t.Fatalf("TestValidateBodyInContextCoinbaseHeight: expected ErrBadCoinbaseLockHeight, got %v", err)
	}
}

func TestValidateBodyInContextCoinbaseLockTime(t *testing.T) {
	params := chaincfg.RegressionNetParams
	params.ProtocolCleanupActivationTime = int64(params.GenesisBlock.Header.Timestamp) + 1
	h := newTestHarness(t, &params)
	active := uint32(params.ProtocolCleanupActivationTime)

	tests := []struct {
		name     string
		prevNode func() *blockindex.Node
		lockTime uint32
		expected error
	}{
		{name: "legacy parent, legacy claim", prevNode: func() *blockindex.Node { return h.genesis }},
		{name: "legacy parent, cleanup claim", prevNode: func() *blockindex.Node { return h.genesis },
			lockTime: active, expected: ruleerrors.ErrBadCoinbaseLockTime},
		{name: "cleanup parent, legacy claim", prevNode: func() *blockindex.Node { return h.cleanupParent(t) },
			expected: ruleerrors.ErrBadCoinbaseLockTime},
		{name: "cleanup parent, cleanup claim", prevNode: func() *blockindex.Node { return h.cleanupParent(t) },
			lockTime: active},
	}
	for _, test := range tests {
		prevNode := test.prevNode()
		block := h.buildBlock(t, prevNode)
		block.Transactions[0].LockTime = test.lockTime
		h.remerkle(block)
		err := h.validator.ValidateBodyInContext(block, prevNode)
		if test.expected == nil && err != nil {
			t.Fatalf("TestValidateBodyInContextCoinbaseLockTime: %s: unexpected error: %s", test.name, err)
		}
		if test.expected != nil && !errors.Is(err, test.expected) {
			t.Fatalf("TestValidateBodyInContextCoinbaseLockTime: %s: expected %v, got %v",
				test.name, test.expected, err)
		}
	}
}

func TestValidateBodyInContextUnrestrictedCoinbaseScript(t *testing.T) {
	params := chaincfg.RegressionNetParams
	params.BIP34Height = 1
	params.ProtocolCleanupActivationTime = int64(params.GenesisBlock.Header.Timestamp) + 1
	h := newTestHarness(t, &params)

	withoutHeight := func(prevNode *blockindex.Node, lockTime uint32) *externalapi.DomainBlock {
		block := h.buildBlock(t, prevNode)
		coinbase := block.Transactions[0]
		coinbase.Inputs[0].SignatureScript = []byte{txscript.OP_TRUE, txscript.OP_TRUE}
		coinbase.LockTime = lockTime
		h.remerkle(block)
		return block
	}

	err := h.validator.ValidateBodyInContext(withoutHeight(h.genesis, 0), h.genesis)
	if !errors.Is(err, ruleerrors.ErrBadCoinbaseHeight) {
		t.Fatalf("TestValidateBodyInContextUnrestrictedCoinbaseScript: expected ErrBadCoinbaseHeight, got %v", err)
	}

	// Protocol cleanup drops the height prefix but keeps the lock height.
	parent := h.cleanupParent(t)
	block := withoutHeight(parent, uint32(params.ProtocolCleanupActivationTime))
	require.NoError(t, h.validator.ValidateBodyInContext(block, parent))

	block.Transactions[0].LockHeight = 0
	h.remerkle(block)
	err = h.validator.ValidateBodyInContext(block, parent)
	if !errors.Is(err, ruleerrors.ErrBadCoinbaseLockHeight) {
		t.Fatalf("TestValidateBodyInContextUnrestrictedCoinbaseScript: expected ErrBadCoinbaseLockHeight, got %v", err)
	}
}

// cleanupParent returns a block on top of genesis whose median time past
// reaches the protocol cleanup activation time.
func (h *testHarness) cleanupParent(t *testing.T) *blockindex.Node {
	block := h.buildBlock(t, h.genesis)
	block.Header.Timestamp = uint32(h.params.ProtocolCleanupActivationTime) + 600
	h.solve(block.Header)
	node, err := h.index.AddHeader(block.Header)
	require.NoError(t, err)
	require.True(t, h.params.IsProtocolCleanupActiveAtMedianTime(node.MedianTimePast()))
	return node
}

// commitWitness adds a witness commitment for block to its coinbase.
func commitWitness(block *externalapi.DomainBlock, nonce []byte) {
	coinbase := block.Transactions[0]
	coinbase.Inputs[0].Witness = [][]byte{nonce}
	witnessRoot, _ := consensushashing.BlockWitnessMerkleRoot(block.Transactions)
	commitment := hashes.DoubleSHA256(append(witnessRoot.ByteSlice(), nonce...))

	script := append(constants.WitnessCommitmentHeader[:], commitment.ByteSlice()...)
	coinbase.Outputs = append(coinbase.Outputs, &externalapi.DomainTransactionOutput{ScriptPublicKey: script})
}

func TestWitnessCommitment(t *testing.T) {
	params := chaincfg.RegressionNetParams
	require.NoError(t, params.UpdateBIP9Parameters(chaincfg.DeploymentSegwit, chaincfg.AlwaysActive, 0))
	h := newTestHarness(t, &params)
	nonce := make([]byte, externalapi.DomainHashSize)

	withWitness := func() *externalapi.DomainTransaction {
		tx := spendingTx(1)
		tx.Inputs[0].Witness = [][]byte{{1, 2, 3}}
		return tx
	}

	tests := []struct {
		name     string
		mutate   func(block *externalapi.DomainBlock)
		expected error
	}{
		{
			name: "valid commitment",
			mutate: func(block *externalapi.DomainBlock) {
				commitWitness(block, nonce)
			},
		},
		{
			name:     "witness without commitment",
			mutate:   func(*externalapi.DomainBlock) {},
			expected: ruleerrors.ErrUnexpectedWitness,
		},
		{
			name: "short nonce",
			mutate: func(block *externalapi.DomainBlock) {
				commitWitness(block, nonce)
				block.Transactions[0].Inputs[0].Witness = [][]byte{nonce[:31]}
			},
			expected: ruleerrors.ErrBadWitnessNonceSize,
		},
		{
			name: "commitment over other data",
			mutate: func(block *externalapi.DomainBlock) {
				commitWitness(block, nonce)
				block.Transactions[1].Inputs[0].Witness = [][]byte{{4}}
			},
			expected: ruleerrors.ErrBadWitnessCommitment,
		},
	}

	for _, test := range tests {
		block := h.buildBlock(t, h.genesis, withWitness())
		test.mutate(block)
		h.remerkle(block)
		err := h.validator.ValidateBodyInContext(block, h.genesis)
		if test.expected == nil {
			require.NoError(t, err, test.name)
			continue
		}
		if !errors.Is(err, test.expected) {
			t.Fatalf("TestWitnessCommitment: %s: expected %v, got %v", test.name, test.expected, err)
		}
	}
}

func TestScriptFlags(t *testing.T) {
	params := chaincfg.RegressionNetParams
	h := newTestHarness(t, &params)
	node, err := h.index.AddHeader(h.buildBlock(t, h.genesis).Header)
	require.NoError(t, err)

	flags, err := h.validator.ScriptFlags(node)
	require.NoError(t, err)
	require.Equal(t, txscript.ScriptBip16, flags)

	enforce, err := h.validator.EnforceRelativeLocks(h.genesis)
	require.NoError(t, err)
	require.False(t, enforce)

	activated := chaincfg.RegressionNetParams
	require.NoError(t, activated.UpdateBIP9Parameters(chaincfg.DeploymentLockTime, chaincfg.AlwaysActive, 0))
	require.NoError(t, activated.UpdateBIP9Parameters(chaincfg.DeploymentSegwit, chaincfg.AlwaysActive, 0))
	activated.BIP66Height = 1
	h = newTestHarness(t, &activated)
	node, err = h.index.AddHeader(h.buildBlock(t, h.genesis).Header)
	require.NoError(t, err)

	flags, err = h.validator.ScriptFlags(node)
	require.NoError(t, err)
	expected := txscript.ScriptBip16 | txscript.ScriptVerifyDERSignatures | txscript.ScriptVerifyCheckLockTimeVerify |
		txscript.ScriptVerifyCheckSequenceVerify | txscript.ScriptVerifyWitness | txscript.ScriptVerifyNullDummy
	require.Equal(t, expected, flags)

	enforce, err = h.validator.EnforceRelativeLocks(h.genesis)
	require.NoError(t, err)
	require.True(t, enforce)
}
