package consensus

import (
	"context"

	"github.com/freicoin/freicoind/domain/chaincfg"
	"github.com/freicoin/freicoind/domain/consensus/datastructures/blockindex"
	"github.com/freicoin/freicoind/domain/consensus/model"
	"github.com/freicoin/freicoind/domain/consensus/model/externalapi"
	"github.com/freicoin/freicoind/domain/consensus/utils/consensushashing"
	"github.com/freicoin/freicoind/domain/consensus/utils/constants"
	"github.com/freicoin/freicoind/domain/consensus/utils/hashes"
	"github.com/freicoin/freicoind/domain/consensus/utils/pow"
	"github.com/freicoin/freicoind/domain/consensus/utils/txscript"
	"github.com/freicoin/freicoind/infrastructure/db/database"
	"github.com/pkg/errors"
)

// OpTrueScript is the script public key of the coinbases built by
// TestConsensus. It is spendable with an empty signature script.
var OpTrueScript = []byte{txscript.OP_TRUE}

// TestConsensus wraps Consensus with helpers for building blocks on any
// known block and with access to its internals
type TestConsensus interface {
	Consensus

	Params() *chaincfg.Params
	DatabaseContext() database.Database
	BlockIndex() *blockindex.BlockIndex
	ConsensusStateManager() model.ConsensusStateManager
	BlockStore() model.BlockStore
	UndoStore() model.UndoStore
	CoinsStore() model.CoinsStore

	// BuildBlock returns a valid, solved block on top of parentHash
	// carrying a coinbase followed by transactions.
	BuildBlock(parentHash *externalapi.DomainHash,
		transactions []*externalapi.DomainTransaction) (*externalapi.DomainBlock, error)

	// AddBlock builds a block with BuildBlock and inserts it.
	AddBlock(parentHash *externalapi.DomainHash,
		transactions []*externalapi.DomainTransaction) (*externalapi.DomainHash, error)

	// SolveBlock recomputes the merkle root of block and grinds its nonce
	// until the header satisfies its own bits.
	SolveBlock(block *externalapi.DomainBlock)
}

type testConsensus struct {
	*consensus
	database database.Database

	// extraNonce keeps blocks built on the same parent apart.
	extraNonce int64
}

func (tc *testConsensus) Params() *chaincfg.Params {
	return tc.params
}

func (tc *testConsensus) DatabaseContext() database.Database {
	return tc.database
}

func (tc *testConsensus) BlockIndex() *blockindex.BlockIndex {
	return tc.blockIndex
}

func (tc *testConsensus) ConsensusStateManager() model.ConsensusStateManager {
	return tc.consensusStateManager
}

func (tc *testConsensus) BlockStore() model.BlockStore {
	return tc.blockStore
}

func (tc *testConsensus) UndoStore() model.UndoStore {
	return tc.undoStore
}

func (tc *testConsensus) CoinsStore() model.CoinsStore {
	return tc.coinsStore
}

func (tc *testConsensus) BuildBlock(parentHash *externalapi.DomainHash,
	transactions []*externalapi.DomainTransaction) (*externalapi.DomainBlock, error) {

	tc.lock.Lock()
	defer tc.lock.Unlock()

	parent := tc.blockIndex.LookupNode(parentHash)
	if parent == nil {
		return nil, errors.Errorf("parent %s is not in the block index", parentHash)
	}
	height := parent.Height + 1

	tc.extraNonce++
	coinbase, err := tc.buildCoinbase(height)
	if err != nil {
		return nil, err
	}
	version, err := tc.versionBitsCache.ComputeBlockVersion(parent)
	if err != nil {
		return nil, err
	}

	timestamp := parent.Timestamp() + int64(tc.params.TargetSpacing.Seconds())
	if timestamp <= parent.MedianTimePast() {
		timestamp = parent.MedianTimePast() + 1
	}

	block := &externalapi.DomainBlock{
		Header: &externalapi.DomainBlockHeader{
			Version:       version,
			PrevBlockHash: parent.Hash,
			Timestamp:     uint32(timestamp),
			Bits:          tc.difficultyManager.RequiredDifficulty(parent, timestamp),
		},
		Transactions: append([]*externalapi.DomainTransaction{coinbase}, transactions...),
	}
	for _, tx := range transactions {
		if tx.HasWitness() {
			commitWitness(block)
			break
		}
	}
	tc.SolveBlock(block)
	return block, nil
}

func (tc *testConsensus) buildCoinbase(height int32) (*externalapi.DomainTransaction, error) {
	signatureScript, err := txscript.NewScriptBuilder().
		AddInt64(int64(height)).
		AddInt64(tc.extraNonce).
		Script()
	if err != nil {
		return nil, err
	}
	return &externalapi.DomainTransaction{
		Version: 2,
		Inputs: []*externalapi.DomainTransactionInput{{
			PreviousOutpoint: externalapi.DomainOutpoint{Index: 0xffffffff},
			SignatureScript:  signatureScript,
			Sequence:         constants.MaxTxInSequenceNum,
		}},
		Outputs: []*externalapi.DomainTransactionOutput{{
			Value:           tc.coinbaseManager.BlockSubsidy(height),
			ScriptPublicKey: OpTrueScript,
		}},
		LockHeight: uint32(height),
	}, nil
}

// commitWitness adds a witness commitment output to the coinbase of block
// and a zero nonce to its witness.
func commitWitness(block *externalapi.DomainBlock) {
	coinbase := block.Transactions[0]
	nonce := make([]byte, externalapi.DomainHashSize)
	coinbase.Inputs[0].Witness = [][]byte{nonce}

	witnessRoot, _ := consensushashing.BlockWitnessMerkleRoot(block.Transactions)
	commitment := hashes.DoubleSHA256(append(witnessRoot.ByteSlice(), nonce...))
	script := append(constants.WitnessCommitmentHeader[:], commitment.ByteSlice()...)
	coinbase.Outputs = append(coinbase.Outputs, &externalapi.DomainTransactionOutput{ScriptPublicKey: script})
}

func (tc *testConsensus) SolveBlock(block *externalapi.DomainBlock) {
	merkleRoot, _ := consensushashing.BlockMerkleRoot(block.Transactions)
	block.Header.MerkleRoot = *merkleRoot
	for pow.CheckProofOfWork(consensushashing.HeaderHash(block.Header), block.Header.Bits, tc.params.PowLimit) != nil {
		block.Header.Nonce++
	}
}

func (tc *testConsensus) AddBlock(parentHash *externalapi.DomainHash,
	transactions []*externalapi.DomainTransaction) (*externalapi.DomainHash, error) {

	block, err := tc.BuildBlock(parentHash, transactions)
	if err != nil {
		return nil, err
	}
	err = tc.ValidateAndInsertBlock(context.Background(), block)
	if err != nil {
		return nil, err
	}
	return consensushashing.BlockHash(block), nil
}
