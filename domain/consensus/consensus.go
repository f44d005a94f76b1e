package consensus

import (
	"context"
	"sync"

	"github.com/freicoin/freicoind/domain/chaincfg"
	"github.com/freicoin/freicoind/domain/consensus/datastructures/blockindex"
	"github.com/freicoin/freicoind/domain/consensus/model"
	"github.com/freicoin/freicoind/domain/consensus/model/externalapi"
	"github.com/freicoin/freicoind/domain/consensus/utils/versionbits"
	"github.com/freicoin/freicoind/infrastructure/db/database"
	"github.com/pkg/errors"
)

// Consensus maintains the current core state of the node
type Consensus interface {
	ValidateAndInsertBlock(ctx context.Context, block *externalapi.DomainBlock) error
	InvalidateBlock(ctx context.Context, blockHash *externalapi.DomainHash) error
	ReconsiderBlock(ctx context.Context, blockHash *externalapi.DomainHash) error

	GetBlock(blockHash *externalapi.DomainHash) (*externalapi.DomainBlock, error)
	GetBlockInfo(blockHash *externalapi.DomainHash) *externalapi.BlockInfo
	GetBlockHashByHeight(height int32) (*externalapi.DomainHash, bool)
	TipHash() *externalapi.DomainHash
	TipHeight() int32
	BestHeaderHash() *externalapi.DomainHash
	ChainTips() []*model.ChainTip
	OrphanCount() int

	GetCoin(outpoint *externalapi.DomainOutpoint) (*externalapi.Coin, bool, error)
	GetSpendHeight() (int32, error)
	UTXOCommitment() (*externalapi.DomainHash, error)

	PastMedianTime(blockHash *externalapi.DomainHash) (int64, error)
	ComputeBlockVersion() (int32, error)
	DeploymentState(deployment int) (versionbits.ThresholdState, error)
}

// consensus funnels every access to the chain state through one lock. The
// block index, the version bits cache and the stores are not safe for
// concurrent use on their own.
type consensus struct {
	lock            *sync.Mutex
	params          *chaincfg.Params
	databaseContext database.Database

	blockIndex       *blockindex.BlockIndex
	versionBitsCache *versionbits.Cache

	blockProcessor        model.BlockProcessor
	blockValidator        model.BlockValidator
	consensusStateManager model.ConsensusStateManager
	difficultyManager     model.DifficultyManager
	pastMedianTimeManager model.PastMedianTimeManager
	coinbaseManager       model.CoinbaseManager

	blockStore model.BlockStore
	undoStore  model.UndoStore
	coinsStore model.CoinsStore
}

// ValidateAndInsertBlock validates the given block and, if valid, applies it
// to the current state
func (s *consensus) ValidateAndInsertBlock(ctx context.Context, block *externalapi.DomainBlock) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	return s.blockProcessor.ValidateAndInsertBlock(ctx, block)
}

// InvalidateBlock marks a block invalid and moves the active chain off it
func (s *consensus) InvalidateBlock(ctx context.Context, blockHash *externalapi.DomainHash) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	return s.consensusStateManager.InvalidateBlock(ctx, blockHash)
}

// ReconsiderBlock undoes InvalidateBlock, and any failure recorded for the
// block's ancestors and descendants, then activates the best chain
func (s *consensus) ReconsiderBlock(ctx context.Context, blockHash *externalapi.DomainHash) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	err := s.consensusStateManager.ResetBlockFailureFlags(blockHash)
	if err != nil {
		return err
	}
	return s.consensusStateManager.ActivateBestChain(ctx)
}

func (s *consensus) GetBlock(blockHash *externalapi.DomainHash) (*externalapi.DomainBlock, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	node := s.blockIndex.LookupNode(blockHash)
	if node == nil || !node.HaveData() {
		return nil, errors.Errorf("block %s does not exist", blockHash)
	}
	return s.blockStore.Block(s.databaseContext, blockHash)
}

func (s *consensus) GetBlockInfo(blockHash *externalapi.DomainHash) *externalapi.BlockInfo {
	s.lock.Lock()
	defer s.lock.Unlock()

	node := s.blockIndex.LookupNode(blockHash)
	if node == nil {
		return &externalapi.BlockInfo{}
	}
	return &externalapi.BlockInfo{
		Exists:          true,
		Status:          node.Status(),
		Height:          node.Height,
		ChainWork:       node.ChainWork,
		IsInActiveChain: s.blockIndex.Contains(node),
	}
}

func (s *consensus) GetBlockHashByHeight(height int32) (*externalapi.DomainHash, bool) {
	s.lock.Lock()
	defer s.lock.Unlock()

	node := s.blockIndex.NodeByHeight(height)
	if node == nil {
		return nil, false
	}
	return &node.Hash, true
}

func (s *consensus) TipHash() *externalapi.DomainHash {
	s.lock.Lock()
	defer s.lock.Unlock()

	tip := s.blockIndex.Tip()
	hash := tip.Hash
	return &hash
}

func (s *consensus) TipHeight() int32 {
	s.lock.Lock()
	defer s.lock.Unlock()

	return s.blockIndex.Height()
}

func (s *consensus) BestHeaderHash() *externalapi.DomainHash {
	s.lock.Lock()
	defer s.lock.Unlock()

	hash := s.blockIndex.BestHeader().Hash
	return &hash
}

func (s *consensus) ChainTips() []*model.ChainTip {
	s.lock.Lock()
	defer s.lock.Unlock()

	return s.consensusStateManager.ChainTips()
}

func (s *consensus) OrphanCount() int {
	s.lock.Lock()
	defer s.lock.Unlock()

	return s.blockProcessor.OrphanCount()
}

// GetCoin returns the unspent coin at outpoint as of the active chain tip
func (s *consensus) GetCoin(outpoint *externalapi.DomainOutpoint) (*externalapi.Coin, bool, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	view, err := s.coinsStore.View(s.databaseContext)
	if err != nil {
		return nil, false, err
	}
	return view.GetCoin(outpoint)
}

// GetSpendHeight returns the height a transaction spending from the UTXO
// set would be included at: one above the best block of the set.
func (s *consensus) GetSpendHeight() (int32, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	view, err := s.coinsStore.View(s.databaseContext)
	if err != nil {
		return 0, err
	}
	bestHash, err := view.GetBestBlockHash()
	if err != nil {
		return 0, err
	}
	node := s.blockIndex.LookupNode(bestHash)
	if node == nil {
		return 0, errors.Errorf("the best block %s of the UTXO set is unknown", bestHash)
	}
	return node.Height + 1, nil
}

// UTXOCommitment returns the multiset hash of the UTXO set
func (s *consensus) UTXOCommitment() (*externalapi.DomainHash, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	return s.coinsStore.Commitment(s.databaseContext)
}

func (s *consensus) PastMedianTime(blockHash *externalapi.DomainHash) (int64, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	return s.pastMedianTimeManager.PastMedianTime(blockHash)
}

// ComputeBlockVersion returns the version a block built on the active
// chain tip should carry to signal for the deployments being voted on
func (s *consensus) ComputeBlockVersion() (int32, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	return s.versionBitsCache.ComputeBlockVersion(s.blockIndex.Tip())
}

// DeploymentState returns the state of deployment for the block that would
// follow the active chain tip
func (s *consensus) DeploymentState(deployment int) (versionbits.ThresholdState, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	return s.versionBitsCache.State(s.blockIndex.Tip(), deployment)
}
