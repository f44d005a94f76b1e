package model

import (
	"context"

	"github.com/freicoin/freicoind/domain/consensus/datastructures/blockindex"
	"github.com/freicoin/freicoind/domain/consensus/model/externalapi"
)

// ChainTip describes a block no other known block builds on
type ChainTip struct {
	Hash      externalapi.DomainHash
	Height    int32
	BranchLen int32
	Status    string
}

// Chain tip statuses
const (
	ChainTipActive       = "active"
	ChainTipValidFork    = "valid-fork"
	ChainTipValidHeaders = "valid-headers"
	ChainTipHeadersOnly  = "headers-only"
	ChainTipInvalid      = "invalid"
)

// ConsensusStateManager manages the node's consensus state: the UTXO set
// and the active chain
type ConsensusStateManager interface {
	ConnectBlock(ctx context.Context, view UTXOView, block *externalapi.DomainBlock, node *blockindex.Node) (*externalapi.BlockUndo, error)
	DisconnectBlock(view UTXOView, block *externalapi.DomainBlock, node *blockindex.Node,
		undo *externalapi.BlockUndo) error
	ActivateBestChain(ctx context.Context) error
	InvalidateBlock(ctx context.Context, blockHash *externalapi.DomainHash) error
	ResetBlockFailureFlags(blockHash *externalapi.DomainHash) error
	ChainTips() []*ChainTip
	LoadChainState() error
}
