package externalapi

import "math/big"

// BlockStatus is a bit set describing what is known about a block.
type BlockStatus uint32

// Block status bits.
const (
	// StatusHeaderValid means the header passed every header check.
	StatusHeaderValid BlockStatus = 1 << iota

	// StatusDataStored means the full block is in the block store.
	StatusDataStored

	// StatusUndoStored means the block's undo record is in the undo
	// store. Set for blocks that were connected at least once.
	StatusUndoStored

	// StatusValid means the block was fully validated and connected.
	StatusValid

	// StatusValidateFailed means the block itself broke a rule.
	StatusValidateFailed

	// StatusInvalidAncestor means an ancestor of the block broke a
	// rule.
	StatusInvalidAncestor
)

// StatusFailedMask matches blocks known to be invalid.
const StatusFailedMask = StatusValidateFailed | StatusInvalidAncestor

// Has returns whether every bit of flag is set.
func (status BlockStatus) Has(flag BlockStatus) bool {
	return status&flag == flag
}

// IsFailed returns whether the block or one of its ancestors is invalid.
func (status BlockStatus) IsFailed() bool {
	return status&StatusFailedMask != 0
}

// BlockIndexEntry is the persisted form of a block index node.
type BlockIndexEntry struct {
	Hash      DomainHash
	Header    *DomainBlockHeader
	Height    int32
	ChainWork *big.Int
	Status    BlockStatus
}
