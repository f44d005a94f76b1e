// Copyright (c) 2015-2017 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package blockindex

import (
	"math/big"

	"github.com/freicoin/freicoind/domain/consensus/model/externalapi"
	"github.com/freicoin/freicoind/domain/consensus/utils/constants"
	"github.com/freicoin/freicoind/domain/consensus/utils/pow"
	"github.com/freicoin/freicoind/domain/consensus/utils/sorters"
)

// Node represents a block within the block chain. Nodes are owned by the
// BlockIndex they were added to; Parent is a back-reference into the same
// index.
type Node struct {
	// NOTE: The header, hash, parent, height, chain work and median time
	// past are immutable once the node is in an index. Status and
	// sequenceID change and must only be written through the index.

	Hash      externalapi.DomainHash
	Header    *externalapi.DomainBlockHeader
	Parent    *Node
	Height    int32
	ChainWork *big.Int

	status externalapi.BlockStatus

	// skip points to an ancestor further back than Parent and lets
	// Ancestor run in logarithmic time.
	skip *Node

	medianTimePast int64

	// sequenceID orders the arrival of block data. Among chains with equal
	// work the one whose tip arrived first is preferred. Zero means the
	// data never arrived.
	sequenceID uint64

	// chainDataComplete means the data of the block and of all its
	// ancestors is stored.
	chainDataComplete bool
}

func newNode(hash *externalapi.DomainHash, header *externalapi.DomainBlockHeader, parent *Node) *Node {
	node := &Node{
		Hash:   *hash,
		Header: header,
		Parent: parent,
	}
	work := pow.CalcWork(header.Bits)
	if parent != nil {
		node.Height = parent.Height + 1
		node.ChainWork = work.Add(work, parent.ChainWork)
		node.skip = parent.Ancestor(skipHeight(node.Height))
	} else {
		node.ChainWork = work
	}
	node.medianTimePast = node.calcPastMedianTime()
	return node
}

// Status returns the validation status of the node.
func (node *Node) Status() externalapi.BlockStatus {
	return node.status
}

// Timestamp returns the header timestamp.
func (node *Node) Timestamp() int64 {
	return int64(node.Header.Timestamp)
}

// MedianTimePast returns the median timestamp of the node and up to ten of
// its ancestors.
func (node *Node) MedianTimePast() int64 {
	return node.medianTimePast
}

func (node *Node) calcPastMedianTime() int64 {
	timestamps := make(sorters.TimestampSlice, 0, constants.MedianTimeBlocks)
	iterNode := node
	for i := 0; i < constants.MedianTimeBlocks && iterNode != nil; i++ {
		timestamps = append(timestamps, iterNode.Header.Timestamp)
		iterNode = iterNode.Parent
	}
	return int64(timestamps.Median())
}

// HaveData returns whether the full block is stored.
func (node *Node) HaveData() bool {
	return node.status.Has(externalapi.StatusDataStored)
}

// ChainDataComplete returns whether the block and every ancestor are stored.
func (node *Node) ChainDataComplete() bool {
	return node.chainDataComplete
}

// SequenceID returns the arrival order of the block data.
func (node *Node) SequenceID() uint64 {
	return node.sequenceID
}

// Entry returns the persisted form of the node.
func (node *Node) Entry() *externalapi.BlockIndexEntry {
	return &externalapi.BlockIndexEntry{
		Hash:      node.Hash,
		Header:    node.Header,
		Height:    node.Height,
		ChainWork: node.ChainWork,
		Status:    node.status,
	}
}

// invertLowestOne turns the lowest set bit of n off.
func invertLowestOne(n int32) int32 {
	return n & (n - 1)
}

// skipHeight is the height the skip pointer of a node at height points to.
// Any number strictly lower than height would do; this choice keeps
// Ancestor logarithmic.
func skipHeight(height int32) int32 {
	if height < 2 {
		return 0
	}
	if height&1 != 0 {
		return invertLowestOne(invertLowestOne(height-1)) + 1
	}
	return invertLowestOne(height)
}

// Ancestor returns the ancestor of the node at height, or nil when height
// is negative or above the node.
func (node *Node) Ancestor(height int32) *Node {
	if height < 0 || height > node.Height {
		return nil
	}

	iterNode := node
	iterHeight := node.Height
	for iterHeight > height {
		heightSkip := skipHeight(iterHeight)
		heightSkipPrev := skipHeight(iterHeight - 1)
		if iterNode.skip != nil && (heightSkip == height ||
			(heightSkip > height && !(heightSkipPrev < heightSkip-2 && heightSkipPrev >= height))) {
			iterNode = iterNode.skip
			iterHeight = heightSkip
		} else {
			iterNode = iterNode.Parent
			iterHeight--
		}
	}
	return iterNode
}

// RelativeAncestor returns the ancestor distance blocks before the node.
func (node *Node) RelativeAncestor(distance int32) *Node {
	return node.Ancestor(node.Height - distance)
}

// IsAncestorOf returns whether node is other or one of its ancestors.
func (node *Node) IsAncestorOf(other *Node) bool {
	return other.Ancestor(node.Height) == node
}

// LastCommonAncestor returns the highest block both a and b descend from.
func LastCommonAncestor(a, b *Node) *Node {
	if a.Height > b.Height {
		a = a.Ancestor(b.Height)
	} else if b.Height > a.Height {
		b = b.Ancestor(a.Height)
	}
	for a != b && a != nil && b != nil {
		a = a.Parent
		b = b.Parent
	}
	return a
}
