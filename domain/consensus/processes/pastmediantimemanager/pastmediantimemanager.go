package pastmediantimemanager

import (
	"github.com/freicoin/freicoind/domain/consensus/datastructures/blockindex"
	"github.com/freicoin/freicoind/domain/consensus/model"
	"github.com/freicoin/freicoind/domain/consensus/model/externalapi"
	"github.com/freicoin/freicoind/domain/consensus/ruleerrors"
	"github.com/freicoin/freicoind/domain/consensus/utils/constants"
	"github.com/pkg/errors"
)

// pastMedianTimeManager provides a method to resolve the
// past median time of a block
type pastMedianTimeManager struct {
	blockIndex *blockindex.BlockIndex
	timeSource model.TimeSource
}

// New instantiates a new PastMedianTimeManager
func New(blockIndex *blockindex.BlockIndex, timeSource model.TimeSource) model.PastMedianTimeManager {
	return &pastMedianTimeManager{
		blockIndex: blockIndex,
		timeSource: timeSource,
	}
}

// PastMedianTime returns the past median time for some block
func (pmtm *pastMedianTimeManager) PastMedianTime(blockHash *externalapi.DomainHash) (int64, error) {
	node := pmtm.blockIndex.LookupNode(blockHash)
	if node == nil {
		return 0, errors.Errorf("block %s is not in the block index", blockHash)
	}
	return node.MedianTimePast(), nil
}

// AdjustedTime returns the current time as seconds since the epoch
func (pmtm *pastMedianTimeManager) AdjustedTime() int64 {
	return pmtm.timeSource.Now().Unix()
}

// ValidateTimestamp checks that the header timestamp is after the median
// time past of its parent and not too far in the future
func (pmtm *pastMedianTimeManager) ValidateTimestamp(header *externalapi.DomainBlockHeader,
	prevNode *blockindex.Node) error {

	timestamp := int64(header.Timestamp)
	if prevNode != nil && timestamp <= prevNode.MedianTimePast() {
		return errors.Wrapf(ruleerrors.ErrTimeTooOld, "block timestamp of %d is not after expected %d",
			timestamp, prevNode.MedianTimePast())
	}

	maxTimestamp := pmtm.AdjustedTime() + constants.MaxTimeOffsetSeconds
	if timestamp > maxTimestamp {
		return errors.Wrapf(ruleerrors.ErrTimeTooNew, "block timestamp of %d is too far in the future, "+
			"max allowed is %d", timestamp, maxTimestamp)
	}
	return nil
}

// LockTimeCutoff returns the time absolute lock times of a block's
// transactions are compared to: the median time past of its parent once
// BIP113 is enforced, the block's own timestamp before.
func (pmtm *pastMedianTimeManager) LockTimeCutoff(header *externalapi.DomainBlockHeader,
	prevNode *blockindex.Node, enforceMedianTime bool) int64 {

	if enforceMedianTime && prevNode != nil {
		return prevNode.MedianTimePast()
	}
	return int64(header.Timestamp)
}
