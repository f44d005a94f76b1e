package model

import (
	"github.com/freicoin/freicoind/domain/consensus/datastructures/blockindex"
	"github.com/freicoin/freicoind/domain/consensus/model/externalapi"
)

// PastMedianTimeManager resolves block times against the chain and the
// local clock
type PastMedianTimeManager interface {
	PastMedianTime(blockHash *externalapi.DomainHash) (int64, error)
	AdjustedTime() int64
	ValidateTimestamp(header *externalapi.DomainBlockHeader, prevNode *blockindex.Node) error
	LockTimeCutoff(header *externalapi.DomainBlockHeader, prevNode *blockindex.Node, enforceMedianTime bool) int64
}
