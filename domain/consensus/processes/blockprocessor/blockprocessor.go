package blockprocessor

import (
	"time"

	"github.com/freicoin/freicoind/domain/chaincfg"
	"github.com/freicoin/freicoind/domain/consensus/datastructures/blockindex"
	"github.com/freicoin/freicoind/domain/consensus/model"
	"github.com/freicoin/freicoind/domain/consensus/model/externalapi"
	"github.com/freicoin/freicoind/domain/consensus/processes/blockprocessor/blocklogger"
	"github.com/freicoin/freicoind/infrastructure/db/database"
	"github.com/jellydator/ttlcache/v3"
)

const (
	// orphanTTL is how long a block with an unknown parent is held.
	orphanTTL = 20 * time.Minute

	// maxOrphans bounds the orphan pool. The oldest orphans are evicted
	// first.
	maxOrphans = 100
)

// blockProcessor is responsible for processing incoming blocks
type blockProcessor struct {
	params          *chaincfg.Params
	databaseContext database.Database
	blockIndex      *blockindex.BlockIndex

	blockValidator        model.BlockValidator
	consensusStateManager model.ConsensusStateManager

	blockStore      model.BlockStore
	blockIndexStore model.BlockIndexStore

	sink        model.ValidationSink
	orphans     *ttlcache.Cache[externalapi.DomainHash, *externalapi.DomainBlock]
	blockLogger *blocklogger.BlockLogger
}

// New instantiates a new BlockProcessor
func New(
	params *chaincfg.Params,
	databaseContext database.Database,
	blockIndex *blockindex.BlockIndex,
	blockValidator model.BlockValidator,
	consensusStateManager model.ConsensusStateManager,
	blockStore model.BlockStore,
	blockIndexStore model.BlockIndexStore,
	sink model.ValidationSink) model.BlockProcessor {

	return &blockProcessor{
		params:          params,
		databaseContext: databaseContext,
		blockIndex:      blockIndex,

		blockValidator:        blockValidator,
		consensusStateManager: consensusStateManager,

		blockStore:      blockStore,
		blockIndexStore: blockIndexStore,

		sink: sink,
		orphans: ttlcache.New[externalapi.DomainHash, *externalapi.DomainBlock](
			ttlcache.WithTTL[externalapi.DomainHash, *externalapi.DomainBlock](orphanTTL),
			ttlcache.WithCapacity[externalapi.DomainHash, *externalapi.DomainBlock](maxOrphans),
		),
		blockLogger: blocklogger.New(10 * time.Second),
	}
}

// OrphanCount returns the number of blocks waiting for their parent.
func (bp *blockProcessor) OrphanCount() int {
	bp.orphans.DeleteExpired()
	return bp.orphans.Len()
}
