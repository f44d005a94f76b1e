package consensusstatemanager

import (
	"github.com/freicoin/freicoind/domain/chaincfg"
	"github.com/freicoin/freicoind/domain/consensus/datastructures/blockindex"
	"github.com/freicoin/freicoind/domain/consensus/model"
	"github.com/freicoin/freicoind/domain/consensus/model/externalapi"
	"github.com/freicoin/freicoind/infrastructure/db/database"
)

// consensusStateManager manages the node's consensus state
type consensusStateManager struct {
	params          *chaincfg.Params
	databaseContext database.Database
	blockIndex      *blockindex.BlockIndex

	// assumeValid is the block whose ancestors skip script checks. Nil
	// checks every script.
	assumeValid *externalapi.DomainHash

	blockValidator       model.BlockValidator
	transactionValidator model.TransactionValidator
	coinbaseManager      model.CoinbaseManager

	blockStore      model.BlockStore
	undoStore       model.UndoStore
	coinsStore      model.CoinsStore
	blockIndexStore model.BlockIndexStore

	sink model.ValidationSink
}

// New instantiates a new ConsensusStateManager
func New(
	databaseContext database.Database,
	params *chaincfg.Params,
	blockIndex *blockindex.BlockIndex,
	assumeValid *externalapi.DomainHash,
	blockValidator model.BlockValidator,
	transactionValidator model.TransactionValidator,
	coinbaseManager model.CoinbaseManager,
	blockStore model.BlockStore,
	undoStore model.UndoStore,
	coinsStore model.CoinsStore,
	blockIndexStore model.BlockIndexStore,
	sink model.ValidationSink) model.ConsensusStateManager {

	return &consensusStateManager{
		params:          params,
		databaseContext: databaseContext,
		blockIndex:      blockIndex,
		assumeValid:     assumeValid,

		blockValidator:       blockValidator,
		transactionValidator: transactionValidator,
		coinbaseManager:      coinbaseManager,

		blockStore:      blockStore,
		undoStore:       undoStore,
		coinsStore:      coinsStore,
		blockIndexStore: blockIndexStore,

		sink: sink,
	}
}

// storeDirtyEntries writes every block index entry changed since the last
// call through dbTx.
func (csm *consensusStateManager) storeDirtyEntries(dbTx database.DataAccessor) error {
	for _, entry := range csm.blockIndex.DirtyEntries() {
		err := csm.blockIndexStore.StoreEntry(dbTx, entry)
		if err != nil {
			return err
		}
	}
	return nil
}

// commitDirtyEntries persists the changed block index entries in a
// transaction of their own.
func (csm *consensusStateManager) commitDirtyEntries() error {
	dbTx, err := csm.databaseContext.Begin()
	if err != nil {
		return err
	}
	defer dbTx.RollbackUnlessClosed()

	err = csm.storeDirtyEntries(dbTx)
	if err != nil {
		return err
	}
	return dbTx.Commit()
}
