package model

import (
	"github.com/freicoin/freicoind/domain/consensus/model/externalapi"
	"github.com/freicoin/freicoind/infrastructure/db/database"
)

// BlockStore persists full blocks by hash.
type BlockStore interface {
	StoreBlock(dbTx database.DataAccessor, blockHash *externalapi.DomainHash, block *externalapi.DomainBlock) error
	Block(dbContext database.DataAccessor, blockHash *externalapi.DomainHash) (*externalapi.DomainBlock, error)
	HasBlock(dbContext database.DataAccessor, blockHash *externalapi.DomainHash) (bool, error)
}

// UndoStore persists the undo record of each connected block.
type UndoStore interface {
	StoreUndo(dbTx database.DataAccessor, blockHash *externalapi.DomainHash, undo *externalapi.BlockUndo) error
	Undo(dbContext database.DataAccessor, blockHash *externalapi.DomainHash) (*externalapi.BlockUndo, error)
}

// CoinsStore is the persistent base of the UTXO set.
type CoinsStore interface {
	// View returns a UTXOView reading and writing through dbContext.
	View(dbContext database.DataAccessor) (UTXOView, error)

	// Commitment returns the multiset hash of the UTXO set as stored in
	// dbContext.
	Commitment(dbContext database.DataAccessor) (*externalapi.DomainHash, error)
}

// BlockIndexStore persists block index entries.
type BlockIndexStore interface {
	StoreEntry(dbTx database.DataAccessor, entry *externalapi.BlockIndexEntry) error
	Entries(dbContext database.DataAccessor) ([]*externalapi.BlockIndexEntry, error)
}
