package undostore

import (
	"github.com/freicoin/freicoind/domain/consensus/model"
	"github.com/freicoin/freicoind/domain/consensus/model/externalapi"
	"github.com/freicoin/freicoind/domain/consensus/utils/serialization"
	"github.com/freicoin/freicoind/infrastructure/db/database"
	"github.com/pkg/errors"
)

var bucket = database.MakeBucket([]byte("undo"))

// undoStore represents a store of block undo records
type undoStore struct{}

// New instantiates a new UndoStore
func New() model.UndoStore {
	return &undoStore{}
}

// StoreUndo stores the undo record of the block blockHash
func (us *undoStore) StoreUndo(dbTx database.DataAccessor, blockHash *externalapi.DomainHash,
	undo *externalapi.BlockUndo) error {

	return dbTx.Put(bucket.Key(blockHash.ByteSlice()), serialization.UndoToBytes(undo))
}

// Undo gets the undo record of the block blockHash
func (us *undoStore) Undo(dbContext database.DataAccessor, blockHash *externalapi.DomainHash) (*externalapi.BlockUndo, error) {
	undoBytes, err := dbContext.Get(bucket.Key(blockHash.ByteSlice()))
	if err != nil {
		return nil, err
	}
	undo, err := serialization.UndoFromBytes(undoBytes)
	if err != nil {
		return nil, errors.Wrapf(err, "deserializing the undo record of %s", blockHash)
	}
	return undo, nil
}
