package blockindexstore

import (
	"github.com/freicoin/freicoind/domain/consensus/model"
	"github.com/freicoin/freicoind/domain/consensus/model/externalapi"
	"github.com/freicoin/freicoind/domain/consensus/utils/serialization"
	"github.com/freicoin/freicoind/infrastructure/db/database"
	"github.com/pkg/errors"
)

var bucket = database.MakeBucket([]byte("block-index"))

// blockIndexStore represents a store of block index entries
type blockIndexStore struct{}

// New instantiates a new BlockIndexStore
func New() model.BlockIndexStore {
	return &blockIndexStore{}
}

// StoreEntry stores entry, replacing the previous entry of the same block
func (bis *blockIndexStore) StoreEntry(dbTx database.DataAccessor, entry *externalapi.BlockIndexEntry) error {
	return dbTx.Put(bucket.Key(entry.Hash.ByteSlice()), serialization.BlockIndexEntryToBytes(entry))
}

// Entries returns every stored entry
func (bis *blockIndexStore) Entries(dbContext database.DataAccessor) ([]*externalapi.BlockIndexEntry, error) {
	cursor, err := dbContext.Cursor(bucket)
	if err != nil {
		return nil, err
	}
	defer cursor.Close()

	var entries []*externalapi.BlockIndexEntry
	for ok := cursor.First(); ok; ok = cursor.Next() {
		key, err := cursor.Key()
		if err != nil {
			return nil, err
		}
		hash, err := externalapi.NewDomainHashFromByteSlice(key.Suffix())
		if err != nil {
			return nil, errors.Wrap(err, "malformed block index key")
		}
		value, err := cursor.Value()
		if err != nil {
			return nil, err
		}
		entry, err := serialization.BlockIndexEntryFromBytes(value)
		if err != nil {
			return nil, errors.Wrapf(err, "deserializing the block index entry of %s", hash)
		}
		entry.Hash = *hash
		entries = append(entries, entry)
	}
	return entries, nil
}
