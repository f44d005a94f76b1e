package blockstore

import (
	"github.com/freicoin/freicoind/domain/consensus/model"
	"github.com/freicoin/freicoind/domain/consensus/model/externalapi"
	"github.com/freicoin/freicoind/domain/consensus/utils/serialization"
	"github.com/freicoin/freicoind/infrastructure/db/database"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/pkg/errors"
)

var bucket = database.MakeBucket([]byte("blocks"))

// blockStore represents a store of blocks
type blockStore struct {
	cache *lru.Cache[externalapi.DomainHash, *externalapi.DomainBlock]
}

// New instantiates a new BlockStore
func New(cacheSize int) (model.BlockStore, error) {
	cache, err := lru.New[externalapi.DomainHash, *externalapi.DomainBlock](cacheSize)
	if err != nil {
		return nil, errors.Wrap(err, "creating the block cache")
	}
	return &blockStore{cache: cache}, nil
}

// StoreBlock stores block under blockHash. Blocks are immutable, so storing
// a hash twice rewrites the same bytes.
func (bs *blockStore) StoreBlock(dbTx database.DataAccessor, blockHash *externalapi.DomainHash,
	block *externalapi.DomainBlock) error {

	return dbTx.Put(bs.hashAsKey(blockHash), serialization.BlockToBytes(block))
}

// Block gets the block associated with the given blockHash
func (bs *blockStore) Block(dbContext database.DataAccessor, blockHash *externalapi.DomainHash) (
	*externalapi.DomainBlock, error) {

	if block, ok := bs.cache.Get(*blockHash); ok {
		return block.Clone(), nil
	}

	blockBytes, err := dbContext.Get(bs.hashAsKey(blockHash))
	if err != nil {
		return nil, err
	}
	block, err := serialization.BlockFromBytes(blockBytes)
	if err != nil {
		return nil, errors.Wrapf(err, "deserializing stored block %s", blockHash)
	}
	bs.cache.Add(*blockHash, block)
	return block.Clone(), nil
}

// HasBlock returns whether a block with a given hash exists in the store.
func (bs *blockStore) HasBlock(dbContext database.DataAccessor, blockHash *externalapi.DomainHash) (bool, error) {
	return dbContext.Has(bs.hashAsKey(blockHash))
}

func (bs *blockStore) hashAsKey(hash *externalapi.DomainHash) *database.Key {
	return bucket.Key(hash.ByteSlice())
}
