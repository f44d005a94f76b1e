package coinsstore

import (
	"github.com/freicoin/freicoind/domain/consensus/model"
	"github.com/freicoin/freicoind/domain/consensus/model/externalapi"
	"github.com/freicoin/freicoind/domain/consensus/utils/serialization"
	"github.com/freicoin/freicoind/domain/consensus/utils/utxo"
	"github.com/freicoin/freicoind/infrastructure/db/database"
	"github.com/pkg/errors"
)

var (
	coinsBucket  = database.MakeBucket([]byte("coins"))
	stateBucket  = database.MakeBucket([]byte("coins-state"))
	bestBlockKey = stateBucket.Key([]byte("best-block"))
	multisetKey  = stateBucket.Key([]byte("multiset"))
)

// coinsStore represents the persistent UTXO set
type coinsStore struct{}

// New instantiates a new CoinsStore
func New() model.CoinsStore {
	return &coinsStore{}
}

// View returns a UTXOView over the coins stored in dbContext. The view keeps
// the multiset commitment up to date in memory and writes it back together
// with the best block hash, so a batch of changes becomes consistent on disk
// once SetBestBlockHash is called.
func (cs *coinsStore) View(dbContext database.DataAccessor) (model.UTXOView, error) {
	multiset, err := readMultiset(dbContext)
	if err != nil {
		return nil, err
	}
	return &view{dbContext: dbContext, multiset: multiset}, nil
}

// Commitment returns the multiset hash of the stored UTXO set
func (cs *coinsStore) Commitment(dbContext database.DataAccessor) (*externalapi.DomainHash, error) {
	multiset, err := readMultiset(dbContext)
	if err != nil {
		return nil, err
	}
	return multiset.Hash(), nil
}

func readMultiset(dbContext database.DataAccessor) (*utxo.Multiset, error) {
	multisetBytes, err := dbContext.Get(multisetKey)
	if database.IsNotFoundError(err) {
		return utxo.NewMultiset(), nil
	}
	if err != nil {
		return nil, err
	}
	return utxo.MultisetFromBytes(multisetBytes)
}

type view struct {
	dbContext database.DataAccessor
	multiset  *utxo.Multiset
}

func outpointAsKey(outpoint *externalapi.DomainOutpoint) *database.Key {
	return coinsBucket.Key(serialization.OutpointToBytes(outpoint))
}

func (v *view) GetCoin(outpoint *externalapi.DomainOutpoint) (*externalapi.Coin, bool, error) {
	coinBytes, err := v.dbContext.Get(outpointAsKey(outpoint))
	if database.IsNotFoundError(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	coin, err := serialization.CoinFromBytes(coinBytes)
	if err != nil {
		return nil, false, errors.Wrapf(err, "deserializing the coin at %s", outpoint)
	}
	return coin, true, nil
}

func (v *view) AddCoin(outpoint *externalapi.DomainOutpoint, coin *externalapi.Coin, possibleOverwrite bool) error {
	existing, found, err := v.GetCoin(outpoint)
	if err != nil {
		return err
	}
	if found {
		if !possibleOverwrite {
			return errors.Errorf("attempted to overwrite unspent coin %s", outpoint)
		}
		v.multiset.RemoveCoin(outpoint, existing)
	}
	err = v.dbContext.Put(outpointAsKey(outpoint), serialization.CoinToBytes(coin))
	if err != nil {
		return err
	}
	v.multiset.AddCoin(outpoint, coin)
	return nil
}

func (v *view) SpendCoin(outpoint *externalapi.DomainOutpoint) (*externalapi.Coin, bool, error) {
	coin, found, err := v.GetCoin(outpoint)
	if err != nil || !found {
		return nil, false, err
	}
	err = v.dbContext.Delete(outpointAsKey(outpoint))
	if err != nil {
		return nil, false, err
	}
	v.multiset.RemoveCoin(outpoint, coin)
	return coin, true, nil
}

// GetBestBlockHash returns the zero hash when no block was ever connected.
func (v *view) GetBestBlockHash() (*externalapi.DomainHash, error) {
	hashBytes, err := v.dbContext.Get(bestBlockKey)
	if database.IsNotFoundError(err) {
		return &externalapi.DomainHash{}, nil
	}
	if err != nil {
		return nil, err
	}
	return externalapi.NewDomainHashFromByteSlice(hashBytes)
}

func (v *view) SetBestBlockHash(hash *externalapi.DomainHash) error {
	err := v.dbContext.Put(multisetKey, v.multiset.Bytes())
	if err != nil {
		return err
	}
	return v.dbContext.Put(bestBlockKey, hash.ByteSlice())
}
