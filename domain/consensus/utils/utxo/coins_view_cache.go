package utxo

import (
	"github.com/freicoin/freicoind/domain/consensus/model"
	"github.com/freicoin/freicoind/domain/consensus/model/externalapi"
	"github.com/pkg/errors"
)

// cacheEntry is a coin as known to a CoinsViewCache. A nil coin means spent.
type cacheEntry struct {
	coin *externalapi.Coin

	// dirty means the entry differs from the parent view.
	dirty bool

	// fresh means the parent view has no unspent coin at the outpoint, so
	// spending the entry needs no write to the parent.
	fresh bool
}

// CoinsViewCache is a UTXOView that buffers every change to a parent view
// until Flush. Dropping it without flushing leaves the parent untouched,
// which is how speculative block connection is discarded.
//
// Coins returned by a CoinsViewCache must not be modified.
type CoinsViewCache struct {
	parent   model.UTXOView
	entries  map[externalapi.DomainOutpoint]*cacheEntry
	bestHash *externalapi.DomainHash
}

// NewCoinsViewCache returns an empty overlay over parent.
func NewCoinsViewCache(parent model.UTXOView) *CoinsViewCache {
	return &CoinsViewCache{
		parent:  parent,
		entries: make(map[externalapi.DomainOutpoint]*cacheEntry),
	}
}

func (cache *CoinsViewCache) fetch(outpoint *externalapi.DomainOutpoint) (*cacheEntry, error) {
	if entry, ok := cache.entries[*outpoint]; ok {
		return entry, nil
	}
	coin, found, err := cache.parent.GetCoin(outpoint)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}
	entry := &cacheEntry{coin: coin}
	cache.entries[*outpoint] = entry
	return entry, nil
}

// GetCoin implements model.UTXOView.
func (cache *CoinsViewCache) GetCoin(outpoint *externalapi.DomainOutpoint) (*externalapi.Coin, bool, error) {
	entry, err := cache.fetch(outpoint)
	if err != nil {
		return nil, false, err
	}
	if entry == nil || entry.coin == nil {
		return nil, false, nil
	}
	return entry.coin, true, nil
}

// HaveCoin returns whether an unspent coin exists at outpoint.
func (cache *CoinsViewCache) HaveCoin(outpoint *externalapi.DomainOutpoint) (bool, error) {
	_, found, err := cache.GetCoin(outpoint)
	return found, err
}

// AddCoin implements model.UTXOView. Without possibleOverwrite the caller
// asserts that the parent view has no unspent coin at outpoint either.
func (cache *CoinsViewCache) AddCoin(outpoint *externalapi.DomainOutpoint, coin *externalapi.Coin,
	possibleOverwrite bool) error {

	entry, inCache := cache.entries[*outpoint]
	if !inCache {
		entry = &cacheEntry{}
		cache.entries[*outpoint] = entry
	}

	fresh := false
	if !possibleOverwrite {
		if entry.coin != nil {
			return errors.Errorf("attempted to overwrite unspent coin %s", outpoint)
		}
		// A spent entry that is not dirty was never written to the
		// parent; a dirty one may still hide a parent coin.
		fresh = !entry.dirty
	}

	entry.coin = coin
	entry.dirty = true
	entry.fresh = entry.fresh || fresh
	return nil
}

// SpendCoin implements model.UTXOView.
func (cache *CoinsViewCache) SpendCoin(outpoint *externalapi.DomainOutpoint) (*externalapi.Coin, bool, error) {
	entry, err := cache.fetch(outpoint)
	if err != nil {
		return nil, false, err
	}
	if entry == nil || entry.coin == nil {
		return nil, false, nil
	}

	coin := entry.coin
	if entry.fresh {
		delete(cache.entries, *outpoint)
	} else {
		entry.coin = nil
		entry.dirty = true
	}
	return coin, true, nil
}

// GetBestBlockHash implements model.UTXOView.
func (cache *CoinsViewCache) GetBestBlockHash() (*externalapi.DomainHash, error) {
	if cache.bestHash == nil {
		bestHash, err := cache.parent.GetBestBlockHash()
		if err != nil {
			return nil, err
		}
		cache.bestHash = bestHash
	}
	return cache.bestHash, nil
}

// SetBestBlockHash implements model.UTXOView.
func (cache *CoinsViewCache) SetBestBlockHash(hash *externalapi.DomainHash) error {
	cache.bestHash = hash
	return nil
}

// Len returns the number of cached entries.
func (cache *CoinsViewCache) Len() int {
	return len(cache.entries)
}

// Flush writes every change into the parent view and empties the cache.
func (cache *CoinsViewCache) Flush() error {
	for outpoint, entry := range cache.entries {
		if !entry.dirty {
			continue
		}
		outpoint := outpoint
		if entry.coin == nil {
			if entry.fresh {
				continue
			}
			// A coin added with possibleOverwrite and spent again
			// may be unknown to the parent.
			_, _, err := cache.parent.SpendCoin(&outpoint)
			if err != nil {
				return err
			}
			continue
		}
		err := cache.parent.AddCoin(&outpoint, entry.coin, !entry.fresh)
		if err != nil {
			return err
		}
	}

	if cache.bestHash != nil {
		err := cache.parent.SetBestBlockHash(cache.bestHash)
		if err != nil {
			return err
		}
	}

	cache.entries = make(map[externalapi.DomainOutpoint]*cacheEntry)
	return nil
}
