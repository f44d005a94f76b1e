package utxo

import (
	"github.com/freicoin/freicoind/domain/consensus/model/externalapi"
	"github.com/pkg/errors"
)

// MemoryView is a UTXOView held entirely in memory. It keeps the multiset
// commitment of its content up to date.
type MemoryView struct {
	coins    map[externalapi.DomainOutpoint]*externalapi.Coin
	bestHash *externalapi.DomainHash
	multiset *Multiset
}

// NewMemoryView returns an empty view whose best block is the zero hash.
func NewMemoryView() *MemoryView {
	return &MemoryView{
		coins:    make(map[externalapi.DomainOutpoint]*externalapi.Coin),
		bestHash: &externalapi.DomainHash{},
		multiset: NewMultiset(),
	}
}

// GetCoin implements model.UTXOView.
func (view *MemoryView) GetCoin(outpoint *externalapi.DomainOutpoint) (*externalapi.Coin, bool, error) {
	coin, ok := view.coins[*outpoint]
	return coin, ok, nil
}

// AddCoin implements model.UTXOView.
func (view *MemoryView) AddCoin(outpoint *externalapi.DomainOutpoint, coin *externalapi.Coin,
	possibleOverwrite bool) error {

	if existing, ok := view.coins[*outpoint]; ok {
		if !possibleOverwrite {
			return errors.Errorf("attempted to overwrite unspent coin %s", outpoint)
		}
		view.multiset.RemoveCoin(outpoint, existing)
	}
	view.coins[*outpoint] = coin.Clone()
	view.multiset.AddCoin(outpoint, coin)
	return nil
}

// SpendCoin implements model.UTXOView.
func (view *MemoryView) SpendCoin(outpoint *externalapi.DomainOutpoint) (*externalapi.Coin, bool, error) {
	coin, ok := view.coins[*outpoint]
	if !ok {
		return nil, false, nil
	}
	delete(view.coins, *outpoint)
	view.multiset.RemoveCoin(outpoint, coin)
	return coin, true, nil
}

// GetBestBlockHash implements model.UTXOView.
func (view *MemoryView) GetBestBlockHash() (*externalapi.DomainHash, error) {
	return view.bestHash, nil
}

// SetBestBlockHash implements model.UTXOView.
func (view *MemoryView) SetBestBlockHash(hash *externalapi.DomainHash) error {
	view.bestHash = hash
	return nil
}

// Len returns the number of unspent coins.
func (view *MemoryView) Len() int {
	return len(view.coins)
}

// Commitment returns the multiset hash of the view's coins.
func (view *MemoryView) Commitment() *externalapi.DomainHash {
	return view.multiset.Hash()
}
