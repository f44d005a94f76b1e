package model

import "github.com/freicoin/freicoind/domain/consensus/model/externalapi"

// UTXOView is a view of the unspent-output set as of some best block.
// Views compose: an overlay view reads through to a parent view and writes
// its accumulated changes into it only when flushed.
type UTXOView interface {
	// GetCoin returns the unspent coin at outpoint. found is false if
	// the outpoint is unknown or spent.
	GetCoin(outpoint *externalapi.DomainOutpoint) (coin *externalapi.Coin, found bool, err error)

	// AddCoin adds a coin at outpoint. Unless possibleOverwrite is set,
	// adding over an unspent coin is an error.
	AddCoin(outpoint *externalapi.DomainOutpoint, coin *externalapi.Coin, possibleOverwrite bool) error

	// SpendCoin removes the coin at outpoint and returns it.
	SpendCoin(outpoint *externalapi.DomainOutpoint) (coin *externalapi.Coin, found bool, err error)

	// GetBestBlockHash returns the hash of the block the view is
	// current as of.
	GetBestBlockHash() (*externalapi.DomainHash, error)

	// SetBestBlockHash records the block the view is current as of.
	SetBestBlockHash(hash *externalapi.DomainHash) error
}
