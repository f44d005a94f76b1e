package utxo

import (
	"github.com/freicoin/freicoind/domain/consensus/model/externalapi"
	"github.com/freicoin/freicoind/domain/consensus/utils/serialization"
	"github.com/kaspanet/go-muhash"
	"github.com/pkg/errors"
)

// Multiset is a rolling commitment to a set of coins. Adding and removing
// the same coin cancels out, so the commitment only depends on the set.
type Multiset struct {
	muhash *muhash.MuHash
}

// NewMultiset returns the commitment to the empty set.
func NewMultiset() *Multiset {
	return &Multiset{muhash: muhash.NewMuHash()}
}

// MultisetFromBytes restores a multiset serialized with Bytes.
func MultisetFromBytes(serialized []byte) (*Multiset, error) {
	if len(serialized) != muhash.SerializedMuHashSize {
		return nil, errors.Errorf("serialized multiset is %d bytes, want %d",
			len(serialized), muhash.SerializedMuHashSize)
	}
	var serializedMuHash muhash.SerializedMuHash
	copy(serializedMuHash[:], serialized)
	deserialized, err := muhash.DeserializeMuHash(&serializedMuHash)
	if err != nil {
		return nil, errors.Wrap(err, "deserializing multiset")
	}
	return &Multiset{muhash: deserialized}, nil
}

func coinElement(outpoint *externalapi.DomainOutpoint, coin *externalapi.Coin) []byte {
	return append(serialization.OutpointToBytes(outpoint), serialization.CoinToBytes(coin)...)
}

// AddCoin adds the coin at outpoint to the set.
func (ms *Multiset) AddCoin(outpoint *externalapi.DomainOutpoint, coin *externalapi.Coin) {
	ms.muhash.Add(coinElement(outpoint, coin))
}

// RemoveCoin removes the coin at outpoint from the set.
func (ms *Multiset) RemoveCoin(outpoint *externalapi.DomainOutpoint, coin *externalapi.Coin) {
	ms.muhash.Remove(coinElement(outpoint, coin))
}

// Hash returns the commitment.
func (ms *Multiset) Hash() *externalapi.DomainHash {
	finalized := ms.muhash.Finalize()
	hash := externalapi.DomainHash(finalized)
	return &hash
}

// Bytes serializes the multiset state.
func (ms *Multiset) Bytes() []byte {
	serialized := ms.muhash.Serialize()
	return serialized[:]
}
