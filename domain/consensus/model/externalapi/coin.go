package externalapi

import "bytes"

// Coin is an unspent transaction output together with the context needed to
// validate spending it.
type Coin struct {
	Value           int64
	ScriptPublicKey []byte

	// RefHeight is the height the value is denominated at. Demurrage
	// accrues from it.
	RefHeight uint32

	// BlockHeight is the height of the block that created the coin.
	BlockHeight int32
	IsCoinbase  bool
}

// Clone returns a deep copy of the coin.
func (coin *Coin) Clone() *Coin {
	clone := *coin
	clone.ScriptPublicKey = append([]byte(nil), coin.ScriptPublicKey...)
	return &clone
}

// Equal returns whether coin and other are the same coin.
func (coin *Coin) Equal(other *Coin) bool {
	if coin == nil || other == nil {
		return coin == other
	}
	return coin.Value == other.Value &&
		coin.RefHeight == other.RefHeight &&
		coin.BlockHeight == other.BlockHeight &&
		coin.IsCoinbase == other.IsCoinbase &&
		bytes.Equal(coin.ScriptPublicKey, other.ScriptPublicKey)
}
