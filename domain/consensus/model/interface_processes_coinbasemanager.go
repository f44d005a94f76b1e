package model

import "github.com/freicoin/freicoind/domain/consensus/model/externalapi"

// CoinbaseManager exposes methods for handling blocks'
// coinbase transactions
type CoinbaseManager interface {
	BlockSubsidy(height int32) int64
	ValidateCoinbaseHeight(coinbase *externalapi.DomainTransaction, height int32, checkScript bool) error
	ValidateCoinbaseClaim(coinbase *externalapi.DomainTransaction, height int32, fees int64) error
}
