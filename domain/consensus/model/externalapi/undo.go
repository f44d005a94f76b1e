package externalapi

// BlockUndo holds what connecting a block destroyed: for every
// non-coinbase transaction, in block order, the coins its inputs spent.
type BlockUndo struct {
	TxUndos []*TxUndo
}

// TxUndo holds the coins spent by one transaction, in input order.
type TxUndo struct {
	SpentCoins []*Coin
}
