package externalapi

import "math/big"

// BlockInfo contains various information about a specific block
type BlockInfo struct {
	Exists bool

	Status    BlockStatus
	Height    int32
	ChainWork *big.Int

	// IsInActiveChain is true for blocks between genesis and the active
	// chain tip.
	IsInActiveChain bool
}
