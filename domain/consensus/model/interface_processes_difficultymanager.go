package model

import "github.com/freicoin/freicoind/domain/consensus/datastructures/blockindex"

// DifficultyManager provides a method to resolve the
// difficulty value of a block
type DifficultyManager interface {
	RequiredDifficulty(prevNode *blockindex.Node, timestamp int64) uint32
}
