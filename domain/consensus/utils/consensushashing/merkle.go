package consensushashing

import (
	"github.com/freicoin/freicoind/domain/consensus/model/externalapi"
	"github.com/freicoin/freicoind/domain/consensus/utils/hashes"
)

// MerkleRoot computes the merkle root of leaves. Levels of odd length
// repeat their last element. mutated reports that some level held two
// equal siblings: such a list hashes to the same root as a shorter one,
// so a block carrying it may be a malleated copy of a valid block.
func MerkleRoot(leaves []*externalapi.DomainHash) (root *externalapi.DomainHash, mutated bool) {
	if len(leaves) == 0 {
		return &externalapi.DomainHash{}, false
	}
	level := make([]*externalapi.DomainHash, len(leaves))
	copy(level, leaves)
	for len(level) > 1 {
		for i := 0; i+1 < len(level); i += 2 {
			if *level[i] == *level[i+1] {
				mutated = true
			}
		}
		if len(level)%2 == 1 {
			level = append(level, level[len(level)-1])
		}
		next := make([]*externalapi.DomainHash, len(level)/2)
		for i := range next {
			next[i] = hashes.HashPair(level[2*i], level[2*i+1])
		}
		level = next
	}
	return level[0], mutated
}

// BlockMerkleRoot returns the merkle root over the ids of the block's
// transactions.
func BlockMerkleRoot(transactions []*externalapi.DomainTransaction) (root *externalapi.DomainHash, mutated bool) {
	leaves := make([]*externalapi.DomainHash, len(transactions))
	for i, tx := range transactions {
		id := externalapi.DomainHash(*TransactionID(tx))
		leaves[i] = &id
	}
	return MerkleRoot(leaves)
}

// BlockWitnessMerkleRoot returns the merkle root over the witness hashes of
// the block's transactions, with the coinbase leaf replaced by zero.
func BlockWitnessMerkleRoot(transactions []*externalapi.DomainTransaction) (root *externalapi.DomainHash, mutated bool) {
	leaves := make([]*externalapi.DomainHash, len(transactions))
	for i, tx := range transactions {
		if i == 0 {
			leaves[i] = &externalapi.DomainHash{}
			continue
		}
		leaves[i] = TransactionHash(tx)
	}
	return MerkleRoot(leaves)
}
