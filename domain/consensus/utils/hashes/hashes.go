package hashes

import (
	"crypto/sha256"

	"github.com/btcsuite/btcutil"
	"github.com/freicoin/freicoind/domain/consensus/model/externalapi"
	"golang.org/x/crypto/ripemd160" //nolint:staticcheck
)

// DoubleSHA256 returns SHA256(SHA256(data)).
func DoubleSHA256(data []byte) *externalapi.DomainHash {
	first := sha256.Sum256(data)
	sum := externalapi.DomainHash(sha256.Sum256(first[:]))
	return &sum
}

// SHA256 returns the single SHA256 of data.
func SHA256(data []byte) []byte {
	sum := sha256.Sum256(data)
	return sum[:]
}

// RIPEMD160 returns the RIPEMD160 of data.
func RIPEMD160(data []byte) []byte {
	hasher := ripemd160.New()
	_, _ = hasher.Write(data)
	return hasher.Sum(nil)
}

// Hash160 returns RIPEMD160(SHA256(data)), the hash used by pay-to-pubkey-hash
// and pay-to-script-hash outputs.
func Hash160(data []byte) []byte {
	return btcutil.Hash160(data)
}

// HashPair returns the double-SHA256 of left concatenated with right, the
// inner node of a merkle tree.
func HashPair(left, right *externalapi.DomainHash) *externalapi.DomainHash {
	var buf [2 * externalapi.DomainHashSize]byte
	copy(buf[:externalapi.DomainHashSize], left[:])
	copy(buf[externalapi.DomainHashSize:], right[:])
	return DoubleSHA256(buf[:])
}
