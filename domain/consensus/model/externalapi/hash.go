package externalapi

import (
	"bytes"
	"encoding/hex"

	"github.com/pkg/errors"
)

// DomainHashSize is the size of a double-SHA256 hash.
const DomainHashSize = 32

// DomainHash is a 256-bit hash stored in internal byte order (little
// endian when read as a number). Its string form is byte-reversed, which
// is how block and transaction hashes are conventionally displayed.
type DomainHash [DomainHashSize]byte

// ZeroHash is the all-zero hash used as the null previous-block and
// previous-output reference.
var ZeroHash DomainHash

// NewDomainHashFromByteSlice copies hashBytes into a new hash.
func NewDomainHashFromByteSlice(hashBytes []byte) (*DomainHash, error) {
	if len(hashBytes) != DomainHashSize {
		return nil, errors.Errorf("invalid hash size. Want: %d, got: %d", DomainHashSize, len(hashBytes))
	}
	var hash DomainHash
	copy(hash[:], hashBytes)
	return &hash, nil
}

// NewDomainHashFromString parses a byte-reversed hex string.
func NewDomainHashFromString(hashString string) (*DomainHash, error) {
	if len(hashString) != DomainHashSize*2 {
		return nil, errors.Errorf("hash string length is %d, while it should be %d",
			len(hashString), DomainHashSize*2)
	}
	decoded, err := hex.DecodeString(hashString)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	var hash DomainHash
	for i, b := range decoded {
		hash[DomainHashSize-1-i] = b
	}
	return &hash, nil
}

// MustDomainHashFromString is NewDomainHashFromString for hard-coded,
// known-good hashes. It panics on malformed input.
func MustDomainHashFromString(hashString string) *DomainHash {
	hash, err := NewDomainHashFromString(hashString)
	if err != nil {
		panic(err)
	}
	return hash
}

// String returns the byte-reversed hex encoding of the hash.
func (hash DomainHash) String() string {
	var reversed [DomainHashSize]byte
	for i, b := range hash {
		reversed[DomainHashSize-1-i] = b
	}
	return hex.EncodeToString(reversed[:])
}

// ByteSlice returns a copy of the hash bytes in internal order.
func (hash *DomainHash) ByteSlice() []byte {
	clone := *hash
	return clone[:]
}

// Equal returns whether hash equals other. Two nil hashes are equal.
func (hash *DomainHash) Equal(other *DomainHash) bool {
	if hash == nil || other == nil {
		return hash == other
	}
	return *hash == *other
}

// IsZero returns whether every byte of the hash is zero.
func (hash *DomainHash) IsZero() bool {
	return *hash == ZeroHash
}

// Less orders hashes by their internal byte representation.
func (hash *DomainHash) Less(other *DomainHash) bool {
	return bytes.Compare(hash[:], other[:]) < 0
}
