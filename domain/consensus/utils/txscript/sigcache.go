package txscript

import (
	"crypto/sha256"

	"github.com/freicoin/freicoind/domain/consensus/model/externalapi"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/pkg/errors"
)

// DefaultSigCacheMaxSize is the number of entries a signature cache holds
// unless configured otherwise.
const DefaultSigCacheMaxSize = 100_000

// SigCache remembers (digest, signature, public key) triples that have
// already been verified. Transactions are typically verified once when they
// enter the mempool and again when they are mined; the cache saves the
// second round of elliptic curve operations. It is safe for concurrent
// use.
type SigCache struct {
	entries *lru.Cache[[sha256.Size]byte, struct{}]
}

// NewSigCache creates a signature cache holding up to maxEntries triples.
func NewSigCache(maxEntries int) (*SigCache, error) {
	entries, err := lru.New[[sha256.Size]byte, struct{}](maxEntries)
	if err != nil {
		return nil, errors.Wrapf(err, "creating a signature cache of size %d", maxEntries)
	}
	return &SigCache{entries: entries}, nil
}

func sigCacheKey(sigHash *externalapi.DomainHash, sig, pubKey []byte) [sha256.Size]byte {
	hasher := sha256.New()
	hasher.Write(sigHash[:])
	hasher.Write(sig)
	hasher.Write(pubKey)
	var key [sha256.Size]byte
	hasher.Sum(key[:0])
	return key
}

// Exists returns whether the triple was verified before.
func (c *SigCache) Exists(sigHash *externalapi.DomainHash, sig, pubKey []byte) bool {
	return c.entries.Contains(sigCacheKey(sigHash, sig, pubKey))
}

// Add records a verified triple, evicting the least recently used one when
// the cache is full.
func (c *SigCache) Add(sigHash *externalapi.DomainHash, sig, pubKey []byte) {
	c.entries.Add(sigCacheKey(sigHash, sig, pubKey), struct{}{})
}

// Len returns the number of cached triples.
func (c *SigCache) Len() int {
	return c.entries.Len()
}
