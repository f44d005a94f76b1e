package blockvalidator

import (
	"github.com/freicoin/freicoind/domain/consensus/model/externalapi"
	"github.com/freicoin/freicoind/domain/consensus/utils/consensushashing"
	"github.com/freicoin/freicoind/domain/consensus/utils/pow"
)

// ValidateHeaderInIsolation validates block headers in isolation from the current
// consensus state
func (v *blockValidator) ValidateHeaderInIsolation(header *externalapi.DomainBlockHeader) error {
	return v.checkProofOfWork(header)
}

// checkProofOfWork ensures the block header bits which indicate the target
// difficulty is in min/max range and that the block hash is less than the
// target difficulty as claimed.
func (v *blockValidator) checkProofOfWork(header *externalapi.DomainBlockHeader) error {
	return pow.CheckProofOfWork(consensushashing.HeaderHash(header), header.Bits, v.params.PowLimit)
}
