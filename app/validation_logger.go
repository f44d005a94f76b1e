package app

import (
	"github.com/freicoin/freicoind/domain/consensus/model/externalapi"
	"github.com/freicoin/freicoind/domain/consensus/ruleerrors"
	"github.com/freicoin/freicoind/domain/consensus/utils/consensushashing"
)

// validationLogger reports rejected blocks and reorganizations. Block
// progress is already logged by consensus.
type validationLogger struct{}

func (validationLogger) BlockChecked(block *externalapi.DomainBlock, state *ruleerrors.ValidationState) {
	if state.IsValid() {
		return
	}
	log.Warnf("Block %s failed validation: %s", consensushashing.BlockHash(block), state)
}

func (validationLogger) BlockConnected(*externalapi.DomainBlock, int32) {}

func (validationLogger) BlockDisconnected(block *externalapi.DomainBlock, height int32) {
	log.Debugf("Disconnected block %s at height %d", consensushashing.BlockHash(block), height)
}

func (validationLogger) UpdatedBlockTip(newTipHash *externalapi.DomainHash, forkHash *externalapi.DomainHash) {
	if forkHash != nil {
		log.Infof("Reorganized to tip %s, forking at %s", newTipHash, forkHash)
	}
}
