package model

import (
	"github.com/freicoin/freicoind/domain/consensus/model/externalapi"
	"github.com/freicoin/freicoind/domain/consensus/ruleerrors"
)

// ValidationSink observes validation results. Calls are made while the
// consensus lock is held, so implementations must not call back into
// consensus.
type ValidationSink interface {
	// BlockChecked is called once a block has been validated, whether it
	// was found valid or not.
	BlockChecked(block *externalapi.DomainBlock, state *ruleerrors.ValidationState)

	// BlockConnected is called after a block joins the active chain.
	BlockConnected(block *externalapi.DomainBlock, height int32)

	// BlockDisconnected is called after a block leaves the active chain.
	BlockDisconnected(block *externalapi.DomainBlock, height int32)

	// UpdatedBlockTip is called once chain selection settles on a new
	// tip. forkHash is nil when the new tip extends the previous one.
	UpdatedBlockTip(newTipHash *externalapi.DomainHash, forkHash *externalapi.DomainHash)
}
