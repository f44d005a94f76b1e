package consensus

import (
	"github.com/freicoin/freicoind/domain/consensus/model/externalapi"
	"github.com/freicoin/freicoind/domain/consensus/ruleerrors"
)

// nopSink drops every notification. It stands in when no sink is
// configured.
type nopSink struct{}

func (nopSink) BlockChecked(*externalapi.DomainBlock, *ruleerrors.ValidationState) {}
func (nopSink) BlockConnected(*externalapi.DomainBlock, int32)                     {}
func (nopSink) BlockDisconnected(*externalapi.DomainBlock, int32)                  {}
func (nopSink) UpdatedBlockTip(*externalapi.DomainHash, *externalapi.DomainHash)   {}
