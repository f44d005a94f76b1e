package model

import (
	"github.com/freicoin/freicoind/domain/consensus/datastructures/blockindex"
	"github.com/freicoin/freicoind/domain/consensus/model/externalapi"
	"github.com/freicoin/freicoind/domain/consensus/utils/txscript"
)

// BlockValidator exposes a set of validation classes, after which
// it's possible to determine whether a block is valid
type BlockValidator interface {
	ValidateHeaderInIsolation(header *externalapi.DomainBlockHeader) error
	ValidateBodyInIsolation(block *externalapi.DomainBlock) error
	ValidateHeaderInContext(header *externalapi.DomainBlockHeader, prevNode *blockindex.Node) error
	ValidateBodyInContext(block *externalapi.DomainBlock, prevNode *blockindex.Node) error

	ScriptFlags(node *blockindex.Node) (txscript.ScriptFlags, error)
	EnforceRelativeLocks(prevNode *blockindex.Node) (bool, error)
}
