package consensusstatemanager

import (
	"context"

	"github.com/freicoin/freicoind/domain/consensus/model/externalapi"
	"github.com/pkg/errors"
)

// InvalidateBlock marks the block blockHash invalid as if it had failed
// validation, disconnects it if it is on the active chain and activates the
// best remaining chain.
func (csm *consensusStateManager) InvalidateBlock(ctx context.Context, blockHash *externalapi.DomainHash) error {
	node := csm.blockIndex.LookupNode(blockHash)
	if node == nil {
		return errors.Errorf("block %s is not in the block index", blockHash)
	}
	if node.Parent == nil {
		return errors.Errorf("the genesis block cannot be invalidated")
	}

	for tip := csm.blockIndex.Tip(); tip != nil && node.IsAncestorOf(tip); tip = csm.blockIndex.Tip() {
		err := ctx.Err()
		if err != nil {
			return err
		}
		err = csm.disconnectTip(tip)
		if err != nil {
			return err
		}
	}

	err := csm.markInvalid(node)
	if err != nil {
		return err
	}
	csm.blockIndex.ResetCandidates()
	log.Infof("Invalidated block %s at height %d", node.Hash, node.Height)
	return csm.ActivateBestChain(ctx)
}

// ResetBlockFailureFlags clears the failure flags of blockHash, of its
// ancestors and of its descendants, making them candidates again. Callers
// follow up with ActivateBestChain.
func (csm *consensusStateManager) ResetBlockFailureFlags(blockHash *externalapi.DomainHash) error {
	node := csm.blockIndex.LookupNode(blockHash)
	if node == nil {
		return errors.Errorf("block %s is not in the block index", blockHash)
	}

	for _, descendant := range csm.blockIndex.Descendants(node) {
		csm.blockIndex.UnsetStatusFlags(descendant, externalapi.StatusFailedMask)
	}
	for ancestor := node; ancestor != nil; ancestor = ancestor.Parent {
		csm.blockIndex.UnsetStatusFlags(ancestor, externalapi.StatusFailedMask)
	}
	csm.blockIndex.ResetCandidates()
	return csm.commitDirtyEntries()
}
