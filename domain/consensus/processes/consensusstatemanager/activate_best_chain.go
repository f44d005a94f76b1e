package consensusstatemanager

import (
	"context"
	"time"

	"github.com/freicoin/freicoind/domain/consensus/datastructures/blockindex"
	"github.com/freicoin/freicoind/domain/consensus/metrics"
	"github.com/freicoin/freicoind/domain/consensus/model/externalapi"
	"github.com/freicoin/freicoind/domain/consensus/ruleerrors"
	"github.com/freicoin/freicoind/domain/consensus/utils/utxo"
	"github.com/pkg/errors"
)

// ActivateBestChain moves the active chain to the valid tip with the most
// work. Ties go to the tip whose data arrived first. A block that fails to
// connect is marked invalid, with its descendants, and the next best tip
// is tried. Every connected or disconnected block is committed on its own,
// so an error or a cancellation leaves the chain at a consistent block.
func (csm *consensusStateManager) ActivateBestChain(ctx context.Context) error {
	oldTip := csm.blockIndex.Tip()
	disconnected := 0

	for {
		err := ctx.Err()
		if err != nil {
			return err
		}

		candidate := csm.findMostWorkChain()
		tip := csm.blockIndex.Tip()
		if candidate == nil || candidate == tip {
			break
		}

		fork := csm.blockIndex.FindFork(candidate)
		for tip != nil && tip != fork {
			err := csm.disconnectTip(tip)
			if err != nil {
				return err
			}
			disconnected++
			tip = csm.blockIndex.Tip()
		}

		err = csm.connectPath(ctx, fork, candidate)
		if err != nil {
			return err
		}
	}

	csm.blockIndex.PruneCandidates()

	newTip := csm.blockIndex.Tip()
	if newTip == oldTip || newTip == nil {
		return nil
	}

	var forkHash *externalapi.DomainHash
	if disconnected > 0 {
		fork := blockindex.LastCommonAncestor(oldTip, newTip)
		forkHash = &fork.Hash
		metrics.ObserveReorg(disconnected)
		log.Infof("REORGANIZE: Old tip %s (height %d), new tip %s (height %d), fork point %s "+
			"(height %d), %d blocks disconnected", oldTip.Hash, oldTip.Height, newTip.Hash, newTip.Height,
			fork.Hash, fork.Height, disconnected)
	}
	metrics.SetTipHeight(newTip.Height)
	csm.sink.UpdatedBlockTip(&newTip.Hash, forkHash)
	return nil
}

// findMostWorkChain returns the tip with the most work among the candidate
// tips of the block index. Candidates found invalid, or with an invalid
// ancestor, are dropped on the way.
func (csm *consensusStateManager) findMostWorkChain() *blockindex.Node {
	var best *blockindex.Node
	for _, node := range csm.blockIndex.Candidates() {
		if node.Status().IsFailed() {
			csm.blockIndex.RemoveCandidate(node)
			continue
		}
		if best != nil && !isBetterCandidate(node, best) {
			continue
		}
		if csm.hasFailedAncestor(node) {
			csm.blockIndex.RemoveCandidate(node)
			continue
		}
		best = node
	}

	tip := csm.blockIndex.Tip()
	if best == nil || (tip != nil && !isBetterCandidate(best, tip)) {
		return tip
	}
	return best
}

func isBetterCandidate(node, other *blockindex.Node) bool {
	cmp := node.ChainWork.Cmp(other.ChainWork)
	if cmp != 0 {
		return cmp > 0
	}
	return node.SequenceID() < other.SequenceID()
}

// hasFailedAncestor checks the branch of node down to the active chain and
// marks node if a block on it is invalid.
func (csm *consensusStateManager) hasFailedAncestor(node *blockindex.Node) bool {
	for ancestor := node.Parent; ancestor != nil && !csm.blockIndex.Contains(ancestor); ancestor = ancestor.Parent {
		if ancestor.Status().IsFailed() {
			csm.blockIndex.SetStatusFlags(node, externalapi.StatusInvalidAncestor)
			return true
		}
	}
	return false
}

// connectPath connects the blocks after fork up to target. A rule violation
// marks the failing block invalid and returns nil so the caller picks
// another candidate.
func (csm *consensusStateManager) connectPath(ctx context.Context, fork, target *blockindex.Node) error {
	forkHeight := int32(-1)
	if fork != nil {
		forkHeight = fork.Height
	}

	path := make([]*blockindex.Node, 0, target.Height-forkHeight)
	for node := target; node != fork; node = node.Parent {
		path = append(path, node)
	}

	for i := len(path) - 1; i >= 0; i-- {
		err := ctx.Err()
		if err != nil {
			return err
		}

		node := path[i]
		block, err := csm.connectTip(ctx, node)
		if err == nil {
			continue
		}
		state := ruleerrors.NewValidationState(err)
		if !state.IsInvalid() {
			return err
		}

		log.Warnf("Block %s at height %d failed to connect: %s", node.Hash, node.Height, state)
		csm.sink.BlockChecked(block, state)
		return csm.markInvalid(node)
	}
	return nil
}

// connectTip connects node on top of the active chain tip and returns its
// block.
func (csm *consensusStateManager) connectTip(ctx context.Context, node *blockindex.Node) (
	*externalapi.DomainBlock, error) {

	start := time.Now()

	block, err := csm.blockStore.Block(csm.databaseContext, &node.Hash)
	if err != nil {
		return nil, errors.Wrapf(err, "reading block %s", node.Hash)
	}

	dbTx, err := csm.databaseContext.Begin()
	if err != nil {
		return block, err
	}
	defer dbTx.RollbackUnlessClosed()

	baseView, err := csm.coinsStore.View(dbTx)
	if err != nil {
		return block, err
	}
	view := utxo.NewCoinsViewCache(baseView)

	undo, err := csm.ConnectBlock(ctx, view, block, node)
	if err != nil {
		return block, err
	}

	err = view.Flush()
	if err != nil {
		return block, err
	}
	err = csm.undoStore.StoreUndo(dbTx, &node.Hash, undo)
	if err != nil {
		return block, err
	}
	csm.blockIndex.SetStatusFlags(node, externalapi.StatusValid|externalapi.StatusUndoStored)
	err = csm.storeDirtyEntries(dbTx)
	if err != nil {
		return block, err
	}
	err = dbTx.Commit()
	if err != nil {
		return block, err
	}

	csm.blockIndex.SetTip(node)
	metrics.ObserveConnect(time.Since(start))
	log.Debugf("Connected block %s at height %d", node.Hash, node.Height)
	csm.sink.BlockChecked(block, ruleerrors.NewValidationState(nil))
	csm.sink.BlockConnected(block, node.Height)
	return block, nil
}

// disconnectTip disconnects node, which must be the active chain tip.
func (csm *consensusStateManager) disconnectTip(node *blockindex.Node) error {
	block, err := csm.blockStore.Block(csm.databaseContext, &node.Hash)
	if err != nil {
		return errors.Wrapf(err, "reading block %s", node.Hash)
	}
	undo := &externalapi.BlockUndo{}
	if node.Parent != nil {
		undo, err = csm.undoStore.Undo(csm.databaseContext, &node.Hash)
		if err != nil {
			return errors.Wrapf(err, "reading the undo record of block %s", node.Hash)
		}
	}

	dbTx, err := csm.databaseContext.Begin()
	if err != nil {
		return err
	}
	defer dbTx.RollbackUnlessClosed()

	baseView, err := csm.coinsStore.View(dbTx)
	if err != nil {
		return err
	}
	view := utxo.NewCoinsViewCache(baseView)

	err = csm.DisconnectBlock(view, block, node, undo)
	if err != nil {
		return err
	}
	err = view.Flush()
	if err != nil {
		return err
	}
	err = csm.storeDirtyEntries(dbTx)
	if err != nil {
		return err
	}
	err = dbTx.Commit()
	if err != nil {
		return err
	}

	csm.blockIndex.SetTip(node.Parent)
	log.Debugf("Disconnected block %s at height %d", node.Hash, node.Height)
	csm.sink.BlockDisconnected(block, node.Height)
	return nil
}

// markInvalid marks node as failed and its descendants as having an invalid
// ancestor, and persists the change.
func (csm *consensusStateManager) markInvalid(node *blockindex.Node) error {
	csm.blockIndex.SetStatusFlags(node, externalapi.StatusValidateFailed)
	for _, descendant := range csm.blockIndex.Descendants(node) {
		csm.blockIndex.SetStatusFlags(descendant, externalapi.StatusInvalidAncestor)
	}
	return csm.commitDirtyEntries()
}
