package blockvalidator

import (
	"github.com/freicoin/freicoind/domain/consensus/datastructures/blockindex"
	"github.com/freicoin/freicoind/domain/consensus/model/externalapi"
	"github.com/freicoin/freicoind/domain/consensus/ruleerrors"
	"github.com/freicoin/freicoind/domain/consensus/utils/consensushashing"
	"github.com/pkg/errors"
)

// ValidateHeaderInContext validates block headers in the context of the
// block they build on. A nil prevNode is the genesis, which has no context.
func (v *blockValidator) ValidateHeaderInContext(header *externalapi.DomainBlockHeader,
	prevNode *blockindex.Node) error {

	if prevNode == nil {
		return nil
	}

	if prevNode.Status().IsFailed() {
		return errors.Wrapf(ruleerrors.ErrInvalidAncestorBlock, "parent %s of block %s is invalid",
			prevNode.Hash, consensushashing.HeaderHash(header))
	}

	err := v.checkDifficulty(header, prevNode)
	if err != nil {
		return err
	}

	err = v.pastMedianTimeManager.ValidateTimestamp(header, prevNode)
	if err != nil {
		return err
	}

	height := prevNode.Height + 1
	err = v.checkCheckpoints(header, height)
	if err != nil {
		return err
	}

	return v.checkBlockVersion(header, prevNode)
}

func (v *blockValidator) checkDifficulty(header *externalapi.DomainBlockHeader, prevNode *blockindex.Node) error {
	expectedBits := v.difficultyManager.RequiredDifficulty(prevNode, int64(header.Timestamp))
	if header.Bits != expectedBits {
		return errors.Wrapf(ruleerrors.ErrUnexpectedDifficulty, "block difficulty of %08x "+
			"is not the expected value of %08x", header.Bits, expectedBits)
	}
	return nil
}

// checkCheckpoints rejects headers that conflict with a checkpoint, either
// by hash at the checkpointed height or by forking off the chain below the
// most recent checkpoint already known.
func (v *blockValidator) checkCheckpoints(header *externalapi.DomainBlockHeader, height int32) error {
	hash := consensushashing.HeaderHash(header)

	if height == v.params.BIP34Height && v.params.BIP34Hash != nil && !v.params.BIP34Hash.IsZero() &&
		!hash.Equal(v.params.BIP34Hash) {
		return errors.Wrapf(ruleerrors.ErrBIP34HashMismatch, "block %s at the BIP34 activation "+
			"height %d is not the expected %s", hash, height, v.params.BIP34Hash)
	}

	if !v.checkpointsEnabled {
		return nil
	}

	if checkpointHash, ok := v.params.CheckpointAtHeight(height); ok && !hash.Equal(checkpointHash) {
		return errors.Wrapf(ruleerrors.ErrCheckpointMismatch, "block at height %d does not match "+
			"checkpoint hash %s", height, checkpointHash)
	}

	lastCheckpointHeight := v.lastKnownCheckpointHeight()
	if height < lastCheckpointHeight {
		return errors.Wrapf(ruleerrors.ErrForkTooOld, "block at height %d forks the main chain "+
			"before the previous checkpoint at height %d", height, lastCheckpointHeight)
	}
	return nil
}

// lastKnownCheckpointHeight returns the height of the newest checkpoint in
// the block index, or -1 if none is.
func (v *blockValidator) lastKnownCheckpointHeight() int32 {
	checkpoints := v.params.Checkpoints
	for i := len(checkpoints) - 1; i >= 0; i-- {
		if v.blockIndex.HaveBlock(checkpoints[i].Hash) {
			return checkpoints[i].Height
		}
	}
	return -1
}

// checkBlockVersion rejects outdated versions once the soft forks that
// introduced their successors are enforced.
func (v *blockValidator) checkBlockVersion(header *externalapi.DomainBlockHeader, prevNode *blockindex.Node) error {
	if !v.rulesAfter(prevNode).RejectOldBlockVersions {
		return nil
	}

	height := prevNode.Height + 1
	if (header.Version < 2 && height >= v.params.BIP34Height) ||
		(header.Version < 3 && height >= v.params.BIP66Height) {

		return errors.Wrapf(ruleerrors.ErrBlockVersionTooOld, "block version %d is no longer "+
			"accepted at height %d", header.Version, height)
	}
	return nil
}
