package blockprocessor

import (
	"context"

	"github.com/freicoin/freicoind/domain/consensus/datastructures/blockindex"
	"github.com/freicoin/freicoind/domain/consensus/metrics"
	"github.com/freicoin/freicoind/domain/consensus/model/externalapi"
	"github.com/freicoin/freicoind/domain/consensus/ruleerrors"
	"github.com/freicoin/freicoind/domain/consensus/utils/consensushashing"
	"github.com/freicoin/freicoind/infrastructure/logger"
	"github.com/pkg/errors"
)

// ValidateAndInsertBlock validates block, stores it and activates the best
// chain. A block whose parent is unknown is held as an orphan and an
// indeterminate ErrMissingParents is returned. Orphans waiting for block
// are processed once it is accepted.
func (bp *blockProcessor) ValidateAndInsertBlock(ctx context.Context, block *externalapi.DomainBlock) error {
	onEnd := logger.LogAndMeasureExecutionTime(log, "ValidateAndInsertBlock")
	defer onEnd()

	err := bp.processBlock(ctx, block)
	bp.recordResult(err)
	if err != nil {
		return err
	}
	return bp.processOrphans(ctx, consensushashing.BlockHash(block))
}

func (bp *blockProcessor) processBlock(ctx context.Context, block *externalapi.DomainBlock) error {
	blockHash := consensushashing.BlockHash(block)

	err := bp.checkBlockStatus(blockHash)
	if err != nil {
		return err
	}

	err = bp.blockValidator.ValidateHeaderInIsolation(block.Header)
	if err != nil {
		return bp.rejectBlock(block, nil, err)
	}
	err = bp.blockValidator.ValidateBodyInIsolation(block)
	if err != nil {
		return bp.rejectBlock(block, nil, err)
	}

	prevNode := bp.blockIndex.LookupNode(&block.Header.PrevBlockHash)
	if prevNode == nil {
		return bp.addOrphan(blockHash, block)
	}

	err = bp.blockValidator.ValidateHeaderInContext(block.Header, prevNode)
	if err != nil {
		return bp.rejectBlock(block, nil, err)
	}

	node, err := bp.blockIndex.AddHeader(block.Header)
	if err != nil {
		return err
	}
	bp.blockIndex.SetStatusFlags(node, externalapi.StatusHeaderValid)

	err = bp.blockValidator.ValidateBodyInContext(block, prevNode)
	if err != nil {
		return bp.rejectBlock(block, node, err)
	}

	err = bp.storeBlock(node, block)
	if err != nil {
		return err
	}
	log.Debugf("Block %s at height %d stored", blockHash, node.Height)

	err = bp.consensusStateManager.ActivateBestChain(ctx)
	if err != nil {
		return err
	}

	if node.Status().IsFailed() {
		var ruleErr error = ruleerrors.ErrInvalidAncestorBlock
		if node.Status().Has(externalapi.StatusValidateFailed) {
			ruleErr = ruleerrors.ErrKnownInvalid
		}
		return errors.Wrapf(ruleErr, "block %s failed to connect", blockHash)
	}
	if bp.blockIndex.Contains(node) {
		bp.blockLogger.LogBlock(block, node.Height)
	}
	return nil
}

// checkBlockStatus rejects blocks that were already processed.
func (bp *blockProcessor) checkBlockStatus(blockHash *externalapi.DomainHash) error {
	if bp.orphans.Has(*blockHash) {
		return errors.Wrapf(ruleerrors.ErrDuplicateBlock, "block %s is already an orphan", blockHash)
	}

	node := bp.blockIndex.LookupNode(blockHash)
	if node == nil {
		return nil
	}
	if node.Status().IsFailed() {
		return errors.Wrapf(ruleerrors.ErrKnownInvalid, "block %s is known to be invalid", blockHash)
	}
	if node.HaveData() {
		return errors.Wrapf(ruleerrors.ErrDuplicateBlock, "block %s already exists", blockHash)
	}
	return nil
}

// rejectBlock reports err for block. Blocks in the index whose failure is
// not down to data corrupted in transit are marked invalid.
func (bp *blockProcessor) rejectBlock(block *externalapi.DomainBlock, node *blockindex.Node, err error) error {
	state := ruleerrors.NewValidationState(err)
	if node != nil && state.ShouldMarkInvalid() {
		bp.blockIndex.SetStatusFlags(node, externalapi.StatusValidateFailed)
		storeErr := bp.storeDirtyEntries()
		if storeErr != nil {
			return storeErr
		}
	}
	if state.IsInvalid() {
		log.Infof("Rejected block %s: %s", consensushashing.BlockHash(block), state)
	}
	bp.sink.BlockChecked(block, state)
	return err
}

func (bp *blockProcessor) storeBlock(node *blockindex.Node, block *externalapi.DomainBlock) error {
	dbTx, err := bp.databaseContext.Begin()
	if err != nil {
		return err
	}
	defer dbTx.RollbackUnlessClosed()

	err = bp.blockStore.StoreBlock(dbTx, &node.Hash, block)
	if err != nil {
		return err
	}
	bp.blockIndex.ReceivedBlockData(node)
	for _, entry := range bp.blockIndex.DirtyEntries() {
		err := bp.blockIndexStore.StoreEntry(dbTx, entry)
		if err != nil {
			return err
		}
	}
	return dbTx.Commit()
}

func (bp *blockProcessor) storeDirtyEntries() error {
	dbTx, err := bp.databaseContext.Begin()
	if err != nil {
		return err
	}
	defer dbTx.RollbackUnlessClosed()

	for _, entry := range bp.blockIndex.DirtyEntries() {
		err := bp.blockIndexStore.StoreEntry(dbTx, entry)
		if err != nil {
			return err
		}
	}
	return dbTx.Commit()
}

func (bp *blockProcessor) recordResult(err error) {
	var missingParents ruleerrors.ErrMissingParents
	var result string
	switch {
	case err == nil:
		result = metrics.ResultAccepted
	case errors.As(err, &missingParents):
		result = metrics.ResultOrphan
	case ruleerrors.NewValidationState(err).IsInvalid():
		result = metrics.ResultInvalid
	default:
		result = metrics.ResultError
	}
	metrics.BlockProcessed(result)
	metrics.SetOrphans(bp.OrphanCount())
}
