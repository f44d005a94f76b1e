package blockprocessor

import (
	"context"

	"github.com/freicoin/freicoind/domain/consensus/model/externalapi"
	"github.com/freicoin/freicoind/domain/consensus/ruleerrors"
)

func (bp *blockProcessor) addOrphan(blockHash *externalapi.DomainHash, block *externalapi.DomainBlock) error {
	bp.orphans.Set(*blockHash, block, orphanTTL)
	log.Debugf("Added orphan block %s with parent %s", blockHash, block.Header.PrevBlockHash)
	return ruleerrors.NewErrMissingParents([]*externalapi.DomainHash{&block.Header.PrevBlockHash})
}

// processOrphans processes the orphans that descend from parentHash, in
// breadth first order. Orphans that fail are dropped; the failure is
// reported through the sink and does not fail the parent.
func (bp *blockProcessor) processOrphans(ctx context.Context, parentHash *externalapi.DomainHash) error {
	queue := []*externalapi.DomainHash{parentHash}
	for len(queue) > 0 {
		err := ctx.Err()
		if err != nil {
			return err
		}

		parent := queue[0]
		queue = queue[1:]
		for _, orphan := range bp.orphanChildren(parent) {
			orphanHash := &orphan.Hash
			bp.orphans.Delete(*orphanHash)

			err := bp.processBlock(ctx, orphan.Block)
			bp.recordResult(err)
			if err != nil {
				if !ruleerrors.IsRuleError(err) {
					return err
				}
				log.Debugf("Orphan block %s was rejected: %s", orphanHash, err)
				continue
			}
			log.Debugf("Accepted orphan block %s", orphanHash)
			queue = append(queue, orphanHash)
		}
	}
	return nil
}

type orphanBlock struct {
	Hash  externalapi.DomainHash
	Block *externalapi.DomainBlock
}

func (bp *blockProcessor) orphanChildren(parentHash *externalapi.DomainHash) []*orphanBlock {
	bp.orphans.DeleteExpired()
	var children []*orphanBlock
	for hash, item := range bp.orphans.Items() {
		block := item.Value()
		if block.Header.PrevBlockHash.Equal(parentHash) {
			children = append(children, &orphanBlock{Hash: hash, Block: block})
		}
	}
	return children
}
