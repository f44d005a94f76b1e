package consensusstatemanager

import (
	"context"

	"github.com/freicoin/freicoind/domain/consensus/model/externalapi"
	"github.com/pkg/errors"
)

// LoadChainState rebuilds the block index from the database and points the
// active chain at the best block of the stored UTXO set. An empty database
// is initialized with the genesis block.
func (csm *consensusStateManager) LoadChainState() error {
	entries, err := csm.blockIndexStore.Entries(csm.databaseContext)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		return csm.initGenesis()
	}

	err = csm.blockIndex.LoadEntries(entries)
	if err != nil {
		return err
	}
	genesis := csm.blockIndex.LookupNode(csm.params.GenesisHash)
	if genesis == nil || genesis.Parent != nil {
		return errors.Errorf("the stored block index does not start at the genesis block of %s",
			csm.params.Name)
	}

	view, err := csm.coinsStore.View(csm.databaseContext)
	if err != nil {
		return err
	}
	bestHash, err := view.GetBestBlockHash()
	if err != nil {
		return err
	}
	tip := csm.blockIndex.LookupNode(bestHash)
	if tip == nil {
		return errors.Errorf("the best block %s of the UTXO set is not in the block index", bestHash)
	}
	csm.blockIndex.SetTip(tip)

	log.Infof("Loaded %d block index entries, tip %s at height %d", len(entries), tip.Hash, tip.Height)
	return nil
}

func (csm *consensusStateManager) initGenesis() error {
	genesisBlock := csm.params.GenesisBlock
	node, err := csm.blockIndex.AddHeader(genesisBlock.Header)
	if err != nil {
		return err
	}
	if !node.Hash.Equal(csm.params.GenesisHash) {
		return errors.Errorf("genesis block hashes to %s, expected %s", node.Hash, csm.params.GenesisHash)
	}

	err = csm.blockStore.StoreBlock(csm.databaseContext, &node.Hash, genesisBlock)
	if err != nil {
		return err
	}
	csm.blockIndex.SetStatusFlags(node, externalapi.StatusHeaderValid)
	csm.blockIndex.ReceivedBlockData(node)

	_, err = csm.connectTip(context.Background(), node)
	if err != nil {
		return errors.Wrap(err, "connecting the genesis block")
	}
	log.Infof("Initialized the chain state with genesis block %s", node.Hash)
	return nil
}
