package blockindexstore

import (
	"testing"

	"github.com/freicoin/freicoind/domain/consensus/datastructures/blockindex"
	"github.com/freicoin/freicoind/domain/consensus/model/externalapi"
	"github.com/freicoin/freicoind/infrastructure/db/database/ldb"
	"github.com/stretchr/testify/require"
)

func TestBlockIndexStoreRoundTrip(t *testing.T) {
	db, err := ldb.NewInMemoryLevelDB()
	require.NoError(t, err)
	defer db.Close()

	index := blockindex.New()
	header := &externalapi.DomainBlockHeader{Version: 1, Timestamp: 1356123600, Bits: 0x207fffff}
	parent, err := index.AddHeader(header)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		header = &externalapi.DomainBlockHeader{Version: 1, PrevBlockHash: parent.Hash,
			Timestamp: header.Timestamp + 600, Bits: 0x207fffff}
		parent, err = index.AddHeader(header)
		require.NoError(t, err)
		index.ReceivedBlockData(parent.Parent)
	}

	store := New()
	dbTx, err := db.Begin()
	require.NoError(t, err)
	for _, entry := range index.DirtyEntries() {
		require.NoError(t, store.StoreEntry(dbTx, entry))
	}
	require.NoError(t, dbTx.Commit())

	entries, err := store.Entries(db)
	require.NoError(t, err)
	require.Len(t, entries, 6)

	reloaded := blockindex.New()
	require.NoError(t, reloaded.LoadEntries(entries))
	require.Equal(t, index.Len(), reloaded.Len())
	tip := reloaded.LookupNode(&parent.Hash)
	require.NotNil(t, tip)
	require.Equal(t, int32(5), tip.Height)
	require.False(t, tip.HaveData())
	require.True(t, tip.Parent.ChainDataComplete())
}
