package blockindex

import (
	"testing"

	"github.com/freicoin/freicoind/domain/consensus/model/externalapi"
	"github.com/freicoin/freicoind/domain/consensus/utils/consensushashing"
	"github.com/stretchr/testify/require"
)

const testBits = 0x207fffff

// extend adds count headers on top of parent. A nil parent starts a new
// genesis. nonce keeps branches apart.
func extend(t *testing.T, index *BlockIndex, parent *Node, count int, nonce uint32) []*Node {
	var nodes []*Node
	for i := 0; i < count; i++ {
		header := &externalapi.DomainBlockHeader{Version: 1, Bits: testBits, Nonce: nonce}
		if parent != nil {
			header.PrevBlockHash = parent.Hash
			header.Timestamp = parent.Header.Timestamp + 600
		} else {
			header.Timestamp = 1356123600
		}
		node, err := index.AddHeader(header)
		require.NoError(t, err)
		nodes = append(nodes, node)
		parent = node
	}
	return nodes
}

func TestAncestor(t *testing.T) {
	index := New()
	chain := extend(t, index, nil, 300, 0)
	tip := chain[len(chain)-1]

	for height := int32(0); height < 300; height++ {
		require.Same(t, chain[height], tip.Ancestor(height), "ancestor at height %d", height)
	}
	require.Nil(t, tip.Ancestor(300))
	require.Nil(t, tip.Ancestor(-1))
	require.Same(t, chain[290], tip.RelativeAncestor(9))
	require.True(t, chain[10].IsAncestorOf(tip))
	require.False(t, tip.IsAncestorOf(chain[10]))
}

func TestChainWorkAndMedianTime(t *testing.T) {
	index := New()
	chain := extend(t, index, nil, 20, 0)

	require.Equal(t, chain[0].ChainWork.Int64()*20, chain[19].ChainWork.Int64())

	// Timestamps grow by 600 seconds, so the median of eleven is the
	// sixth newest.
	require.Equal(t, chain[14].Timestamp(), chain[19].MedianTimePast())
	require.Equal(t, chain[0].Timestamp(), chain[0].MedianTimePast())
	require.Equal(t, chain[1].Timestamp(), chain[2].MedianTimePast())
}

func TestAddHeaderUnknownParent(t *testing.T) {
	index := New()
	extend(t, index, nil, 1, 0)

	_, err := index.AddHeader(&externalapi.DomainBlockHeader{PrevBlockHash: externalapi.DomainHash{1}, Bits: testBits})
	require.Error(t, err)

	// Adding a known header returns the existing node.
	genesis := index.BestHeader()
	again, err := index.AddHeader(genesis.Header)
	require.NoError(t, err)
	require.Same(t, genesis, again)
}

func TestActiveChain(t *testing.T) {
	index := New()
	main := extend(t, index, nil, 10, 0)
	fork := extend(t, index, main[3], 3, 1)

	index.SetTip(main[9])
	require.Equal(t, int32(9), index.Height())
	require.Same(t, main[9], index.Tip())
	require.Same(t, main[0], index.Genesis())
	require.Same(t, main[4], index.Next(main[3]))
	require.Same(t, main[3], index.FindFork(fork[2]))

	index.SetTip(fork[2])
	require.Equal(t, int32(6), index.Height())
	require.True(t, index.Contains(fork[0]))
	require.False(t, index.Contains(main[4]))
	require.Same(t, fork[2], index.FindFork(fork[2]))

	// Growing back over entries left behind by the longer chain.
	index.SetTip(main[9])
	for height := int32(0); height < 10; height++ {
		require.Same(t, main[height], index.NodeByHeight(height))
	}

	index.SetTip(nil)
	require.Nil(t, index.Tip())
	require.Equal(t, int32(-1), index.Height())
}

func TestChainTipsAndDescendants(t *testing.T) {
	index := New()
	main := extend(t, index, nil, 5, 0)
	fork := extend(t, index, main[2], 2, 1)

	tips := index.ChainTips()
	require.Len(t, tips, 2)
	require.ElementsMatch(t, []*Node{main[4], fork[1]}, tips)

	require.ElementsMatch(t, []*Node{main[3], main[4], fork[0], fork[1]}, index.Descendants(main[2]))
	require.Same(t, main[2], LastCommonAncestor(main[4], fork[1]))
	require.Same(t, main[4], index.BestHeader())
}

func TestReceivedBlockData(t *testing.T) {
	index := New()
	chain := extend(t, index, nil, 4, 0)

	completed := index.ReceivedBlockData(chain[0])
	require.Equal(t, []*Node{chain[0]}, completed)

	// Out of order arrival: 2 and 3 wait for 1.
	require.Empty(t, index.ReceivedBlockData(chain[2]))
	require.Empty(t, index.ReceivedBlockData(chain[3]))
	require.False(t, chain[3].ChainDataComplete())

	completed = index.ReceivedBlockData(chain[1])
	require.Equal(t, []*Node{chain[1], chain[2], chain[3]}, completed)
	require.True(t, chain[3].ChainDataComplete())

	require.Less(t, chain[2].SequenceID(), chain[3].SequenceID())
	require.Less(t, chain[3].SequenceID(), chain[1].SequenceID())
}

func TestLoadEntries(t *testing.T) {
	index := New()
	main := extend(t, index, nil, 6, 0)
	fork := extend(t, index, main[1], 2, 1)
	for _, node := range append(main, fork...) {
		index.ReceivedBlockData(node)
	}
	index.SetStatusFlags(fork[1], externalapi.StatusValidateFailed)

	entries := index.DirtyEntries()
	require.Len(t, entries, 8)
	require.Empty(t, index.DirtyEntries())

	reloaded := New()
	require.NoError(t, reloaded.LoadEntries(entries))
	require.Equal(t, 8, reloaded.Len())
	require.Empty(t, reloaded.DirtyEntries())

	failed := reloaded.LookupNode(consensushashing.HeaderHash(fork[1].Header))
	require.NotNil(t, failed)
	require.True(t, failed.Status().IsFailed())
	require.True(t, failed.ChainDataComplete())
	require.Equal(t, 0, fork[1].ChainWork.Cmp(failed.ChainWork))

	require.Error(t, reloaded.LoadEntries(entries))
}

func TestCandidates(t *testing.T) {
	index := New()
	main := extend(t, index, nil, 5, 0)
	fork := extend(t, index, main[1], 2, 1)
	for _, node := range append(main, fork...) {
		index.ReceivedBlockData(node)
	}
	require.ElementsMatch(t, append(append([]*Node{}, main...), fork...), index.Candidates())

	index.SetTip(main[4])
	index.PruneCandidates()
	require.ElementsMatch(t, []*Node{main[4]}, index.Candidates())

	// Invalidating the tip brings back the branches that can replace it.
	index.SetStatusFlags(main[4], externalapi.StatusValidateFailed)
	index.SetTip(main[3])
	index.ResetCandidates()
	require.ElementsMatch(t, []*Node{main[3], fork[1]}, index.Candidates())

	index.RemoveCandidate(fork[1])
	require.ElementsMatch(t, []*Node{main[3]}, index.Candidates())
}
