package blockindex

import (
	"sort"

	"github.com/freicoin/freicoind/domain/consensus/model/externalapi"
	"github.com/freicoin/freicoind/domain/consensus/utils/consensushashing"
	"github.com/pkg/errors"
)

// BlockIndex is the arena of every known block header, addressed by hash,
// together with the active chain: the path from genesis to the current tip.
//
// BlockIndex is not safe for concurrent access. Consensus serializes all
// access behind its lock.
type BlockIndex struct {
	nodes map[externalapi.DomainHash]*Node

	// chain holds the active chain indexed by height.
	chain []*Node

	// unlinked maps a node whose chain data is incomplete to its children
	// that already have their own data.
	unlinked map[*Node][]*Node

	// candidates holds the nodes with complete chain data that may become
	// the tip. Nodes with less work than the tip are pruned lazily.
	candidates map[*Node]struct{}

	bestHeader     *Node
	nextSequenceID uint64
	dirty          map[*Node]struct{}
}

// New returns an empty block index.
func New() *BlockIndex {
	return &BlockIndex{
		nodes:          make(map[externalapi.DomainHash]*Node),
		unlinked:       make(map[*Node][]*Node),
		candidates:     make(map[*Node]struct{}),
		nextSequenceID: 1,
		dirty:          make(map[*Node]struct{}),
	}
}

// LookupNode returns the node of hash, or nil if it is unknown.
func (bi *BlockIndex) LookupNode(hash *externalapi.DomainHash) *Node {
	return bi.nodes[*hash]
}

// HaveBlock returns whether hash is in the index.
func (bi *BlockIndex) HaveBlock(hash *externalapi.DomainHash) bool {
	_, ok := bi.nodes[*hash]
	return ok
}

// Len returns the number of nodes.
func (bi *BlockIndex) Len() int {
	return len(bi.nodes)
}

// AddHeader adds a node for header. Its parent must already be in the index
// unless the index is empty, in which case header becomes the genesis.
func (bi *BlockIndex) AddHeader(header *externalapi.DomainBlockHeader) (*Node, error) {
	hash := consensushashing.HeaderHash(header)
	if node, ok := bi.nodes[*hash]; ok {
		return node, nil
	}

	var parent *Node
	if len(bi.nodes) > 0 {
		parent = bi.nodes[header.PrevBlockHash]
		if parent == nil {
			return nil, errors.Errorf("parent %s of block %s is not in the index", header.PrevBlockHash, hash)
		}
	}

	node := newNode(hash, header, parent)
	bi.nodes[*hash] = node
	bi.dirty[node] = struct{}{}
	if bi.bestHeader == nil || node.ChainWork.Cmp(bi.bestHeader.ChainWork) > 0 {
		bi.bestHeader = node
	}
	return node, nil
}

// BestHeader returns the known header with the most work.
func (bi *BlockIndex) BestHeader() *Node {
	return bi.bestHeader
}

// SetStatusFlags sets flags on the status of node.
func (bi *BlockIndex) SetStatusFlags(node *Node, flags externalapi.BlockStatus) {
	if node.status&flags == flags {
		return
	}
	node.status |= flags
	bi.dirty[node] = struct{}{}
}

// UnsetStatusFlags clears flags from the status of node.
func (bi *BlockIndex) UnsetStatusFlags(node *Node, flags externalapi.BlockStatus) {
	if node.status&flags == 0 {
		return
	}
	node.status &^= flags
	bi.dirty[node] = struct{}{}
}

// ReceivedBlockData records that the data of node is stored and returns the
// nodes whose chain data became complete as a result, node first.
func (bi *BlockIndex) ReceivedBlockData(node *Node) []*Node {
	bi.SetStatusFlags(node, externalapi.StatusDataStored)
	if node.sequenceID == 0 {
		node.sequenceID = bi.nextSequenceID
		bi.nextSequenceID++
	}

	if node.Parent != nil && !node.Parent.chainDataComplete {
		bi.unlinked[node.Parent] = append(bi.unlinked[node.Parent], node)
		return nil
	}

	var completed []*Node
	queue := []*Node{node}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		if current.chainDataComplete {
			continue
		}
		current.chainDataComplete = true
		bi.candidates[current] = struct{}{}
		completed = append(completed, current)
		queue = append(queue, bi.unlinked[current]...)
		delete(bi.unlinked, current)
	}
	return completed
}

// Candidates returns the nodes that may become the tip of the active chain,
// in no particular order.
func (bi *BlockIndex) Candidates() []*Node {
	candidates := make([]*Node, 0, len(bi.candidates))
	for node := range bi.candidates {
		candidates = append(candidates, node)
	}
	return candidates
}

// RemoveCandidate drops node from the tip candidates.
func (bi *BlockIndex) RemoveCandidate(node *Node) {
	delete(bi.candidates, node)
}

// PruneCandidates drops the candidates with less work than the tip. They
// cannot win as long as the tip stands.
func (bi *BlockIndex) PruneCandidates() {
	tip := bi.Tip()
	if tip == nil {
		return
	}
	for node := range bi.candidates {
		if node.ChainWork.Cmp(tip.ChainWork) < 0 {
			delete(bi.candidates, node)
		}
	}
}

// ResetCandidates rebuilds the tip candidates from every node with complete
// chain data and at least as much work as the tip. It walks the whole index
// and is meant for the rare moves that lower the work of the tip, such as
// invalidating a block of the active chain.
func (bi *BlockIndex) ResetCandidates() {
	bi.candidates = make(map[*Node]struct{})
	tip := bi.Tip()
	for _, node := range bi.nodes {
		if !node.chainDataComplete || node.status.IsFailed() {
			continue
		}
		if tip != nil && node.ChainWork.Cmp(tip.ChainWork) < 0 {
			continue
		}
		bi.candidates[node] = struct{}{}
	}
}

// Nodes returns every node, ordered by height.
func (bi *BlockIndex) Nodes() []*Node {
	nodes := make([]*Node, 0, len(bi.nodes))
	for _, node := range bi.nodes {
		nodes = append(nodes, node)
	}
	sort.Slice(nodes, func(i, j int) bool {
		if nodes[i].Height != nodes[j].Height {
			return nodes[i].Height < nodes[j].Height
		}
		return nodes[i].Hash.Less(&nodes[j].Hash)
	})
	return nodes
}

// ChainTips returns the nodes no other node builds on.
func (bi *BlockIndex) ChainTips() []*Node {
	hasChildren := make(map[*Node]struct{}, len(bi.nodes))
	for _, node := range bi.nodes {
		if node.Parent != nil {
			hasChildren[node.Parent] = struct{}{}
		}
	}
	var tips []*Node
	for _, node := range bi.Nodes() {
		if _, ok := hasChildren[node]; !ok {
			tips = append(tips, node)
		}
	}
	return tips
}

// Descendants returns the nodes that have node as a strict ancestor.
func (bi *BlockIndex) Descendants(node *Node) []*Node {
	var descendants []*Node
	for _, candidate := range bi.Nodes() {
		if candidate.Height > node.Height && candidate.Ancestor(node.Height) == node {
			descendants = append(descendants, candidate)
		}
	}
	return descendants
}

// DirtyEntries returns the persisted form of every node changed since the
// last call.
func (bi *BlockIndex) DirtyEntries() []*externalapi.BlockIndexEntry {
	entries := make([]*externalapi.BlockIndexEntry, 0, len(bi.dirty))
	for node := range bi.dirty {
		entries = append(entries, node.Entry())
	}
	bi.dirty = make(map[*Node]struct{})
	return entries
}

// LoadEntries rebuilds the index from persisted entries. The index must be
// empty.
func (bi *BlockIndex) LoadEntries(entries []*externalapi.BlockIndexEntry) error {
	if len(bi.nodes) != 0 {
		return errors.New("cannot load entries into a non-empty block index")
	}

	sorted := append([]*externalapi.BlockIndexEntry(nil), entries...)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Height != sorted[j].Height {
			return sorted[i].Height < sorted[j].Height
		}
		return sorted[i].Hash.Less(&sorted[j].Hash)
	})

	for _, entry := range sorted {
		node, err := bi.AddHeader(entry.Header)
		if err != nil {
			return err
		}
		if !node.Hash.Equal(&entry.Hash) || node.Height != entry.Height {
			return errors.Errorf("block index entry %s does not match its header", entry.Hash)
		}
		node.status = entry.Status
		if node.HaveData() {
			bi.ReceivedBlockData(node)
		}
	}
	bi.dirty = make(map[*Node]struct{})
	return nil
}

// Tip returns the tip of the active chain, or nil if there is none.
func (bi *BlockIndex) Tip() *Node {
	if len(bi.chain) == 0 {
		return nil
	}
	return bi.chain[len(bi.chain)-1]
}

// Genesis returns the first block of the active chain.
func (bi *BlockIndex) Genesis() *Node {
	if len(bi.chain) == 0 {
		return nil
	}
	return bi.chain[0]
}

// Height returns the height of the active chain tip, -1 when empty.
func (bi *BlockIndex) Height() int32 {
	return int32(len(bi.chain)) - 1
}

// SetTip makes the chain ending at node the active chain. A nil node
// empties the active chain.
func (bi *BlockIndex) SetTip(node *Node) {
	if node == nil {
		bi.chain = nil
		return
	}

	oldLen := len(bi.chain)
	needed := int(node.Height) + 1
	if cap(bi.chain) < needed {
		grown := make([]*Node, needed, needed+1000)
		copy(grown, bi.chain)
		bi.chain = grown
	} else {
		bi.chain = bi.chain[:needed]
		// Entries past the old length are left over from a longer
		// chain and must not stop the walk below.
		for height := oldLen; height < needed; height++ {
			bi.chain[height] = nil
		}
	}

	for iterNode := node; iterNode != nil && bi.chain[iterNode.Height] != iterNode; iterNode = iterNode.Parent {
		bi.chain[iterNode.Height] = iterNode
	}
}

// NodeByHeight returns the active chain node at height.
func (bi *BlockIndex) NodeByHeight(height int32) *Node {
	if height < 0 || height >= int32(len(bi.chain)) {
		return nil
	}
	return bi.chain[height]
}

// Contains returns whether node is on the active chain.
func (bi *BlockIndex) Contains(node *Node) bool {
	return node != nil && bi.NodeByHeight(node.Height) == node
}

// Next returns the successor of node on the active chain.
func (bi *BlockIndex) Next(node *Node) *Node {
	if !bi.Contains(node) {
		return nil
	}
	return bi.NodeByHeight(node.Height + 1)
}

// FindFork returns the last node of the active chain that node descends
// from.
func (bi *BlockIndex) FindFork(node *Node) *Node {
	if node == nil {
		return nil
	}
	if node.Height > bi.Height() {
		node = node.Ancestor(bi.Height())
	}
	for node != nil && !bi.Contains(node) {
		node = node.Parent
	}
	return node
}
