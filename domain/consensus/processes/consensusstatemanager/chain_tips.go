package consensusstatemanager

import (
	"github.com/freicoin/freicoind/domain/consensus/datastructures/blockindex"
	"github.com/freicoin/freicoind/domain/consensus/model"
	"github.com/freicoin/freicoind/domain/consensus/model/externalapi"
)

// ChainTips lists every block no other block builds on, and the active
// chain tip, with the length of its branch off the active chain.
func (csm *consensusStateManager) ChainTips() []*model.ChainTip {
	tips := csm.blockIndex.ChainTips()
	activeTip := csm.blockIndex.Tip()
	if activeTip != nil && !containsNode(tips, activeTip) {
		tips = append(tips, activeTip)
	}

	chainTips := make([]*model.ChainTip, 0, len(tips))
	for _, tip := range tips {
		branchLen := tip.Height + 1
		if fork := csm.blockIndex.FindFork(tip); fork != nil {
			branchLen = tip.Height - fork.Height
		}
		chainTips = append(chainTips, &model.ChainTip{
			Hash:      tip.Hash,
			Height:    tip.Height,
			BranchLen: branchLen,
			Status:    csm.chainTipStatus(tip),
		})
	}
	return chainTips
}

func (csm *consensusStateManager) chainTipStatus(tip *blockindex.Node) string {
	switch {
	case csm.blockIndex.Contains(tip):
		return model.ChainTipActive
	case tip.Status().IsFailed():
		return model.ChainTipInvalid
	case !tip.ChainDataComplete():
		return model.ChainTipHeadersOnly
	case tip.Status().Has(externalapi.StatusValid):
		return model.ChainTipValidFork
	default:
		return model.ChainTipValidHeaders
	}
}

func containsNode(nodes []*blockindex.Node, node *blockindex.Node) bool {
	for _, candidate := range nodes {
		if candidate == node {
			return true
		}
	}
	return false
}
