// Copyright (c) 2013-2017 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package difficultymanager

import (
	"math/big"

	"github.com/freicoin/freicoind/domain/chaincfg"
	"github.com/freicoin/freicoind/domain/consensus/datastructures/blockindex"
	"github.com/freicoin/freicoind/domain/consensus/model"
	"github.com/freicoin/freicoind/domain/consensus/utils/pow"
)

const (
	// filterWindow is the number of block spacings the filtered policy
	// looks at.
	filterWindow = 144

	// The filtered policy never moves the target by more than this
	// ratio per retarget, in either direction.
	maxFilterAdjustNum = 211
	maxFilterAdjustDen = 200
)

// difficultyManager provides a method to resolve the
// difficulty value of a block
type difficultyManager struct {
	params *chaincfg.Params
}

// New instantiates a new DifficultyManager
func New(params *chaincfg.Params) model.DifficultyManager {
	return &difficultyManager{
		params: params,
	}
}

// RequiredDifficulty calculates the required difficulty for a block with
// the given timestamp built on top of prevNode.
func (dm *difficultyManager) RequiredDifficulty(prevNode *blockindex.Node, timestamp int64) uint32 {
	// Genesis block.
	if prevNode == nil {
		return dm.params.PowLimitBits
	}
	if dm.params.NoRetargeting {
		return prevNode.Header.Bits
	}

	height := prevNode.Height + 1
	if height%dm.adjustInterval(height) != 0 {
		if dm.params.AllowMinDifficultyBlocks {
			return dm.minDifficultyBits(prevNode, timestamp)
		}
		return prevNode.Header.Bits
	}

	if height >= dm.params.DiffAdjustThreshold {
		return dm.filteredRetarget(prevNode)
	}
	return dm.originalRetarget(prevNode)
}

func (dm *difficultyManager) adjustInterval(height int32) int32 {
	if height >= dm.params.DiffAdjustThreshold {
		return dm.params.FilteredAdjustInterval
	}
	return dm.params.OriginalAdjustInterval
}

func (dm *difficultyManager) targetSpacingSeconds() int64 {
	return int64(dm.params.TargetSpacing.Seconds())
}

// minDifficultyBits applies the special rule of the test networks: a block
// that arrives more than twice the target spacing after its parent may use
// the minimum difficulty. Otherwise the difficulty is that of the last block
// that did not use this rule.
func (dm *difficultyManager) minDifficultyBits(prevNode *blockindex.Node, timestamp int64) uint32 {
	if timestamp > prevNode.Timestamp()+2*dm.targetSpacingSeconds() {
		return dm.params.PowLimitBits
	}

	iterNode := prevNode
	for iterNode.Parent != nil && iterNode.Height%dm.adjustInterval(iterNode.Height) != 0 &&
		iterNode.Header.Bits == dm.params.PowLimitBits {

		iterNode = iterNode.Parent
	}
	return iterNode.Header.Bits
}

// originalRetarget scales the target by the time the last interval took
// against the time it should have taken, limited to a factor of four.
func (dm *difficultyManager) originalRetarget(prevNode *blockindex.Node) uint32 {
	firstNode := prevNode.Ancestor(prevNode.Height - (dm.params.OriginalAdjustInterval - 1))
	if firstNode == nil {
		firstNode = prevNode.Ancestor(0)
	}

	targetTimespan := int64(dm.params.OriginalTargetTimespan().Seconds())
	actualTimespan := prevNode.Timestamp() - firstNode.Timestamp()
	if actualTimespan < targetTimespan/4 {
		actualTimespan = targetTimespan / 4
	} else if actualTimespan > targetTimespan*4 {
		actualTimespan = targetTimespan * 4
	}

	// The result uses integer division which means it will be slightly
	// rounded down.
	newTarget := pow.CompactToBig(prevNode.Header.Bits)
	newTarget.Mul(newTarget, big.NewInt(actualTimespan))
	newTarget.Div(newTarget, big.NewInt(targetTimespan))
	return dm.capAtPowLimit(newTarget)
}

// filteredRetarget moves the target towards the weighted average of the
// recent spacings between median times past. Newer spacings weigh more.
//
// With F the filtered spacing and T the target spacing the adjustment is
// 40T / (41T - F), bounded by maxFilterAdjustNum/maxFilterAdjustDen.
func (dm *difficultyManager) filteredRetarget(prevNode *blockindex.Node) uint32 {
	spacing := dm.targetSpacingSeconds()

	var weightedSum, weightSum int64
	iterNode := prevNode
	for i := int64(0); i < filterWindow; i++ {
		delta := spacing
		if iterNode != nil && iterNode.Parent != nil {
			delta = iterNode.MedianTimePast() - iterNode.Parent.MedianTimePast()
			iterNode = iterNode.Parent
		} else {
			iterNode = nil
		}
		weight := filterWindow - i
		weightedSum += weight * delta
		weightSum += weight
	}
	filtered := weightedSum / weightSum

	numerator := 40 * spacing
	denominator := 41*spacing - filtered
	switch {
	case denominator <= 0 || numerator*maxFilterAdjustDen > denominator*maxFilterAdjustNum:
		numerator, denominator = maxFilterAdjustNum, maxFilterAdjustDen
	case numerator*maxFilterAdjustNum < denominator*maxFilterAdjustDen:
		numerator, denominator = maxFilterAdjustDen, maxFilterAdjustNum
	}

	newTarget := pow.CompactToBig(prevNode.Header.Bits)
	newTarget.Mul(newTarget, big.NewInt(numerator))
	newTarget.Div(newTarget, big.NewInt(denominator))
	return dm.capAtPowLimit(newTarget)
}

func (dm *difficultyManager) capAtPowLimit(target *big.Int) uint32 {
	if target.Cmp(dm.params.PowLimit) > 0 {
		return dm.params.PowLimitBits
	}
	return pow.BigToCompact(target)
}
