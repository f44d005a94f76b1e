// Copyright (c) 2016-2017 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package versionbits

import (
	"fmt"

	"github.com/freicoin/freicoind/domain/chaincfg"
	"github.com/freicoin/freicoind/domain/consensus/datastructures/blockindex"
	"github.com/pkg/errors"
)

const (
	// TopBits is the value the top bits of a block version must have to
	// signal for deployments.
	TopBits = 0x20000000

	// TopMask is the bitmask of the version bits TopBits is compared to.
	TopMask = 0xe0000000

	// NumBits is the number of bits available for signalling.
	NumBits = 29
)

// ThresholdState define the various threshold states used when voting on
// consensus changes.
type ThresholdState byte

// These constants are used to identify specific threshold states.
const (
	// ThresholdDefined is the first state for each deployment and is the
	// state for the genesis block has by definition for all deployments.
	ThresholdDefined ThresholdState = iota

	// ThresholdStarted is the state for a deployment once its start time
	// has been reached.
	ThresholdStarted

	// ThresholdLockedIn is the state for a deployment during the retarget
	// period which is after the ThresholdStarted state period and the
	// number of blocks that have voted for the deployment equal or exceed
	// the required number of votes for the deployment.
	ThresholdLockedIn

	// ThresholdActive is the state for a deployment for all blocks after a
	// retarget period in which the deployment was in the ThresholdLockedIn
	// state.
	ThresholdActive

	// ThresholdFailed is the state for a deployment once its expiration
	// time has been reached and it did not reach the ThresholdLockedIn
	// state.
	ThresholdFailed
)

var thresholdStateStrings = map[ThresholdState]string{
	ThresholdDefined:  "defined",
	ThresholdStarted:  "started",
	ThresholdLockedIn: "locked_in",
	ThresholdActive:   "active",
	ThresholdFailed:   "failed",
}

// String returns the ThresholdState as a human-readable name.
func (t ThresholdState) String() string {
	if s := thresholdStateStrings[t]; s != "" {
		return s
	}
	return fmt.Sprintf("Unknown ThresholdState (%d)", int(t))
}

// Cache memoizes the threshold state of every deployment per confirmation
// window. States are keyed by the last node of the window preceding the one
// they apply to; the nil key stands for the window before genesis.
//
// Cache is not safe for concurrent access.
type Cache struct {
	params *chaincfg.Params
	states [chaincfg.DefinedDeployments]map[*blockindex.Node]ThresholdState
}

// NewCache returns an empty cache for params.
func NewCache(params *chaincfg.Params) *Cache {
	cache := &Cache{params: params}
	for i := range cache.states {
		cache.states[i] = make(map[*blockindex.Node]ThresholdState)
	}
	return cache
}

// Signals returns whether version signals for deployment.
func Signals(version int32, deployment *chaincfg.ConsensusDeployment) bool {
	return uint32(version)&TopMask == TopBits && uint32(version)&(uint32(1)<<deployment.BitNumber) != 0
}

// State returns the state of deployment for the block that follows
// prevNode. A nil prevNode asks about the genesis block.
func (c *Cache) State(prevNode *blockindex.Node, deployment int) (ThresholdState, error) {
	if deployment < 0 || deployment >= chaincfg.DefinedDeployments {
		return ThresholdFailed, errors.Errorf("deployment ID %d does not exist", deployment)
	}
	d := &c.params.Deployments[deployment]
	if d.StartTime == chaincfg.AlwaysActive {
		return ThresholdActive, nil
	}
	cache := c.states[deployment]
	window := int32(c.params.MinerConfirmationWindow)
	threshold := c.params.RuleChangeActivationThreshold

	// The state only changes at window boundaries, so move to the last
	// node of the previous window.
	if prevNode != nil {
		prevNode = prevNode.Ancestor(prevNode.Height - (prevNode.Height+1)%window)
	}

	// Walk back one window at a time until a cached state or a window that
	// ended before the start time is found.
	var neededStates []*blockindex.Node
	for {
		if _, ok := cache[prevNode]; ok {
			break
		}
		if prevNode == nil {
			cache[nil] = ThresholdDefined
			break
		}
		if prevNode.MedianTimePast() < d.StartTime {
			cache[prevNode] = ThresholdDefined
			break
		}
		neededStates = append(neededStates, prevNode)
		prevNode = prevNode.Ancestor(prevNode.Height - window)
	}

	state := cache[prevNode]
	for i := len(neededStates) - 1; i >= 0; i-- {
		node := neededStates[i]
		switch state {
		case ThresholdDefined:
			if node.MedianTimePast() >= d.Timeout {
				state = ThresholdFailed
			} else if node.MedianTimePast() >= d.StartTime {
				state = ThresholdStarted
			}

		case ThresholdStarted:
			if node.MedianTimePast() >= d.Timeout {
				state = ThresholdFailed
				break
			}
			var count uint32
			countNode := node
			for j := int32(0); j < window && countNode != nil; j++ {
				if Signals(countNode.Header.Version, d) {
					count++
				}
				countNode = countNode.Parent
			}
			if count >= threshold {
				state = ThresholdLockedIn
			}

		case ThresholdLockedIn:
			state = ThresholdActive

		case ThresholdActive, ThresholdFailed:
		}
		cache[node] = state
	}
	return state, nil
}

// IsActive returns whether deployment is active for the block that follows
// prevNode.
func (c *Cache) IsActive(prevNode *blockindex.Node, deployment int) (bool, error) {
	state, err := c.State(prevNode, deployment)
	if err != nil {
		return false, err
	}
	return state == ThresholdActive, nil
}

// ComputeBlockVersion returns the version a block built on prevNode should
// carry: the top bits plus the bit of every deployment that is started or
// locked in.
func (c *Cache) ComputeBlockVersion(prevNode *blockindex.Node) (int32, error) {
	version := uint32(TopBits)
	for deployment := range c.params.Deployments {
		state, err := c.State(prevNode, deployment)
		if err != nil {
			return 0, err
		}
		if state == ThresholdStarted || state == ThresholdLockedIn {
			version |= uint32(1) << c.params.Deployments[deployment].BitNumber
		}
	}
	return int32(version), nil
}

// Clear drops every cached state.
func (c *Cache) Clear() {
	for i := range c.states {
		c.states[i] = make(map[*blockindex.Node]ThresholdState)
	}
}
