package blockvalidator

import (
	"github.com/freicoin/freicoind/domain/chaincfg"
	"github.com/freicoin/freicoind/domain/consensus/datastructures/blockindex"
	"github.com/freicoin/freicoind/domain/consensus/utils/txscript"
)

// ScriptFlags returns the script verification flags in force for the
// block of node.
func (v *blockValidator) ScriptFlags(node *blockindex.Node) (txscript.ScriptFlags, error) {
	if node.Parent == nil {
		return 0, nil
	}
	prevNode := node.Parent

	flags := txscript.ScriptBip16
	if node.Height >= v.params.BIP66Height {
		flags |= txscript.ScriptVerifyDERSignatures | txscript.ScriptVerifyCheckLockTimeVerify
	}

	csvActive, err := v.versionBitsCache.IsActive(prevNode, chaincfg.DeploymentLockTime)
	if err != nil {
		return 0, err
	}
	if csvActive {
		flags |= txscript.ScriptVerifyCheckSequenceVerify
	}

	segwitActive, err := v.versionBitsCache.IsActive(prevNode, chaincfg.DeploymentSegwit)
	if err != nil {
		return 0, err
	}
	if segwitActive {
		flags |= txscript.ScriptVerifyWitness | txscript.ScriptVerifyNullDummy
	}

	if v.rulesAfter(prevNode).ProtocolCleanup {
		flags |= txscript.ScriptVerifyProtocolCleanup
	}
	return flags, nil
}

// EnforceRelativeLocks returns whether BIP68 sequence locks and BIP113
// median time lock times apply to a block built on top of prevNode.
func (v *blockValidator) EnforceRelativeLocks(prevNode *blockindex.Node) (bool, error) {
	if prevNode == nil {
		return false, nil
	}
	return v.versionBitsCache.IsActive(prevNode, chaincfg.DeploymentLockTime)
}
