package blockvalidator

import (
	"bytes"

	"github.com/freicoin/freicoind/domain/chaincfg"
	"github.com/freicoin/freicoind/domain/consensus/datastructures/blockindex"
	"github.com/freicoin/freicoind/domain/consensus/model/externalapi"
	"github.com/freicoin/freicoind/domain/consensus/ruleerrors"
	"github.com/freicoin/freicoind/domain/consensus/utils/consensushashing"
	"github.com/freicoin/freicoind/domain/consensus/utils/constants"
	"github.com/freicoin/freicoind/domain/consensus/utils/hashes"
	"github.com/freicoin/freicoind/domain/consensus/utils/serialization"
	"github.com/freicoin/freicoind/infrastructure/logger"
	"github.com/pkg/errors"
)

// ValidateBodyInContext validates the block body against the chain it
// builds on, short of the spent coins. Those are checked when the block is
// connected.
func (v *blockValidator) ValidateBodyInContext(block *externalapi.DomainBlock, prevNode *blockindex.Node) error {
	onEnd := logger.LogAndMeasureExecutionTime(log, "ValidateBodyInContext")
	defer onEnd()

	if prevNode == nil {
		return nil
	}
	height := prevNode.Height + 1
	rules := v.rulesAfter(prevNode)

	err := v.checkCoinbaseLockTime(block, prevNode, rules)
	if err != nil {
		return err
	}

	err = v.checkBlockTransactionsFinalized(block, prevNode)
	if err != nil {
		return err
	}

	if height >= v.params.BIP34Height {
		err = v.coinbaseManager.ValidateCoinbaseHeight(block.Transactions[0], height, rules.RestrictCoinbaseScript)
		if err != nil {
			return err
		}
	}

	err = v.checkWitnessCommitment(block, prevNode)
	if err != nil {
		return err
	}

	return v.checkBlockWeight(block, rules)
}

// checkCoinbaseLockTime checks the rule set the coinbase lock time selects
// for the checks made without chain context is the one the median time past
// of the parent selects.
func (v *blockValidator) checkCoinbaseLockTime(block *externalapi.DomainBlock, prevNode *blockindex.Node,
	rules *chaincfg.RuleSet) error {

	if v.params.IsProtocolCleanupActiveForBlock(block) == rules.ProtocolCleanup {
		return nil
	}
	var lockTime uint32
	if len(block.Transactions) > 0 {
		lockTime = block.Transactions[0].LockTime
	}
	return errors.Wrapf(ruleerrors.ErrBadCoinbaseLockTime, "coinbase lock time %d selects protocol cleanup "+
		"%t but the median time past %d of the parent selects %t", lockTime, !rules.ProtocolCleanup,
		prevNode.MedianTimePast(), rules.ProtocolCleanup)
}

func (v *blockValidator) checkBlockTransactionsFinalized(block *externalapi.DomainBlock,
	prevNode *blockindex.Node) error {

	enforceMedianTime, err := v.EnforceRelativeLocks(prevNode)
	if err != nil {
		return err
	}
	height := prevNode.Height + 1
	cutoff := v.pastMedianTimeManager.LockTimeCutoff(block.Header, prevNode, enforceMedianTime)

	for _, tx := range block.Transactions {
		if !v.transactionValidator.IsFinalized(tx, height, cutoff) {
			txID := consensushashing.TransactionID(tx)
			return ruleerrors.NewErrInvalidTransaction(txID, errors.Wrapf(ruleerrors.ErrUnfinalizedTx,
				"block contains unfinalized transaction %s", txID))
		}
	}
	return nil
}

// checkWitnessCommitment validates the commitment to the witness data of
// the block. Without segwit, or without a commitment, no transaction may
// carry witness data.
func (v *blockValidator) checkWitnessCommitment(block *externalapi.DomainBlock, prevNode *blockindex.Node) error {
	segwitActive, err := v.versionBitsCache.IsActive(prevNode, chaincfg.DeploymentSegwit)
	if err != nil {
		return err
	}

	coinbase := block.Transactions[0]
	commitmentIndex := -1
	if segwitActive {
		commitmentIndex = witnessCommitmentIndex(coinbase)
	}

	if commitmentIndex < 0 {
		for _, tx := range block.Transactions {
			if tx.HasWitness() {
				return errors.Wrapf(ruleerrors.ErrUnexpectedWitness, "block contains transaction "+
					"%s with witness data but no witness commitment", consensushashing.TransactionID(tx))
			}
		}
		return nil
	}

	witness := coinbase.Inputs[0].Witness
	if len(witness) != 1 || len(witness[0]) != externalapi.DomainHashSize {
		return errors.Wrapf(ruleerrors.ErrBadWitnessNonceSize, "the coinbase witness nonce must be "+
			"a single item of %d bytes", externalapi.DomainHashSize)
	}

	witnessMerkleRoot, _ := consensushashing.BlockWitnessMerkleRoot(block.Transactions)
	var preimage [2 * externalapi.DomainHashSize]byte
	copy(preimage[:], witnessMerkleRoot.ByteSlice())
	copy(preimage[externalapi.DomainHashSize:], witness[0])
	expected := hashes.DoubleSHA256(preimage[:])

	script := coinbase.Outputs[commitmentIndex].ScriptPublicKey
	committed := script[constants.WitnessCommitmentHeaderLength:constants.MinimumWitnessCommitmentLength]
	if !bytes.Equal(committed, expected.ByteSlice()) {
		return errors.Wrapf(ruleerrors.ErrBadWitnessCommitment, "witness commitment %x does not "+
			"match the computed %s", committed, expected)
	}
	return nil
}

// witnessCommitmentIndex returns the index of the last coinbase output that
// carries a witness commitment, or -1.
func witnessCommitmentIndex(coinbase *externalapi.DomainTransaction) int {
	for i := len(coinbase.Outputs) - 1; i >= 0; i-- {
		script := coinbase.Outputs[i].ScriptPublicKey
		if len(script) >= constants.MinimumWitnessCommitmentLength &&
			bytes.HasPrefix(script, constants.WitnessCommitmentHeader[:]) {
			return i
		}
	}
	return -1
}

func (v *blockValidator) checkBlockWeight(block *externalapi.DomainBlock, rules *chaincfg.RuleSet) error {
	weight := serialization.BlockWeight(block)
	if weight > rules.MaxBlockWeight {
		return errors.Wrapf(ruleerrors.ErrBlockWeightTooHigh, "block weight of %d is higher than "+
			"max allowed %d", weight, rules.MaxBlockWeight)
	}
	return nil
}
