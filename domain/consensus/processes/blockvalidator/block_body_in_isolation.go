package blockvalidator

import (
	"github.com/freicoin/freicoind/domain/chaincfg"
	"github.com/freicoin/freicoind/domain/consensus/model/externalapi"
	"github.com/freicoin/freicoind/domain/consensus/ruleerrors"
	"github.com/freicoin/freicoind/domain/consensus/utils/consensushashing"
	"github.com/freicoin/freicoind/domain/consensus/utils/constants"
	"github.com/freicoin/freicoind/domain/consensus/utils/serialization"
	"github.com/freicoin/freicoind/domain/consensus/utils/txscript"
	"github.com/freicoin/freicoind/infrastructure/logger"
	"github.com/pkg/errors"
)

// ValidateBodyInIsolation validates block bodies in isolation from the current
// consensus state
func (v *blockValidator) ValidateBodyInIsolation(block *externalapi.DomainBlock) error {
	onEnd := logger.LogAndMeasureExecutionTime(log, "ValidateBodyInIsolation")
	defer onEnd()

	rules := v.params.Rules(v.params.IsProtocolCleanupActiveForBlock(block))

	err := v.checkBlockContainsAtLeastOneTransaction(block)
	if err != nil {
		return err
	}

	err = v.checkBlockHashMerkleRoot(block)
	if err != nil {
		return err
	}

	err = v.checkBlockSize(block, rules)
	if err != nil {
		return err
	}

	err = v.checkFirstBlockTransactionIsCoinbase(block)
	if err != nil {
		return err
	}

	err = v.checkBlockContainsOnlyOneCoinbase(block)
	if err != nil {
		return err
	}

	err = v.checkTransactionsInIsolation(block, rules)
	if err != nil {
		return err
	}

	return v.checkLegacySigOps(block, rules)
}

func (v *blockValidator) checkBlockContainsAtLeastOneTransaction(block *externalapi.DomainBlock) error {
	if len(block.Transactions) == 0 {
		return errors.Wrapf(ruleerrors.ErrNoTransactions, "block does not contain "+
			"any transactions")
	}
	return nil
}

// checkBlockHashMerkleRoot also rejects blocks whose transaction list was
// mutated by duplicating the tail, which leaves the merkle root unchanged.
func (v *blockValidator) checkBlockHashMerkleRoot(block *externalapi.DomainBlock) error {
	calculatedHashMerkleRoot, mutated := consensushashing.BlockMerkleRoot(block.Transactions)
	if !block.Header.MerkleRoot.Equal(calculatedHashMerkleRoot) {
		return errors.Wrapf(ruleerrors.ErrBadMerkleRoot, "block hash merkle root is invalid - block "+
			"header indicates %s, but calculated value is %s",
			block.Header.MerkleRoot, calculatedHashMerkleRoot)
	}
	if mutated {
		return errors.Wrapf(ruleerrors.ErrMutatedMerkle, "block contains duplicate transactions "+
			"that leave the merkle root unchanged")
	}
	return nil
}

func (v *blockValidator) checkBlockSize(block *externalapi.DomainBlock, rules *chaincfg.RuleSet) error {
	if int64(len(block.Transactions))*constants.WitnessScaleFactor > rules.MaxBlockWeight {
		return errors.Wrapf(ruleerrors.ErrBlockTooBig, "block contains too many transactions - "+
			"got %d", len(block.Transactions))
	}

	strippedSize := serialization.BlockSerializeSize(block, false)
	if strippedSize > rules.MaxBlockBaseSize {
		return errors.Wrapf(ruleerrors.ErrBlockTooBig, "serialized block without witness data is "+
			"too big - got %d, max %d", strippedSize, rules.MaxBlockBaseSize)
	}

	size := serialization.BlockSerializeSize(block, true)
	if size > rules.MaxBlockSerializedSize {
		return errors.Wrapf(ruleerrors.ErrBlockTooBig, "serialized block is too big - got %d, "+
			"max %d", size, rules.MaxBlockSerializedSize)
	}
	return nil
}

func (v *blockValidator) checkFirstBlockTransactionIsCoinbase(block *externalapi.DomainBlock) error {
	if !block.Transactions[0].IsCoinBase() {
		return errors.Wrapf(ruleerrors.ErrFirstTxNotCoinbase, "first transaction in "+
			"block is not a coinbase")
	}
	return nil
}

func (v *blockValidator) checkBlockContainsOnlyOneCoinbase(block *externalapi.DomainBlock) error {
	for i, tx := range block.Transactions[1:] {
		if tx.IsCoinBase() {
			return errors.Wrapf(ruleerrors.ErrMultipleCoinbases, "block contains second coinbase at "+
				"index %d", i+1)
		}
	}
	return nil
}

func (v *blockValidator) checkTransactionsInIsolation(block *externalapi.DomainBlock, rules *chaincfg.RuleSet) error {
	for _, tx := range block.Transactions {
		err := v.transactionValidator.ValidateTransactionInIsolation(tx, rules)
		if err != nil {
			return ruleerrors.NewErrInvalidTransaction(consensushashing.TransactionID(tx), err)
		}
	}
	return nil
}

// checkLegacySigOps bounds the signature operations visible without the
// spent outputs. The full cost is checked when the block is connected.
func (v *blockValidator) checkLegacySigOps(block *externalapi.DomainBlock, rules *chaincfg.RuleSet) error {
	if rules.MaxBlockSigOpsCost == 0 {
		return nil
	}

	var sigOpsCost int64
	for _, tx := range block.Transactions {
		sigOpsCost += int64(LegacySigOpCount(tx)) * constants.WitnessScaleFactor
		if sigOpsCost > rules.MaxBlockSigOpsCost {
			return errors.Wrapf(ruleerrors.ErrTooManySigOps, "block contains too many signature "+
				"operations - got %d, max %d", sigOpsCost, rules.MaxBlockSigOpsCost)
		}
	}
	return nil
}

// LegacySigOpCount counts the signature operations in the scripts of tx
// itself, without looking into pay-to-script-hash redeem scripts.
func LegacySigOpCount(tx *externalapi.DomainTransaction) int {
	count := 0
	for _, input := range tx.Inputs {
		count += txscript.GetSigOpCount(input.SignatureScript)
	}
	for _, output := range tx.Outputs {
		count += txscript.GetSigOpCount(output.ScriptPublicKey)
	}
	return count
}
