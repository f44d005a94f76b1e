package blockvalidator

import (
	"github.com/freicoin/freicoind/domain/chaincfg"
	"github.com/freicoin/freicoind/domain/consensus/datastructures/blockindex"
	"github.com/freicoin/freicoind/domain/consensus/model"
	"github.com/freicoin/freicoind/domain/consensus/utils/versionbits"
)

// blockValidator exposes a set of validation classes, after which
// it's possible to determine whether either a block is valid
type blockValidator struct {
	params             *chaincfg.Params
	checkpointsEnabled bool

	blockIndex            *blockindex.BlockIndex
	versionBitsCache      *versionbits.Cache
	difficultyManager     model.DifficultyManager
	pastMedianTimeManager model.PastMedianTimeManager
	transactionValidator  model.TransactionValidator
	coinbaseManager       model.CoinbaseManager
}

// New instantiates a new BlockValidator
func New(params *chaincfg.Params,
	checkpointsEnabled bool,

	blockIndex *blockindex.BlockIndex,
	versionBitsCache *versionbits.Cache,

	difficultyManager model.DifficultyManager,
	pastMedianTimeManager model.PastMedianTimeManager,
	transactionValidator model.TransactionValidator,
	coinbaseManager model.CoinbaseManager,
) model.BlockValidator {

	return &blockValidator{
		params:             params,
		checkpointsEnabled: checkpointsEnabled,

		blockIndex:            blockIndex,
		versionBitsCache:      versionBitsCache,
		difficultyManager:     difficultyManager,
		pastMedianTimeManager: pastMedianTimeManager,
		transactionValidator:  transactionValidator,
		coinbaseManager:       coinbaseManager,
	}
}

// rulesAfter returns the rule set of a block built on top of prevNode.
func (v *blockValidator) rulesAfter(prevNode *blockindex.Node) *chaincfg.RuleSet {
	if prevNode == nil {
		return v.params.Rules(false)
	}
	return v.params.Rules(v.params.IsProtocolCleanupActiveAtMedianTime(prevNode.MedianTimePast()))
}
