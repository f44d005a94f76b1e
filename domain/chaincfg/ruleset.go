package chaincfg

import (
	"github.com/freicoin/freicoind/domain/consensus/model/externalapi"
	"github.com/freicoin/freicoind/domain/consensus/utils/constants"
)

// protocolCleanupNetworkTimeMargin is how long before the activation time
// non-consensus code starts treating protocol cleanup as active.
const protocolCleanupNetworkTimeMargin = 2 * 60 * 60

// RuleSet holds the values of the rules protocol cleanup relaxes. Validation
// code looks them up with Params.Rules instead of reading constants, so that
// a network can switch rule sets at its activation point.
type RuleSet struct {
	ProtocolCleanup bool

	MaxBlockSerializedSize int
	MaxBlockBaseSize       int
	MaxBlockWeight         int64

	// MaxTransactionSize bounds a single stripped transaction.
	MaxTransactionSize int

	// MaxBlockSigOpsCost is zero when signature operations are not
	// counted.
	MaxBlockSigOpsCost int64

	CoinbaseMaturity int32

	AllowEmptyOutputs bool

	// RestrictCoinbaseScript bounds the coinbase signature script length
	// and, from BIP34, requires it to start with the block height.
	RestrictCoinbaseScript bool

	// ZeroValueRefHeightExempt lets zero-valued coins be spent by
	// transactions with a lock height below the coin's reference height.
	ZeroValueRefHeightExempt bool

	// RejectOldBlockVersions rejects version 1 and 2 blocks after BIP34
	// and BIP66.
	RejectOldBlockVersions bool
}

var legacyRules = RuleSet{
	ProtocolCleanup:          false,
	MaxBlockSerializedSize:   constants.MaxBlockSerializedSize,
	MaxBlockBaseSize:         constants.MaxBlockBaseSize,
	MaxBlockWeight:           constants.MaxBlockWeight,
	MaxTransactionSize:       constants.MaxBlockBaseSize,
	MaxBlockSigOpsCost:       constants.MaxBlockSigOpsCost,
	CoinbaseMaturity:         constants.CoinbaseMaturity,
	AllowEmptyOutputs:        false,
	RestrictCoinbaseScript:   true,
	ZeroValueRefHeightExempt: false,
	RejectOldBlockVersions:   true,
}

func protocolCleanupRules(limits ProtocolCleanupLimits) RuleSet {
	return RuleSet{
		ProtocolCleanup:          true,
		MaxBlockSerializedSize:   limits.MaxBlockSerializedSize,
		MaxBlockBaseSize:         limits.MaxBlockBaseSize,
		MaxBlockWeight:           limits.MaxBlockWeight,
		MaxTransactionSize:       limits.MaxBlockBaseSize,
		MaxBlockSigOpsCost:       0,
		CoinbaseMaturity:         1,
		AllowEmptyOutputs:        true,
		RestrictCoinbaseScript:   false,
		ZeroValueRefHeightExempt: true,
		RejectOldBlockVersions:   false,
	}
}

// Rules returns the rule set that applies when protocol cleanup is, or is
// not, active.
func (p *Params) Rules(protocolCleanup bool) *RuleSet {
	if !protocolCleanup {
		rules := legacyRules
		return &rules
	}
	rules := protocolCleanupRules(p.ProtocolCleanup)
	return &rules
}

// IsProtocolCleanupActiveForBlock tells whether block claims the protocol
// cleanup rules. Miners put the median time past of the parent in the lock
// time of the coinbase, which makes the check possible without chain
// context.
func (p *Params) IsProtocolCleanupActiveForBlock(block *externalapi.DomainBlock) bool {
	var lockTime uint32
	if len(block.Transactions) > 0 {
		lockTime = block.Transactions[0].LockTime
	}
	return int64(lockTime) >= p.ProtocolCleanupActivationTime
}

// IsProtocolCleanupActiveAtMedianTime tells whether the successor of a block
// with the given median time past follows the protocol cleanup rules.
func (p *Params) IsProtocolCleanupActiveAtMedianTime(medianTimePast int64) bool {
	return medianTimePast >= p.ProtocolCleanupActivationTime
}

// IsProtocolCleanupActiveAtNetworkTime is the check for code without access
// to the chain. It turns true two hours ahead of the activation time.
func (p *Params) IsProtocolCleanupActiveAtNetworkTime(now int64) bool {
	return now > p.ProtocolCleanupActivationTime-protocolCleanupNetworkTimeMargin
}
