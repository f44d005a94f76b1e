// Copyright (c) 2014-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package chaincfg

import (
	"math"
	"math/big"
	"time"

	"github.com/freicoin/freicoind/domain/consensus/model/externalapi"
	"github.com/pkg/errors"
)

// These variables are the chain proof-of-work limit parameters for each
// default network.
var (
	// bigOne is 1 represented as a big.Int. It is defined here to avoid
	// the overhead of creating it multiple times.
	bigOne = big.NewInt(1)

	// mainPowLimit is the highest proof of work value a Freicoin block can
	// have for the main and test networks. It is the value 2^224 - 1.
	mainPowLimit = new(big.Int).Sub(new(big.Int).Lsh(bigOne, 224), bigOne)

	// regressionPowLimit is the highest proof of work value a Freicoin
	// block can have for the regression test network. It is the value
	// 2^255 - 1.
	regressionPowLimit = new(big.Int).Sub(new(big.Int).Lsh(bigOne, 255), bigOne)
)

const (
	targetSpacing          = 10 * time.Minute
	originalAdjustInterval = 2016
	filteredAdjustInterval = 9

	// farFuture is the protocol cleanup activation time of every default
	// network: 2100-01-01 UTC. It still fits the 32-bit lock time of a
	// coinbase.
	farFuture = 4102444800
)

// Checkpoint identifies a known good point in the block chain. Using
// checkpoints allows a few optimizations for old blocks during initial
// download and also prevents forks from old blocks.
type Checkpoint struct {
	Height int32
	Hash   *externalapi.DomainHash
}

// ProtocolCleanupLimits are the aggregate limits that replace the legacy
// ones once protocol cleanup is active.
type ProtocolCleanupLimits struct {
	MaxBlockSerializedSize int
	MaxBlockBaseSize       int
	MaxBlockWeight         int64
}

// Params defines a Freicoin network by its parameters. These parameters may
// be used by Freicoin applications to differentiate networks.
type Params struct {
	// Name defines a human-readable identifier for the network.
	Name string

	// Net defines the magic bytes used to identify the network. Block
	// files frame every block with them.
	Net [4]byte

	// DefaultPort defines the default peer-to-peer port for the network.
	DefaultPort string

	// GenesisBlock defines the first block of the chain.
	GenesisBlock *externalapi.DomainBlock

	// GenesisHash is the starting block hash.
	GenesisHash *externalapi.DomainHash

	// PowLimit defines the highest allowed proof of work value for a block
	// as a uint256.
	PowLimit *big.Int

	// PowLimitBits defines the highest allowed proof of work value for a
	// block in compact form.
	PowLimitBits uint32

	// TargetSpacing is the desired amount of time to generate each block.
	TargetSpacing time.Duration

	// AllowMinDifficultyBlocks lets a block that arrives more than twice
	// the target spacing after its parent be mined at PowLimit.
	AllowMinDifficultyBlocks bool

	// NoRetargeting keeps the difficulty of the parent forever.
	NoRetargeting bool

	// OriginalAdjustInterval and FilteredAdjustInterval are the retarget
	// cadences, in blocks, of the original and the filtered difficulty
	// policies. The filtered policy governs every block at or above
	// DiffAdjustThreshold.
	OriginalAdjustInterval int32
	FilteredAdjustInterval int32
	DiffAdjustThreshold    int32

	// SubsidyHalvingInterval, when non-zero, replaces the perpetual
	// subsidy schedule with halvings every that many blocks.
	SubsidyHalvingInterval int32

	// PerpetualSubsidy is paid to every block forever. Until
	// EquilibriumHeight an initial excess, declining linearly from
	// InitialExcessSubsidy to zero, is paid on top of it.
	PerpetualSubsidy        int64
	EquilibriumHeight       int32
	EquilibriumMonetaryBase int64
	InitialExcessSubsidy    int64

	// TruncateInputsActivationHeight is the height from which demurrage
	// truncates instead of rounding to nearest.
	TruncateInputsActivationHeight int32

	// BIP34Height and BIP34Hash identify the block at which coinbases
	// start committing to their height. BIP66Height is the activation of
	// strict DER signatures.
	BIP34Height int32
	BIP34Hash   *externalapi.DomainHash
	BIP66Height int32

	// Checkpoints ordered from oldest to newest.
	Checkpoints []Checkpoint

	// MinimumChainWork is the least cumulative work a chain needs before
	// the node considers itself synchronised.
	MinimumChainWork *big.Int

	// DefaultAssumeValid is the block whose ancestors' scripts are not
	// verified unless overridden. Nil disables the optimisation.
	DefaultAssumeValid *externalapi.DomainHash

	// ProtocolCleanupActivationTime is the median time past from which
	// the protocol cleanup rule set applies.
	ProtocolCleanupActivationTime int64
	ProtocolCleanup               ProtocolCleanupLimits

	// These fields are related to voting on consensus rule changes as
	// defined by BIP0009.
	//
	// RuleChangeActivationThreshold is the number of blocks in a threshold
	// state retarget window for which a positive vote for a rule change
	// must be cast in order to lock in a rule change. It should typically
	// be 95% for the main network and 75% for test networks.
	//
	// MinerConfirmationWindow is the number of blocks in each threshold
	// state retarget window.
	//
	// Deployments define the specific consensus rule changes to be voted
	// on.
	RuleChangeActivationThreshold uint32
	MinerConfirmationWindow       uint32
	Deployments                   [DefinedDeployments]ConsensusDeployment

	// deploymentsOverridable marks the networks whose deployment windows
	// may be changed with UpdateBIP9Parameters.
	deploymentsOverridable bool
}

// OriginalTargetTimespan is the expected duration of an original-policy
// retarget interval.
func (p *Params) OriginalTargetTimespan() time.Duration {
	return time.Duration(p.OriginalAdjustInterval) * p.TargetSpacing
}

// LastCheckpoint returns the newest checkpoint, or nil if there is none.
func (p *Params) LastCheckpoint() *Checkpoint {
	if len(p.Checkpoints) == 0 {
		return nil
	}
	return &p.Checkpoints[len(p.Checkpoints)-1]
}

// CheckpointAtHeight returns the checkpointed hash at height, if any.
func (p *Params) CheckpointAtHeight(height int32) (*externalapi.DomainHash, bool) {
	for _, checkpoint := range p.Checkpoints {
		if checkpoint.Height == height {
			return checkpoint.Hash, true
		}
		if checkpoint.Height > height {
			break
		}
	}
	return nil, false
}

// MainnetParams defines the network parameters for the main Freicoin network.
var MainnetParams = Params{
	Name:        "main",
	Net:         [4]byte{0xf9, 0xbe, 0xb4, 0xd9},
	DefaultPort: "8639",

	// Chain parameters
	GenesisBlock:             mainGenesisBlock,
	GenesisHash:              newHashFromStr("000000005b1e3d23ecfd2dd4a6e1a35238aa0392c0a8528c40df52376d7efe2c"),
	PowLimit:                 mainPowLimit,
	PowLimitBits:             0x1d00ffff,
	TargetSpacing:            targetSpacing,
	AllowMinDifficultyBlocks: false,
	NoRetargeting:            false,
	OriginalAdjustInterval:   originalAdjustInterval,
	FilteredAdjustInterval:   filteredAdjustInterval,
	DiffAdjustThreshold:      28336,

	// Subsidy parameters
	SubsidyHalvingInterval:  0,
	PerpetualSubsidy:        9536743164,        // 95.367,431,64fc
	EquilibriumHeight:       161280,            // three years
	EquilibriumMonetaryBase: 10000000000000000, // 100,000,000.0000,0000fc
	InitialExcessSubsidy:    15916928404,       // 1519.1692,8404fc

	TruncateInputsActivationHeight: 158425,
	BIP34Height:                    227931,
	BIP34Hash:                      newHashFromStr("000000000000024b89b42a942fe0d9fea3bb44ab7bd1b19115dd6a759c0808b8"),
	BIP66Height:                    158425,

	Checkpoints:        mainCheckpoints,
	MinimumChainWork:   newWorkFromStr("262149e6218a5b60cef"),
	DefaultAssumeValid: newHashFromStr("000000000000114100284febd7d76aadf7522062dabf611c73f4f9b44db72c35"), // 302400

	ProtocolCleanupActivationTime: farFuture,
	ProtocolCleanup:               cleanupLimits,

	// Consensus rule change deployments.
	//
	// The miner confirmation window is defined as:
	//   original target timespan / target spacing
	RuleChangeActivationThreshold: 1916, // 95% of MinerConfirmationWindow
	MinerConfirmationWindow:       2016,
	Deployments: [DefinedDeployments]ConsensusDeployment{
		DeploymentTestDummy: {
			BitNumber: 28,
			StartTime: 1199145601, // January 1, 2008 UTC
			Timeout:   1230767999, // December 31, 2008 UTC
		},
		DeploymentLockTime: {
			BitNumber: 0,
			StartTime: 1462060800, // May 1st, 2016
			Timeout:   1493596800, // May 1st, 2017
		},
		DeploymentSegwit: {
			BitNumber: 1,
			StartTime: 1479168000, // November 15th, 2016
			Timeout:   1510704000, // November 15th, 2017
		},
		DeploymentFinalTx: {
			BitNumber: 12,
			StartTime: 1599004800, // September 2, 2020
			Timeout:   1719878400, // July 2, 2024
		},
	},
}

// TestnetParams defines the network parameters for the test Freicoin network.
var TestnetParams = Params{
	Name:        "test",
	Net:         [4]byte{0x0b, 0x11, 0x09, 0x07},
	DefaultPort: "18639",

	// Chain parameters
	GenesisBlock:             testGenesisBlock,
	GenesisHash:              newHashFromStr("00000000a52504ffe3420a43bd385ef24f81838921a903460b235d95f37cd65e"),
	PowLimit:                 mainPowLimit,
	PowLimitBits:             0x1d00ffff,
	TargetSpacing:            targetSpacing,
	AllowMinDifficultyBlocks: true,
	NoRetargeting:            false,
	OriginalAdjustInterval:   originalAdjustInterval,
	FilteredAdjustInterval:   filteredAdjustInterval,
	DiffAdjustThreshold:      2016,

	// Subsidy parameters
	SubsidyHalvingInterval:  0,
	PerpetualSubsidy:        9536743164,
	EquilibriumHeight:       161280,
	EquilibriumMonetaryBase: 10000000000000000,
	InitialExcessSubsidy:    15916928404,

	TruncateInputsActivationHeight: 1,
	BIP34Height:                    21111,
	BIP34Hash:                      newHashFromStr("0000000023b3a96d3484e5abb3755c413e7d41500f8e2a5c3f0dd01299cd8ef8"),
	BIP66Height:                    1,

	Checkpoints: []Checkpoint{
		{2016, newHashFromStr("0000000000001e891fcab0d810f81795497da3ac799ef8c179ec8e839ccc001b")},
	},
	MinimumChainWork:   newWorkFromStr("100010001"),
	DefaultAssumeValid: newHashFromStr("00000000a52504ffe3420a43bd385ef24f81838921a903460b235d95f37cd65e"),

	ProtocolCleanupActivationTime: farFuture,
	ProtocolCleanup:               cleanupLimits,

	RuleChangeActivationThreshold: 1512, // 75% of MinerConfirmationWindow
	MinerConfirmationWindow:       2016,
	Deployments: [DefinedDeployments]ConsensusDeployment{
		DeploymentTestDummy: {
			BitNumber: 28,
			StartTime: 1199145601, // January 1, 2008 UTC
			Timeout:   1230767999, // December 31, 2008 UTC
		},
		DeploymentLockTime: {
			BitNumber: 0,
			StartTime: 1456790400, // March 1st, 2016
			Timeout:   1493596800, // May 1st, 2017
		},
		DeploymentSegwit: {
			BitNumber: 1,
			StartTime: 1462060800, // May 1st, 2016
			Timeout:   1493596800, // May 1st, 2017
		},
		DeploymentFinalTx: {
			BitNumber: 12,
			StartTime: 1599004800, // September 2, 2020
			Timeout:   1719878400, // July 2, 2024
		},
	},
}

// RegressionNetParams defines the network parameters for the regression test
// Freicoin network. Not to be confused with the test Freicoin network, this
// network is mined on demand by tests at the minimum difficulty.
var RegressionNetParams = Params{
	Name:        "regtest",
	Net:         [4]byte{0xfa, 0xbf, 0xb5, 0xda},
	DefaultPort: "28639",

	// Chain parameters
	GenesisBlock:             regressionGenesisBlock,
	GenesisHash:              newHashFromStr("67756db06265141574ff8e7c3f97ebd57c443791e0ca27ee8b03758d6056edb8"),
	PowLimit:                 regressionPowLimit,
	PowLimitBits:             0x207fffff,
	TargetSpacing:            targetSpacing,
	AllowMinDifficultyBlocks: true,
	NoRetargeting:            true,
	OriginalAdjustInterval:   originalAdjustInterval,
	FilteredAdjustInterval:   filteredAdjustInterval,
	DiffAdjustThreshold:      math.MaxInt32,

	// Subsidy parameters
	SubsidyHalvingInterval:  150,
	PerpetualSubsidy:        5000000000, // 50.000,000,00fc
	EquilibriumHeight:       1,
	EquilibriumMonetaryBase: 0,
	InitialExcessSubsidy:    0,

	TruncateInputsActivationHeight: 1,
	// BIP34 has not activated on regtest (far in the future so block v1
	// are not rejected in tests)
	BIP34Height: 100000000,
	BIP34Hash:   &externalapi.DomainHash{},
	BIP66Height: 1251,

	Checkpoints: []Checkpoint{
		{0, newHashFromStr("67756db06265141574ff8e7c3f97ebd57c443791e0ca27ee8b03758d6056edb8")},
	},
	MinimumChainWork:   big.NewInt(0),
	DefaultAssumeValid: nil,

	ProtocolCleanupActivationTime: farFuture,
	ProtocolCleanup:               cleanupLimits,

	RuleChangeActivationThreshold: 108, // 75% of MinerConfirmationWindow
	MinerConfirmationWindow:       144,
	Deployments: [DefinedDeployments]ConsensusDeployment{
		DeploymentTestDummy: {BitNumber: 28, StartTime: 0, Timeout: 999999999999},
		DeploymentLockTime:  {BitNumber: 0, StartTime: 0, Timeout: 999999999999},
		DeploymentSegwit:    {BitNumber: 1, StartTime: 0, Timeout: 999999999999},
		DeploymentFinalTx:   {BitNumber: 12, StartTime: 0, Timeout: 999999999999},
	},
	deploymentsOverridable: true,
}

// cleanupLimits are the largest blocks the encoding and storage layers can
// carry: 32 MiB serialized.
var cleanupLimits = ProtocolCleanupLimits{
	MaxBlockSerializedSize: 32 << 20,
	MaxBlockBaseSize:       32 << 20,
	MaxBlockWeight:         4 * (32 << 20),
}

var (
	// ErrDuplicateNet describes an error where the parameters for a
	// Freicoin network could not be set due to the network already being
	// a standard network or previously-registered into this package.
	ErrDuplicateNet = errors.New("duplicate Freicoin network")

	// ErrUnknownNet describes a lookup of a network that was never
	// registered.
	ErrUnknownNet = errors.New("unknown Freicoin network")
)

var (
	registeredNets = make(map[[4]byte]*Params)
	netsByName     = make(map[string]*Params)
)

// Register registers the network parameters for a Freicoin network. This may
// error with ErrDuplicateNet if the network is already registered (either
// due to a previous Register call, or the network being one of the default
// networks).
//
// Network parameters should be registered into this package by a main package
// as early as possible. Then, library packages may lookup networks or network
// parameters based on inputs and work regardless of the network being standard
// or not.
func Register(params *Params) error {
	if _, ok := registeredNets[params.Net]; ok {
		return ErrDuplicateNet
	}
	if _, ok := netsByName[params.Name]; ok {
		return ErrDuplicateNet
	}
	registeredNets[params.Net] = params
	netsByName[params.Name] = params

	return nil
}

// ParamsForName returns the registered network called name.
func ParamsForName(name string) (*Params, error) {
	params, ok := netsByName[name]
	if !ok {
		return nil, errors.Wrapf(ErrUnknownNet, "network %q", name)
	}
	return params, nil
}

// mustRegister performs the same function as Register except it panics if there
// is an error. This should only be called from package init functions.
func mustRegister(params *Params) {
	if err := Register(params); err != nil {
		panic("failed to register network: " + err.Error())
	}
}

// newHashFromStr converts the passed big-endian hex string into a
// DomainHash. It only differs from the one available in externalapi in that
// it panics on an error since it will only (and must only) be called with
// hard-coded, and therefore known good, hashes.
func newHashFromStr(hexStr string) *externalapi.DomainHash {
	hash, err := externalapi.NewDomainHashFromString(hexStr)
	if err != nil {
		panic(err)
	}
	return hash
}

// newWorkFromStr parses a hard-coded hexadecimal chain work value.
func newWorkFromStr(hexStr string) *big.Int {
	work, ok := new(big.Int).SetString(hexStr, 16)
	if !ok {
		panic("invalid chain work " + hexStr)
	}
	return work
}

func init() {
	// Register all default networks when the package is initialized.
	mustRegister(&MainnetParams)
	mustRegister(&TestnetParams)
	mustRegister(&RegressionNetParams)
}
