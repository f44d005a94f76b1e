package constants

import "math"

const (
	// MaxBlockSerializedSize is the maximum size of a serialized block,
	// witness data included.
	MaxBlockSerializedSize = 4_000_000

	// MaxBlockWeight is the maximum block weight. Weight counts stripped
	// bytes WitnessScaleFactor times and witness bytes once.
	MaxBlockWeight = 4_000_000

	// MaxBlockBaseSize is the maximum size of a block serialized without
	// witness data.
	MaxBlockBaseSize = 1_000_000

	// MaxBlockSigOpsCost is the maximum signature operation cost of a
	// block.
	MaxBlockSigOpsCost = 80_000

	// WitnessScaleFactor is the weight of a stripped byte relative to a
	// witness byte.
	WitnessScaleFactor = 4

	// CoinbaseMaturity is the number of blocks that must pass before a
	// coinbase output may be spent.
	CoinbaseMaturity = 100

	// MinCoinbaseScriptLen and MaxCoinbaseScriptLen bound the length of
	// the coinbase signature script.
	MinCoinbaseScriptLen = 2
	MaxCoinbaseScriptLen = 100

	// LockTimeThreshold is the number below which a lock time is a block
	// height and at or above which it is a UNIX timestamp.
	LockTimeThreshold = 500_000_000

	// MaxTxInSequenceNum is the sequence number of a finalized input.
	MaxTxInSequenceNum uint32 = math.MaxUint32

	// SequenceLockTimeDisabled is a flag that if set on a transaction
	// input's sequence number, the sequence number will not be interpreted
	// as a relative locktime.
	SequenceLockTimeDisabled = 1 << 31

	// SequenceLockTimeIsSeconds is a flag that if set on a transaction
	// input's sequence number, the relative locktime has units of 512
	// seconds.
	SequenceLockTimeIsSeconds = 1 << 22

	// SequenceLockTimeMask is a mask that extracts the relative locktime
	// when masked against the transaction input sequence number.
	SequenceLockTimeMask = 0x0000ffff

	// SequenceLockTimeGranularity is the shift applied to a time based
	// relative lock, making its unit 512 seconds.
	SequenceLockTimeGranularity = 9

	// MedianTimeBlocks is the number of previous blocks whose timestamps
	// form the median time past.
	MedianTimeBlocks = 11

	// MaxTimeOffsetSeconds is how far in the future of the adjusted
	// network time a block timestamp may be.
	MaxTimeOffsetSeconds = 2 * 60 * 60

	// WitnessCommitmentHeaderLength is the length of
	// WitnessCommitmentHeader.
	WitnessCommitmentHeaderLength = 6

	// MinimumWitnessCommitmentLength is the size of a witness commitment
	// output script without extra data.
	MinimumWitnessCommitmentLength = 38
)

// WitnessCommitmentHeader prefixes the witness commitment output script of
// a coinbase: OP_RETURN, a 36-byte push and a 4-byte tag.
var WitnessCommitmentHeader = [WitnessCommitmentHeaderLength]byte{0x6a, 0x24, 0xaa, 0x21, 0xa9, 0xed}
