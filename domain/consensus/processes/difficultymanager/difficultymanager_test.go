package difficultymanager

import (
	"math"
	"math/big"
	"testing"

	"github.com/freicoin/freicoind/domain/chaincfg"
	"github.com/freicoin/freicoind/domain/consensus/datastructures/blockindex"
	"github.com/freicoin/freicoind/domain/consensus/model/externalapi"
	"github.com/freicoin/freicoind/domain/consensus/utils/pow"
)

const (
	startTime = 1356123600
	testBits  = 0x1c0fffff
)

// buildChain adds count headers spaced spacing seconds apart. bitsAt picks
// the bits of each height.
func buildChain(t *testing.T, count int, spacing int64, bitsAt func(height int) uint32) *blockindex.Node {
	index := blockindex.New()
	var prev *blockindex.Node
	for i := 0; i < count; i++ {
		header := &externalapi.DomainBlockHeader{
			Version:   1,
			Timestamp: uint32(startTime + int64(i)*spacing),
			Bits:      bitsAt(i),
		}
		if prev != nil {
			header.PrevBlockHash = prev.Hash
		}
		node, err := index.AddHeader(header)
		if err != nil {
			t.Fatalf("buildChain: %s", err)
		}
		prev = node
	}
	return prev
}

func constantBits(bits uint32) func(int) uint32 {
	return func(int) uint32 { return bits }
}

func scaled(bits uint32, numerator, denominator int64) uint32 {
	target := pow.CompactToBig(bits)
	target.Mul(target, big.NewInt(numerator))
	target.Div(target, big.NewInt(denominator))
	return pow.BigToCompact(target)
}

func originalParams() *chaincfg.Params {
	params := chaincfg.MainnetParams
	params.OriginalAdjustInterval = 8
	params.DiffAdjustThreshold = math.MaxInt32
	return &params
}

func TestGenesisAndNoRetargeting(t *testing.T) {
	params := chaincfg.RegressionNetParams
	dm := New(&params)
	if bits := dm.RequiredDifficulty(nil, startTime); bits != params.PowLimitBits {
		t.Fatalf("TestGenesisAndNoRetargeting: genesis bits %08x", bits)
	}

	prevNode := buildChain(t, 2016, 1, constantBits(testBits))
	if bits := dm.RequiredDifficulty(prevNode, prevNode.Timestamp()+1); bits != testBits {
		t.Fatalf("TestGenesisAndNoRetargeting: expected the parent bits, got %08x", bits)
	}
}

func TestOriginalRetarget(t *testing.T) {
	params := originalParams()
	dm := New(params)
	targetTimespan := int64(params.OriginalTargetTimespan().Seconds())

	tests := []struct {
		name           string
		spacing        int64
		actualTimespan int64
	}{
		{name: "on schedule", spacing: 600, actualTimespan: 7 * 600},
		{name: "fast but in range", spacing: 200, actualTimespan: 7 * 200},
		{name: "too fast", spacing: 10, actualTimespan: targetTimespan / 4},
		{name: "slow but in range", spacing: 2000, actualTimespan: 7 * 2000},
		{name: "too slow", spacing: 6000, actualTimespan: targetTimespan * 4},
	}
	for _, test := range tests {
		prevNode := buildChain(t, 8, test.spacing, constantBits(testBits))
		expected := scaled(testBits, test.actualTimespan, targetTimespan)
		bits := dm.RequiredDifficulty(prevNode, prevNode.Timestamp()+test.spacing)
		if bits != expected {
			t.Errorf("TestOriginalRetarget: %s: expected bits %08x, got %08x", test.name, expected, bits)
		}
	}

	// Between retargets the difficulty is kept.
	prevNode := buildChain(t, 5, 10, constantBits(testBits))
	if bits := dm.RequiredDifficulty(prevNode, prevNode.Timestamp()+10); bits != testBits {
		t.Fatalf("TestOriginalRetarget: expected unchanged bits, got %08x", bits)
	}
}

func TestOriginalRetargetCappedAtPowLimit(t *testing.T) {
	params := originalParams()
	dm := New(params)
	prevNode := buildChain(t, 8, 6000, constantBits(params.PowLimitBits))
	if bits := dm.RequiredDifficulty(prevNode, prevNode.Timestamp()); bits != params.PowLimitBits {
		t.Fatalf("TestOriginalRetargetCappedAtPowLimit: expected the pow limit, got %08x", bits)
	}
}

func TestFilteredRetarget(t *testing.T) {
	params := chaincfg.MainnetParams
	params.DiffAdjustThreshold = 180
	dm := New(&params)

	tests := []struct {
		name     string
		spacing  int64
		count    int
		expected uint32
	}{
		{name: "on schedule", spacing: 600, count: 180, expected: scaled(testBits, 24000, 24000)},
		{name: "no spacing", spacing: 0, count: 180, expected: scaled(testBits, 24000, 24600)},
		{name: "slow blocks hit the bound", spacing: 3000, count: 180,
			expected: scaled(testBits, maxFilterAdjustNum, maxFilterAdjustDen)},
		{name: "not a retarget height", spacing: 3000, count: 181, expected: testBits},
	}
	for _, test := range tests {
		prevNode := buildChain(t, test.count, test.spacing, constantBits(testBits))
		bits := dm.RequiredDifficulty(prevNode, prevNode.Timestamp()+test.spacing)
		if bits != test.expected {
			t.Errorf("TestFilteredRetarget: %s: expected bits %08x, got %08x", test.name, test.expected, bits)
		}
	}
}

func TestMinDifficultyBlocks(t *testing.T) {
	params := chaincfg.TestnetParams
	dm := New(&params)

	// Every block past the first two used the minimum difficulty.
	prevNode := buildChain(t, 10, 600, func(height int) uint32 {
		if height < 2 {
			return testBits
		}
		return params.PowLimitBits
	})

	if bits := dm.RequiredDifficulty(prevNode, prevNode.Timestamp()+1201); bits != params.PowLimitBits {
		t.Fatalf("TestMinDifficultyBlocks: late block expected the pow limit, got %08x", bits)
	}
	if bits := dm.RequiredDifficulty(prevNode, prevNode.Timestamp()+1200); bits != testBits {
		t.Fatalf("TestMinDifficultyBlocks: expected the last real difficulty, got %08x", bits)
	}
}
