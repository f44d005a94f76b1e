package amount

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCompressAmount(t *testing.T) {
	pairs := []struct {
		decompressed uint64
		compressed   uint64
	}{
		{0, 0x0},
		{1, 0x1},
		{KriaPerCent, 0x7},
		{KriaPerCoin, 0x9},
		{50 * KriaPerCoin, 0x32},
		{21_000_000 * KriaPerCoin, 0x1406f40},
	}
	for _, pair := range pairs {
		require.Equal(t, pair.compressed, CompressAmount(pair.decompressed), "compress %d", pair.decompressed)
		require.Equal(t, pair.decompressed, DecompressAmount(pair.compressed), "decompress %d", pair.compressed)
	}

	for i := uint64(1); i <= 100_000; i++ {
		require.Equal(t, i, DecompressAmount(CompressAmount(i)))
	}
	for i := uint64(1); i <= 10_000; i++ {
		require.Equal(t, i*KriaPerCent, DecompressAmount(CompressAmount(i*KriaPerCent)))
		require.Equal(t, i*KriaPerCoin, DecompressAmount(CompressAmount(i*KriaPerCoin)))
	}
	for i := uint64(1); i <= 420_000; i++ {
		require.Equal(t, i*50*KriaPerCoin, DecompressAmount(CompressAmount(i*50*KriaPerCoin)))
	}
	for i := uint64(0); i < 100_000; i++ {
		require.Equal(t, i, CompressAmount(DecompressAmount(i)))
	}
}

func TestCompressAmountFullRange(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	for i := 0; i < 100_000; i++ {
		value := uint64(r.Int63n(MaxMoney + 1))
		require.Equal(t, value, DecompressAmount(CompressAmount(value)))
	}
	require.Equal(t, uint64(MaxMoney), DecompressAmount(CompressAmount(MaxMoney)))
}

func TestCheckedArithmetic(t *testing.T) {
	sum, err := Add(MaxMoney-1, 1)
	require.NoError(t, err)
	require.Equal(t, int64(MaxMoney), sum)

	_, err = Add(MaxMoney, 1)
	require.ErrorIs(t, err, ErrOutOfRange)

	_, err = Add(-1, 1)
	require.ErrorIs(t, err, ErrOutOfRange)

	difference, err := Sub(10, 3)
	require.NoError(t, err)
	require.Equal(t, int64(7), difference)

	_, err = Sub(3, 10)
	require.ErrorIs(t, err, ErrOutOfRange)
}

func TestTimeAdjustValueForward(t *testing.T) {
	require.Equal(t, int64(KriaPerCoin), TimeAdjustValueForward(KriaPerCoin, 0))
	require.Equal(t, int64(0), TimeAdjustValueForward(0, 1000))

	// 1e8 * (1 - 2^-20) = 99999904.63...
	require.Equal(t, int64(99_999_904), TimeAdjustValueForward(KriaPerCoin, 1))
	require.Equal(t, int64(99_999_905), TimeAdjustValueForwardRounded(KriaPerCoin, 1))

	// (1 - 2^-20)^(2^20) is just below 1/e.
	require.InDelta(t, 36_787_926, TimeAdjustValueForward(KriaPerCoin, 1<<20), 3)

	// Everything decays to nothing eventually.
	require.Equal(t, int64(0), TimeAdjustValueForward(MaxMoney, 1<<31))
}

func TestTimeAdjustValueForwardMonotonic(t *testing.T) {
	r := rand.New(rand.NewSource(42))
	for i := 0; i < 10_000; i++ {
		value := r.Int63n(MaxMoney + 1)
		distance := uint32(r.Int63n(1 << 22))
		adjusted := TimeAdjustValueForward(value, distance)
		require.LessOrEqual(t, adjusted, value)
		require.GreaterOrEqual(t, adjusted, int64(0))
		require.LessOrEqual(t, TimeAdjustValueForward(value, distance+1), adjusted)

		rounded := TimeAdjustValueForwardRounded(value, distance)
		require.True(t, rounded == adjusted || rounded == adjusted+1,
			"rounded %d and truncated %d differ by more than one", rounded, adjusted)
	}
}
