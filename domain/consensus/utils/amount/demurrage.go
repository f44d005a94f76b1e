package amount

import "math/bits"

// Demurrage shrinks every value by a factor of (1 - 2^-20) per block. The
// factor for a distance d is computed as the product of precomputed
// factors for the set bits of d. Every factor is a 64-bit binary fraction
// and every product step truncates, so the result is a pure function of
// the integers involved.

const (
	demurrageFractionBits = 10
	demurrageRoundingBias = 1 << (demurrageFractionBits - 1)
)

// demurrageFactors[i] is (1 - 2^-20)^(2^i) scaled by 2^64.
var demurrageFactors = computeDemurrageFactors()

func computeDemurrageFactors() [32]uint64 {
	var factors [32]uint64
	factors[0] = ^uint64(0) - (1<<44 - 1) // 2^64 - 2^44
	for i := 1; i < len(factors); i++ {
		factors[i], _ = bits.Mul64(factors[i-1], factors[i-1])
	}
	return factors
}

// TimeAdjustValueForward returns value decayed over distance blocks, with
// the result truncated.
func TimeAdjustValueForward(value int64, distance uint32) int64 {
	return timeAdjustValueForward(value, distance, false)
}

// TimeAdjustValueForwardRounded is TimeAdjustValueForward with the result
// rounded to the nearest unit. It reproduces values computed before the
// truncation rule activated.
func TimeAdjustValueForwardRounded(value int64, distance uint32) int64 {
	return timeAdjustValueForward(value, distance, true)
}

func timeAdjustValueForward(value int64, distance uint32, round bool) int64 {
	if value <= 0 || distance == 0 {
		return value
	}
	x := uint64(value) << demurrageFractionBits
	for i := 0; distance != 0; i++ {
		if distance&1 != 0 {
			x, _ = bits.Mul64(x, demurrageFactors[i])
		}
		distance >>= 1
	}
	if round {
		x += demurrageRoundingBias
	}
	return int64(x >> demurrageFractionBits)
}
