package amount

import "github.com/pkg/errors"

const (
	// KriaPerCoin is the number of base units in one coin.
	KriaPerCoin = 100_000_000

	// KriaPerCent is the number of base units in one hundredth of a coin.
	KriaPerCent = 1_000_000

	// MaxMoney bounds every amount and every sum of amounts. It is the
	// largest integer a double-precision float represents exactly.
	MaxMoney = 1<<53 - 1
)

// ErrOutOfRange is returned by checked arithmetic leaving [0, MaxMoney].
var ErrOutOfRange = errors.New("amount out of range")

// MoneyRange returns whether value is within [0, MaxMoney].
func MoneyRange(value int64) bool {
	return value >= 0 && value <= MaxMoney
}

// Add returns a+b, or ErrOutOfRange if either operand or the sum is outside
// [0, MaxMoney].
func Add(a, b int64) (int64, error) {
	if !MoneyRange(a) || !MoneyRange(b) {
		return 0, errors.Wrapf(ErrOutOfRange, "adding %d and %d", a, b)
	}
	sum := a + b
	if !MoneyRange(sum) {
		return 0, errors.Wrapf(ErrOutOfRange, "sum of %d and %d", a, b)
	}
	return sum, nil
}

// Sub returns a-b, or ErrOutOfRange if either operand or the difference is
// outside [0, MaxMoney].
func Sub(a, b int64) (int64, error) {
	if !MoneyRange(a) || !MoneyRange(b) || b > a {
		return 0, errors.Wrapf(ErrOutOfRange, "subtracting %d from %d", b, a)
	}
	return a - b, nil
}
