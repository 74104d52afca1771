package nft

import (
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"
)

const (
	// FeeDenominator is the basis point base, 10000 = 100%.
	FeeDenominator = 10000

	// MaxRoyaltyFraction caps every stored royalty at 10%.
	MaxRoyaltyFraction Fraction = 1000
)

var feeDenominator = big.NewInt(FeeDenominator)

// Fraction is a royalty share in basis points, 250 means 2.5%.
type Fraction uint64

func (f Fraction) Validate() error {
	if f > MaxRoyaltyFraction {
		return fmt.Errorf("%w: %d > %d", ErrRoyaltyTooHigh, f, MaxRoyaltyFraction)
	}
	return nil
}

// Apply returns price * f / 10000 truncated, zero for a nil or negative price.
func (f Fraction) Apply(price *big.Int) *big.Int {
	if price == nil || price.Sign() <= 0 || f == 0 {
		return new(big.Int)
	}
	amount := new(big.Int).Mul(price, new(big.Int).SetUint64(uint64(f)))
	return amount.Quo(amount, feeDenominator)
}

func (f Fraction) Percent() decimal.Decimal {
	return decimal.New(int64(f), -2)
}

func (f Fraction) String() string {
	return f.Percent().String() + "%"
}

// ParseFraction converts a percent string as typed in the mint form,
// e.g. "2.5", into basis points. At most two decimal places are accepted.
func ParseFraction(percent string) (Fraction, error) {
	d, err := decimal.NewFromString(percent)
	if err != nil {
		return 0, fmt.Errorf("invalid royalty percent %q", percent)
	}
	if d.Sign() < 0 {
		return 0, fmt.Errorf("negative royalty percent %s", percent)
	}
	bps := d.Shift(2)
	if !bps.Equal(bps.Truncate(0)) {
		return 0, fmt.Errorf("royalty percent %s has more than two decimals", percent)
	}
	if bps.GreaterThan(decimal.NewFromInt(FeeDenominator)) {
		return 0, fmt.Errorf("%w: %s%%", ErrRoyaltyTooHigh, percent)
	}
	f := Fraction(bps.IntPart())
	return f, f.Validate()
}
