// README: Common money value objects used across modules (amounts held in integer cents).
package types

import (
	"errors"
	"math"
	"strconv"
)

// ErrOverflow is returned by the checked operations when a result does not fit in int64 cents.
var ErrOverflow = errors.New("amount overflows int64 cents")

// Currency used for every price in the catalog.
const Currency = "EUR"

// Cents is a monetary amount in minor units.
type Cents int64

// FromFloat converts a decimal amount (e.g. 28.8) to cents, rounding half away from zero.
func FromFloat(v float64) Cents {
	return Cents(math.Round(v * 100))
}

// MulFloat multiplies c by f and rounds the result to the nearest cent.
func (c Cents) MulFloat(f float64) Cents {
	return Cents(math.Round(float64(c) * f))
}

// Mul multiplies c by an integer count, failing instead of wrapping around.
func (c Cents) Mul(n int64) (Cents, error) {
	if c == 0 || n == 0 {
		return 0, nil
	}
	p := int64(c) * n
	if p/n != int64(c) || (int64(c) == -1 && n == math.MinInt64) || (n == -1 && int64(c) == math.MinInt64) {
		return 0, ErrOverflow
	}
	return Cents(p), nil
}

// Sum adds amounts, failing instead of wrapping around.
func Sum(amounts ...Cents) (Cents, error) {
	var total int64
	for _, a := range amounts {
		v := int64(a)
		if (v > 0 && total > math.MaxInt64-v) || (v < 0 && total < math.MinInt64-v) {
			return 0, ErrOverflow
		}
		total += v
	}
	return Cents(total), nil
}

// CheckedMulFloat is MulFloat that fails when the rounded result leaves the int64 range.
func (c Cents) CheckedMulFloat(f float64) (Cents, error) {
	r := math.Round(float64(c) * f)
	if math.IsNaN(r) || r >= math.MaxInt64 || r < math.MinInt64 {
		return 0, ErrOverflow
	}
	return Cents(r), nil
}

// CheckedMulBps is MulBps that fails when c * bps overflows.
func (c Cents) CheckedMulBps(bps int64) (Cents, error) {
	n, err := c.Mul(bps)
	if err != nil {
		return 0, err
	}
	return roundBps(int64(n)), nil
}

// MulBps applies a rate expressed in basis points (2000 = 20%), rounding half away from zero.
func (c Cents) MulBps(bps int64) Cents {
	return roundBps(int64(c) * bps)
}

func roundBps(n int64) Cents {
	q, r := n/10000, n%10000
	if r < 0 {
		r = -r
	}
	if r*2 >= 10000 {
		if n < 0 {
			q--
		} else {
			q++
		}
	}
	return Cents(q)
}

// Float returns the amount in major units. Only meant for display.
func (c Cents) Float() float64 {
	return float64(c) / 100
}

// String formats the amount with exactly two decimals ("850.56").
func (c Cents) String() string {
	n := int64(c)
	sign := ""
	if n < 0 {
		sign = "-"
		n = -n
	}
	frac := n % 100
	s := sign + strconv.FormatInt(n/100, 10) + "."
	if frac < 10 {
		s += "0"
	}
	return s + strconv.FormatInt(frac, 10)
}

// MarshalJSON writes the amount as a JSON number with two decimals.
func (c Cents) MarshalJSON() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalJSON accepts any JSON number and rounds it to cents.
func (c *Cents) UnmarshalJSON(b []byte) error {
	f, err := strconv.ParseFloat(string(b), 64)
	if err != nil {
		return err
	}
	*c = FromFloat(f)
	return nil
}

// Money pairs an amount with its currency.
type Money struct {
	Amount   Cents  `json:"amount"`
	Currency string `json:"currency"`
}

// EUR builds a Money in the catalog currency.
func EUR(c Cents) Money {
	return Money{Amount: c, Currency: Currency}
}
