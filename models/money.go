package models

import (
	"database/sql/driver"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Money is an amount in minor currency units (cents, paise).
// It is encoded in JSON as a decimal number with two fraction digits.
type Money int64

// MaxAmount bounds every amount the service accepts or computes,
// 10 trillion in major units.
const MaxAmount Money = 1_000_000_000_000_000

var ErrAmountOutOfRange = errors.New("amount out of range")

var maxAmountDecimal = decimal.NewFromInt(int64(MaxAmount))

// fromMinor converts a minor-unit decimal, refusing values beyond MaxAmount.
func fromMinor(d decimal.Decimal) (Money, error) {
	d = d.Round(0)
	if d.Abs().GreaterThan(maxAmountDecimal) {
		return 0, fmt.Errorf("%w: %s", ErrAmountOutOfRange, d.Shift(-2).StringFixed(2))
	}
	return Money(d.IntPart()), nil
}

// MoneyFromDecimal converts a major-unit decimal to Money, rounding half away from zero.
func MoneyFromDecimal(d decimal.Decimal) (Money, error) {
	return fromMinor(d.Shift(2))
}

// Decimal returns the amount in major units.
func (m Money) Decimal() decimal.Decimal {
	return decimal.New(int64(m), -2)
}

func (m Money) String() string {
	return m.Decimal().StringFixed(2)
}

// Mul multiplies the amount by a quantity and rounds back to minor units.
func (m Money) Mul(qty decimal.Decimal) (Money, error) {
	return fromMinor(decimal.NewFromInt(int64(m)).Mul(qty))
}

// Add sums two amounts, failing past MaxAmount.
func (m Money) Add(o Money) (Money, error) {
	return fromMinor(decimal.NewFromInt(int64(m)).Add(decimal.NewFromInt(int64(o))))
}

func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.String()), nil
}

func (m *Money) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		return nil
	}
	var d decimal.Decimal
	if err := d.UnmarshalJSON(b); err != nil {
		return fmt.Errorf("invalid amount %s: %w", b, err)
	}
	v, err := MoneyFromDecimal(d)
	if err != nil {
		return err
	}
	*m = v
	return nil
}

// Value implements driver.Valuer.
func (m Money) Value() (driver.Value, error) {
	return int64(m), nil
}

// Scan implements sql.Scanner.
func (m *Money) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*m = 0
	case int64:
		*m = Money(v)
	case int32:
		*m = Money(v)
	case float64:
		*m = Money(int64(v))
	case []byte:
		d, err := decimal.NewFromString(string(v))
		if err != nil {
			return fmt.Errorf("scanning money: %w", err)
		}
		*m = Money(d.IntPart())
	case string:
		d, err := decimal.NewFromString(v)
		if err != nil {
			return fmt.Errorf("scanning money: %w", err)
		}
		*m = Money(d.IntPart())
	default:
		return fmt.Errorf("scanning money: unsupported type %T", src)
	}
	return nil
}
