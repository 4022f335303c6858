package models

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMoney_JSON(t *testing.T) {
	b, err := json.Marshal(Money(50000))
	require.NoError(t, err)
	assert.Equal(t, "500.00", string(b))

	var m Money
	require.NoError(t, json.Unmarshal([]byte(`12.345`), &m))
	assert.Equal(t, Money(1235), m)

	require.NoError(t, json.Unmarshal([]byte(`"7.5"`), &m))
	assert.Equal(t, Money(750), m)

	assert.Error(t, json.Unmarshal([]byte(`"abc"`), &m))

	err = json.Unmarshal([]byte(`100000000000000000000`), &m)
	assert.ErrorIs(t, err, ErrAmountOutOfRange)
}

func TestMoney_Mul(t *testing.T) {
	mul := func(m Money, qty string) Money {
		t.Helper()
		got, err := m.Mul(decimal.RequireFromString(qty))
		require.NoError(t, err)
		return got
	}
	assert.Equal(t, Money(300), mul(100, "3"))
	assert.Equal(t, Money(150), mul(100, "1.5"))
	// 333 * 0.5 = 166.5 rounds away from zero
	assert.Equal(t, Money(167), mul(333, "0.5"))

	_, err := Money(100000).Mul(decimal.RequireFromString("1e20"))
	assert.ErrorIs(t, err, ErrAmountOutOfRange)
}

func TestMoney_AddBounded(t *testing.T) {
	sum, err := Money(150).Add(250)
	require.NoError(t, err)
	assert.Equal(t, Money(400), sum)

	_, err = MaxAmount.Add(1)
	assert.ErrorIs(t, err, ErrAmountOutOfRange)

	got, err := MoneyFromDecimal(decimal.RequireFromString("10000000000000"))
	require.NoError(t, err)
	assert.Equal(t, MaxAmount, got)
	_, err = MoneyFromDecimal(decimal.RequireFromString("10000000000000.01"))
	assert.ErrorIs(t, err, ErrAmountOutOfRange)
}

func TestMoney_Scan(t *testing.T) {
	var m Money
	require.NoError(t, m.Scan(int64(42)))
	assert.Equal(t, Money(42), m)
	require.NoError(t, m.Scan([]byte("1200")))
	assert.Equal(t, Money(1200), m)
	require.NoError(t, m.Scan(nil))
	assert.Equal(t, Money(0), m)
	assert.Error(t, m.Scan(true))
}
