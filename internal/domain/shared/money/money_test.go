package money

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewNormalizesCurrency(t *testing.T) {
	m, err := New(1500, " usd ")
	require.NoError(t, err)
	assert.Equal(t, "USD", m.Currency)

	_, err = New(1, "US")
	assert.ErrorIs(t, err, ErrInvalidCurrency)
}

func TestArithmetic(t *testing.T) {
	a := Must(10000, "USD")
	sum, err := a.Add(Must(250, "USD"))
	require.NoError(t, err)
	assert.Equal(t, int64(10250), sum.Amount)

	_, err = a.Add(Must(1, "EUR"))
	assert.ErrorIs(t, err, ErrCurrencyMismatch)

	assert.Equal(t, Must(30000, "USD"), a.Multiply(3))
}

func TestString(t *testing.T) {
	assert.Equal(t, "150.05 USD", Must(15005, "USD").String())
	assert.Equal(t, "-0.50 EUR", Must(-50, "EUR").String())
}
