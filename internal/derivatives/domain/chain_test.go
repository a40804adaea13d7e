package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleChain(t *testing.T) *OptionChain {
	t.Helper()
	contracts := []OptionContract{
		mustContract(t, OptionTypeCall, "110", "0.5"),
		mustContract(t, OptionTypeCall, "90", "0.5"),
		mustContract(t, OptionTypePut, "90", "0.5"),
		mustContract(t, OptionTypeCall, "100", "0.5"),
		mustContract(t, OptionTypeCall, "100", "0.25"),
		mustContract(t, OptionTypePut, "105", "0.25"),
	}
	chain, err := NewOptionChain("SPY", contracts)
	require.NoError(t, err)
	return chain
}

func TestNewOptionChain_Ordering(t *testing.T) {
	chain := sampleChain(t)

	assert.Equal(t, 6, chain.Len())
	exp := chain.Expirations()
	require.Len(t, exp, 2)
	assert.Equal(t, "0.25", exp[0].String())
	assert.Equal(t, "0.5", exp[1].String())

	slice, ok := chain.Slice(dec("0.5"))
	require.True(t, ok)
	strikes := slice.Strikes()
	require.Len(t, strikes, 3)
	assert.Equal(t, "90", strikes[0].String())
	assert.Equal(t, "100", strikes[1].String())
	assert.Equal(t, "110", strikes[2].String())
}

func TestNewOptionChain_DuplicateStrike(t *testing.T) {
	tests := map[string][]OptionContract{
		"calls": {
			mustContract(t, OptionTypeCall, "100", "0.5"),
			mustContract(t, OptionTypeCall, "100.00", "0.50"),
		},
		"puts beside a call": {
			mustContract(t, OptionTypePut, "100", "0.5"),
			mustContract(t, OptionTypeCall, "100", "0.5"),
			mustContract(t, OptionTypePut, "100.0", "0.5"),
		},
	}
	for name, contracts := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := NewOptionChain("SPY", contracts)
			assert.ErrorIs(t, err, ErrDuplicateStrike)
		})
	}

	// 同一行权价的看涨与看跌不算重复
	chain, err := NewOptionChain("SPY", []OptionContract{
		mustContract(t, OptionTypeCall, "100", "0.5"),
		mustContract(t, OptionTypePut, "100.00", "0.5"),
	})
	require.NoError(t, err)
	assert.Equal(t, 2, chain.Len())
	slice, ok := chain.Slice(dec("0.5"))
	require.True(t, ok)
	assert.Len(t, slice.Rows, 1)
}

func TestNewOptionChain_CallAndPutShareRow(t *testing.T) {
	chain := sampleChain(t)

	row, ok := chain.Lookup(dec("0.5"), dec("90"))
	require.True(t, ok)
	assert.NotNil(t, row.Call)
	assert.NotNil(t, row.Put)
}

func TestNewOptionChain_UnderlyingMismatch(t *testing.T) {
	c, err := NewOptionContract("QQQ", OptionTypeCall, ExerciseEuropean, dec("100"), dec("1"), dec("1"))
	require.NoError(t, err)

	_, err = NewOptionChain("SPY", []OptionContract{c})
	assert.ErrorIs(t, err, ErrUnderlyingMismatch)
}

func TestOptionChain_Contract(t *testing.T) {
	chain := sampleChain(t)

	c, err := chain.Contract(dec("0.25"), dec("105"), OptionTypePut)
	require.NoError(t, err)
	assert.Equal(t, "SPY-0.25-105-P", c.Symbol())

	_, err = chain.Contract(dec("0.25"), dec("105"), OptionTypeCall)
	assert.ErrorIs(t, err, ErrOptionContractNotFound)
	_, err = chain.Contract(dec("2"), dec("105"), OptionTypePut)
	assert.ErrorIs(t, err, ErrOptionContractNotFound)
}

func TestOptionChain_FilterByMoneyness(t *testing.T) {
	chain := sampleChain(t)

	filtered, err := chain.FilterByMoneyness(dec("100"), dec("0.95"), dec("1.05"))
	require.NoError(t, err)
	assert.Equal(t, 6, chain.Len(), "source chain unchanged")
	assert.Equal(t, 3, filtered.Len())

	_, ok := filtered.Lookup(dec("0.5"), dec("90"))
	assert.False(t, ok)
	_, ok = filtered.Lookup(dec("0.25"), dec("105"))
	assert.True(t, ok)

	_, err = chain.FilterByMoneyness(dec("0"), dec("0.9"), dec("1.1"))
	assert.ErrorIs(t, err, ErrInvalidSpot)
	_, err = chain.FilterByMoneyness(dec("100"), dec("1.1"), dec("0.9"))
	assert.ErrorIs(t, err, ErrInvalidMoneynessRange)
}

func TestOptionChain_AtmStrike(t *testing.T) {
	chain := sampleChain(t)

	atm, err := chain.AtmStrike(dec("0.5"), dec("96"))
	require.NoError(t, err)
	assert.Equal(t, "100", atm.String())

	atm, err = chain.AtmStrike(dec("0.5"), dec("95"))
	require.NoError(t, err)
	assert.Equal(t, "90", atm.String(), "tie resolves to lower strike")

	_, err = chain.AtmStrike(dec("3"), dec("95"))
	assert.ErrorIs(t, err, ErrExpiryNotFound)
}

func TestOptionChain_MarshalJSON(t *testing.T) {
	chain := sampleChain(t)

	raw, err := json.Marshal(chain)
	require.NoError(t, err)
	var out struct {
		Underlying  string `json:"underlying"`
		Expirations []struct {
			Rows []json.RawMessage `json:"rows"`
		} `json:"expirations"`
	}
	require.NoError(t, json.Unmarshal(raw, &out))
	assert.Equal(t, "SPY", out.Underlying)
	require.Len(t, out.Expirations, 2)
	assert.Len(t, out.Expirations[1].Rows, 3)
}
