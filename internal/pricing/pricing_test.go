package pricing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestPurityFactor(t *testing.T) {
	f, err := PurityFactor(dec("24"))
	require.NoError(t, err)
	require.True(t, f.Equal(dec("1")))

	f, err = PurityFactor(dec("22"))
	require.NoError(t, err)
	require.Equal(t, "0.9167", f.Round(4).String())

	_, err = PurityFactor(dec("0"))
	require.Error(t, err)
	_, err = PurityFactor(dec("25"))
	require.Error(t, err)
}

func TestMetalValue(t *testing.T) {
	// 10g of 22K at 6000/g fine: 10 * 6000 * 22/24 = 55000
	v, err := MetalValue(dec("10"), dec("6000"), dec("22"))
	require.NoError(t, err)
	require.True(t, v.Equal(dec("55000")), "got %s", v)

	_, err = MetalValue(dec("-1"), dec("6000"), dec("22"))
	require.Error(t, err)
}

func TestMakingCharge(t *testing.T) {
	require.True(t, MakingCharge(MakingFlat, dec("500"), dec("10")).Equal(dec("500")))
	require.True(t, MakingCharge(MakingPerGram, dec("50"), dec("10")).Equal(dec("500")))
}

func TestComputeQuote(t *testing.T) {
	q, err := ComputeQuote(QuoteInput{
		WeightGrams:    dec("10"),
		Carat:          dec("22"),
		RatePerGram24k: dec("6000"),
		WastagePct:     dec("10"),
		MakingMode:     MakingPerGram,
		MakingRate:     dec("50"),
		StoneCharges:   dec("200"),
	})
	require.NoError(t, err)
	require.True(t, q.MetalValue.Equal(dec("55000")), "metal %s", q.MetalValue)
	require.True(t, q.WastageAmount.Equal(dec("5500")), "wastage %s", q.WastageAmount)
	require.True(t, q.MakingCharge.Equal(dec("500")))
	require.True(t, q.Total.Equal(dec("61200")), "total %s", q.Total)
}
