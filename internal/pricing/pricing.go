package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/jewelms/jewelms/internal/shared"
)

var (
	hundred     = decimal.NewFromInt(100)
	fineCaratge = decimal.NewFromInt(24)
)

// PurityFactor converts a caratage (e.g. 22 for 22K) to its fraction of
// fine gold on the 24K basis.
func PurityFactor(carat decimal.Decimal) (decimal.Decimal, error) {
	if carat.Sign() <= 0 || carat.GreaterThan(fineCaratge) {
		return decimal.Zero, shared.Invalid("purity", "caratage must be in (0, 24]")
	}
	return carat.Div(fineCaratge), nil
}

// MetalValue prices a weight of metal given the fine (24K) rate per gram
// and the item caratage.
func MetalValue(weightGrams, ratePerGram24k, carat decimal.Decimal) (decimal.Decimal, error) {
	factor, err := PurityFactor(carat)
	if err != nil {
		return decimal.Zero, err
	}
	if weightGrams.Sign() < 0 || ratePerGram24k.Sign() < 0 {
		return decimal.Zero, shared.Invalid("price", "weight and rate must not be negative")
	}
	return weightGrams.Mul(ratePerGram24k).Mul(factor), nil
}

// MakingChargeMode selects how making charges apply.
type MakingChargeMode string

const (
	MakingFlat    MakingChargeMode = "flat"
	MakingPerGram MakingChargeMode = "per_gram"
)

// MakingCharge computes the making charge for an item.
func MakingCharge(mode MakingChargeMode, rate, weightGrams decimal.Decimal) decimal.Decimal {
	if mode == MakingPerGram {
		return rate.Mul(weightGrams)
	}
	return rate
}

// WastageAmount computes the wastage add-on as a percentage of the metal
// value.
func WastageAmount(metalValue, wastagePct decimal.Decimal) decimal.Decimal {
	return metalValue.Mul(wastagePct).Div(hundred)
}

// Quote is a computed retail price breakdown for one piece.
type Quote struct {
	MetalValue    decimal.Decimal
	WastageAmount decimal.Decimal
	MakingCharge  decimal.Decimal
	StoneCharges  decimal.Decimal
	Total         decimal.Decimal
}

// QuoteInput carries the pricing parameters for one piece.
type QuoteInput struct {
	WeightGrams    decimal.Decimal
	Carat          decimal.Decimal
	RatePerGram24k decimal.Decimal
	WastagePct     decimal.Decimal
	MakingMode     MakingChargeMode
	MakingRate     decimal.Decimal
	StoneCharges   decimal.Decimal
}

// ComputeQuote prices a piece from the live metal rate. Pure decimal
// math, no rounding.
func ComputeQuote(in QuoteInput) (Quote, error) {
	metal, err := MetalValue(in.WeightGrams, in.RatePerGram24k, in.Carat)
	if err != nil {
		return Quote{}, err
	}
	wastage := WastageAmount(metal, in.WastagePct)
	making := MakingCharge(in.MakingMode, in.MakingRate, in.WeightGrams)
	q := Quote{
		MetalValue:    metal,
		WastageAmount: wastage,
		MakingCharge:  making,
		StoneCharges:  in.StoneCharges,
	}
	q.Total = metal.Add(wastage).Add(making).Add(in.StoneCharges)
	return q, nil
}
