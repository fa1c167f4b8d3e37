package numeric

// Price is a fixed-point value scaled by 1e8, representing venue prices.
type Price int64

// PriceFromRaw wraps an already-scaled raw integer.
func PriceFromRaw(raw int64) Price { return Price(raw) }

// PriceFromDouble rounds x to the nearest representable Price, ties to even.
func PriceFromDouble(x float64) Price { return Price(fixedFromDouble(x)) }

// PriceFromDecimalString parses a decimal string such as "65000.5".
func PriceFromDecimalString(s string) (Price, error) {
	f, err := fixedFromDecimalString(s)
	return Price(f), err
}

func (p Price) Raw() int64        { return fixed(p).raw() }
func (p Price) ToDouble() float64 { return fixed(p).toDouble() }
func (p Price) String() string    { return fixed(p).toString() }
