package numeric

// Quantity is a fixed-point value scaled by 1e8, representing order/trade size.
type Quantity int64

func QuantityFromRaw(raw int64) Quantity { return Quantity(raw) }

func QuantityFromDouble(x float64) Quantity { return Quantity(fixedFromDouble(x)) }

func QuantityFromDecimalString(s string) (Quantity, error) {
	f, err := fixedFromDecimalString(s)
	return Quantity(f), err
}

func (q Quantity) Raw() int64        { return fixed(q).raw() }
func (q Quantity) ToDouble() float64 { return fixed(q).toDouble() }
func (q Quantity) String() string    { return fixed(q).toString() }
