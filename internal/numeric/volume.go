package numeric

// Volume is a fixed-point value scaled by 1e8, representing traded notionals.
type Volume int64

func VolumeFromRaw(raw int64) Volume { return Volume(raw) }

func VolumeFromDouble(x float64) Volume { return Volume(fixedFromDouble(x)) }

func VolumeFromDecimalString(s string) (Volume, error) {
	f, err := fixedFromDecimalString(s)
	return Volume(f), err
}

func (v Volume) Raw() int64        { return fixed(v).raw() }
func (v Volume) ToDouble() float64 { return fixed(v).toDouble() }
func (v Volume) String() string    { return fixed(v).toString() }
