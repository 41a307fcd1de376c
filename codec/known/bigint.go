package known

import (
	"math/big"

	"github.com/anirudhraja/protoshadow/codec"
)

// bigIntShadow carries an arbitrary precision integer as sign and magnitude
type bigIntShadow struct {
	Magnitude []byte // big-endian, no leading zeros when encoded
	Negative  bool
}

var bigIntType = codec.MustMessage("protoshadow.BigInt",
	codec.NewField(1, "magnitude", codec.Bytes(), func(s *bigIntShadow) *[]byte { return &s.Magnitude }),
	codec.NewField(2, "negative", codec.Bool(), func(s *bigIntShadow) *bool { return &s.Negative }),
)

var bigIntCodec = codec.Shadow[*big.Int, bigIntShadow](bigIntType,
	func(v **big.Int) (bigIntShadow, error) {
		if *v == nil {
			return bigIntShadow{}, nil
		}
		return bigIntShadow{Magnitude: (*v).Bytes(), Negative: (*v).Sign() < 0}, nil
	},
	func(s *bigIntShadow) (*big.Int, error) {
		n := new(big.Int).SetBytes(s.Magnitude)
		if s.Negative {
			n.Neg(n)
		}
		return n, nil
	},
)

// BigInt encodes *big.Int as a {magnitude, negative} message. A nil pointer
// encodes like zero; decoding always yields a non-nil value.
func BigInt() codec.Codec[*big.Int] {
	return bigIntCodec
}
