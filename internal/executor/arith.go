package executor

import (
	"math"
	"math/bits"

	"constexec/internal/ir"
)

// checkedAdd reports the width-wrapped sum and whether it overflowed vt's
// range, treating i64 specially since its range doesn't fit an int64 pair.
func checkedAdd(vt ir.ValueType, signed bool, a, b int64) (sum int64, overflow bool) {
	if vt == ir.I64 {
		sum = a + b
		if signed {
			overflow = (b > 0 && a > math.MaxInt64-b) || (b < 0 && a < math.MinInt64-b)
		} else {
			ua, ub := uint64(a), uint64(b)
			overflow = ua+ub < ua
		}
		return sum, overflow
	}
	sum = a + b
	lo, hi := intRange(vt, signed)
	return wrapToWidth(sum, vt), sum < lo || sum > hi
}

func checkedSub(vt ir.ValueType, signed bool, a, b int64) (diff int64, overflow bool) {
	if vt == ir.I64 {
		diff = a - b
		if signed {
			overflow = (b < 0 && a > math.MaxInt64+b) || (b > 0 && a < math.MinInt64+b)
		} else {
			overflow = uint64(a) < uint64(b)
		}
		return diff, overflow
	}
	diff = a - b
	lo, hi := intRange(vt, signed)
	return wrapToWidth(diff, vt), diff < lo || diff > hi
}

func checkedMul(vt ir.ValueType, signed bool, a, b int64) (prod int64, overflow bool) {
	if vt == ir.I64 {
		prod = a * b
		if a == 0 || b == 0 {
			return 0, false
		}
		if signed {
			overflow = prod/a != b
		} else {
			hi, lo := bits.Mul64(uint64(a), uint64(b))
			overflow = hi != 0
			prod = int64(lo)
		}
		return prod, overflow
	}
	prod = a * b // narrower widths: always fits an int64 exactly
	lo, hi := intRange(vt, signed)
	return wrapToWidth(prod, vt), prod < lo || prod > hi
}

// isMinValue reports whether v is vt's most negative signed value, the one
// case where negation (and division by -1) overflows.
func isMinValue(vt ir.ValueType, v int64) bool {
	lo, _ := intRange(vt, true)
	return v == lo
}

// mathUnary is the table-driven dispatch for the one-argument transcendental
// math intrinsics, every member of which operates on f64 regardless of its
// paired *_check sibling's own semantics.
var mathUnary = map[ir.Op]func(float64) float64{
	ir.OpExp: math.Exp, ir.OpExp2: math.Exp2, ir.OpExpm1: math.Expm1,
	ir.OpLog: math.Log, ir.OpLog10: math.Log10, ir.OpLog2: math.Log2, ir.OpLog1p: math.Log1p,
	ir.OpCbrt: math.Cbrt,
	ir.OpSin:  math.Sin, ir.OpCos: math.Cos, ir.OpTan: math.Tan,
	ir.OpAsin: math.Asin, ir.OpAcos: math.Acos, ir.OpAtan: math.Atan,
	ir.OpSinh: math.Sinh, ir.OpCosh: math.Cosh, ir.OpTanh: math.Tanh,
	ir.OpAsinh: math.Asinh, ir.OpAcosh: math.Acosh, ir.OpAtanh: math.Atanh,
	ir.OpErf: math.Erf, ir.OpErfc: math.Erfc,
	ir.OpTgamma: math.Gamma,
	ir.OpLgamma: func(x float64) float64 { v, _ := math.Lgamma(x); return v },
}

var mathBinary = map[ir.Op]func(a, b float64) float64{
	ir.OpPow: math.Pow, ir.OpHypot: math.Hypot, ir.OpAtan2: math.Atan2,
}

// mask returns a bit mask with the low n bits set (n up to 64).
func mask(n uint) uint64 {
	if n >= 64 {
		return ^uint64(0)
	}
	return uint64(1)<<n - 1
}

func funnelLeft(a, c uint64, amount, width uint) uint64 {
	if width == 0 {
		return 0
	}
	amount %= width
	return ((a << amount) | (c >> (width - amount))) & mask(width)
}

func funnelRight(a, c uint64, amount, width uint) uint64 {
	if width == 0 {
		return 0
	}
	amount %= width
	return ((a << (width - amount)) | (c >> amount)) & mask(width)
}

// bitReverse reverses the low `width` bits of v.
func bitReverse(v uint64, width uint) uint64 {
	switch width {
	case 8:
		return uint64(bits.Reverse8(uint8(v)))
	case 16:
		return uint64(bits.Reverse16(uint16(v)))
	case 32:
		return uint64(bits.Reverse32(uint32(v)))
	default:
		return bits.Reverse64(v)
	}
}

func byteSwap(v uint64, width uint) uint64 {
	switch width {
	case 16:
		return uint64(bits.ReverseBytes16(uint16(v)))
	case 32:
		return uint64(bits.ReverseBytes32(uint32(v)))
	default:
		return bits.ReverseBytes64(v)
	}
}

func leadingZeros(v uint64, width uint) int {
	switch width {
	case 8:
		return bits.LeadingZeros8(uint8(v))
	case 16:
		return bits.LeadingZeros16(uint16(v))
	case 32:
		return bits.LeadingZeros32(uint32(v))
	default:
		return bits.LeadingZeros64(v)
	}
}

func trailingZeros(v uint64, width uint) int {
	switch width {
	case 8:
		if v&0xFF == 0 {
			return 8
		}
		return bits.TrailingZeros8(uint8(v))
	case 16:
		if v&0xFFFF == 0 {
			return 16
		}
		return bits.TrailingZeros16(uint16(v))
	case 32:
		if v&0xFFFFFFFF == 0 {
			return 32
		}
		return bits.TrailingZeros32(uint32(v))
	default:
		if v == 0 {
			return 64
		}
		return bits.TrailingZeros64(v)
	}
}
