package marshal

import (
	"math"

	"github.com/reglet-dev/callgate/domain/entities"
	"github.com/reglet-dev/callgate/domain/errors"
)

// Convert converts x to Dst, failing with BadTypeConversion unless the
// result represents x exactly. Float to integer conversions truncate toward
// zero once the value is known to be finite and in range. Narrowing to
// float32 rejects both infinities and finite values beyond MaxFloat32; NaN
// passes through unchanged.
func Convert[Dst, Src Numeric](x Src) (Dst, error) {
	src, dst := ClassOf[Src](), ClassOf[Dst]()
	if src == dst {
		return Dst(x), nil
	}

	var ok bool
	switch {
	case src.IsInteger() && dst.IsInteger():
		ok = integerFits(x, src, dst)
	case src.IsFloat() && dst.IsInteger():
		ok = floatFitsInteger(float64(x), dst)
	case src.IsInteger() && dst.IsFloat():
		ok = integerFitsFloat(x, src, dst)
	default:
		ok = floatFitsFloat(float64(x), dst)
	}
	if !ok {
		var zero Dst
		return zero, errors.NewMarshalError(errors.BadTypeConversion,
			"conversion from %s(%v) to %s would change the value", src, x, dst)
	}
	return Dst(x), nil
}

func bits(c entities.Class) uint {
	return uint(c.ElemSize()) * 8 //nolint:gosec // G115: element sizes are small
}

func integerFits[S Numeric](x S, src, dst entities.Class) bool {
	n := bits(dst)
	if src.IsSigned() {
		s := int64(x)
		if dst.IsSigned() {
			if n == 64 {
				return true
			}
			lo, hi := -int64(1)<<(n-1), int64(1)<<(n-1)-1
			return s >= lo && s <= hi
		}
		if s < 0 {
			return false
		}
		return n == 64 || uint64(s) <= uint64(1)<<n-1
	}

	u := uint64(x)
	if dst.IsSigned() {
		return u <= uint64(1)<<(n-1)-1
	}
	return n == 64 || u <= uint64(1)<<n-1
}

func floatFitsInteger(f float64, dst entities.Class) bool {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return false
	}
	n := bits(dst)
	if dst.IsSigned() {
		limit := math.Ldexp(1, int(n-1)) //nolint:gosec // G115: n <= 64
		return f >= -limit && f < limit
	}
	return f >= 0 && f < math.Ldexp(1, int(n)) //nolint:gosec // G115: n <= 64
}

func integerFitsFloat[S Numeric](x S, src, dst entities.Class) bool {
	mantissa := uint64(1) << 53
	if dst == entities.ClassSingle {
		mantissa = uint64(1) << 24
	}
	if src.IsSigned() {
		s := int64(x)
		if s < 0 {
			return s >= -int64(mantissa) //nolint:gosec // G115: mantissa <= 2^53
		}
		return uint64(s) <= mantissa
	}
	return uint64(x) <= mantissa
}

// floatFitsFloat lets NaN through since every float class has one.
// Infinities are outside the finite range of single.
func floatFitsFloat(f float64, dst entities.Class) bool {
	if dst == entities.ClassDouble || math.IsNaN(f) {
		return true
	}
	return math.Abs(f) <= math.MaxFloat32
}
