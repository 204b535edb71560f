package marshal

import (
	"github.com/apache/arrow-go/v18/arrow"
	"github.com/reglet-dev/callgate/domain/entities"
)

// Integer is the set of fixed-width integer element types.
type Integer interface {
	int8 | uint8 | int16 | uint16 | int32 | uint32 | int64 | uint64
}

// Float is the set of floating point element types.
type Float interface {
	float32 | float64
}

// Numeric is the set of element types a host array may hold.
type Numeric interface {
	Integer | Float
}

// ClassOf returns the host class whose elements are of type T.
func ClassOf[T Numeric]() entities.Class {
	var zero T
	switch any(zero).(type) {
	case int8:
		return entities.ClassInt8
	case uint8:
		return entities.ClassUint8
	case int16:
		return entities.ClassInt16
	case uint16:
		return entities.ClassUint16
	case int32:
		return entities.ClassInt32
	case uint32:
		return entities.ClassUint32
	case int64:
		return entities.ClassInt64
	case uint64:
		return entities.ClassUint64
	case float32:
		return entities.ClassSingle
	case float64:
		return entities.ClassDouble
	}
	return entities.ClassUnknown
}

// castSlice reinterprets b as elements of T without copying.
// Callers must have checked the value's class against ClassOf[T].
func castSlice[T Numeric](b []byte) []T {
	var zero T
	var out any
	switch any(zero).(type) {
	case int8:
		out = arrow.Int8Traits.CastFromBytes(b)
	case uint8:
		out = arrow.Uint8Traits.CastFromBytes(b)
	case int16:
		out = arrow.Int16Traits.CastFromBytes(b)
	case uint16:
		out = arrow.Uint16Traits.CastFromBytes(b)
	case int32:
		out = arrow.Int32Traits.CastFromBytes(b)
	case uint32:
		out = arrow.Uint32Traits.CastFromBytes(b)
	case int64:
		out = arrow.Int64Traits.CastFromBytes(b)
	case uint64:
		out = arrow.Uint64Traits.CastFromBytes(b)
	case float32:
		out = arrow.Float32Traits.CastFromBytes(b)
	case float64:
		out = arrow.Float64Traits.CastFromBytes(b)
	}
	return out.([]T) //nolint:forcetypeassert // one case per member of Numeric
}

// castBytes is the inverse of castSlice.
func castBytes[T Numeric](s []T) []byte {
	switch s := any(s).(type) {
	case []int8:
		return arrow.Int8Traits.CastToBytes(s)
	case []uint8:
		return s
	case []int16:
		return arrow.Int16Traits.CastToBytes(s)
	case []uint16:
		return arrow.Uint16Traits.CastToBytes(s)
	case []int32:
		return arrow.Int32Traits.CastToBytes(s)
	case []uint32:
		return arrow.Uint32Traits.CastToBytes(s)
	case []int64:
		return arrow.Int64Traits.CastToBytes(s)
	case []uint64:
		return arrow.Uint64Traits.CastToBytes(s)
	case []float32:
		return arrow.Float32Traits.CastToBytes(s)
	case []float64:
		return arrow.Float64Traits.CastToBytes(s)
	}
	return nil
}

// convertElements converts every element of a numeric or logical value to T.
// The tag is read before the buffer is touched.
func convertElements[T Numeric](v *entities.Value) ([]T, error) {
	b := v.Bytes()
	switch v.Class() {
	case entities.ClassLogical, entities.ClassUint8:
		return convertSlice[T](castSlice[uint8](b))
	case entities.ClassInt8:
		return convertSlice[T](castSlice[int8](b))
	case entities.ClassInt16:
		return convertSlice[T](castSlice[int16](b))
	case entities.ClassUint16:
		return convertSlice[T](castSlice[uint16](b))
	case entities.ClassInt32:
		return convertSlice[T](castSlice[int32](b))
	case entities.ClassUint32:
		return convertSlice[T](castSlice[uint32](b))
	case entities.ClassInt64:
		return convertSlice[T](castSlice[int64](b))
	case entities.ClassUint64:
		return convertSlice[T](castSlice[uint64](b))
	case entities.ClassSingle:
		return convertSlice[T](castSlice[float32](b))
	case entities.ClassDouble:
		return convertSlice[T](castSlice[float64](b))
	}
	return nil, badType("numeric", v)
}

func convertSlice[T, S Numeric](src []S) ([]T, error) {
	out := make([]T, len(src))
	for i, x := range src {
		y, err := Convert[T](x)
		if err != nil {
			return nil, err
		}
		out[i] = y
	}
	return out, nil
}
