package entities

import (
	"github.com/apache/arrow-go/v18/arrow"
)

// Class is the element-type tag carried by every host value.
type Class uint8

const (
	ClassUnknown Class = iota
	ClassLogical
	ClassChar
	ClassInt8
	ClassUint8
	ClassInt16
	ClassUint16
	ClassInt32
	ClassUint32
	ClassInt64
	ClassUint64
	ClassSingle
	ClassDouble
	ClassStruct
	ClassCell
)

var classNames = map[Class]string{
	ClassUnknown: "unknown",
	ClassLogical: "logical",
	ClassChar:    "char",
	ClassInt8:    "int8",
	ClassUint8:   "uint8",
	ClassInt16:   "int16",
	ClassUint16:  "uint16",
	ClassInt32:   "int32",
	ClassUint32:  "uint32",
	ClassInt64:   "int64",
	ClassUint64:  "uint64",
	ClassSingle:  "single",
	ClassDouble:  "double",
	ClassStruct:  "struct",
	ClassCell:    "cell",
}

func (c Class) String() string {
	if name, ok := classNames[c]; ok {
		return name
	}
	return classNames[ClassUnknown]
}

// ParseClass maps a class name back to its tag.
func ParseClass(name string) (Class, bool) {
	for c, n := range classNames {
		if n == name && c != ClassUnknown {
			return c, true
		}
	}
	return ClassUnknown, false
}

// IsNumeric reports whether the class holds integer or floating point elements.
func (c Class) IsNumeric() bool {
	return c.IsInteger() || c.IsFloat()
}

// IsInteger reports whether the class holds integer elements.
func (c Class) IsInteger() bool {
	return c >= ClassInt8 && c <= ClassUint64
}

// IsSigned reports whether the class holds signed integer elements.
func (c Class) IsSigned() bool {
	switch c {
	case ClassInt8, ClassInt16, ClassInt32, ClassInt64:
		return true
	}
	return false
}

// IsFloat reports whether the class holds floating point elements.
func (c Class) IsFloat() bool {
	return c == ClassSingle || c == ClassDouble
}

// HasBuffer reports whether values of this class are backed by a flat element buffer.
func (c Class) HasBuffer() bool {
	return c.IsNumeric() || c == ClassLogical
}

// ElemSize returns the size in bytes of a single element, or 0 for classes
// without a flat element buffer.
func (c Class) ElemSize() int {
	switch c {
	case ClassLogical, ClassInt8, ClassUint8:
		return 1
	case ClassInt16, ClassUint16:
		return 2
	case ClassInt32, ClassUint32, ClassSingle:
		return 4
	case ClassInt64, ClassUint64, ClassDouble:
		return 8
	}
	return 0
}

// ArrowType returns the fixed-width Arrow type with the same in-memory layout
// as this class. Logical values are stored one byte per element and therefore
// map to Uint8 rather than the bit-packed Arrow boolean.
func (c Class) ArrowType() (arrow.DataType, bool) {
	switch c {
	case ClassLogical, ClassUint8:
		return arrow.PrimitiveTypes.Uint8, true
	case ClassInt8:
		return arrow.PrimitiveTypes.Int8, true
	case ClassInt16:
		return arrow.PrimitiveTypes.Int16, true
	case ClassUint16:
		return arrow.PrimitiveTypes.Uint16, true
	case ClassInt32:
		return arrow.PrimitiveTypes.Int32, true
	case ClassUint32:
		return arrow.PrimitiveTypes.Uint32, true
	case ClassInt64:
		return arrow.PrimitiveTypes.Int64, true
	case ClassUint64:
		return arrow.PrimitiveTypes.Uint64, true
	case ClassSingle:
		return arrow.PrimitiveTypes.Float32, true
	case ClassDouble:
		return arrow.PrimitiveTypes.Float64, true
	}
	return nil, false
}

// ClassFromArrow maps a fixed-width Arrow type to the numeric class with the same layout.
func ClassFromArrow(dt arrow.DataType) (Class, bool) {
	switch dt.ID() {
	case arrow.INT8:
		return ClassInt8, true
	case arrow.UINT8:
		return ClassUint8, true
	case arrow.INT16:
		return ClassInt16, true
	case arrow.UINT16:
		return ClassUint16, true
	case arrow.INT32:
		return ClassInt32, true
	case arrow.UINT32:
		return ClassUint32, true
	case arrow.INT64:
		return ClassInt64, true
	case arrow.UINT64:
		return ClassUint64, true
	case arrow.FLOAT32:
		return ClassSingle, true
	case arrow.FLOAT64:
		return ClassDouble, true
	}
	return ClassUnknown, false
}
