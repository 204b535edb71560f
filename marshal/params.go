package marshal

import (
	"fmt"
	"reflect"

	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/go-playground/validator/v10"
	"github.com/reglet-dev/callgate/domain/entities"
	"github.com/reglet-dev/callgate/domain/errors"
)

// ParamTag is the struct tag naming the host field a Go field maps to.
// Untagged exported fields use the Go field name; "-" skips the field.
const ParamTag = "callgate"

// validate is a package-level singleton; building a validator is expensive.
var validate = validator.New()

type fieldCodec struct {
	decode      func(reflect.Value, *entities.Value) error
	decodeSlice func(reflect.Value, *entities.Value) error
	encode      func(memory.Allocator, reflect.Value) (*entities.Value, error)
	encodeSlice func(memory.Allocator, reflect.Value) (*entities.Value, error)
}

func numericCodec[T Numeric]() fieldCodec {
	typ := reflect.TypeFor[T]()
	return fieldCodec{
		decode: func(fv reflect.Value, v *entities.Value) error {
			x, err := ConvertScalar[T](v)
			if err != nil {
				return err
			}
			fv.Set(reflect.ValueOf(x).Convert(fv.Type()))
			return nil
		},
		decodeSlice: func(fv reflect.Value, v *entities.Value) error {
			xs, err := ToScalarArray[T](v)
			if err != nil {
				return err
			}
			out := reflect.MakeSlice(fv.Type(), len(xs), len(xs))
			for i, x := range xs {
				out.Index(i).Set(reflect.ValueOf(x).Convert(fv.Type().Elem()))
			}
			fv.Set(out)
			return nil
		},
		encode: func(mem memory.Allocator, fv reflect.Value) (*entities.Value, error) {
			return NewScalar(mem, fv.Convert(typ).Interface().(T)) //nolint:forcetypeassert // converted to T
		},
		encodeSlice: func(mem memory.Allocator, fv reflect.Value) (*entities.Value, error) {
			v, view, err := NewArray[T](mem, fv.Len(), 1)
			if err != nil {
				return nil, err
			}
			for i := range view.data {
				view.data[i] = fv.Index(i).Convert(typ).Interface().(T) //nolint:forcetypeassert // converted to T
			}
			return v, nil
		},
	}
}

var codecs = map[reflect.Kind]fieldCodec{
	reflect.Int8:    numericCodec[int8](),
	reflect.Uint8:   numericCodec[uint8](),
	reflect.Int16:   numericCodec[int16](),
	reflect.Uint16:  numericCodec[uint16](),
	reflect.Int32:   numericCodec[int32](),
	reflect.Uint32:  numericCodec[uint32](),
	reflect.Int64:   numericCodec[int64](),
	reflect.Uint64:  numericCodec[uint64](),
	reflect.Int:     numericCodec[int64](),
	reflect.Uint:    numericCodec[uint64](),
	reflect.Float32: numericCodec[float32](),
	reflect.Float64: numericCodec[float64](),
}

// ParamName returns the host field name of f, or false if f is not mapped.
func ParamName(f reflect.StructField) (string, bool) {
	if !f.IsExported() {
		return "", false
	}
	switch tag := f.Tag.Get(ParamTag); tag {
	case "-":
		return "", false
	case "":
		return f.Name, true
	default:
		return tag, true
	}
}

// DecodeParams fills the struct pointed to by target from the fields of a
// host struct value, converting each field with the checked scalar and array
// readers, then runs `validate` tag checks. Host fields with no Go
// counterpart are rejected. Missing host fields leave the Go field unchanged.
func DecodeParams(v *entities.Value, target any) error {
	rv := reflect.ValueOf(target)
	if rv.Kind() != reflect.Pointer || rv.IsNil() || rv.Elem().Kind() != reflect.Struct {
		return fmt.Errorf("marshal: DecodeParams target must be a non-nil struct pointer, got %T", target)
	}
	if err := decodeStruct(rv.Elem(), v); err != nil {
		return err
	}
	if err := validate.Struct(target); err != nil {
		return &errors.MarshalError{Cond: errors.BadParams, Message: "parameter validation failed", Err: err}
	}
	return nil
}

func decodeStruct(sv reflect.Value, v *entities.Value) error {
	if v.Class() != entities.ClassStruct {
		return badType("struct", v)
	}
	seen := make(map[string]bool, v.NumFields())
	st := sv.Type()
	for i := range st.NumField() {
		name, ok := ParamName(st.Field(i))
		if !ok {
			continue
		}
		field, ok := v.Field(name)
		if !ok {
			continue
		}
		seen[name] = true
		if err := decodeField(sv.Field(i), field); err != nil {
			return errors.InField(err, name)
		}
	}
	for _, name := range v.FieldNames() {
		if !seen[name] {
			return errors.NewMarshalError(errors.BadParams, "unknown parameter %q", name)
		}
	}
	return nil
}

func decodeField(fv reflect.Value, v *entities.Value) error {
	switch fv.Kind() {
	case reflect.Bool:
		b, err := ToBool(v)
		if err != nil {
			return err
		}
		fv.SetBool(b)
		return nil
	case reflect.String:
		s, err := ToString(v)
		if err != nil {
			return err
		}
		fv.SetString(s)
		return nil
	case reflect.Struct:
		return decodeStruct(fv, v)
	case reflect.Slice:
		elem := fv.Type().Elem()
		if elem.Kind() == reflect.String {
			ss, err := ToStringArray(v)
			if err != nil {
				return err
			}
			out := reflect.MakeSlice(fv.Type(), len(ss), len(ss))
			for i, s := range ss {
				out.Index(i).SetString(s)
			}
			fv.Set(out)
			return nil
		}
		if codec, ok := codecs[elem.Kind()]; ok {
			return codec.decodeSlice(fv, v)
		}
	default:
		if codec, ok := codecs[fv.Kind()]; ok {
			return codec.decode(fv, v)
		}
	}
	return fmt.Errorf("marshal: unsupported parameter type %s", fv.Type())
}

// EncodeStruct builds a host struct value from a Go struct or struct pointer
// using the same field mapping as DecodeParams.
func EncodeStruct(mem memory.Allocator, src any) (*entities.Value, error) {
	rv := reflect.ValueOf(src)
	if rv.Kind() == reflect.Pointer {
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return nil, fmt.Errorf("marshal: EncodeStruct needs a struct, got %T", src)
	}
	return encodeStruct(mem, rv)
}

func encodeStruct(mem memory.Allocator, sv reflect.Value) (*entities.Value, error) {
	out := entities.NewStruct()
	st := sv.Type()
	for i := range st.NumField() {
		name, ok := ParamName(st.Field(i))
		if !ok {
			continue
		}
		field, err := encodeField(mem, sv.Field(i))
		if err != nil {
			out.Release()
			return nil, errors.InField(err, name)
		}
		out.SetField(name, field)
	}
	return out, nil
}

func encodeField(mem memory.Allocator, fv reflect.Value) (*entities.Value, error) {
	switch fv.Kind() {
	case reflect.Bool:
		return NewBool(mem, fv.Bool())
	case reflect.String:
		return entities.NewString(fv.String()), nil
	case reflect.Struct:
		return encodeStruct(mem, fv)
	case reflect.Slice:
		elem := fv.Type().Elem()
		if elem.Kind() == reflect.String {
			cells := make([]*entities.Value, fv.Len())
			for i := range cells {
				cells[i] = entities.NewString(fv.Index(i).String())
			}
			return entities.NewCell(cells...), nil
		}
		if codec, ok := codecs[elem.Kind()]; ok {
			return codec.encodeSlice(mem, fv)
		}
	default:
		if codec, ok := codecs[fv.Kind()]; ok {
			return codec.encode(mem, fv)
		}
	}
	return nil, fmt.Errorf("marshal: unsupported result type %s", fv.Type())
}
