package marshal

import (
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/reglet-dev/callgate/args"
	"github.com/reglet-dev/callgate/domain/entities"
	"github.com/reglet-dev/callgate/domain/errors"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Dict is a named collection of values exchanged as one struct argument.
// Keys keep insertion order, which is the host's field order when read.
type Dict[T any] struct {
	m *orderedmap.OrderedMap[string, T]
}

// NewDict returns an empty Dict.
func NewDict[T any]() *Dict[T] {
	return &Dict[T]{m: orderedmap.New[string, T]()}
}

// Set adds or replaces key.
func (d *Dict[T]) Set(key string, val T) { d.m.Set(key, val) }

// Get returns the value stored under key.
func (d *Dict[T]) Get(key string) (T, bool) { return d.m.Get(key) }

// Len returns the number of entries.
func (d *Dict[T]) Len() int { return d.m.Len() }

// Keys returns the keys in order.
func (d *Dict[T]) Keys() []string {
	keys := make([]string, 0, d.m.Len())
	for pair := d.m.Oldest(); pair != nil; pair = pair.Next() {
		keys = append(keys, pair.Key)
	}
	return keys
}

// Each calls fn for every entry in order until fn returns an error.
func (d *Dict[T]) Each(fn func(key string, val T) error) error {
	for pair := d.m.Oldest(); pair != nil; pair = pair.Next() {
		if err := fn(pair.Key, pair.Value); err != nil {
			return err
		}
	}
	return nil
}

// ToDict reads every field of a struct value with read.
func ToDict[T any](v *entities.Value, read func(*entities.Value) (T, error)) (*Dict[T], error) {
	if v.Class() != entities.ClassStruct {
		return nil, badType("struct", v)
	}
	d := NewDict[T]()
	for _, name := range v.FieldNames() {
		field, _ := v.Field(name)
		val, err := read(field)
		if err != nil {
			return nil, errors.InField(err, name)
		}
		d.Set(name, val)
	}
	return d, nil
}

func getDict[T any](c *args.Cursor, read func(*entities.Value) (T, error)) (*Dict[T], error) {
	return next(c, func(v *entities.Value) (*Dict[T], error) { return ToDict(v, read) })
}

// GetScalarDict reads the next input as a struct of scalars of exactly type T.
func GetScalarDict[T Numeric](c *args.Cursor) (*Dict[T], error) { return getDict(c, ToScalar[T]) }

// AsScalarDict reads the next input as a struct of scalars converted to T.
func AsScalarDict[T Numeric](c *args.Cursor) (*Dict[T], error) { return getDict(c, ConvertScalar[T]) }

// GetVecDict reads the next input as a struct of vectors.
func GetVecDict[T Numeric](c *args.Cursor) (*Dict[View[T]], error) { return getDict(c, ToVec[T]) }

// GetMatDict reads the next input as a struct of matrices.
func GetMatDict[T Numeric](c *args.Cursor) (*Dict[View[T]], error) { return getDict(c, ToMat[T]) }

// GetCubeDict reads the next input as a struct of cubes.
func GetCubeDict[T Numeric](c *args.Cursor) (*Dict[View[T]], error) { return getDict(c, ToCube[T]) }

// GetHypercubeDict reads the next input as a struct of hypercubes.
func GetHypercubeDict[T Numeric](c *args.Cursor) (*Dict[View[T]], error) {
	return getDict(c, ToHypercube[T])
}

// FromDict builds a struct value, converting each entry with build.
// Values already built are released if a later entry fails.
func FromDict[T any](d *Dict[T], build func(T) (*entities.Value, error)) (*entities.Value, error) {
	st := entities.NewStruct()
	err := d.Each(func(key string, val T) error {
		field, err := build(val)
		if err != nil {
			return errors.InField(err, key)
		}
		st.SetField(key, field)
		return nil
	})
	if err != nil {
		st.Release()
		return nil, err
	}
	return st, nil
}

// OutputDict queues a struct of scalars.
func OutputDict[T Numeric](c *args.Cursor, d *Dict[T]) error {
	return outputDict(c, d, func(mem memory.Allocator, x T) (*entities.Value, error) {
		return NewScalar(mem, x)
	})
}

// OutputViewDict queues a struct of arrays, copying each view into host storage.
func OutputViewDict[T Numeric](c *args.Cursor, d *Dict[View[T]]) error {
	return outputDict(c, d, CopyView[T])
}

func outputDict[T any](c *args.Cursor, d *Dict[T], build func(memory.Allocator, T) (*entities.Value, error)) error {
	st, err := FromDict(d, func(val T) (*entities.Value, error) { return build(c.Allocator(), val) })
	if err != nil {
		return err
	}
	return Output(c, st)
}
