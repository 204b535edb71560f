package wireformat

import (
	stderrors "errors"
	"fmt"
	"sync/atomic"

	"github.com/klauspost/compress/zstd"
	"github.com/reglet-dev/callgate/domain/entities"
	"github.com/reglet-dev/callgate/domain/errors"
)

// DefaultCompressionThreshold is the payload size from which numeric data is compressed.
const DefaultCompressionThreshold = 64 * 1024

// DefaultMaxDecodedSize bounds a single decompressed payload.
const DefaultMaxDecodedSize = 256 * 1024 * 1024

// ErrClosed is returned by a Codec used after Close.
var ErrClosed = stderrors.New("wireformat: codec is closed")

// Codec converts between host values and their wire form.
// It is safe for concurrent use.
type Codec struct {
	enc        *zstd.Encoder
	dec        *zstd.Decoder
	threshold  int
	maxDecoded uint64
	closed     atomic.Bool
}

// CodecOption configures a Codec.
type CodecOption func(*Codec)

// WithCompressionThreshold sets the payload size from which numeric data is
// zstd compressed. Zero or less disables compression.
func WithCompressionThreshold(n int) CodecOption {
	return func(c *Codec) {
		c.threshold = n
	}
}

// WithMaxDecodedSize bounds the size of a single decompressed payload.
func WithMaxDecodedSize(n uint64) CodecOption {
	return func(c *Codec) {
		c.maxDecoded = n
	}
}

// NewCodec creates a Codec.
func NewCodec(opts ...CodecOption) (*Codec, error) {
	c := &Codec{threshold: DefaultCompressionThreshold, maxDecoded: DefaultMaxDecodedSize}
	for _, opt := range opts {
		opt(c)
	}

	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd encoder: %w", err)
	}
	dec, err := zstd.NewReader(nil, zstd.WithDecoderMaxMemory(c.maxDecoded))
	if err != nil {
		_ = enc.Close()
		return nil, fmt.Errorf("failed to create zstd decoder: %w", err)
	}
	c.enc, c.dec = enc, dec
	return c, nil
}

// Close releases the compressor resources. Later calls are no-ops.
func (c *Codec) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}
	c.dec.Close()
	return c.enc.Close()
}

// EncodeValue converts v to its wire form.
func (c *Codec) EncodeValue(v *entities.Value) (ValueWire, error) {
	if c.closed.Load() {
		return ValueWire{}, ErrClosed
	}
	w := ValueWire{Class: v.Class().String(), Dims: v.Dims()}

	switch cls := v.Class(); {
	case cls.HasBuffer():
		data := v.Bytes()
		if c.threshold > 0 && len(data) >= c.threshold {
			w.Data = c.enc.EncodeAll(data, nil)
			w.Encoding = EncodingZstd
		} else {
			w.Data = append([]byte(nil), data...)
		}
	case cls == entities.ClassChar:
		w.Text = v.Text()
	case cls == entities.ClassStruct:
		for _, name := range v.FieldNames() {
			field, _ := v.Field(name)
			fw, err := c.EncodeValue(field)
			if err != nil {
				return ValueWire{}, errors.InField(err, name)
			}
			w.Fields = append(w.Fields, FieldWire{Name: name, Value: fw})
		}
	case cls == entities.ClassCell:
		for _, cell := range v.Cells() {
			cw, err := c.EncodeValue(cell)
			if err != nil {
				return ValueWire{}, err
			}
			w.Cells = append(w.Cells, cw)
		}
	default:
		return ValueWire{}, errors.NewMarshalError(errors.BadType, "cannot encode %s value", cls)
	}
	return w, nil
}

// DecodeValue converts w to a host value. Numeric data is wrapped without a
// further copy once decompressed.
func (c *Codec) DecodeValue(w ValueWire) (*entities.Value, error) {
	if c.closed.Load() {
		return nil, ErrClosed
	}
	cls, ok := entities.ParseClass(w.Class)
	if !ok {
		return nil, errors.NewMarshalError(errors.BadType, "unknown class %q", w.Class)
	}

	switch {
	case cls.HasBuffer():
		data, err := c.payload(w)
		if err != nil {
			return nil, err
		}
		v, err := entities.WrapNumeric(cls, data, w.Dims...)
		if err != nil {
			return nil, &errors.MarshalError{Cond: errors.BadSize, Message: "malformed array payload", Err: err}
		}
		return v, nil
	case cls == entities.ClassChar:
		return entities.NewString(w.Text), nil
	case cls == entities.ClassStruct:
		st := entities.NewStruct()
		for _, f := range w.Fields {
			fv, err := c.DecodeValue(f.Value)
			if err != nil {
				return nil, errors.InField(err, f.Name)
			}
			st.SetField(f.Name, fv)
		}
		return st, nil
	default:
		cells := make([]*entities.Value, len(w.Cells))
		for i, cw := range w.Cells {
			cv, err := c.DecodeValue(cw)
			if err != nil {
				return nil, err
			}
			cells[i] = cv
		}
		return entities.NewCell(cells...), nil
	}
}

func (c *Codec) payload(w ValueWire) ([]byte, error) {
	switch w.Encoding {
	case "":
		return w.Data, nil
	case EncodingZstd:
		data, err := c.dec.DecodeAll(w.Data, nil)
		if err != nil {
			return nil, &errors.MarshalError{Cond: errors.BadSize, Message: "corrupt zstd payload", Err: err}
		}
		return data, nil
	}
	return nil, errors.NewMarshalError(errors.BadType, "unknown payload encoding %q", w.Encoding)
}

// DecodeInputs decodes a call's inputs.
func (c *Codec) DecodeInputs(ws []ValueWire) ([]*entities.Value, error) {
	out := make([]*entities.Value, len(ws))
	for i, w := range ws {
		v, err := c.DecodeValue(w)
		if err != nil {
			return nil, fmt.Errorf("input %d: %w", i+1, err)
		}
		out[i] = v
	}
	return out, nil
}

// EncodeOutputs encodes a call's outputs.
func (c *Codec) EncodeOutputs(vals []*entities.Value) ([]ValueWire, error) {
	out := make([]ValueWire, len(vals))
	for i, v := range vals {
		w, err := c.EncodeValue(v)
		if err != nil {
			return nil, fmt.Errorf("output %d: %w", i+1, err)
		}
		out[i] = w
	}
	return out, nil
}

// ErrorResponse builds the response for a failed call.
func ErrorResponse(err error) CallResponseWire {
	return CallResponseWire{Error: errors.ToErrorDetail(err)}
}
