// Package handle keeps natively owned objects alive behind opaque tokens.
//
// A token packs a slot index and the slot's generation. Destroying an object
// bumps the generation of its slot, so every token issued for the old
// occupant stops resolving, including a second destroy of the same token.
package handle

import (
	"io"
	"log/slog"
	"reflect"
	"sync"

	"github.com/reglet-dev/callgate/domain/errors"
)

// Token is the opaque value handed to the host in place of an object.
// Upper 32 bits: generation, lower 32 bits: slot index.
type Token uint64

func makeToken(gen, index uint32) Token {
	return Token(uint64(gen)<<32 | uint64(index))
}

func (t Token) split() (gen, index uint32) {
	gen = uint32(t >> 32)          //nolint:gosec // G115: packed format stores 32-bit values
	index = uint32(t & 0xFFFFFFFF) //nolint:gosec // G115: packed format stores 32-bit values
	return gen, index
}

type slot struct {
	obj  any
	tag  reflect.Type
	gen  uint32
	live bool
}

// Registry is a generation-checked arena of live objects.
// All methods are safe for concurrent use.
type Registry struct {
	slots       []slot
	free        []uint32
	outstanding int
	mu          sync.Mutex
}

var global = NewRegistry()

// Global returns the process-wide registry.
func Global() *Registry { return global }

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Make stores obj and returns a token that resolves to it as a T.
func Make[T any](r *Registry, obj T) Token {
	return r.insert(obj, reflect.TypeFor[T]())
}

// Resolve returns the object behind tok. It fails with InvalidHandle if the
// token was never issued, has been destroyed, or belongs to another type.
func Resolve[T any](r *Registry, tok Token) (T, error) {
	var zero T
	obj, err := r.lookup(tok, reflect.TypeFor[T]())
	if err != nil {
		return zero, err
	}
	return obj.(T), nil //nolint:forcetypeassert // tag checked by lookup
}

// Destroy invalidates tok and releases its object. Objects implementing
// io.Closer are closed after the slot is freed. Destroying a token twice
// fails with InvalidHandle.
func Destroy[T any](r *Registry, tok Token) error {
	obj, err := r.remove(tok, reflect.TypeFor[T]())
	if err != nil {
		return err
	}
	closeObject(obj)
	return nil
}

// Outstanding returns the number of live objects.
func (r *Registry) Outstanding() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.outstanding
}

// Tokens returns the tokens of every live object in slot order.
func (r *Registry) Tokens() []Token {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]Token, 0, r.outstanding)
	for i, s := range r.slots {
		if s.live {
			out = append(out, makeToken(s.gen, uint32(i))) //nolint:gosec // G115: slot count is bounded by insert
		}
	}
	return out
}

// OutstandingOf returns the number of live objects stored as a T.
func OutstandingOf[T any](r *Registry) int {
	tag := reflect.TypeFor[T]()
	r.mu.Lock()
	defer r.mu.Unlock()

	n := 0
	for _, s := range r.slots {
		if s.live && s.tag == tag {
			n++
		}
	}
	return n
}

// DestroyAll releases every live object regardless of type and returns how
// many were released.
func (r *Registry) DestroyAll() int {
	return r.destroyWhere(func(reflect.Type) bool { return true })
}

// DestroyAllOf releases every live object stored as a T and returns how many
// were released. Objects of other types are untouched.
func DestroyAllOf[T any](r *Registry) int {
	tag := reflect.TypeFor[T]()
	return r.destroyWhere(func(t reflect.Type) bool { return t == tag })
}

func (r *Registry) destroyWhere(match func(reflect.Type) bool) int {
	r.mu.Lock()
	var objs []any
	for i := range r.slots {
		if r.slots[i].live && match(r.slots[i].tag) {
			objs = append(objs, r.release(uint32(i))) //nolint:gosec // G115: slot count is bounded by insert
		}
	}
	r.mu.Unlock()

	for _, obj := range objs {
		closeObject(obj)
	}
	return len(objs)
}

func (r *Registry) insert(obj any, tag reflect.Type) Token {
	r.mu.Lock()
	defer r.mu.Unlock()

	var index uint32
	if n := len(r.free); n > 0 {
		index = r.free[n-1]
		r.free = r.free[:n-1]
	} else {
		if len(r.slots) == 0xFFFFFFFF {
			panic("handle: registry slot space exhausted")
		}
		index = uint32(len(r.slots)) //nolint:gosec // G115: checked above
		r.slots = append(r.slots, slot{gen: 1})
	}

	s := &r.slots[index]
	s.obj = obj
	s.tag = tag
	s.live = true
	r.outstanding++
	return makeToken(s.gen, index)
}

func (r *Registry) lookup(tok Token, tag reflect.Type) (any, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, err := r.check(tok, tag)
	if err != nil {
		return nil, err
	}
	return s.obj, nil
}

func (r *Registry) remove(tok Token, tag reflect.Type) (any, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, err := r.check(tok, tag); err != nil {
		return nil, err
	}
	_, index := tok.split()
	return r.release(index), nil
}

// check validates generation before type. Callers hold r.mu.
func (r *Registry) check(tok Token, tag reflect.Type) (*slot, error) {
	gen, index := tok.split()
	if int(index) >= len(r.slots) || gen == 0 {
		return nil, &errors.HandleError{Token: uint64(tok), Reason: "unknown slot"}
	}
	s := &r.slots[index]
	if !s.live || s.gen != gen {
		return nil, &errors.HandleError{Token: uint64(tok), Reason: "released handle"}
	}
	if s.tag != tag {
		return nil, &errors.HandleError{
			Token:  uint64(tok),
			Reason: "type mismatch: holds " + s.tag.String() + ", want " + tag.String(),
		}
	}
	return s, nil
}

// release frees slot index and returns its object. Callers hold r.mu.
func (r *Registry) release(index uint32) any {
	s := &r.slots[index]
	obj := s.obj
	s.obj = nil
	s.tag = nil
	s.live = false
	s.gen++
	if s.gen == 0 {
		s.gen = 1
	}
	r.free = append(r.free, index)
	r.outstanding--
	return obj
}

func closeObject(obj any) {
	c, ok := obj.(io.Closer)
	if !ok {
		return
	}
	if err := c.Close(); err != nil {
		slog.Warn("handle: close failed", "type", reflect.TypeOf(obj).String(), "error", err)
	}
}
