// Package errors provides the error taxonomy of the call gate.
// All error types support error unwrapping via errors.As() and errors.Is().
//
// Marshaling, arity and handle failures carry a Condition. A Condition is
// itself an error, so callers can test for one directly:
//
//	if errors.Is(err, errors.BadType) { ... }
package errors

import (
	stdErrors "errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/reglet-dev/callgate/domain/entities"
)

// ErrorDetail is an alias to entities.ErrorDetail for convenience.
type ErrorDetail = entities.ErrorDetail

// Condition names a class of failure at the call boundary.
type Condition string

const (
	BadType            Condition = "BadType"
	BadDimensionality  Condition = "BadDimensionality"
	BadSize            Condition = "BadSize"
	BadNumInputArgs    Condition = "BadNumInputArgs"
	BadNumOutputArgs   Condition = "BadNumOutputArgs"
	BadTypeConversion  Condition = "BadTypeConversion"
	BadParams          Condition = "BadParams"
	InvalidHandle      Condition = "InvalidHandle"
	UnknownMethod      Condition = "UnknownMethod"
	UnknownException   Condition = "UnknownException"
	HandlesOutstanding Condition = "HandlesOutstanding"
)

func (c Condition) Error() string { return string(c) }

// Conditioned is implemented by every structured error of this package.
type Conditioned interface {
	error
	Condition() Condition
}

// DetailedError is an interface for custom error types that can convert themselves
// to a structured ErrorDetail.
type DetailedError interface {
	error
	ToErrorDetail() *entities.ErrorDetail
}

// ConditionOf returns the condition of the first structured error in err's chain.
func ConditionOf(err error) (Condition, bool) {
	var c Conditioned
	if stdErrors.As(err, &c) {
		return c.Condition(), true
	}
	var cond Condition
	if stdErrors.As(err, &cond) {
		return cond, true
	}
	return "", false
}

// ToErrorDetail converts a Go error to our structured ErrorDetail.
func ToErrorDetail(err error) *entities.ErrorDetail {
	if err == nil {
		return nil
	}

	var e *entities.ErrorDetail
	if stdErrors.As(err, &e) {
		return e
	}

	var de DetailedError
	if stdErrors.As(err, &de) {
		return de.ToErrorDetail()
	}

	return entities.NewErrorDetail("internal", err.Error())
}

// MarshalError reports a type, shape, arity or conversion failure.
type MarshalError struct {
	Err     error
	Cond    Condition
	Message string
}

// NewMarshalError builds a MarshalError with a formatted expected-vs-actual message.
func NewMarshalError(cond Condition, format string, args ...any) *MarshalError {
	return &MarshalError{Cond: cond, Message: fmt.Sprintf(format, args...)}
}

func (e *MarshalError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Cond, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Cond, e.Message)
}

// Condition implements Conditioned.
func (e *MarshalError) Condition() Condition { return e.Cond }

func (e *MarshalError) Unwrap() error { return e.Err }

// Is matches the error's Condition.
func (e *MarshalError) Is(target error) bool {
	c, ok := target.(Condition)
	return ok && c == e.Cond
}

// ToErrorDetail implements DetailedError.
func (e *MarshalError) ToErrorDetail() *entities.ErrorDetail {
	return entities.NewErrorDetail("marshal", e.Message).WithCode(string(e.Cond))
}

// InField prefixes the message of a structured error with the field it came
// from, preserving its condition. Other errors are returned unchanged.
func InField(err error, field string) error {
	var me *MarshalError
	if stdErrors.As(err, &me) {
		return &MarshalError{
			Cond:    me.Cond,
			Message: fmt.Sprintf("field %q: %s", field, me.Message),
			Err:     me.Err,
		}
	}
	return err
}

// HandleError reports a token that does not resolve to a live object of the expected type.
type HandleError struct {
	Reason string
	Token  uint64
}

func (e *HandleError) Error() string {
	return fmt.Sprintf("%s: token 0x%016x: %s", InvalidHandle, e.Token, e.Reason)
}

// Condition implements Conditioned.
func (e *HandleError) Condition() Condition { return InvalidHandle }

// Is matches InvalidHandle.
func (e *HandleError) Is(target error) bool {
	c, ok := target.(Condition)
	return ok && c == InvalidHandle
}

// ToErrorDetail implements DetailedError.
func (e *HandleError) ToErrorDetail() *entities.ErrorDetail {
	return entities.NewErrorDetail("handle", e.Error()).
		WithCode(string(InvalidHandle)).
		WithDetails(map[string]any{"token": e.Token})
}

// MethodError reports a lookup miss in a method table.
type MethodError struct {
	Table string
	Name  string
	Known []string
}

func (e *MethodError) Error() string {
	known := "none"
	if len(e.Known) > 0 {
		known = strings.Join(e.Known, ", ")
	}
	return fmt.Sprintf("%s: no %s method %q (registered: %s)", UnknownMethod, e.Table, e.Name, known)
}

// Condition implements Conditioned.
func (e *MethodError) Condition() Condition { return UnknownMethod }

// Is matches UnknownMethod.
func (e *MethodError) Is(target error) bool {
	c, ok := target.(Condition)
	return ok && c == UnknownMethod
}

// ToErrorDetail implements DetailedError.
func (e *MethodError) ToErrorDetail() *entities.ErrorDetail {
	return entities.NewErrorDetail("dispatch", e.Error()).
		WithCode(string(UnknownMethod)).
		WithDetails(map[string]any{"registered": e.Known})
}

// BoundaryError is the single structured error a failed call produces.
// ID is "<component>:<condition>" with both segments reduced to ASCII letters and digits.
type BoundaryError struct {
	ID        string
	Component string
	Condition string
	Message   string
	Trace     string
}

// NewBoundaryError builds a BoundaryError and derives its ID.
func NewBoundaryError(component, condition, message, trace string) *BoundaryError {
	return &BoundaryError{
		ID:        MakeErrorID(component, condition),
		Component: component,
		Condition: condition,
		Message:   message,
		Trace:     trace,
	}
}

func (e *BoundaryError) Error() string {
	return fmt.Sprintf("%s: %s", e.ID, e.Message)
}

// Is matches a Condition equal to the boundary error's condition.
func (e *BoundaryError) Is(target error) bool {
	c, ok := target.(Condition)
	return ok && string(c) == e.Condition
}

// ToErrorDetail implements DetailedError.
func (e *BoundaryError) ToErrorDetail() *entities.ErrorDetail {
	detail := &entities.ErrorDetail{Message: e.Message, Type: "boundary", Code: e.ID}
	if e.Trace != "" {
		detail.Stack = []byte(e.Trace)
	}
	return detail
}

// MakeErrorID joins component and condition as "<component>:<condition>",
// stripping everything but ASCII letters and digits from each segment.
func MakeErrorID(component, condition string) string {
	return alnum(component) + ":" + alnum(condition)
}

func alnum(s string) string {
	return strings.Map(func(r rune) rune {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			return r
		}
		return -1
	}, s)
}

// CausalTrace renders err and every error it wraps, outermost first.
func CausalTrace(err error) string {
	var lines []string
	for e := err; e != nil; e = stdErrors.Unwrap(e) {
		lines = append(lines, e.Error())
	}
	if len(lines) < 2 {
		return ""
	}
	return strings.Join(lines, "\ncaused by: ")
}
