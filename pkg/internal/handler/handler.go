package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"

	"github.com/jdziat/simple-job-queues/pkg/core"
)

var (
	contextType = reflect.TypeOf((*context.Context)(nil)).Elem()
	errorType   = reflect.TypeOf((*error)(nil)).Elem()
)

// Handler holds metadata about a job action.
type Handler struct {
	Fn         reflect.Value
	ArgType    reflect.Type // nil when the action takes no input
	HasContext bool
	HasValue   bool // returns a value besides (optionally) an error
	HasError   bool // last return value is an error
}

// NewHandler creates a Handler from a function. Accepted shapes:
//
//	func([ctx context.Context,] [in T]) R
//	func([ctx context.Context,] [in T]) (R, error)
//	func([ctx context.Context,] [in T]) error
func NewHandler(fn any) (*Handler, error) {
	if fn == nil {
		return nil, fmt.Errorf("%w: action cannot be nil", core.ErrInvalidAction)
	}

	fnVal := reflect.ValueOf(fn)
	if fnVal.Kind() != reflect.Func {
		return nil, fmt.Errorf("%w: got %T", core.ErrInvalidAction, fn)
	}
	if fnVal.IsNil() {
		return nil, fmt.Errorf("%w: action function cannot be nil", core.ErrInvalidAction)
	}

	fnType := fnVal.Type()
	if fnType.IsVariadic() {
		return nil, fmt.Errorf("%w: action cannot be variadic", core.ErrInvalidAction)
	}

	h := &Handler{Fn: fnVal}

	numIn := fnType.NumIn()
	if numIn > 2 {
		return nil, fmt.Errorf("%w: action must have 0-2 arguments", core.ErrInvalidAction)
	}
	argIdx := 0
	if numIn > 0 && fnType.In(0) == contextType {
		h.HasContext = true
		argIdx = 1
	}
	switch {
	case argIdx < numIn-1:
		return nil, fmt.Errorf("%w: only the first argument may be a context", core.ErrInvalidAction)
	case argIdx == numIn-1:
		h.ArgType = fnType.In(argIdx)
	}

	switch fnType.NumOut() {
	case 1:
		if fnType.Out(0) == errorType {
			h.HasError = true
		} else {
			h.HasValue = true
		}
	case 2:
		if fnType.Out(1) != errorType {
			return nil, fmt.Errorf("%w: action must return (T, error)", core.ErrInvalidAction)
		}
		h.HasValue = true
		h.HasError = true
	default:
		return nil, fmt.Errorf("%w: action must return a value, an error, or (T, error)", core.ErrInvalidAction)
	}

	return h, nil
}

// Call invokes the action with input converted to its argument type.
// Panics raised by the action are not recovered here.
func (h *Handler) Call(ctx context.Context, input any) (any, error) {
	if !h.Fn.IsValid() || h.Fn.IsNil() {
		return nil, fmt.Errorf("%w: handler function is nil or invalid", core.ErrInvalidAction)
	}

	var args []reflect.Value
	if h.HasContext {
		if ctx == nil {
			ctx = context.Background()
		}
		args = append(args, reflect.ValueOf(ctx))
	}
	if h.ArgType != nil {
		arg, err := ConvertArg(input, h.ArgType)
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
	}

	results := h.Fn.Call(args)

	var value any
	var err error
	if h.HasValue {
		value = results[0].Interface()
	}
	if h.HasError {
		if last := results[len(results)-1]; !last.IsNil() {
			err = last.Interface().(error)
		}
	}
	return value, err
}

// ConvertArg turns input into a value of type t. nil becomes the zero value,
// assignable values pass through, anything else goes through a JSON round trip.
func ConvertArg(input any, t reflect.Type) (reflect.Value, error) {
	if input == nil {
		return reflect.Zero(t), nil
	}

	v := reflect.ValueOf(input)
	if v.Type().AssignableTo(t) {
		return v, nil
	}

	raw, err := json.Marshal(input)
	if err != nil {
		return reflect.Value{}, fmt.Errorf("%w: %T to %s: %v", core.ErrInputNotAssignable, input, t, err)
	}
	ptr := reflect.New(t)
	if err := json.Unmarshal(raw, ptr.Interface()); err != nil {
		return reflect.Value{}, fmt.Errorf("%w: %T to %s: %v", core.ErrInputNotAssignable, input, t, err)
	}
	return ptr.Elem(), nil
}
