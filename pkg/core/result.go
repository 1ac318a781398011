package core

import (
	"math"
	"reflect"
)

// Result is the normalized outcome of one job execution. Status is the tag:
// a successful result may carry Data, a failed one carries Msg and, when the
// action errored or panicked, the cause in Err.
type Result struct {
	Job    string
	Status bool
	Msg    string
	Data   any
	Err    error
}

// Success returns a successful Result carrying data.
func Success(data any) Result {
	return Result{Status: true, Data: data}
}

// Failure returns a failed Result with a diagnostic message.
func Failure(msg string) Result {
	return Result{Status: false, Msg: msg}
}

// FailureErr returns a failed Result for err. The message is err.Error().
func FailureErr(err error) Result {
	if err == nil {
		return Result{Status: false}
	}
	return Result{Status: false, Msg: err.Error(), Err: err}
}

// Normalize converts an arbitrary action return value into a Result.
// Results are passed through untouched. Any other value becomes a success
// carrying that value when it is truthy, and a bare failure when it is not.
func Normalize(v any) Result {
	switch r := v.(type) {
	case Result:
		return r
	case *Result:
		if r != nil {
			return *r
		}
		return Result{Status: false}
	}
	if !Truthy(v) {
		return Result{Status: false}
	}
	return Result{Status: true, Data: v}
}

// Truthy reports whether v counts as a positive outcome when an action
// returns a bare value instead of a Result.
//
// nil, false, numeric zero, NaN, the empty string and nil pointers, maps,
// slices, channels, funcs and interfaces are falsy. Everything else,
// including empty non-nil slices and zero-valued structs, is truthy.
func Truthy(v any) bool {
	if v == nil {
		return false
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Bool:
		return rv.Bool()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int() != 0
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return rv.Uint() != 0
	case reflect.Float32, reflect.Float64:
		f := rv.Float()
		return f != 0 && !math.IsNaN(f)
	case reflect.String:
		return rv.Len() > 0
	case reflect.Ptr, reflect.Map, reflect.Slice, reflect.Chan, reflect.Func, reflect.Interface:
		return !rv.IsNil()
	}
	return true
}
