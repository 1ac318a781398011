// Package handler provides internal reflection-based action execution.
//
// This package is internal and should not be imported directly.
// It provides:
//   - Handler: signature metadata for a caller-supplied job action
//   - Conversion of a run's input into the action's argument type
//   - Uniform invocation returning (value, error)
package handler
