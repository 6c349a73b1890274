package contract

import "fmt"

// Result carries either a decoded value or the error that prevented it.
type Result[T any] struct {
	Value T
	Err   error
}

// OK wraps a successful value.
func OK[T any](v T) Result[T] {
	return Result[T]{Value: v}
}

// Failed wraps an error.
func Failed[T any](err error) Result[T] {
	return Result[T]{Err: err}
}

// Degraded reports whether the value is missing.
func (r Result[T]) Degraded() bool {
	return r.Err != nil
}

// String returns the value's text form, or NotFound for a degraded result.
func (r Result[T]) String() string {
	if r.Err != nil {
		return NotFound
	}
	return fmt.Sprint(r.Value)
}
