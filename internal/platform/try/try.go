// Package try turns failures, including panics, into values.
package try

import (
	"errors"
	"fmt"
)

// Result is the tagged outcome of Handle. Exactly one of Data or Err is
// meaningful, selected by Success.
type Result[T any] struct {
	Success bool
	Data    T
	Err     error
}

// Handle runs fn and reports its outcome as a Result. A panic inside fn is
// recovered: an error value is kept as-is, anything else is converted to an
// error carrying its printed form. Handle itself never panics.
func Handle[T any](fn func() (T, error)) (res Result[T]) {
	defer func() {
		if r := recover(); r != nil {
			res = Result[T]{Err: asError(r)}
		}
	}()

	data, err := fn()
	if err != nil {
		return Result[T]{Err: err}
	}
	return Result[T]{Success: true, Data: data}
}

// Go is Handle for functions without a result value.
func Go(fn func() error) error {
	return Handle(func() (struct{}, error) {
		return struct{}{}, fn()
	}).Err
}

// Unwrap returns the data and error as a conventional pair.
func (r Result[T]) Unwrap() (T, error) {
	return r.Data, r.Err
}

func asError(v any) error {
	if err, ok := v.(error); ok {
		return err
	}
	return errors.New(fmt.Sprint(v))
}
