// Package panicerr turns panics raised inside a call into ordinary errors.
package panicerr

import (
	"context"

	"github.com/sourcegraph/conc/panics"
)

// SafeContext wraps fn so that a panic inside it is returned as an error.
func SafeContext(fn func(context.Context) error) func(context.Context) error {
	return func(ctx context.Context) error {
		var (
			catcher panics.Catcher
			err     error
		)
		catcher.Try(func() {
			err = fn(ctx)
		})
		if err != nil {
			return err
		}
		return catcher.Recovered().AsError()
	}
}

// Call runs fn and returns its results. A panic inside fn is reported as
// the returned error together with the zero value of T.
func Call[T any](fn func() (T, error)) (T, error) {
	var (
		catcher panics.Catcher
		v       T
		err     error
	)
	catcher.Try(func() {
		v, err = fn()
	})
	if r := catcher.Recovered(); r != nil {
		var zero T
		return zero, r.AsError()
	}
	return v, err
}
