// Package errors provides examples of structured error handling in slabpool.
package errors_test

import (
	stderrors "errors"
	"fmt"

	"github.com/ajitpratap0/slabpool/pkg/errors"
)

// Example demonstrates basic error creation and details.
func Example() {
	err := errors.New(errors.ErrorTypeValidation, "worker count must be positive").
		WithDetail("workers", 0)

	fmt.Println(err.Error())

	// Output:
	// validation: worker count must be positive
}

// ExampleWrap shows how a sentinel survives wrapping.
func ExampleWrap() {
	errBudget := stderrors.New("budget spent")

	err := errors.Wrap(errBudget, errors.ErrorTypeResourceExhausted, "failed to grow pool").
		WithDetail("per_pool", 64)

	if errors.IsExhausted(err) {
		fmt.Println("exhausted")
	}
	if stderrors.Is(err, errBudget) {
		fmt.Println("cause preserved")
	}
	fmt.Println(err)

	// Output:
	// exhausted
	// cause preserved
	// resource_exhausted: failed to grow pool: budget spent
}

// ExampleIsType demonstrates matching on the error category.
func ExampleIsType() {
	err := errors.New(errors.ErrorTypeClosed, "pool is shutting down")

	fmt.Println(errors.IsType(err, errors.ErrorTypeClosed))
	fmt.Println(errors.IsType(err, errors.ErrorTypeConfig))
	fmt.Println(errors.IsType(nil, errors.ErrorTypeClosed))

	// Output:
	// true
	// false
	// false
}
