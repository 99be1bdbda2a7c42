package services

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Sentinel errors for failures the handlers map to distinct responses.
var (
	// ErrForbidden is returned when the acting user may not perform the
	// requested order mutation.
	ErrForbidden = errors.New("not allowed to perform this action")

	// ErrEmptyCart is returned when checkout is attempted with no cart or
	// an empty one.
	ErrEmptyCart = errors.New("cart is empty")

	// ErrOrderNumberConflict is the terminal failure after the single
	// order-number collision retry has also collided.
	ErrOrderNumberConflict = errors.New("could not allocate a unique order number")

	// ErrOrderNotDeletable guards administrative deletion: only pending or
	// cancelled orders may be removed.
	ErrOrderNotDeletable = errors.New("only pending or cancelled orders can be deleted")
)

// ValidationError reports every violated field of a request, not just the
// first one found.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for f := range e.Fields {
		names = append(names, f)
	}
	sort.Strings(names)
	parts := make([]string, 0, len(names))
	for _, f := range names {
		parts = append(parts, fmt.Sprintf("%s: %s", f, e.Fields[f]))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// NewValidationError builds a ValidationError for a single field.
func NewValidationError(field, problem string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: problem}}
}

// PreconditionError reports a business rule that blocks an order mutation
// before any state change, naming the offending product.
type PreconditionError struct {
	ProductName string
	Reason      string
}

func (e *PreconditionError) Error() string {
	return fmt.Sprintf("product %q: %s", e.ProductName, e.Reason)
}
