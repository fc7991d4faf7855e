package assess

import (
	"errors"
	"fmt"
)

// ErrInvalidInput is matched by every InvalidInputError.
var ErrInvalidInput = errors.New("invalid input")

// InvalidInputError reports an absent top-level argument.
type InvalidInputError struct {
	Field string
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("invalid input: %s is required", e.Field)
}

func (e *InvalidInputError) Is(target error) bool {
	return target == ErrInvalidInput
}
