package model

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidPolicy     = errors.New("invalid validation policy")
	ErrMalformedEvidence = errors.New("malformed evidence record")
	ErrInvalidInput      = errors.New("invalid input")
	ErrReportSealed      = errors.New("report already sealed")
)

// WrapError preserves typed semantic errors with operation context
func WrapError(kind error, operation string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", operation, kind, err)
}

// IsKind reports whether err carries the given sentinel kind
func IsKind(err error, kind error) bool {
	return errors.Is(err, kind)
}
