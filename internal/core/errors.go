package core

import (
	"errors"
	"fmt"
)

// Error taxonomy shared by every layer. Callers branch with errors.Is on the
// four category sentinels; the field-specific sentinels below wrap
// ErrInvalidInput so validation failures stay in one category.
var (
	ErrInvalidInput    = errors.New("invalid input")
	ErrNotFound        = errors.New("not found")
	ErrVersionConflict = errors.New("version conflict")
	ErrUnavailable     = errors.New("collaborator unavailable")
)

var (
	ErrInvalidAmount    = fmt.Errorf("%w: invalid amount", ErrInvalidInput)
	ErrInvalidPrincipal = fmt.Errorf("%w: principal must be positive", ErrInvalidInput)
	ErrInvalidRate      = fmt.Errorf("%w: rate must not be negative", ErrInvalidInput)
	ErrInvalidTenure    = fmt.Errorf("%w: tenure must be positive", ErrInvalidInput)
	ErrInvalidDate      = fmt.Errorf("%w: invalid date", ErrInvalidInput)
	ErrInvalidFrequency = fmt.Errorf("%w: invalid frequency", ErrInvalidInput)
	ErrEmptyDescription = fmt.Errorf("%w: empty description", ErrInvalidInput)
	ErrEmptyCategory    = fmt.Errorf("%w: empty category", ErrInvalidInput)
	ErrLoanPaidOff      = fmt.Errorf("%w: loan is already paid off", ErrInvalidInput)
)
