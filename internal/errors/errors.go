package errors

import "fmt"

type ValidationDetail struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type ValidationError struct {
	Message string
	Details []ValidationDetail
}

func (e *ValidationError) Error() string {
	return e.Message
}

func NewValidationError(message string, details ...ValidationDetail) *ValidationError {
	return &ValidationError{
		Message: message,
		Details: details,
	}
}

func IsValidationError(err error) (*ValidationError, bool) {
	if ve, ok := err.(*ValidationError); ok {
		return ve, true
	}
	return nil, false
}

type NotFoundError struct {
	Message string
}

func (e *NotFoundError) Error() string {
	return e.Message
}

func NewNotFoundError(message string) *NotFoundError {
	return &NotFoundError{Message: message}
}

func IsNotFoundError(err error) (*NotFoundError, bool) {
	if nfe, ok := err.(*NotFoundError); ok {
		return nfe, true
	}
	return nil, false
}

// InvalidTransitionError reports a status change the transition table
// does not permit, including any attempt out of a terminal state.
type InvalidTransitionError struct {
	Message string
	From    string
	To      string
}

func (e *InvalidTransitionError) Error() string {
	return e.Message
}

func NewInvalidTransitionError(from, to string) *InvalidTransitionError {
	return &InvalidTransitionError{
		Message: fmt.Sprintf("transition from %s to %s is not allowed", from, to),
		From:    from,
		To:      to,
	}
}

func IsInvalidTransitionError(err error) (*InvalidTransitionError, bool) {
	if ite, ok := err.(*InvalidTransitionError); ok {
		return ite, true
	}
	return nil, false
}

type MissingFieldError struct {
	Message string
	Field   string
}

func (e *MissingFieldError) Error() string {
	return e.Message
}

func NewMissingFieldError(field string) *MissingFieldError {
	return &MissingFieldError{
		Message: fmt.Sprintf("%s is required", field),
		Field:   field,
	}
}

func IsMissingFieldError(err error) (*MissingFieldError, bool) {
	if mfe, ok := err.(*MissingFieldError); ok {
		return mfe, true
	}
	return nil, false
}

type DuplicateError struct {
	Message string
}

func (e *DuplicateError) Error() string {
	return e.Message
}

func NewDuplicateError(message string) *DuplicateError {
	return &DuplicateError{Message: message}
}

func IsDuplicateError(err error) (*DuplicateError, bool) {
	if de, ok := err.(*DuplicateError); ok {
		return de, true
	}
	return nil, false
}

type InternalError struct {
	Message string
	Cause   error
}

func (e *InternalError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *InternalError) Unwrap() error {
	return e.Cause
}

func NewInternalError(message string, cause error) *InternalError {
	return &InternalError{
		Message: message,
		Cause:   cause,
	}
}

func IsInternalError(err error) (*InternalError, bool) {
	if ie, ok := err.(*InternalError); ok {
		return ie, true
	}
	return nil, false
}
