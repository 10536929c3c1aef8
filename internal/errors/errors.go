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

type ForbiddenError struct {
	Message string
}

func (e *ForbiddenError) Error() string {
	return e.Message
}

func NewForbiddenError(message string) *ForbiddenError {
	return &ForbiddenError{Message: message}
}

func IsForbiddenError(err error) (*ForbiddenError, bool) {
	if fe, ok := err.(*ForbiddenError); ok {
		return fe, true
	}
	return nil, false
}

// ConflictError signals a lost race on a conditional state transition.
// It is retryable from the client's point of view.
type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string {
	return e.Message
}

func NewConflictError(message string) *ConflictError {
	return &ConflictError{Message: message}
}

func IsConflictError(err error) (*ConflictError, bool) {
	if ce, ok := err.(*ConflictError); ok {
		return ce, true
	}
	return nil, false
}

// GuardViolationError signals an action attempted against an order or payment
// whose current state does not allow it. CurrentState is included so the
// caller can see what the entity actually is.
type GuardViolationError struct {
	Message      string
	CurrentState string
}

func (e *GuardViolationError) Error() string {
	if e.CurrentState != "" {
		return fmt.Sprintf("%s (current state: %s)", e.Message, e.CurrentState)
	}
	return e.Message
}

func NewGuardViolationError(message string, currentState string) *GuardViolationError {
	return &GuardViolationError{Message: message, CurrentState: currentState}
}

func IsGuardViolationError(err error) (*GuardViolationError, bool) {
	if ge, ok := err.(*GuardViolationError); ok {
		return ge, true
	}
	return nil, false
}

// VoucherInvalidError carries the specific reason a voucher failed validation.
type VoucherInvalidError struct {
	Reason string
}

func (e *VoucherInvalidError) Error() string {
	return "voucher invalid: " + e.Reason
}

func NewVoucherInvalidError(reason string) *VoucherInvalidError {
	return &VoucherInvalidError{Reason: reason}
}

func IsVoucherInvalidError(err error) (*VoucherInvalidError, bool) {
	if vie, ok := err.(*VoucherInvalidError); ok {
		return vie, true
	}
	return nil, false
}

type InsufficientFundsError struct {
	Message string
}

func (e *InsufficientFundsError) Error() string {
	return e.Message
}

func NewInsufficientFundsError(message string) *InsufficientFundsError {
	return &InsufficientFundsError{Message: message}
}

func IsInsufficientFundsError(err error) (*InsufficientFundsError, bool) {
	if ife, ok := err.(*InsufficientFundsError); ok {
		return ife, true
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
