// internal/circulation/errors.go
package circulation

import (
	"errors"

	"libraryledger/internal/membership"
)

var (
	ErrItemNotFound         = errors.New("item not found")
	ErrMemberNotFound       = errors.New("member not found")
	ErrItemNotAvailable     = errors.New("item not available")
	ErrItemAlreadyAvailable = errors.New("item already available")
	ErrBorrowLimitExceeded  = errors.New("borrow limit exceeded")
	ErrInvalidDueDate       = errors.New("due date must be after today")
	ErrInconsistentSnapshot = errors.New("inconsistent snapshot")
)

const (
	CodeItemNotFound         = "item_not_found"
	CodeMemberNotFound       = "member_not_found"
	CodeItemNotAvailable     = "item_not_available"
	CodeItemAlreadyAvailable = "item_already_available"
	CodeBorrowLimitExceeded  = "borrow_limit_exceeded"
	CodeInvalidDueDate       = "invalid_due_date"
	CodeDuplicateBorrow      = "duplicate_borrow"
	CodeInternal             = "internal_error"
)

var errorCodes = []struct {
	err  error
	code string
}{
	{ErrItemNotFound, CodeItemNotFound},
	{ErrMemberNotFound, CodeMemberNotFound},
	{ErrItemNotAvailable, CodeItemNotAvailable},
	{ErrItemAlreadyAvailable, CodeItemAlreadyAvailable},
	{ErrBorrowLimitExceeded, CodeBorrowLimitExceeded},
	{ErrInvalidDueDate, CodeInvalidDueDate},
	{membership.ErrDuplicateBorrow, CodeDuplicateBorrow},
}

// ErrorCode maps a lending error to a stable code for clients and metrics.
func ErrorCode(err error) string {
	for _, c := range errorCodes {
		if errors.Is(err, c.err) {
			return c.code
		}
	}
	return CodeInternal
}

// ErrorForCode is the inverse of ErrorCode. It returns nil for unknown codes.
func ErrorForCode(code string) error {
	for _, c := range errorCodes {
		if c.code == code {
			return c.err
		}
	}
	return nil
}
