package booking

import "fmt"

// Error codes surfaced by the booking engine. Conflicts and invalid
// transitions are user-actionable and must never be retried automatically.
const (
	CodeSlotConflict = "slotConflict"
	CodeInvalidState = "invalidState"
	CodeNotFound     = "notFound"
	CodeValidation   = "validation"
)

type BookingError struct {
	Code    string
	Message string
}

func (e *BookingError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func NewSlotConflictError(barberID, date, startTime string) error {
	return &BookingError{
		Code:    CodeSlotConflict,
		Message: fmt.Sprintf("slot %s %s for barber %s was just taken", date, startTime, barberID),
	}
}

func NewInvalidStateError(id, current string) error {
	return &BookingError{
		Code:    CodeInvalidState,
		Message: fmt.Sprintf("reservation %s is %s and cannot be transitioned", id, current),
	}
}

func NewNotFoundError(id string) error {
	return &BookingError{
		Code:    CodeNotFound,
		Message: fmt.Sprintf("reservation %s not found", id),
	}
}

func NewValidationError(msg string) error {
	return &BookingError{Code: CodeValidation, Message: msg}
}

// ErrorCode extracts the booking error code, or "" for foreign errors.
func ErrorCode(err error) string {
	if be, ok := err.(*BookingError); ok {
		return be.Code
	}
	return ""
}
