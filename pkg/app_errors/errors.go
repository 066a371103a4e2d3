package apperrors

import "errors"

var (
	ErrTicketTypeNotFound   = errors.New("ticket type not found")
	ErrNotificationNotFound = errors.New("notification not found")
	ErrInsufficientStock    = errors.New("insufficient vault stock")
	ErrInvalidQuantity      = errors.New("quantity would become negative")
	ErrInvalidArgument      = errors.New("invalid argument")
	ErrInvalidInput         = errors.New("invalid input")
	ErrInternalServerError  = errors.New("internal server error")
)
