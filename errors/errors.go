package errors

import "errors"

var (
	ErrRoomNotFound        = errors.New("Selected room does not exist")
	ErrSlotAlreadyBooked   = errors.New("This room is already reserved for the selected date and time")
	ErrReservationNotFound = errors.New("Reservation not found")
	ErrNotAuthorized       = errors.New("Not authorized to perform this action")
	ErrPersistence         = errors.New("An error occurred while saving the reservation")
)

const (
	UsernameExist             = "Username already exists"
	EmailAlreadyExist         = "Email already exists in database"
	InvalidCredentials        = "Invalid username or password"
	ErrorToken                = "Error generating token"
	InvalidTokenError         = "Token is invalid"
	ExpiredTokenError         = "Recovery token has expired"
	InvalidRequestFormatError = "Invalid request format"
	EmailNotFound             = "Email not found"
)
