package market

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrInvalidInput      = errors.New("invalid input")
	ErrEmptyContent      = errors.New("content cannot be empty")
	ErrNotOwner          = errors.New("only the owner can modify this")
	ErrInvalidTransition = errors.New("invalid status transition")
)

func invalid(msg string) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, msg)
}
