// Package board holds one in-memory view model per dashboard page. Each board
// owns its entity copies, applies mutations through the API only after the
// server acknowledged them, and keeps its copy equal to what a fresh load
// would show.
package board

import "errors"

var (
	// ErrAlreadyInterested is returned without a request when the viewer
	// already has an interest on the idea.
	ErrAlreadyInterested = errors.New("interest already expressed")
	// ErrCancelled is returned when the user declined a confirmation prompt.
	ErrCancelled = errors.New("cancelled")
)

// Confirm asks the user a yes/no question.
type Confirm func(prompt string) bool

// AlwaysConfirm accepts every prompt.
func AlwaysConfirm(string) bool { return true }

func confirmed(c Confirm, prompt string) bool {
	return c != nil && c(prompt)
}
