package errors

import "fmt"

// MissingColumnError indicates a required claim column was absent from the
// source feed. This is a configuration/schema error, not recoverable within
// the run.
type MissingColumnError struct {
	Column string
}

func (e *MissingColumnError) Error() string {
	return fmt.Sprintf("required claim column %s is missing from the source feed", e.Column)
}

// InsufficientHistoryError indicates the claims feed does not span enough
// months to derive a birth window.
type InsufficientHistoryError struct {
	Months   int
	Required int
}

func (e *InsufficientHistoryError) Error() string {
	return fmt.Sprintf("only %d months of claims history available, minimum %d required", e.Months, e.Required)
}

// InvalidDateRangeError indicates the source date range cannot anchor a
// birth window.
type InvalidDateRangeError struct {
	Msg string
}

func (e *InvalidDateRangeError) Error() string {
	return fmt.Sprintf("invalid source date range: %s", e.Msg)
}
