package waitlist

import "fmt"

// WaitListError is a typed retry-coordination failure.
type WaitListError struct {
	Code    string
	Message string
}

func (e *WaitListError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// ErrWaitListExhausted marks an appointment that used up its maximum
// payment attempts. It is removed from the wait-list and escalated to a
// human-resolution path; the appointment cannot be billed automatically.
var ErrWaitListExhausted = &WaitListError{Code: "waitListExhausted", Message: "maximum payment attempts exhausted"}
