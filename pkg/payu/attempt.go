package payu

import (
	"fmt"

	"github.com/google/uuid"
)

type AttemptState string

const (
	StateIdle       AttemptState = "idle"
	StateSubmitting AttemptState = "submitting"
	StateApproved   AttemptState = "approved"
	StateDeclined   AttemptState = "declined"
	StateFailed     AttemptState = "failed"
)

// Attempt tracks a single pass through the payment state machine:
// Idle -> Submitting -> Approved | Declined | Failed. An attempt is never
// reused; a resubmission after a decline or failure is a fresh Attempt with
// a fresh reference code.
type Attempt struct {
	ReferenceCode string
	State         AttemptState
}

func NewAttempt() *Attempt {
	return &Attempt{
		ReferenceCode: "REF-" + uuid.NewString(),
		State:         StateIdle,
	}
}

func (a *Attempt) begin() error {
	if a.State != StateIdle {
		return fmt.Errorf("attempt %s already submitted (state %s)", a.ReferenceCode, a.State)
	}

	a.State = StateSubmitting

	return nil
}
