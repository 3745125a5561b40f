package negotiation

import (
	"errors"
	"fmt"
)

// Calls joined by the orchestrator.
const (
	CallNegotiatePrice = "negotiate_price"
	CallSuggestUpsells = "suggest_upsells"
)

var (
	ErrRecordNotFound = errors.New("negotiation record not found")
	ErrAlreadySettled = errors.New("negotiation record already settled")
)

// OrchestrationError reports that one of the joined oracle calls failed and
// the whole negotiation was abandoned.
type OrchestrationError struct {
	Call string
	Err  error
}

func (e *OrchestrationError) Error() string {
	return fmt.Sprintf("negotiation failed in %s: %v", e.Call, e.Err)
}

func (e *OrchestrationError) Unwrap() error { return e.Err }
