package oracle

import "fmt"

// Kind classifies an oracle failure.
type Kind string

const (
	KindUnavailable Kind = "unavailable"
	KindTimeout     Kind = "timeout"
	KindSchema      Kind = "schema"
)

// Error is any failure of a flow: the model was unreachable, timed out, or
// returned content that does not fit the declared output shape.
type Error struct {
	Flow string
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("oracle %s: %s: %v", e.Flow, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }
