package embedding

import (
	"errors"
	"fmt"
)

// TransientError marks an embedding failure worth retrying: rate limits,
// upstream 5xx, network hiccups. Everything else is fatal for the item being
// embedded and must not burn retry budget.
type TransientError struct {
	Err error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("transient embedding error: %v", e.Err)
}

func (e *TransientError) Unwrap() error {
	return e.Err
}

// Transient wraps err as retry-eligible.
func Transient(err error) error {
	if err == nil {
		return nil
	}
	return &TransientError{Err: err}
}

// IsTransient reports whether err is retry-eligible.
func IsTransient(err error) bool {
	var te *TransientError
	return errors.As(err, &te)
}

// classifyStatus converts an HTTP status from an embedding backend into the
// transient/fatal taxonomy. 429 and 5xx are transient.
func classifyStatus(status int, err error) error {
	if status == 429 || status >= 500 {
		return Transient(err)
	}
	return err
}
