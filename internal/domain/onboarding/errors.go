package onboarding

import (
	"errors"
	"fmt"
)

var ErrEmailAlreadyExists = errors.New("email is already registered")

// PartialFailureError reports that the remote account was created but the
// local employee node was not. The orphaned AuthID must reach an operator or
// a reconciliation job; this error is never collapsed into a generic one.
type PartialFailureError struct {
	AuthID int64
	Err    error
}

func (e *PartialFailureError) Error() string {
	return fmt.Sprintf("account %d was created remotely but employee provisioning failed: %v", e.AuthID, e.Err)
}

func (e *PartialFailureError) Unwrap() error {
	return e.Err
}
