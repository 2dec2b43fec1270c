package models

import "fmt"

// Error codes used in verification results and internal error handling.
const (
	ErrCodeProvisioning    = "PROVISIONING_FAILED"
	ErrCodeNavigation      = "NAVIGATION_FAILED"
	ErrCodeElementNotFound = "ELEMENT_NOT_FOUND"
	ErrCodeStepFailed      = "STEP_FAILED"
	ErrCodeArbiter         = "ARBITER_FAILED"
	ErrCodeArtifactCapture = "ARTIFACT_CAPTURE_FAILED"
	ErrCodeInvalidTarget   = "INVALID_TARGET"
	ErrCodeMissingCreds    = "MISSING_CREDENTIALS"
)

// CheckError is the internal error type carrying an error code.
// It implements the error interface and supports error wrapping via Unwrap.
type CheckError struct {
	Code    string
	Message string
	Err     error // wrapped original error
}

func (e *CheckError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *CheckError) Unwrap() error {
	return e.Err
}

// NewCheckError creates a new CheckError.
func NewCheckError(code, message string, err error) *CheckError {
	return &CheckError{Code: code, Message: message, Err: err}
}
