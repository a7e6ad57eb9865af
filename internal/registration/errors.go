package registration

import (
	"errors"
	"membership-workflow/internal/membershipapi"
)

var (
	// ErrPrecondition is wrapped by validation errors raised when a step is
	// attempted before an earlier step produced what it needs.
	ErrPrecondition = errors.New("precondition not met")
	// ErrBusy is returned when a workflow-mutating call arrives while a
	// remote call is still in flight.
	ErrBusy              = errors.New("another operation is in progress")
	ErrInvalidTransition = errors.New("invalid transition")
)

// Region names the error container a message is rendered into.
type Region string

const (
	RegionEpic    Region = "epicError"
	RegionUpload  Region = "uploadError"
	RegionPhoto   Region = "photoError"
	RegionMember  Region = "memberError"
	RegionPayment Region = "paymentError"
	RegionCard    Region = "cardError"
)

// Regions lists every error region in display order.
var Regions = []Region{
	RegionEpic,
	RegionUpload,
	RegionPhoto,
	RegionMember,
	RegionPayment,
	RegionCard,
}

// ValidationError is a local failure, no remote call was made.
type ValidationError struct {
	Region  Region
	Message string
	cause   error
}

func (e *ValidationError) Error() string {
	return e.Message
}

func (e *ValidationError) Unwrap() error {
	return e.cause
}

func invalid(region Region, message string) *ValidationError {
	return &ValidationError{Region: region, Message: message}
}

func precondition(region Region, message string) *ValidationError {
	return &ValidationError{Region: region, Message: message, cause: ErrPrecondition}
}

// remoteMessage picks what to show the user for a failed remote call: the
// server's detail when there is one, otherwise `fallback`.
func remoteMessage(err error, fallback string) string {
	var apiErr *membershipapi.Error
	if errors.As(err, &apiErr) && apiErr.Detail != "" {
		return apiErr.Detail
	}
	return fallback
}
