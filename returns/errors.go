package returns

import "errors"

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrInvalidPrincipal is returned when a calculation is attempted with a
	// zero or negative principal. Principal is never silently clamped.
	ErrInvalidPrincipal = errors.New("principal must be positive")

	// ErrInvalidStartDate is returned when a calculation is attempted with a
	// zero start date.
	ErrInvalidStartDate = errors.New("start date is required")

	// ErrYearOutOfRange is returned when a rate is requested for a year the
	// schedule does not define.
	ErrYearOutOfRange = errors.New("year outside rate schedule")

	// ErrInvalidPolicy is returned by Policy.Validate for a malformed policy.
	ErrInvalidPolicy = errors.New("invalid policy")
)

// IsClientError reports whether an error stems from invalid caller input
// rather than an internal failure. Handlers map these to HTTP 400.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidPrincipal) ||
		errors.Is(err, ErrInvalidStartDate) ||
		errors.Is(err, ErrYearOutOfRange)
}
