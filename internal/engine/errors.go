package engine

import "errors"

var (
	// ErrUserDeclined is returned when the user rejects a confirmation
	// prompt. It is a clean cancellation, not a failure.
	ErrUserDeclined = errors.New("operation cancelled by user")

	// ErrPackageNotFound is returned when a package is unknown to the
	// package universe.
	ErrPackageNotFound = errors.New("package not found")

	// ErrPlanInvalid is returned when plan validation found issues and
	// force was not requested.
	ErrPlanInvalid = errors.New("installation plan failed validation")

	// ErrManualResolution is returned when a plan carries conflicts and
	// automatic conflict resolution is disabled.
	ErrManualResolution = errors.New("conflicts require manual resolution")
)
