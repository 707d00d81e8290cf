package domain

import "errors"

var (
	// ErrQuotaExceeded is returned when a user already holds the maximum
	// number of builds for a hero.
	ErrQuotaExceeded = errors.New("Maximum 3 builds allowed per hero")

	// ErrOrderConflict means an insert collided with an existing
	// (user, hero, display_order) row. The service retries this once;
	// it should not reach a client.
	ErrOrderConflict = errors.New("display order already taken")

	ErrInvalidCredentials = errors.New("Invalid Credentials")
	ErrSeedInProgress     = errors.New("Seeding already in progress")
)

// NotFoundError covers a genuinely absent record and a record the caller
// does not own; the two are deliberately indistinguishable.
type NotFoundError struct {
	Resource string
}

func (e *NotFoundError) Error() string {
	return e.Resource + " not found"
}

type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string {
	return e.Msg
}
