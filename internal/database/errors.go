package database

import (
	"errors"

	"github.com/lib/pq"
)

var (
	// ErrDuplicateAccount is returned when an account violates the
	// username or email uniqueness constraint.
	ErrDuplicateAccount = errors.New("username or email already exists")

	ErrUserNotFound       = errors.New("user not found")
	ErrThermostatNotFound = errors.New("thermostat not found")
	ErrSensorNotFound     = errors.New("sensor not found")

	// ErrNotOwner is returned when a user operates on a thermostat
	// without a matching ownership row.
	ErrNotOwner = errors.New("user does not own thermostat")

	// ErrAlreadyAssigned is returned when a thermostat is assigned to a
	// user who already owns it.
	ErrAlreadyAssigned = errors.New("thermostat already assigned to user")
)

const (
	uniqueViolation     = "23505"
	foreignKeyViolation = "23503"
)

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}

func isForeignKeyViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == foreignKeyViolation
}
