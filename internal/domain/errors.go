package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrForbidden          = errors.New("not authorized to access this")
	ErrDuplicateDate      = errors.New("entry already exists for this date")
	ErrUsernameTaken      = errors.New("username already registered")
	ErrInvalidDate        = errors.New("invalid date format, use YYYY-MM-DD")
	ErrInvalidCredentials = errors.New("incorrect username or password")
	ErrUnauthenticated    = errors.New("could not validate credentials")
)

// ValidationError reports malformed input for a single field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// UnknownMetricTypeError is returned for a metric type with no registered schema.
type UnknownMetricTypeError struct {
	Type    string
	Allowed []string
}

func (e *UnknownMetricTypeError) Error() string {
	return fmt.Sprintf("unknown metric_type %q, allowed: %s", e.Type, strings.Join(e.Allowed, ", "))
}

// InvalidValueError reports a metric value that violates its type's schema.
type InvalidValueError struct {
	MetricType string
	Field      string
	Constraint string
}

func (e *InvalidValueError) Error() string {
	return fmt.Sprintf("invalid %s value: field %q violates %s", e.MetricType, e.Field, e.Constraint)
}

// DuplicateDateError is a uniqueness conflict on the date of an entry.
// ExistingID is zero when the conflict was detected by the store's unique key.
type DuplicateDateError struct {
	Resource   string
	Date       Date
	ExistingID int64
}

func (e *DuplicateDateError) Error() string {
	return fmt.Sprintf("%s already exists for date %s", e.Resource, e.Date)
}

func (e *DuplicateDateError) Is(target error) bool {
	return target == ErrDuplicateDate
}
