package core

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidDate        = errors.New("invalid date")
	ErrInvalidAmount      = errors.New("amount must be greater than zero")
	ErrInvalidKind        = errors.New("kind must be income or expense")
	ErrInvalidPercent     = errors.New("percentage must be between 0 and 100")
	ErrInvalidEmail       = errors.New("invalid email")
	ErrInvalidRole        = errors.New("role must be admin or user")
	ErrWeakPassword       = errors.New("password too short")
	ErrEmptyName          = errors.New("name is required")
	ErrDescriptionTooLong = errors.New("description too long (max 200 characters)")
	ErrReservedCategory   = errors.New("category \"transfer\" is reserved for transfers")
	ErrSameAccount        = errors.New("source and destination accounts must differ")
	ErrOverpayment        = errors.New("amount exceeds the open balance")
	ErrDebtSettled        = errors.New("debt is already paid")

	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInactiveUser       = errors.New("user is inactive")
	ErrForbidden          = errors.New("operation requires an admin")
)

// ValidationError reports bad input detected before any write.
type ValidationError struct {
	Field string
	Err   error
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Err.Error()
	}
	return e.Field + ": " + e.Err.Error()
}

func (e *ValidationError) Unwrap() error { return e.Err }

// Invalid wraps err as a ValidationError on field. Errors that already are
// validation errors are returned unchanged.
func Invalid(field string, err error) error {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return err
	}
	return &ValidationError{Field: field, Err: err}
}

// NotFoundError reports a referenced entity that is absent or owned by
// another user.
type NotFoundError struct {
	Entity string
	ID     int64
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %d not found", e.Entity, e.ID)
}

func NotFound(entity string, id int64) error {
	return &NotFoundError{Entity: entity, ID: id}
}

// AuthError reports bad credentials, an inactive user or a missing privilege.
type AuthError struct {
	Err error
}

func (e *AuthError) Error() string { return "auth: " + e.Err.Error() }

func (e *AuthError) Unwrap() error { return e.Err }

// StorageError wraps constraint violations and I/O failures of the store.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string { return "storage: " + e.Op + ": " + e.Err.Error() }

func (e *StorageError) Unwrap() error { return e.Err }

func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

func IsAuth(err error) bool {
	var ae *AuthError
	return errors.As(err, &ae)
}

func IsStorage(err error) bool {
	var se *StorageError
	return errors.As(err, &se)
}
