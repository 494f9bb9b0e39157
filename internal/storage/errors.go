package storage

import (
	"database/sql"
	"errors"
	"strconv"
	"strings"

	"contas/internal/core"
)

// ErrEmailTaken is returned when a user with the same email already exists.
var ErrEmailTaken = errors.New("email already registered")

// wrap converts driver failures into core.StorageError. Missing rows become
// NotFoundError for the given entity.
func wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	var se *core.StorageError
	if errors.As(err, &se) || core.IsNotFound(err) || core.IsValidation(err) {
		return err
	}
	return &core.StorageError{Op: op, Err: err}
}

func notFound(entity string, id int64, op string, err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return core.NotFound(entity, id)
	}
	return wrap(op, err)
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func nullString(s string) sql.NullString {
	s = strings.TrimSpace(s)
	return sql.NullString{String: s, Valid: s != ""}
}

func nullInt(v int64) sql.NullInt64 {
	return sql.NullInt64{Int64: v, Valid: v != 0}
}

func nullDate(d core.Date) sql.NullString {
	return sql.NullString{String: d.String(), Valid: !d.IsZero()}
}

func parseNullDate(s sql.NullString) core.Date {
	if !s.Valid || s.String == "" {
		return core.Date{}
	}
	d, err := core.ParseDate(s.String)
	if err != nil {
		return core.Date{}
	}
	return d
}

func int64JSON(ids []int64) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.FormatInt(id, 10)
	}
	return "[" + strings.Join(parts, ",") + "]"
}
