package sqlite

import (
	"database/sql"
	"errors"
	"strings"
)

// Error handling utilities for SQLite.

// isUniqueViolation checks if an error is a unique constraint violation.
// When target is non-empty the check is narrowed to a single constraint,
// identified by its "table.column" spelling in the driver message, so
// callers can tell a username collision from an email collision.
func isUniqueViolation(err error, target string) bool {
	if err == nil {
		return false
	}
	errStr := err.Error()
	if !strings.Contains(errStr, "UNIQUE constraint failed") &&
		!strings.Contains(errStr, "constraint failed: UNIQUE") {
		return false
	}
	if target == "" {
		return true
	}
	return strings.Contains(errStr, target)
}

// isForeignKeyViolation checks if an error is a foreign key constraint violation.
func isForeignKeyViolation(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "FOREIGN KEY constraint failed")
}

// isNoRows checks if an error indicates no rows were found.
func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

// escapeLike escapes LIKE metacharacters in user-supplied search input.
// Queries using it must declare ESCAPE '\'.
func escapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `%`, `\%`)
	s = strings.ReplaceAll(s, `_`, `\_`)
	return s
}
