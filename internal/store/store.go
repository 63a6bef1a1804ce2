// Package store persists stock items, invoices and payments in SQLite
// through sqlx. Every failure leaves the package as a *domain.StorageError,
// except lookups of unknown ids which return domain.ErrNotFound.
package store

import (
	"database/sql"
	"errors"
	"strings"
	"time"

	"medstock/m/domain"
)

// ErrDuplicate reports a unique constraint violation.
var ErrDuplicate = errors.New("duplicate record")

func storageErr(op string, err error) error {
	if err == nil {
		return nil
	}
	if isUniqueViolation(err) {
		return &domain.StorageError{Op: op, Err: errors.Join(ErrDuplicate, err)}
	}
	return &domain.StorageError{Op: op, Err: err}
}

func isUniqueViolation(err error) bool {
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func notFoundOr(op string, err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ErrNotFound
	}
	return storageErr(op, err)
}

func requireOneRow(op string, res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return storageErr(op, err)
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func toUnix(t time.Time) int64 {
	return t.UnixNano()
}

func fromUnix(n int64) time.Time {
	return time.Unix(0, n).UTC()
}
