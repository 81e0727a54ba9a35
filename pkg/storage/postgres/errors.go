package postgres

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// SQLSTATE codes the repositories translate.
const (
	CodeUniqueViolation     = "23505"
	CodeForeignKeyViolation = "23503"
	CodeNotNullViolation    = "23502"
	CodeStringTooLong       = "22001"
)

func pgCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

func IsUniqueViolation(err error) bool {
	return pgCode(err) == CodeUniqueViolation
}

func IsForeignKeyViolation(err error) bool {
	return pgCode(err) == CodeForeignKeyViolation
}

// IsCheckViolation reports input the column definitions rejected: a missing
// required value or a string longer than its column allows.
func IsCheckViolation(err error) bool {
	switch pgCode(err) {
	case CodeNotNullViolation, CodeStringTooLong:
		return true
	}
	return false
}
