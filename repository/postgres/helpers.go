package postgres

import (
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/fastygo/taskapi/domain"
)

const (
	pgUniqueViolation = "23505"
	pgCheckViolation  = "23514"
	pgForeignKey      = "23503"
)

// validID reports whether id can be compared against a UUID column.
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

func pgCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

// translate maps constraint violations to domain errors and passes anything else through.
func translate(err error) error {
	switch pgCode(err) {
	case pgUniqueViolation:
		return domain.ErrEmailTaken
	case pgCheckViolation:
		return domain.WrapError(domain.ErrCodeInvalid, "Invalid field value", err)
	case pgForeignKey:
		return domain.ErrUserNotFound
	default:
		return err
	}
}
