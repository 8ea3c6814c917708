package repositories

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrPostNotFound      = errors.New("post not found")
	ErrProfileNotFound   = errors.New("profile not found")
	ErrUsernameTaken     = errors.New("username already taken")
	ErrAlreadySubscribed = errors.New("email already subscribed")
)

// uniqueViolation is the SQLSTATE postgres reports for duplicate keys
const uniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
