package database

import (
	"context"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgerrcode"
	"github.com/pkg/errors"
)

const createArticlesTable = `CREATE TABLE IF NOT EXISTS articles (
    id SERIAL PRIMARY KEY,
    title VARCHAR NOT NULL,
    content TEXT NOT NULL,
    source VARCHAR NOT NULL
)`

// EnsureSchema creates missing tables. It is safe to call on every start.
func EnsureSchema(ctx context.Context, q Queryer) error {
	_, err := q.Exec(ctx, createArticlesTable)
	if err == nil {
		return nil
	}

	// Two instances starting at once may race on the implicit sequence creation.
	if IsCode(err, pgerrcode.UniqueViolation) {
		return nil
	}

	return errors.Wrap(err, "failed to create articles table")
}

// IsCode reports whether err is a Postgres error with one of the given SQLSTATE codes.
func IsCode(err error, codes ...string) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}

	for _, c := range codes {
		if pgErr.Code == c {
			return true
		}
	}

	return false
}
