package postgres

import (
	"database/sql"
	"errors"
)

// isNotFound distinguishes an empty result from a real query failure.
func isNotFound(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
