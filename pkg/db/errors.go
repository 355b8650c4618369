package db

import (
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/pkg/errors"
	"github.com/uptrace/bun/driver/pgdriver"
)

// IsDuplicateKey reports whether err is a unique constraint violation,
// normalized across the three supported engines.
func IsDuplicateKey(err error) bool {
	if err == nil {
		return false
	}

	var pgErr pgdriver.Error
	if errors.As(err, &pgErr) {
		return pgErr.Field('C') == "23505"
	}

	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return myErr.Number == 1062
	}

	// modernc/sqlite reports codes 2067 and 1555 with this message.
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
