package store

import (
	"errors"
	"fmt"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib" // registers "pgx"
	_ "github.com/lib/pq"              // registers "postgres"
	"modernc.org/sqlite"               // registers "sqlite"
	sqlitelib "modernc.org/sqlite/lib"
)

func init() {
	errorConverters = append(errorConverters, convertModerncError)
}

// convertModerncError maps constraint failures reported by the pure-Go sqlite driver
func convertModerncError(err error) error {
	var liteErr *sqlite.Error
	if !errors.As(err, &liteErr) {
		return nil
	}
	switch liteErr.Code() {
	case sqlitelib.SQLITE_CONSTRAINT_UNIQUE, sqlitelib.SQLITE_CONSTRAINT_PRIMARYKEY:
		return fmt.Errorf("%w: %s", ErrUniqueViolation, liteErr.Error())
	case sqlitelib.SQLITE_CONSTRAINT_FOREIGNKEY:
		return fmt.Errorf("%w: %s", ErrForeignKeyViolation, liteErr.Error())
	case sqlitelib.SQLITE_CONSTRAINT_NOTNULL:
		return fmt.Errorf("%w: %s", ErrNotNullViolation, liteErr.Error())
	case sqlitelib.SQLITE_CONSTRAINT_CHECK:
		return fmt.Errorf("%w: %s", ErrCheckViolation, liteErr.Error())
	case sqlitelib.SQLITE_CONSTRAINT:
		if strings.Contains(liteErr.Error(), "UNIQUE constraint failed") {
			return fmt.Errorf("%w: %s", ErrUniqueViolation, liteErr.Error())
		}
	}
	return nil
}
