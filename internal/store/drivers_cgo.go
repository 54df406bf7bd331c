//go:build cgo

package store

import (
	"errors"
	"fmt"

	"github.com/mattn/go-sqlite3" // registers "sqlite3"
)

func init() {
	errorConverters = append(errorConverters, convertMattnError)
}

// convertMattnError maps constraint failures reported by the cgo sqlite driver
func convertMattnError(err error) error {
	var liteErr sqlite3.Error
	if !errors.As(err, &liteErr) {
		return nil
	}
	switch liteErr.ExtendedCode {
	case sqlite3.ErrConstraintUnique, sqlite3.ErrConstraintPrimaryKey:
		return fmt.Errorf("%w: %s", ErrUniqueViolation, liteErr.Error())
	case sqlite3.ErrConstraintForeignKey:
		return fmt.Errorf("%w: %s", ErrForeignKeyViolation, liteErr.Error())
	case sqlite3.ErrConstraintNotNull:
		return fmt.Errorf("%w: %s", ErrNotNullViolation, liteErr.Error())
	case sqlite3.ErrConstraintCheck:
		return fmt.Errorf("%w: %s", ErrCheckViolation, liteErr.Error())
	}
	return nil
}
