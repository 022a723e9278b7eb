package repositories

import (
	"errors"
	"fmt"
	"strings"

	"microloan/internal/core/domain"

	"github.com/go-sql-driver/mysql"
	"gorm.io/gorm"
)

const mysqlDuplicateEntry = 1062

// translate maps driver errors onto domain errors
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return fmt.Errorf("%v: %w", err, domain.ErrNotFound)
	case IsDuplicate(err):
		return fmt.Errorf("%v: %w", err, domain.ErrDuplicate)
	}
	return err
}

// IsDuplicate reports whether err is a unique-constraint violation
func IsDuplicate(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, domain.ErrDuplicate) || errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) && myErr.Number == mysqlDuplicateEntry {
		return true
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
