package repository

import (
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"

	"github.com/VishalMahato/LifeLine-sub001/internal/domain"

	"gorm.io/gorm"
)

// wrap maps storage errors onto the domain taxonomy, keeping the original
// error in the chain.
func wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	var opErr *net.OpError
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return fmt.Errorf("%s: %w", op, domain.ErrNotFound)
	case errors.Is(err, driver.ErrBadConn), errors.Is(err, sql.ErrConnDone), errors.As(err, &opErr):
		return fmt.Errorf("%s: %w: %v", op, domain.ErrStoreUnavailable, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}
