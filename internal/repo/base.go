package repo

import (
	"context"

	"gorm.io/gorm"
)

// Base is embedded by the gorm repositories. It carries the connection and
// the helpers every repository repeats.
type Base struct {
	db *gorm.DB
}

func NewBase(db *gorm.DB) Base {
	return Base{db: db}
}

// DB returns the connection scoped to ctx. A nil ctx returns it unscoped.
func (b Base) DB(ctx context.Context) *gorm.DB {
	if ctx == nil {
		return b.db
	}
	return b.db.WithContext(ctx)
}

// Bind returns a copy of the base that runs its queries on tx. A nil tx keeps
// the current connection.
func (b Base) Bind(tx *gorm.DB) Base {
	if tx == nil {
		return b
	}
	return Base{db: tx}
}

// On is Bind(tx).DB(ctx), the usual entry for writes that may join a
// caller's transaction.
func (b Base) On(ctx context.Context, tx *gorm.DB) *gorm.DB {
	return b.Bind(tx).DB(ctx)
}

// Affected turns an update or delete that matched no rows into
// gorm.ErrRecordNotFound.
func Affected(res *gorm.DB) error {
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
