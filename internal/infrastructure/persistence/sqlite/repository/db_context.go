package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"vendorguard/internal/ports"
)

// dbFromContext joins the ambient transaction when one is present, so
// repository calls inside a UnitOfWork commit or roll back together.
func dbFromContext(ctx context.Context, db *gorm.DB) (*gorm.DB, error) {
	if ctx == nil {
		return nil, errors.New("context is required")
	}

	tx := ports.TxFromContext(ctx)
	if tx == nil {
		return db.WithContext(ctx), nil
	}

	gormTx, ok := tx.(*gorm.DB)
	if !ok || gormTx == nil {
		return nil, fmt.Errorf("invalid tx in context: %T", tx)
	}
	return gormTx.WithContext(ctx), nil
}
