package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"vendorguard/internal/domain/compliance"
	"vendorguard/internal/errs"
	"vendorguard/internal/infrastructure/persistence/sqlite/model"
	"vendorguard/internal/ports"
)

type FlagRepository struct {
	db *gorm.DB
}

func NewFlagRepository(db *gorm.DB) *FlagRepository {
	return &FlagRepository{db: db}
}

// Create inserts an unresolved flag. The partial unique index on
// (vendor_id, reason) for unresolved sweep flags turns a concurrent
// double-insert into a constraint violation, reported as created=false.
func (r *FlagRepository) Create(ctx context.Context, f *ports.AuditFlag) (bool, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return false, err
	}

	row := model.AuditFlag{
		VendorID:    f.VendorID,
		Reason:      string(f.Reason),
		Description: f.Description,
		Resolved:    false,
		CreatedBy:   f.CreatedBy,
		CreatedAt:   f.CreatedAt,
	}
	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now().UTC()
	}
	if err := db.Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			return false, nil
		}
		return false, errs.Wrap(err, "insert audit flag")
	}
	f.ID = row.ID
	f.CreatedAt = row.CreatedAt
	return true, nil
}

func (r *FlagRepository) FindByID(ctx context.Context, id uint64) (ports.AuditFlag, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return ports.AuditFlag{}, err
	}

	var row model.AuditFlag
	if err := db.First(&row, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ports.AuditFlag{}, errs.Wrapf(compliance.ErrNotFound, "audit flag %d", id)
		}
		return ports.AuditFlag{}, errs.Wrap(err, "query audit flag")
	}
	return mapFlag(row), nil
}

func (r *FlagRepository) MarkResolved(ctx context.Context, id uint64, at time.Time) error {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return err
	}

	res := db.Model(&model.AuditFlag{}).
		Where("id = ? AND resolved = ?", id, false).
		Updates(map[string]any{"resolved": true, "resolved_at": at})
	if res.Error != nil {
		return errs.Wrap(res.Error, "resolve audit flag")
	}
	if res.RowsAffected == 0 {
		return errs.Wrapf(compliance.ErrInvalidTransition, "audit flag %d is already resolved", id)
	}
	return nil
}

func (r *FlagRepository) FindUnresolvedByVendor(ctx context.Context, vendorID uint64) ([]ports.AuditFlag, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return nil, err
	}

	var rows []model.AuditFlag
	if err := db.
		Where("vendor_id = ? AND resolved = ?", vendorID, false).
		Order("created_at desc, id desc").
		Find(&rows).Error; err != nil {
		return nil, errs.Wrap(err, "query unresolved flags")
	}

	flags := make([]ports.AuditFlag, 0, len(rows))
	for _, row := range rows {
		flags = append(flags, mapFlag(row))
	}
	return flags, nil
}

func (r *FlagRepository) CountUnresolvedByVendor(ctx context.Context, vendorID uint64) (int64, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return 0, err
	}

	var count int64
	if err := db.Model(&model.AuditFlag{}).
		Where("vendor_id = ? AND resolved = ?", vendorID, false).
		Count(&count).Error; err != nil {
		return 0, errs.Wrap(err, "count unresolved flags")
	}
	return count, nil
}

func (r *FlagRepository) HasUnresolved(ctx context.Context, vendorID uint64, reason compliance.FlagReason) (bool, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return false, err
	}

	var count int64
	if err := db.Model(&model.AuditFlag{}).
		Where("vendor_id = ? AND reason = ? AND resolved = ?", vendorID, string(reason), false).
		Count(&count).Error; err != nil {
		return false, errs.Wrap(err, "count flags by reason")
	}
	return count > 0, nil
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func mapFlag(row model.AuditFlag) ports.AuditFlag {
	return ports.AuditFlag{
		ID:          row.ID,
		VendorID:    row.VendorID,
		Reason:      compliance.FlagReason(row.Reason),
		Description: row.Description,
		Resolved:    row.Resolved,
		ResolvedAt:  row.ResolvedAt,
		CreatedBy:   row.CreatedBy,
		CreatedAt:   row.CreatedAt,
	}
}
