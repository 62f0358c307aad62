package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"vendorguard/internal/errs"
	"vendorguard/internal/infrastructure/persistence/sqlite/model"
	"vendorguard/internal/ports"
)

type AuditLogRepository struct {
	db *gorm.DB
}

func NewAuditLogRepository(db *gorm.DB) *AuditLogRepository {
	return &AuditLogRepository{db: db}
}

func (r *AuditLogRepository) Append(ctx context.Context, e *ports.AuditLogEntry) error {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return err
	}

	row := model.AuditLog{
		Action:    e.Action,
		Actor:     e.Actor,
		VendorID:  e.VendorID,
		Details:   e.Details,
		CreatedAt: e.CreatedAt,
	}
	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now().UTC()
	}
	if err := db.Create(&row).Error; err != nil {
		return errs.Wrap(err, "append audit log entry")
	}
	e.ID = row.ID
	e.CreatedAt = row.CreatedAt
	return nil
}

func (r *AuditLogRepository) Query(ctx context.Context, filter ports.AuditLogFilter) ([]ports.AuditLogEntry, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return nil, err
	}

	query := db.Model(&model.AuditLog{})
	if filter.VendorID != nil {
		query = query.Where("vendor_id = ?", *filter.VendorID)
	}
	if filter.Action != "" {
		query = query.Where("action = ?", filter.Action)
	}

	var rows []model.AuditLog
	if err := query.Order("created_at desc, id desc").Find(&rows).Error; err != nil {
		return nil, errs.Wrap(err, "query audit log")
	}

	entries := make([]ports.AuditLogEntry, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, ports.AuditLogEntry{
			ID:        row.ID,
			Action:    row.Action,
			Actor:     row.Actor,
			VendorID:  row.VendorID,
			Details:   row.Details,
			CreatedAt: row.CreatedAt,
		})
	}
	return entries, nil
}
