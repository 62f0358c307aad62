package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"vendorguard/internal/domain/compliance"
	"vendorguard/internal/errs"
	"vendorguard/internal/infrastructure/persistence/sqlite/model"
	"vendorguard/internal/ports"
)

type DocumentRepository struct {
	db *gorm.DB
}

func NewDocumentRepository(db *gorm.DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

func (r *DocumentRepository) Create(ctx context.Context, d *ports.VendorDocument) error {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return err
	}

	row := model.VendorDocument{
		VendorID:   d.VendorID,
		Category:   string(d.Category),
		FileName:   d.FileName,
		MediaType:  d.MediaType,
		BlobRef:    d.BlobRef,
		ExpiryDate: d.ExpiryDate,
		UploadedBy: d.UploadedBy,
		UploadedAt: d.UploadedAt,
	}
	if row.UploadedAt.IsZero() {
		row.UploadedAt = time.Now().UTC()
	}
	if err := db.Create(&row).Error; err != nil {
		return errs.Wrap(err, "insert vendor document")
	}
	d.ID = row.ID
	d.UploadedAt = row.UploadedAt
	return nil
}

func (r *DocumentRepository) FindByID(ctx context.Context, id uint64) (ports.VendorDocument, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return ports.VendorDocument{}, err
	}

	var row model.VendorDocument
	if err := db.First(&row, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ports.VendorDocument{}, errs.Wrapf(compliance.ErrNotFound, "vendor document %d", id)
		}
		return ports.VendorDocument{}, errs.Wrap(err, "query vendor document")
	}
	return mapDocuments([]model.VendorDocument{row})[0], nil
}

func (r *DocumentRepository) FindByVendorNewestFirst(ctx context.Context, vendorID uint64) ([]ports.VendorDocument, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return nil, err
	}

	var rows []model.VendorDocument
	if err := db.
		Where("vendor_id = ?", vendorID).
		Order("uploaded_at desc, id desc").
		Find(&rows).Error; err != nil {
		return nil, errs.Wrap(err, "query vendor documents")
	}
	return mapDocuments(rows), nil
}

func (r *DocumentRepository) FindExpiredAsOf(ctx context.Context, asOf time.Time) ([]ports.VendorDocument, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return nil, err
	}

	var rows []model.VendorDocument
	if err := db.
		Joins("JOIN vendors ON vendors.id = vendor_documents.vendor_id").
		Where("vendor_documents.expiry_date <= ? AND vendors.status = ?", asOf, string(compliance.StatusApproved)).
		Order("vendor_documents.vendor_id asc, vendor_documents.id asc").
		Find(&rows).Error; err != nil {
		return nil, errs.Wrap(err, "query expired documents")
	}
	return mapDocuments(rows), nil
}

func mapDocuments(rows []model.VendorDocument) []ports.VendorDocument {
	docs := make([]ports.VendorDocument, 0, len(rows))
	for _, row := range rows {
		docs = append(docs, ports.VendorDocument{
			ID:         row.ID,
			VendorID:   row.VendorID,
			Category:   compliance.Category(row.Category),
			FileName:   row.FileName,
			MediaType:  row.MediaType,
			BlobRef:    row.BlobRef,
			ExpiryDate: row.ExpiryDate,
			UploadedBy: row.UploadedBy,
			UploadedAt: row.UploadedAt,
		})
	}
	return docs
}
