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

type VendorRepository struct {
	db *gorm.DB
}

func NewVendorRepository(db *gorm.DB) *VendorRepository {
	return &VendorRepository{db: db}
}

func (r *VendorRepository) Create(ctx context.Context, v *ports.Vendor) error {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return err
	}

	row := toVendorModel(v)
	if err := db.Create(&row).Error; err != nil {
		return errs.Wrap(err, "insert vendor")
	}
	v.ID = row.ID
	v.CreatedAt = row.CreatedAt
	v.UpdatedAt = row.UpdatedAt
	return nil
}

func (r *VendorRepository) Update(ctx context.Context, v *ports.Vendor) error {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return err
	}

	row := toVendorModel(v)
	res := db.Model(&model.Vendor{}).Where("id = ?", v.ID).Updates(map[string]any{
		"status":           row.Status,
		"onboarding_notes": row.OnboardingNotes,
		"updated_by":       row.UpdatedBy,
		"updated_at":       time.Now().UTC(),
	})
	if res.Error != nil {
		return errs.Wrap(res.Error, "update vendor")
	}
	if res.RowsAffected == 0 {
		return errs.Wrapf(compliance.ErrNotFound, "vendor %d", v.ID)
	}
	return nil
}

func (r *VendorRepository) FindByID(ctx context.Context, id uint64) (ports.Vendor, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return ports.Vendor{}, err
	}

	var row model.Vendor
	if err := db.First(&row, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ports.Vendor{}, errs.Wrapf(compliance.ErrNotFound, "vendor %d", id)
		}
		return ports.Vendor{}, errs.Wrap(err, "query vendor")
	}
	return mapVendor(row), nil
}

func (r *VendorRepository) List(ctx context.Context, status *compliance.Status) ([]ports.Vendor, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return nil, err
	}

	query := db.Model(&model.Vendor{})
	if status != nil {
		query = query.Where("status = ?", string(*status))
	}

	var rows []model.Vendor
	if err := query.Order("created_at desc, id desc").Find(&rows).Error; err != nil {
		return nil, errs.Wrap(err, "query vendors")
	}

	vendors := make([]ports.Vendor, 0, len(rows))
	for _, row := range rows {
		vendors = append(vendors, mapVendor(row))
	}
	return vendors, nil
}

func (r *VendorRepository) ExistsByRegistrationNumber(ctx context.Context, regNo string) (bool, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return false, err
	}

	var count int64
	if err := db.Model(&model.Vendor{}).Where("registration_number = ?", regNo).Count(&count).Error; err != nil {
		return false, errs.Wrap(err, "count vendors by registration number")
	}
	return count > 0, nil
}

func (r *VendorRepository) FindByRiskScoreAtLeast(ctx context.Context, threshold int) ([]ports.Vendor, error) {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return nil, err
	}

	var rows []model.Vendor
	if err := db.Where("risk_score >= ?", threshold).Order("id asc").Find(&rows).Error; err != nil {
		return nil, errs.Wrap(err, "query high risk vendors")
	}

	vendors := make([]ports.Vendor, 0, len(rows))
	for _, row := range rows {
		vendors = append(vendors, mapVendor(row))
	}
	return vendors, nil
}

func (r *VendorRepository) SetRiskScore(ctx context.Context, vendorID uint64, score int, at time.Time) error {
	db, err := dbFromContext(ctx, r.db)
	if err != nil {
		return err
	}

	res := db.Model(&model.Vendor{}).Where("id = ?", vendorID).Updates(map[string]any{
		"risk_score":              score,
		"last_risk_calculated_at": at,
	})
	if res.Error != nil {
		return errs.Wrap(res.Error, "update vendor risk score")
	}
	if res.RowsAffected == 0 {
		return errs.Wrapf(compliance.ErrNotFound, "vendor %d", vendorID)
	}
	return nil
}

func toVendorModel(v *ports.Vendor) model.Vendor {
	now := time.Now().UTC()
	createdAt := v.CreatedAt
	if createdAt.IsZero() {
		createdAt = now
	}
	return model.Vendor{
		ID:                   v.ID,
		LegalName:            v.LegalName,
		TradingName:          v.TradingName,
		RegistrationNumber:   v.RegistrationNumber,
		Email:                v.Email,
		Phone:                v.Phone,
		Address:              v.Address,
		Status:               string(v.Status),
		RiskScore:            v.RiskScore,
		LastRiskCalculatedAt: v.LastRiskCalculatedAt,
		OnboardingNotes:      v.OnboardingNotes,
		CreatedBy:            v.CreatedBy,
		UpdatedBy:            v.UpdatedBy,
		CreatedAt:            createdAt,
		UpdatedAt:            now,
	}
}

func mapVendor(row model.Vendor) ports.Vendor {
	return ports.Vendor{
		ID:                   row.ID,
		LegalName:            row.LegalName,
		TradingName:          row.TradingName,
		RegistrationNumber:   row.RegistrationNumber,
		Email:                row.Email,
		Phone:                row.Phone,
		Address:              row.Address,
		Status:               compliance.Status(row.Status),
		RiskScore:            row.RiskScore,
		LastRiskCalculatedAt: row.LastRiskCalculatedAt,
		OnboardingNotes:      row.OnboardingNotes,
		CreatedBy:            row.CreatedBy,
		UpdatedBy:            row.UpdatedBy,
		CreatedAt:            row.CreatedAt,
		UpdatedAt:            row.UpdatedAt,
	}
}
