package model

import "time"

type Vendor struct {
	ID                   uint64     `gorm:"column:id;primaryKey;autoIncrement"`
	LegalName            string     `gorm:"column:legal_name;type:text;not null"`
	TradingName          string     `gorm:"column:trading_name;type:text"`
	RegistrationNumber   string     `gorm:"column:registration_number;type:text;not null;uniqueIndex:idx_vendors_reg_no"`
	Email                string     `gorm:"column:email;type:text"`
	Phone                string     `gorm:"column:phone;type:text"`
	Address              string     `gorm:"column:address;type:text"`
	Status               string     `gorm:"column:status;type:text;not null;default:PENDING;index:idx_vendors_status"`
	RiskScore            int        `gorm:"column:risk_score;not null;default:0;index:idx_vendors_risk_score"`
	LastRiskCalculatedAt *time.Time `gorm:"column:last_risk_calculated_at"`
	OnboardingNotes      string     `gorm:"column:onboarding_notes;type:text"`
	CreatedBy            string     `gorm:"column:created_by;type:text;not null"`
	UpdatedBy            string     `gorm:"column:updated_by;type:text;not null"`
	CreatedAt            time.Time  `gorm:"column:created_at;not null"`
	UpdatedAt            time.Time  `gorm:"column:updated_at;not null"`
}

func (Vendor) TableName() string {
	return "vendors"
}
