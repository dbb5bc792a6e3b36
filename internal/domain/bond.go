package domain

import (
	"time"

	"bonofacil-backend/internal/finance"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Bond is an issuer's bond definition plus the figures derived from it.
// CouponRate is stored in percent (8.5 means 8.5%).
type Bond struct {
	BondID              uuid.UUID       `gorm:"column:bond_id;type:uuid;primaryKey" json:"bond_id"`
	IssuerID            uuid.UUID       `gorm:"column:issuer_id;type:uuid;not null;index" json:"issuer_id"`
	Name                string          `gorm:"column:name;not null" json:"name"`
	Description         string          `gorm:"column:description" json:"description"`
	Currency            string          `gorm:"column:currency;not null;index" json:"currency"`
	FaceValue           decimal.Decimal `gorm:"column:face_value;type:decimal(20,2);not null" json:"face_value"`
	CouponRate          decimal.Decimal `gorm:"column:coupon_rate;type:decimal(12,6);not null;index" json:"coupon_rate"`
	TermYears           int             `gorm:"column:term_years;not null" json:"term_years"`
	Frequency           int             `gorm:"column:frequency;not null" json:"frequency"`
	IssueDate           time.Time       `gorm:"column:issue_date;not null" json:"issue_date"`
	TotalGracePeriods   int             `gorm:"column:total_grace_periods;not null;default:0" json:"total_grace_periods"`
	PartialGracePeriods int             `gorm:"column:partial_grace_periods;not null;default:0" json:"partial_grace_periods"`
	Method              string          `gorm:"column:method;not null;default:AMERICAN" json:"method"`
	Variant             string          `gorm:"column:variant" json:"variant"`
	TCEA                decimal.Decimal `gorm:"column:tcea;type:decimal(20,10)" json:"tcea"`
	Duration            decimal.Decimal `gorm:"column:duration;type:decimal(20,4)" json:"duration"`
	Convexity           decimal.Decimal `gorm:"column:convexity;type:decimal(20,4)" json:"convexity"`
	DiscountRate        decimal.Decimal `gorm:"column:discount_rate;type:decimal(20,10)" json:"discount_rate"`
	CreatedAt           time.Time       `json:"createdAt"`
	UpdatedAt           time.Time       `json:"updatedAt"`
	DeletedAt           gorm.DeletedAt  `gorm:"index" json:"-"`
}

func (Bond) TableName() string {
	return "Bonds"
}

func (b *Bond) BeforeCreate(tx *gorm.DB) error {
	if b.BondID == uuid.Nil {
		b.BondID = uuid.New()
	}
	return nil
}

// Terms is the engine's view of the bond.
func (b *Bond) Terms() finance.BondTerms {
	return finance.BondTerms{
		FaceValue:           b.FaceValue,
		CouponRate:          finance.Percent(b.CouponRate),
		TermYears:           b.TermYears,
		Frequency:           b.Frequency,
		IssueDate:           b.IssueDate,
		TotalGracePeriods:   b.TotalGracePeriods,
		PartialGracePeriods: b.PartialGracePeriods,
		Method:              finance.AmortizationMethod(b.Method),
	}
}

// ApplyValuation copies the derived figures onto the bond.
func (b *Bond) ApplyValuation(v finance.BondValuation) {
	b.TCEA = v.TCEA
	b.Duration = v.Duration
	b.Convexity = v.Convexity
	b.DiscountRate = v.DiscountRate
	b.Variant = string(v.Variant)
}
