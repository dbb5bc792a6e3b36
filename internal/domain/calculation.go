package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Calculation is an investor's evaluation of a bond at a required rate.
// It references the bond by id only.
type Calculation struct {
	CalculationID uuid.UUID       `gorm:"column:calculation_id;type:uuid;primaryKey" json:"calculation_id"`
	BondID        uuid.UUID       `gorm:"column:bond_id;type:uuid;not null;index" json:"bond_id"`
	InvestorID    uuid.UUID       `gorm:"column:investor_id;type:uuid;not null;index" json:"investor_id"`
	ExpectedRate  decimal.Decimal `gorm:"column:expected_rate;type:decimal(20,10);not null" json:"expected_rate"`
	TREA          decimal.Decimal `gorm:"column:trea;type:decimal(20,10)" json:"trea"`
	MaxPrice      decimal.Decimal `gorm:"column:max_price;type:decimal(20,2)" json:"max_price"`
	Duration      decimal.Decimal `gorm:"column:duration;type:decimal(20,4)" json:"duration"`
	Convexity     decimal.Decimal `gorm:"column:convexity;type:decimal(20,4)" json:"convexity"`
	CalculatedOn  time.Time       `gorm:"column:calculated_on;not null" json:"calculated_on"`
	Details       datatypes.JSON  `gorm:"column:details" json:"details"`
	CreatedAt     time.Time       `json:"createdAt"`
	UpdatedAt     time.Time       `json:"updatedAt"`
}

func (Calculation) TableName() string {
	return "Calculations"
}

func (c *Calculation) BeforeCreate(tx *gorm.DB) error {
	if c.CalculationID == uuid.Nil {
		c.CalculationID = uuid.New()
	}
	if c.CalculatedOn.IsZero() {
		c.CalculatedOn = time.Now().UTC()
	}
	return nil
}

// CalculationDetails is the solver trace stored in Calculation.Details.
type CalculationDetails struct {
	Method       string `json:"method"`
	Iterations   int    `json:"iterations"`
	Converged    bool   `json:"converged"`
	PeriodicRate string `json:"periodic_rate"`
	Residual     string `json:"residual"`
	Variant      string `json:"variant"`
}
