// Package calculations is the investor side: evaluating a bond at a
// required rate and keeping the results.
package calculations

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"bonofacil-backend/internal/application/bonds"
	"bonofacil-backend/internal/domain"
	"bonofacil-backend/internal/finance"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var ErrCalculationNotFound = errors.New("Calculation not found")

type Service struct {
	DB     *gorm.DB
	Engine *finance.Engine
	Bonds  *bonds.Service
}

func (s *Service) engine() *finance.Engine {
	if s.Engine == nil {
		return finance.Default()
	}
	return s.Engine
}

// Evaluate prices bondID at the investor's expected rate, solves the
// realized TREA and stores the result.
func (s *Service) Evaluate(ctx context.Context, investorID, bondID uuid.UUID, expected finance.Rate) (*domain.Calculation, error) {
	bond, err := s.Bonds.Get(ctx, bondID)
	if err != nil {
		return nil, err
	}
	ev, err := s.engine().EvaluateInvestment(bond.Terms(), expected)
	if err != nil {
		return nil, fmt.Errorf("evaluate bond %s: %w", bondID, err)
	}
	if !ev.Yield.Converged {
		log.Warn().
			Str("bond_id", bondID.String()).
			Str("method", string(ev.Yield.Method)).
			Str("residual", ev.Yield.Residual.String()).
			Msg("TREA is a best-effort estimate")
	}

	details, err := json.Marshal(domain.CalculationDetails{
		Method:       string(ev.Yield.Method),
		Iterations:   ev.Yield.Iterations,
		Converged:    ev.Yield.Converged,
		PeriodicRate: ev.Yield.PeriodicRate.String(),
		Residual:     ev.Yield.Residual.String(),
		Variant:      string(ev.Variant),
	})
	if err != nil {
		return nil, err
	}
	calc := &domain.Calculation{
		BondID:       bondID,
		InvestorID:   investorID,
		ExpectedRate: ev.ExpectedRate,
		TREA:         ev.TREA,
		MaxPrice:     ev.MaxPrice,
		Duration:     ev.Duration,
		Convexity:    ev.Convexity,
		Details:      datatypes.JSON(details),
	}
	if err := s.DB.WithContext(ctx).Create(calc).Error; err != nil {
		return nil, fmt.Errorf("Failed to save calculation: %w", err)
	}
	return calc, nil
}

func (s *Service) ListByInvestor(ctx context.Context, investorID uuid.UUID) ([]domain.Calculation, error) {
	var out []domain.Calculation
	err := s.DB.WithContext(ctx).Where("investor_id = ?", investorID).Order("calculated_on DESC").Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("Failed to fetch calculations: %w", err)
	}
	return out, nil
}

// ListByBond returns an investor's calculations for one bond.
func (s *Service) ListByBond(ctx context.Context, investorID, bondID uuid.UUID) ([]domain.Calculation, error) {
	var out []domain.Calculation
	err := s.DB.WithContext(ctx).
		Where("investor_id = ? AND bond_id = ?", investorID, bondID).
		Order("calculated_on DESC").
		Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("Failed to fetch calculations: %w", err)
	}
	return out, nil
}

func (s *Service) Get(ctx context.Context, investorID, calculationID uuid.UUID) (*domain.Calculation, error) {
	var c domain.Calculation
	err := s.DB.WithContext(ctx).
		Where("calculation_id = ? AND investor_id = ?", calculationID, investorID).
		First(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrCalculationNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// Delete removes the calculation only; the bond is untouched.
func (s *Service) Delete(ctx context.Context, investorID, calculationID uuid.UUID) error {
	res := s.DB.WithContext(ctx).
		Where("calculation_id = ? AND investor_id = ?", calculationID, investorID).
		Delete(&domain.Calculation{})
	if res.Error != nil {
		return fmt.Errorf("Failed to delete calculation: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrCalculationNotFound
	}
	return nil
}
