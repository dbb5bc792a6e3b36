// Package bonds is the issuer side: bond definitions, their derived
// figures and their cash-flow schedules.
package bonds

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"bonofacil-backend/internal/domain"
	"bonofacil-backend/internal/finance"
	"bonofacil-backend/internal/infrastructure/cache"
	"bonofacil-backend/internal/pkg/validation"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var hundred = decimal.NewFromInt(100)

// couponScale matches the coupon_rate column, decimal(12,6).
const couponScale = 6

type Service struct {
	DB     *gorm.DB
	Engine *finance.Engine
	Cache  *cache.ScheduleCache
}

// BondInput is what an issuer submits to create or replace a bond.
type BondInput struct {
	Name                string
	Description         string
	Currency            string
	FaceValue           decimal.Decimal
	CouponRate          finance.Rate
	TermYears           int
	Frequency           int
	IssueDate           time.Time
	TotalGracePeriods   int
	PartialGracePeriods int
	Method              string
}

func (s *Service) engine() *finance.Engine {
	if s.Engine == nil {
		return finance.Default()
	}
	return s.Engine
}

// apply validates in and copies it onto b, then recomputes b's derived fields.
func (s *Service) apply(b *domain.Bond, in BondInput) error {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return ErrNameRequired
	}
	currency := validation.NormalizeCurrency(in.Currency)
	if !validation.IsValidCurrency(currency) {
		return ErrInvalidCurrency
	}
	method, err := finance.ParseMethod(in.Method)
	if err != nil {
		return err
	}

	b.Name = name
	b.Description = strings.TrimSpace(in.Description)
	b.Currency = currency
	b.FaceValue = in.FaceValue
	b.CouponRate = in.CouponRate.Fraction().Mul(hundred).Round(couponScale)
	b.TermYears = in.TermYears
	b.Frequency = in.Frequency
	b.IssueDate = in.IssueDate.UTC()
	b.TotalGracePeriods = in.TotalGracePeriods
	b.PartialGracePeriods = in.PartialGracePeriods
	b.Method = string(method)

	v, err := s.engine().ProcessBond(b.Terms())
	if err != nil {
		return fmt.Errorf("value bond: %w", err)
	}
	b.ApplyValuation(v)
	return nil
}

func (s *Service) Create(ctx context.Context, issuerID uuid.UUID, in BondInput) (*domain.Bond, error) {
	b := &domain.Bond{IssuerID: issuerID}
	if err := s.apply(b, in); err != nil {
		return nil, err
	}
	if err := s.DB.WithContext(ctx).Create(b).Error; err != nil {
		return nil, fmt.Errorf("Failed to create bond: %w", err)
	}
	log.Info().Str("bond_id", b.BondID.String()).Str("issuer_id", issuerID.String()).Msg("bond created")
	return b, nil
}

// Update replaces the terms of an issuer's bond and revalues it.
func (s *Service) Update(ctx context.Context, issuerID, bondID uuid.UUID, in BondInput) (*domain.Bond, error) {
	var b *domain.Bond
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		found, err := findOwned(tx, issuerID, bondID)
		if err != nil {
			return err
		}
		if err := s.apply(found, in); err != nil {
			return err
		}
		if err := tx.Save(found).Error; err != nil {
			return fmt.Errorf("Failed to update bond: %w", err)
		}
		b = found
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, bondID)
	return b, nil
}

// Delete soft-deletes the bond. Calculations referencing it are kept.
func (s *Service) Delete(ctx context.Context, issuerID, bondID uuid.UUID) error {
	res := s.DB.WithContext(ctx).Where("bond_id = ? AND issuer_id = ?", bondID, issuerID).Delete(&domain.Bond{})
	if res.Error != nil {
		return fmt.Errorf("Failed to delete bond: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrBondNotFound
	}
	s.invalidate(ctx, bondID)
	return nil
}

func (s *Service) Get(ctx context.Context, bondID uuid.UUID) (*domain.Bond, error) {
	var b domain.Bond
	if err := s.DB.WithContext(ctx).Where("bond_id = ?", bondID).First(&b).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBondNotFound
		}
		return nil, err
	}
	return &b, nil
}

// GetOwned is Get restricted to one issuer's bonds.
func (s *Service) GetOwned(ctx context.Context, issuerID, bondID uuid.UUID) (*domain.Bond, error) {
	return findOwned(s.DB.WithContext(ctx), issuerID, bondID)
}

func findOwned(db *gorm.DB, issuerID, bondID uuid.UUID) (*domain.Bond, error) {
	var b domain.Bond
	if err := db.Where("bond_id = ? AND issuer_id = ?", bondID, issuerID).First(&b).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBondNotFound
		}
		return nil, err
	}
	return &b, nil
}

func (s *Service) ListByIssuer(ctx context.Context, issuerID uuid.UUID) ([]domain.Bond, error) {
	return s.list(ctx, s.DB.Where("issuer_id = ?", issuerID))
}

func (s *Service) ListAll(ctx context.Context) ([]domain.Bond, error) {
	return s.list(ctx, s.DB)
}

func (s *Service) ListByCurrency(ctx context.Context, currency string) ([]domain.Bond, error) {
	code := validation.NormalizeCurrency(currency)
	if !validation.IsValidCurrency(code) {
		return nil, ErrInvalidCurrency
	}
	return s.list(ctx, s.DB.Where("currency = ?", code))
}

// ListByCouponRange filters on the coupon rate in percent. Either bound may
// be nil.
func (s *Service) ListByCouponRange(ctx context.Context, min, max *decimal.Decimal) ([]domain.Bond, error) {
	if min != nil && max != nil && min.GreaterThan(*max) {
		return nil, ErrInvalidRange
	}
	q := s.DB
	if min != nil {
		q = q.Where("coupon_rate >= ?", *min)
	}
	if max != nil {
		q = q.Where("coupon_rate <= ?", *max)
	}
	return s.list(ctx, q)
}

func (s *Service) list(ctx context.Context, q *gorm.DB) ([]domain.Bond, error) {
	var out []domain.Bond
	if err := q.WithContext(ctx).Order("created_at DESC").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("Failed to fetch bonds: %w", err)
	}
	return out, nil
}

// Schedule returns the bond's cash flows, from the cache when possible.
func (s *Service) Schedule(ctx context.Context, bondID uuid.UUID) ([]finance.CashFlowPeriod, error) {
	if cached, ok, err := s.Cache.Get(ctx, bondID); err != nil {
		log.Warn().Err(err).Str("bond_id", bondID.String()).Msg("schedule cache read failed")
	} else if ok {
		return cached, nil
	}

	b, err := s.Get(ctx, bondID)
	if err != nil {
		return nil, err
	}
	built, err := s.engine().BuildSchedule(b.Terms())
	if err != nil {
		return nil, fmt.Errorf("build schedule: %w", err)
	}
	schedule := s.engine().RoundSchedule(built)
	if err := s.Cache.Set(ctx, bondID, schedule); err != nil {
		log.Warn().Err(err).Str("bond_id", bondID.String()).Msg("schedule cache write failed")
	}
	return schedule, nil
}

// PriceReport explains how the bond is priced at rate.
func (s *Service) PriceReport(ctx context.Context, bondID uuid.UUID, rate finance.Rate) (string, error) {
	b, err := s.Get(ctx, bondID)
	if err != nil {
		return "", err
	}
	return s.engine().PriceReport(b.Terms(), rate)
}

func (s *Service) invalidate(ctx context.Context, bondID uuid.UUID) {
	if err := s.Cache.Invalidate(ctx, bondID); err != nil {
		log.Warn().Err(err).Str("bond_id", bondID.String()).Msg("schedule cache invalidation failed")
	}
}
