package issuer

import (
	"errors"
	"time"

	bondsvc "bonofacil-backend/internal/application/bonds"
	"bonofacil-backend/internal/finance"
	"bonofacil-backend/internal/middleware"
	"bonofacil-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

const dateLayout = "2006-01-02"

type Handlers struct {
	Bonds *bondsvc.Service
}

// BondRequest is the body of create and update. coupon_rate_unit is
// "percent" or "fraction"; without it the magnitude decides.
type BondRequest struct {
	Name                string          `json:"name"`
	Description         string          `json:"description"`
	Currency            string          `json:"currency"`
	FaceValue           decimal.Decimal `json:"face_value"`
	CouponRate          decimal.Decimal `json:"coupon_rate"`
	CouponRateUnit      string          `json:"coupon_rate_unit"`
	TermYears           int             `json:"term_years"`
	Frequency           int             `json:"frequency"`
	IssueDate           string          `json:"issue_date"`
	TotalGracePeriods   int             `json:"total_grace_periods"`
	PartialGracePeriods int             `json:"partial_grace_periods"`
	Method              string          `json:"method"`
}

func (r BondRequest) input() (bondsvc.BondInput, error) {
	coupon, err := finance.NewRate(r.CouponRate, r.CouponRateUnit)
	if err != nil {
		return bondsvc.BondInput{}, err
	}
	issued, err := time.Parse(dateLayout, r.IssueDate)
	if err != nil {
		return bondsvc.BondInput{}, errors.New("issue_date must be YYYY-MM-DD")
	}
	return bondsvc.BondInput{
		Name:                r.Name,
		Description:         r.Description,
		Currency:            r.Currency,
		FaceValue:           r.FaceValue,
		CouponRate:          coupon,
		TermYears:           r.TermYears,
		Frequency:           r.Frequency,
		IssueDate:           issued,
		TotalGracePeriods:   r.TotalGracePeriods,
		PartialGracePeriods: r.PartialGracePeriods,
		Method:              r.Method,
	}, nil
}

// POST /api/v1/issuer/bonds
func (h *Handlers) Create(c *fiber.Ctx) error {
	issuerID, ok := middleware.CurrentUserID(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}
	in, err := parseBody(c)
	if err != nil {
		return response.Invalid(c, err)
	}
	bond, err := h.Bonds.Create(c.UserContext(), issuerID, in)
	if err != nil {
		return bondError(c, err)
	}
	return response.SuccessCreated(c, "Bond created successfully", bond, nil)
}

// GET /api/v1/issuer/bonds
func (h *Handlers) List(c *fiber.Ctx) error {
	issuerID, ok := middleware.CurrentUserID(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}
	list, err := h.Bonds.ListByIssuer(c.UserContext(), issuerID)
	if err != nil {
		return bondError(c, err)
	}
	return response.Success(c, "Bonds fetched successfully", list, fiber.Map{"count": len(list)})
}

// GET /api/v1/issuer/bonds/:id
func (h *Handlers) Get(c *fiber.Ctx) error {
	issuerID, bondID, err := ids(c)
	if err != nil {
		return err
	}
	bond, err := h.Bonds.GetOwned(c.UserContext(), issuerID, bondID)
	if err != nil {
		return bondError(c, err)
	}
	return response.Success(c, "Bond fetched successfully", bond, nil)
}

// PUT /api/v1/issuer/bonds/:id
func (h *Handlers) Update(c *fiber.Ctx) error {
	issuerID, bondID, err := ids(c)
	if err != nil {
		return err
	}
	in, err := parseBody(c)
	if err != nil {
		return response.Invalid(c, err)
	}
	bond, err := h.Bonds.Update(c.UserContext(), issuerID, bondID, in)
	if err != nil {
		return bondError(c, err)
	}
	return response.Success(c, "Bond updated successfully", bond, nil)
}

// DELETE /api/v1/issuer/bonds/:id
func (h *Handlers) Delete(c *fiber.Ctx) error {
	issuerID, bondID, err := ids(c)
	if err != nil {
		return err
	}
	if err := h.Bonds.Delete(c.UserContext(), issuerID, bondID); err != nil {
		return bondError(c, err)
	}
	return response.Success(c, "Bond deleted successfully", nil, nil)
}

// GET /api/v1/issuer/bonds/:id/cash-flows
func (h *Handlers) CashFlows(c *fiber.Ctx) error {
	issuerID, bondID, err := ids(c)
	if err != nil {
		return err
	}
	if _, err := h.Bonds.GetOwned(c.UserContext(), issuerID, bondID); err != nil {
		return bondError(c, err)
	}
	schedule, err := h.Bonds.Schedule(c.UserContext(), bondID)
	if err != nil {
		return bondError(c, err)
	}
	return response.Success(c, "Cash flows fetched successfully", schedule, fiber.Map{"periods": len(schedule) - 1})
}

func parseBody(c *fiber.Ctx) (bondsvc.BondInput, error) {
	var req BondRequest
	if err := c.BodyParser(&req); err != nil {
		return bondsvc.BondInput{}, errors.New("Invalid request body")
	}
	return req.input()
}

// ids returns fiber errors, rendered by middleware.ErrorHandler.
func ids(c *fiber.Ctx) (uuid.UUID, uuid.UUID, error) {
	issuerID, ok := middleware.CurrentUserID(c)
	if !ok {
		return uuid.Nil, uuid.Nil, fiber.NewError(fiber.StatusUnauthorized, "Unauthorized")
	}
	bondID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return uuid.Nil, uuid.Nil, fiber.NewError(fiber.StatusBadRequest, "Invalid bond id")
	}
	return issuerID, bondID, nil
}

func bondError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, bondsvc.ErrBondNotFound):
		return response.NotFound(c, err.Error())
	case errors.Is(err, bondsvc.ErrNameRequired),
		errors.Is(err, bondsvc.ErrInvalidCurrency),
		errors.Is(err, bondsvc.ErrInvalidRange),
		errors.Is(err, finance.ErrInvalidArgument):
		return response.Invalid(c, err)
	}
	log.Error().Err(err).Str("trace_id", middleware.GetTraceID(c)).Msg("issuer bond request failed")
	return response.Internal(c)
}
