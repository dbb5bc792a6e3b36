package investor

import (
	"errors"

	bondsvc "bonofacil-backend/internal/application/bonds"
	calcsvc "bonofacil-backend/internal/application/calculations"
	"bonofacil-backend/internal/finance"
	"bonofacil-backend/internal/middleware"
	"bonofacil-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

type Handlers struct {
	Bonds        *bondsvc.Service
	Calculations *calcsvc.Service
}

// EvaluateRequest asks for a bond to be priced at the investor's required
// effective annual rate.
type EvaluateRequest struct {
	BondID           string          `json:"bond_id"`
	ExpectedRate     decimal.Decimal `json:"expected_rate"`
	ExpectedRateUnit string          `json:"expected_rate_unit"`
}

// GET /api/v1/investor/bonds/catalog
func (h *Handlers) Catalog(c *fiber.Ctx) error {
	list, err := h.Bonds.ListAll(c.UserContext())
	if err != nil {
		return h.fail(c, err)
	}
	return response.Success(c, "Catalog fetched successfully", list, fiber.Map{"count": len(list)})
}

// GET /api/v1/investor/bonds/catalog/:id
func (h *Handlers) CatalogBond(c *fiber.Ctx) error {
	bondID, err := pathID(c)
	if err != nil {
		return err
	}
	bond, err := h.Bonds.Get(c.UserContext(), bondID)
	if err != nil {
		return h.fail(c, err)
	}
	return response.Success(c, "Bond fetched successfully", bond, nil)
}

// GET /api/v1/investor/bonds/catalog/currency/:currency
func (h *Handlers) CatalogByCurrency(c *fiber.Ctx) error {
	list, err := h.Bonds.ListByCurrency(c.UserContext(), c.Params("currency"))
	if err != nil {
		return h.fail(c, err)
	}
	return response.Success(c, "Catalog fetched successfully", list, fiber.Map{"count": len(list)})
}

// GET /api/v1/investor/bonds/catalog/rate?min=&max=
// Bounds are coupon rates in percent.
func (h *Handlers) CatalogByRate(c *fiber.Ctx) error {
	min, err := optionalDecimal(c.Query("min"))
	if err != nil {
		return response.Error(c, "min must be a number", fiber.StatusBadRequest, nil)
	}
	max, err := optionalDecimal(c.Query("max"))
	if err != nil {
		return response.Error(c, "max must be a number", fiber.StatusBadRequest, nil)
	}
	list, err := h.Bonds.ListByCouponRange(c.UserContext(), min, max)
	if err != nil {
		return h.fail(c, err)
	}
	return response.Success(c, "Catalog fetched successfully", list, fiber.Map{"count": len(list)})
}

// GET /api/v1/investor/bonds/:id/cash-flows
func (h *Handlers) CashFlows(c *fiber.Ctx) error {
	bondID, err := pathID(c)
	if err != nil {
		return err
	}
	schedule, err := h.Bonds.Schedule(c.UserContext(), bondID)
	if err != nil {
		return h.fail(c, err)
	}
	return response.Success(c, "Cash flows fetched successfully", schedule, fiber.Map{"periods": len(schedule) - 1})
}

// GET /api/v1/investor/bonds/:id/price-report?rate=&rate_unit=
func (h *Handlers) PriceReport(c *fiber.Ctx) error {
	bondID, err := pathID(c)
	if err != nil {
		return err
	}
	value, err := decimal.NewFromString(c.Query("rate"))
	if err != nil {
		return response.Error(c, "rate is required", fiber.StatusBadRequest, nil)
	}
	rate, err := finance.NewRate(value, c.Query("rate_unit"))
	if err != nil {
		return response.Invalid(c, err)
	}
	report, err := h.Bonds.PriceReport(c.UserContext(), bondID, rate)
	if err != nil {
		return h.fail(c, err)
	}
	return response.Success(c, "Price report generated", fiber.Map{"report": report}, nil)
}

// POST /api/v1/investor/calculations
func (h *Handlers) Evaluate(c *fiber.Ctx) error {
	investorID, ok := middleware.CurrentUserID(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}
	var req EvaluateRequest
	if err := c.BodyParser(&req); err != nil {
		return response.Error(c, "Invalid request body", fiber.StatusBadRequest, nil)
	}
	bondID, err := uuid.Parse(req.BondID)
	if err != nil {
		return response.Error(c, "bond_id is required", fiber.StatusBadRequest, nil)
	}
	rate, err := finance.NewRate(req.ExpectedRate, req.ExpectedRateUnit)
	if err != nil {
		return response.Invalid(c, err)
	}
	calc, err := h.Calculations.Evaluate(c.UserContext(), investorID, bondID, rate)
	if err != nil {
		return h.fail(c, err)
	}
	return response.SuccessCreated(c, "Calculation created successfully", calc, nil)
}

// GET /api/v1/investor/calculations[?bond_id=]
func (h *Handlers) ListCalculations(c *fiber.Ctx) error {
	investorID, ok := middleware.CurrentUserID(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}
	ctx := c.UserContext()
	if raw := c.Query("bond_id"); raw != "" {
		bondID, err := uuid.Parse(raw)
		if err != nil {
			return response.Error(c, "Invalid bond id", fiber.StatusBadRequest, nil)
		}
		list, err := h.Calculations.ListByBond(ctx, investorID, bondID)
		if err != nil {
			return h.fail(c, err)
		}
		return response.Success(c, "Calculations fetched successfully", list, fiber.Map{"count": len(list)})
	}
	list, err := h.Calculations.ListByInvestor(ctx, investorID)
	if err != nil {
		return h.fail(c, err)
	}
	return response.Success(c, "Calculations fetched successfully", list, fiber.Map{"count": len(list)})
}

// GET /api/v1/investor/calculations/:id
func (h *Handlers) GetCalculation(c *fiber.Ctx) error {
	investorID, ok := middleware.CurrentUserID(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}
	id, err := pathID(c)
	if err != nil {
		return err
	}
	calc, err := h.Calculations.Get(c.UserContext(), investorID, id)
	if err != nil {
		return h.fail(c, err)
	}
	return response.Success(c, "Calculation fetched successfully", calc, nil)
}

// DELETE /api/v1/investor/calculations/:id
func (h *Handlers) DeleteCalculation(c *fiber.Ctx) error {
	investorID, ok := middleware.CurrentUserID(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}
	id, err := pathID(c)
	if err != nil {
		return err
	}
	if err := h.Calculations.Delete(c.UserContext(), investorID, id); err != nil {
		return h.fail(c, err)
	}
	return response.Success(c, "Calculation deleted successfully", nil, nil)
}

func pathID(c *fiber.Ctx) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return uuid.Nil, fiber.NewError(fiber.StatusBadRequest, "Invalid id")
	}
	return id, nil
}

func optionalDecimal(s string) (*decimal.Decimal, error) {
	if s == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (h *Handlers) fail(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, bondsvc.ErrBondNotFound), errors.Is(err, calcsvc.ErrCalculationNotFound):
		return response.NotFound(c, err.Error())
	case errors.Is(err, bondsvc.ErrInvalidCurrency),
		errors.Is(err, bondsvc.ErrInvalidRange),
		errors.Is(err, finance.ErrInvalidArgument):
		return response.Invalid(c, err)
	}
	log.Error().Err(err).Str("trace_id", middleware.GetTraceID(c)).Msg("investor request failed")
	return response.Internal(c)
}
