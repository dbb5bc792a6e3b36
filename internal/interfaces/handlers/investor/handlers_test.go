package investor

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	bondsvc "bonofacil-backend/internal/application/bonds"
	calcsvc "bonofacil-backend/internal/application/calculations"
	"bonofacil-backend/internal/domain"
	"bonofacil-backend/internal/finance"
	"bonofacil-backend/internal/infrastructure/database"
	"bonofacil-backend/internal/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	app      *fiber.App
	bonds    []*domain.Bond
	investor uuid.UUID
}

func setupInvestorApp(t *testing.T) *fixture {
	db, err := database.Open("sqlite::memory:")
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db))
	engine := finance.Default()
	bonds := &bondsvc.Service{DB: db, Engine: engine}
	h := &Handlers{Bonds: bonds, Calculations: &calcsvc.Service{DB: db, Engine: engine, Bonds: bonds}}

	f := &fixture{investor: uuid.New()}
	issuer := uuid.New()
	for _, seed := range []struct {
		name, currency string
		coupon         int64
	}{{"Bono Soles", "PEN", 8}, {"Bono Dolares", "USD", 12}} {
		b, err := bonds.Create(context.Background(), issuer, bondsvc.BondInput{
			Name:       seed.name,
			Currency:   seed.currency,
			FaceValue:  decimal.NewFromInt(1000),
			CouponRate: finance.Percent(decimal.NewFromInt(seed.coupon)),
			TermYears:  3,
			Frequency:  1,
			IssueDate:  time.Date(2024, time.January, 15, 0, 0, 0, 0, time.UTC),
		})
		require.NoError(t, err)
		f.bonds = append(f.bonds, b)
	}

	app := fiber.New(fiber.Config{ErrorHandler: middleware.ErrorHandler})
	app.Use(func(c *fiber.Ctx) error {
		middleware.SetSessionUser(c, middleware.SessionUser{UserID: f.investor.String(), Role: "investor"})
		return c.Next()
	})
	app.Get("/bonds/catalog", h.Catalog)
	app.Get("/bonds/catalog/currency/:currency", h.CatalogByCurrency)
	app.Get("/bonds/catalog/rate", h.CatalogByRate)
	app.Get("/bonds/catalog/:id", h.CatalogBond)
	app.Get("/bonds/:id/cash-flows", h.CashFlows)
	app.Get("/bonds/:id/price-report", h.PriceReport)
	app.Post("/calculations", h.Evaluate)
	app.Get("/calculations", h.ListCalculations)
	app.Get("/calculations/:id", h.GetCalculation)
	app.Delete("/calculations/:id", h.DeleteCalculation)
	f.app = app
	return f
}

func (f *fixture) do(t *testing.T, method, path string, body interface{}) (*http.Response, map[string]interface{}) {
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	resp, err := f.app.Test(req)
	require.NoError(t, err)
	var out map[string]interface{}
	_ = json.NewDecoder(resp.Body).Decode(&out)
	return resp, out
}

func TestCatalogQueries(t *testing.T) {
	f := setupInvestorApp(t)

	resp, out := f.do(t, "GET", "/bonds/catalog", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Len(t, out["data"], 2)

	resp, out = f.do(t, "GET", "/bonds/catalog/currency/usd", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Len(t, out["data"], 1)
	assert.Equal(t, "Bono Dolares", out["data"].([]interface{})[0].(map[string]interface{})["name"])

	resp, _ = f.do(t, "GET", "/bonds/catalog/currency/dollars", nil)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp, out = f.do(t, "GET", "/bonds/catalog/rate?max=10", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Len(t, out["data"], 1)

	resp, _ = f.do(t, "GET", "/bonds/catalog/rate?min=abc", nil)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	resp, _ = f.do(t, "GET", "/bonds/catalog/rate?min=10&max=5", nil)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp, _ = f.do(t, "GET", "/bonds/catalog/"+f.bonds[0].BondID.String(), nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	resp, _ = f.do(t, "GET", "/bonds/catalog/"+uuid.NewString(), nil)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestCashFlowsAndPriceReport(t *testing.T) {
	f := setupInvestorApp(t)
	id := f.bonds[0].BondID.String()

	resp, out := f.do(t, "GET", "/bonds/"+id+"/cash-flows", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Len(t, out["data"], 4)
	assert.EqualValues(t, 3, out["metadata"].(map[string]interface{})["periods"])

	resp, out = f.do(t, "GET", "/bonds/"+id+"/price-report?rate=10&rate_unit=percent", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	report := out["data"].(map[string]interface{})["report"].(string)
	assert.True(t, strings.Contains(report, "Computed price: 950.26"), report)

	resp, _ = f.do(t, "GET", "/bonds/"+id+"/price-report", nil)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	resp, _ = f.do(t, "GET", "/bonds/"+id+"/price-report?rate=10&rate_unit=bps", nil)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestCalculationLifecycle(t *testing.T) {
	f := setupInvestorApp(t)
	bondID := f.bonds[0].BondID.String()

	resp, out := f.do(t, "POST", "/calculations", map[string]interface{}{
		"bond_id":            bondID,
		"expected_rate":      "0.10",
		"expected_rate_unit": "fraction",
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	calc := out["data"].(map[string]interface{})
	assert.Equal(t, "950.26", calc["max_price"])
	calcID := calc["calculation_id"].(string)

	// legacy magnitude rule: 9 means 9%
	resp, _ = f.do(t, "POST", "/calculations", map[string]interface{}{"bond_id": bondID, "expected_rate": 9})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	resp, out = f.do(t, "GET", "/calculations", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Len(t, out["data"], 2)

	resp, out = f.do(t, "GET", "/calculations?bond_id="+f.bonds[1].BondID.String(), nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Len(t, out["data"], 0)

	resp, _ = f.do(t, "GET", "/calculations/"+calcID, nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	resp, _ = f.do(t, "DELETE", "/calculations/"+calcID, nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	resp, _ = f.do(t, "GET", "/calculations/"+calcID, nil)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestEvaluate_BadInput(t *testing.T) {
	f := setupInvestorApp(t)

	resp, _ := f.do(t, "POST", "/calculations", map[string]interface{}{"expected_rate": 9})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp, _ = f.do(t, "POST", "/calculations", map[string]interface{}{"bond_id": uuid.NewString(), "expected_rate": 9})
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	resp, out := f.do(t, "POST", "/calculations", map[string]interface{}{
		"bond_id":            f.bonds[0].BondID.String(),
		"expected_rate":      -150,
		"expected_rate_unit": "percent",
	})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "rate", out["error"].(map[string]interface{})["details"].(map[string]interface{})["field"])
}
