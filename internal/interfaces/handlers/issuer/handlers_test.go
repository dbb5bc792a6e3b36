package issuer

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	bondsvc "bonofacil-backend/internal/application/bonds"
	"bonofacil-backend/internal/finance"
	"bonofacil-backend/internal/infrastructure/database"
	"bonofacil-backend/internal/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupIssuerApp(t *testing.T, issuerID uuid.UUID) *fiber.App {
	db, err := database.Open("sqlite::memory:")
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db))
	h := &Handlers{Bonds: &bondsvc.Service{DB: db, Engine: finance.Default()}}

	app := fiber.New(fiber.Config{ErrorHandler: middleware.ErrorHandler})
	app.Use(func(c *fiber.Ctx) error {
		if issuerID != uuid.Nil {
			middleware.SetSessionUser(c, middleware.SessionUser{UserID: issuerID.String(), Role: "issuer"})
		}
		return c.Next()
	})
	app.Post("/bonds", h.Create)
	app.Get("/bonds", h.List)
	app.Get("/bonds/:id", h.Get)
	app.Put("/bonds/:id", h.Update)
	app.Delete("/bonds/:id", h.Delete)
	app.Get("/bonds/:id/cash-flows", h.CashFlows)
	return app
}

func sendJSON(t *testing.T, app *fiber.App, method, path string, body interface{}) (*http.Response, map[string]interface{}) {
	var reader *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	var out map[string]interface{}
	_ = json.NewDecoder(resp.Body).Decode(&out)
	return resp, out
}

func bondBody() map[string]interface{} {
	return map[string]interface{}{
		"name":        "Bono Corporativo",
		"currency":    "PEN",
		"face_value":  1000,
		"coupon_rate": 8,
		"term_years":  3,
		"frequency":   1,
		"issue_date":  "2024-01-15",
	}
}

func TestCreate_ReturnsDerivedFields(t *testing.T) {
	app := setupIssuerApp(t, uuid.New())
	resp, out := sendJSON(t, app, "POST", "/bonds", bondBody())
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	assert.Equal(t, "success", out["status"])
	data := out["data"].(map[string]interface{})
	assert.Equal(t, "0.08", data["tcea"])
	assert.Equal(t, "2.7833", data["duration"])
	assert.Equal(t, "AMERICAN_PURE", data["variant"])
}

func TestCreate_ExplicitFractionUnit(t *testing.T) {
	app := setupIssuerApp(t, uuid.New())
	body := bondBody()
	body["coupon_rate"] = "0.5"
	body["coupon_rate_unit"] = "fraction"
	resp, out := sendJSON(t, app, "POST", "/bonds", body)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	assert.Equal(t, "50", out["data"].(map[string]interface{})["coupon_rate"])
}

func TestCreate_Invalid(t *testing.T) {
	app := setupIssuerApp(t, uuid.New())

	body := bondBody()
	body["frequency"] = 5
	resp, out := sendJSON(t, app, "POST", "/bonds", body)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	details := out["error"].(map[string]interface{})["details"].(map[string]interface{})
	assert.Equal(t, "frequency", details["field"])

	body = bondBody()
	body["issue_date"] = "15/01/2024"
	resp, _ = sendJSON(t, app, "POST", "/bonds", body)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	body = bondBody()
	body["method"] = "GERMAN"
	resp, _ = sendJSON(t, app, "POST", "/bonds", body)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp, _ = sendJSON(t, app, "POST", "/bonds", nil)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestCreate_RequiresUser(t *testing.T) {
	app := setupIssuerApp(t, uuid.Nil)
	resp, _ := sendJSON(t, app, "POST", "/bonds", bondBody())
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestBondLifecycle(t *testing.T) {
	app := setupIssuerApp(t, uuid.New())
	_, out := sendJSON(t, app, "POST", "/bonds", bondBody())
	id := out["data"].(map[string]interface{})["bond_id"].(string)

	resp, out := sendJSON(t, app, "GET", "/bonds", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Len(t, out["data"], 1)

	resp, out = sendJSON(t, app, "GET", "/bonds/"+id+"/cash-flows", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	rows := out["data"].([]interface{})
	require.Len(t, rows, 4)
	last := rows[3].(map[string]interface{})
	assert.Equal(t, "1080", last["cash_flow"])
	assert.Equal(t, "maturity", last["kind"])

	body := bondBody()
	body["frequency"] = 2
	body["total_grace_periods"] = 1
	resp, out = sendJSON(t, app, "PUT", "/bonds/"+id, body)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "AMERICAN_WITH_GRACE", out["data"].(map[string]interface{})["variant"])

	resp, _ = sendJSON(t, app, "DELETE", "/bonds/"+id, nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	resp, _ = sendJSON(t, app, "GET", "/bonds/"+id, nil)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestGet_BadID(t *testing.T) {
	app := setupIssuerApp(t, uuid.New())
	resp, out := sendJSON(t, app, "GET", "/bonds/not-a-uuid", nil)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Invalid bond id", out["error"].(map[string]interface{})["message"])
}
