package health

import (
	"encoding/json"
	"strconv"
	"time"

	healthsvc "bonofacil-backend/internal/application/health"
	"bonofacil-backend/internal/middleware"
	"bonofacil-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const serviceName = "bonofacil-api"

type Handlers struct {
	Collector      *healthsvc.Collector
	Rdb            *redis.Client
	HealthAdminKey string
}

// GET /reset?key=... clears the traffic counters.
func (h *Handlers) Reset(c *fiber.Ctx) error {
	key := c.Query("key")
	if key == "" || key != h.HealthAdminKey {
		return response.Error(c, "Unauthorized", fiber.StatusForbidden, nil)
	}
	ctx := c.UserContext()
	keys := []string{
		middleware.KeyReqTotal, middleware.KeyReqErrors, middleware.KeyResTime,
		middleware.KeyResCount, middleware.KeyLastReq, middleware.KeyErrorLog,
	}
	_, err := h.Rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Del(ctx, keys...)
		p.Set(ctx, middleware.KeyStartTime, strconv.FormatInt(time.Now().UnixMilli(), 10), 0)
		return nil
	})
	if err != nil {
		log.Error().Err(err).Msg("health reset failed")
		return response.Internal(c)
	}
	return response.Success(c, "Stats reset successfully", fiber.Map{"success": true}, nil)
}

// GET /health/json
func (h *Handlers) JSON(c *fiber.Ctx) error {
	report := h.Collector.Collect(c.UserContext())
	return c.JSON(fiber.Map{
		"service":      serviceName,
		"status":       report.Status,
		"runtime":      report.Runtime,
		"traffic":      report.Traffic,
		"dependencies": report.Dependencies,
	})
}

// GET /health/errors returns the most recent 5xx requests, newest first.
func (h *Handlers) Errors(c *fiber.Ctx) error {
	entries, err := h.Rdb.LRange(c.UserContext(), middleware.KeyErrorLog, 0, 49).Result()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON([]interface{}{})
	}
	out := make([]json.RawMessage, 0, len(entries))
	for _, e := range entries {
		if json.Valid([]byte(e)) {
			out = append(out, json.RawMessage(e))
		}
	}
	return c.JSON(out)
}
