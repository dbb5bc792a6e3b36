package middleware

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// Redis keys for request traffic, read back by the health service.
const (
	KeyReqTotal  = "health:global:req_total"
	KeyReqErrors = "health:global:req_errors"
	KeyResTime   = "health:global:res_time_total"
	KeyResCount  = "health:global:res_count"
	KeyStartTime = "health:global:start_time"
	KeyLastReq   = "health:global:last_request"
	KeyErrorLog  = "health:global:error_log"

	errorLogSize = 50
)

type lastRequest struct {
	Time   time.Time `json:"time"`
	IP     string    `json:"ip"`
	Path   string    `json:"path"`
	Method string    `json:"method"`
	Status int       `json:"status,omitempty"`
}

// HealthMarker counts API traffic in Redis. Health and root paths are skipped.
func HealthMarker(rdb *redis.Client) fiber.Handler {
	return func(c *fiber.Ctx) error {
		path := c.Path()
		if path == "/" || strings.HasPrefix(path, "/health") || strings.HasPrefix(path, "/favicon") {
			return c.Next()
		}

		start := time.Now()
		req := lastRequest{Time: start, IP: c.IP(), Path: c.OriginalURL(), Method: c.Method()}
		err := c.Next()
		req.Status = c.Response().StatusCode()

		ms := time.Since(start).Milliseconds()
		b, _ := json.Marshal(req)
		_, perr := rdb.TxPipelined(context.Background(), func(p redis.Pipeliner) error {
			p.Set(context.Background(), KeyLastReq, b, 0)
			p.Incr(context.Background(), KeyReqTotal)
			p.Incr(context.Background(), KeyResCount)
			p.IncrByFloat(context.Background(), KeyResTime, float64(ms))
			if req.Status >= fiber.StatusInternalServerError {
				p.Incr(context.Background(), KeyReqErrors)
				p.LPush(context.Background(), KeyErrorLog, b)
				p.LTrim(context.Background(), KeyErrorLog, 0, errorLogSize-1)
			}
			return nil
		})
		if perr != nil {
			log.Warn().Err(perr).Msg("health marker: redis write failed")
		}
		return err
	}
}
