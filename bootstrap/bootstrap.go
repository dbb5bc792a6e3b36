package bootstrap

import (
	"bonofacil-backend/internal/config"
	"bonofacil-backend/internal/interfaces/router"
	"bonofacil-backend/internal/logging"

	"github.com/gofiber/fiber/v2"
)

// New creates the Fiber app for serverless deployments; the api handler
// imports this package because it cannot reach internal/.
func New() (*fiber.App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	lc := logging.DefaultConfig()
	lc.Level = cfg.LogLevel
	logging.New(lc)

	app, _, _, err := router.CreateApp(cfg)
	return app, err
}
