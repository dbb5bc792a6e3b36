package router

import (
	"net/http"

	authsvc "bonofacil-backend/internal/application/auth"
	bondsvc "bonofacil-backend/internal/application/bonds"
	calcsvc "bonofacil-backend/internal/application/calculations"
	healthsvc "bonofacil-backend/internal/application/health"
	"bonofacil-backend/internal/config"
	"bonofacil-backend/internal/finance"
	"bonofacil-backend/internal/infrastructure/cache"
	"bonofacil-backend/internal/infrastructure/database"
	authhandler "bonofacil-backend/internal/interfaces/handlers/auth"
	healthhandler "bonofacil-backend/internal/interfaces/handlers/health"
	issuerhandler "bonofacil-backend/internal/interfaces/handlers/issuer"
	investorhandler "bonofacil-backend/internal/interfaces/handlers/investor"
	"bonofacil-backend/internal/middleware"
	"bonofacil-backend/internal/pkg/constants"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// Deps are the live collaborators of the HTTP app.
type Deps struct {
	DB     *gorm.DB
	Rdb    *redis.Client
	Engine *finance.Engine
}

// CreateApp opens the database and Redis named by cfg and builds the app.
func CreateApp(cfg *config.Config) (*fiber.App, *gorm.DB, *redis.Client, error) {
	rdb, err := middleware.NewRedisClient(cfg.RedisURL)
	if err != nil {
		return nil, nil, nil, err
	}
	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		return nil, nil, nil, err
	}
	if cfg.AutoMigrate {
		if err := database.AutoMigrate(db); err != nil {
			return nil, nil, nil, err
		}
	}
	engine, err := finance.NewEngine(cfg.Precision, finance.WithLogger(log.Logger))
	if err != nil {
		return nil, nil, nil, err
	}
	return New(cfg, Deps{DB: db, Rdb: rdb, Engine: engine}), db, rdb, nil
}

// New wires routes over already-open dependencies.
func New(cfg *config.Config, deps Deps) *fiber.App {
	app := fiber.New(fiber.Config{
		DisableStartupMessage:   true,
		ErrorHandler:            middleware.ErrorHandler,
		EnableTrustedProxyCheck: true,
	})

	sessionCfg := middleware.SessionConfig{
		Secret:            cfg.SessionSecret,
		AllowCrossSiteDev: cfg.AllowCrossSiteDev,
		IsProduction:      cfg.IsProduction(),
	}

	app.Use(middleware.CORS(middleware.CORSConfig{
		AllowedSuffix: cfg.FrontendURLEndsWith,
		DevPassword:   cfg.DevPassword,
	}))
	app.Use(middleware.Tracing())
	app.Use(middleware.RouteLogger())
	app.Use(middleware.HealthMarker(deps.Rdb))
	app.Use(middleware.Session(sessionCfg, deps.Rdb))

	hh := &healthhandler.Handlers{
		Collector:      &healthsvc.Collector{Rdb: deps.Rdb, DB: &database.Pinger{DB: deps.DB}, Engine: deps.Engine},
		Rdb:            deps.Rdb,
		HealthAdminKey: cfg.HealthAdminKey,
	}
	app.Get("/", func(c *fiber.Ctx) error { return c.Redirect("/health/json") })
	app.Get("/reset", hh.Reset)
	app.Get("/health/json", hh.JSON)
	app.Get("/health/errors", hh.Errors)

	accounts := &authsvc.Service{DB: deps.DB}
	ah := &authhandler.Handlers{Users: accounts, Accounts: accounts, Rdb: deps.Rdb, Config: sessionCfg}
	ag := app.Group("/api/v1/auth")
	ag.Post("/sign-up", ah.SignUp)
	ag.Post("/sign-in", ah.SignIn)
	ag.Get("/me", ah.Me)
	ag.Delete("/sign-out", ah.SignOut)

	bonds := &bondsvc.Service{
		DB:     deps.DB,
		Engine: deps.Engine,
		Cache:  &cache.ScheduleCache{Rdb: deps.Rdb, TTL: cfg.ScheduleCacheTTL},
	}
	calcs := &calcsvc.Service{DB: deps.DB, Engine: deps.Engine, Bonds: bonds}

	ih := &issuerhandler.Handlers{Bonds: bonds}
	ig := app.Group("/api/v1/issuer", middleware.RequireAuth(), middleware.AuthorizePermission(constants.ManageBonds))
	ig.Post("/bonds", ih.Create)
	ig.Get("/bonds", ih.List)
	ig.Get("/bonds/:id", ih.Get)
	ig.Put("/bonds/:id", ih.Update)
	ig.Delete("/bonds/:id", ih.Delete)
	ig.Get("/bonds/:id/cash-flows", ih.CashFlows)

	vh := &investorhandler.Handlers{Bonds: bonds, Calculations: calcs}
	vg := app.Group("/api/v1/investor", middleware.RequireAuth())
	catalog := vg.Group("/bonds", middleware.AuthorizePermission(constants.ViewCatalog))
	catalog.Get("/catalog", vh.Catalog)
	catalog.Get("/catalog/currency/:currency", vh.CatalogByCurrency)
	catalog.Get("/catalog/rate", vh.CatalogByRate)
	catalog.Get("/catalog/:id", vh.CatalogBond)
	catalog.Get("/:id/cash-flows", vh.CashFlows)
	catalog.Get("/:id/price-report", vh.PriceReport)

	cg := vg.Group("/calculations", middleware.AuthorizePermission(constants.ManageCalculations))
	cg.Post("/", middleware.AuthorizePermission(constants.EvaluateBonds), vh.Evaluate)
	cg.Get("/", vh.ListCalculations)
	cg.Get("/:id", vh.GetCalculation)
	cg.Delete("/:id", vh.DeleteCalculation)

	return app
}

func Handler(app *fiber.App) http.Handler {
	return adaptor.FiberApp(app)
}
