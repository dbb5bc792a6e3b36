package config

import (
	"os"
	"strings"
	"time"

	"bonofacil-backend/internal/finance"

	"github.com/spf13/viper"
)

// Config holds application configuration (env + Viper).
type Config struct {
	Env                 string
	Port                string
	SessionSecret       string
	DatabaseURL         string
	RedisURL            string
	FrontendURLEndsWith string
	DevPassword         string
	AllowCrossSiteDev   bool
	HealthAdminKey      string
	AutoMigrate         bool
	LogLevel            string
	LogFile             string
	ScheduleCacheTTL    time.Duration
	Precision           finance.Precision
}

// Load loads config from env and optional .env file.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	_ = v.ReadInConfig()

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	setDefaults(v)

	env := v.GetString("APP_ENV")
	dbURL := v.GetString("DATABASE_URL_DEV")
	if env == "production" {
		dbURL = v.GetString("DATABASE_URL_PROD")
	} else if env == "test" {
		dbURL = v.GetString("DATABASE_URL_TEST")
	}
	if dbURL == "" {
		dbURL = os.Getenv("DATABASE_URL")
	}

	def := finance.DefaultPrecision()
	prec := finance.Precision{
		Scale:       int32(v.GetInt("DECIMAL_SCALE")),
		RateScale:   int32(v.GetInt("RATE_SCALE")),
		MoneyScale:  int32(v.GetInt("MONEY_SCALE")),
		MetricScale: int32(v.GetInt("METRIC_SCALE")),
	}
	if prec.Scale == 0 {
		prec = def
	}
	if err := prec.Validate(); err != nil {
		return nil, err
	}

	return &Config{
		Env:                 env,
		Port:                v.GetString("PORT"),
		SessionSecret:       v.GetString("SESSION_SECRET"),
		DatabaseURL:         dbURL,
		RedisURL:            v.GetString("REDIS_URL"),
		FrontendURLEndsWith: v.GetString("FRONTEND_URL_ENDS_WITH"),
		DevPassword:         v.GetString("DEV_PASSWORD"),
		AllowCrossSiteDev:   v.GetBool("ALLOW_CROSS_SITE_DEV"),
		HealthAdminKey:      v.GetString("HEALTH_ADMIN_KEY"),
		AutoMigrate:         v.GetBool("AUTO_MIGRATE"),
		LogLevel:            v.GetString("LOG_LEVEL"),
		LogFile:             v.GetString("LOG_FILE"),
		ScheduleCacheTTL:    v.GetDuration("SCHEDULE_CACHE_TTL"),
		Precision:           prec,
	}, nil
}

func setDefaults(v *viper.Viper) {
	def := finance.DefaultPrecision()
	v.SetDefault("PORT", "8080")
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("AUTO_MIGRATE", true)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("SCHEDULE_CACHE_TTL", "24h")
	v.SetDefault("DECIMAL_SCALE", def.Scale)
	v.SetDefault("RATE_SCALE", def.RateScale)
	v.SetDefault("MONEY_SCALE", def.MoneyScale)
	v.SetDefault("METRIC_SCALE", def.MetricScale)
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}
