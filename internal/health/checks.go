package health

import (
	"time"

	"github.com/hellofresh/health-go/v5"
	healthHTTP "github.com/hellofresh/health-go/v5/checks/http"
	healthPostgres "github.com/hellofresh/health-go/v5/checks/postgres"
	healthRedis "github.com/hellofresh/health-go/v5/checks/redis"
	"github.com/renatoquispe/cinema-storefront-platform/internal/config"
)

func NewHealthHandler(cfg *config.Config) (*health.Health, error) {

	checks := []health.Config{
		{
			Name:      "database",
			Timeout:   3 * time.Second,
			SkipOnErr: false,
			Check: healthPostgres.New(healthPostgres.Config{
				DSN: cfg.Database.GetDSN(),
			}),
		},
		{
			Name:      "redis",
			Timeout:   2 * time.Second,
			SkipOnErr: false,
			Check: healthRedis.New(healthRedis.Config{
				DSN: cfg.RedisConnect.GetDSN(),
			}),
		},
	}

	// The gateway check is advisory: a gateway outage degrades checkout but
	// must not mark the whole service down.
	if cfg.Gateway.BaseURL != "" {
		checks = append(checks, health.Config{
			Name:      "payment-gateway",
			Timeout:   3 * time.Second,
			SkipOnErr: true,
			Check: healthHTTP.New(healthHTTP.Config{
				URL: cfg.Gateway.BaseURL,
			}),
		})
	}

	h, err := health.New(
		health.WithComponent(health.Component{
			Name:    "cinema-storefront-platform",
			Version: "1.0.0",
		}),
		health.WithSystemInfo(),
		health.WithChecks(checks...),
	)

	if err != nil {
		return nil, err
	}

	return h, nil
}
