// Package cli declares the server configuration and its command line
// flags.
package cli

import (
	"context"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"

	"github.com/greener-project/greener/pkg/auth"
	"github.com/greener-project/greener/pkg/db"
	"github.com/greener-project/greener/pkg/server"
	"github.com/greener-project/greener/pkg/server/router"
	"github.com/greener-project/greener/pkg/stores"
)

type Config struct {
	DatabaseURL        string
	JWTSecret          string
	ListenAddress      string
	CORSAllowedOrigins string
	Metrics            bool
	AccessTokenTTL     time.Duration
	RefreshTokenTTL    time.Duration
}

func Flags(config *Config) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "database-url",
			Usage:       "Database URL (postgres://, mysql:// or sqlite:///)",
			EnvVars:     []string{"GREENER_DATABASE_URL"},
			Destination: &config.DatabaseURL,
		},
		&cli.StringFlag{
			Name:        "jwt-secret",
			Usage:       "Secret used to sign access and refresh tokens",
			EnvVars:     []string{"GREENER_JWT_SECRET"},
			Destination: &config.JWTSecret,
		},
		&cli.StringFlag{
			Name:        "listen-address",
			Usage:       "HTTP listen address",
			EnvVars:     []string{"GREENER_LISTEN_ADDRESS"},
			Value:       ":8080",
			Destination: &config.ListenAddress,
		},
		&cli.StringFlag{
			Name:        "cors-allowed-origins",
			Usage:       "Comma-separated list of allowed CORS origins",
			EnvVars:     []string{"GREENER_CORS_ALLOWED_ORIGINS"},
			Value:       "*",
			Destination: &config.CORSAllowedOrigins,
		},
		&cli.BoolFlag{
			Name:        "metrics",
			Usage:       "Expose prometheus metrics on /metrics",
			EnvVars:     []string{"GREENER_METRICS"},
			Value:       true,
			Destination: &config.Metrics,
		},
		&cli.DurationFlag{
			Name:        "access-token-ttl",
			Usage:       "Access token lifetime",
			EnvVars:     []string{"GREENER_ACCESS_TOKEN_TTL"},
			Value:       auth.AccessTokenTTL,
			Destination: &config.AccessTokenTTL,
		},
		&cli.DurationFlag{
			Name:        "refresh-token-ttl",
			Usage:       "Refresh token lifetime",
			EnvVars:     []string{"GREENER_REFRESH_TOKEN_TTL"},
			Value:       auth.RefreshTokenTTL,
			Destination: &config.RefreshTokenTTL,
		},
	}
}

// ToServer opens the database, bootstraps the schema and wires the
// stores and handlers into a runnable server.
func (c *Config) ToServer(ctx context.Context) (*server.Server, error) {
	if c.DatabaseURL == "" {
		return nil, errors.New("database-url is required")
	}
	if c.JWTSecret == "" {
		return nil, errors.New("jwt-secret is required")
	}

	bdb, err := db.Open(ctx, c.DatabaseURL)
	if err != nil {
		return nil, err
	}
	if err := db.Bootstrap(ctx, bdb); err != nil {
		_ = bdb.Close()
		return nil, err
	}

	tokens := auth.NewTokenService(c.JWTSecret).
		WithTTL(c.AccessTokenTTL, c.RefreshTokenTTL)

	handler := router.New(router.Services{
		Tokens:    tokens,
		Users:     stores.NewUserStore(bdb),
		APIKeys:   stores.NewAPIKeyStore(bdb),
		Sessions:  stores.NewSessionStore(bdb),
		Labels:    stores.NewLabelStore(bdb),
		Testcases: stores.NewTestcaseStore(bdb),
	}, router.Options{
		CORSAllowedOrigins: splitOrigins(c.CORSAllowedOrigins),
		Metrics:            c.Metrics,
	})

	return &server.Server{
		DB:            bdb,
		Handler:       handler,
		ListenAddress: c.ListenAddress,
	}, nil
}

func splitOrigins(raw string) []string {
	var origins []string
	for _, origin := range strings.Split(raw, ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			origins = append(origins, origin)
		}
	}
	return origins
}
