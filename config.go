package users

import (
	"time"

	"github.com/caarlos0/env/v11"
	goerrors "github.com/goliatone/go-errors"
)

// AppConfig is read from the environment at startup.
type AppConfig struct {
	HTTPAddr        string        `env:"HTTP_ADDR" envDefault:":3000"`
	SigningSecret   string        `env:"JWT_SECRET,required"`
	TokenExpiration int           `env:"JWT_EXPIRATION_HOURS" envDefault:"12"`
	ContextKey      string        `env:"AUTH_CONTEXT_KEY" envDefault:"current_user"`
	DatabaseDSN     string        `env:"DATABASE_DSN,required"`
	RequestTimeout  time.Duration `env:"REQUEST_TIMEOUT" envDefault:"5s"`
	BaseURL         string        `env:"BASE_URL" envDefault:"http://localhost:3000"`
}

var _ Config = (*AppConfig)(nil)

// LoadConfig parses the environment into an AppConfig.
func LoadConfig() (*AppConfig, error) {
	cfg := &AppConfig{}
	if err := env.Parse(cfg); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryOperation, "unable to parse environment configuration")
	}
	return cfg, nil
}

func (c *AppConfig) GetSigningKey() string {
	return c.SigningSecret
}

func (c *AppConfig) GetTokenExpiration() int {
	return c.TokenExpiration
}

func (c *AppConfig) GetContextKey() string {
	return c.ContextKey
}
