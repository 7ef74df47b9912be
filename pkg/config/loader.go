package config

import (
	"errors"
	"fmt"
	"sync"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// ErrNilPointer is returned when Load receives a nil configuration pointer.
var ErrNilPointer = errors.New("config: nil pointer provided")

var defaultEnvLoaded sync.Once

// Load parses environment variables into the provided configuration struct
// based on `env` field tags. The default .env file is loaded once per
// process; a missing file is not an error.
//
// Example:
//
//	type ServerConfig struct {
//		Addr       string `env:"SERVER_ADDR" envDefault:":8080"`
//		SigningKey string `env:"JWT_SIGNING_KEY,required"`
//	}
//
//	var cfg ServerConfig
//	if err := config.Load(&cfg); err != nil {
//		// handle error
//	}
func Load[T any](v *T) error {
	defaultEnvLoaded.Do(func() {
		_ = godotenv.Load()
	})
	if v == nil {
		return ErrNilPointer
	}

	if err := env.Parse(v); err != nil {
		return fmt.Errorf("config: parse environment: %w", err)
	}
	return nil
}
