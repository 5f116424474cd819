package config

import (
	"fmt"

	"github.com/caarlos0/env/v6"
)

// EnvPrefix is prepended to every variable name, e.g. TRADEHUB_SERVER_ADDR.
const EnvPrefix = "TRADEHUB_"

func parseEnv(config *Config) {
	if err := env.Parse(config, env.Options{Prefix: EnvPrefix}); err != nil {
		panic(fmt.Errorf("read env config error: %w", err))
	}
}
