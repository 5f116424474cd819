package config

import (
	"fmt"

	"github.com/caarlos0/env/v6"
)

// EnvPrefix is prepended to every variable name, e.g. TRADEHUB_GRPC_ADDR.
const EnvPrefix = "TRADEHUB_"

// parseEnv overlays variables that are set; unset ones keep their value.
func parseEnv(config *Config) {
	if err := env.Parse(config, env.Options{Prefix: EnvPrefix}); err != nil {
		panic(fmt.Errorf("read env config error: %w", err))
	}
}
