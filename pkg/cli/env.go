package cli

import (
	"os"

	"github.com/craigrmccown/apollo-cli/pkg/logging"
)

// Environment variable names
const (
	EnvProjectDir     = "APOLLO_PROJECT_DIR"
	EnvLogLevel       = logging.EnvLevel
	EnvLogFormat      = logging.EnvFormat
	EnvEngineKey      = "ENGINE_API_KEY"
	EnvEngineEndpoint = "APOLLO_ENGINE_ENDPOINT"
)

// envOr returns the value of the environment variable name, or def when it
// is unset or empty.
func envOr(name, def string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return def
}
