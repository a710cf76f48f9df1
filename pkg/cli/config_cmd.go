package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ohler55/ojg/jp"
	"github.com/spf13/cobra"

	"github.com/craigrmccown/apollo-cli/pkg/cli/internal/output"
	"github.com/craigrmccown/apollo-cli/pkg/config"
)

var (
	configOutput      string
	configShowSecrets bool
	configNoDefaults  bool
	configJSONPath    string
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the loaded project configuration",
	Long: `Print the project configuration after loading: environment variables
expanded, endpoints normalized, subscription URLs derived and defaults
applied.

Engine keys are redacted unless --show-secrets is given. --jsonpath prints
only the values a JSONPath expression selects.`,
	Example: `  # Show the configuration as YAML
  apollo config

  # Show it as JSON, without the default endpoint
  apollo config --output json --no-default-endpoint

  # Show the endpoint of one schema
  apollo config --jsonpath '$.schemas.api.endpoint.url'`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := output.ParseFormat(configOutput, output.FormatYAML, output.FormatJSON)
		if err != nil {
			return err
		}
		cfg, err := loadProject(!configNoDefaults)
		if err != nil {
			return err
		}
		if !configShowSecrets {
			cfg = redact(cfg)
		}

		var v any = cfg
		if configJSONPath != "" {
			if v, err = selectJSONPath(cfg, configJSONPath); err != nil {
				return err
			}
		}
		if format == output.FormatJSON {
			return output.JSON(cmd.OutOrStdout(), v)
		}
		return output.YAML(cmd.OutOrStdout(), v)
	},
}

// redact returns a copy of cfg with the secret part of every engine key
// masked.
func redact(cfg *config.ApolloConfig) *config.ApolloConfig {
	out := cfg.Clone()
	for _, dep := range out.Schemas {
		dep.EngineKey = redactKey(dep.EngineKey)
	}
	return out
}

// selectJSONPath evaluates path against the JSON form of v. A single match
// is returned as is, several as a list.
func selectJSONPath(v any, path string) (any, error) {
	expr, err := jp.ParseString(path)
	if err != nil {
		return nil, fmt.Errorf("invalid jsonpath %q: %w", path, err)
	}

	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var generic any
	if err := json.Unmarshal(data, &generic); err != nil {
		return nil, err
	}

	results := expr.Get(generic)
	switch len(results) {
	case 0:
		return nil, fmt.Errorf("jsonpath %q matched nothing", path)
	case 1:
		return results[0], nil
	default:
		return results, nil
	}
}

func redactKey(key string) string {
	if key == "" {
		return ""
	}
	i := strings.LastIndex(key, ":")
	if i < 0 {
		return "****"
	}
	return key[:i+1] + "****"
}

func init() {
	configCmd.Flags().StringVarP(&configOutput, "output", "o", "yaml", "Output format (yaml, json)")
	configCmd.Flags().BoolVar(&configShowSecrets, "show-secrets", false, "Print engine keys unredacted")
	configCmd.Flags().BoolVar(&configNoDefaults, "no-default-endpoint", false, "Do not default endpoints to "+config.DefaultEndpointURL)
	configCmd.Flags().StringVar(&configJSONPath, "jsonpath", "", "Print only the values selected by a JSONPath expression")
	rootCmd.AddCommand(configCmd)
}
