package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/craigrmccown/apollo-cli/pkg/cli/internal/output"
	"github.com/craigrmccown/apollo-cli/pkg/cli/internal/parse"
	"github.com/craigrmccown/apollo-cli/pkg/config"
	"github.com/craigrmccown/apollo-cli/pkg/fetch"
	"github.com/craigrmccown/apollo-cli/pkg/graphql"
	"github.com/craigrmccown/apollo-cli/pkg/resolve"
)

// ErrNoSchemaSource is returned when a dependency has nothing to build a
// schema from.
var ErrNoSchemaSource = errors.New("no schema source")

var (
	schemaName     string
	schemaEndpoint string
	schemaHeaders  []string
	schemaSource   string
	schemaTag      string
	schemaOutput   string
)

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Resolve, download and publish schemas",
}

var schemaDownloadCmd = &cobra.Command{
	Use:   "download [output]",
	Short: "Write a schema's introspection result as JSON",
	Long: `Resolve a schema dependency and write its introspection result to output
(default schema.json, "-" for stdout) as {"__schema": ...}.

With --endpoint the dependency is replaced by that endpoint. --header adds
request headers to the dependency's endpoint and may be repeated.`,
	Example: `  apollo schema download
  apollo schema download schema.json --endpoint http://localhost:4000/graphql --header "Authorization: Bearer token"
  apollo schema download --schema api --source engine`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		out := "schema.json"
		if len(args) == 1 {
			out = args[0]
		}

		schema, err := resolveSelectedSchema(cmd)
		if err != nil {
			return err
		}

		doc := graphql.IntrospectionResult{Schema: graphql.Introspect(schema)}
		if out == "-" {
			return output.JSON(cmd.OutOrStdout(), doc)
		}
		if err := writeJSONFile(out, doc); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", out)
		return nil
	},
}

var schemaPrintCmd = &cobra.Command{
	Use:   "print",
	Short: "Print a composed schema as SDL",
	Long: `Resolve a schema dependency and print it as SDL. Fields contributed by
client-side extensions carry the @client directive.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		schema, err := resolveSelectedSchema(cmd)
		if err != nil {
			return err
		}
		_, err = fmt.Fprint(cmd.OutOrStdout(), schema.SDL())
		return err
	},
}

var schemaPublishCmd = &cobra.Command{
	Use:   "publish",
	Short: "Upload a schema to the registry",
	Long: `Resolve a schema dependency and upload its introspection result to the
schema registry under --tag. The dependency's engine key, or --engine-key,
authenticates the upload.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, name, err := selectedDependency()
		if err != nil {
			return err
		}
		key := cfg.Schemas[name].EngineKey
		if key == "" {
			return resolve.ErrMissingAPIKey
		}

		schema, err := resolveDependency(cmd, cfg, name)
		if err != nil {
			return err
		}

		result, err := newFetcher().PublishSchema(cmd.Context(), key, cfg.EngineEndpoint, schemaTag, graphql.Introspect(schema))
		if err != nil {
			return err
		}

		if schemaOutput == string(output.FormatJSON) {
			return output.JSON(cmd.OutOrStdout(), result)
		}
		w := output.Table(cmd.OutOrStdout())
		fmt.Fprintln(w, "TAG\tHASH\tRESULT")
		fmt.Fprintf(w, "%s\t%s\t%s\n", result.Tag, result.Hash, result.Message)
		return w.Flush()
	},
}

// selectedDependency loads the project and applies --schema, --endpoint and
// --header to it.
func selectedDependency() (*config.ApolloConfig, string, error) {
	cfg, err := loadProject(true)
	if err != nil {
		return nil, "", err
	}

	name, err := pickSchema(cfg, schemaName)
	if err != nil {
		if schemaEndpoint == "" {
			return nil, "", err
		}
		// The endpoint stands in for a dependency the project lacks.
		if name = schemaName; name == "" {
			name = config.DefaultSchemaName
		}
		cfg.Schemas[name] = &config.SchemaDependency{EngineKey: engineKey}
	}

	dep := cfg.Schemas[name]
	if schemaEndpoint != "" {
		dep = &config.SchemaDependency{
			Endpoint:  &config.EndpointConfig{URL: schemaEndpoint, Subscriptions: config.SubscriptionsURL(schemaEndpoint)},
			EngineKey: dep.EngineKey,
		}
		cfg.Schemas[name] = dep
	}

	if len(schemaHeaders) > 0 {
		headers, err := parse.Headers(schemaHeaders)
		if err != nil {
			return nil, "", err
		}
		if dep.Endpoint == nil {
			return nil, "", fmt.Errorf("schema %q has no endpoint to send headers to", name)
		}
		if dep.Endpoint.Headers == nil {
			dep.Endpoint.Headers = make(map[string]string, len(headers))
		}
		for k, v := range headers {
			dep.Endpoint.Headers[k] = v
		}
	}
	return cfg, name, nil
}

func resolveSelectedSchema(cmd *cobra.Command) (*graphql.Schema, error) {
	cfg, name, err := selectedDependency()
	if err != nil {
		return nil, err
	}
	return resolveDependency(cmd, cfg, name)
}

func resolveDependency(cmd *cobra.Command, cfg *config.ApolloConfig, name string) (*graphql.Schema, error) {
	source, err := resolve.ParseSource(schemaSource)
	if err != nil {
		return nil, err
	}

	logger.Debug("resolving schema", "schema", name, "source", source.String())
	schema, err := newResolver().ResolveSchema(cmd.Context(), name, cfg, source)
	if err != nil {
		return nil, err
	}
	if schema == nil {
		return nil, fmt.Errorf("%w: schema %q declares no schema file, endpoint or engine key", ErrNoSchemaSource, name)
	}
	return schema, nil
}

func writeJSONFile(path string, v any) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := output.JSON(f, v); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return f.Close()
}

func init() {
	for _, cmd := range []*cobra.Command{schemaDownloadCmd, schemaPrintCmd, schemaPublishCmd} {
		cmd.Flags().StringVarP(&schemaName, "schema", "s", "", "Schema dependency to resolve (default: the only or the \"default\" one)")
		cmd.Flags().StringVar(&schemaEndpoint, "endpoint", "", "Introspect this endpoint instead of the configured sources")
		cmd.Flags().StringArrayVar(&schemaHeaders, "header", nil, "Request header as name:value (repeatable)")
		cmd.Flags().StringVar(&schemaSource, "source", "", "Force the schema origin (engine)")
		schemaCmd.AddCommand(cmd)
	}
	schemaPublishCmd.Flags().StringVarP(&schemaTag, "tag", "t", fetch.DefaultTag, "Registry tag to publish under")
	schemaPublishCmd.Flags().StringVarP(&schemaOutput, "output", "o", "text", "Output format (text, json)")
	rootCmd.AddCommand(schemaCmd)
}
