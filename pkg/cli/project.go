package cli

import (
	"fmt"

	"github.com/craigrmccown/apollo-cli/pkg/config"
	"github.com/craigrmccown/apollo-cli/pkg/fetch"
	"github.com/craigrmccown/apollo-cli/pkg/resolve"
)

// loadProject loads the configuration of the --project folder and applies
// the registry flags on top of it.
func loadProject(defaultEndpoint bool) (*config.ApolloConfig, error) {
	cfg, err := config.FindAndLoadConfig(projectDir, defaultEndpoint, true)
	if err != nil {
		return nil, err
	}

	if engineKey != "" {
		for _, dep := range cfg.Schemas {
			dep.EngineKey = engineKey
		}
	}
	if engineEndpoint != "" {
		cfg.EngineEndpoint = engineEndpoint
	}

	logger.Debug("loaded project",
		"configFile", cfg.ConfigFile,
		"projectFolder", cfg.ProjectFolder,
		"schemas", len(cfg.Schemas),
		"queries", len(cfg.Queries),
	)
	return cfg, nil
}

func newFetcher() *fetch.Client {
	return fetch.New(fetch.WithLogger(logger))
}

func newResolver() *resolve.Resolver {
	return resolve.NewResolver(newFetcher())
}

// pickSchema returns the dependency a schema command works on: the named
// one, the only one, or the default one.
func pickSchema(cfg *config.ApolloConfig, name string) (string, error) {
	if name != "" {
		if cfg.Schema(name) == nil {
			return "", &resolve.LookupError{Name: name, Referrer: "--schema"}
		}
		return name, nil
	}
	names := cfg.SchemaNames()
	switch {
	case len(names) == 1:
		return names[0], nil
	case cfg.Schema(config.DefaultSchemaName) != nil:
		return config.DefaultSchemaName, nil
	default:
		return "", fmt.Errorf("project declares %d schemas, choose one with --schema", len(names))
	}
}
