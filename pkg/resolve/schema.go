package resolve

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/craigrmccown/apollo-cli/pkg/config"
	"github.com/craigrmccown/apollo-cli/pkg/graphql"
)

// Fetcher obtains raw introspection results. It is the only component that
// performs network access on behalf of the resolver.
type Fetcher interface {
	// FetchSchema introspects endpoint.URL, or reads it as a local file
	// relative to projectDir when it is not a network location.
	FetchSchema(ctx context.Context, endpoint *config.EndpointConfig, projectDir string) (*graphql.IntrospectionSchema, error)
	// FetchSchemaFromEngine downloads the current schema of the service
	// identified by engineKey. An empty engineEndpoint selects the default
	// registry.
	FetchSchemaFromEngine(ctx context.Context, engineKey, engineEndpoint string) (*graphql.IntrospectionSchema, error)
}

// Resolver composes schemas and document sets from a project configuration.
// It holds no mutable state; concurrent calls are safe.
type Resolver struct {
	fetcher Fetcher
}

// NewResolver returns a Resolver that fetches through fetcher.
func NewResolver(fetcher Fetcher) *Resolver {
	return &Resolver{fetcher: fetcher}
}

// ResolveSchema resolves the named schema dependency of cfg.
//
// A dependency that extends another is composed on top of its base, with
// the fields of a client-side extension marked client-only. A client-side
// dependency without a base is built from its own document without any
// fetch. Any other dependency is fetched according to override; when it
// declares no source at all the result is nil with a nil error. The base of
// an extends chain always resolves by automatic dispatch.
func (r *Resolver) ResolveSchema(ctx context.Context, name string, cfg *config.ApolloConfig, override Source) (*graphql.Schema, error) {
	if err := override.validate(); err != nil {
		return nil, err
	}
	return r.resolveSchema(ctx, name, cfg, override, nil, "")
}

func (r *Resolver) resolveSchema(ctx context.Context, name string, cfg *config.ApolloConfig, override Source, chain []string, referrer string) (*graphql.Schema, error) {
	chain, err := visit(chain, name)
	if err != nil {
		return nil, err
	}

	dep := cfg.Schema(name)
	if dep == nil {
		return nil, &LookupError{Name: name, Referrer: referrer}
	}

	switch {
	case dep.Extends != "":
		base, err := r.resolveSchema(ctx, dep.Extends, cfg, SourceAuto, chain, fmt.Sprintf("schema %q", name))
		if err != nil {
			return nil, err
		}
		if base == nil {
			return nil, fmt.Errorf("%w: %q extends %q", ErrNoBaseSchema, name, dep.Extends)
		}
		if dep.Schema == "" {
			return base, nil
		}
		src, err := graphql.ReadSource(schemaPath(cfg, dep.Schema))
		if err != nil {
			return nil, fmt.Errorf("schema %q: %w", name, err)
		}
		extended, err := base.Extend(src, dep.ClientSide)
		if err != nil {
			return nil, fmt.Errorf("schema %q: %w", name, err)
		}
		return extended, nil

	case dep.ClientSide:
		if dep.Schema == "" {
			return nil, fmt.Errorf("schema %q: %w: a client-side schema needs a schema document", name, config.ErrInvalidConfig)
		}
		src, err := graphql.ReadSource(schemaPath(cfg, dep.Schema))
		if err != nil {
			return nil, fmt.Errorf("schema %q: %w", name, err)
		}
		schema, err := graphql.ParseClientSchema(src)
		if err != nil {
			return nil, fmt.Errorf("schema %q: %w", name, err)
		}
		return schema, nil

	default:
		is, err := r.fetchIntrospection(ctx, dep, cfg, override)
		if err != nil {
			return nil, fmt.Errorf("schema %q: %w", name, err)
		}
		if is == nil {
			return nil, nil
		}
		schema, err := graphql.BuildFromIntrospection(is)
		if err != nil {
			return nil, fmt.Errorf("schema %q: %w", name, err)
		}
		return schema, nil
	}
}

// fetchIntrospection picks the origin of a dependency's schema. Without an
// override the priority is schema document, endpoint, engine key. Nothing
// to fetch from is not an error.
func (r *Resolver) fetchIntrospection(ctx context.Context, dep *config.SchemaDependency, cfg *config.ApolloConfig, override Source) (*graphql.IntrospectionSchema, error) {
	switch override {
	case SourceEngine:
		if dep.EngineKey == "" {
			return nil, ErrMissingAPIKey
		}
		return r.fetchFromEngine(ctx, dep.EngineKey, cfg.EngineEndpoint)
	case SourceAuto:
	default:
		return nil, &UnknownSourceError{Source: string(override)}
	}

	switch {
	case dep.Schema != "":
		return r.fetch(ctx, &config.EndpointConfig{URL: dep.Schema}, cfg.ProjectFolder)
	case dep.Endpoint != nil && dep.Endpoint.URL != "":
		return r.fetch(ctx, dep.Endpoint.Clone(), cfg.ProjectFolder)
	case dep.EngineKey != "":
		return r.fetchFromEngine(ctx, dep.EngineKey, cfg.EngineEndpoint)
	default:
		return nil, nil
	}
}

func (r *Resolver) fetch(ctx context.Context, endpoint *config.EndpointConfig, projectDir string) (*graphql.IntrospectionSchema, error) {
	if r.fetcher == nil {
		return nil, ErrNoFetcher
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return r.fetcher.FetchSchema(ctx, endpoint, projectDir)
}

func (r *Resolver) fetchFromEngine(ctx context.Context, engineKey, engineEndpoint string) (*graphql.IntrospectionSchema, error) {
	if r.fetcher == nil {
		return nil, ErrNoFetcher
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return r.fetcher.FetchSchemaFromEngine(ctx, engineKey, engineEndpoint)
}

// visit appends name to the extends chain, failing when it is already on it.
// The returned slice never shares its backing array with chain.
func visit(chain []string, name string) ([]string, error) {
	next := make([]string, len(chain), len(chain)+1)
	copy(next, chain)
	next = append(next, name)
	for _, seen := range chain {
		if seen == name {
			return nil, &CycleError{Chain: next}
		}
	}
	return next, nil
}

// schemaPath resolves a dependency's schema document against the project.
// fileScheme is the optional prefix of a local schema document path.
const fileScheme = "file://"

func schemaPath(cfg *config.ApolloConfig, path string) string {
	path = strings.TrimPrefix(path, fileScheme)
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(cfg.ProjectFolder, path)
}
