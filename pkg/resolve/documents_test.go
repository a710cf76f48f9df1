package resolve

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/craigrmccown/apollo-cli/pkg/config"
)

func abs(dir string, names ...string) []string {
	out := make([]string, len(names))
	for i, name := range names {
		out[i] = filepath.Join(dir, filepath.FromSlash(name))
	}
	return out
}

func TestResolveDocumentSets_EndToEndDefaults(t *testing.T) {
	dir := writeProject(t, map[string]string{
		"src/query.graphql":              "query Me { me { id } }",
		"node_modules/pkg/frag.graphql":  "fragment F on User { id }",
		".git/HEAD":                      "ref: refs/heads/main",
	})
	fetcher := newFakeFetcher(t)
	cfg := loadConfig(t, map[string]any{
		"schemas": map[string]any{
			"default": map[string]any{"endpoint": map[string]any{"url": "http://localhost:4000/graphql"}},
		},
	}, dir)

	sets, err := NewResolver(fetcher).ResolveDocumentSets(context.Background(), cfg, false, SourceAuto)
	require.NoError(t, err)
	require.Len(t, sets, 1)

	set := sets[0]
	assert.Equal(t, "default", set.OriginalSet.Schema)
	require.NotNil(t, set.Endpoint)
	assert.Equal(t, "http://localhost:4000/graphql", set.Endpoint.URL)
	assert.Equal(t, "ws://localhost:4000/graphql", set.Endpoint.Subscriptions)
	assert.Nil(t, set.Schema, "schema not requested")
	assert.Equal(t, abs(dir, "src/query.graphql"), set.DocumentPaths)

	fetches, engine := fetcher.calls()
	assert.Empty(t, fetches, "no fetch without needSchema")
	assert.Empty(t, engine)
}

func TestResolveDocumentSets_WithSchema(t *testing.T) {
	dir := writeProject(t, map[string]string{"a.graphql": "query A { me { id } }"})
	fetcher := newFakeFetcher(t)
	cfg := loadConfig(t, map[string]any{
		"schemas": map[string]any{"api": map[string]any{"endpoint": "http://api", "engineKey": "service:x:1"}},
	}, dir)

	sets, err := NewResolver(fetcher).ResolveDocumentSets(context.Background(), cfg, true, SourceAuto)
	require.NoError(t, err)
	require.Len(t, sets, 1)
	require.NotNil(t, sets[0].Schema)
	assert.Equal(t, []string{"me"}, sets[0].Schema.ListQueries())
	assert.Equal(t, "service:x:1", sets[0].EngineKey)

	fetches, _ := fetcher.calls()
	assert.Len(t, fetches, 1)
}

func TestResolveDocumentSets_ExcludesChainSchemaFiles(t *testing.T) {
	dir := writeProject(t, map[string]string{
		"schema.graphql":             "type Query { me: User } type User { id: ID! }",
		"local/state.graphql":        "extend type User { selected: Boolean }",
		"local/admin.graphql":        "extend type User { admin: Boolean }",
		"local/queries/me.graphql":   "query Me { me { id selected } }",
		"operations/list.graphql":    "query List { me { id } }",
		"operations/ignored.graphql": "query Ignored { me { id } }",
	})
	cfg := loadConfig(t, map[string]any{
		"schemas": map[string]any{
			"server": map[string]any{"schema": "schema.graphql"},
			"client": map[string]any{"extends": "server", "schema": "./local/state.graphql", "clientSide": true},
			"admin":  map[string]any{"extends": "client", "schema": filepath.Join(dir, "local", "admin.graphql")},
		},
		"queries": []any{
			map[string]any{
				"schema":   "admin",
				"includes": []any{"**/*.graphql", "local/**"},
				"excludes": "operations/ignored.graphql",
			},
		},
	}, dir)

	sets, err := NewResolver(newFakeFetcher(t)).ResolveDocumentSets(context.Background(), cfg, false, SourceAuto)
	require.NoError(t, err)
	require.Len(t, sets, 1)

	// Depth two chain: three schema files, none of them a document.
	assert.Equal(t, abs(dir, "local/queries/me.graphql", "operations/list.graphql"), sets[0].DocumentPaths)
}

func TestResolveDocumentSets_ExcludesFileURLSchemas(t *testing.T) {
	dir := writeProject(t, map[string]string{
		"schema.graphql":    "type Query { me: User } type User { id: ID! }",
		"local.graphql":     "extend type User { selected: Boolean }",
		"src/query.graphql": "query Me { me { id selected } }",
	})
	cfg := loadConfig(t, map[string]any{
		"schemas": map[string]any{
			"server": map[string]any{"schema": "file://schema.graphql"},
			"client": map[string]any{"extends": "server", "schema": "file://local.graphql", "clientSide": true},
		},
		"queries": map[string]any{"schema": "client", "includes": "**/*.graphql"},
	}, dir)

	sets, err := NewResolver(newFakeFetcher(t)).ResolveDocumentSets(context.Background(), cfg, true, SourceAuto)
	require.NoError(t, err)
	require.Len(t, sets, 1)
	require.NotNil(t, sets[0].Schema)
	assert.Equal(t, abs(dir, "src/query.graphql"), sets[0].DocumentPaths)
}

func TestResolveDocumentSets_Idempotent(t *testing.T) {
	dir := writeProject(t, map[string]string{
		"a/one.graphql":   "query One { me { id } }",
		"a/two.graphql":   "query Two { me { id } }",
		"b/three.graphql": "query Three { me { id } }",
		"b/readme.md":     "docs",
	})
	cfg := loadConfig(t, map[string]any{
		"schemas": map[string]any{"api": map[string]any{}},
		"queries": map[string]any{"schema": "api", "includes": []any{"b/*.graphql", "**/*.graphql", "a/**"}},
	}, dir)
	r := NewResolver(newFakeFetcher(t))

	first, err := r.ResolveDocumentSets(context.Background(), cfg, false, SourceAuto)
	require.NoError(t, err)
	second, err := r.ResolveDocumentSets(context.Background(), cfg, false, SourceAuto)
	require.NoError(t, err)

	want := abs(dir, "a/one.graphql", "a/two.graphql", "b/three.graphql")
	assert.Equal(t, want, first[0].DocumentPaths, "overlapping includes are deduplicated")
	assert.Equal(t, first[0].DocumentPaths, second[0].DocumentPaths)
}

func TestResolveDocumentSets_MultipleSetsKeepOrder(t *testing.T) {
	dir := writeProject(t, map[string]string{
		"web/a.graphql":    "query A { me { id } }",
		"mobile/b.graphql": "query B { me { id } }",
	})
	cfg := loadConfig(t, map[string]any{
		"schemas": map[string]any{
			"web":    map[string]any{"endpoint": "http://web"},
			"mobile": map[string]any{"endpoint": "http://mobile"},
		},
		"queries": []any{
			map[string]any{"schema": "web", "includes": "web/**"},
			map[string]any{"schema": "mobile", "includes": "mobile/**"},
			map[string]any{"includes": "nothing/**"},
		},
	}, dir)

	sets, err := NewResolver(newFakeFetcher(t)).ResolveDocumentSets(context.Background(), cfg, true, SourceAuto)
	require.NoError(t, err)
	require.Len(t, sets, 3)

	assert.Equal(t, abs(dir, "web/a.graphql"), sets[0].DocumentPaths)
	assert.Equal(t, "http://web", sets[0].Endpoint.URL)
	assert.Equal(t, abs(dir, "mobile/b.graphql"), sets[1].DocumentPaths)
	assert.Equal(t, "http://mobile", sets[1].Endpoint.URL)

	assert.Empty(t, sets[2].DocumentPaths)
	assert.Nil(t, sets[2].Schema)
	assert.Nil(t, sets[2].Endpoint)
	assert.Same(t, cfg.Queries[2], sets[2].OriginalSet)
}

func TestResolveDocumentSets_Errors(t *testing.T) {
	t.Run("unknown schema", func(t *testing.T) {
		cfg := loadConfig(t, map[string]any{
			"queries": map[string]any{"schema": "missing"},
		}, t.TempDir())

		_, err := NewResolver(newFakeFetcher(t)).ResolveDocumentSets(context.Background(), cfg, false, SourceAuto)
		var lookup *LookupError
		require.ErrorAs(t, err, &lookup)
		assert.Equal(t, "missing", lookup.Name)
		assert.Equal(t, "queries[0]", lookup.Referrer)
	})

	t.Run("dangling extends in chain", func(t *testing.T) {
		cfg := loadConfig(t, map[string]any{
			"schemas": map[string]any{"local": map[string]any{"extends": "gone"}},
		}, t.TempDir())

		_, err := NewResolver(newFakeFetcher(t)).ResolveDocumentSets(context.Background(), cfg, false, SourceAuto)
		assert.ErrorIs(t, err, ErrSchemaNotFound)
	})

	t.Run("cycle in chain", func(t *testing.T) {
		cfg := loadConfig(t, map[string]any{
			"schemas": map[string]any{
				"a": map[string]any{"extends": "b"},
				"b": map[string]any{"extends": "a"},
			},
			"queries": map[string]any{"schema": "a"},
		}, t.TempDir())

		_, err := NewResolver(newFakeFetcher(t)).ResolveDocumentSets(context.Background(), cfg, false, SourceAuto)
		assert.ErrorIs(t, err, ErrCircularExtension)
	})

	t.Run("bad pattern", func(t *testing.T) {
		cfg := loadConfig(t, map[string]any{
			"queries": map[string]any{"includes": "src/[a-"},
		}, t.TempDir())

		_, err := NewResolver(newFakeFetcher(t)).ResolveDocumentSets(context.Background(), cfg, false, SourceAuto)
		assert.Error(t, err)
	})

	t.Run("schema failure fails the call", func(t *testing.T) {
		fetcher := newFakeFetcher(t)
		cfg := loadConfig(t, map[string]any{
			"schemas": map[string]any{"api": map[string]any{"endpoint": "http://api"}},
		}, t.TempDir())

		_, err := NewResolver(fetcher).ResolveDocumentSets(context.Background(), cfg, true, SourceEngine)
		assert.ErrorIs(t, err, ErrMissingAPIKey)
	})

	t.Run("unknown override", func(t *testing.T) {
		cfg := loadConfig(t, map[string]any{}, t.TempDir())
		_, err := NewResolver(newFakeFetcher(t)).ResolveDocumentSets(context.Background(), cfg, false, Source("disk"))
		assert.ErrorIs(t, err, ErrUnknownSource)
	})
}

func TestSchemaChainPaths(t *testing.T) {
	cfg := &config.ApolloConfig{Schemas: map[string]*config.SchemaDependency{
		"server": {Endpoint: &config.EndpointConfig{URL: "http://api"}},
		"client": {Extends: "server", Schema: "client.graphql"},
		"admin":  {Extends: "client", Schema: "admin.graphql"},
	}}

	paths, err := SchemaChainPaths(cfg, "admin")
	require.NoError(t, err)
	assert.Equal(t, []string{"admin.graphql", "client.graphql"}, paths)
}

func TestDocumentMatcher_Match(t *testing.T) {
	dir := t.TempDir()
	cfg := &config.ApolloConfig{
		ProjectFolder: dir,
		Schemas: map[string]*config.SchemaDependency{
			"api": {Schema: "schema/schema.graphql"},
		},
	}
	set := &config.DocumentSet{
		Schema:   "api",
		Includes: []string{"./src/**/*.graphql", "schema/**"},
		Excludes: []string{"src/generated/**"},
	}

	m, err := NewDocumentMatcher(cfg, set)
	require.NoError(t, err)

	tests := []struct {
		path string
		want bool
	}{
		{"src/a.graphql", true},
		{filepath.Join(dir, "src", "deep", "b.graphql"), true},
		{"src/a.ts", false},
		{"src/generated/c.graphql", false},
		{"schema/schema.graphql", false},
		{"schema/other.graphql", true},
		{"src/.cache/d.graphql", false},
		{"lib/e.graphql", false},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, m.Match(tt.path))
		})
	}
}
