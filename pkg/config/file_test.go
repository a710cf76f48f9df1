package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadConfigFromFile_YAML(t *testing.T) {
	t.Setenv("APOLLO_TEST_TOKEN", "secret")
	dir := t.TempDir()
	path := writeFile(t, dir, "apollo.config.yaml", `
schemas:
  api:
    endpoint:
      url: https://api.example.com/graphql
      headers:
        Authorization: Bearer ${APOLLO_TEST_TOKEN}
        X-Region: ${APOLLO_TEST_REGION:-eu}
queries:
  - schema: api
    includes: src/**/*.graphql
`)

	cfg, err := LoadConfigFromFile(path, true, true)
	require.NoError(t, err)

	assert.Equal(t, path, cfg.ConfigFile)
	assert.Equal(t, dir, cfg.ProjectFolder)
	assert.Equal(t, filepath.Base(dir), cfg.Name)

	ep := cfg.Schemas["api"].Endpoint
	require.NotNil(t, ep)
	assert.Equal(t, "wss://api.example.com/graphql", ep.Subscriptions)
	assert.Equal(t, "Bearer secret", ep.Headers["Authorization"])
	assert.Equal(t, "eu", ep.Headers["X-Region"])

	require.Len(t, cfg.Queries, 1)
	assert.Equal(t, []string{"src/**/*.graphql"}, cfg.Queries[0].Includes)
}

func TestLoadConfigFromFile_JSON(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "apollo.config.json", `{
  "schemas": {"default": {"engineKey": "service:test:1234"}},
  "engineEndpoint": "http://localhost:9999/api/graphql"
}`)

	cfg, err := LoadConfigFromFile(path, true, true)
	require.NoError(t, err)
	assert.Nil(t, cfg.Schemas["default"].Endpoint)
	assert.Equal(t, "http://localhost:9999/api/graphql", cfg.EngineEndpoint)
	require.Len(t, cfg.Queries, 1)
}

func TestLoadConfigFromFile_PackageJSON(t *testing.T) {
	t.Run("with apollo key", func(t *testing.T) {
		dir := t.TempDir()
		path := writeFile(t, dir, "package.json", `{
  "name": "my-app",
  "apollo": {"schemas": {"api": {"schema": "schema.graphql"}}}
}`)

		cfg, err := LoadConfigFromFile(path, false, false)
		require.NoError(t, err)
		assert.Equal(t, path, cfg.ConfigFile)
		assert.Equal(t, "schema.graphql", cfg.Schemas["api"].Schema)
	})

	t.Run("without apollo key", func(t *testing.T) {
		dir := t.TempDir()
		path := writeFile(t, dir, "package.json", `{"name": "my-app"}`)

		cfg, err := LoadConfigFromFile(path, true, true)
		require.NoError(t, err)
		assert.Contains(t, cfg.Schemas, DefaultSchemaName)
	})

	t.Run("malformed", func(t *testing.T) {
		dir := t.TempDir()
		path := writeFile(t, dir, "package.json", `{"name": `)

		_, err := LoadConfigFromFile(path, true, true)
		assert.ErrorIs(t, err, ErrInvalidJSON)
	})
}

func TestLoadConfigFromFile_Starlark(t *testing.T) {
	t.Setenv("APOLLO_TEST_URL", "http://staging:4000/graphql")
	dir := t.TempDir()
	path := writeFile(t, dir, "apollo.config.star", `
def endpoint(name):
    return env("APOLLO_TEST_URL", "http://localhost:4000/graphql")

config = {
    "schemas": {
        "api": {"endpoint": endpoint("api")},
        "local": {
            "extends": "api",
            "schema": "local.graphql",
            "clientSide": True,
        },
    },
    "queries": [
        {"schema": "local", "includes": ["src/**/*.graphql"], "excludes": ("generated/**",)},
    ],
}
`)

	cfg, err := LoadConfigFromFile(path, false, false)
	require.NoError(t, err)
	assert.Equal(t, "http://staging:4000/graphql", cfg.Schemas["api"].Endpoint.URL)
	assert.True(t, cfg.Schemas["local"].ClientSide)
	require.Len(t, cfg.Queries, 1)
	assert.Equal(t, []string{"generated/**"}, cfg.Queries[0].Excludes)
}

func TestLoadConfigFromFile_StarlarkStruct(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "apollo.config.star", `
config = struct(schemas = {"api": struct(schema = "schema.graphql")})
`)

	cfg, err := LoadConfigFromFile(path, false, false)
	require.NoError(t, err)
	assert.Equal(t, "schema.graphql", cfg.Schemas["api"].Schema)
}

func TestLoadConfigFromFile_StarlarkErrors(t *testing.T) {
	tests := []struct {
		name   string
		script string
	}{
		{"syntax error", "config = {"},
		{"runtime error", "config = {}['missing']"},
		{"no config global", "schemas = {}"},
		{"config not a dict", "config = [1, 2]"},
		{"unsupported value", "config = {'schemas': set()}"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, t.TempDir(), "apollo.config.star", tt.script)
			_, err := LoadConfigFromFile(path, false, false)
			assert.ErrorIs(t, err, ErrScript)
		})
	}
}

func TestLoadConfigFromFile_StarlarkTimeout(t *testing.T) {
	old := ScriptTimeout
	ScriptTimeout = 50 * time.Millisecond
	t.Cleanup(func() { ScriptTimeout = old })

	path := writeFile(t, t.TempDir(), "apollo.config.star", `
def spin():
    n = 0
    for i in range(1000000000):
        n += i
    return n

config = {"n": spin()}
`)

	_, err := LoadConfigFromFile(path, false, false)
	assert.ErrorIs(t, err, ErrScript)
	assert.Contains(t, err.Error(), "exceeded")
}

func TestLoadConfigFromFile_Errors(t *testing.T) {
	t.Run("unsupported extension", func(t *testing.T) {
		path := writeFile(t, t.TempDir(), "apollo.config.js", "module.exports = {}")
		_, err := LoadConfigFromFile(path, false, false)
		assert.ErrorIs(t, err, ErrUnsupportedFormat)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadConfigFromFile(filepath.Join(t.TempDir(), "apollo.config.yaml"), false, false)
		assert.ErrorIs(t, err, os.ErrNotExist)
	})

	t.Run("invalid yaml", func(t *testing.T) {
		path := writeFile(t, t.TempDir(), "apollo.config.yml", "schemas: [unclosed")
		_, err := LoadConfigFromFile(path, false, false)
		assert.ErrorIs(t, err, ErrInvalidYAML)
	})

	t.Run("invalid json", func(t *testing.T) {
		path := writeFile(t, t.TempDir(), "apollo.config.json", "{")
		_, err := LoadConfigFromFile(path, false, false)
		assert.ErrorIs(t, err, ErrInvalidJSON)
	})

	t.Run("empty json", func(t *testing.T) {
		path := writeFile(t, t.TempDir(), "apollo.config.json", "")
		_, err := LoadConfigFromFile(path, false, true)
		assert.ErrorIs(t, err, ErrInvalidJSON)
	})

	t.Run("empty yaml", func(t *testing.T) {
		path := writeFile(t, t.TempDir(), "apollo.config.yaml", "\n")
		_, err := LoadConfigFromFile(path, false, true)
		assert.ErrorIs(t, err, ErrInvalidYAML)
	})

	t.Run("invalid shape", func(t *testing.T) {
		path := writeFile(t, t.TempDir(), "apollo.config.yaml", "queries:\n  includes: 3\n")
		_, err := LoadConfigFromFile(path, false, false)
		assert.ErrorIs(t, err, ErrInvalidConfig)
	})
}

func TestFindAndLoadConfig(t *testing.T) {
	t.Run("no config synthesizes one", func(t *testing.T) {
		dir := t.TempDir()
		cfg, err := FindAndLoadConfig(dir, true, true)
		require.NoError(t, err)
		assert.Equal(t, dir, cfg.ConfigFile)
		assert.Equal(t, dir, cfg.ProjectFolder)
		assert.Equal(t, DefaultEndpointURL, cfg.Schemas[DefaultSchemaName].Endpoint.URL)
	})

	t.Run("script wins over manifest", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, dir, "package.json", `{"apollo": {"schemas": {"fromManifest": {}}}}`)
		writeFile(t, dir, "apollo.config.yaml", "schemas:\n  fromYAML: {}\n")
		writeFile(t, dir, "apollo.config.star", `config = {"schemas": {"fromScript": {}}}`)

		cfg, err := FindAndLoadConfig(dir, false, false)
		require.NoError(t, err)
		assert.Equal(t, []string{"fromScript"}, cfg.SchemaNames())
	})

	t.Run("declarative config wins over manifest", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, dir, "package.json", `{"apollo": {"schemas": {"fromManifest": {}}}}`)
		writeFile(t, dir, "apollo.config.json", `{"schemas": {"fromJSON": {}}}`)

		cfg, err := FindAndLoadConfig(dir, false, false)
		require.NoError(t, err)
		assert.Equal(t, []string{"fromJSON"}, cfg.SchemaNames())
	})

	t.Run("manifest", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, dir, "package.json", `{"apollo": {"schemas": {"fromManifest": {}}}}`)

		cfg, err := FindAndLoadConfig(dir, false, false)
		require.NoError(t, err)
		assert.Equal(t, []string{"fromManifest"}, cfg.SchemaNames())
		assert.Equal(t, filepath.Join(dir, "package.json"), cfg.ConfigFile)
	})

	t.Run("path naming a config file", func(t *testing.T) {
		dir := t.TempDir()
		path := writeFile(t, dir, "apollo.config.yaml", "schemas:\n  direct: {}\n")

		cfg, err := FindAndLoadConfig(path, false, false)
		require.NoError(t, err)
		assert.Equal(t, []string{"direct"}, cfg.SchemaNames())
		assert.Equal(t, dir, cfg.ProjectFolder)
	})

	t.Run("empty config file is not skipped", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, dir, "apollo.config.json", "")

		cfg, err := FindAndLoadConfig(dir, false, true)
		assert.ErrorIs(t, err, ErrInvalidJSON)
		assert.Nil(t, cfg)
	})

	t.Run("errors surface", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, dir, "apollo.config.json", `{"schemas": 1}`)

		_, err := FindAndLoadConfig(dir, false, false)
		assert.ErrorIs(t, err, ErrInvalidConfig)
	})
}

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("APOLLO_TEST_SET", "value")

	tests := []struct {
		input string
		want  string
	}{
		{"${APOLLO_TEST_SET}", "value"},
		{"${APOLLO_TEST_UNSET}", ""},
		{"${APOLLO_TEST_UNSET:-fallback}", "fallback"},
		{"${APOLLO_TEST_SET:-fallback}", "value"},
		{"prefix-${APOLLO_TEST_SET}-suffix", "prefix-value-suffix"},
		{"$APOLLO_TEST_SET", "$APOLLO_TEST_SET"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, ExpandEnvVars(tt.input))
		})
	}
}

func TestIsConfigFile(t *testing.T) {
	assert.True(t, IsConfigFile("/a/b/apollo.config.star"))
	assert.True(t, IsConfigFile("package.json"))
	assert.False(t, IsConfigFile("/a/b/apollo.config.js"))
	assert.False(t, IsConfigFile("/a/b"))
}
