package resolve

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/craigrmccown/apollo-cli/pkg/config"
	"github.com/craigrmccown/apollo-cli/pkg/graphql"
)

const serverSDL = `
type Query {
	me: User
}

type User {
	id: ID!
	name: String
}
`

type fetchCall struct {
	URL        string
	ProjectDir string
}

type engineCall struct {
	Key      string
	Endpoint string
}

// fakeFetcher records every call and serves a fixed introspection result.
type fakeFetcher struct {
	mu          sync.Mutex
	result      *graphql.IntrospectionSchema
	err         error
	fetches     []fetchCall
	engineCalls []engineCall
}

func newFakeFetcher(t *testing.T) *fakeFetcher {
	t.Helper()
	schema, err := graphql.ParseSchema(serverSDL)
	require.NoError(t, err)
	return &fakeFetcher{result: graphql.Introspect(schema)}
}

func (f *fakeFetcher) FetchSchema(_ context.Context, endpoint *config.EndpointConfig, projectDir string) (*graphql.IntrospectionSchema, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetches = append(f.fetches, fetchCall{URL: endpoint.URL, ProjectDir: projectDir})
	return f.result, f.err
}

func (f *fakeFetcher) FetchSchemaFromEngine(_ context.Context, engineKey, engineEndpoint string) (*graphql.IntrospectionSchema, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.engineCalls = append(f.engineCalls, engineCall{Key: engineKey, Endpoint: engineEndpoint})
	return f.result, f.err
}

func (f *fakeFetcher) calls() (fetches []fetchCall, engine []engineCall) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]fetchCall(nil), f.fetches...), append([]engineCall(nil), f.engineCalls...)
}

// writeProject creates files under a fresh project directory and returns it.
func writeProject(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		path := filepath.Join(dir, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return dir
}

func loadConfig(t *testing.T, raw map[string]any, dir string) *config.ApolloConfig {
	t.Helper()
	cfg, err := config.LoadConfig(raw, dir, dir, false, false)
	require.NoError(t, err)
	return cfg
}
