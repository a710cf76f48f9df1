package fetch

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/vektah/gqlparser/v2/ast"

	"github.com/craigrmccown/apollo-cli/pkg/graphql"
)

// readSchemaFile loads an introspection result from a local file. Content
// starting with '{' is decoded as JSON, either the full response shape
// {"data":{"__schema":…}} or a bare {"__schema":…}; anything else is parsed
// as SDL and introspected.
func (c *Client) readSchemaFile(url, projectDir string) (*graphql.IntrospectionSchema, error) {
	path := strings.TrimPrefix(url, "file://")
	if !filepath.IsAbs(path) {
		path = filepath.Join(projectDir, path)
	}

	c.log.Debug("reading schema file", "path", path)

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read schema file: %w", err)
	}

	trimmed := bytes.TrimSpace(data)
	if bytes.HasPrefix(trimmed, []byte("{")) {
		return decodeIntrospection(path, trimmed)
	}

	schema, err := graphql.ParseSource(&ast.Source{Name: path, Input: string(data)})
	if err != nil {
		return nil, err
	}
	return graphql.Introspect(schema), nil
}

func decodeIntrospection(path string, data []byte) (*graphql.IntrospectionSchema, error) {
	var doc struct {
		Data   *graphql.IntrospectionResult `json:"data"`
		Schema *graphql.IntrospectionSchema `json:"__schema"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	switch {
	case doc.Data != nil && doc.Data.Schema != nil:
		return doc.Data.Schema, nil
	case doc.Schema != nil:
		return doc.Schema, nil
	default:
		return nil, fmt.Errorf("%w in %s", ErrNoIntrospection, path)
	}
}
