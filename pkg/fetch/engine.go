package fetch

import (
	"context"
	"fmt"
	"strings"

	"github.com/craigrmccown/apollo-cli/pkg/graphql"
	"github.com/craigrmccown/apollo-cli/pkg/resolve"
)

// DefaultEngineEndpoint is the schema registry used when none is configured.
const DefaultEngineEndpoint = "https://engine-graphql.apollographql.com/api/graphql"

// DefaultTag is the registry tag schemas are read from and published to.
const DefaultTag = "current"

// EngineKeyHeader carries the registry API key.
const EngineKeyHeader = "x-api-key"

const registryFragments = `
fragment IntrospectionFullType on IntrospectionType {
  kind
  name
  description
  fields {
    name
    description
    args { ...IntrospectionInputValue }
    type { ...IntrospectionTypeRef }
    isDeprecated
    deprecationReason
  }
  inputFields { ...IntrospectionInputValue }
  interfaces { ...IntrospectionTypeRef }
  enumValues(includeDeprecated: true) {
    name
    description
    isDeprecated
    deprecationReason
  }
  possibleTypes { ...IntrospectionTypeRef }
}

fragment IntrospectionInputValue on IntrospectionInputValue {
  name
  description
  type { ...IntrospectionTypeRef }
  defaultValue
}

fragment IntrospectionTypeRef on IntrospectionType {
  kind
  name
  ofType {
    kind
    name
    ofType {
      kind
      name
      ofType {
        kind
        name
        ofType {
          kind
          name
          ofType {
            kind
            name
            ofType {
              kind
              name
            }
          }
        }
      }
    }
  }
}
`

// GetSchemaByTagQuery reads the introspection result stored under a tag.
const GetSchemaByTagQuery = `query GetSchemaByTag($id: ID!, $tag: String!) {
  service(id: $id) {
    schema(tag: $tag) {
      hash
      __schema: introspection {
        queryType { name }
        mutationType { name }
        subscriptionType { name }
        types(filter: { includeBuiltInTypes: true }) { ...IntrospectionFullType }
        directives {
          name
          description
          locations
          args { ...IntrospectionInputValue }
        }
      }
    }
  }
}
` + registryFragments

// UploadSchemaMutation stores an introspection result under a tag.
const UploadSchemaMutation = `mutation UploadSchema($id: ID!, $schema: IntrospectionSchemaInput!, $tag: String!) {
  service(id: $id) {
    uploadSchema(tagName: $tag, schema: $schema) {
      code
      message
      success
      tag {
        tag
        schema {
          hash
        }
      }
    }
  }
}
`

// UploadResult reports the outcome of PublishSchema.
type UploadResult struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Tag     string `json:"tag"`
	Hash    string `json:"hash"`
}

// ServiceID extracts the service id from a key shaped service:<id>:<secret>.
func ServiceID(engineKey string) (string, error) {
	parts := strings.Split(engineKey, ":")
	if len(parts) != 3 || parts[0] != "service" || parts[1] == "" || parts[2] == "" {
		return "", ErrInvalidAPIKey
	}
	return parts[1], nil
}

// FetchSchemaFromEngine reads the schema published under the current tag
// of the service the key belongs to.
func (c *Client) FetchSchemaFromEngine(ctx context.Context, engineKey, engineEndpoint string) (*graphql.IntrospectionSchema, error) {
	id, url, err := engineTarget(engineKey, engineEndpoint)
	if err != nil {
		return nil, err
	}

	req := graphQLRequest{
		Query:         GetSchemaByTagQuery,
		OperationName: "GetSchemaByTag",
		Variables:     map[string]any{"id": id, "tag": DefaultTag},
	}
	var data struct {
		Service *struct {
			Schema *struct {
				Hash   string                       `json:"hash"`
				Schema *graphql.IntrospectionSchema `json:"__schema"`
			} `json:"schema"`
		} `json:"service"`
	}
	if err := c.query(ctx, url, map[string]string{EngineKeyHeader: engineKey}, false, req, &data); err != nil {
		return nil, err
	}
	if data.Service == nil || data.Service.Schema == nil || data.Service.Schema.Schema == nil {
		return nil, fmt.Errorf("%w: service %q has no schema tagged %q", ErrSchemaNotPublished, id, DefaultTag)
	}

	c.log.Debug("fetched schema from registry", "service", id, "hash", data.Service.Schema.Hash)
	return data.Service.Schema.Schema, nil
}

// PublishSchema uploads schema to the registry under tag, or DefaultTag
// when tag is empty.
func (c *Client) PublishSchema(ctx context.Context, engineKey, engineEndpoint, tag string, schema *graphql.IntrospectionSchema) (*UploadResult, error) {
	id, url, err := engineTarget(engineKey, engineEndpoint)
	if err != nil {
		return nil, err
	}
	if schema == nil {
		return nil, ErrNoIntrospection
	}
	if tag == "" {
		tag = DefaultTag
	}

	req := graphQLRequest{
		Query:         UploadSchemaMutation,
		OperationName: "UploadSchema",
		Variables:     map[string]any{"id": id, "schema": schema, "tag": tag},
	}
	var data struct {
		Service *struct {
			UploadSchema *struct {
				Code    string `json:"code"`
				Message string `json:"message"`
				Success *bool  `json:"success"`
				Tag     *struct {
					Tag    string `json:"tag"`
					Schema struct {
						Hash string `json:"hash"`
					} `json:"schema"`
				} `json:"tag"`
			} `json:"uploadSchema"`
		} `json:"service"`
	}
	if err := c.query(ctx, url, map[string]string{EngineKeyHeader: engineKey}, false, req, &data); err != nil {
		return nil, err
	}

	if data.Service == nil || data.Service.UploadSchema == nil {
		return nil, fmt.Errorf("%w: empty response", ErrUploadFailed)
	}
	upload := data.Service.UploadSchema
	if (upload.Success != nil && !*upload.Success) || upload.Tag == nil {
		return nil, fmt.Errorf("%w: %s", ErrUploadFailed, upload.Message)
	}

	c.log.Debug("published schema", "service", id, "tag", upload.Tag.Tag, "hash", upload.Tag.Schema.Hash)
	return &UploadResult{
		Code:    upload.Code,
		Message: upload.Message,
		Tag:     upload.Tag.Tag,
		Hash:    upload.Tag.Schema.Hash,
	}, nil
}

func engineTarget(engineKey, engineEndpoint string) (id, url string, err error) {
	if engineKey == "" {
		return "", "", resolve.ErrMissingAPIKey
	}
	if id, err = ServiceID(engineKey); err != nil {
		return "", "", err
	}
	url = engineEndpoint
	if url == "" {
		url = DefaultEngineEndpoint
	}
	return id, url, nil
}
