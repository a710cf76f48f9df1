package config

import (
	"maps"
	"sort"
)

// EndpointConfig locates a live GraphQL server.
type EndpointConfig struct {
	// URL is the HTTP endpoint used for queries, mutations and introspection.
	URL string `json:"url,omitempty" yaml:"url,omitempty"`
	// Subscriptions is the WebSocket endpoint. Derived from URL when unset.
	Subscriptions string `json:"subscriptions,omitempty" yaml:"subscriptions,omitempty"`
	// Headers are sent with every operation.
	Headers map[string]string `json:"headers,omitempty" yaml:"headers,omitempty"`
	// SkipSSLValidation disables TLS certificate verification.
	SkipSSLValidation bool `json:"skipSSLValidation,omitempty" yaml:"skipSSLValidation,omitempty"`
}

// Clone returns a deep copy of the endpoint. A nil receiver yields nil.
func (e *EndpointConfig) Clone() *EndpointConfig {
	if e == nil {
		return nil
	}
	c := *e
	c.Headers = maps.Clone(e.Headers)
	return &c
}

// SchemaDependency is one named schema of a project.
//
// With Extends set, Schema is the path of an extension document layered on
// top of the named base rather than an independent schema source.
type SchemaDependency struct {
	Schema     string          `json:"schema,omitempty" yaml:"schema,omitempty"`
	Endpoint   *EndpointConfig `json:"endpoint,omitempty" yaml:"endpoint,omitempty"`
	EngineKey  string          `json:"engineKey,omitempty" yaml:"engineKey,omitempty"`
	Extends    string          `json:"extends,omitempty" yaml:"extends,omitempty"`
	ClientSide bool            `json:"clientSide,omitempty" yaml:"clientSide,omitempty"`
}

// Clone returns a deep copy of the dependency.
func (d *SchemaDependency) Clone() *SchemaDependency {
	if d == nil {
		return nil
	}
	c := *d
	c.Endpoint = d.Endpoint.Clone()
	return &c
}

// Default glob patterns of a DocumentSet.
var (
	DefaultIncludes = []string{"**"}
	DefaultExcludes = []string{"node_modules/**"}
)

// DocumentSet is a collection of operation documents bound to a schema.
type DocumentSet struct {
	// Schema names the SchemaDependency the documents are written against.
	Schema   string   `json:"schema,omitempty" yaml:"schema,omitempty"`
	Includes []string `json:"includes" yaml:"includes"`
	Excludes []string `json:"excludes" yaml:"excludes"`
}

// Clone returns a deep copy of the document set.
func (s *DocumentSet) Clone() *DocumentSet {
	if s == nil {
		return nil
	}
	return &DocumentSet{
		Schema:   s.Schema,
		Includes: append([]string(nil), s.Includes...),
		Excludes: append([]string(nil), s.Excludes...),
	}
}

// ApolloConfig is a fully loaded project configuration.
type ApolloConfig struct {
	// ConfigFile is the file the configuration was read from. For a
	// synthesized configuration it equals ProjectFolder.
	ConfigFile string `json:"configFile" yaml:"configFile"`
	// ProjectFolder is the root that relative paths and globs resolve against.
	ProjectFolder string `json:"projectFolder" yaml:"projectFolder"`
	// Name is the final path segment of ProjectFolder.
	Name           string                       `json:"name" yaml:"name"`
	Schemas        map[string]*SchemaDependency `json:"schemas" yaml:"schemas"`
	Queries        []*DocumentSet               `json:"queries" yaml:"queries"`
	EngineEndpoint string                       `json:"engineEndpoint,omitempty" yaml:"engineEndpoint,omitempty"`
}

// Schema returns the named dependency, or nil if it is not declared.
func (c *ApolloConfig) Schema(name string) *SchemaDependency {
	if c == nil {
		return nil
	}
	return c.Schemas[name]
}

// SchemaNames returns the declared dependency names in sorted order.
func (c *ApolloConfig) SchemaNames() []string {
	names := make([]string, 0, len(c.Schemas))
	for name := range c.Schemas {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Clone returns a deep copy of the configuration.
func (c *ApolloConfig) Clone() *ApolloConfig {
	if c == nil {
		return nil
	}
	out := *c
	out.Schemas = make(map[string]*SchemaDependency, len(c.Schemas))
	for name, dep := range c.Schemas {
		out.Schemas[name] = dep.Clone()
	}
	out.Queries = make([]*DocumentSet, len(c.Queries))
	for i, set := range c.Queries {
		out.Queries[i] = set.Clone()
	}
	return &out
}
