package config

import (
	"encoding/json"
	"fmt"
	"path/filepath"
)

// DefaultSchemaName is the name of the schema synthesized for projects that
// declare none.
const DefaultSchemaName = "default"

// LoadConfig converts a raw configuration structure into an ApolloConfig.
//
// Every schema entry is normalized; its endpoint is defaulted only when
// defaultEndpoint is set and the entry carries no engine key. With no
// schemas declared and defaultSchema set, a single entry named "default" is
// synthesized. Without explicit queries, a project with exactly one schema
// gets one document set bound to it.
//
// Shape errors are reported as ErrInvalidConfig; LoadConfig performs no I/O.
func LoadConfig(raw map[string]any, configFile, configDir string, defaultEndpoint, defaultSchema bool) (*ApolloConfig, error) {
	doc, err := normalizeRaw(raw)
	if err != nil {
		return nil, err
	}
	if err := Validate(doc); err != nil {
		return nil, err
	}

	cfg := &ApolloConfig{
		ConfigFile:    configFile,
		ProjectFolder: configDir,
		Name:          filepath.Base(configDir),
		Schemas:       make(map[string]*SchemaDependency),
		Queries:       []*DocumentSet{},
	}

	if cfg.EngineEndpoint, err = optionalString(doc, "engineEndpoint"); err != nil {
		return nil, err
	}

	if rawSchemas, ok := doc["schemas"]; ok && rawSchemas != nil {
		schemas, ok := rawSchemas.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%w: schemas must be an object, got %T", ErrInvalidConfig, rawSchemas)
		}
		for name, entry := range schemas {
			dep, err := parseSchemaDependency(entry, defaultEndpoint)
			if err != nil {
				return nil, fmt.Errorf("schema %q: %w", name, err)
			}
			cfg.Schemas[name] = dep
		}
	}

	if len(cfg.Schemas) == 0 && defaultSchema {
		dep, err := parseSchemaDependency(map[string]any{}, defaultEndpoint)
		if err != nil {
			return nil, err
		}
		cfg.Schemas[DefaultSchemaName] = dep
	}

	if rawQueries, ok := doc["queries"]; ok && rawQueries != nil {
		var entries []any
		switch q := rawQueries.(type) {
		case []any:
			entries = q
		case map[string]any:
			entries = []any{q}
		default:
			return nil, fmt.Errorf("%w: queries must be an object or a list, got %T", ErrInvalidConfig, rawQueries)
		}
		for i, entry := range entries {
			set, err := parseDocumentSet(entry)
			if err != nil {
				return nil, fmt.Errorf("queries[%d]: %w", i, err)
			}
			cfg.Queries = append(cfg.Queries, set)
		}
	} else if len(cfg.Schemas) == 1 {
		for name := range cfg.Schemas {
			cfg.Queries = append(cfg.Queries, &DocumentSet{
				Schema:   name,
				Includes: append([]string(nil), DefaultIncludes...),
				Excludes: append([]string(nil), DefaultExcludes...),
			})
		}
	}

	return cfg, nil
}

// normalizeRaw converts raw into plain JSON types (map[string]any, []any,
// float64, string, bool) by marshaling it and decoding it back.
func normalizeRaw(raw map[string]any) (map[string]any, error) {
	if raw == nil {
		return map[string]any{}, nil
	}
	data, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if doc == nil {
		doc = map[string]any{}
	}
	return doc, nil
}

func parseSchemaDependency(raw any, defaultEndpoint bool) (*SchemaDependency, error) {
	obj, ok := raw.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: schema dependency must be an object, got %T", ErrInvalidConfig, raw)
	}

	dep := &SchemaDependency{}
	var err error
	if dep.Schema, err = optionalString(obj, "schema"); err != nil {
		return nil, err
	}
	if dep.EngineKey, err = optionalString(obj, "engineKey"); err != nil {
		return nil, err
	}
	if dep.Extends, err = optionalString(obj, "extends"); err != nil {
		return nil, err
	}
	if dep.ClientSide, err = optionalBool(obj, "clientSide"); err != nil {
		return nil, err
	}

	spec, err := ParseEndpointSpec(obj["endpoint"])
	if err != nil {
		return nil, err
	}
	dep.Endpoint = DefaultEndpoint(spec, dep.EngineKey == "" && defaultEndpoint)

	return dep, nil
}

func parseDocumentSet(raw any) (*DocumentSet, error) {
	obj, ok := raw.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: document set must be an object, got %T", ErrInvalidConfig, raw)
	}

	set := &DocumentSet{}
	var err error
	if set.Schema, err = optionalString(obj, "schema"); err != nil {
		return nil, err
	}
	if set.Includes, err = stringList(obj, "includes", DefaultIncludes); err != nil {
		return nil, err
	}
	if set.Excludes, err = stringList(obj, "excludes", DefaultExcludes); err != nil {
		return nil, err
	}
	return set, nil
}

// stringList reads a pattern list given either as a single string or as a
// list of strings. An absent value yields a copy of def.
func stringList(obj map[string]any, key string, def []string) ([]string, error) {
	switch v := obj[key].(type) {
	case nil:
		return append([]string(nil), def...), nil
	case string:
		return []string{v}, nil
	case []any:
		out := make([]string, 0, len(v))
		for i, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("%w: %s[%d] must be a string, got %T", ErrInvalidConfig, key, i, item)
			}
			out = append(out, s)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%w: %s must be a string or a list of strings, got %T", ErrInvalidConfig, key, v)
	}
}

func optionalString(obj map[string]any, key string) (string, error) {
	switch v := obj[key].(type) {
	case nil:
		return "", nil
	case string:
		return v, nil
	default:
		return "", fmt.Errorf("%w: %s must be a string, got %T", ErrInvalidConfig, key, v)
	}
}

func optionalBool(obj map[string]any, key string) (bool, error) {
	switch v := obj[key].(type) {
	case nil:
		return false, nil
	case bool:
		return v, nil
	default:
		return false, fmt.Errorf("%w: %s must be a boolean, got %T", ErrInvalidConfig, key, v)
	}
}
