package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config file names, in discovery order.
const (
	ScriptConfigFile   = "apollo.config.star"
	YAMLConfigFile     = "apollo.config.yaml"
	YMLConfigFile      = "apollo.config.yml"
	JSONConfigFile     = "apollo.config.json"
	PackageManifest    = "package.json"
	packageManifestKey = "apollo"
)

// ConfigDiscoveryOrder lists the files FindAndLoadConfig looks for.
var ConfigDiscoveryOrder = []string{
	ScriptConfigFile,
	YAMLConfigFile,
	YMLConfigFile,
	JSONConfigFile,
	PackageManifest,
}

// IsConfigFile reports whether path names a file FindAndLoadConfig would load.
func IsConfigFile(path string) bool {
	base := filepath.Base(path)
	for _, name := range ConfigDiscoveryOrder {
		if base == name {
			return true
		}
	}
	return false
}

// FindAndLoadConfig loads the project configuration of dir. dir may also
// name a config file directly. Without any config file, an empty
// configuration rooted at dir is synthesized.
func FindAndLoadConfig(dir string, defaultEndpoint, defaultSchema bool) (*ApolloConfig, error) {
	if IsConfigFile(dir) {
		if info, err := os.Stat(dir); err == nil && !info.IsDir() {
			return LoadConfigFromFile(dir, defaultEndpoint, defaultSchema)
		}
	}

	for _, name := range ConfigDiscoveryOrder {
		path := filepath.Join(dir, name)
		info, err := os.Stat(path)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return nil, fmt.Errorf("failed to stat %s: %w", path, err)
		}
		if info.IsDir() {
			continue
		}
		return LoadConfigFromFile(path, defaultEndpoint, defaultSchema)
	}

	return LoadConfig(nil, dir, dir, defaultEndpoint, defaultSchema)
}

// LoadConfigFromFile reads a config file and loads it with LoadConfig. The
// format follows the file name: .star is a Starlark script, .yaml/.yml is
// YAML, package.json contributes its "apollo" key and any other .json file
// is plain JSON. Anything else is ErrUnsupportedFormat.
func LoadConfigFromFile(path string, defaultEndpoint, defaultSchema bool) (*ApolloConfig, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", path, err)
	}

	var parse func([]byte) (map[string]any, error)
	switch ext := strings.ToLower(filepath.Ext(abs)); {
	case filepath.Base(abs) == PackageManifest:
		parse = parseManifest
	case ext == ".star":
		parse = func(data []byte) (map[string]any, error) {
			return evalScript(abs, data)
		}
	case ext == ".yaml" || ext == ".yml":
		parse = parseYAML
	case ext == ".json":
		parse = parseJSON
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}

	data, err := os.ReadFile(abs)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	raw, err := parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", abs, err)
	}

	cfg, err := LoadConfig(raw, abs, filepath.Dir(abs), defaultEndpoint, defaultSchema)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", abs, err)
	}
	return cfg, nil
}

func parseYAML(data []byte) (map[string]any, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, fmt.Errorf("%w: empty file", ErrInvalidYAML)
	}
	var raw map[string]any
	if err := yaml.Unmarshal([]byte(ExpandEnvVars(string(data))), &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidYAML, err)
	}
	return raw, nil
}

func parseJSON(data []byte) (map[string]any, error) {
	expanded := []byte(ExpandEnvVars(string(data)))
	if len(strings.TrimSpace(string(expanded))) == 0 {
		return nil, fmt.Errorf("%w: empty file", ErrInvalidJSON)
	}
	var raw map[string]any
	if err := json.Unmarshal(expanded, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidJSON, err)
	}
	return raw, nil
}

// parseManifest extracts the "apollo" key of a package.json. A manifest
// without the key yields an empty configuration.
func parseManifest(data []byte) (map[string]any, error) {
	var manifest map[string]json.RawMessage
	if err := json.Unmarshal(data, &manifest); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidJSON, err)
	}
	section, ok := manifest[packageManifestKey]
	if !ok {
		return nil, nil
	}
	var raw map[string]any
	if err := json.Unmarshal(section, &raw); err != nil {
		return nil, fmt.Errorf("%w: %q key: %v", ErrInvalidConfig, packageManifestKey, err)
	}
	return raw, nil
}

// envVarPattern matches ${VAR_NAME} or ${VAR_NAME:-default}
var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(?::-([^}]*))?\}`)

// ExpandEnvVars expands environment variables in the input string.
// Supports ${VAR_NAME} and ${VAR_NAME:-default} syntax.
func ExpandEnvVars(input string) string {
	return envVarPattern.ReplaceAllStringFunc(input, func(match string) string {
		submatch := envVarPattern.FindStringSubmatch(match)
		if val := os.Getenv(submatch[1]); val != "" {
			return val
		}
		return submatch[2]
	})
}
