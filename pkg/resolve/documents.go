package resolve

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"golang.org/x/sync/errgroup"

	"github.com/craigrmccown/apollo-cli/pkg/config"
	"github.com/craigrmccown/apollo-cli/pkg/graphql"
)

// ResolvedDocumentSet is a document set with its globs expanded and, when
// requested, its schema composed.
type ResolvedDocumentSet struct {
	// Schema is nil unless a schema was requested and the bound dependency
	// yields one.
	Schema *graphql.Schema
	// Endpoint and EngineKey are copied from the bound dependency.
	Endpoint  *config.EndpointConfig
	EngineKey string
	// DocumentPaths are absolute, deduplicated and sorted.
	DocumentPaths []string
	OriginalSet   *config.DocumentSet
}

// ResolveDocumentSets resolves every document set of cfg concurrently.
// Results keep the order of cfg.Queries. Schemas are composed only when
// needSchema is set; the first failure aborts the whole call.
func (r *Resolver) ResolveDocumentSets(ctx context.Context, cfg *config.ApolloConfig, needSchema bool, override Source) ([]*ResolvedDocumentSet, error) {
	if err := override.validate(); err != nil {
		return nil, err
	}

	results := make([]*ResolvedDocumentSet, len(cfg.Queries))
	g, gctx := errgroup.WithContext(ctx)
	for i, set := range cfg.Queries {
		g.Go(func() error {
			resolved, err := r.resolveDocumentSet(gctx, cfg, i, set, needSchema, override)
			if err != nil {
				return err
			}
			results[i] = resolved
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func (r *Resolver) resolveDocumentSet(ctx context.Context, cfg *config.ApolloConfig, index int, set *config.DocumentSet, needSchema bool, override Source) (*ResolvedDocumentSet, error) {
	referrer := fmt.Sprintf("queries[%d]", index)

	matcher, err := newDocumentMatcher(cfg, set, referrer)
	if err != nil {
		return nil, err
	}

	resolved := &ResolvedDocumentSet{OriginalSet: set}
	if dep := cfg.Schema(set.Schema); dep != nil {
		resolved.Endpoint = dep.Endpoint.Clone()
		resolved.EngineKey = dep.EngineKey
	}

	if resolved.DocumentPaths, err = matcher.Expand(); err != nil {
		return nil, fmt.Errorf("%s: %w", referrer, err)
	}

	if needSchema && set.Schema != "" {
		schema, err := r.resolveSchema(ctx, set.Schema, cfg, override, nil, referrer)
		if err != nil {
			return nil, err
		}
		resolved.Schema = schema
	}

	return resolved, nil
}

// SchemaChainPaths walks the extends chain starting at name and returns the
// schema document path of every dependency on it, in chain order.
func SchemaChainPaths(cfg *config.ApolloConfig, name string) ([]string, error) {
	return schemaChainPaths(cfg, name, "")
}

func schemaChainPaths(cfg *config.ApolloConfig, name, referrer string) ([]string, error) {
	var (
		paths []string
		chain []string
		err   error
	)
	for name != "" {
		if chain, err = visit(chain, name); err != nil {
			return nil, err
		}
		dep := cfg.Schema(name)
		if dep == nil {
			return nil, &LookupError{Name: name, Referrer: referrer}
		}
		if dep.Schema != "" {
			paths = append(paths, strings.TrimPrefix(dep.Schema, fileScheme))
		}
		referrer = fmt.Sprintf("schema %q", name)
		name = dep.Extends
	}
	return paths, nil
}

// DocumentMatcher decides which files belong to a document set.
type DocumentMatcher struct {
	root     string
	includes []string
	excludes []string
	// schemaFiles holds the chain's schema documents as slash separated
	// paths relative to root.
	schemaFiles map[string]bool
}

// NewDocumentMatcher builds the matcher of set within cfg. The schema
// documents of the set's extends chain are never matched.
func NewDocumentMatcher(cfg *config.ApolloConfig, set *config.DocumentSet) (*DocumentMatcher, error) {
	return newDocumentMatcher(cfg, set, "")
}

func newDocumentMatcher(cfg *config.ApolloConfig, set *config.DocumentSet, referrer string) (*DocumentMatcher, error) {
	var schemaPaths []string
	if set.Schema != "" {
		var err error
		if schemaPaths, err = schemaChainPaths(cfg, set.Schema, referrer); err != nil {
			return nil, err
		}
	}

	root, err := filepath.Abs(cfg.ProjectFolder)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve project folder: %w", err)
	}

	m := &DocumentMatcher{
		root:        root,
		includes:    make([]string, 0, len(set.Includes)),
		excludes:    make([]string, 0, len(set.Excludes)),
		schemaFiles: make(map[string]bool, len(schemaPaths)),
	}
	for _, p := range set.Includes {
		p = trimDotSlash(p)
		if !doublestar.ValidatePattern(filepath.ToSlash(p)) {
			return nil, fmt.Errorf("%w: include %q", doublestar.ErrBadPattern, p)
		}
		m.includes = append(m.includes, p)
	}
	for _, p := range set.Excludes {
		p = trimDotSlash(p)
		if !doublestar.ValidatePattern(p) {
			return nil, fmt.Errorf("%w: exclude %q", doublestar.ErrBadPattern, p)
		}
		m.excludes = append(m.excludes, p)
	}
	for _, p := range schemaPaths {
		m.schemaFiles[m.relative(p)] = true
	}
	return m, nil
}

// Expand returns the absolute paths of every file matched by the include
// patterns and not filtered out, deduplicated and sorted.
func (m *DocumentMatcher) Expand() ([]string, error) {
	fsys := os.DirFS(m.root)
	seen := make(map[string]bool)
	paths := []string{}

	for _, pattern := range m.includes {
		var matches []string
		if local := filepath.ToSlash(pattern); fs.ValidPath(local) {
			rel, err := doublestar.Glob(fsys, local, doublestar.WithFilesOnly(), doublestar.WithNoHidden())
			if err != nil {
				return nil, fmt.Errorf("failed to expand %q: %w", pattern, err)
			}
			for _, r := range rel {
				matches = append(matches, filepath.Join(m.root, filepath.FromSlash(r)))
			}
		} else {
			abs := pattern
			if !filepath.IsAbs(abs) {
				abs = filepath.Join(m.root, pattern)
			}
			found, err := doublestar.FilepathGlob(abs, doublestar.WithFilesOnly(), doublestar.WithNoHidden())
			if err != nil {
				return nil, fmt.Errorf("failed to expand %q: %w", pattern, err)
			}
			matches = found
		}

		for _, path := range matches {
			if seen[path] {
				continue
			}
			seen[path] = true
			if m.filtered(m.relative(path)) {
				continue
			}
			paths = append(paths, path)
		}
	}

	sort.Strings(paths)
	return paths, nil
}

// Match reports whether the file at path belongs to the document set. It
// agrees with Expand for existing files but does not touch the filesystem.
func (m *DocumentMatcher) Match(path string) bool {
	if !filepath.IsAbs(path) {
		path = filepath.Join(m.root, path)
	}
	rel := m.relative(path)
	if m.filtered(rel) {
		return false
	}
	for _, pattern := range m.includes {
		local := filepath.ToSlash(pattern)
		if fs.ValidPath(local) {
			if hidden(rel) && !mentionsHidden(local) {
				continue
			}
			if doublestar.MatchUnvalidated(local, rel) {
				return true
			}
			continue
		}
		abs := pattern
		if !filepath.IsAbs(abs) {
			abs = filepath.Join(m.root, pattern)
		}
		if doublestar.PathMatchUnvalidated(filepath.Clean(abs), path) {
			return true
		}
	}
	return false
}

// filtered reports whether a root-relative path is excluded or is one of
// the chain's schema documents.
func (m *DocumentMatcher) filtered(rel string) bool {
	if m.schemaFiles[rel] {
		return true
	}
	for _, pattern := range m.excludes {
		if doublestar.MatchUnvalidated(filepath.ToSlash(pattern), rel) {
			return true
		}
	}
	return false
}

// relative converts path to a slash separated path relative to the project
// root. Paths outside the root keep their leading "../" segments.
func (m *DocumentMatcher) relative(path string) string {
	if !filepath.IsAbs(path) {
		return filepath.ToSlash(filepath.Clean(path))
	}
	rel, err := filepath.Rel(m.root, path)
	if err != nil {
		return filepath.ToSlash(path)
	}
	return filepath.ToSlash(rel)
}

func trimDotSlash(pattern string) string {
	for strings.HasPrefix(pattern, "./") {
		pattern = pattern[2:]
	}
	return pattern
}

func hidden(rel string) bool {
	for _, seg := range strings.Split(rel, "/") {
		if strings.HasPrefix(seg, ".") && seg != "." && seg != ".." {
			return true
		}
	}
	return false
}

func mentionsHidden(pattern string) bool {
	return strings.HasPrefix(pattern, ".") || strings.Contains(pattern, "/.")
}
