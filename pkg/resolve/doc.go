// Package resolve turns a loaded project configuration into composed
// schemas and resolved document sets.
//
// Schema dependencies form chains through their extends field. Resolving a
// dependency walks its chain base first: the base is fetched (from its
// schema document, its endpoint or the registry, in that order) and every
// level above it layers its extension document on top. Client-side levels
// mark the fields they add as client-only. A chain that revisits a
// dependency fails with a *CycleError, and a reference to an undeclared
// dependency fails with a *LookupError.
//
// Network access goes through a Fetcher; pkg/fetch provides the default
// implementation. Nothing is cached: every call reads schema documents and
// fetches introspection results afresh.
//
// Usage:
//
//	cfg, err := config.FindAndLoadConfig(dir, true, true)
//	if err != nil {
//	    return err
//	}
//	r := resolve.NewResolver(fetch.New())
//	sets, err := r.ResolveDocumentSets(ctx, cfg, true, resolve.SourceAuto)
package resolve
