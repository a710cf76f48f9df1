// Package cli implements the apollo command-line interface.
//
// Commands:
//   - config: print the loaded project configuration (yaml or json)
//   - schema download: write a schema's introspection result as JSON
//   - schema print: print a composed schema as SDL
//   - schema publish: upload a schema to the registry
//   - documents: list the resolved document sets and their files
//   - watch: follow the project for configuration and document changes
//
// Every command loads the project from --project (default ".", or
// APOLLO_PROJECT_DIR). --engine-key (or ENGINE_API_KEY) replaces the engine
// key of every schema dependency and --engine-endpoint (or
// APOLLO_ENGINE_ENDPOINT) replaces the registry endpoint.
package cli
