// Package config loads Apollo project configuration.
//
// A project describes one or more schema dependencies and the document sets
// (operation files) bound to them:
//
//	schemas:
//	  server:
//	    endpoint: http://localhost:4000/graphql
//	  local:
//	    extends: server
//	    schema: ./local.graphql
//	    clientSide: true
//	queries:
//	  schema: local
//	  includes: src/**/*.graphql
//
// LoadConfig turns such a raw structure into an ApolloConfig, defaulting
// endpoints and synthesizing the implicit "default" schema and document set.
// It performs no I/O. LoadConfigFromFile and FindAndLoadConfig read the raw
// structure from apollo.config.star (Starlark), apollo.config.yaml,
// apollo.config.yml, apollo.config.json or the "apollo" key of package.json.
//
// Configuration is always read fresh; nothing is cached between calls.
package config
