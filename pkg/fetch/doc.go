// Package fetch implements resolve.Fetcher over HTTP and the local
// filesystem, and talks to the schema registry.
//
// Endpoint URLs starting with http:// or https:// are introspected with a
// POST of the standard introspection query. Every other URL is a file path,
// relative to the project folder, holding either an introspection result
// in JSON or a schema in SDL.
//
// Registry calls authenticate with an API key shaped service:<id>:<secret>
// sent in the x-api-key header.
//
//	client := fetch.New(fetch.WithLogger(logger), fetch.WithTimeout(10*time.Second))
//	schema, err := client.FetchSchema(ctx, &config.EndpointConfig{URL: url}, dir)
package fetch
