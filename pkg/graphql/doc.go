// Package graphql holds the composed GraphQL schema model used by the
// resolver.
//
// A Schema is built from SDL documents (ParseSchema, ParseSchemaFile),
// from a client-only document (ParseClientSchema), or from an introspection
// result (BuildFromIntrospection). Extend layers another document on top of
// an existing schema and returns a new Schema; with clientSide set, every
// field the document adds is tracked as client-only and carries the
// @client directive on its definition.
//
// Basic usage:
//
//	base, err := graphql.ParseSchema(`type Query { me: User } type User { id: ID! }`)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	local, err := base.Extend(&ast.Source{
//	    Name:  "local.graphql",
//	    Input: `extend type User { isSelected: Boolean }`,
//	}, true)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	local.IsClientField("User", "isSelected") // true
//	fmt.Println(local.SDL())
//
// Introspect goes the other way and produces the structure a server returns
// for IntrospectionQuery, which is what `apollo schema download` writes.
package graphql
