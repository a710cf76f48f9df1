package graphql

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/vektah/gqlparser/v2/ast"
)

const testSchema = `
type Query {
	user(id: ID!): User
	users: [User!]!
	post(id: ID!): Post
}

type Mutation {
	createUser(input: CreateUserInput!): User
	deleteUser(id: ID!): Boolean!
}

type Subscription {
	userCreated: User
}

type User implements Node {
	id: ID!
	name: String!
	role: Role!
	posts: [Post!]!
}

type Post implements Node {
	id: ID!
	title: String!
	author: User!
}

input CreateUserInput {
	name: String!
	role: Role = USER
}

enum Role {
	ADMIN
	USER
	GUEST
}

interface Node {
	id: ID!
}

union SearchResult = User | Post

scalar DateTime
`

func TestParseSchema(t *testing.T) {
	schema, err := ParseSchema(testSchema)
	if err != nil {
		t.Fatalf("ParseSchema() error = %v", err)
	}
	if schema.AST() == nil {
		t.Fatal("ParseSchema() returned schema without AST")
	}
	if len(schema.Sources()) != 1 {
		t.Errorf("Sources() = %d documents, want 1", len(schema.Sources()))
	}
	if len(schema.ClientFields()) != 0 {
		t.Errorf("ClientFields() = %v, want none", schema.ClientFields())
	}
}

func TestParseSchemaFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "schema.graphql")
	if err := os.WriteFile(path, []byte(testSchema), 0o644); err != nil {
		t.Fatalf("failed to write schema: %v", err)
	}

	schema, err := ParseSchemaFile(path)
	if err != nil {
		t.Fatalf("ParseSchemaFile() error = %v", err)
	}
	if schema.GetType("User") == nil {
		t.Error("expected User type")
	}
	if got := schema.Sources()[0].Name; got != path {
		t.Errorf("source name = %q, want %q", got, path)
	}
}

func TestParseSchemaFile_NotFound(t *testing.T) {
	_, err := ParseSchemaFile("/nonexistent/schema.graphql")
	if err == nil {
		t.Error("expected error for missing file")
	}
}

func TestParseSchema_Invalid(t *testing.T) {
	tests := []struct {
		name string
		sdl  string
	}{
		{"syntax error", "type Query {"},
		{"unknown type", "type Query { user: Missing }"},
		{"duplicate field", "type Query { a: String a: Int }"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseSchema(tt.sdl); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestSchema_RootFields(t *testing.T) {
	schema, err := ParseSchema(testSchema)
	if err != nil {
		t.Fatalf("ParseSchema() error = %v", err)
	}

	assertNames := func(t *testing.T, got, want []string) {
		t.Helper()
		if strings.Join(got, ",") != strings.Join(want, ",") {
			t.Errorf("got %v, want %v", got, want)
		}
	}

	t.Run("queries", func(t *testing.T) {
		assertNames(t, schema.ListQueries(), []string{"post", "user", "users"})
	})
	t.Run("mutations", func(t *testing.T) {
		assertNames(t, schema.ListMutations(), []string{"createUser", "deleteUser"})
	})
	t.Run("subscriptions", func(t *testing.T) {
		assertNames(t, schema.ListSubscriptions(), []string{"userCreated"})
	})

	if !schema.HasQuery() || !schema.HasMutation() || !schema.HasSubscription() {
		t.Error("expected all root operation types")
	}
}

func TestSchema_HasMethods_Minimal(t *testing.T) {
	schema, err := ParseSchema("type Query { ping: String }")
	if err != nil {
		t.Fatalf("ParseSchema() error = %v", err)
	}
	if !schema.HasQuery() {
		t.Error("HasQuery() = false")
	}
	if schema.HasMutation() {
		t.Error("HasMutation() = true")
	}
	if schema.HasSubscription() {
		t.Error("HasSubscription() = true")
	}
	if len(schema.ListMutations()) != 0 {
		t.Errorf("ListMutations() = %v", schema.ListMutations())
	}
}

func TestSchema_ListTypes(t *testing.T) {
	schema, err := ParseSchema(testSchema)
	if err != nil {
		t.Fatalf("ParseSchema() error = %v", err)
	}

	tests := []struct {
		kind ast.DefinitionKind
		want []string
	}{
		{ast.Enum, []string{"Role", "__DirectiveLocation", "__TypeKind"}},
		{ast.Union, []string{"SearchResult"}},
		{ast.Interface, []string{"Node"}},
		{ast.InputObject, []string{"CreateUserInput"}},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			got := schema.ListTypes(tt.kind)
			if strings.Join(got, ",") != strings.Join(tt.want, ",") {
				t.Errorf("ListTypes(%s) = %v, want %v", tt.kind, got, tt.want)
			}
		})
	}

	if len(schema.ListTypes()) <= len(schema.ListTypes(ast.Object)) {
		t.Error("ListTypes() without kinds should include every kind")
	}
}

func TestSchema_GetField(t *testing.T) {
	schema, err := ParseSchema(testSchema)
	if err != nil {
		t.Fatalf("ParseSchema() error = %v", err)
	}

	field := schema.GetField("Query", "user")
	if field == nil {
		t.Fatal("expected Query.user")
	}
	if field.Type.String() != "User" {
		t.Errorf("Query.user type = %s, want User", field.Type.String())
	}
	if schema.GetField("Query", "missing") != nil {
		t.Error("expected nil for missing field")
	}
	if schema.GetField("Missing", "user") != nil {
		t.Error("expected nil for missing type")
	}
}

func TestSchema_Extend(t *testing.T) {
	base, err := ParseSchema(testSchema)
	if err != nil {
		t.Fatalf("ParseSchema() error = %v", err)
	}

	ext := &ast.Source{Name: "local.graphql", Input: `
extend type User {
	isSelected: Boolean
}

type Cart {
	items: [Post!]!
}

extend type Query {
	cart: Cart
}
`}

	t.Run("client side", func(t *testing.T) {
		extended, err := base.Extend(ext, true)
		if err != nil {
			t.Fatalf("Extend() error = %v", err)
		}

		want := []string{"Cart.items", "Query.cart", "User.isSelected"}
		if got := extended.ClientFields(); strings.Join(got, ",") != strings.Join(want, ",") {
			t.Errorf("ClientFields() = %v, want %v", got, want)
		}
		if !extended.IsClientField("User", "isSelected") {
			t.Error("User.isSelected should be client-only")
		}
		if extended.IsClientField("User", "name") {
			t.Error("User.name should not be client-only")
		}

		field := extended.GetField("User", "isSelected")
		if field == nil || field.Directives.ForName(ClientDirective) == nil {
			t.Error("User.isSelected should carry the client directive")
		}

		if base.GetField("User", "isSelected") != nil {
			t.Error("Extend() must not modify the base schema")
		}
		if len(extended.Sources()) != 2 {
			t.Errorf("Sources() = %d documents, want 2", len(extended.Sources()))
		}
	})

	t.Run("server side", func(t *testing.T) {
		extended, err := base.Extend(ext, false)
		if err != nil {
			t.Fatalf("Extend() error = %v", err)
		}
		if extended.GetField("Query", "cart") == nil {
			t.Error("expected Query.cart")
		}
		if len(extended.ClientFields()) != 0 {
			t.Errorf("ClientFields() = %v, want none", extended.ClientFields())
		}
	})

	t.Run("client fields survive further extension", func(t *testing.T) {
		first, err := base.Extend(ext, true)
		if err != nil {
			t.Fatalf("Extend() error = %v", err)
		}
		second, err := first.Extend(&ast.Source{Name: "more.graphql", Input: "extend type Post { draft: Boolean }"}, false)
		if err != nil {
			t.Fatalf("Extend() error = %v", err)
		}
		if !second.IsClientField("User", "isSelected") {
			t.Error("User.isSelected should stay client-only")
		}
		if second.IsClientField("Post", "draft") {
			t.Error("Post.draft should not be client-only")
		}
	})

	t.Run("conflicting field", func(t *testing.T) {
		_, err := base.Extend(&ast.Source{Name: "bad.graphql", Input: "extend type User { name: String! }"}, true)
		if err == nil {
			t.Error("expected error when redefining an existing field")
		}
	})
}

func TestParseClientSchema(t *testing.T) {
	schema, err := ParseClientSchema(&ast.Source{Name: "client.graphql", Input: `
type Query {
	isLoggedIn: Boolean!
}
`})
	if err != nil {
		t.Fatalf("ParseClientSchema() error = %v", err)
	}
	if !schema.IsClientField("Query", "isLoggedIn") {
		t.Error("Query.isLoggedIn should be client-only")
	}
}

func TestSchema_SDL(t *testing.T) {
	base, err := ParseSchema("type Query { me: String }")
	if err != nil {
		t.Fatalf("ParseSchema() error = %v", err)
	}
	extended, err := base.Extend(&ast.Source{Name: "local", Input: "extend type Query { draft: String }"}, true)
	if err != nil {
		t.Fatalf("Extend() error = %v", err)
	}

	sdl := extended.SDL()
	if !strings.HasPrefix(sdl, "directive @client on FIELD_DEFINITION") {
		t.Errorf("SDL() should declare the client directive, got:\n%s", sdl)
	}
	if !strings.Contains(sdl, "draft: String @client") {
		t.Errorf("SDL() should mark client fields, got:\n%s", sdl)
	}

	// The rendered SDL must parse back into an equivalent schema.
	reparsed, err := ParseSchema(sdl)
	if err != nil {
		t.Fatalf("ParseSchema(SDL()) error = %v", err)
	}
	if reparsed.GetField("Query", "draft") == nil {
		t.Error("reparsed schema lost Query.draft")
	}

	if strings.Contains(base.SDL(), "@client") {
		t.Error("schema without client fields should not mention the client directive")
	}
}

func TestFieldPath(t *testing.T) {
	tests := []struct {
		input    string
		typeName string
		field    string
	}{
		{"Query.user", "Query", "user"},
		{"Mutation.createUser", "Mutation", "createUser"},
		{"user", "", "user"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			fp := ParseFieldPath(tt.input)
			if fp.TypeName != tt.typeName || fp.FieldName != tt.field {
				t.Errorf("ParseFieldPath(%q) = %+v", tt.input, fp)
			}
			if tt.typeName != "" && fp.String() != tt.input {
				t.Errorf("String() = %q, want %q", fp.String(), tt.input)
			}
		})
	}
}
