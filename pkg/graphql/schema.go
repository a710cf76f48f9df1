package graphql

import (
	"bytes"
	"fmt"
	"os"
	"sort"

	"github.com/vektah/gqlparser/v2"
	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/formatter"
	"github.com/vektah/gqlparser/v2/parser"
)

// ClientDirective is the directive attached to field definitions that only
// exist in a local cache and must never be sent to the server.
const ClientDirective = "client"

// Schema represents a composed GraphQL schema with convenient accessors
// for types, queries, mutations, and subscriptions.
//
// A Schema is immutable once built. Extend returns a new Schema and leaves
// the receiver untouched.
type Schema struct {
	ast          *ast.Schema
	sources      []*ast.Source
	clientFields map[string]bool
}

// ParseSchema parses a GraphQL SDL string and returns a Schema.
func ParseSchema(sdl string) (*Schema, error) {
	return build([]*ast.Source{{Name: "schema", Input: sdl}}, nil)
}

// ParseSchemaFile parses a GraphQL schema from a file and returns a Schema.
func ParseSchemaFile(path string) (*Schema, error) {
	src, err := ReadSource(path)
	if err != nil {
		return nil, err
	}
	return ParseSource(src)
}

// ParseSource builds a schema from an already loaded document.
func ParseSource(src *ast.Source) (*Schema, error) {
	return build([]*ast.Source{src}, nil)
}

// ParseClientSchema builds a schema purely from a client-only document.
// Every field definition in the document is marked client-only.
func ParseClientSchema(src *ast.Source) (*Schema, error) {
	fields, err := documentFields(src)
	if err != nil {
		return nil, err
	}
	return build([]*ast.Source{src}, fields)
}

// ReadSource reads a schema document from disk.
func ReadSource(path string) (*ast.Source, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read schema file %s: %w", path, err)
	}
	return &ast.Source{Name: path, Input: string(data)}, nil
}

// Extend merges the type and field additions of ext onto a copy of s.
// When clientSide is set, every field defined by ext is marked client-only.
// Fields that were already client-only in s stay that way.
func (s *Schema) Extend(ext *ast.Source, clientSide bool) (*Schema, error) {
	clientFields := make(map[string]bool, len(s.clientFields))
	for key := range s.clientFields {
		clientFields[key] = true
	}
	if clientSide {
		added, err := documentFields(ext)
		if err != nil {
			return nil, err
		}
		for key := range added {
			clientFields[key] = true
		}
	}

	sources := make([]*ast.Source, 0, len(s.sources)+1)
	sources = append(sources, s.sources...)
	sources = append(sources, ext)

	extended, err := build(sources, clientFields)
	if err != nil {
		return nil, fmt.Errorf("failed to extend schema with %s: %w", ext.Name, err)
	}
	return extended, nil
}

func build(sources []*ast.Source, clientFields map[string]bool) (*Schema, error) {
	schema, err := gqlparser.LoadSchema(sources...)
	if err != nil {
		return nil, fmt.Errorf("failed to parse GraphQL schema: %w", err)
	}

	s := &Schema{
		ast:          schema,
		sources:      sources,
		clientFields: clientFields,
	}
	if s.clientFields == nil {
		s.clientFields = make(map[string]bool)
	}
	s.annotateClientFields()
	return s, nil
}

// documentFields returns the "Type.field" coordinates of every field
// defined or extended in a schema document.
func documentFields(src *ast.Source) (map[string]bool, error) {
	doc, err := parser.ParseSchema(src)
	if err != nil {
		return nil, fmt.Errorf("failed to parse GraphQL document %s: %w", src.Name, err)
	}

	fields := make(map[string]bool)
	for _, list := range []ast.DefinitionList{doc.Definitions, doc.Extensions} {
		for _, def := range list {
			for _, field := range def.Fields {
				fields[fieldKey(def.Name, field.Name)] = true
			}
		}
	}
	return fields, nil
}

// annotateClientFields attaches the client directive to every client-only
// field definition so consumers walking the AST see the marker.
func (s *Schema) annotateClientFields() {
	for key := range s.clientFields {
		path := ParseFieldPath(key)
		field := s.GetField(path.TypeName, path.FieldName)
		if field == nil || field.Directives.ForName(ClientDirective) != nil {
			continue
		}
		field.Directives = append(field.Directives, &ast.Directive{
			Name:     ClientDirective,
			Location: ast.LocationFieldDefinition,
		})
	}
}

func fieldKey(typeName, fieldName string) string {
	return FieldPath{TypeName: typeName, FieldName: fieldName}.String()
}

// isIntrospectionField returns true if the field name is a built-in introspection field.
func isIntrospectionField(name string) bool {
	return len(name) >= 2 && name[0] == '_' && name[1] == '_'
}

// AST returns the underlying gqlparser AST schema.
func (s *Schema) AST() *ast.Schema {
	return s.ast
}

// Sources returns the documents the schema was composed from, base first.
func (s *Schema) Sources() []*ast.Source {
	return append([]*ast.Source(nil), s.sources...)
}

// SDL renders the composed schema, built-in definitions excluded. When the
// schema has client-only fields the client directive is declared up front
// so the output parses on its own.
func (s *Schema) SDL() string {
	var buf bytes.Buffer
	if len(s.clientFields) > 0 && s.ast.Directives[ClientDirective] == nil {
		buf.WriteString("directive @" + ClientDirective + " on FIELD_DEFINITION\n\n")
	}
	formatter.NewFormatter(&buf, formatter.WithIndent("  ")).FormatSchema(s.ast)
	return buf.String()
}

// IsClientField reports whether typeName.fieldName only exists on the client.
func (s *Schema) IsClientField(typeName, fieldName string) bool {
	return s.clientFields[fieldKey(typeName, fieldName)]
}

// ClientFields returns the "Type.field" coordinates of all client-only
// fields in sorted order.
func (s *Schema) ClientFields() []string {
	keys := make([]string, 0, len(s.clientFields))
	for key := range s.clientFields {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// GetType returns a type definition by name, or nil if not found.
func (s *Schema) GetType(name string) *ast.Definition {
	return s.ast.Types[name]
}

// GetField returns a field definition by type and field name.
func (s *Schema) GetField(typeName, fieldName string) *ast.FieldDefinition {
	def := s.GetType(typeName)
	if def == nil {
		return nil
	}
	return def.Fields.ForName(fieldName)
}

// ListTypes returns all type names in sorted order, optionally filtering by kind.
// If kinds is empty, all types are returned.
func (s *Schema) ListTypes(kinds ...ast.DefinitionKind) []string {
	kindSet := make(map[ast.DefinitionKind]bool)
	for _, k := range kinds {
		kindSet[k] = true
	}

	names := make([]string, 0, len(s.ast.Types))
	for name, def := range s.ast.Types {
		if len(kindSet) == 0 || kindSet[def.Kind] {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// ListQueries returns all query field names in sorted order.
func (s *Schema) ListQueries() []string {
	return rootFieldNames(s.ast.Query)
}

// ListMutations returns all mutation field names in sorted order.
func (s *Schema) ListMutations() []string {
	return rootFieldNames(s.ast.Mutation)
}

// ListSubscriptions returns all subscription field names in sorted order.
func (s *Schema) ListSubscriptions() []string {
	return rootFieldNames(s.ast.Subscription)
}

func rootFieldNames(def *ast.Definition) []string {
	if def == nil {
		return []string{}
	}
	names := make([]string, 0, len(def.Fields))
	for _, field := range def.Fields {
		if !isIntrospectionField(field.Name) {
			names = append(names, field.Name)
		}
	}
	sort.Strings(names)
	return names
}

// HasQuery returns true if the schema has a query type with fields.
func (s *Schema) HasQuery() bool {
	return len(s.ListQueries()) > 0
}

// HasMutation returns true if the schema has a mutation type with fields.
func (s *Schema) HasMutation() bool {
	return len(s.ListMutations()) > 0
}

// HasSubscription returns true if the schema has a subscription type with fields.
func (s *Schema) HasSubscription() bool {
	return len(s.ListSubscriptions()) > 0
}
