package graphql

import (
	"bytes"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/formatter"
	"github.com/vektah/gqlparser/v2/parser"
	"github.com/vektah/gqlparser/v2/validator"
)

// IntrospectionQuery is the standard full introspection query.
const IntrospectionQuery = `query IntrospectionQuery {
  __schema {
    queryType { name }
    mutationType { name }
    subscriptionType { name }
    types {
      ...FullType
    }
    directives {
      name
      description
      locations
      args {
        ...InputValue
      }
    }
  }
}

fragment FullType on __Type {
  kind
  name
  description
  fields(includeDeprecated: true) {
    name
    description
    args {
      ...InputValue
    }
    type {
      ...TypeRef
    }
    isDeprecated
    deprecationReason
  }
  inputFields {
    ...InputValue
  }
  interfaces {
    ...TypeRef
  }
  enumValues(includeDeprecated: true) {
    name
    description
    isDeprecated
    deprecationReason
  }
  possibleTypes {
    ...TypeRef
  }
}

fragment InputValue on __InputValue {
  name
  description
  type { ...TypeRef }
  defaultValue
}

fragment TypeRef on __Type {
  kind
  name
  ofType {
    kind
    name
    ofType {
      kind
      name
      ofType {
        kind
        name
        ofType {
          kind
          name
          ofType {
            kind
            name
            ofType {
              kind
              name
              ofType {
                kind
                name
              }
            }
          }
        }
      }
    }
  }
}
`

// ErrEmptyIntrospection is returned when an introspection result carries no types.
var ErrEmptyIntrospection = errors.New("introspection result contains no types")

const defaultDeprecationReason = "No longer supported"

var (
	preludeOnce       sync.Once
	preludeTypes      map[string]bool
	preludeDirectives map[string]bool
)

// prelude returns the names of the types and directives gqlparser declares
// on its own; redeclaring them in SDL is an error.
func prelude() (types, directives map[string]bool) {
	preludeOnce.Do(func() {
		preludeTypes = make(map[string]bool)
		preludeDirectives = make(map[string]bool)
		doc, err := parser.ParseSchema(validator.Prelude)
		if err != nil {
			return
		}
		for _, def := range doc.Definitions {
			preludeTypes[def.Name] = true
		}
		for _, dir := range doc.Directives {
			preludeDirectives[dir.Name] = true
		}
	})
	return preludeTypes, preludeDirectives
}

// BuildFromIntrospection constructs a schema from an introspection result.
// Built-in types and directives are skipped since every schema already
// carries them.
func BuildFromIntrospection(is *IntrospectionSchema) (*Schema, error) {
	if is == nil || len(is.Types) == 0 {
		return nil, ErrEmptyIntrospection
	}

	doc, err := introspectionDocument(is)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	formatter.NewFormatter(&buf).FormatSchemaDocument(doc)

	return build([]*ast.Source{{Name: "introspection", Input: buf.String()}}, nil)
}

func introspectionDocument(is *IntrospectionSchema) (*ast.SchemaDocument, error) {
	builtinTypes, builtinDirectives := prelude()
	doc := &ast.SchemaDocument{}

	if def := rootOperations(is); def != nil {
		doc.Schema = append(doc.Schema, def)
	}

	for _, t := range is.Types {
		if builtinTypes[t.Name] || isIntrospectionField(t.Name) {
			continue
		}
		def, err := typeDefinition(t)
		if err != nil {
			return nil, err
		}
		doc.Definitions = append(doc.Definitions, def)
	}

	for _, d := range is.Directives {
		if builtinDirectives[d.Name] {
			continue
		}
		args, err := argumentDefinitions(d.Args)
		if err != nil {
			return nil, fmt.Errorf("directive @%s: %w", d.Name, err)
		}
		locations := make([]ast.DirectiveLocation, len(d.Locations))
		for i, loc := range d.Locations {
			locations[i] = ast.DirectiveLocation(loc)
		}
		doc.Directives = append(doc.Directives, &ast.DirectiveDefinition{
			Name:         d.Name,
			Description:  d.Description,
			Arguments:    args,
			Locations:    locations,
			IsRepeatable: d.IsRepeatable,
			Position:     &ast.Position{Src: &ast.Source{Name: "introspection"}},
		})
	}

	return doc, nil
}

// rootOperations returns an explicit schema definition only when a root
// type deviates from the conventional name.
func rootOperations(is *IntrospectionSchema) *ast.SchemaDefinition {
	roots := []struct {
		op   ast.Operation
		ref  *IntrospectionTypeName
		name string
	}{
		{ast.Query, is.QueryType, "Query"},
		{ast.Mutation, is.MutationType, "Mutation"},
		{ast.Subscription, is.SubscriptionType, "Subscription"},
	}

	needed := false
	def := &ast.SchemaDefinition{}
	for _, root := range roots {
		if root.ref == nil || root.ref.Name == "" {
			continue
		}
		if root.ref.Name != root.name {
			needed = true
		}
		def.OperationTypes = append(def.OperationTypes, &ast.OperationTypeDefinition{
			Operation: root.op,
			Type:      root.ref.Name,
		})
	}
	if !needed {
		return nil
	}
	return def
}

func typeDefinition(t IntrospectionType) (*ast.Definition, error) {
	def := &ast.Definition{
		Name:        t.Name,
		Description: t.Description,
	}

	switch t.Kind {
	case KindScalar:
		def.Kind = ast.Scalar
		if t.SpecifiedByURL != "" {
			def.Directives = append(def.Directives, &ast.Directive{
				Name: "specifiedBy",
				Arguments: ast.ArgumentList{{
					Name:  "url",
					Value: &ast.Value{Kind: ast.StringValue, Raw: t.SpecifiedByURL},
				}},
			})
		}
	case KindObject, KindInterface:
		def.Kind = ast.Object
		if t.Kind == KindInterface {
			def.Kind = ast.Interface
		}
		for _, iface := range t.Interfaces {
			def.Interfaces = append(def.Interfaces, iface.Name)
		}
		for _, f := range t.Fields {
			field, err := fieldDefinition(f)
			if err != nil {
				return nil, fmt.Errorf("type %s: %w", t.Name, err)
			}
			def.Fields = append(def.Fields, field)
		}
	case KindUnion:
		def.Kind = ast.Union
		for _, member := range t.PossibleTypes {
			def.Types = append(def.Types, member.Name)
		}
	case KindEnum:
		def.Kind = ast.Enum
		for _, v := range t.EnumValues {
			def.EnumValues = append(def.EnumValues, &ast.EnumValueDefinition{
				Name:        v.Name,
				Description: v.Description,
				Directives:  deprecation(v.IsDeprecated, v.DeprecationReason),
			})
		}
	case KindInputObject:
		def.Kind = ast.InputObject
		for _, f := range t.InputFields {
			defaultValue, err := literal(f.DefaultValue)
			if err != nil {
				return nil, fmt.Errorf("type %s: input field %s: %w", t.Name, f.Name, err)
			}
			typ, err := typeReference(f.Type)
			if err != nil {
				return nil, fmt.Errorf("type %s: input field %s: %w", t.Name, f.Name, err)
			}
			def.Fields = append(def.Fields, &ast.FieldDefinition{
				Name:         f.Name,
				Description:  f.Description,
				Type:         typ,
				DefaultValue: defaultValue,
			})
		}
	default:
		return nil, fmt.Errorf("type %s: unknown kind %q", t.Name, t.Kind)
	}

	return def, nil
}

func fieldDefinition(f IntrospectionField) (*ast.FieldDefinition, error) {
	typ, err := typeReference(f.Type)
	if err != nil {
		return nil, fmt.Errorf("field %s: %w", f.Name, err)
	}
	args, err := argumentDefinitions(f.Args)
	if err != nil {
		return nil, fmt.Errorf("field %s: %w", f.Name, err)
	}
	return &ast.FieldDefinition{
		Name:        f.Name,
		Description: f.Description,
		Arguments:   args,
		Type:        typ,
		Directives:  deprecation(f.IsDeprecated, f.DeprecationReason),
	}, nil
}

func argumentDefinitions(values []IntrospectionInputValue) (ast.ArgumentDefinitionList, error) {
	var args ast.ArgumentDefinitionList
	for _, v := range values {
		typ, err := typeReference(v.Type)
		if err != nil {
			return nil, fmt.Errorf("argument %s: %w", v.Name, err)
		}
		defaultValue, err := literal(v.DefaultValue)
		if err != nil {
			return nil, fmt.Errorf("argument %s: %w", v.Name, err)
		}
		args = append(args, &ast.ArgumentDefinition{
			Name:         v.Name,
			Description:  v.Description,
			Type:         typ,
			DefaultValue: defaultValue,
		})
	}
	return args, nil
}

func typeReference(ref IntrospectionTypeRef) (*ast.Type, error) {
	switch ref.Kind {
	case KindNonNull:
		if ref.OfType == nil {
			return nil, errors.New("NON_NULL type reference without ofType")
		}
		inner, err := typeReference(*ref.OfType)
		if err != nil {
			return nil, err
		}
		wrapped := *inner
		wrapped.NonNull = true
		return &wrapped, nil
	case KindList:
		if ref.OfType == nil {
			return nil, errors.New("LIST type reference without ofType")
		}
		elem, err := typeReference(*ref.OfType)
		if err != nil {
			return nil, err
		}
		return ast.ListType(elem, nil), nil
	default:
		if ref.Name == "" {
			return nil, fmt.Errorf("%s type reference without a name", ref.Kind)
		}
		return ast.NamedType(ref.Name, nil), nil
	}
}

func deprecation(deprecated bool, reason string) ast.DirectiveList {
	if !deprecated {
		return nil
	}
	if reason == "" {
		reason = defaultDeprecationReason
	}
	return ast.DirectiveList{{
		Name: "deprecated",
		Arguments: ast.ArgumentList{{
			Name:  "reason",
			Value: &ast.Value{Kind: ast.StringValue, Raw: reason},
		}},
	}}
}

// literal parses a GraphQL value literal such as `"abc"`, `[1, 2]` or
// `{a: ENUM}` by embedding it as an argument of a throwaway query.
func literal(raw *string) (*ast.Value, error) {
	if raw == nil {
		return nil, nil
	}
	doc, err := parser.ParseQuery(&ast.Source{Name: "literal", Input: "{ f(v: " + *raw + ") }"})
	if err != nil {
		return nil, fmt.Errorf("invalid default value %s: %w", *raw, err)
	}
	field, ok := doc.Operations[0].SelectionSet[0].(*ast.Field)
	if !ok || len(field.Arguments) != 1 {
		return nil, fmt.Errorf("invalid default value %s", *raw)
	}
	return field.Arguments[0].Value, nil
}

// Introspect describes the schema the way a server answers the
// introspection query.
func Introspect(s *Schema) *IntrospectionSchema {
	result := &IntrospectionSchema{
		Description:      s.ast.Description,
		QueryType:        rootName(s.ast.Query),
		MutationType:     rootName(s.ast.Mutation),
		SubscriptionType: rootName(s.ast.Subscription),
		Types:            make([]IntrospectionType, 0, len(s.ast.Types)),
		Directives:       make([]IntrospectionDirective, 0, len(s.ast.Directives)),
	}

	for _, name := range s.ListTypes() {
		result.Types = append(result.Types, s.introspectType(s.ast.Types[name]))
	}

	names := make([]string, 0, len(s.ast.Directives))
	for name := range s.ast.Directives {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		dir := s.ast.Directives[name]
		locations := make([]string, len(dir.Locations))
		for i, loc := range dir.Locations {
			locations[i] = string(loc)
		}
		result.Directives = append(result.Directives, IntrospectionDirective{
			Name:         dir.Name,
			Description:  dir.Description,
			Locations:    locations,
			Args:         s.introspectArgs(dir.Arguments),
			IsRepeatable: dir.IsRepeatable,
		})
	}

	return result
}

func rootName(def *ast.Definition) *IntrospectionTypeName {
	if def == nil {
		return nil
	}
	return &IntrospectionTypeName{Name: def.Name}
}

func (s *Schema) introspectType(def *ast.Definition) IntrospectionType {
	t := IntrospectionType{
		Kind:        string(def.Kind),
		Name:        def.Name,
		Description: def.Description,
	}

	switch def.Kind {
	case ast.Scalar:
		if dir := def.Directives.ForName("specifiedBy"); dir != nil {
			if arg := dir.Arguments.ForName("url"); arg != nil && arg.Value != nil {
				t.SpecifiedByURL = arg.Value.Raw
			}
		}
	case ast.Object, ast.Interface:
		for _, field := range def.Fields {
			if isIntrospectionField(field.Name) {
				continue
			}
			deprecated, reason := deprecationOf(field.Directives)
			t.Fields = append(t.Fields, IntrospectionField{
				Name:              field.Name,
				Description:       field.Description,
				Args:              s.introspectArgs(field.Arguments),
				Type:              s.introspectTypeRef(field.Type),
				IsDeprecated:      deprecated,
				DeprecationReason: reason,
			})
		}
		for _, iface := range def.Interfaces {
			t.Interfaces = append(t.Interfaces, IntrospectionTypeRef{Kind: KindInterface, Name: iface})
		}
		if def.Kind == ast.Interface {
			t.PossibleTypes = s.possibleTypes(def)
		}
	case ast.Union:
		t.PossibleTypes = s.possibleTypes(def)
	case ast.Enum:
		for _, v := range def.EnumValues {
			deprecated, reason := deprecationOf(v.Directives)
			t.EnumValues = append(t.EnumValues, IntrospectionEnumValue{
				Name:              v.Name,
				Description:       v.Description,
				IsDeprecated:      deprecated,
				DeprecationReason: reason,
			})
		}
	case ast.InputObject:
		for _, field := range def.Fields {
			t.InputFields = append(t.InputFields, IntrospectionInputValue{
				Name:         field.Name,
				Description:  field.Description,
				Type:         s.introspectTypeRef(field.Type),
				DefaultValue: valueLiteral(field.DefaultValue),
			})
		}
	}

	return t
}

func (s *Schema) possibleTypes(def *ast.Definition) []IntrospectionTypeRef {
	var refs []IntrospectionTypeRef
	for _, member := range s.ast.GetPossibleTypes(def) {
		if member.Kind != ast.Object {
			continue
		}
		refs = append(refs, IntrospectionTypeRef{Kind: KindObject, Name: member.Name})
	}
	sort.Slice(refs, func(i, j int) bool { return refs[i].Name < refs[j].Name })
	return refs
}

func (s *Schema) introspectArgs(args ast.ArgumentDefinitionList) []IntrospectionInputValue {
	// Empty slice, not nil, so JSON renders [] instead of null.
	values := make([]IntrospectionInputValue, 0, len(args))
	for _, arg := range args {
		values = append(values, IntrospectionInputValue{
			Name:         arg.Name,
			Description:  arg.Description,
			Type:         s.introspectTypeRef(arg.Type),
			DefaultValue: valueLiteral(arg.DefaultValue),
		})
	}
	return values
}

func (s *Schema) introspectTypeRef(t *ast.Type) IntrospectionTypeRef {
	if t.NonNull {
		inner := *t
		inner.NonNull = false
		ofType := s.introspectTypeRef(&inner)
		return IntrospectionTypeRef{Kind: KindNonNull, OfType: &ofType}
	}
	if t.Elem != nil {
		ofType := s.introspectTypeRef(t.Elem)
		return IntrospectionTypeRef{Kind: KindList, OfType: &ofType}
	}
	kind := KindScalar
	if def := s.GetType(t.NamedType); def != nil {
		kind = string(def.Kind)
	}
	return IntrospectionTypeRef{Kind: kind, Name: t.NamedType}
}

func deprecationOf(directives ast.DirectiveList) (bool, string) {
	dir := directives.ForName("deprecated")
	if dir == nil {
		return false, ""
	}
	if arg := dir.Arguments.ForName("reason"); arg != nil && arg.Value != nil {
		return true, arg.Value.Raw
	}
	return true, defaultDeprecationReason
}

func valueLiteral(v *ast.Value) *string {
	if v == nil {
		return nil
	}
	s := v.String()
	return &s
}
