package graphql

// IntrospectionResult is the "data" payload of an introspection query.
type IntrospectionResult struct {
	Schema *IntrospectionSchema `json:"__schema"`
}

// IntrospectionSchema is the structured description of every type and
// directive a schema serves, as returned by the __schema field.
type IntrospectionSchema struct {
	// Description is the schema description (optional).
	Description string `json:"description,omitempty"`
	// QueryType names the root query type.
	QueryType *IntrospectionTypeName `json:"queryType"`
	// MutationType names the root mutation type, if any.
	MutationType *IntrospectionTypeName `json:"mutationType"`
	// SubscriptionType names the root subscription type, if any.
	SubscriptionType *IntrospectionTypeName `json:"subscriptionType"`
	// Types lists every named type, built-ins included.
	Types []IntrospectionType `json:"types"`
	// Directives lists every directive definition, built-ins included.
	Directives []IntrospectionDirective `json:"directives"`
}

// IntrospectionTypeName references a type by name.
type IntrospectionTypeName struct {
	Name string `json:"name"`
}

// IntrospectionType describes one named type.
type IntrospectionType struct {
	Kind           string                    `json:"kind"`
	Name           string                    `json:"name"`
	Description    string                    `json:"description,omitempty"`
	SpecifiedByURL string                    `json:"specifiedByURL,omitempty"`
	Fields         []IntrospectionField      `json:"fields,omitempty"`
	InputFields    []IntrospectionInputValue `json:"inputFields,omitempty"`
	Interfaces     []IntrospectionTypeRef    `json:"interfaces,omitempty"`
	EnumValues     []IntrospectionEnumValue  `json:"enumValues,omitempty"`
	PossibleTypes  []IntrospectionTypeRef    `json:"possibleTypes,omitempty"`
}

// IntrospectionField describes a field of an object or interface type.
type IntrospectionField struct {
	Name              string                    `json:"name"`
	Description       string                    `json:"description,omitempty"`
	Args              []IntrospectionInputValue `json:"args"`
	Type              IntrospectionTypeRef      `json:"type"`
	IsDeprecated      bool                      `json:"isDeprecated"`
	DeprecationReason string                    `json:"deprecationReason,omitempty"`
}

// IntrospectionInputValue describes an argument or an input object field.
// DefaultValue holds a GraphQL literal, e.g. `"abc"` or `{a: 1}`.
type IntrospectionInputValue struct {
	Name         string               `json:"name"`
	Description  string               `json:"description,omitempty"`
	Type         IntrospectionTypeRef `json:"type"`
	DefaultValue *string              `json:"defaultValue"`
}

// IntrospectionEnumValue describes one value of an enum type.
type IntrospectionEnumValue struct {
	Name              string `json:"name"`
	Description       string `json:"description,omitempty"`
	IsDeprecated      bool   `json:"isDeprecated"`
	DeprecationReason string `json:"deprecationReason,omitempty"`
}

// IntrospectionTypeRef is a possibly wrapped reference to a named type.
// Wrapping kinds (LIST, NON_NULL) carry the wrapped type in OfType.
type IntrospectionTypeRef struct {
	Kind   string                `json:"kind"`
	Name   string                `json:"name,omitempty"`
	OfType *IntrospectionTypeRef `json:"ofType,omitempty"`
}

// IntrospectionDirective describes a directive definition.
type IntrospectionDirective struct {
	Name         string                    `json:"name"`
	Description  string                    `json:"description,omitempty"`
	Locations    []string                  `json:"locations"`
	Args         []IntrospectionInputValue `json:"args"`
	IsRepeatable bool                      `json:"isRepeatable,omitempty"`
}

// Type kinds as reported by introspection.
const (
	KindScalar      = "SCALAR"
	KindObject      = "OBJECT"
	KindInterface   = "INTERFACE"
	KindUnion       = "UNION"
	KindEnum        = "ENUM"
	KindInputObject = "INPUT_OBJECT"
	KindList        = "LIST"
	KindNonNull     = "NON_NULL"
)

// FieldPath represents a path to a field in the schema (e.g., "Query.user" or "Mutation.createUser").
type FieldPath struct {
	// TypeName is the parent type name (e.g., "Query", "Mutation", "User").
	TypeName string
	// FieldName is the field name.
	FieldName string
}

// String returns the string representation of the field path.
func (fp FieldPath) String() string {
	return fp.TypeName + "." + fp.FieldName
}

// ParseFieldPath parses a field path string (e.g., "Query.user") into a FieldPath.
func ParseFieldPath(path string) FieldPath {
	for i := 0; i < len(path); i++ {
		if path[i] == '.' {
			return FieldPath{
				TypeName:  path[:i],
				FieldName: path[i+1:],
			}
		}
	}
	// No dot found, treat the whole string as a field name
	return FieldPath{FieldName: path}
}
