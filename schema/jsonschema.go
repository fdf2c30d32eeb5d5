package schema

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/google/jsonschema-go/jsonschema"
)

// looksLikeJSONSchema sniffs the schema-text dialect: the native grammar's
// top level is always a "type Name = ..." keyword sequence, which never
// begins with '{', so a leading brace after whitespace unambiguously
// selects the JSON-Schema-flavored dialect.
func looksLikeJSONSchema(text []byte) bool {
	t := bytes.TrimSpace(text)
	return len(t) > 0 && t[0] == '{'
}

// fromJSONSchemaText unmarshals text as a jsonschema-go draft schema and
// translates it into a schema.Type tree. This is the inverse of the walk
// MacroPower-x/magicschema/generator.go performs (there: YAML AST ->
// jsonschema.Schema; here: jsonschema.Schema -> schema.Type), grounded on
// the same field surface that generator.go populates (Type/Types,
// Properties/PropertyOrder/Required, Items, Ref).
func fromJSONSchemaText(text []byte) (Type, error) {
	var s jsonschema.Schema
	if err := json.Unmarshal(text, &s); err != nil {
		return nil, fmt.Errorf("schema: invalid JSON Schema text: %w", err)
	}
	return fromJSONSchema(&s), nil
}

func fromJSONSchema(s *jsonschema.Schema) Type {
	if s == nil {
		return AnyPrimitive
	}
	if s.Ref != "" {
		return TypeRef{Name: s.Ref}
	}

	names := append([]string(nil), s.Types...)
	if s.Type != "" {
		names = append(names, s.Type)
	}

	switch len(names) {
	case 0:
		return translateUntyped(s)
	case 1:
		return translateTyped(s, names[0])
	default:
		var t Type = translateTyped(s, names[0])
		for _, name := range names[1:] {
			t = Binary{Op: Union, Left: t, Right: translateTyped(s, name)}
		}
		return t
	}
}

// translateUntyped infers a shape from structural hints when the draft
// schema carries no explicit "type"/"types" keyword, mirroring
// generator.go's own "widen from structure" fallback.
func translateUntyped(s *jsonschema.Schema) Type {
	switch {
	case len(s.Properties) > 0:
		return translateObject(s)
	case s.Items != nil:
		return translateArray(s)
	default:
		return AnyPrimitive
	}
}

func translateTyped(s *jsonschema.Schema, typeName string) Type {
	switch typeName {
	case "object":
		return translateObject(s)
	case "array":
		return translateArray(s)
	case "string":
		return StringPrimitive
	case "integer":
		return IntPrimitive
	case "number":
		return FloatPrimitive
	case "boolean":
		return BoolPrimitive
	case "null":
		return NullPrimitive
	default:
		return AnyPrimitive
	}
}

func translateObject(s *jsonschema.Schema) Type {
	required := make(map[string]bool, len(s.Required))
	for _, r := range s.Required {
		required[r] = true
	}

	order := s.PropertyOrder
	if len(order) == 0 {
		order = make([]string, 0, len(s.Properties))
		for name := range s.Properties {
			order = append(order, name)
		}
		sort.Strings(order)
	}

	fields := make([]Field, 0, len(order))
	for _, name := range order {
		prop, ok := s.Properties[name]
		if !ok {
			continue
		}
		fields = append(fields, Field{
			Name:     name,
			Type:     fromJSONSchema(prop),
			Optional: !required[name],
		})
	}
	return Map{Fields: fields}
}

func translateArray(s *jsonschema.Schema) Type {
	elem := Type(AnyPrimitive)
	if s.Items != nil {
		elem = fromJSONSchema(s.Items)
	}
	return Array{Elem: elem, Length: -1}
}
