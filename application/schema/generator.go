// Package schema generates JSON Schema documents for method parameter structs.
package schema

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"

	"github.com/invopop/jsonschema"
	"github.com/reglet-dev/callgate/marshal"
)

// GenerateSchema creates a JSON schema from a parameter struct.
// Property names follow the `callgate` tags used by marshal.DecodeParams,
// and a property is required when its `validate` tag says so.
func GenerateSchema(v interface{}) ([]byte, error) {
	reflector := jsonschema.Reflector{
		ExpandedStruct:             true, // Expand struct definitions inline
		FieldNameTag:               marshal.ParamTag,
		RequiredFromJSONSchemaTags: true,
	}
	schema := reflector.Reflect(v)
	schema.Required = requiredParams(reflect.TypeOf(v))

	jsonBytes, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal schema: %w", err)
	}

	return jsonBytes, nil
}

// PropertyNames returns the top-level property names of a generated schema in order.
func PropertyNames(doc []byte) ([]string, error) {
	var s jsonschema.Schema
	if err := json.Unmarshal(doc, &s); err != nil {
		return nil, fmt.Errorf("failed to parse schema: %w", err)
	}
	if s.Properties == nil {
		return nil, nil
	}
	names := make([]string, 0, s.Properties.Len())
	for pair := s.Properties.Oldest(); pair != nil; pair = pair.Next() {
		names = append(names, pair.Key)
	}
	return names, nil
}

func requiredParams(t reflect.Type) []string {
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil || t.Kind() != reflect.Struct {
		return nil
	}
	var required []string
	for i := range t.NumField() {
		f := t.Field(i)
		name, ok := marshal.ParamName(f)
		if !ok {
			continue
		}
		for _, rule := range strings.Split(f.Tag.Get("validate"), ",") {
			if rule == "required" {
				required = append(required, name)
				break
			}
		}
	}
	return required
}
