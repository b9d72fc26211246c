package projection

import (
	"encoding/json"
	"fmt"

	"github.com/docentlabs/docent/internal/schema"
)

// JSONSchema renders a simplified schema as a strict structured-output
// schema: a closed world ("additionalProperties": false) where every field
// is listed in "required". Optional fields are made nullable instead of
// omittable, matching strict provider grammars. The result is wrapped in
// the {"name","strict","schema"} envelope providers expect.
func JSONSchema(s *Simplified) (json.RawMessage, error) {
	wrapper := map[string]any{
		"name":   s.Key,
		"strict": true,
		"schema": objectSchema(s),
	}
	raw, err := json.Marshal(wrapper)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize schema for %s: %w", s.Key, err)
	}
	return raw, nil
}

func objectSchema(s *Simplified) map[string]any {
	properties := make(map[string]any, len(s.Fields))
	required := make([]string, 0, len(s.Fields))

	for _, f := range s.Fields {
		fieldSchema := typeSchema(&f.Type)
		applyConstraints(fieldSchema, &f)
		if f.Description != "" {
			fieldSchema["description"] = f.Description
		}
		if !f.Required {
			fieldSchema = map[string]any{
				"anyOf": []any{fieldSchema, map[string]any{"type": "null"}},
			}
		}
		properties[f.Name] = fieldSchema
		required = append(required, f.Name)
	}

	out := map[string]any{
		"type":                 "object",
		"properties":           properties,
		"required":             required,
		"additionalProperties": false,
	}
	if s.Description != "" {
		out["description"] = s.Description
	}
	return out
}

func typeSchema(t *Type) map[string]any {
	switch t.Kind {
	case schema.KindString:
		return map[string]any{"type": "string"}
	case schema.KindInt:
		return map[string]any{"type": "integer"}
	case schema.KindFloat:
		return map[string]any{"type": "number"}
	case schema.KindBool:
		return map[string]any{"type": "boolean"}
	case schema.KindEnum:
		labels := make([]any, len(t.Enum))
		for i, l := range t.Enum {
			labels[i] = l
		}
		return map[string]any{"type": "string", "enum": labels}
	case schema.KindList:
		return map[string]any{"type": "array", "items": typeSchema(t.Elem)}
	case schema.KindMap:
		return map[string]any{"type": "object", "additionalProperties": typeSchema(t.Value)}
	case schema.KindUnion:
		members := make([]any, len(t.Members))
		for i, m := range t.Members {
			members[i] = typeSchema(m)
		}
		return map[string]any{"anyOf": members}
	case schema.KindObject:
		return objectSchema(t.Object)
	default:
		return map[string]any{"type": "string"}
	}
}

func applyConstraints(fieldSchema map[string]any, f *Field) {
	if f.Pattern != "" {
		fieldSchema["pattern"] = f.Pattern
	}
	if f.Minimum != nil {
		fieldSchema["minimum"] = *f.Minimum
	}
	if f.Maximum != nil {
		fieldSchema["maximum"] = *f.Maximum
	}
	if f.MinLength != nil {
		fieldSchema["minLength"] = *f.MinLength
	}
	if f.MaxLength != nil {
		fieldSchema["maxLength"] = *f.MaxLength
	}
}

// DescriptorSchema renders the original descriptor as a full-fidelity JSON
// schema for providers that accept arbitrary nested typed output directly.
// Dates keep their string format annotations; only truly required fields are
// required; defaults are still dropped.
func (p *Projector) DescriptorSchema(desc *schema.Descriptor) (json.RawMessage, error) {
	wrapper := map[string]any{
		"name":   desc.Key,
		"strict": true,
		"schema": p.descriptorObjectSchema(desc),
	}
	raw, err := json.Marshal(wrapper)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize schema for %s: %w", desc.Key, err)
	}
	return raw, nil
}

func (p *Projector) descriptorObjectSchema(desc *schema.Descriptor) map[string]any {
	properties := make(map[string]any, len(desc.Fields))
	var required []string

	for _, f := range desc.Fields {
		fieldSchema := p.descriptorTypeSchema(&f.Type)
		if f.Description != "" {
			fieldSchema["description"] = f.Description
		}
		if f.Pattern != "" {
			fieldSchema["pattern"] = f.Pattern
		}
		if f.Minimum != nil {
			fieldSchema["minimum"] = *f.Minimum
		}
		if f.Maximum != nil {
			fieldSchema["maximum"] = *f.Maximum
		}
		if f.MinLength != nil {
			fieldSchema["minLength"] = *f.MinLength
		}
		if f.MaxLength != nil {
			fieldSchema["maxLength"] = *f.MaxLength
		}
		properties[f.Name] = fieldSchema
		if f.Required {
			required = append(required, f.Name)
		}
	}

	out := map[string]any{
		"type":                 "object",
		"properties":           properties,
		"additionalProperties": false,
	}
	if len(required) > 0 {
		out["required"] = required
	}
	if desc.Description != "" {
		out["description"] = desc.Description
	}
	return out
}

func (p *Projector) descriptorTypeSchema(t *schema.FieldType) map[string]any {
	switch t.Kind {
	case schema.KindString:
		return map[string]any{"type": "string"}
	case schema.KindInt:
		return map[string]any{"type": "integer"}
	case schema.KindFloat:
		return map[string]any{"type": "number"}
	case schema.KindBool:
		return map[string]any{"type": "boolean"}
	case schema.KindDate:
		return map[string]any{"type": "string", "format": "date"}
	case schema.KindDateTime:
		return map[string]any{"type": "string", "format": "date-time"}
	case schema.KindEnum:
		labels := make([]any, len(t.Enum))
		for i, l := range t.Enum {
			labels[i] = l
		}
		return map[string]any{"type": "string", "enum": labels}
	case schema.KindList:
		elem := map[string]any{"type": "string"}
		if t.Elem != nil {
			elem = p.descriptorTypeSchema(t.Elem)
		}
		return map[string]any{"type": "array", "items": elem}
	case schema.KindMap:
		value := map[string]any{"type": "string"}
		if t.Value != nil {
			value = p.descriptorTypeSchema(t.Value)
		}
		return map[string]any{"type": "object", "additionalProperties": value}
	case schema.KindUnion:
		members := make([]any, len(t.Members))
		for i, m := range t.Members {
			members[i] = p.descriptorTypeSchema(m)
		}
		return map[string]any{"anyOf": members}
	case schema.KindObject:
		ref, ok := p.catalog.Get(t.Ref)
		if !ok {
			return map[string]any{"type": "string"}
		}
		return p.descriptorObjectSchema(ref)
	default:
		return map[string]any{"type": "string"}
	}
}
