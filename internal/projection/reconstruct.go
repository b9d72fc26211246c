package projection

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strings"
	"time"

	"github.com/docentlabs/docent/internal/schema"
)

// Instance is a validated, coerced value of an original descriptor.
// Dates and datetimes are normalized to their canonical string forms so an
// instance always round-trips through JSON unchanged.
type Instance map[string]any

const (
	dateLayout = "2006-01-02"
)

// Reconstruct validates raw (a JSON value of the simplified schema) against
// the original descriptor's rules and coerces it into an Instance. String
// values are up-cast where the original type demands it: date strings are
// parsed, enum labels are checked against the closed set, JSON objects become
// nested instances. A value that cannot satisfy the original schema fails
// with a *FieldError naming the offending field path.
func (p *Projector) Reconstruct(desc *schema.Descriptor, raw json.RawMessage) (Instance, error) {
	var value map[string]any
	if err := json.Unmarshal(raw, &value); err != nil {
		return nil, fmt.Errorf("simplified value is not a JSON object: %w", err)
	}
	return p.reconstructObject(desc, value, desc.Key)
}

func (p *Projector) reconstructObject(desc *schema.Descriptor, value map[string]any, path string) (Instance, error) {
	out := make(Instance, len(desc.Fields))

	known := make(map[string]struct{}, len(desc.Fields))
	for _, f := range desc.Fields {
		known[f.Name] = struct{}{}
	}
	for name := range value {
		if _, ok := known[name]; !ok {
			return nil, fieldErrorf(path+"."+name, "unknown field")
		}
	}

	for _, f := range desc.Fields {
		fieldPath := path + "." + f.Name
		v, present := value[f.Name]
		if !present || v == nil {
			if f.Required {
				return nil, fieldErrorf(fieldPath, "required field is missing")
			}
			continue
		}

		coerced, err := p.coerce(&f.Type, v, fieldPath)
		if err != nil {
			return nil, err
		}
		if err := checkConstraints(&f, coerced, fieldPath); err != nil {
			return nil, err
		}
		out[f.Name] = coerced
	}

	return out, nil
}

func (p *Projector) coerce(t *schema.FieldType, v any, path string) (any, error) {
	switch t.Kind {
	case schema.KindString:
		s, ok := v.(string)
		if !ok {
			return nil, fieldErrorf(path, "expected string, got %T", v)
		}
		return s, nil

	case schema.KindInt:
		switch n := v.(type) {
		case float64:
			if n != math.Trunc(n) {
				return nil, fieldErrorf(path, "expected integer, got %v", n)
			}
			return int64(n), nil
		case json.Number:
			i, err := n.Int64()
			if err != nil {
				return nil, fieldErrorf(path, "expected integer, got %v", n)
			}
			return i, nil
		default:
			return nil, fieldErrorf(path, "expected integer, got %T", v)
		}

	case schema.KindFloat:
		switch n := v.(type) {
		case float64:
			return n, nil
		case json.Number:
			f, err := n.Float64()
			if err != nil {
				return nil, fieldErrorf(path, "expected number, got %v", n)
			}
			return f, nil
		default:
			return nil, fieldErrorf(path, "expected number, got %T", v)
		}

	case schema.KindBool:
		b, ok := v.(bool)
		if !ok {
			return nil, fieldErrorf(path, "expected boolean, got %T", v)
		}
		return b, nil

	case schema.KindEnum:
		s, ok := v.(string)
		if !ok {
			return nil, fieldErrorf(path, "expected enum label, got %T", v)
		}
		for _, label := range t.Enum {
			if s == label {
				return s, nil
			}
		}
		return nil, fieldErrorf(path, "%q is not one of [%s]", s, strings.Join(t.Enum, ", "))

	case schema.KindDate:
		s, ok := v.(string)
		if !ok {
			return nil, fieldErrorf(path, "expected date string, got %T", v)
		}
		d, err := parseDate(s)
		if err != nil {
			return nil, fieldErrorf(path, "invalid date %q: %v", s, err)
		}
		return d.Format(dateLayout), nil

	case schema.KindDateTime:
		s, ok := v.(string)
		if !ok {
			return nil, fieldErrorf(path, "expected datetime string, got %T", v)
		}
		dt, err := parseDateTime(s)
		if err != nil {
			return nil, fieldErrorf(path, "invalid datetime %q: %v", s, err)
		}
		return dt.Format(time.RFC3339), nil

	case schema.KindList:
		items, ok := v.([]any)
		if !ok {
			return nil, fieldErrorf(path, "expected array, got %T", v)
		}
		elemType := &schema.FieldType{Kind: schema.KindString}
		if t.Elem != nil {
			elemType = t.Elem
		}
		out := make([]any, len(items))
		for i, item := range items {
			coerced, err := p.coerce(elemType, item, fmt.Sprintf("%s[%d]", path, i))
			if err != nil {
				return nil, err
			}
			out[i] = coerced
		}
		return out, nil

	case schema.KindMap:
		m, ok := v.(map[string]any)
		if !ok {
			return nil, fieldErrorf(path, "expected object, got %T", v)
		}
		valueType := &schema.FieldType{Kind: schema.KindString}
		if t.Value != nil {
			valueType = t.Value
		}
		out := make(map[string]any, len(m))
		for k, item := range m {
			coerced, err := p.coerce(valueType, item, path+"."+k)
			if err != nil {
				return nil, err
			}
			out[k] = coerced
		}
		return out, nil

	case schema.KindUnion:
		var firstErr error
		for _, member := range t.Members {
			coerced, err := p.coerce(member, v, path)
			if err == nil {
				return coerced, nil
			}
			if firstErr == nil {
				firstErr = err
			}
		}
		return nil, fieldErrorf(path, "value matches no union member (%v)", firstErr)

	case schema.KindObject:
		m, ok := v.(map[string]any)
		if !ok {
			return nil, fieldErrorf(path, "expected object, got %T", v)
		}
		ref, found := p.catalog.Get(t.Ref)
		if !found {
			return nil, fieldErrorf(path, "unknown schema reference %s", t.Ref)
		}
		return p.reconstructObject(ref, m, path)

	default:
		return nil, fieldErrorf(path, "unknown kind %q", t.Kind)
	}
}

func checkConstraints(f *schema.Field, v any, path string) error {
	if f.Pattern != "" {
		if s, ok := v.(string); ok {
			re, err := regexp.Compile(f.Pattern)
			if err != nil {
				return fieldErrorf(path, "invalid pattern %q: %v", f.Pattern, err)
			}
			if !re.MatchString(s) {
				return fieldErrorf(path, "%q does not match pattern %s", s, f.Pattern)
			}
		}
	}
	if f.Minimum != nil || f.Maximum != nil {
		if n, ok := numericValue(v); ok {
			if f.Minimum != nil && n < *f.Minimum {
				return fieldErrorf(path, "%v is below minimum %v", n, *f.Minimum)
			}
			if f.Maximum != nil && n > *f.Maximum {
				return fieldErrorf(path, "%v is above maximum %v", n, *f.Maximum)
			}
		}
	}
	if f.MinLength != nil || f.MaxLength != nil {
		if s, ok := v.(string); ok {
			if f.MinLength != nil && len(s) < *f.MinLength {
				return fieldErrorf(path, "length %d is below minimum %d", len(s), *f.MinLength)
			}
			if f.MaxLength != nil && len(s) > *f.MaxLength {
				return fieldErrorf(path, "length %d is above maximum %d", len(s), *f.MaxLength)
			}
		}
	}
	return nil
}

func numericValue(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}

func parseDate(s string) (time.Time, error) {
	if d, err := time.Parse(dateLayout, s); err == nil {
		return d, nil
	}
	// Providers occasionally return full timestamps for date fields.
	if dt, err := time.Parse(time.RFC3339, s); err == nil {
		return dt, nil
	}
	return time.Time{}, fmt.Errorf("not a YYYY-MM-DD date")
}

func parseDateTime(s string) (time.Time, error) {
	if dt, err := time.Parse(time.RFC3339, s); err == nil {
		return dt, nil
	}
	if d, err := time.Parse(dateLayout, s); err == nil {
		return d, nil
	}
	return time.Time{}, fmt.Errorf("not an RFC 3339 timestamp")
}
