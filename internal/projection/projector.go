// Package projection reduces catalog descriptors to provider-safe simplified
// schemas and reconstructs typed instances from simplified values.
//
// Providers with restricted structured-output grammars cannot express every
// field type a descriptor may carry (dates, for example). Simplify maps each
// descriptor to an equivalent schema using only the primitive set those
// grammars accept; Reconstruct re-validates a simplified value under the
// original descriptor's stricter rules, coercing strings back into dates,
// enum labels, and nested instances.
package projection

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/docentlabs/docent/internal/schema"
)

// Simplified is an independently owned projection of a Descriptor. It never
// points back into the source descriptor or catalog.
type Simplified struct {
	Key         string
	Name        string
	Description string
	Fields      []Field
}

// Field is one field of a simplified schema. Constraint metadata survives
// projection; defaults do not.
type Field struct {
	Name        string
	Description string
	Type        Type
	Required    bool

	Pattern   string
	Minimum   *float64
	Maximum   *float64
	MinLength *int
	MaxLength *int
}

// Type is a simplified field type. Its kind set is the restricted grammar:
// string, int, float, bool, enum, list, map, union, object.
type Type struct {
	Kind    schema.Kind
	Enum    []string
	Elem    *Type
	Value   *Type
	Members []*Type
	Object  *Simplified
}

// Projector owns the simplification memo. Each instance caches projections
// keyed by descriptor key, so repeated Simplify calls for the same schema
// are O(1) after the first. The memo is per-instance, not process-wide,
// so tests can isolate projectors.
type Projector struct {
	catalog *schema.Catalog

	mu   sync.Mutex
	memo map[string]*Simplified
}

// New creates a Projector over catalog.
func New(catalog *schema.Catalog) *Projector {
	return &Projector{
		catalog: catalog,
		memo:    make(map[string]*Simplified),
	}
}

// Simplify returns the simplified projection of desc. The result is memoized:
// calling Simplify twice with the same descriptor returns the same value.
func (p *Projector) Simplify(desc *schema.Descriptor) *Simplified {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.simplifyLocked(desc)
}

func (p *Projector) simplifyLocked(desc *schema.Descriptor) *Simplified {
	if s, ok := p.memo[desc.Key]; ok {
		return s
	}

	s := &Simplified{
		Key:         desc.Key,
		Name:        desc.Name + "Simplified",
		Description: desc.Description,
	}
	// Register before descending so diamond-shaped object refs reuse the
	// same projection. The catalog guarantees refs are acyclic.
	p.memo[desc.Key] = s

	s.Fields = make([]Field, 0, len(desc.Fields))
	for _, f := range desc.Fields {
		s.Fields = append(s.Fields, Field{
			Name:        f.Name,
			Description: f.Description,
			Type:        p.simplifyType(&f.Type),
			Required:    f.Required,
			Pattern:     f.Pattern,
			Minimum:     f.Minimum,
			Maximum:     f.Maximum,
			MinLength:   f.MinLength,
			MaxLength:   f.MaxLength,
		})
	}
	return s
}

func (p *Projector) simplifyType(t *schema.FieldType) Type {
	switch t.Kind {
	case schema.KindString, schema.KindInt, schema.KindFloat, schema.KindBool:
		return Type{Kind: t.Kind}

	case schema.KindEnum:
		// Kept as a closed label set so the provider still constrains
		// output to valid labels.
		labels := make([]string, len(t.Enum))
		copy(labels, t.Enum)
		return Type{Kind: schema.KindEnum, Enum: labels}

	case schema.KindList:
		elem := Type{Kind: schema.KindString}
		if t.Elem != nil {
			elem = p.simplifyType(t.Elem)
		}
		return Type{Kind: schema.KindList, Elem: &elem}

	case schema.KindMap:
		value := Type{Kind: schema.KindString}
		if t.Value != nil {
			value = p.simplifyType(t.Value)
		}
		return Type{Kind: schema.KindMap, Value: &value}

	case schema.KindUnion:
		members := make([]*Type, 0, len(t.Members))
		seen := make(map[string]struct{}, len(t.Members))
		for _, m := range t.Members {
			sm := p.simplifyType(m)
			sig := typeSignature(&sm)
			if _, dup := seen[sig]; dup {
				continue
			}
			seen[sig] = struct{}{}
			members = append(members, &sm)
		}
		if len(members) == 1 {
			return *members[0]
		}
		return Type{Kind: schema.KindUnion, Members: members}

	case schema.KindObject:
		ref, ok := p.catalog.Get(t.Ref)
		if !ok {
			// Catalog validation guarantees refs resolve; an unknown ref
			// here means the descriptor bypassed the catalog.
			return Type{Kind: schema.KindString}
		}
		return Type{Kind: schema.KindObject, Object: p.simplifyLocked(ref)}

	default:
		// Dates, datetimes, and anything future fall back to string.
		return Type{Kind: schema.KindString}
	}
}

// typeSignature produces a canonical string for union deduplication.
func typeSignature(t *Type) string {
	switch t.Kind {
	case schema.KindEnum:
		labels := make([]string, len(t.Enum))
		copy(labels, t.Enum)
		sort.Strings(labels)
		return "enum(" + strings.Join(labels, ",") + ")"
	case schema.KindList:
		return "list(" + typeSignature(t.Elem) + ")"
	case schema.KindMap:
		return "map(" + typeSignature(t.Value) + ")"
	case schema.KindObject:
		return "object(" + t.Object.Key + ")"
	case schema.KindUnion:
		sigs := make([]string, len(t.Members))
		for i, m := range t.Members {
			sigs[i] = typeSignature(m)
		}
		sort.Strings(sigs)
		return "union(" + strings.Join(sigs, "|") + ")"
	default:
		return string(t.Kind)
	}
}

// FieldError reports a reconstruction failure at a specific field path.
// It is the normal, reportable outcome for providers that cannot fully honor
// field-level constraints, not a crash.
type FieldError struct {
	Path   string
	Detail string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("field %s: %s", e.Path, e.Detail)
}

func fieldErrorf(path, format string, args ...any) *FieldError {
	return &FieldError{Path: path, Detail: fmt.Sprintf(format, args...)}
}
