// Package schema defines the target-schema catalog: descriptors for every
// extraction schema docent knows about, organized as a single-inheritance
// tree via parent keys. The catalog is an explicit data structure built at
// startup from YAML manifests; nothing is discovered by reflection.
package schema

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// Kind identifies a field type. The set is closed.
type Kind string

const (
	KindString   Kind = "string"
	KindInt      Kind = "int"
	KindFloat    Kind = "float"
	KindBool     Kind = "bool"
	KindEnum     Kind = "enum"
	KindDate     Kind = "date"
	KindDateTime Kind = "datetime"
	KindList     Kind = "list"
	KindMap      Kind = "map"
	KindObject   Kind = "object"
	KindUnion    Kind = "union"
)

// FieldType describes the type of one field. Exactly the members relevant
// to Kind are set: Enum for enums, Elem for lists, Value for maps, Ref for
// objects, Members for unions.
type FieldType struct {
	Kind    Kind         `yaml:"kind" json:"kind"`
	Enum    []string     `yaml:"enum,omitempty" json:"enum,omitempty"`
	Elem    *FieldType   `yaml:"elem,omitempty" json:"elem,omitempty"`
	Value   *FieldType   `yaml:"value,omitempty" json:"value,omitempty"`
	Ref     string       `yaml:"ref,omitempty" json:"ref,omitempty"`
	Members []*FieldType `yaml:"members,omitempty" json:"members,omitempty"`
}

// UnmarshalYAML accepts both the scalar shorthand ("string") and the full
// mapping form ({kind: enum, enum: [a, b]}) in manifests.
func (t *FieldType) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		t.Kind = Kind(node.Value)
		return nil
	}
	type plain FieldType
	var p plain
	if err := node.Decode(&p); err != nil {
		return err
	}
	*t = FieldType(p)
	return nil
}

// Field is one named field of a descriptor.
type Field struct {
	Name        string    `yaml:"name" json:"name"`
	Type        FieldType `yaml:"type" json:"type"`
	Description string    `yaml:"description,omitempty" json:"description,omitempty"`
	Required    bool      `yaml:"required" json:"required"`

	// Constraint metadata, carried through projection.
	Pattern   string   `yaml:"pattern,omitempty" json:"pattern,omitempty"`
	Minimum   *float64 `yaml:"minimum,omitempty" json:"minimum,omitempty"`
	Maximum   *float64 `yaml:"maximum,omitempty" json:"maximum,omitempty"`
	MinLength *int     `yaml:"min_length,omitempty" json:"min_length,omitempty"`
	MaxLength *int     `yaml:"max_length,omitempty" json:"max_length,omitempty"`

	// Default is dropped from projections; some providers reject schemas
	// containing defaults.
	Default any `yaml:"default,omitempty" json:"default,omitempty"`
}

// Descriptor describes one target schema. Immutable after catalog load.
type Descriptor struct {
	Key         string  `yaml:"key" json:"key"`
	Name        string  `yaml:"name" json:"name"`
	Description string  `yaml:"description" json:"description"`
	Parent      string  `yaml:"parent,omitempty" json:"parent,omitempty"`
	Fields      []Field `yaml:"fields" json:"fields"`
}

// Field returns the named field, if present.
func (d *Descriptor) Field(name string) (Field, bool) {
	for _, f := range d.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// validate checks the field type tree of a descriptor against the closed
// kind set. Ref targets are checked at catalog level where all keys are known.
func (d *Descriptor) validate() error {
	if d.Key == "" {
		return fmt.Errorf("descriptor missing key")
	}
	if d.Name == "" {
		return fmt.Errorf("descriptor %s missing name", d.Key)
	}
	seen := make(map[string]struct{}, len(d.Fields))
	for _, f := range d.Fields {
		if f.Name == "" {
			return fmt.Errorf("descriptor %s has a field without a name", d.Key)
		}
		if _, dup := seen[f.Name]; dup {
			return fmt.Errorf("descriptor %s has duplicate field %s", d.Key, f.Name)
		}
		seen[f.Name] = struct{}{}
		if err := validateType(&f.Type); err != nil {
			return fmt.Errorf("descriptor %s field %s: %w", d.Key, f.Name, err)
		}
	}
	return nil
}

func validateType(t *FieldType) error {
	switch t.Kind {
	case KindString, KindInt, KindFloat, KindBool, KindDate, KindDateTime:
		return nil
	case KindEnum:
		if len(t.Enum) == 0 {
			return fmt.Errorf("enum type has no labels")
		}
		return nil
	case KindList:
		if t.Elem == nil {
			return nil // element type defaults to string during projection
		}
		return validateType(t.Elem)
	case KindMap:
		if t.Value == nil {
			return nil
		}
		return validateType(t.Value)
	case KindObject:
		if t.Ref == "" {
			return fmt.Errorf("object type has no ref")
		}
		return nil
	case KindUnion:
		if len(t.Members) < 2 {
			return fmt.Errorf("union type needs at least two members")
		}
		for _, m := range t.Members {
			if err := validateType(m); err != nil {
				return err
			}
		}
		return nil
	default:
		return fmt.Errorf("unknown kind %q", t.Kind)
	}
}
