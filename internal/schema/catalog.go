package schema

import (
	"fmt"
	"sort"
)

// Catalog is the set of all known descriptors plus a parent→children index.
// It is built once at startup and read-only afterwards.
type Catalog struct {
	byKey    map[string]*Descriptor
	children map[string][]*Descriptor
	order    []string // insertion order, for stable listings
}

// NewCatalog builds and validates a catalog from descriptors.
// It rejects duplicate keys, dangling parent or object references,
// and inheritance cycles.
func NewCatalog(descriptors []*Descriptor) (*Catalog, error) {
	c := &Catalog{
		byKey:    make(map[string]*Descriptor, len(descriptors)),
		children: make(map[string][]*Descriptor),
	}

	for _, d := range descriptors {
		if err := d.validate(); err != nil {
			return nil, err
		}
		if _, dup := c.byKey[d.Key]; dup {
			return nil, fmt.Errorf("duplicate schema key: %s", d.Key)
		}
		c.byKey[d.Key] = d
		c.order = append(c.order, d.Key)
	}

	// Resolve parent references and build the children index once;
	// classification phases reuse it instead of scanning the catalog.
	for _, d := range descriptors {
		if d.Parent == "" {
			continue
		}
		if _, ok := c.byKey[d.Parent]; !ok {
			return nil, fmt.Errorf("schema %s references unknown parent %s", d.Key, d.Parent)
		}
		c.children[d.Parent] = append(c.children[d.Parent], d)
	}

	// Resolve object refs.
	for _, d := range descriptors {
		for _, f := range d.Fields {
			if err := c.checkRefs(d.Key, f.Name, &f.Type); err != nil {
				return nil, err
			}
		}
	}

	if err := c.checkCycles(); err != nil {
		return nil, err
	}

	return c, nil
}

func (c *Catalog) checkRefs(key, field string, t *FieldType) error {
	switch t.Kind {
	case KindObject:
		if _, ok := c.byKey[t.Ref]; !ok {
			return fmt.Errorf("schema %s field %s references unknown schema %s", key, field, t.Ref)
		}
	case KindList:
		if t.Elem != nil {
			return c.checkRefs(key, field, t.Elem)
		}
	case KindMap:
		if t.Value != nil {
			return c.checkRefs(key, field, t.Value)
		}
	case KindUnion:
		for _, m := range t.Members {
			if err := c.checkRefs(key, field, m); err != nil {
				return err
			}
		}
	}
	return nil
}

// checkCycles walks each descriptor's parent chain; a chain longer than the
// catalog means a cycle.
func (c *Catalog) checkCycles() error {
	for _, key := range c.order {
		seen := map[string]struct{}{}
		cur := c.byKey[key]
		for cur.Parent != "" {
			if _, ok := seen[cur.Key]; ok {
				return fmt.Errorf("inheritance cycle involving schema %s", cur.Key)
			}
			seen[cur.Key] = struct{}{}
			cur = c.byKey[cur.Parent]
		}
	}
	return nil
}

// Get returns the descriptor for key.
func (c *Catalog) Get(key string) (*Descriptor, bool) {
	d, ok := c.byKey[key]
	return d, ok
}

// List returns all descriptors in insertion order.
func (c *Catalog) List() []*Descriptor {
	out := make([]*Descriptor, 0, len(c.order))
	for _, key := range c.order {
		out = append(out, c.byKey[key])
	}
	return out
}

// Keys returns all schema keys, sorted.
func (c *Catalog) Keys() []string {
	out := make([]string, 0, len(c.byKey))
	for key := range c.byKey {
		out = append(out, key)
	}
	sort.Strings(out)
	return out
}

// Len returns the number of descriptors.
func (c *Catalog) Len() int {
	return len(c.byKey)
}

// Roots returns all descriptors without a parent, in insertion order.
func (c *Catalog) Roots() []*Descriptor {
	var out []*Descriptor
	for _, key := range c.order {
		if d := c.byKey[key]; d.Parent == "" {
			out = append(out, d)
		}
	}
	return out
}

// Children returns the direct children of key, in insertion order.
// Grandchildren are never included.
func (c *Catalog) Children(key string) []*Descriptor {
	return c.children[key]
}

// Depth returns the length of key's inheritance chain including itself,
// or 0 if the key is unknown.
func (c *Catalog) Depth(key string) int {
	d, ok := c.byKey[key]
	if !ok {
		return 0
	}
	depth := 1
	for d.Parent != "" {
		d = c.byKey[d.Parent]
		depth++
	}
	return depth
}
