package schema

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadBuiltin(t *testing.T) {
	catalog, err := LoadBuiltin()
	if err != nil {
		t.Fatalf("LoadBuiltin() error = %v", err)
	}

	if catalog.Len() == 0 {
		t.Fatal("built-in catalog is empty")
	}

	t.Run("inheritance chain resolves", func(t *testing.T) {
		sla, ok := catalog.Get("software_license_agreement")
		if !ok {
			t.Fatal("software_license_agreement not found")
		}
		if sla.Parent != "license_agreement" {
			t.Errorf("expected parent license_agreement, got %s", sla.Parent)
		}
		la, ok := catalog.Get("license_agreement")
		if !ok {
			t.Fatal("license_agreement not found")
		}
		if la.Parent != "agreement" {
			t.Errorf("expected parent agreement, got %s", la.Parent)
		}
		if catalog.Depth("software_license_agreement") != 3 {
			t.Errorf("expected depth 3, got %d", catalog.Depth("software_license_agreement"))
		}
	})

	t.Run("roots have no parent", func(t *testing.T) {
		for _, d := range catalog.Roots() {
			if d.Parent != "" {
				t.Errorf("root %s has parent %s", d.Key, d.Parent)
			}
		}
	})

	t.Run("children index is direct-only", func(t *testing.T) {
		children := catalog.Children("agreement")
		keys := make(map[string]bool, len(children))
		for _, c := range children {
			keys[c.Key] = true
			if c.Parent != "agreement" {
				t.Errorf("child %s of agreement has parent %s", c.Key, c.Parent)
			}
		}
		if !keys["license_agreement"] {
			t.Error("license_agreement should be a direct child of agreement")
		}
		if keys["software_license_agreement"] {
			t.Error("software_license_agreement is a grandchild and must not appear")
		}
	})

	t.Run("object refs resolve", func(t *testing.T) {
		ea, ok := catalog.Get("employment_agreement")
		if !ok {
			t.Fatal("employment_agreement not found")
		}
		comp, ok := ea.Field("compensation")
		if !ok {
			t.Fatal("compensation field not found")
		}
		if comp.Type.Kind != KindObject || comp.Type.Ref != "compensation" {
			t.Errorf("unexpected compensation type: %+v", comp.Type)
		}
	})
}

func TestNewCatalog_RejectsDanglingParent(t *testing.T) {
	_, err := NewCatalog([]*Descriptor{
		{Key: "a", Name: "A", Description: "a", Parent: "ghost"},
	})
	if err == nil || !strings.Contains(err.Error(), "unknown parent") {
		t.Fatalf("expected dangling parent error, got %v", err)
	}
}

func TestNewCatalog_RejectsCycle(t *testing.T) {
	_, err := NewCatalog([]*Descriptor{
		{Key: "a", Name: "A", Description: "a", Parent: "b"},
		{Key: "b", Name: "B", Description: "b", Parent: "a"},
	})
	if err == nil || !strings.Contains(err.Error(), "cycle") {
		t.Fatalf("expected cycle error, got %v", err)
	}
}

func TestNewCatalog_RejectsDuplicateKey(t *testing.T) {
	_, err := NewCatalog([]*Descriptor{
		{Key: "a", Name: "A", Description: "a"},
		{Key: "a", Name: "A2", Description: "a2"},
	})
	if err == nil || !strings.Contains(err.Error(), "duplicate") {
		t.Fatalf("expected duplicate key error, got %v", err)
	}
}

func TestNewCatalog_RejectsUnknownRef(t *testing.T) {
	_, err := NewCatalog([]*Descriptor{
		{
			Key: "a", Name: "A", Description: "a",
			Fields: []Field{
				{Name: "f", Type: FieldType{Kind: KindObject, Ref: "missing"}},
			},
		},
	})
	if err == nil || !strings.Contains(err.Error(), "unknown schema") {
		t.Fatalf("expected unknown ref error, got %v", err)
	}
}

func TestLoad_MergesUserManifests(t *testing.T) {
	dir := t.TempDir()
	manifest := `key: purchase_order
name: PurchaseOrder
description: A purchase order issued by a buyer to a seller.
fields:
  - name: order_number
    type: string
    description: The purchase order number
    required: true
  - name: total
    type: float
    required: true
`
	if err := os.WriteFile(filepath.Join(dir, "po.yaml"), []byte(manifest), 0o644); err != nil {
		t.Fatal(err)
	}

	catalog, err := Load(dir)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if _, ok := catalog.Get("purchase_order"); !ok {
		t.Error("user manifest schema not loaded")
	}
	if _, ok := catalog.Get("agreement"); !ok {
		t.Error("built-in schemas should still be present")
	}
}

func TestLoad_RejectsInvalidManifest(t *testing.T) {
	dir := t.TempDir()
	// "kind: blob" is not in the closed kind set.
	manifest := `key: bad
name: Bad
description: An invalid manifest.
fields:
  - name: f
    type:
      kind: blob
`
	if err := os.WriteFile(filepath.Join(dir, "bad.yaml"), []byte(manifest), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := Load(dir)
	if err == nil {
		t.Fatal("expected meta-schema validation error")
	}
	if !strings.Contains(err.Error(), "bad.yaml") {
		t.Errorf("error should name the manifest file, got: %v", err)
	}
}

func TestFieldType_YAMLShorthand(t *testing.T) {
	dir := t.TempDir()
	manifest := `key: shorthand
name: Shorthand
description: Exercises the scalar type shorthand.
fields:
  - name: plain
    type: string
    required: true
  - name: tagged
    type:
      kind: list
      elem: int
`
	if err := os.WriteFile(filepath.Join(dir, "s.yaml"), []byte(manifest), 0o644); err != nil {
		t.Fatal(err)
	}

	catalog, err := Load(dir)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	d, ok := catalog.Get("shorthand")
	if !ok {
		t.Fatal("shorthand schema not loaded")
	}

	plain, _ := d.Field("plain")
	if plain.Type.Kind != KindString {
		t.Errorf("expected string kind, got %s", plain.Type.Kind)
	}
	tagged, _ := d.Field("tagged")
	if tagged.Type.Kind != KindList || tagged.Type.Elem == nil || tagged.Type.Elem.Kind != KindInt {
		t.Errorf("unexpected tagged type: %+v", tagged.Type)
	}
}
