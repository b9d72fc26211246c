package render

import (
	"strings"
	"testing"

	"github.com/docentlabs/docent/internal/schema"
)

func testCatalog(t *testing.T) *schema.Catalog {
	t.Helper()
	catalog, err := schema.NewCatalog([]*schema.Descriptor{
		{
			Key: "address", Name: "Address", Description: "A postal address.",
			Fields: []schema.Field{
				{Name: "street", Type: schema.FieldType{Kind: schema.KindString}, Required: true},
				{Name: "city", Type: schema.FieldType{Kind: schema.KindString}, Required: true},
			},
		},
		{
			Key: "contract", Name: "Contract", Description: "A contract.",
			Fields: []schema.Field{
				{Name: "title", Type: schema.FieldType{Kind: schema.KindString}, Required: true},
				{Name: "effective_date", Type: schema.FieldType{Kind: schema.KindDate}, Required: true},
				{Name: "parties", Type: schema.FieldType{
					Kind: schema.KindList,
					Elem: &schema.FieldType{Kind: schema.KindString},
				}, Required: true},
				{Name: "auto_renews", Type: schema.FieldType{Kind: schema.KindBool}},
				{Name: "venue", Type: schema.FieldType{Kind: schema.KindObject, Ref: "address"}},
				{Name: "notes", Type: schema.FieldType{Kind: schema.KindString}},
			},
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	return catalog
}

func TestMarkdown_TitleFromInstance(t *testing.T) {
	catalog := testCatalog(t)
	desc, _ := catalog.Get("contract")

	out := Markdown(desc, map[string]any{
		"title":          "Master Services Agreement",
		"effective_date": "2024-06-01",
		"parties":        []any{"Acme Corp", "Globex Inc"},
	}, catalog)

	if !strings.HasPrefix(out, "# Master Services Agreement\n") {
		t.Errorf("missing title heading:\n%s", out)
	}
}

func TestMarkdown_TitleFallsBackToSchemaName(t *testing.T) {
	catalog := testCatalog(t)
	desc, _ := catalog.Get("contract")

	out := Markdown(desc, map[string]any{"parties": []any{"Acme Corp"}}, catalog)
	if !strings.HasPrefix(out, "# Contract\n") {
		t.Errorf("missing fallback heading:\n%s", out)
	}
}

func TestMarkdown_FollowsFieldOrder(t *testing.T) {
	catalog := testCatalog(t)
	desc, _ := catalog.Get("contract")

	out := Markdown(desc, map[string]any{
		"notes":          "countersigned",
		"title":          "MSA",
		"effective_date": "2024-06-01",
		"parties":        []any{"Acme Corp"},
	}, catalog)

	idxDate := strings.Index(out, "Effective Date")
	idxParties := strings.Index(out, "Parties")
	idxNotes := strings.Index(out, "Notes")
	if idxDate < 0 || idxParties < 0 || idxNotes < 0 {
		t.Fatalf("missing labels:\n%s", out)
	}
	if !(idxDate < idxParties && idxParties < idxNotes) {
		t.Errorf("fields out of descriptor order:\n%s", out)
	}
}

func TestMarkdown_NestedObjectUsesRefDescriptor(t *testing.T) {
	catalog := testCatalog(t)
	desc, _ := catalog.Get("contract")

	out := Markdown(desc, map[string]any{
		"title":          "MSA",
		"effective_date": "2024-06-01",
		"parties":        []any{"Acme Corp"},
		"venue": map[string]any{
			"city":   "Wilmington",
			"street": "1209 N Orange St",
		},
	}, catalog)

	// Ref descriptor puts street before city despite map ordering.
	idxStreet := strings.Index(out, "Street")
	idxCity := strings.Index(out, "City")
	if idxStreet < 0 || idxCity < 0 || idxStreet > idxCity {
		t.Errorf("nested object not in descriptor order:\n%s", out)
	}
}

func TestMarkdown_ScalarFormatting(t *testing.T) {
	catalog := testCatalog(t)
	desc, _ := catalog.Get("contract")

	out := Markdown(desc, map[string]any{
		"title":          "MSA",
		"effective_date": "2024-06-01",
		"parties":        []any{"Acme Corp"},
		"auto_renews":    true,
	}, catalog)

	if !strings.Contains(out, "- **Auto Renews:** yes") {
		t.Errorf("bool not rendered:\n%s", out)
	}
}

func TestMarkdown_SkipsNullFields(t *testing.T) {
	catalog := testCatalog(t)
	desc, _ := catalog.Get("contract")

	out := Markdown(desc, map[string]any{
		"title":          "MSA",
		"effective_date": "2024-06-01",
		"parties":        []any{"Acme Corp"},
		"notes":          nil,
	}, catalog)

	if strings.Contains(out, "Notes") {
		t.Errorf("null field rendered:\n%s", out)
	}
}
