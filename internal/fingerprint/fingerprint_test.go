package fingerprint

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/docentlabs/docent/internal/document"
	"github.com/docentlabs/docent/internal/providers"
	"github.com/docentlabs/docent/internal/schema"
)

func baseRequest() *providers.Request {
	return &providers.Request{
		Provider:  "anthropic",
		Model:     "claude-3-7-sonnet-20250219",
		System:    "Extract the fields.",
		Content:   []document.Part{document.Text("hello world")},
		MaxTokens: 1024,
	}
}

func TestCompute_Deterministic(t *testing.T) {
	a, err := Compute(baseRequest())
	if err != nil {
		t.Fatalf("compute failed: %v", err)
	}
	b, err := Compute(baseRequest())
	if err != nil {
		t.Fatalf("compute failed: %v", err)
	}
	if a != b {
		t.Errorf("identical requests diverged: %s vs %s", a, b)
	}
	if len(a) != 64 {
		t.Errorf("fingerprint length = %d, want 64 hex chars", len(a))
	}
}

func TestCompute_SensitiveInputs(t *testing.T) {
	base, err := Compute(baseRequest())
	if err != nil {
		t.Fatalf("compute failed: %v", err)
	}

	desc := &schema.Descriptor{Key: "receipt", Name: "Receipt"}

	tests := []struct {
		name   string
		mutate func(r *providers.Request)
	}{
		{"provider", func(r *providers.Request) { r.Provider = "openai" }},
		{"model", func(r *providers.Request) { r.Model = "gpt-4.1" }},
		{"system", func(r *providers.Request) { r.System = "Different instructions." }},
		{"content", func(r *providers.Request) { r.Content = []document.Part{document.Text("goodbye")} }},
		{"max tokens", func(r *providers.Request) { r.MaxTokens = 2048 }},
		{"schema", func(r *providers.Request) { r.Schema = desc }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := baseRequest()
			tt.mutate(req)
			got, err := Compute(req)
			if err != nil {
				t.Fatalf("compute failed: %v", err)
			}
			if got == base {
				t.Errorf("changing %s did not change the fingerprint", tt.name)
			}
		})
	}
}

func TestCompute_TemperatureExcluded(t *testing.T) {
	cold := baseRequest()
	cold.Temperature = 0
	hot := baseRequest()
	hot.Temperature = 0.9

	a, _ := Compute(cold)
	b, _ := Compute(hot)
	if a != b {
		t.Error("temperature changed the fingerprint")
	}
}

func TestCompute_FileKeyedByContentNotPath(t *testing.T) {
	dir := t.TempDir()
	write := func(name, content string) document.FilePart {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
		part, err := document.File(path)
		if err != nil {
			t.Fatalf("failed to load %s: %v", name, err)
		}
		return part
	}

	// Same name, same content, different directory level.
	sub := filepath.Join(dir, "sub")
	if err := os.Mkdir(sub, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(sub, "doc.txt"), []byte("contract body"), 0o644); err != nil {
		t.Fatal(err)
	}
	moved, err := document.File(filepath.Join(sub, "doc.txt"))
	if err != nil {
		t.Fatal(err)
	}

	original := write("doc.txt", "contract body")
	changed := write("other.txt", "different body")

	req := baseRequest()
	req.Content = []document.Part{original}
	a, _ := Compute(req)

	req.Content = []document.Part{moved}
	b, _ := Compute(req)
	if a != b {
		t.Error("relocating a file with identical content changed the fingerprint")
	}

	renamed := write("renamed.md", "contract body")
	req.Content = []document.Part{renamed}
	r, _ := Compute(req)
	if a != r {
		t.Error("renaming a file with identical content changed the fingerprint")
	}

	req.Content = []document.Part{changed}
	c, _ := Compute(req)
	if a == c {
		t.Error("different file content produced the same fingerprint")
	}
}

func TestCompute_PartBoundariesUnambiguous(t *testing.T) {
	a := baseRequest()
	a.Content = []document.Part{document.Text("ab"), document.Text("c")}
	b := baseRequest()
	b.Content = []document.Part{document.Text("a"), document.Text("bc")}

	fa, _ := Compute(a)
	fb, _ := Compute(b)
	if fa == fb {
		t.Error("different part splits collided")
	}
}
