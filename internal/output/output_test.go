package output

import (
	"strings"
	"testing"
)

func TestTo(t *testing.T) {
	data := map[string]any{"schema": "invoice", "cached": true}

	var jsonBuf strings.Builder
	if err := To(&jsonBuf, FormatJSON, data); err != nil {
		t.Fatalf("json encode failed: %v", err)
	}
	if !strings.Contains(jsonBuf.String(), `"schema": "invoice"`) {
		t.Errorf("json output:\n%s", jsonBuf.String())
	}

	var yamlBuf strings.Builder
	if err := To(&yamlBuf, FormatYAML, data); err != nil {
		t.Fatalf("yaml encode failed: %v", err)
	}
	if !strings.Contains(yamlBuf.String(), "schema: invoice") {
		t.Errorf("yaml output:\n%s", yamlBuf.String())
	}

	if err := To(&yamlBuf, Format("xml"), data); err == nil {
		t.Error("unknown format accepted")
	}
}

func TestSetFormat(t *testing.T) {
	t.Cleanup(func() { SetFormat("yaml") })

	SetFormat("json")
	if GetFormat() != FormatJSON {
		t.Errorf("format = %q", GetFormat())
	}
	SetFormat("bogus")
	if GetFormat() != FormatYAML {
		t.Errorf("fallback format = %q", GetFormat())
	}
}
