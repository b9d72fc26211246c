package invoke

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/docentlabs/docent/internal/cache"
	"github.com/docentlabs/docent/internal/document"
	"github.com/docentlabs/docent/internal/fingerprint"
	"github.com/docentlabs/docent/internal/projection"
	"github.com/docentlabs/docent/internal/providers"
	"github.com/docentlabs/docent/internal/schema"
)

func testSetup(t *testing.T) (*providers.MockAdapter, *Invoker, *schema.Descriptor) {
	t.Helper()
	catalog, err := schema.NewCatalog([]*schema.Descriptor{
		{
			Key: "receipt", Name: "Receipt", Description: "A purchase receipt.",
			Fields: []schema.Field{
				{Name: "vendor", Type: schema.FieldType{Kind: schema.KindString}, Required: true},
			},
		},
	})
	if err != nil {
		t.Fatal(err)
	}

	mock := providers.NewMockAdapter()
	mock.ResponseJSON = json.RawMessage(`{"vendor":"Acme"}`)

	reg := providers.NewRegistry(projection.New(catalog), nil)
	reg.Register("mock", mock)

	inv := New(reg, cache.NewMemory(), nil)
	desc, _ := catalog.Get("receipt")
	return mock, inv, desc
}

func textRequest() *providers.Request {
	return &providers.Request{
		Provider:  "mock",
		Model:     "test-model",
		System:    "Answer briefly.",
		Content:   []document.Part{document.Text("what kind of document is this?")},
		MaxTokens: 50,
	}
}

func TestDo_TextCacheRoundTrip(t *testing.T) {
	mock, inv, _ := testSetup(t)
	mock.ResponseText = "license_agreement"
	ctx := context.Background()

	first, err := inv.Do(ctx, textRequest())
	if err != nil {
		t.Fatalf("first call failed: %v", err)
	}
	if first.Cached {
		t.Error("first call reported cached")
	}
	if first.Text != "license_agreement" {
		t.Errorf("text = %q", first.Text)
	}

	second, err := inv.Do(ctx, textRequest())
	if err != nil {
		t.Fatalf("second call failed: %v", err)
	}
	if !second.Cached {
		t.Error("second call missed the cache")
	}
	if second.Text != first.Text {
		t.Errorf("cached text = %q, want %q", second.Text, first.Text)
	}
	if got := mock.Calls(); got != 1 {
		t.Errorf("provider calls = %d, want 1", got)
	}
}

func TestDo_StructuredCacheRoundTrip(t *testing.T) {
	mock, inv, desc := testSetup(t)
	ctx := context.Background()

	req := textRequest()
	req.Schema = desc

	first, err := inv.Do(ctx, req)
	if err != nil {
		t.Fatalf("first call failed: %v", err)
	}
	if first.Kind != providers.ResponseStructured {
		t.Errorf("kind = %q", first.Kind)
	}

	req2 := textRequest()
	req2.Schema = desc
	second, err := inv.Do(ctx, req2)
	if err != nil {
		t.Fatalf("second call failed: %v", err)
	}
	if !second.Cached {
		t.Error("second call missed the cache")
	}
	if string(second.Value) != string(first.Value) {
		t.Errorf("cached value = %s, want %s", second.Value, first.Value)
	}
	if got := mock.Calls(); got != 1 {
		t.Errorf("provider calls = %d, want 1", got)
	}
}

func TestDo_ErrorsNeverCached(t *testing.T) {
	mock, inv, _ := testSetup(t)
	ctx := context.Background()

	mock.Err = &providers.ProviderError{Provider: "mock", StatusCode: 500, Retryable: true, Message: "down"}
	if _, err := inv.Do(ctx, textRequest()); err == nil {
		t.Fatal("expected provider error")
	}

	// Provider recovers; the failure must not have been cached.
	mock.Err = nil
	mock.ResponseText = "recovered"
	resp, err := inv.Do(ctx, textRequest())
	if err != nil {
		t.Fatalf("recovered call failed: %v", err)
	}
	if resp.Cached {
		t.Error("response after failure served from cache")
	}
	if resp.Text != "recovered" {
		t.Errorf("text = %q", resp.Text)
	}
	if got := mock.Calls(); got != 2 {
		t.Errorf("provider calls = %d, want 2", got)
	}
}

func TestDo_DifferentRequestsDifferentEntries(t *testing.T) {
	mock, inv, _ := testSetup(t)
	mock.Script = []string{"first", "second"}
	ctx := context.Background()

	a, _ := inv.Do(ctx, textRequest())

	other := textRequest()
	other.Content = []document.Part{document.Text("a different document")}
	b, err := inv.Do(ctx, other)
	if err != nil {
		t.Fatalf("second request failed: %v", err)
	}
	if b.Cached {
		t.Error("distinct request hit the cache")
	}
	if a.Text == b.Text {
		t.Error("distinct requests returned the same scripted response")
	}
	if got := mock.Calls(); got != 2 {
		t.Errorf("provider calls = %d, want 2", got)
	}
}

func TestDo_NilStoreDisablesCaching(t *testing.T) {
	mock, _, _ := testSetup(t)
	reg := providers.NewRegistry(nil, nil)
	reg.Register("mock", mock)
	inv := New(reg, nil, nil)
	ctx := context.Background()

	inv.Do(ctx, textRequest())
	resp, err := inv.Do(ctx, textRequest())
	if err != nil {
		t.Fatalf("call failed: %v", err)
	}
	if resp.Cached {
		t.Error("cache hit with no store")
	}
	if got := mock.Calls(); got != 2 {
		t.Errorf("provider calls = %d, want 2", got)
	}
}

func TestDo_UnknownProvider(t *testing.T) {
	_, inv, _ := testSetup(t)
	req := textRequest()
	req.Provider = "nope"
	if _, err := inv.Do(context.Background(), req); err == nil {
		t.Error("unknown provider accepted")
	}
}

func TestDoText_RejectsSchema(t *testing.T) {
	_, inv, desc := testSetup(t)
	req := textRequest()
	req.Schema = desc
	if _, err := inv.DoText(context.Background(), req); err == nil {
		t.Error("DoText accepted a schema request")
	}
}

func TestDo_CacheReadFailureDegradesToMiss(t *testing.T) {
	mock, _, _ := testSetup(t)
	reg := providers.NewRegistry(nil, nil)
	reg.Register("mock", mock)
	inv := New(reg, failingStore{}, nil)

	resp, err := inv.Do(context.Background(), textRequest())
	if err != nil {
		t.Fatalf("call failed despite degradable cache error: %v", err)
	}
	if resp.Cached {
		t.Error("broken cache reported a hit")
	}
}

type failingStore struct{}

func (failingStore) Get(context.Context, fingerprint.Fingerprint) ([]byte, bool, error) {
	return nil, false, errors.New("backend down")
}

func (failingStore) Set(context.Context, fingerprint.Fingerprint, []byte) error {
	return errors.New("backend down")
}
