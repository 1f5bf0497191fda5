package docs

import (
	"encoding/json"
	"testing"

	"github.com/swaggo/swag"
)

func TestRegisteredDocIsValidJSON(t *testing.T) {
	doc, err := swag.ReadDoc(SwaggerInfo.InstanceName())
	if err != nil {
		t.Fatalf("ReadDoc failed: %v", err)
	}

	var parsed struct {
		BasePath string                     `json:"basePath"`
		Info     struct{ Title string }     `json:"info"`
		Paths    map[string]json.RawMessage `json:"paths"`
	}
	if err := json.Unmarshal([]byte(doc), &parsed); err != nil {
		t.Fatalf("doc is not valid JSON: %v", err)
	}
	if parsed.BasePath != "/api/v1" {
		t.Errorf("expected basePath /api/v1, got %q", parsed.BasePath)
	}
	if parsed.Info.Title != "Promptly API" {
		t.Errorf("unexpected title %q", parsed.Info.Title)
	}
	for _, path := range []string{"/submit", "/reset", "/state", "/state/stream", "/submissions/{id}/wait", "/providers"} {
		if _, ok := parsed.Paths[path]; !ok {
			t.Errorf("doc is missing path %s", path)
		}
	}
}
