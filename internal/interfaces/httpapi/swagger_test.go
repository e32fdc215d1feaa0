package httpapi

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestOpenAPI_ConditionalGet(t *testing.T) {
	t.Parallel()

	h := &Handler{}
	rec := httptest.NewRecorder()
	h.OpenAPI(rec, httptest.NewRequest(http.MethodGet, "/openapi.yaml", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status: got=%d want=%d", rec.Code, http.StatusOK)
	}
	etag := rec.Header().Get("ETag")
	if etag == "" || rec.Body.Len() != len(openAPIDocument) {
		t.Fatalf("expected etag and full document, etag=%q len=%d", etag, rec.Body.Len())
	}

	req := httptest.NewRequest(http.MethodGet, "/openapi.yaml", nil)
	req.Header.Set("If-None-Match", etag)
	rec = httptest.NewRecorder()
	h.OpenAPI(rec, req)
	if rec.Code != http.StatusNotModified || rec.Body.Len() != 0 {
		t.Fatalf("unexpected conditional response: status=%d len=%d", rec.Code, rec.Body.Len())
	}
}

func TestSwaggerUI_PointsAtDocument(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	(&Handler{}).SwaggerUI(rec, httptest.NewRequest(http.MethodGet, "/docs", nil))
	if !strings.Contains(rec.Body.String(), "openapi.yaml") {
		t.Fatalf("expected docs page to reference the openapi document")
	}
}
