package app

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"
)

func TestHealthEndpoint(t *testing.T) {
	handler := newTestServer(newTestService(&fakeStore{}))

	rr := doRequest(t, handler, http.MethodGet, "/api/health", "", nil)
	if rr.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", rr.Code)
	}
	if ok := decodeResponse(t, rr)["ok"]; ok != true {
		t.Errorf("expected ok=true, got %v", ok)
	}
}

func TestReadyEndpoint_Success(t *testing.T) {
	handler := newTestServer(newTestService(&fakeStore{}))

	rr := doRequest(t, handler, http.MethodGet, "/api/ready", "", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	response := decodeResponse(t, rr)
	if response["status"] != "ready" || response["ok"] != true {
		t.Errorf("unexpected response %v", response)
	}
	checks, _ := response["checks"].(map[string]any)
	database, _ := checks["database"].(map[string]any)
	if database["status"] != "ok" {
		t.Errorf("expected database ok, got %v", database)
	}
}

func TestReadyEndpoint_DatabaseDown(t *testing.T) {
	fs := &fakeStore{pingFn: func(context.Context) error {
		return errors.New("connection refused")
	}}
	handler := newTestServer(newTestService(fs))

	rr := doRequest(t, handler, http.MethodGet, "/api/ready", "", nil)
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected status 503, got %d", rr.Code)
	}
	response := decodeResponse(t, rr)
	if response["status"] != "not_ready" || response["ok"] != false {
		t.Errorf("unexpected response %v", response)
	}
	checks, _ := response["checks"].(map[string]any)
	database, _ := checks["database"].(map[string]any)
	if database["status"] != "error" || database["error"] != "connection refused" {
		t.Errorf("unexpected database check %v", database)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	svc := newTestService(&fakeStore{}).WithMetrics(NewMetrics())
	handler := newTestServer(svc)

	doRequest(t, handler, http.MethodGet, "/api/ideas/missing", "", nil)

	rr := doRequest(t, handler, http.MethodGet, "/metrics", "", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	body := rr.Body.String()
	if !strings.Contains(body, `route="/api/ideas/{id}",status="404"`) {
		t.Errorf("expected request counter by route pattern, got:\n%s", body)
	}
}

func TestMetricsDisabled(t *testing.T) {
	handler := newTestServer(newTestService(&fakeStore{}))

	rr := doRequest(t, handler, http.MethodGet, "/metrics", "", nil)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", rr.Code)
	}
}
