package main

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	config "github.com/drummonds/pagestrip/config"
	engine "github.com/drummonds/pagestrip/engine"
)

func TestIsAddressInUse(t *testing.T) {
	if isAddressInUse(nil) {
		t.Error("Expected nil error not to be address in use")
	}
	if !isAddressInUse(errors.New("listen tcp :8000: bind: address already in use")) {
		t.Error("Expected bind error to be detected")
	}
	if isAddressInUse(errors.New("permission denied")) {
		t.Error("Expected unrelated error not to be address in use")
	}
}

func TestUnknownAPIRouteReturnsJSON(t *testing.T) {
	injectGlobals(slog.New(slog.NewTextHandler(os.Stdout, nil)))

	e := newEcho()
	serverHandler := &engine.ServerHandler{Echo: e, ServerConfig: config.ServerConfig{}}
	serverHandler.RegisterRoutes()

	req := httptest.NewRequest(http.MethodGet, "/api/nothing-here", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("Expected status 404, got %d", rec.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("Failed to decode 404 body: %v", err)
	}
	if body["path"] != "/api/nothing-here" {
		t.Errorf("Expected path in 404 body, got %q", body["path"])
	}
}

func TestServerWithoutDatabaseOrDocument(t *testing.T) {
	injectGlobals(slog.New(slog.NewTextHandler(os.Stdout, nil)))

	e := newEcho()
	serverHandler := &engine.ServerHandler{Echo: e, ServerConfig: config.ServerConfig{DocumentPath: "/nonexistent/document.pdf"}}
	serverHandler.RegisterRoutes()

	tests := []struct {
		target string
		status int
	}{
		{"/api/health", http.StatusOK},
		{"/api/document", http.StatusServiceUnavailable},
		{"/api/renders", http.StatusServiceUnavailable},
		{"/api/renders/stats", http.StatusOK},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, tt.target, nil)
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		if rec.Code != tt.status {
			t.Errorf("%s: expected status %d, got %d", tt.target, tt.status, rec.Code)
		}
	}
}
