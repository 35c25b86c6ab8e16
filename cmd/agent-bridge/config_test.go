package main

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := loadConfig()
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.Port != defaultBridgePort || cfg.AgentPort != defaultAgentPort {
		t.Errorf("ports = %d/%d", cfg.Port, cfg.AgentPort)
	}
	if got := cfg.agentBaseURL(); got != "http://127.0.0.1:9000" {
		t.Errorf("agentBaseURL() = %q", got)
	}
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv(envBridgePort, "8081")
	t.Setenv(envAgentPort, "9100")
	t.Setenv(envAgentHost, "localhost")
	t.Setenv(envAgentInvokePath, "/run")

	cfg, err := loadConfig()
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.Port != 8081 || cfg.AgentPort != 9100 {
		t.Errorf("ports = %d/%d", cfg.Port, cfg.AgentPort)
	}
	if cfg.InvokePath != "/run" {
		t.Errorf("InvokePath = %q", cfg.InvokePath)
	}
	if got := cfg.agentBaseURL(); got != "http://localhost:9100" {
		t.Errorf("agentBaseURL() = %q", got)
	}
}

func TestLoadConfigRejectsBadPort(t *testing.T) {
	t.Setenv(envBridgePort, "not-a-port")
	if _, err := loadConfig(); err == nil {
		t.Error("invalid port accepted")
	}
}

func TestHealthHandler(t *testing.T) {
	h := newHealthHandler()

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	if w.Code != http.StatusOK {
		t.Errorf("ready status = %d", w.Code)
	}

	h.setUnhealthy()
	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("draining status = %d", w.Code)
	}
}
