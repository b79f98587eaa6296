package cfg

import (
	"testing"
)

func TestGetVersion(t *testing.T) {
	// Test default version
	if GetVersion() == "" {
		t.Error("GetVersion should never return empty string")
	}

	version := GetVersion()
	if version != "dev" && version != "unknown" {
		// This is fine, version could be set at build time
		t.Logf("Version: %s", version)
	}
}

func TestConfigFields(t *testing.T) {
	cfg := &Cfg{
		Port:             "8000",
		APIBase:          "https://api.example.com",
		SessionCookie:    "SESSDATA=abc",
		LLMURL:           "https://llm.example.com/generate",
		LLMAPIKey:        "test-key",
		LLMModel:         "qwen-max",
		OutputDir:        "./output/markdowns",
		MediaDir:         "./output/media",
		PromptsDir:       "./prompts",
		WorkerCount:      2,
		AnalysisInterval: 1,
		UserAgent:        "Test Agent",
		Timezone:         "UTC",
		Debug:            true,
		Version:          "test-version",
	}

	if cfg.Port != "8000" {
		t.Errorf("Expected port '8000', got '%s'", cfg.Port)
	}
	if cfg.APIBase != "https://api.example.com" {
		t.Errorf("Expected API base 'https://api.example.com', got '%s'", cfg.APIBase)
	}
	if cfg.LLMModel != "qwen-max" {
		t.Errorf("Expected model 'qwen-max', got '%s'", cfg.LLMModel)
	}
	if cfg.LLMAPIKey != "test-key" {
		t.Errorf("Expected API key 'test-key', got '%s'", cfg.LLMAPIKey)
	}
	if cfg.OutputDir != "./output/markdowns" {
		t.Errorf("Expected output dir './output/markdowns', got '%s'", cfg.OutputDir)
	}
	if cfg.WorkerCount != 2 {
		t.Errorf("Expected worker count 2, got %d", cfg.WorkerCount)
	}
	if cfg.AnalysisInterval != 1 {
		t.Errorf("Expected analysis interval 1, got %d", cfg.AnalysisInterval)
	}
	if cfg.UserAgent != "Test Agent" {
		t.Errorf("Expected user agent 'Test Agent', got '%s'", cfg.UserAgent)
	}
	if cfg.Timezone != "UTC" {
		t.Errorf("Expected timezone 'UTC', got '%s'", cfg.Timezone)
	}
	if !cfg.Debug {
		t.Error("Expected debug to be enabled")
	}
	if cfg.Version != "test-version" {
		t.Errorf("Expected version 'test-version', got '%s'", cfg.Version)
	}
}

func TestSetAndGet(t *testing.T) {
	orig := globalCfg
	defer func() { globalCfg = orig }()

	cfg := &Cfg{Port: "9000"}
	Set(cfg)

	if Get().Port != "9000" {
		t.Errorf("Expected port '9000', got '%s'", Get().Port)
	}
}
