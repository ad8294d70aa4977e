package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.APIPort != "8080" {
		t.Fatalf("APIPort = %q, want 8080", cfg.APIPort)
	}
	if cfg.OCRDPIResolution != 300 {
		t.Fatalf("OCRDPIResolution = %d, want 300", cfg.OCRDPIResolution)
	}
	if cfg.WorkerCount != 4 {
		t.Fatalf("WorkerCount = %d, want 4", cfg.WorkerCount)
	}
}

func TestLoadFileThenEnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "lawpaw.yaml")
	content := "api_port: \"9999\"\nworker_count: 2\ntesseract_lang: deu\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config file: %v", err)
	}

	t.Setenv("CONFIG_FILE", path)
	t.Setenv("API_PORT", "7777")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.APIPort != "7777" {
		t.Fatalf("APIPort = %q, env should win over file", cfg.APIPort)
	}
	if cfg.WorkerCount != 2 {
		t.Fatalf("WorkerCount = %d, want file value 2", cfg.WorkerCount)
	}
	if cfg.TesseractLang != "deu" {
		t.Fatalf("TesseractLang = %q, want deu", cfg.TesseractLang)
	}
}

func TestLoadRejectsMalformedFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "broken.yaml")
	if err := os.WriteFile(path, []byte("api_port: [unclosed"), 0o644); err != nil {
		t.Fatalf("write config file: %v", err)
	}

	t.Setenv("CONFIG_FILE", path)

	if _, err := Load(); err == nil {
		t.Fatalf("expected error for malformed config file")
	}
}
