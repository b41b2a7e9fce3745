package config

import (
	"strings"
	"testing"
	"time"
)

const (
	testRegistry = "0x00000000000000000000000000000000000000aa"
	testAdmin    = "0x0000000000000000000000000000000000000001"
)

// setRequiredEnv sets the minimum environment for Load to succeed.
func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("DATABASE_URL", "postgres://localhost:5432/mintbridge")
	t.Setenv("IMPORT_REGISTRY_ADDRESS", testRegistry)
	t.Setenv("IMPORT_ADMIN_ADDRESS", testAdmin)
	t.Setenv("API_KEYS", "key-one")
}

func TestLoadDefaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Server.Port != 8080 {
		t.Errorf("Port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Server.ReadTimeout != 15*time.Second {
		t.Errorf("ReadTimeout = %v, want 15s", cfg.Server.ReadTimeout)
	}
	if cfg.Database.MaxConns != 20 {
		t.Errorf("MaxConns = %d, want 20", cfg.Database.MaxConns)
	}
	if cfg.Import.MaxBatch != 100 {
		t.Errorf("MaxBatch = %d, want 100", cfg.Import.MaxBatch)
	}
	if cfg.Import.ChainID != 1 {
		t.Errorf("ChainID = %d, want 1", cfg.Import.ChainID)
	}
	if cfg.Import.MaxConcurrent != 5 {
		t.Errorf("MaxConcurrent = %d, want 5", cfg.Import.MaxConcurrent)
	}
	if !cfg.Rate.Enabled {
		t.Error("rate limiting disabled by default, want enabled")
	}
	if !cfg.Security.RequireAPIKey {
		t.Error("API key requirement disabled by default, want enabled")
	}
	if cfg.Logging.Level != "info" || cfg.Logging.Format != "text" {
		t.Errorf("logging = %q/%q, want info/text", cfg.Logging.Level, cfg.Logging.Format)
	}
}

func TestLoadOverrides(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("IMPORT_MAX_BATCH", "250")
	t.Setenv("IMPORT_FEE", "3")
	t.Setenv("IMPORT_MAX_WAIT_TIME", "45s")
	t.Setenv("TRUSTED_PROXIES", "10.0.0.0/8, 192.168.0.0/16")
	t.Setenv("RATE_LIMIT_ENABLED", "false")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Errorf("Port = %d, want 9090", cfg.Server.Port)
	}
	if cfg.Import.MaxBatch != 250 {
		t.Errorf("MaxBatch = %d, want 250", cfg.Import.MaxBatch)
	}
	if cfg.Import.Fee != 3 {
		t.Errorf("Fee = %d, want 3", cfg.Import.Fee)
	}
	if cfg.Import.MaxWaitTime != 45*time.Second {
		t.Errorf("MaxWaitTime = %v, want 45s", cfg.Import.MaxWaitTime)
	}
	if len(cfg.Security.TrustedProxies) != 2 || cfg.Security.TrustedProxies[1] != "192.168.0.0/16" {
		t.Errorf("TrustedProxies = %v", cfg.Security.TrustedProxies)
	}
	if cfg.Rate.Enabled {
		t.Error("rate limiting still enabled")
	}
}

func TestLoadDatabaseURLAlternate(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("DATABASE_URL", "")
	t.Setenv("DB_URL", "postgres://alt:5432/mintbridge")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Database.URL != "postgres://alt:5432/mintbridge" {
		t.Errorf("URL = %q", cfg.Database.URL)
	}
}

func TestLoadMissingRequired(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("IMPORT_REGISTRY_ADDRESS", "")

	_, err := Load()
	if err == nil {
		t.Fatal("Load succeeded without registry address")
	}
	if !strings.Contains(err.Error(), "IMPORT_REGISTRY_ADDRESS") {
		t.Errorf("error = %v, want mention of IMPORT_REGISTRY_ADDRESS", err)
	}
}

func TestValidateAggregatesErrors(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("IMPORT_ADMIN_ADDRESS", "not-an-address")
	t.Setenv("SERVER_PORT", "70000")
	t.Setenv("IMPORT_MAX_BATCH", "5000")

	_, err := Load()
	if err == nil {
		t.Fatal("Load succeeded with invalid values")
	}
	for _, want := range []string{"IMPORT_ADMIN_ADDRESS", "SERVER_PORT", "IMPORT_MAX_BATCH"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error missing %s: %v", want, err)
		}
	}
}

func TestValidateAPIKeysRequired(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("API_KEYS", "")

	_, err := Load()
	if err == nil || !strings.Contains(err.Error(), "API_KEYS") {
		t.Errorf("error = %v, want API_KEYS complaint", err)
	}

	// Disabling auth lifts the requirement.
	t.Setenv("REQUIRE_API_KEY", "false")
	if _, err := Load(); err != nil {
		t.Errorf("Load with auth disabled: %v", err)
	}
}

func TestLoadInvalidDuration(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("SERVER_READ_TIMEOUT", "soon")

	_, err := Load()
	if err == nil || !strings.Contains(err.Error(), "SERVER_READ_TIMEOUT") {
		t.Errorf("error = %v, want SERVER_READ_TIMEOUT complaint", err)
	}
}

func TestIsHexHelpers(t *testing.T) {
	if !isHexAddress(testRegistry) {
		t.Error("valid address rejected")
	}
	if isHexAddress("0x1234") {
		t.Error("short address accepted")
	}
	if !isHex32("0x" + strings.Repeat("ab", 32)) {
		t.Error("valid salt rejected")
	}
	if isHex32("0x" + strings.Repeat("zz", 32)) {
		t.Error("non-hex salt accepted")
	}
}

func TestStringMasksSecrets(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("API_KEYS", "super-secret-key")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	s := cfg.String()
	if strings.Contains(s, "super-secret-key") {
		t.Error("API key leaked into String()")
	}
	if strings.Contains(s, "postgres://") {
		t.Error("database URL leaked into String()")
	}
	if !strings.Contains(s, "[MASKED]") {
		t.Error("masking marker missing")
	}
}
