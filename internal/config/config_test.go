package config

import (
	"os"
	"testing"
	"time"
)

// clearEnv unsets every variable the loader reads for the duration of t.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"PORT", "BASE_URL", "DATABASE_URL", "MIGRATE_ON_START", "LOG_LEVEL",
		"RATE_LIMIT_RPS", "RATE_LIMIT_BURST",
		"VERIFACTU_ENV", "VERIFACTU_URL", "VERIFACTU_QR_SIZE",
		"ARCHIVE_BACKEND", "ARCHIVE_DIR", "ARCHIVE_URL_PREFIX",
		"VIES_ENABLED", "VIES_URL", "VIES_TIMEOUT", "VIES_CACHE_TTL",
		"S3_ENDPOINT", "S3_REGION", "S3_ACCESS_KEY", "S3_SECRET_KEY", "S3_FORCE_PATH_STYLE", "S3_BUCKET", "S3_PUBLIC_URL",
		"SERVER_READ_TIMEOUT", "SERVER_WRITE_TIMEOUT", "SERVER_IDLE_TIMEOUT", "SERVER_SHUTDOWN_TIMEOUT",
	} {
		t.Setenv(key, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Port != 8080 {
		t.Errorf("Port: want 8080, got %d", cfg.Port)
	}
	if cfg.BaseURL != "http://localhost:3000" {
		t.Errorf("BaseURL: want 'http://localhost:3000', got %q", cfg.BaseURL)
	}
	if cfg.DatabaseURL != "" || cfg.FilingEnabled() {
		t.Errorf("DatabaseURL: want empty, got %q", cfg.DatabaseURL)
	}
	if !cfg.MigrateOnStart {
		t.Error("MigrateOnStart should default to true")
	}
	if cfg.LogLevel != "info" {
		t.Errorf("LogLevel: want 'info', got %q", cfg.LogLevel)
	}
	if cfg.RateLimit.RPS != 20 || cfg.RateLimit.Burst != 40 {
		t.Errorf("RateLimit: want 20/40, got %v/%d", cfg.RateLimit.RPS, cfg.RateLimit.Burst)
	}
	if cfg.VeriFactu.Environment != "production" {
		t.Errorf("VeriFactu.Environment: want 'production', got %q", cfg.VeriFactu.Environment)
	}
	if cfg.VeriFactu.VerificationURL != verifactuProductionURL {
		t.Errorf("VeriFactu.VerificationURL: want %q, got %q", verifactuProductionURL, cfg.VeriFactu.VerificationURL)
	}
	if cfg.VeriFactu.QRSize != 256 {
		t.Errorf("VeriFactu.QRSize: want 256, got %d", cfg.VeriFactu.QRSize)
	}
	if cfg.Server != defaultServerConfig() {
		t.Errorf("Server: want defaults, got %+v", cfg.Server)
	}
	if cfg.Archive.Backend != "" || cfg.ArchiveEnabled() {
		t.Errorf("Archive.Backend: want empty, got %q", cfg.Archive.Backend)
	}
	if cfg.VIES.Enabled {
		t.Error("VIES should be disabled by default")
	}
	if cfg.VIES.URL != viesURL || cfg.VIES.CacheTTL != 24*time.Hour {
		t.Errorf("VIES: got %+v", cfg.VIES)
	}
}

func TestLoad_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "9090")
	t.Setenv("DATABASE_URL", "postgres://x@db/y")
	t.Setenv("LOG_LEVEL", "DEBUG")
	t.Setenv("RATE_LIMIT_RPS", "2.5")
	t.Setenv("VERIFACTU_ENV", "test")
	t.Setenv("VERIFACTU_QR_SIZE", "512")
	t.Setenv("SERVER_SHUTDOWN_TIMEOUT", "3s")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port != 9090 {
		t.Errorf("Port: want 9090, got %d", cfg.Port)
	}
	if !cfg.FilingEnabled() {
		t.Error("expected filing to be enabled")
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel: want 'debug', got %q", cfg.LogLevel)
	}
	if cfg.RateLimit.RPS != 2.5 {
		t.Errorf("RateLimit.RPS: want 2.5, got %v", cfg.RateLimit.RPS)
	}
	if cfg.VeriFactu.VerificationURL != verifactuTestURL {
		t.Errorf("VeriFactu.VerificationURL: want %q, got %q", verifactuTestURL, cfg.VeriFactu.VerificationURL)
	}
	if cfg.VeriFactu.QRSize != 512 {
		t.Errorf("VeriFactu.QRSize: want 512, got %d", cfg.VeriFactu.QRSize)
	}
	if cfg.Server.ShutdownTimeout != 3*time.Second {
		t.Errorf("Server.ShutdownTimeout: want 3s, got %v", cfg.Server.ShutdownTimeout)
	}
}

func TestLoad_CustomVerificationURL(t *testing.T) {
	clearEnv(t)
	t.Setenv("VERIFACTU_URL", "http://localhost:9999/ValidarQR")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.VeriFactu.VerificationURL != "http://localhost:9999/ValidarQR" {
		t.Errorf("VeriFactu.VerificationURL: got %q", cfg.VeriFactu.VerificationURL)
	}
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		key   string
		value string
	}{
		{"VERIFACTU_ENV", "staging"},
		{"LOG_LEVEL", "verbose"},
		{"PORT", "70000"},
		{"RATE_LIMIT_RPS", "-1"},
		{"RATE_LIMIT_BURST", "0"},
		{"VERIFACTU_QR_SIZE", "-5"},
		{"ARCHIVE_BACKEND", "ftp"},
		{"ARCHIVE_BACKEND", "s3"},
		{"VIES_TIMEOUT", "0s"},
	}

	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.key, tt.value)

			if _, err := Load(); err == nil {
				t.Errorf("expected error for %s=%s, got nil", tt.key, tt.value)
			}
		})
	}
}

func TestLoad_S3Archive(t *testing.T) {
	clearEnv(t)
	t.Setenv("DATABASE_URL", "postgres://x@db/y")
	t.Setenv("ARCHIVE_BACKEND", "S3")
	t.Setenv("S3_BUCKET", "filings")
	t.Setenv("S3_FORCE_PATH_STYLE", "true")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Archive.Backend != "s3" || !cfg.ArchiveEnabled() {
		t.Errorf("Archive.Backend: want s3, got %q", cfg.Archive.Backend)
	}
	if cfg.Archive.S3.Bucket != "filings" || !cfg.Archive.S3.ForcePathStyle {
		t.Errorf("Archive.S3: got %+v", cfg.Archive.S3)
	}
	if cfg.Archive.S3.Region != "eu-south-2" {
		t.Errorf("Archive.S3.Region: want eu-south-2, got %q", cfg.Archive.S3.Region)
	}
}

func TestLoadDev_ReturnsSensibleDefaults(t *testing.T) {
	clearEnv(t)

	cfg := LoadDev()
	if cfg == nil {
		t.Fatal("LoadDev returned nil")
	}
	if cfg.VeriFactu.VerificationURL != verifactuTestURL {
		t.Errorf("VeriFactu.VerificationURL: want test endpoint, got %q", cfg.VeriFactu.VerificationURL)
	}
	if !cfg.FilingEnabled() {
		t.Error("LoadDev should point at a local database")
	}
	if cfg.Archive.Backend != "local" {
		t.Errorf("Archive.Backend: want local, got %q", cfg.Archive.Backend)
	}
}

func TestLoadDev_FallsBackOnInvalidValues(t *testing.T) {
	clearEnv(t)
	t.Setenv("LOG_LEVEL", "verbose")

	cfg := LoadDev()
	if cfg == nil {
		t.Fatal("LoadDev returned nil")
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel: want 'debug', got %q", cfg.LogLevel)
	}
	if cfg.FilingEnabled() {
		t.Errorf("expected no database without DATABASE_URL, got %q", cfg.DatabaseURL)
	}
}

func TestGetEnvFloat(t *testing.T) {
	key := "AUTONOMO_TEST_FLOAT_VAR"
	os.Unsetenv(key)

	if got := getEnvFloat(key, 1.5); got != 1.5 {
		t.Errorf("expected fallback 1.5, got %v", got)
	}

	os.Setenv(key, "0.25")
	defer os.Unsetenv(key)
	if got := getEnvFloat(key, 1.5); got != 0.25 {
		t.Errorf("expected 0.25, got %v", got)
	}

	os.Setenv(key, "fast")
	if got := getEnvFloat(key, 1.5); got != 1.5 {
		t.Errorf("expected fallback 1.5 for invalid float, got %v", got)
	}
}

func TestGetEnv(t *testing.T) {
	key := "AUTONOMO_TEST_ENV_VAR"
	os.Unsetenv(key)

	// Fallback when env var is not set.
	got := getEnv(key, "fallback-value")
	if got != "fallback-value" {
		t.Errorf("expected fallback, got %q", got)
	}

	// Uses env var when set.
	os.Setenv(key, "actual-value")
	defer os.Unsetenv(key)

	got = getEnv(key, "fallback-value")
	if got != "actual-value" {
		t.Errorf("expected 'actual-value', got %q", got)
	}
}

func TestGetEnvInt(t *testing.T) {
	key := "AUTONOMO_TEST_INT_VAR"
	os.Unsetenv(key)

	// Fallback.
	got := getEnvInt(key, 42)
	if got != 42 {
		t.Errorf("expected fallback 42, got %d", got)
	}

	// Valid integer.
	os.Setenv(key, "100")
	defer os.Unsetenv(key)
	got = getEnvInt(key, 42)
	if got != 100 {
		t.Errorf("expected 100, got %d", got)
	}

	// Invalid integer uses fallback.
	os.Setenv(key, "not-a-number")
	got = getEnvInt(key, 42)
	if got != 42 {
		t.Errorf("expected fallback 42 for invalid int, got %d", got)
	}
}

func TestGetEnvBool(t *testing.T) {
	key := "AUTONOMO_TEST_BOOL_VAR"
	os.Unsetenv(key)

	// Fallback.
	got := getEnvBool(key, true)
	if !got {
		t.Error("expected fallback true")
	}

	// Valid true.
	os.Setenv(key, "true")
	defer os.Unsetenv(key)
	got = getEnvBool(key, false)
	if !got {
		t.Error("expected true")
	}

	// Valid false.
	os.Setenv(key, "false")
	got = getEnvBool(key, true)
	if got {
		t.Error("expected false")
	}

	// Invalid uses fallback.
	os.Setenv(key, "maybe")
	got = getEnvBool(key, true)
	if !got {
		t.Error("expected fallback true for invalid bool")
	}
}

func TestGetEnvDuration(t *testing.T) {
	key := "AUTONOMO_TEST_DUR_VAR"
	os.Unsetenv(key)

	// Fallback.
	got := getEnvDuration(key, 5*time.Second)
	if got != 5*time.Second {
		t.Errorf("expected fallback 5s, got %v", got)
	}

	// Valid duration.
	os.Setenv(key, "30s")
	defer os.Unsetenv(key)
	got = getEnvDuration(key, 5*time.Second)
	if got != 30*time.Second {
		t.Errorf("expected 30s, got %v", got)
	}

	// Invalid uses fallback.
	os.Setenv(key, "not-a-duration")
	got = getEnvDuration(key, 5*time.Second)
	if got != 5*time.Second {
		t.Errorf("expected fallback 5s for invalid duration, got %v", got)
	}
}
