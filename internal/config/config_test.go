package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

var allEnvVars = []string{
	"AGL_CONFIG_FILE", "AGL_DATABASE_URL", "AGL_GRPC_ADDR", "AGL_HTTP_ADDR",
	"AGL_NATS_URL", "AGL_AUTH_TOKEN", "AGL_CACHE_TTL", "AGL_CACHE_SWEEP_INTERVAL",
	"AGL_SLOTS_PER_DAY", "AGL_BACKUP_INTERVAL", "AGL_BACKUP_S3_BUCKET",
	"AGL_BACKUP_S3_ENDPOINT", "AGL_BACKUP_S3_REGION", "AGL_BACKUP_S3_KEY",
	"AGL_BACKUP_GIT_REPO", "AGL_BACKUP_GIT_FILE", "AGL_BACKUP_GIT_BRANCH",
}

func clearAllEnv(t *testing.T) {
	t.Helper()
	for _, key := range allEnvVars {
		t.Setenv(key, "")
	}
}

func TestLoad(t *testing.T) {
	for _, tc := range []struct {
		name         string
		env          map[string]string
		wantErr      bool
		wantGRPCAddr string
		wantHTTPAddr string
		wantNATSURL  string
	}{
		{
			name:    "MissingDatabaseURL",
			env:     map[string]string{},
			wantErr: true,
		},
		{
			name:         "DefaultAddresses",
			env:          map[string]string{"AGL_DATABASE_URL": "postgres://localhost/agl"},
			wantGRPCAddr: ":9090",
			wantHTTPAddr: ":8080",
		},
		{
			name: "CustomAddresses",
			env: map[string]string{
				"AGL_DATABASE_URL": "sqlite:///var/lib/agl.db",
				"AGL_GRPC_ADDR":    ":5050",
				"AGL_HTTP_ADDR":    ":3000",
				"AGL_NATS_URL":     "nats://localhost:4222",
			},
			wantGRPCAddr: ":5050",
			wantHTTPAddr: ":3000",
			wantNATSURL:  "nats://localhost:4222",
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			clearAllEnv(t)
			for k, v := range tc.env {
				t.Setenv(k, v)
			}

			cfg, err := Load()
			if tc.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if cfg.DatabaseURL != tc.env["AGL_DATABASE_URL"] {
				t.Errorf("DatabaseURL = %q, want %q", cfg.DatabaseURL, tc.env["AGL_DATABASE_URL"])
			}
			if cfg.GRPCAddr != tc.wantGRPCAddr {
				t.Errorf("GRPCAddr = %q, want %q", cfg.GRPCAddr, tc.wantGRPCAddr)
			}
			if cfg.HTTPAddr != tc.wantHTTPAddr {
				t.Errorf("HTTPAddr = %q, want %q", cfg.HTTPAddr, tc.wantHTTPAddr)
			}
			if cfg.NATSURL != tc.wantNATSURL {
				t.Errorf("NATSURL = %q, want %q", cfg.NATSURL, tc.wantNATSURL)
			}
		})
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearAllEnv(t)
	t.Setenv("AGL_DATABASE_URL", "sqlite::memory:")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.CacheTTL != 10*time.Minute {
		t.Errorf("CacheTTL = %v, want 10m", cfg.CacheTTL)
	}
	if cfg.CacheSweepInterval != time.Minute {
		t.Errorf("CacheSweepInterval = %v, want 1m", cfg.CacheSweepInterval)
	}
	if cfg.SlotsPerDay != 4 {
		t.Errorf("SlotsPerDay = %d, want 4", cfg.SlotsPerDay)
	}
	if cfg.BackupInterval != 0 {
		t.Errorf("BackupInterval = %v, want 0", cfg.BackupInterval)
	}
	if cfg.BackupS3Region != "us-east-1" || cfg.BackupS3Key != "agl/backup.jsonl" {
		t.Errorf("backup S3 = %q %q", cfg.BackupS3Region, cfg.BackupS3Key)
	}
	if cfg.BackupGitRepo != "" || cfg.BackupGitFile != "backup.jsonl" || cfg.BackupGitBranch != "main" {
		t.Errorf("backup git = %q %q %q", cfg.BackupGitRepo, cfg.BackupGitFile, cfg.BackupGitBranch)
	}
}

func TestLoad_InvalidValues(t *testing.T) {
	for _, tc := range []struct {
		key, value string
	}{
		{"AGL_CACHE_TTL", "soon"},
		{"AGL_CACHE_SWEEP_INTERVAL", "-1m"},
		{"AGL_BACKUP_INTERVAL", "3 minutes"},
		{"AGL_SLOTS_PER_DAY", "zero"},
		{"AGL_SLOTS_PER_DAY", "0"},
	} {
		t.Run(tc.key+"="+tc.value, func(t *testing.T) {
			clearAllEnv(t)
			t.Setenv("AGL_DATABASE_URL", "sqlite::memory:")
			t.Setenv(tc.key, tc.value)
			if _, err := Load(); err == nil {
				t.Fatal("expected error, got nil")
			}
		})
	}
}

func TestLoad_File(t *testing.T) {
	clearAllEnv(t)
	path := filepath.Join(t.TempDir(), "agl.toml")
	content := `
database_url = "postgres://file/agl"
http_addr = ":7000"
slots_per_day = "2"

[cache]
ttl = "30m"

[backup]
interval = "5m"
s3_bucket = "schedules"
git_repo = "/srv/backups"
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("AGL_CONFIG_FILE", path)
	t.Setenv("AGL_HTTP_ADDR", ":7100")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.DatabaseURL != "postgres://file/agl" {
		t.Errorf("DatabaseURL = %q", cfg.DatabaseURL)
	}
	if cfg.HTTPAddr != ":7100" {
		t.Errorf("HTTPAddr = %q, want the environment to win", cfg.HTTPAddr)
	}
	if cfg.CacheTTL != 30*time.Minute || cfg.BackupInterval != 5*time.Minute {
		t.Errorf("durations = %v %v", cfg.CacheTTL, cfg.BackupInterval)
	}
	if cfg.SlotsPerDay != 2 || cfg.BackupS3Bucket != "schedules" {
		t.Errorf("SlotsPerDay = %d, BackupS3Bucket = %q", cfg.SlotsPerDay, cfg.BackupS3Bucket)
	}
	if cfg.BackupGitRepo != "/srv/backups" {
		t.Errorf("BackupGitRepo = %q", cfg.BackupGitRepo)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	clearAllEnv(t)
	t.Setenv("AGL_DATABASE_URL", "sqlite::memory:")
	t.Setenv("AGL_CONFIG_FILE", filepath.Join(t.TempDir(), "absent.toml"))
	if _, err := Load(); err == nil {
		t.Fatal("expected error for a missing config file")
	}
}
