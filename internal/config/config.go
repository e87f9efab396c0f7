// Package config loads server settings from the environment, optionally
// layered over a TOML file. Environment variables always win over the file.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
)

type Config struct {
	DatabaseURL string // AGL_DATABASE_URL (required; postgres://, sqlite://path or sqlite::memory:)
	GRPCAddr    string // AGL_GRPC_ADDR (default ":9090")
	HTTPAddr    string // AGL_HTTP_ADDR (default ":8080")
	NATSURL     string // AGL_NATS_URL (optional, empty = no events)
	AuthToken   string // AGL_AUTH_TOKEN (optional, empty = auth disabled)

	CacheTTL           time.Duration // AGL_CACHE_TTL (default 10m)
	CacheSweepInterval time.Duration // AGL_CACHE_SWEEP_INTERVAL (default 1m; 0 = no janitor)
	SlotsPerDay        int           // AGL_SLOTS_PER_DAY (default 4)

	// Backup settings
	BackupInterval   time.Duration // AGL_BACKUP_INTERVAL (default 0 = disabled)
	BackupS3Bucket   string        // AGL_BACKUP_S3_BUCKET (enables S3 when set)
	BackupS3Endpoint string        // AGL_BACKUP_S3_ENDPOINT (custom endpoint for MinIO)
	BackupS3Region   string        // AGL_BACKUP_S3_REGION (default "us-east-1")
	BackupS3Key      string        // AGL_BACKUP_S3_KEY (default "agl/backup.jsonl")
	BackupGitRepo    string        // AGL_BACKUP_GIT_REPO (local clone; enables git when set)
	BackupGitFile    string        // AGL_BACKUP_GIT_FILE (default "backup.jsonl")
	BackupGitBranch  string        // AGL_BACKUP_GIT_BRANCH (default "main")
}

// file mirrors Config in the optional TOML file named by AGL_CONFIG_FILE.
type file struct {
	DatabaseURL string `toml:"database_url"`
	GRPCAddr    string `toml:"grpc_addr"`
	HTTPAddr    string `toml:"http_addr"`
	NATSURL     string `toml:"nats_url"`
	AuthToken   string `toml:"auth_token"`
	SlotsPerDay string `toml:"slots_per_day"`

	Cache struct {
		TTL           string `toml:"ttl"`
		SweepInterval string `toml:"sweep_interval"`
	} `toml:"cache"`

	Backup struct {
		Interval   string `toml:"interval"`
		S3Bucket   string `toml:"s3_bucket"`
		S3Endpoint string `toml:"s3_endpoint"`
		S3Region   string `toml:"s3_region"`
		S3Key      string `toml:"s3_key"`
		GitRepo    string `toml:"git_repo"`
		GitFile    string `toml:"git_file"`
		GitBranch  string `toml:"git_branch"`
	} `toml:"backup"`
}

// Load reads the configuration.
func Load() (*Config, error) {
	var f file
	if path := os.Getenv("AGL_CONFIG_FILE"); path != "" {
		if _, err := toml.DecodeFile(path, &f); err != nil {
			return nil, fmt.Errorf("AGL_CONFIG_FILE: %w", err)
		}
	}

	c := &Config{
		DatabaseURL:      envOrDefault("AGL_DATABASE_URL", f.DatabaseURL),
		GRPCAddr:         envOrDefault("AGL_GRPC_ADDR", orDefault(f.GRPCAddr, ":9090")),
		HTTPAddr:         envOrDefault("AGL_HTTP_ADDR", orDefault(f.HTTPAddr, ":8080")),
		NATSURL:          envOrDefault("AGL_NATS_URL", f.NATSURL),
		AuthToken:        envOrDefault("AGL_AUTH_TOKEN", f.AuthToken),
		BackupS3Bucket:   envOrDefault("AGL_BACKUP_S3_BUCKET", f.Backup.S3Bucket),
		BackupS3Endpoint: envOrDefault("AGL_BACKUP_S3_ENDPOINT", f.Backup.S3Endpoint),
		BackupS3Region:   envOrDefault("AGL_BACKUP_S3_REGION", orDefault(f.Backup.S3Region, "us-east-1")),
		BackupS3Key:      envOrDefault("AGL_BACKUP_S3_KEY", orDefault(f.Backup.S3Key, "agl/backup.jsonl")),
		BackupGitRepo:    envOrDefault("AGL_BACKUP_GIT_REPO", f.Backup.GitRepo),
		BackupGitFile:    envOrDefault("AGL_BACKUP_GIT_FILE", orDefault(f.Backup.GitFile, "backup.jsonl")),
		BackupGitBranch:  envOrDefault("AGL_BACKUP_GIT_BRANCH", orDefault(f.Backup.GitBranch, "main")),
	}
	if c.DatabaseURL == "" {
		return nil, fmt.Errorf("AGL_DATABASE_URL is required")
	}

	for _, d := range []struct {
		key      string
		fromFile string
		fallback string
		dst      *time.Duration
	}{
		{"AGL_CACHE_TTL", f.Cache.TTL, "10m", &c.CacheTTL},
		{"AGL_CACHE_SWEEP_INTERVAL", f.Cache.SweepInterval, "1m", &c.CacheSweepInterval},
		{"AGL_BACKUP_INTERVAL", f.Backup.Interval, "0", &c.BackupInterval},
	} {
		v, err := time.ParseDuration(envOrDefault(d.key, orDefault(d.fromFile, d.fallback)))
		if err != nil {
			return nil, fmt.Errorf("%s: %w", d.key, err)
		}
		if v < 0 {
			return nil, fmt.Errorf("%s: must not be negative", d.key)
		}
		*d.dst = v
	}

	slots, err := strconv.Atoi(envOrDefault("AGL_SLOTS_PER_DAY", orDefault(f.SlotsPerDay, "4")))
	if err != nil {
		return nil, fmt.Errorf("AGL_SLOTS_PER_DAY: %w", err)
	}
	if slots < 1 {
		return nil, fmt.Errorf("AGL_SLOTS_PER_DAY: must be at least 1, got %d", slots)
	}
	c.SlotsPerDay = slots

	return c, nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func orDefault(v, fallback string) string {
	if v != "" {
		return v
	}
	return fallback
}
