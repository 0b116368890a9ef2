package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Settings struct {
	URI   string `envconfig:"URI" default:""`
	RunID string `envconfig:"RUN_ID" default:""`

	// Host key checking is off unless VERIFY_HOST_KEY is set.
	VerifyHostKey      bool   `envconfig:"VERIFY_HOST_KEY" default:"false"`
	KnownHostsFile     string `envconfig:"KNOWN_HOSTS" default:""`
	HostKeyFingerprint string `envconfig:"HOST_KEY_FINGERPRINT" default:""`
	IdentityFile       string `envconfig:"IDENTITY_FILE" default:""`

	ConnectTimeout    time.Duration `envconfig:"CONNECT_TIMEOUT" default:"30s"`
	UploadConcurrency int           `envconfig:"UPLOAD_CONCURRENCY" default:"1"`

	LogPath  string `envconfig:"LOG_PATH" default:""`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	// Audit trail; an empty DATABASE_PATH disables it.
	DatabasePath       string `envconfig:"DATABASE_PATH" default:""`
	AuditRetentionDays int    `envconfig:"AUDIT_RETENTION_DAYS" default:"90"`
	AuditPurgeSchedule string `envconfig:"AUDIT_PURGE_SCHEDULE" default:"@daily"`

	ListenAddr string `envconfig:"LISTEN_ADDR" default:"127.0.0.1:8000"`

	// Bearer token for the HTTP API. Without it the audit purge and
	// server-logs routes are refused.
	APIToken string `envconfig:"API_TOKEN" default:""`
}

var Cfg Settings

// Load reads ARTIFACTS_* environment variables into Cfg.
func Load() error {
	var s Settings
	if err := envconfig.Process("ARTIFACTS", &s); err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if s.UploadConcurrency < 1 {
		s.UploadConcurrency = 1
	}
	Cfg = s
	return nil
}
