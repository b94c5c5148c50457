package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type AppConfig struct {
	Server ServerConfig
	Store  StoreConfig
	Source SourceConfig
}

type ServerConfig struct {
	LogLevel      string        `envconfig:"LOG_LEVEL" default:"info"`
	ConfigDir     string        `envconfig:"CONFIG_DIR" default:"./config"`
	ResultsDir    string        `envconfig:"RESULTS_DIR" default:"./logs"`
	AnalysisDir   string        `envconfig:"ANALYSIS_DIR" default:"."`
	ShutdownGrace time.Duration `envconfig:"SHUTDOWN_GRACE" default:"30s"`
}

// StoreConfig configures the optional ping-result store. When Enabled is false
// every other field is ignored and runs behave exactly as file-logging only.
type StoreConfig struct {
	Enabled   bool   `envconfig:"DB_ENABLED" default:"false"`
	URL       string `envconfig:"DATABASE_URL"`
	Host      string `envconfig:"DB_HOST" default:"localhost"`
	Port      int    `envconfig:"DB_PORT" default:"5432"`
	Name      string `envconfig:"DB_NAME" default:"pingmon"`
	User      string `envconfig:"DB_USER" default:"postgres"`
	Password  string `envconfig:"DB_PASSWORD"`
	SSLMode   string `envconfig:"DB_SSL_MODE" default:"disable"`
	BatchSize int    `envconfig:"DB_BATCH_SIZE" default:"50"`
}

// SourceConfig configures the optional inventory database used as a target
// source. The SQL file is looked up under <config dir>/sql.
type SourceConfig struct {
	Enabled  bool   `envconfig:"IP_SOURCE_DB_ENABLED" default:"false"`
	URL      string `envconfig:"IP_SOURCE_DATABASE_URL"`
	Host     string `envconfig:"IP_SOURCE_DB_HOST" default:"localhost"`
	Port     int    `envconfig:"IP_SOURCE_DB_PORT" default:"5432"`
	Name     string `envconfig:"IP_SOURCE_DB_NAME" default:"pingmon"`
	User     string `envconfig:"IP_SOURCE_DB_USER" default:"postgres"`
	Password string `envconfig:"IP_SOURCE_DB_PASSWORD"`
	SSLMode  string `envconfig:"IP_SOURCE_DB_SSL_MODE" default:"disable"`
	SQLFile  string `envconfig:"IP_SOURCE_SQL_FILE" default:"get_ips.sql"`
}

func LoadConfig(path string) (AppConfig, error) {
	_ = godotenv.Load(path)

	var cfg AppConfig
	err := envconfig.Process("", &cfg)
	return cfg, err
}

// Paths is the process-wide directory context handed to the scheduler,
// writer and analyzer at startup.
type Paths struct {
	ConfigDir  string
	ResultsDir string
}

func (c AppConfig) Paths() Paths {
	return Paths{
		ConfigDir:  c.Server.ConfigDir,
		ResultsDir: c.Server.ResultsDir,
	}
}

// Ensure creates the config and results directories when missing.
func (p Paths) Ensure() error {
	if err := os.MkdirAll(p.ConfigDir, 0o755); err != nil {
		return err
	}
	return os.MkdirAll(p.ResultsDir, 0o755)
}

func (p Paths) SQLDir() string {
	return filepath.Join(p.ConfigDir, "sql")
}

// Resolve maps a user-supplied file reference to a concrete path. Absolute
// paths pass through; relative paths are tried against the working directory
// first and the config directory second. When neither exists the config-dir
// candidate is returned so the caller reports a predictable location.
func (p Paths) Resolve(name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	if _, err := os.Stat(name); err == nil {
		return name
	}
	candidate := filepath.Join(p.ConfigDir, name)
	if _, err := os.Stat(candidate); err == nil {
		return candidate
	}
	return candidate
}
