package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/semmidev/mongo-s3-backup/internal/domain"
	"github.com/semmidev/mongo-s3-backup/internal/infrastructure/scheduler"
)

const (
	DefaultCrontab  = "0 0 * * *"
	DefaultTimezone = "UTC"
	DefaultPort     = 27017
	envPrefix       = "MONGO_S3_BACKUP"
)

type Config struct {
	App           AppConfig       `mapstructure:"app"`
	MongoDB       []MongoDBConfig `mapstructure:"mongodb"`
	S3            StoreConfig     `mapstructure:"s3"`
	NumOfArchives int             `mapstructure:"numOfArchives"`
	Cron          CronConfig      `mapstructure:"cron"`
	Workspace     WorkspaceConfig `mapstructure:"workspace"`
	Tools         ToolsConfig     `mapstructure:"tools"`
	Metrics       MetricsConfig   `mapstructure:"metrics"`
	Notify        NotifyConfig    `mapstructure:"notify"`
}

type AppConfig struct {
	Name     string `mapstructure:"name"`
	LogLevel string `mapstructure:"log_level"`
	LogFile  string `mapstructure:"log_file"`
}

type MongoDBConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	DB       string `mapstructure:"db"`
}

type StoreConfig struct {
	Provider      string `mapstructure:"provider"`
	Key           string `mapstructure:"key"`
	Secret        string `mapstructure:"secret"`
	Bucket        string `mapstructure:"bucket"`
	Region        string `mapstructure:"region"`
	Endpoint      string `mapstructure:"endpoint"`
	Destination   string `mapstructure:"destination"`
	Encrypt       bool   `mapstructure:"encrypt"`
	RetryAttempts int    `mapstructure:"retry_attempts"`

	// GCS
	ProjectID string `mapstructure:"project_id"`

	// GCS and Google Drive
	CredentialsFile string `mapstructure:"credentials_file"`

	// Google Drive
	FolderID string `mapstructure:"folder_id"`

	// Local directory
	Path string `mapstructure:"path"`
}

type CronConfig struct {
	Crontab  string `mapstructure:"crontab"`
	Time     string `mapstructure:"time"`
	Timezone string `mapstructure:"timezone"`
}

type WorkspaceConfig struct {
	Root string `mapstructure:"root"`
}

type ToolsConfig struct {
	MongoDump    string `mapstructure:"mongodump"`
	MongoRestore string `mapstructure:"mongorestore"`
	Tar          string `mapstructure:"tar"`
}

type MetricsConfig struct {
	ListenAddr string `mapstructure:"listen_addr"`
}

type NotifyConfig struct {
	Telegram TelegramConfig `mapstructure:"telegram"`
}

type TelegramConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	BotToken string `mapstructure:"bot_token"`
	ChatID   string `mapstructure:"chat_id"`
}

// Load reads a JSON or YAML config file; the format follows the extension.
// Any key can be overridden from the environment, e.g. MONGO_S3_BACKUP_S3_SECRET.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("app.name", "mongo-s3-backup")
	v.SetDefault("app.log_level", "info")
	v.SetDefault("s3.provider", "s3")
	v.SetDefault("s3.region", "us-east-1")
	v.SetDefault("s3.retry_attempts", 1)
	v.SetDefault("numOfArchives", 0)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	// "mongodb" may be a single object or a list of them.
	if single, ok := v.Get("mongodb").(map[string]interface{}); ok {
		v.Set("mongodb", []interface{}{single})
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

func (c *Config) applyDefaults() {
	for i := range c.MongoDB {
		if c.MongoDB[i].Port == 0 {
			c.MongoDB[i].Port = DefaultPort
		}
	}
	if c.S3.RetryAttempts < 1 {
		c.S3.RetryAttempts = 1
	}
}

func (c *Config) Validate() error {
	if len(c.MongoDB) == 0 {
		return fmt.Errorf("at least one mongodb configuration is required")
	}

	seen := make(map[string]bool)
	for i, db := range c.MongoDB {
		if db.DB == "" {
			return fmt.Errorf("mongodb[%d]: db is required", i)
		}
		if db.Host == "" {
			return fmt.Errorf("mongodb[%d]: host is required", i)
		}
		if db.Port <= 0 || db.Port > 65535 {
			return fmt.Errorf("mongodb[%d]: invalid port %d", i, db.Port)
		}
		// workspace paths are keyed by db name
		if seen[db.DB] {
			return fmt.Errorf("mongodb[%d]: duplicate db %q", i, db.DB)
		}
		seen[db.DB] = true
	}

	if err := c.S3.Validate(); err != nil {
		return err
	}

	if c.NumOfArchives < 0 {
		return fmt.Errorf("numOfArchives must be non-negative")
	}

	spec, _, err := c.Schedule()
	if err != nil {
		return err
	}
	if err := scheduler.Validate(spec); err != nil {
		return fmt.Errorf("invalid cron.crontab %q: %w", spec, err)
	}

	return nil
}

func (s *StoreConfig) Validate() error {
	switch s.Provider {
	case "", "s3":
		if s.Key == "" {
			return fmt.Errorf("s3.key is required for s3 storage")
		}
		if s.Secret == "" {
			return fmt.Errorf("s3.secret is required for s3 storage")
		}
		if s.Bucket == "" {
			return fmt.Errorf("s3.bucket is required for s3 storage")
		}
	case "gcs":
		if s.Bucket == "" {
			return fmt.Errorf("s3.bucket is required for gcs storage")
		}
	case "gdrive":
		if s.CredentialsFile == "" {
			return fmt.Errorf("s3.credentials_file is required for gdrive storage")
		}
		if s.FolderID == "" {
			return fmt.Errorf("s3.folder_id is required for gdrive storage")
		}
	case "local":
		if s.Path == "" {
			return fmt.Errorf("s3.path is required for local storage")
		}
	default:
		return fmt.Errorf("invalid s3.provider: %s (must be s3, gcs, gdrive or local)", s.Provider)
	}
	return nil
}

// Sources returns the configured databases as domain descriptors.
func (c *Config) Sources() []domain.Source {
	sources := make([]domain.Source, 0, len(c.MongoDB))
	for _, db := range c.MongoDB {
		sources = append(sources, domain.Source{
			Host:     db.Host,
			Port:     db.Port,
			Username: db.Username,
			Password: db.Password,
			DB:       db.DB,
		})
	}
	return sources
}

// Store returns the descriptor the storage factory builds a client from.
func (s StoreConfig) Store() domain.Store {
	return domain.Store{
		Provider:        s.Provider,
		AccessKey:       s.Key,
		SecretKey:       s.Secret,
		Bucket:          s.Bucket,
		Region:          s.Region,
		Endpoint:        s.Endpoint,
		Destination:     s.Destination,
		Encrypt:         s.Encrypt,
		RetryAttempts:   s.RetryAttempts,
		ProjectID:       s.ProjectID,
		CredentialsFile: s.CredentialsFile,
		FolderID:        s.FolderID,
		Path:            s.Path,
	}
}

// Schedule resolves the cron expression and location for scheduled backups.
// An explicit crontab wins over time ("HH:MM"); with neither, backups run
// daily at midnight.
func (c *Config) Schedule() (string, *time.Location, error) {
	spec := DefaultCrontab

	switch {
	case c.Cron.Crontab != "":
		spec = c.Cron.Crontab
	case c.Cron.Time != "":
		hour, minute, err := parseClock(c.Cron.Time)
		if err != nil {
			return "", nil, err
		}
		spec = fmt.Sprintf("%d %d * * *", minute, hour)
	}

	tz := c.Cron.Timezone
	if tz == "" {
		tz = DefaultTimezone
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return "", nil, fmt.Errorf("invalid cron.timezone %q: %w", tz, err)
	}

	return spec, loc, nil
}

func parseClock(s string) (int, int, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid cron.time %q: expected HH:MM", s)
	}

	hour, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, fmt.Errorf("invalid cron.time %q: bad hour", s)
	}
	minute, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("invalid cron.time %q: bad minute", s)
	}

	return hour, minute, nil
}
