package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	DaemonPort        int           `mapstructure:"daemon_port"`
	BaseDir           string        `mapstructure:"base_dir"`
	DBPath            string        `mapstructure:"db_path"`
	LogFile           string        `mapstructure:"log_file"`
	BufferSize        int           `mapstructure:"buffer_size"`
	DebounceInterval  time.Duration `mapstructure:"debounce_interval"`
	TargetDebounce    time.Duration `mapstructure:"target_debounce"`
	FullSyncInterval  time.Duration `mapstructure:"full_sync_interval"`
	HealthInterval    time.Duration `mapstructure:"health_interval"`
	MaxConcurrentJobs int           `mapstructure:"max_concurrent_jobs"`
	IgnoreList        []string      `mapstructure:"ignore_list"`
	Adapters          []Adapter     `mapstructure:"adapters"`
	GDriveBackup      GDriveBackup  `mapstructure:"gdrive_backup"`
}

type Adapter struct {
	Name       string `mapstructure:"name"`
	AgentDir   string `mapstructure:"agent_dir"`
	ConfigPath string `mapstructure:"config_path"`
}

type GDriveBackup struct {
	Enabled bool   `mapstructure:"enabled"`
	Folder  string `mapstructure:"folder"`
}

var Default = Config{
	DaemonPort:        9210,
	BufferSize:        100,
	DebounceInterval:  500 * time.Millisecond,
	TargetDebounce:    2 * time.Second,
	FullSyncInterval:  5 * time.Minute,
	HealthInterval:    time.Minute,
	MaxConcurrentJobs: 3,
	IgnoreList:        []string{".git", ".DS_Store", "*.tmp", "*.swp"},
}

func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home dir: %w", err)
	}

	dir := filepath.Join(home, ".myai")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create config dir: %w", err)
	}

	return dir, nil
}

func Load() (*Config, error) {
	baseDir, err := Dir()
	if err != nil {
		return nil, err
	}

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(baseDir)

	viper.SetDefault("daemon_port", Default.DaemonPort)
	viper.SetDefault("base_dir", baseDir)
	viper.SetDefault("db_path", filepath.Join(baseDir, "myai.db"))
	viper.SetDefault("log_file", "")
	viper.SetDefault("buffer_size", Default.BufferSize)
	viper.SetDefault("debounce_interval", Default.DebounceInterval)
	viper.SetDefault("target_debounce", Default.TargetDebounce)
	viper.SetDefault("full_sync_interval", Default.FullSyncInterval)
	viper.SetDefault("health_interval", Default.HealthInterval)
	viper.SetDefault("max_concurrent_jobs", Default.MaxConcurrentJobs)
	viper.SetDefault("ignore_list", Default.IgnoreList)
	viper.SetDefault("adapters", defaultAdapters())
	viper.SetDefault("gdrive_backup.enabled", false)
	viper.SetDefault("gdrive_backup.folder", "myai-backup")

	viper.SetEnvPrefix("MYAI")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := errors.AsType[viper.ConfigFileNotFoundError](err); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

func defaultAdapters() []map[string]string {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil
	}

	return []map[string]string{
		{
			"name":        "claude",
			"agent_dir":   filepath.Join(home, ".claude", "agents"),
			"config_path": filepath.Join(home, ".claude", "settings.json"),
		},
		{
			"name":        "cursor",
			"agent_dir":   filepath.Join(home, ".cursor", "rules"),
			"config_path": filepath.Join(home, ".cursor", "mcp.json"),
		},
	}
}
