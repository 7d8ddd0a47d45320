// Package config handles configuration loading and management for taskforge.
// It supports XDG config paths, project-level overrides, and environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// ProjectRootPlaceholder is replaced with the project root in string values.
const ProjectRootPlaceholder = "{project-root}"

// ProjectConfigName is the project-level override file, searched upward
// from the working directory.
const ProjectConfigName = ".taskforge.yaml"

// Executor modes.
const (
	ModeSimulate = "simulate"
	ModeCommand  = "command"
)

// Config holds all configuration for taskforge.
type Config struct {
	Project  ProjectConfig  `mapstructure:"project"`
	Queue    QueueConfig    `mapstructure:"queue"`
	Executor ExecutorConfig `mapstructure:"executor"`
	Report   ReportConfig   `mapstructure:"report"`
	Catalog  CatalogConfig  `mapstructure:"catalog"`
	State    StateConfig    `mapstructure:"state"`
	Log      LogConfig      `mapstructure:"log"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
}

// ProjectConfig identifies the project a run works on.
type ProjectConfig struct {
	Name string `mapstructure:"name"`
	// Root is the directory holding the project config, or the working
	// directory when there is none. It is not read from files.
	Root string `mapstructure:"-"`
}

// QueueConfig holds scheduler settings.
type QueueConfig struct {
	Concurrency  int           `mapstructure:"concurrency"`
	MaxRetries   int           `mapstructure:"max_retries"`
	BaseDelay    time.Duration `mapstructure:"base_delay"`
	PollInterval time.Duration `mapstructure:"poll_interval"`
}

// ExecutorConfig selects and configures the task executor.
type ExecutorConfig struct {
	// Mode is "simulate" or "command".
	Mode          string        `mapstructure:"mode"`
	SimulateDelay time.Duration `mapstructure:"simulate_delay"`
	// DefaultCommand runs for roles without an entry in Commands.
	DefaultCommand string `mapstructure:"default_command"`
	// Commands maps a role to a shell command.
	Commands map[string]string `mapstructure:"commands"`
	WorkDir  string            `mapstructure:"work_dir"`
}

// ReportConfig holds report output settings.
type ReportConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Dir     string `mapstructure:"dir"`
}

// CatalogConfig points at an optional catalog override file.
type CatalogConfig struct {
	Path string `mapstructure:"path"`
}

// StateConfig holds run history settings.
type StateConfig struct {
	DBPath string `mapstructure:"db_path"`
}

// LogConfig holds debug log settings.
type LogConfig struct {
	// Path is the debug log file. Empty disables debug logging.
	Path string `mapstructure:"path"`
}

// MetricsConfig holds metrics endpoint settings.
type MetricsConfig struct {
	// Addr serves /metrics during a run when non-empty (e.g. ":9090").
	Addr string `mapstructure:"addr"`
}

// Load loads configuration from XDG paths, project overrides, and environment variables.
// Precedence (highest to lowest):
// 1. Environment variables (TASKFORGE_QUEUE_CONCURRENCY, ...)
// 2. Project config (.taskforge.yaml in current directory or parent)
// 3. User config (~/.config/taskforge/config.yaml)
// 4. Built-in defaults
func Load() (*Config, error) {
	v, root, err := loadViper()
	if err != nil {
		return nil, err
	}
	return decode(v, root)
}

// loadViper builds the merged settings and returns them with the project root.
func loadViper() (*viper.Viper, string, error) {
	v := viper.New()

	// Set defaults
	setDefaults(v)

	// Load user config from XDG path
	userConfigDir := getUserConfigDir()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(userConfigDir)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, "", fmt.Errorf("reading user config: %w", err)
		}
	}

	root, _ := os.Getwd()

	// Load project config if present
	projectConfig := findProjectConfig()
	if projectConfig != "" {
		root = filepath.Dir(projectConfig)
		projectViper := viper.New()
		projectViper.SetConfigFile(projectConfig)
		if err := projectViper.ReadInConfig(); err != nil {
			return nil, "", fmt.Errorf("reading project config %s: %w", projectConfig, err)
		}
		// Merge project config (takes precedence)
		if err := v.MergeConfigMap(projectViper.AllSettings()); err != nil {
			return nil, "", fmt.Errorf("merging project config: %w", err)
		}
	}

	bindEnv(v)
	return v, root, nil
}

// LoadFromPath loads configuration from a specific path. The project root is
// the directory containing the file.
func LoadFromPath(path string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config from %s: %w", path, err)
	}
	bindEnv(v)

	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	return decode(v, filepath.Dir(abs))
}

// bindEnv maps TASKFORGE_SECTION_KEY variables onto section.key settings.
func bindEnv(v *viper.Viper) {
	v.SetEnvPrefix("TASKFORGE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
}

func decode(v *viper.Viper, root string) (*Config, error) {
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}
	cfg.Project.Root = root
	cfg.ExpandPlaceholders()
	return cfg, nil
}

// ExpandPlaceholders replaces {project-root} and ${VAR} references in every
// path and command setting.
func (c *Config) ExpandPlaceholders() {
	expand := func(s string) string {
		s = strings.ReplaceAll(s, ProjectRootPlaceholder, c.Project.Root)
		return os.ExpandEnv(s)
	}
	c.Project.Name = expand(c.Project.Name)
	c.Executor.DefaultCommand = expand(c.Executor.DefaultCommand)
	c.Executor.WorkDir = expand(c.Executor.WorkDir)
	for role, cmd := range c.Executor.Commands {
		c.Executor.Commands[role] = expand(cmd)
	}
	c.Report.Dir = expand(c.Report.Dir)
	c.Catalog.Path = expand(c.Catalog.Path)
	c.State.DBPath = expand(c.State.DBPath)
	c.Log.Path = expand(c.Log.Path)
}

// CommandFor returns the shell command configured for role, falling back
// to DefaultCommand.
func (e ExecutorConfig) CommandFor(role string) string {
	if cmd, ok := e.Commands[role]; ok && cmd != "" {
		return cmd
	}
	return e.DefaultCommand
}

// Save writes the current configuration to the user config file.
// Paths are written as they are, with placeholders already expanded.
func Save(cfg *Config) error {
	userConfigDir := getUserConfigDir()
	if err := os.MkdirAll(userConfigDir, 0700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	configPath := filepath.Join(userConfigDir, "config.yaml")

	v := viper.New()
	v.SetConfigFile(configPath)

	v.Set("project.name", cfg.Project.Name)
	v.Set("queue.concurrency", cfg.Queue.Concurrency)
	v.Set("queue.max_retries", cfg.Queue.MaxRetries)
	v.Set("queue.base_delay", cfg.Queue.BaseDelay.String())
	v.Set("queue.poll_interval", cfg.Queue.PollInterval.String())
	v.Set("executor.mode", cfg.Executor.Mode)
	v.Set("executor.simulate_delay", cfg.Executor.SimulateDelay.String())
	v.Set("executor.default_command", cfg.Executor.DefaultCommand)
	v.Set("executor.commands", cfg.Executor.Commands)
	v.Set("executor.work_dir", cfg.Executor.WorkDir)
	v.Set("report.enabled", cfg.Report.Enabled)
	v.Set("report.dir", cfg.Report.Dir)
	v.Set("catalog.path", cfg.Catalog.Path)
	v.Set("state.db_path", cfg.State.DBPath)
	v.Set("log.path", cfg.Log.Path)
	v.Set("metrics.addr", cfg.Metrics.Addr)

	return v.WriteConfigAs(configPath)
}

// GetUserConfigPath returns the path to the user config file.
func GetUserConfigPath() string {
	return filepath.Join(getUserConfigDir(), "config.yaml")
}

// GetProjectConfigPath returns the path to the project config file if it exists.
func GetProjectConfigPath() string {
	return findProjectConfig()
}

// setDefaults configures default values.
func setDefaults(v *viper.Viper) {
	v.SetDefault("project.name", "")

	// Queue defaults
	v.SetDefault("queue.concurrency", 3)
	v.SetDefault("queue.max_retries", 3)
	v.SetDefault("queue.base_delay", "1s")
	v.SetDefault("queue.poll_interval", "100ms")

	// Executor defaults
	v.SetDefault("executor.mode", ModeSimulate)
	v.SetDefault("executor.simulate_delay", "1s")
	v.SetDefault("executor.default_command", "")
	v.SetDefault("executor.commands", map[string]string{})
	v.SetDefault("executor.work_dir", ProjectRootPlaceholder)

	// Output defaults
	v.SetDefault("report.enabled", true)
	v.SetDefault("report.dir", ProjectRootPlaceholder+"/docs")
	v.SetDefault("catalog.path", "")
	v.SetDefault("state.db_path", ProjectRootPlaceholder+"/.taskforge/taskforge.db")
	v.SetDefault("log.path", ProjectRootPlaceholder+"/.taskforge/logs/taskforge-debug.log")
	v.SetDefault("metrics.addr", "")
}

// getUserConfigDir returns the XDG config directory for taskforge.
func getUserConfigDir() string {
	// Check XDG_CONFIG_HOME first
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "taskforge")
	}

	// Fall back to ~/.config/taskforge
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".config", "taskforge")
	}
	return filepath.Join(home, ".config", "taskforge")
}

// findProjectConfig searches for .taskforge.yaml in the current directory and parents.
func findProjectConfig() string {
	cwd, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		configPath := filepath.Join(cwd, ProjectConfigName)
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}

		parent := filepath.Dir(cwd)
		if parent == cwd {
			break
		}
		cwd = parent
	}

	return ""
}

// Default returns a Config with default values for the given project root.
func Default(root string) *Config {
	cfg := &Config{
		Project: ProjectConfig{Root: root},
		Queue: QueueConfig{
			Concurrency:  3,
			MaxRetries:   3,
			BaseDelay:    time.Second,
			PollInterval: 100 * time.Millisecond,
		},
		Executor: ExecutorConfig{
			Mode:          ModeSimulate,
			SimulateDelay: time.Second,
			Commands:      map[string]string{},
			WorkDir:       ProjectRootPlaceholder,
		},
		Report: ReportConfig{
			Enabled: true,
			Dir:     ProjectRootPlaceholder + "/docs",
		},
		State: StateConfig{DBPath: ProjectRootPlaceholder + "/.taskforge/taskforge.db"},
		Log:   LogConfig{Path: ProjectRootPlaceholder + "/.taskforge/logs/taskforge-debug.log"},
	}
	cfg.ExpandPlaceholders()
	return cfg
}
