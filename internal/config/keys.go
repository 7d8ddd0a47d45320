package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// ErrUnknownKey is returned for a setting name taskforge does not define.
var ErrUnknownKey = errors.New("unknown config key")

// commandsPrefix starts per-role command keys (executor.commands.<role>).
const commandsPrefix = "executor.commands."

// Keys returns every scalar setting name, sorted.
func Keys() []string {
	v := viper.New()
	setDefaults(v)
	keys := slices.DeleteFunc(v.AllKeys(), func(k string) bool {
		return k == "executor.commands"
	})
	slices.Sort(keys)
	return keys
}

// ValidKey reports whether key names a setting.
func ValidKey(key string) bool {
	if strings.HasPrefix(key, commandsPrefix) {
		return len(key) > len(commandsPrefix)
	}
	return slices.Contains(Keys(), key)
}

// Get returns the effective value of key after merging user config,
// project config and environment.
func Get(key string) (any, error) {
	if !ValidKey(key) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownKey, key)
	}
	v, _, err := loadViper()
	if err != nil {
		return nil, err
	}
	return v.Get(key), nil
}

// Set validates value for key and writes it to the user config file.
func Set(key, value string) error {
	return setIn(GetUserConfigPath(), key, value)
}

func setIn(path, key, value string) error {
	if !ValidKey(key) {
		return fmt.Errorf("%w: %s", ErrUnknownKey, key)
	}
	parsed, err := parseValue(key, value)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	if _, err := os.Stat(path); err == nil {
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("reading %s: %w", path, err)
		}
	}
	v.Set(key, parsed)
	return v.WriteConfigAs(path)
}

// parseValue converts a command-line string to the type the key holds.
func parseValue(key, value string) (any, error) {
	switch key {
	case "queue.concurrency", "queue.max_retries":
		n, err := strconv.Atoi(value)
		if err != nil {
			return nil, fmt.Errorf("%s: expected an integer: %w", key, err)
		}
		if n < 0 || (key == "queue.concurrency" && n < 1) {
			return nil, fmt.Errorf("%s: value %d out of range", key, n)
		}
		return n, nil
	case "queue.base_delay", "queue.poll_interval", "executor.simulate_delay":
		if _, err := time.ParseDuration(value); err != nil {
			return nil, fmt.Errorf("%s: expected a duration: %w", key, err)
		}
		return value, nil
	case "report.enabled":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return nil, fmt.Errorf("%s: expected true or false: %w", key, err)
		}
		return b, nil
	case "executor.mode":
		if value != ModeSimulate && value != ModeCommand {
			return nil, fmt.Errorf("%s: expected %q or %q, got %q", key, ModeSimulate, ModeCommand, value)
		}
		return value, nil
	default:
		return value, nil
	}
}
