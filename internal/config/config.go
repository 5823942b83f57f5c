// Package config layers defaults, an optional config file, MYTUBE_* environment variables and command line overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/mytube/mytube"
)

const (
	EnvPrefix = "MYTUBE"
	AppName   = "mytube"
)

var Keys = struct {
	Resolution       string
	SaveDir          string
	PrefixResolution string
	History          string
	HistoryDriver    string
	RateLimit        string
	AssumeYes        string
	Debug            string
}{
	Resolution:       "resolution",
	SaveDir:          "save_dir",
	PrefixResolution: "prefix_resolution",
	History:          "history",
	HistoryDriver:    "history_driver",
	RateLimit:        "rate_limit",
	AssumeYes:        "assume_yes",
	Debug:            "debug",
}

type HistoryDriver string

const (
	HistoryBolt   HistoryDriver = "bolt"
	HistorySQLite HistoryDriver = "sqlite"
	HistoryNone   HistoryDriver = "none"
)

type Config struct {
	Resolution       mytube.Resolution
	SaveDir          string
	PrefixResolution bool
	// History is the path of the history database, unused if HistoryDriver is HistoryNone.
	History       string
	HistoryDriver HistoryDriver
	// RateLimit is how many videos per second are resolved when listing channels and playlists.
	RateLimit float64
	AssumeYes bool
	Debug     bool
}

// Dir is where the config file and history live by default.
func Dir() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, AppName), nil
}

func setDefaults(v *viper.Viper) {
	saveDir, err := os.Getwd()
	if err != nil {
		saveDir = "."
	}
	v.SetDefault(Keys.Resolution, mytube.DefaultResolution().String())
	v.SetDefault(Keys.SaveDir, saveDir)
	v.SetDefault(Keys.PrefixResolution, true)
	v.SetDefault(Keys.History, "")
	v.SetDefault(Keys.HistoryDriver, string(HistoryBolt))
	v.SetDefault(Keys.RateLimit, 2.0)
	v.SetDefault(Keys.AssumeYes, false)
	v.SetDefault(Keys.Debug, false)
}

// Load reads the configuration. If file is empty, config.{yaml,json,toml} is looked for in Dir() and is optional;
// otherwise file must exist. Overrides take precedence over everything else.
func Load(file string, overrides map[string]any) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if file != "" {
		v.SetConfigFile(file)
	} else {
		if dir, err := Dir(); err == nil {
			v.AddConfigPath(dir)
		}
		v.SetConfigName("config")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}
	for key, value := range overrides {
		v.Set(key, value)
	}
	return decode(v)
}

func decode(v *viper.Viper) (*Config, error) {
	resolution, err := mytube.ParseResolution(v.GetString(Keys.Resolution))
	if err != nil {
		return nil, err
	}
	saveDir := strings.TrimSpace(v.GetString(Keys.SaveDir))
	if saveDir == "" {
		return nil, fmt.Errorf("%w: %s is empty", mytube.ErrInvalidSaveDir, Keys.SaveDir)
	}

	c := &Config{
		Resolution:       resolution,
		SaveDir:          saveDir,
		PrefixResolution: v.GetBool(Keys.PrefixResolution),
		History:          strings.TrimSpace(v.GetString(Keys.History)),
		HistoryDriver:    HistoryDriver(strings.ToLower(v.GetString(Keys.HistoryDriver))),
		RateLimit:        v.GetFloat64(Keys.RateLimit),
		AssumeYes:        v.GetBool(Keys.AssumeYes),
		Debug:            v.GetBool(Keys.Debug),
	}
	switch c.HistoryDriver {
	case HistoryBolt, HistorySQLite:
		if c.History == "" {
			dir, err := Dir()
			if err != nil {
				return nil, fmt.Errorf("no history path: %w", err)
			}
			c.History = filepath.Join(dir, defaultHistoryFile(c.HistoryDriver))
		}
	case HistoryNone:
	default:
		return nil, fmt.Errorf("unknown history driver %q", c.HistoryDriver)
	}
	return c, nil
}

func defaultHistoryFile(driver HistoryDriver) string {
	if driver == HistorySQLite {
		return "history.sqlite3"
	}
	return "history.db"
}
