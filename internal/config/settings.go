package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/nan-gameware/wowdb/internal/fetch"
)

// ExportSettings controls how table exports are downloaded.
type ExportSettings struct {
	URL     string
	Timeout time.Duration
	Retries int
	Rate    float64
}

// InitSettings registers defaults, binds WOWDB_* environment variables and
// reads an optional wowdb.yaml settings file. A missing file is not an error.
func InitSettings() error {
	viper.SetDefault("export.url", fetch.DefaultURL)
	viper.SetDefault("export.timeout", "0s")
	viper.SetDefault("export.retries", 0)
	viper.SetDefault("export.rate", 0)
	viper.SetDefault("storage.path", "")
	viper.SetDefault("log.level", "warn")

	viper.SetEnvPrefix("wowdb")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	viper.SetConfigName("wowdb")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("$HOME/.config/wowdb")

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("failed to read settings file: %w", err)
		}
	}
	return nil
}

// Export returns the current download settings.
func Export() ExportSettings {
	return ExportSettings{
		URL:     viper.GetString("export.url"),
		Timeout: viper.GetDuration("export.timeout"),
		Retries: viper.GetInt("export.retries"),
		Rate:    viper.GetFloat64("export.rate"),
	}
}

// StoragePath is the base cache directory used when a document does not name one.
func StoragePath() string {
	return viper.GetString("storage.path")
}

// LogLevel returns the configured log level name.
func LogLevel() string {
	return viper.GetString("log.level")
}

// SetLogLevel overrides the log level, e.g. from a --debug flag.
func SetLogLevel(level string) {
	viper.Set("log.level", level)
}
