package testutil

import (
	"testing"

	"github.com/spf13/viper"
)

// ResetSettings clears viper before the test and again when it completes.
func ResetSettings(t *testing.T) {
	t.Helper()

	viper.Reset()
	t.Cleanup(viper.Reset)
}

// SetSetting overrides a single viper key for the duration of the test.
func SetSetting(t *testing.T, key string, value any) {
	t.Helper()

	viper.Set(key, value)
	t.Cleanup(viper.Reset)
}
