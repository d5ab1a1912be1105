package config

import (
	"strings"
	"testing"
	"time"

	"github.com/Veraticus/foodlens/internal/common"
	"github.com/Veraticus/foodlens/internal/inference"
	"github.com/Veraticus/foodlens/internal/recognition"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newViper() *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	return v
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("EDAMAM_APP_ID", "")

	s, err := Load(newViper())
	require.NoError(t, err)

	assert.Equal(t, recognition.DefaultConfig(), s.Recognition)
	assert.Equal(t, 50, s.Cache.Capacity)
	assert.Equal(t, time.Hour, s.Cache.TTL)
	assert.Equal(t, "rolling", s.Fingerprint.Method)
	assert.Equal(t, 4096, s.Fingerprint.PrefixBytes)
	assert.Equal(t, inference.ProviderOllama, s.Local.Provider)
	assert.Equal(t, "http://localhost:11434", s.Local.BaseURL)
	assert.Equal(t, 5, s.Local.TopK)
	assert.Equal(t, inference.ProviderOpenAI, s.Remote.Provider)
	assert.Empty(t, s.Remote.APIKey)
	assert.Equal(t, NutritionSQLite, s.Nutrition.Provider)
	assert.True(t, strings.HasSuffix(s.Nutrition.DatabasePath, "foods.db"))
	assert.False(t, strings.HasPrefix(s.Nutrition.DatabasePath, "~"), "path is expanded")
	assert.Equal(t, DefaultProbeAddress, s.Network.ProbeAddress)
	assert.Equal(t, 2*time.Second, s.Network.ProbeTimeout)
	assert.Equal(t, "info", s.Logging.Level)
	assert.Equal(t, "console", s.Logging.Format)
}

func TestLoad_Overrides(t *testing.T) {
	v := newViper()
	v.Set("recognition.local_confidence_threshold", 0.7)
	v.Set("recognition.remote_timeout", "5s")
	v.Set("cache.capacity", 3)
	v.Set("cache.ttl", 120)
	v.Set("fingerprint.method", "DHASH")
	v.Set("remote.provider", "rekognition")
	v.Set("remote.region", "eu-west-1")
	v.Set("nutrition.provider", "edamam")
	v.Set("edamam.app_id", "id")
	v.Set("edamam.app_key", "key")

	s, err := Load(v)
	require.NoError(t, err)

	assert.InDelta(t, 0.7, s.Recognition.LocalConfidenceThreshold, 1e-9)
	assert.Equal(t, 5*time.Second, s.Recognition.RemoteTimeout)
	assert.Equal(t, 3, s.Cache.Capacity)
	assert.Equal(t, 2*time.Minute, s.Cache.TTL)
	assert.Equal(t, "dhash", s.Fingerprint.Method)
	assert.Equal(t, inference.ProviderRekognition, s.Remote.Provider)
	assert.Equal(t, "eu-west-1", s.Remote.Region)
	assert.Equal(t, NutritionEdamam, s.Nutrition.Provider)
	assert.Equal(t, "id", s.Nutrition.Edamam.AppID)
	assert.Equal(t, "key", s.Nutrition.Edamam.AppKey)
}

func TestLoad_CacheTTLAsDuration(t *testing.T) {
	v := newViper()
	v.Set("cache.ttl", "90m")

	s, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, 90*time.Minute, s.Cache.TTL)
}

func TestLoad_EnvironmentFallbacks(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("EDAMAM_APP_ID", "env-id")
	t.Setenv("EDAMAM_APP_KEY", "env-key")

	v := newViper()
	v.Set("edamam.app_id", "configured-id")

	s, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, "sk-test", s.Remote.APIKey)
	assert.Equal(t, "configured-id", s.Nutrition.Edamam.AppID, "configured values win")
	assert.Equal(t, "env-key", s.Nutrition.Edamam.AppKey)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		value any
		name  string
		key   string
	}{
		{name: "threshold out of range", key: "recognition.local_confidence_threshold", value: 1.5},
		{name: "zero cache capacity", key: "cache.capacity", value: 0},
		{name: "unknown fingerprint", key: "fingerprint.method", value: "md5"},
		{name: "unknown nutrition provider", key: "nutrition.provider", value: "usda"},
		{name: "unknown log level", key: "logging.level", value: "loud"},
		{name: "negative timeout", key: "recognition.local_timeout", value: "-1s"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := newViper()
			v.Set(tt.key, tt.value)

			_, err := Load(v)
			require.Error(t, err)
			assert.ErrorIs(t, err, common.ErrInvalidConfig)
		})
	}
}
