package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Veraticus/foodlens/internal/cache"
	"github.com/Veraticus/foodlens/internal/common"
	"github.com/Veraticus/foodlens/internal/fingerprint"
	"github.com/Veraticus/foodlens/internal/inference"
	"github.com/Veraticus/foodlens/internal/network"
	"github.com/Veraticus/foodlens/internal/nutrition"
	"github.com/Veraticus/foodlens/internal/recognition"
	"github.com/Veraticus/foodlens/internal/server"
	"github.com/spf13/viper"
)

// Nutrition provider names.
const (
	NutritionNone   = "none"
	NutritionSQLite = "sqlite"
	NutritionEdamam = "edamam"
)

// DefaultProbeAddress is dialed to decide whether the remote service is reachable.
const DefaultProbeAddress = "api.openai.com:443"

// CacheSettings sizes the result cache.
type CacheSettings struct {
	Capacity int
	TTL      time.Duration
}

// FingerprintSettings selects the cache key algorithm.
type FingerprintSettings struct {
	Method      string
	PrefixBytes int
}

// NutritionSettings selects the nutrition lookup.
type NutritionSettings struct {
	Provider     string
	DatabasePath string
	Edamam       nutrition.EdamamConfig
}

// NetworkSettings configures the reachability probe.
type NetworkSettings struct {
	ProbeAddress string
	ProbeTimeout time.Duration
}

// LoggingSettings configures the global logger.
type LoggingSettings struct {
	Level  string
	Format string
}

// Settings is every option the application reads.
type Settings struct {
	Logging     LoggingSettings
	Fingerprint FingerprintSettings
	Network     NetworkSettings
	Nutrition   NutritionSettings
	Local       inference.Config
	Remote      inference.Config
	Server      server.Config
	Cache       CacheSettings
	Recognition recognition.Config
}

// DefaultDatabasePath is where the food database lives unless configured.
func DefaultDatabasePath() string {
	return filepath.Join("~", ".local", "share", "foodlens", "foods.db")
}

// SetDefaults registers the default value of every key on v.
func SetDefaults(v *viper.Viper) {
	rec := recognition.DefaultConfig()
	v.SetDefault("recognition.local_confidence_threshold", rec.LocalConfidenceThreshold)
	v.SetDefault("recognition.agreement_boost", rec.AgreementBoost)
	v.SetDefault("recognition.agreement_cap", rec.AgreementCap)
	v.SetDefault("recognition.enrichment_miss_penalty", rec.EnrichmentMissPenalty)
	v.SetDefault("recognition.sanity_min_label_length", rec.SanityMinLabelLength)
	v.SetDefault("recognition.local_timeout", rec.LocalTimeout)
	v.SetDefault("recognition.remote_timeout", rec.RemoteTimeout)
	v.SetDefault("recognition.enrichment_concurrency", rec.EnrichmentConcurrency)
	v.SetDefault("recognition.single_flight", rec.SingleFlight)

	v.SetDefault("cache.capacity", cache.DefaultCapacity)
	v.SetDefault("cache.ttl", int(cache.DefaultTTL/time.Second))

	v.SetDefault("fingerprint.method", fingerprint.MethodRolling)
	v.SetDefault("fingerprint.prefix_bytes", fingerprint.DefaultPrefixBytes)

	v.SetDefault("local.provider", inference.ProviderOllama)
	v.SetDefault("local.endpoint", inference.DefaultOllamaEndpoint)
	v.SetDefault("local.model", inference.DefaultOllamaModel)
	v.SetDefault("local.top_k", inference.DefaultTopK)

	v.SetDefault("remote.provider", inference.ProviderOpenAI)
	v.SetDefault("remote.model", inference.DefaultOpenAIModel)
	v.SetDefault("remote.base_url", inference.DefaultOpenAIBaseURL)
	v.SetDefault("remote.rate_limit", 30)

	v.SetDefault("nutrition.provider", NutritionSQLite)
	v.SetDefault("database.path", DefaultDatabasePath())
	v.SetDefault("edamam.base_url", nutrition.DefaultEdamamBaseURL)

	v.SetDefault("network.probe_address", DefaultProbeAddress)
	v.SetDefault("network.probe_timeout", network.DefaultProbeTimeout)

	v.SetDefault("server.addr", server.DefaultAddr)
	v.SetDefault("server.read_timeout", server.DefaultReadTimeout)
	v.SetDefault("server.write_timeout", server.DefaultWriteTimeout)
	v.SetDefault("server.shutdown_timeout", server.DefaultShutdownTimeout)
	v.SetDefault("server.max_image_bytes", server.DefaultMaxImageBytes)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
}

// Load reads Settings from v. Credentials missing from v fall back to the
// providers' usual environment variables (OPENAI_API_KEY, AWS_REGION,
// EDAMAM_APP_ID, EDAMAM_APP_KEY).
func Load(v *viper.Viper) (*Settings, error) {
	s := &Settings{
		Recognition: recognition.Config{
			LocalConfidenceThreshold: v.GetFloat64("recognition.local_confidence_threshold"),
			AgreementBoost:           v.GetFloat64("recognition.agreement_boost"),
			AgreementCap:             v.GetFloat64("recognition.agreement_cap"),
			EnrichmentMissPenalty:    v.GetFloat64("recognition.enrichment_miss_penalty"),
			SanityMinLabelLength:     v.GetInt("recognition.sanity_min_label_length"),
			LocalTimeout:             v.GetDuration("recognition.local_timeout"),
			RemoteTimeout:            v.GetDuration("recognition.remote_timeout"),
			EnrichmentConcurrency:    v.GetInt("recognition.enrichment_concurrency"),
			SingleFlight:             v.GetBool("recognition.single_flight"),
		},
		Cache: CacheSettings{
			Capacity: v.GetInt("cache.capacity"),
			TTL:      seconds(v, "cache.ttl"),
		},
		Fingerprint: FingerprintSettings{
			Method:      strings.ToLower(v.GetString("fingerprint.method")),
			PrefixBytes: v.GetInt("fingerprint.prefix_bytes"),
		},
		Local: inference.Config{
			Provider: strings.ToLower(v.GetString("local.provider")),
			BaseURL:  v.GetString("local.endpoint"),
			Model:    v.GetString("local.model"),
			TopK:     v.GetInt("local.top_k"),
		},
		Remote: inference.Config{
			Provider:  strings.ToLower(v.GetString("remote.provider")),
			APIKey:    v.GetString("remote.api_key"),
			Model:     v.GetString("remote.model"),
			BaseURL:   v.GetString("remote.base_url"),
			Region:    v.GetString("remote.region"),
			RateLimit: v.GetInt("remote.rate_limit"),
		},
		Nutrition: NutritionSettings{
			Provider:     strings.ToLower(v.GetString("nutrition.provider")),
			DatabasePath: ExpandPath(v.GetString("database.path")),
			Edamam: nutrition.EdamamConfig{
				AppID:   v.GetString("edamam.app_id"),
				AppKey:  v.GetString("edamam.app_key"),
				BaseURL: v.GetString("edamam.base_url"),
			},
		},
		Network: NetworkSettings{
			ProbeAddress: v.GetString("network.probe_address"),
			ProbeTimeout: v.GetDuration("network.probe_timeout"),
		},
		Server: server.Config{
			Addr:            v.GetString("server.addr"),
			ReadTimeout:     v.GetDuration("server.read_timeout"),
			WriteTimeout:    v.GetDuration("server.write_timeout"),
			ShutdownTimeout: v.GetDuration("server.shutdown_timeout"),
			MaxImageBytes:   v.GetInt64("server.max_image_bytes"),
		},
		Logging: LoggingSettings{
			Level:  v.GetString("logging.level"),
			Format: v.GetString("logging.format"),
		},
	}

	// Override with direct environment variables if not set
	if s.Remote.APIKey == "" {
		s.Remote.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	if s.Remote.Region == "" {
		s.Remote.Region = os.Getenv("AWS_REGION")
	}
	if s.Nutrition.Edamam.AppID == "" {
		s.Nutrition.Edamam.AppID = os.Getenv("EDAMAM_APP_ID")
	}
	if s.Nutrition.Edamam.AppKey == "" {
		s.Nutrition.Edamam.AppKey = os.Getenv("EDAMAM_APP_KEY")
	}

	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// Validate checks values that would otherwise fail later at first use.
func (s *Settings) Validate() error {
	if err := s.Recognition.Validate(); err != nil {
		return err
	}
	if s.Cache.Capacity <= 0 {
		return fmt.Errorf("%w: cache capacity must be positive, got %d", common.ErrInvalidConfig, s.Cache.Capacity)
	}
	if s.Cache.TTL <= 0 {
		return fmt.Errorf("%w: cache ttl must be positive", common.ErrInvalidConfig)
	}
	if _, err := fingerprint.New(s.Fingerprint.Method, s.Fingerprint.PrefixBytes); err != nil {
		return fmt.Errorf("%w: %w", common.ErrInvalidConfig, err)
	}
	switch s.Nutrition.Provider {
	case NutritionNone, NutritionSQLite, NutritionEdamam:
	default:
		return fmt.Errorf("%w: unsupported nutrition provider: %s", common.ErrInvalidConfig, s.Nutrition.Provider)
	}
	if _, err := common.ParseLevel(s.Logging.Level); err != nil {
		return err
	}
	return nil
}

// seconds reads a duration given either as a bare number of seconds or as
// a Go duration string such as "90m".
func seconds(v *viper.Viper, key string) time.Duration {
	if n := v.GetInt(key); n > 0 {
		return time.Duration(n) * time.Second
	}
	return v.GetDuration(key)
}
