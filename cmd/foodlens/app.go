package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Veraticus/foodlens/internal/cache"
	"github.com/Veraticus/foodlens/internal/common"
	"github.com/Veraticus/foodlens/internal/config"
	"github.com/Veraticus/foodlens/internal/fingerprint"
	"github.com/Veraticus/foodlens/internal/inference"
	"github.com/Veraticus/foodlens/internal/network"
	"github.com/Veraticus/foodlens/internal/nutrition"
	"github.com/Veraticus/foodlens/internal/recognition"
	"github.com/Veraticus/foodlens/internal/service"
	"github.com/spf13/viper"
)

// app holds the wired recognition stack for one command run.
type app struct {
	orch    *recognition.Orchestrator
	closers []func() error
}

func loadSettings() (*config.Settings, error) {
	return config.Load(viper.GetViper())
}

// newApp builds the orchestrator and its collaborators from settings.
func newApp(ctx context.Context, s *config.Settings, logger *slog.Logger) (*app, error) {
	a := &app{}

	fp, err := fingerprint.New(s.Fingerprint.Method, s.Fingerprint.PrefixBytes)
	if err != nil {
		return nil, err
	}

	local, err := inference.NewLocalClassifier(s.Local, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create local classifier: %w", err)
	}

	remote, err := inference.NewRemoteAnalyzer(ctx, s.Remote, logger)
	if err != nil {
		if !errors.Is(err, common.ErrMissingConfig) {
			return nil, fmt.Errorf("failed to create remote analyzer: %w", err)
		}
		logger.Warn("Remote analyzer disabled", "provider", s.Remote.Provider, "error", err)
		remote = nil
	}

	lookup, err := a.newLookup(ctx, s, logger)
	if err != nil {
		_ = a.Close()
		return nil, err
	}

	var reach service.Reachability
	if s.Network.ProbeAddress != "" {
		reach = network.NewDialProbe(s.Network.ProbeAddress, s.Network.ProbeTimeout, logger)
	}

	a.orch = recognition.New(recognition.Dependencies{
		Local:         local,
		Remote:        remote,
		Lookup:        lookup,
		Reachability:  reach,
		Fingerprinter: fp,
		Cache:         cache.New(s.Cache.Capacity, s.Cache.TTL),
	}, s.Recognition, logger)

	logger.Debug("Recognition stack ready",
		"local", s.Local.Provider,
		"remote", s.Remote.Provider,
		"nutrition", s.Nutrition.Provider,
		"fingerprint", s.Fingerprint.Method)
	return a, nil
}

func (a *app) newLookup(ctx context.Context, s *config.Settings, logger *slog.Logger) (service.NutritionLookup, error) {
	switch s.Nutrition.Provider {
	case config.NutritionNone:
		return nil, nil
	case config.NutritionEdamam:
		client, err := nutrition.NewEdamamClient(s.Nutrition.Edamam, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create Edamam client: %w", err)
		}
		return client, nil
	default:
		store, err := openStore(ctx, s.Nutrition.DatabasePath)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, store.Close)
		return store, nil
	}
}

// Close releases everything the app opened.
func (a *app) Close() error {
	var errs []error
	for _, c := range a.closers {
		errs = append(errs, c())
	}
	return errors.Join(errs...)
}

// openStore opens and migrates the food database.
func openStore(ctx context.Context, dbPath string) (*nutrition.SQLiteStore, error) {
	store, err := nutrition.NewSQLiteStore(dbPath)
	if err != nil {
		return nil, err
	}
	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return store, nil
}
