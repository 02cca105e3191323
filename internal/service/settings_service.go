package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/AdamBeresnev/bracket-keeper/internal/bracket"
	"github.com/AdamBeresnev/bracket-keeper/internal/metrics"
	"github.com/AdamBeresnev/bracket-keeper/internal/store"
)

type SettingsPatch struct {
	Theme    *bracket.Theme
	Language *bracket.Language
}

// SettingsService keeps the app settings next to the tournaments in the same
// KV backend, persisted the same best-effort way.
type SettingsService struct {
	mu       sync.Mutex
	store    *store.TournamentStore
	settings bracket.Settings
	logger   *slog.Logger
}

func NewSettingsService(kv store.KV, logger *slog.Logger) *SettingsService {
	if logger == nil {
		logger = slog.Default()
	}
	return &SettingsService{
		store:    store.NewTournamentStore(kv),
		settings: bracket.DefaultSettings(),
		logger:   logger,
	}
}

func (s *SettingsService) Load(ctx context.Context) error {
	settings, err := s.store.LoadSettings(ctx)
	if err != nil {
		s.logger.Error("[STORE] load failed", "key", store.SettingsKey, "error", err)
		return fmt.Errorf("loading settings: %w", err)
	}

	s.mu.Lock()
	s.settings = settings
	s.mu.Unlock()
	return nil
}

func (s *SettingsService) Get() bracket.Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.settings
}

func (s *SettingsService) Update(ctx context.Context, patch SettingsPatch) (bracket.Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.settings
	if patch.Theme != nil {
		if !patch.Theme.Valid() {
			return s.settings, validationError("unknown theme '%s'", *patch.Theme)
		}
		next.Theme = *patch.Theme
	}
	if patch.Language != nil {
		if !patch.Language.Valid() {
			return s.settings, validationError("unknown language '%s'", *patch.Language)
		}
		next.Language = *patch.Language
	}

	s.settings = next
	s.persist(ctx)
	return next, nil
}

func (s *SettingsService) CompleteOnboarding(ctx context.Context) bracket.Settings {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.settings.HasCompletedOnboarding = true
	s.persist(ctx)
	return s.settings
}

func (s *SettingsService) persist(ctx context.Context) {
	if err := s.store.SaveSettings(ctx, s.settings); err != nil {
		metrics.SnapshotFailures.WithLabelValues(store.SettingsKey).Inc()
		s.logger.Error("[STORE] persist error", "key", store.SettingsKey, "error", err)
		return
	}
	metrics.SnapshotWrites.WithLabelValues(store.SettingsKey).Inc()
}
