package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/AdamBeresnev/bracket-keeper/internal/bracket"
)

// TournamentStore reads and writes whole snapshots through a KV backend.
type TournamentStore struct {
	kv KV
}

func NewTournamentStore(kv KV) *TournamentStore {
	return &TournamentStore{kv: kv}
}

// Older clients wrote the literal "null" when the list was empty
func isEmptyBlob(blob string) bool {
	blob = strings.TrimSpace(blob)
	return blob == "" || blob == "null" || blob == `"null"`
}

func (s *TournamentStore) LoadTournaments(ctx context.Context) ([]bracket.Tournament, error) {
	blob, ok, err := s.kv.Get(ctx, TournamentsKey)
	if err != nil {
		return nil, err
	}
	if !ok || isEmptyBlob(blob) {
		return []bracket.Tournament{}, nil
	}

	var tournaments []bracket.Tournament
	if err := json.Unmarshal([]byte(blob), &tournaments); err != nil {
		return nil, fmt.Errorf("decoding tournaments: %w", err)
	}

	for i := range tournaments {
		if tournaments[i].Participants == nil {
			tournaments[i].Participants = []bracket.Participant{}
		}
		if tournaments[i].Matches == nil {
			tournaments[i].Matches = []bracket.Match{}
		}
	}
	return tournaments, nil
}

func (s *TournamentStore) SaveTournaments(ctx context.Context, tournaments []bracket.Tournament) error {
	if tournaments == nil {
		tournaments = []bracket.Tournament{}
	}
	data, err := json.Marshal(tournaments)
	if err != nil {
		return fmt.Errorf("encoding tournaments: %w", err)
	}
	return s.kv.Set(ctx, TournamentsKey, string(data))
}

func (s *TournamentStore) LoadSettings(ctx context.Context) (bracket.Settings, error) {
	settings := bracket.DefaultSettings()

	blob, ok, err := s.kv.Get(ctx, SettingsKey)
	if err != nil {
		return settings, err
	}
	if !ok || isEmptyBlob(blob) {
		return settings, nil
	}

	// The onboarding flag used to be stored as a bare boolean
	if strings.TrimSpace(blob) == "true" {
		settings.HasCompletedOnboarding = true
		return settings, nil
	}

	if err := json.Unmarshal([]byte(blob), &settings); err != nil {
		return bracket.DefaultSettings(), fmt.Errorf("decoding settings: %w", err)
	}
	return settings, nil
}

func (s *TournamentStore) SaveSettings(ctx context.Context, settings bracket.Settings) error {
	data, err := json.Marshal(settings)
	if err != nil {
		return fmt.Errorf("encoding settings: %w", err)
	}
	return s.kv.Set(ctx, SettingsKey, string(data))
}
