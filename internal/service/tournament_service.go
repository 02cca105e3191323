package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/AdamBeresnev/bracket-keeper/internal/bracket"
	"github.com/AdamBeresnev/bracket-keeper/internal/metrics"
	"github.com/AdamBeresnev/bracket-keeper/internal/store"
	"github.com/AdamBeresnev/bracket-keeper/internal/utils"
	"github.com/google/uuid"
)

const maxTournamentNameLength = 100

// Event types published after a successful command.
const (
	EventTournamentCreated = "tournament.created"
	EventTournamentUpdated = "tournament.updated"
	EventTournamentDeleted = "tournament.deleted"
	EventBracketGenerated  = "bracket.generated"
	EventMatchUpdated      = "match.updated"
)

// Notifier receives a copy of every tournament that changed.
type Notifier interface {
	Publish(room string, eventType string, payload any)
}

type noopNotifier struct{}

func (noopNotifier) Publish(string, string, any) {}

type Option func(*TournamentService)

func WithLogger(logger *slog.Logger) Option {
	return func(s *TournamentService) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *TournamentService) {
		if now != nil {
			s.now = now
		}
	}
}

func WithNotifier(n Notifier) Option {
	return func(s *TournamentService) {
		if n != nil {
			s.notifier = n
		}
	}
}

// TournamentService owns the tournament list. Commands run one at a time,
// each one builds a replacement tournament, swaps it in and then writes the
// whole list back to the store.
type TournamentService struct {
	mu          sync.Mutex
	store       *store.TournamentStore
	tournaments []bracket.Tournament
	dirty       bool

	logger   *slog.Logger
	now      func() time.Time
	notifier Notifier
}

func NewTournamentService(kv store.KV, opts ...Option) *TournamentService {
	s := &TournamentService{
		store:       store.NewTournamentStore(kv),
		tournaments: []bracket.Tournament{},
		logger:      slog.Default(),
		now:         time.Now,
		notifier:    noopNotifier{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type CreateTournamentInput struct {
	Name  string
	Type  bracket.TournamentType
	Size  int
	Rules *string
}

// TournamentPatch only touches the fields that are set.
type TournamentPatch struct {
	Name   *string
	Rules  *string
	Size   *int
	Status *bracket.TournamentStatus
}

type ParticipantPatch struct {
	Name  *string
	Level *bracket.Level
	Seed  *int
}

func validationError(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{bracket.ErrValidation}, args...)...)
}

func (s *TournamentService) Load(ctx context.Context) error {
	tournaments, err := s.store.LoadTournaments(ctx)
	if err != nil {
		s.logger.Error("[STORE] load failed", "key", store.TournamentsKey, "error", err)
		return fmt.Errorf("loading tournaments: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.tournaments = tournaments
	s.dirty = false

	s.logger.Info("[STORE] load ok", "key", store.TournamentsKey, "tournaments", len(tournaments))
	return nil
}

func (s *TournamentService) List() []bracket.Tournament {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]bracket.Tournament, len(s.tournaments))
	for i := range s.tournaments {
		out[i] = s.tournaments[i].Clone()
	}
	return out
}

func (s *TournamentService) Get(id uuid.UUID) (bracket.Tournament, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return bracket.Tournament{}, fmt.Errorf("%w: %s", bracket.ErrTournamentNotFound, id)
	}
	return s.tournaments[i].Clone(), nil
}

// Dirty reports whether the last snapshot write failed.
func (s *TournamentService) Dirty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dirty
}

// Flush rewrites the snapshot when the previous write did not go through.
func (s *TournamentService) Flush(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.dirty {
		return nil
	}
	return s.persist(ctx)
}

func (s *TournamentService) CreateTournament(ctx context.Context, input CreateTournamentInput) (bracket.Tournament, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return bracket.Tournament{}, validationError("tournament name is required")
	}
	if len(name) > maxTournamentNameLength {
		return bracket.Tournament{}, validationError("tournament name exceeds %d characters", maxTournamentNameLength)
	}

	tournamentType := input.Type
	if tournamentType == "" {
		tournamentType = bracket.SingleElimination
	}
	if err := checkType(tournamentType); err != nil {
		return bracket.Tournament{}, err
	}
	if err := checkSize(input.Size); err != nil {
		return bracket.Tournament{}, err
	}

	now := s.now().UTC()
	t := bracket.Tournament{
		ID:           uuid.New(),
		Name:         name,
		Type:         tournamentType,
		Size:         input.Size,
		Rules:        utils.TrimmedOrNil(input.Rules),
		Participants: []bracket.Participant{},
		Matches:      []bracket.Match{},
		Status:       bracket.TournamentSetup,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	next := make([]bracket.Tournament, 0, len(s.tournaments)+1)
	next = append(next, s.tournaments...)
	s.tournaments = append(next, t)
	s.persist(ctx)

	s.notifier.Publish(t.ID.String(), EventTournamentCreated, t.Clone())
	return t.Clone(), nil
}

func (s *TournamentService) UpdateTournament(ctx context.Context, id uuid.UUID, patch TournamentPatch) (bracket.Tournament, error) {
	return s.update(ctx, id, EventTournamentUpdated, func(t bracket.Tournament) (bracket.Tournament, error) {
		if patch.Name != nil {
			name := strings.TrimSpace(*patch.Name)
			if name == "" {
				return t, validationError("tournament name is required")
			}
			if len(name) > maxTournamentNameLength {
				return t, validationError("tournament name exceeds %d characters", maxTournamentNameLength)
			}
			t.Name = name
		}
		if patch.Rules != nil {
			t.Rules = utils.TrimmedOrNil(patch.Rules)
		}
		// A new size takes effect the next time the bracket is generated
		if patch.Size != nil {
			if err := checkSize(*patch.Size); err != nil {
				return t, err
			}
			t.Size = *patch.Size
		}
		if patch.Status != nil {
			if err := checkStatus(t, *patch.Status); err != nil {
				return t, err
			}
			t.Status = *patch.Status
		}
		return t, nil
	})
}

func (s *TournamentService) DeleteTournament(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return fmt.Errorf("%w: %s", bracket.ErrTournamentNotFound, id)
	}

	next := make([]bracket.Tournament, 0, len(s.tournaments)-1)
	next = append(next, s.tournaments[:i]...)
	next = append(next, s.tournaments[i+1:]...)
	s.tournaments = next
	s.persist(ctx)

	s.notifier.Publish(id.String(), EventTournamentDeleted, map[string]string{"id": id.String()})
	return nil
}

// ClearAll drops every tournament.
func (s *TournamentService) ClearAll(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, t := range s.tournaments {
		s.notifier.Publish(t.ID.String(), EventTournamentDeleted, map[string]string{"id": t.ID.String()})
	}
	s.tournaments = []bracket.Tournament{}
	s.persist(ctx)
}

func (s *TournamentService) AddParticipant(ctx context.Context, id uuid.UUID, input ParticipantInput) (bracket.Tournament, error) {
	return s.update(ctx, id, EventTournamentUpdated, func(t bracket.Tournament) (bracket.Tournament, error) {
		p, err := newParticipant(input)
		if err != nil {
			return t, err
		}
		t.Participants = append(t.Participants, p)
		return t, nil
	})
}

// AddParticipants adds one participant per non blank line of text.
func (s *TournamentService) AddParticipants(ctx context.Context, id uuid.UUID, text string) (bracket.Tournament, error) {
	return s.update(ctx, id, EventTournamentUpdated, func(t bracket.Tournament) (bracket.Tournament, error) {
		inputs := ParseParticipantNames(text, len(t.Participants))
		if len(inputs) == 0 {
			return t, validationError("no participant names given")
		}
		for _, input := range inputs {
			p, err := newParticipant(input)
			if err != nil {
				return t, err
			}
			t.Participants = append(t.Participants, p)
		}
		return t, nil
	})
}

func (s *TournamentService) UpdateParticipant(ctx context.Context, id, participantID uuid.UUID, patch ParticipantPatch) (bracket.Tournament, error) {
	return s.update(ctx, id, EventTournamentUpdated, func(t bracket.Tournament) (bracket.Tournament, error) {
		p := t.FindParticipant(participantID)
		if p == nil {
			return t, fmt.Errorf("%w: %s", bracket.ErrParticipantNotFound, participantID)
		}

		input := ParticipantInput{Name: p.Name, Level: p.Level, Seed: p.Seed}
		if patch.Name != nil {
			input.Name = *patch.Name
		}
		if patch.Level != nil {
			input.Level = patch.Level
		}
		if patch.Seed != nil {
			input.Seed = patch.Seed
		}

		updated, err := newParticipant(input)
		if err != nil {
			return t, err
		}
		updated.ID = p.ID
		*p = updated
		return t, nil
	})
}

// RemoveParticipant is only allowed before the bracket exists, matches would
// otherwise point at a participant that is gone.
func (s *TournamentService) RemoveParticipant(ctx context.Context, id, participantID uuid.UUID) (bracket.Tournament, error) {
	return s.update(ctx, id, EventTournamentUpdated, func(t bracket.Tournament) (bracket.Tournament, error) {
		if t.FindParticipant(participantID) == nil {
			return t, fmt.Errorf("%w: %s", bracket.ErrParticipantNotFound, participantID)
		}
		if t.HasBracket() {
			return t, bracket.ErrBracketLocked
		}

		kept := make([]bracket.Participant, 0, len(t.Participants)-1)
		for _, p := range t.Participants {
			if p.ID != participantID {
				kept = append(kept, p)
			}
		}
		t.Participants = kept
		return t, nil
	})
}

func (s *TournamentService) GenerateBracket(ctx context.Context, id uuid.UUID, forceReset bool) (bracket.Tournament, error) {
	t, err := s.update(ctx, id, EventBracketGenerated, func(t bracket.Tournament) (bracket.Tournament, error) {
		if err := checkType(t.Type); err != nil {
			return t, err
		}
		if t.HasBracket() && !forceReset {
			return t, bracket.ErrAlreadyGenerated
		}
		if len(t.Participants) < 2 {
			return t, bracket.ErrInsufficientParticipants
		}

		matches, err := BuildBracket(t.ID, t.Participants, BracketSize(t.Size, len(t.Participants)))
		if err != nil {
			return t, err
		}

		t.Matches = matches
		t.Status = bracket.TournamentInProgress
		if t.IsComplete() {
			t.Status = bracket.TournamentCompleted
		}
		return t, nil
	})
	if err == nil {
		metrics.BracketsGenerated.Inc()
	}
	return t, err
}

func (s *TournamentService) RecordResult(ctx context.Context, id, matchID, winnerID uuid.UUID, score *string) (bracket.Tournament, error) {
	t, err := s.update(ctx, id, EventMatchUpdated, func(t bracket.Tournament) (bracket.Tournament, error) {
		return RecordResult(t, matchID, winnerID, utils.TrimmedOrNil(score))
	})
	if err == nil {
		metrics.ResultsRecorded.Inc()
	}
	return t, err
}

// AdvanceWinners replays every decided match into the next round. Nothing is
// written when the bracket was already consistent.
func (s *TournamentService) AdvanceWinners(ctx context.Context, id uuid.UUID) (bracket.Tournament, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return bracket.Tournament{}, false, fmt.Errorf("%w: %s", bracket.ErrTournamentNotFound, id)
	}

	t := s.tournaments[i].Clone()
	matches, changed := AdvanceWinners(t.Matches)
	if !changed {
		return t, false, nil
	}

	t.Matches = matches
	if t.IsComplete() {
		t.Status = bracket.TournamentCompleted
	}
	t.UpdatedAt = s.now().UTC()
	s.replace(ctx, i, t, EventMatchUpdated)
	return t.Clone(), true, nil
}

func (s *TournamentService) StartMatch(ctx context.Context, id, matchID uuid.UUID) (bracket.Tournament, error) {
	return s.update(ctx, id, EventMatchUpdated, func(t bracket.Tournament) (bracket.Tournament, error) {
		return StartMatch(t, matchID)
	})
}

func (s *TournamentService) ScheduleMatch(ctx context.Context, id, matchID uuid.UUID, date *time.Time, court *string) (bracket.Tournament, error) {
	return s.update(ctx, id, EventMatchUpdated, func(t bracket.Tournament) (bracket.Tournament, error) {
		return ScheduleMatch(t, matchID, date, utils.TrimmedOrNil(court))
	})
}

// update runs fn on a copy of the tournament and swaps the result in only
// when fn succeeds.
func (s *TournamentService) update(ctx context.Context, id uuid.UUID, event string, fn func(bracket.Tournament) (bracket.Tournament, error)) (bracket.Tournament, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return bracket.Tournament{}, fmt.Errorf("%w: %s", bracket.ErrTournamentNotFound, id)
	}

	next, err := fn(s.tournaments[i].Clone())
	if err != nil {
		return bracket.Tournament{}, err
	}
	next.UpdatedAt = s.now().UTC()

	s.replace(ctx, i, next, event)
	return next.Clone(), nil
}

// replace must be called with the lock held.
func (s *TournamentService) replace(ctx context.Context, i int, t bracket.Tournament, event string) {
	next := make([]bracket.Tournament, len(s.tournaments))
	copy(next, s.tournaments)
	next[i] = t
	s.tournaments = next

	s.persist(ctx)
	s.notifier.Publish(t.ID.String(), event, t.Clone())
}

// persist writes the full list. A failed write keeps the in-memory state and
// leaves the store dirty so the next mutation or Flush tries again. Must be
// called with the lock held.
func (s *TournamentService) persist(ctx context.Context) error {
	if err := s.store.SaveTournaments(ctx, s.tournaments); err != nil {
		s.dirty = true
		metrics.SnapshotFailures.WithLabelValues(store.TournamentsKey).Inc()
		s.logger.Error("[STORE] persist error", "key", store.TournamentsKey, "error", err)
		return fmt.Errorf("%w: %w", bracket.ErrPersistenceFailure, err)
	}

	s.dirty = false
	metrics.SnapshotWrites.WithLabelValues(store.TournamentsKey).Inc()
	s.logger.Debug("[STORE] persist ok", "key", store.TournamentsKey, "tournaments", len(s.tournaments))
	return nil
}

func (s *TournamentService) indexOf(id uuid.UUID) int {
	for i := range s.tournaments {
		if s.tournaments[i].ID == id {
			return i
		}
	}
	return -1
}

func checkType(t bracket.TournamentType) error {
	switch t {
	case bracket.SingleElimination:
		return nil
	case bracket.DoubleElimination:
		return fmt.Errorf("%w: %s", bracket.ErrUnsupportedType, t)
	default:
		return validationError("unknown tournament type '%s'", t)
	}
}

// checkStatus keeps a patched status in line with the bracket. Setup and
// seeding belong before generation, completed needs a final winner.
func checkStatus(t bracket.Tournament, status bracket.TournamentStatus) error {
	if !status.Valid() {
		return validationError("unknown tournament status '%s'", status)
	}

	switch status {
	case bracket.TournamentSetup, bracket.TournamentSeeding:
		if t.HasBracket() {
			return validationError("status '%s' is not allowed once the bracket is generated", status)
		}
	case bracket.TournamentInProgress:
		if !t.HasBracket() {
			return validationError("status '%s' needs a generated bracket", status)
		}
		if t.IsComplete() {
			return validationError("the final already has a winner")
		}
	case bracket.TournamentCompleted:
		if !t.IsComplete() {
			return validationError("status '%s' needs a winner in the final", status)
		}
	}
	return nil
}

// Size 0 means the bracket is sized from the participant count
func checkSize(size int) error {
	if size == 0 {
		return nil
	}
	if size < 2 || !isPowerOfTwo(size) {
		return validationError("bracket size %d is not a power of two", size)
	}
	return nil
}
