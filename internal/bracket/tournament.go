package bracket

import (
	"time"

	"github.com/google/uuid"
)

type TournamentStatus string

const (
	TournamentSetup      TournamentStatus = "setup"
	TournamentSeeding    TournamentStatus = "seeding"
	TournamentInProgress TournamentStatus = "in_progress"
	TournamentCompleted  TournamentStatus = "completed"
)

func (s TournamentStatus) Valid() bool {
	switch s {
	case TournamentSetup, TournamentSeeding, TournamentInProgress, TournamentCompleted:
		return true
	}
	return false
}

type TournamentType string

const (
	SingleElimination TournamentType = "single_elimination"
	// Recognised so stored tournaments still load, brackets can't be built for it
	DoubleElimination TournamentType = "double_elimination"
)

type Tournament struct {
	ID           uuid.UUID        `json:"id"`
	Name         string           `json:"name"`
	Type         TournamentType   `json:"type"`
	Size         int              `json:"size"`
	Rules        *string          `json:"rules,omitempty"`
	Participants []Participant    `json:"participants"`
	Matches      []Match          `json:"matches"`
	Status       TournamentStatus `json:"status"`
	CreatedAt    time.Time        `json:"createdAt"`
	UpdatedAt    time.Time        `json:"updatedAt"`
}

// Clone returns a deep copy so commands can mutate without touching the original.
func (t Tournament) Clone() Tournament {
	c := t
	if t.Rules != nil {
		r := *t.Rules
		c.Rules = &r
	}
	c.Participants = make([]Participant, len(t.Participants))
	for i, p := range t.Participants {
		cp := p
		if p.Level != nil {
			l := *p.Level
			cp.Level = &l
		}
		if p.Seed != nil {
			s := *p.Seed
			cp.Seed = &s
		}
		c.Participants[i] = cp
	}
	c.Matches = CloneMatches(t.Matches)
	return c
}

func (t *Tournament) HasBracket() bool {
	return len(t.Matches) > 0
}

// RoundCount is the number of the final round, zero without a bracket.
func (t *Tournament) RoundCount() int {
	rounds := 0
	for _, m := range t.Matches {
		if m.Round > rounds {
			rounds = m.Round
		}
	}
	return rounds
}

func (t *Tournament) FinalMatch() *Match {
	rounds := t.RoundCount()
	if rounds == 0 {
		return nil
	}
	for i := range t.Matches {
		if t.Matches[i].Round == rounds {
			return &t.Matches[i]
		}
	}
	return nil
}

// IsComplete is derived: the tournament is over once the final has a winner.
func (t *Tournament) IsComplete() bool {
	final := t.FinalMatch()
	return final != nil && final.Winner != nil
}

func (t *Tournament) Champion() *Participant {
	final := t.FinalMatch()
	if final == nil || final.Winner == nil {
		return nil
	}
	return t.FindParticipant(*final.Winner)
}

func (t *Tournament) FindMatch(id uuid.UUID) *Match {
	for i := range t.Matches {
		if t.Matches[i].ID == id {
			return &t.Matches[i]
		}
	}
	return nil
}

func (t *Tournament) FindParticipant(id uuid.UUID) *Participant {
	for i := range t.Participants {
		if t.Participants[i].ID == id {
			return &t.Participants[i]
		}
	}
	return nil
}
