package bracket

import (
	"time"

	"github.com/google/uuid"
)

type MatchStatus string

const (
	MatchPending    MatchStatus = "pending"
	MatchInProgress MatchStatus = "in_progress"
	MatchCompleted  MatchStatus = "completed"
	MatchWalkover   MatchStatus = "walkover"
)

// Slots are numbered 1 (participant1) and 2 (participant2).
const (
	SlotA = 1
	SlotB = 2
)

type Match struct {
	ID           uuid.UUID `json:"id"`
	TournamentID uuid.UUID `json:"tournamentId"`

	// Position in the bracket, round 1 is played first
	Round    int `json:"round"`
	Position int `json:"position"`

	Participant1 *uuid.UUID `json:"participant1,omitempty"`
	Participant2 *uuid.UUID `json:"participant2,omitempty"`
	Winner       *uuid.UUID `json:"winner,omitempty"`

	Score  *string     `json:"score,omitempty"`
	Status MatchStatus `json:"status"`

	ScheduledDate *time.Time `json:"scheduledDate,omitempty"`
	Court         *string    `json:"court,omitempty"`

	NextMatchID *uuid.UUID `json:"nextMatchId,omitempty"`
	NextSlot    *int       `json:"slotInNext,omitempty"`

	// A bye slot stays empty for good because the roster was short.
	// An empty slot without the flag is waiting on its feeder match.
	Bye1 bool `json:"bye1,omitempty"`
	Bye2 bool `json:"bye2,omitempty"`
}

func (m *Match) Slot(slot int) *uuid.UUID {
	if slot == SlotA {
		return m.Participant1
	}
	return m.Participant2
}

func (m *Match) SetSlot(slot int, id *uuid.UUID) {
	if slot == SlotA {
		m.Participant1 = id
	} else {
		m.Participant2 = id
	}
}

func (m *Match) MarkBye(slot int) {
	if slot == SlotA {
		m.Bye1 = true
	} else {
		m.Bye2 = true
	}
}

// Decided reports whether the match has reached a final state.
func (m *Match) Decided() bool {
	return m.Status == MatchCompleted || m.Status == MatchWalkover
}

func (m *Match) Ready() bool {
	return m.Participant1 != nil && m.Participant2 != nil
}

func (m *Match) HasParticipant(id uuid.UUID) bool {
	return (m.Participant1 != nil && *m.Participant1 == id) ||
		(m.Participant2 != nil && *m.Participant2 == id)
}

func (m Match) clone() Match {
	c := m
	c.Participant1 = cloneID(m.Participant1)
	c.Participant2 = cloneID(m.Participant2)
	c.Winner = cloneID(m.Winner)
	c.NextMatchID = cloneID(m.NextMatchID)
	if m.NextSlot != nil {
		s := *m.NextSlot
		c.NextSlot = &s
	}
	if m.Score != nil {
		s := *m.Score
		c.Score = &s
	}
	if m.Court != nil {
		s := *m.Court
		c.Court = &s
	}
	if m.ScheduledDate != nil {
		d := *m.ScheduledDate
		c.ScheduledDate = &d
	}
	return c
}

func cloneID(id *uuid.UUID) *uuid.UUID {
	if id == nil {
		return nil
	}
	c := *id
	return &c
}

func CloneMatches(matches []Match) []Match {
	out := make([]Match, len(matches))
	for i := range matches {
		out[i] = matches[i].clone()
	}
	return out
}
