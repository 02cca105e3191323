package service

import (
	"sort"

	"github.com/AdamBeresnev/bracket-keeper/internal/bracket"
	"github.com/google/uuid"
)

type Round struct {
	Number  int             `json:"round"`
	Matches []bracket.Match `json:"matches"`
}

type BracketView struct {
	TournamentID uuid.UUID                         `json:"tournamentId"`
	Status       bracket.TournamentStatus          `json:"status"`
	Rounds       []Round                           `json:"rounds"`
	Participants map[uuid.UUID]bracket.Participant `json:"participants"`
	Champion     *bracket.Participant              `json:"champion,omitempty"`
}

// GroupRounds splits a match list into rounds, each sorted by position.
func GroupRounds(matches []bracket.Match) []Round {
	byRound := make(map[int][]bracket.Match)
	var roundNums []int

	for _, m := range matches {
		if _, exists := byRound[m.Round]; !exists {
			roundNums = append(roundNums, m.Round)
		}
		byRound[m.Round] = append(byRound[m.Round], m)
	}

	sort.Ints(roundNums)

	rounds := make([]Round, 0, len(roundNums))
	for _, r := range roundNums {
		ms := byRound[r]
		sort.Slice(ms, func(i, j int) bool {
			return ms[i].Position < ms[j].Position
		})
		rounds = append(rounds, Round{Number: r, Matches: ms})
	}
	return rounds
}

func PrepareBracketView(t bracket.Tournament) BracketView {
	participants := make(map[uuid.UUID]bracket.Participant, len(t.Participants))
	for _, p := range t.Participants {
		participants[p.ID] = p
	}

	return BracketView{
		TournamentID: t.ID,
		Status:       t.Status,
		Rounds:       GroupRounds(t.Matches),
		Participants: participants,
		Champion:     t.Champion(),
	}
}
