package service

import (
	"fmt"
	"testing"

	"github.com/AdamBeresnev/bracket-keeper/internal/bracket"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeParticipants(n int) []bracket.Participant {
	participants := make([]bracket.Participant, n)
	for i := range participants {
		participants[i] = bracket.Participant{ID: uuid.New(), Name: fmt.Sprintf("Player %d", i+1)}
	}
	return participants
}

func roundOf(matches []bracket.Match, round int) []bracket.Match {
	var out []bracket.Match
	for _, m := range matches {
		if m.Round == round {
			out = append(out, m)
		}
	}
	return out
}

func TestNextPowerOfTwo(t *testing.T) {
	testCases := []struct {
		count    int
		expected int
	}{
		{0, 0},
		{1, 1},
		{2, 2},
		{3, 4},
		{5, 8},
		{8, 8},
		{9, 16},
		{33, 64},
	}

	for _, tc := range testCases {
		t.Run(fmt.Sprintf("%d participants", tc.count), func(t *testing.T) {
			assert.Equal(t, tc.expected, NextPowerOfTwo(tc.count))
		})
	}
}

func TestBracketSize(t *testing.T) {
	testCases := []struct {
		name         string
		requested    int
		participants int
		expected     int
	}{
		{name: "Auto", requested: 0, participants: 5, expected: 8},
		{name: "Requested size fits", requested: 16, participants: 5, expected: 16},
		{name: "Requested size too small", requested: 4, participants: 5, expected: 8},
		{name: "Requested size not a power of two", requested: 6, participants: 3, expected: 4},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, BracketSize(tc.requested, tc.participants))
		})
	}
}

func TestBuildBracketShape(t *testing.T) {
	for n := 2; n <= 33; n++ {
		t.Run(fmt.Sprintf("%d participants", n), func(t *testing.T) {
			tournamentID := uuid.New()
			size := NextPowerOfTwo(n)

			matches, err := BuildBracket(tournamentID, makeParticipants(n), 0)
			require.NoError(t, err)
			require.Len(t, matches, size-1, "Bracket should hold size-1 matches")

			rounds := 0
			for s := size; s > 1; s /= 2 {
				rounds++
			}

			seen := make(map[[2]int]bool)
			for r := 1; r <= rounds; r++ {
				assert.Len(t, roundOf(matches, r), size>>r, "Unexpected match count in round %d", r)
			}
			assert.Len(t, roundOf(matches, rounds), 1, "Final round should have exactly one match")

			byID := make(map[uuid.UUID]bracket.Match)
			for _, m := range matches {
				byID[m.ID] = m
			}

			for i, m := range matches {
				assert.Equal(t, tournamentID, m.TournamentID)
				key := [2]int{m.Round, m.Position}
				assert.False(t, seen[key], "Duplicate round/position %v", key)
				seen[key] = true

				if i > 0 {
					prev := matches[i-1]
					assert.True(t, prev.Round < m.Round || (prev.Round == m.Round && prev.Position < m.Position), "Matches should be sorted")
				}

				if m.Round == rounds {
					assert.Nil(t, m.NextMatchID, "Final should not link anywhere")
					continue
				}
				require.NotNil(t, m.NextMatchID)
				parent, ok := byID[*m.NextMatchID]
				require.True(t, ok, "Forward link should point into the bracket")
				assert.Equal(t, m.Round+1, parent.Round)
				assert.Equal(t, m.Position/2, parent.Position)
				assert.Equal(t, bracket.SlotA+m.Position%2, *m.NextSlot)
			}

			// No pending match may be left facing a bye
			for _, m := range matches {
				if m.Status != bracket.MatchPending {
					continue
				}
				assert.False(t, m.Bye1 && m.Bye2, "Match %d/%d has two byes and is still pending", m.Round, m.Position)
				assert.False(t, m.Bye2 && m.Participant1 != nil, "Match %d/%d should be a walkover", m.Round, m.Position)
				assert.False(t, m.Bye1 && m.Participant2 != nil, "Match %d/%d should be a walkover", m.Round, m.Position)
			}
		})
	}
}

func TestBuildBracketKeepsInsertionOrder(t *testing.T) {
	participants := makeParticipants(4)

	matches, err := BuildBracket(uuid.New(), participants, 0)
	require.NoError(t, err)

	round1 := roundOf(matches, 1)
	require.Len(t, round1, 2)
	assert.Equal(t, participants[0].ID, *round1[0].Participant1)
	assert.Equal(t, participants[1].ID, *round1[0].Participant2)
	assert.Equal(t, participants[2].ID, *round1[1].Participant1)
	assert.Equal(t, participants[3].ID, *round1[1].Participant2)

	for _, m := range matches {
		assert.Equal(t, bracket.MatchPending, m.Status, "A full bracket has no walkovers")
		assert.Nil(t, m.Winner)
		assert.False(t, m.Bye1 || m.Bye2)
	}

	final := roundOf(matches, 2)[0]
	assert.Nil(t, final.Participant1)
	assert.Nil(t, final.Participant2)
}

func TestBuildBracketThreeParticipants(t *testing.T) {
	participants := makeParticipants(3)

	matches, err := BuildBracket(uuid.New(), participants, 0)
	require.NoError(t, err)
	require.Len(t, matches, 3)

	round1 := roundOf(matches, 1)
	require.Len(t, round1, 2)

	played, bye := round1[0], round1[1]
	assert.Equal(t, bracket.MatchPending, played.Status)
	assert.True(t, played.Ready())

	assert.Equal(t, bracket.MatchWalkover, bye.Status)
	require.NotNil(t, bye.Winner)
	assert.Equal(t, participants[2].ID, *bye.Winner)

	final := roundOf(matches, 2)[0]
	assert.Equal(t, bracket.MatchPending, final.Status)
	require.NotNil(t, final.Participant2, "Bye winner should already sit in the final")
	assert.Equal(t, participants[2].ID, *final.Participant2)
	assert.Nil(t, final.Participant1, "Other final slot waits for the real match")
	assert.False(t, final.Bye1, "A waiting slot is not a bye")
}

func TestBuildBracketTwoParticipantsInEight(t *testing.T) {
	participants := makeParticipants(2)

	matches, err := BuildBracket(uuid.New(), participants, 8)
	require.NoError(t, err)
	require.Len(t, matches, 7)

	round1 := roundOf(matches, 1)
	assert.Equal(t, bracket.MatchPending, round1[0].Status)
	assert.True(t, round1[0].Ready())
	for _, m := range round1[1:] {
		assert.Equal(t, bracket.MatchWalkover, m.Status)
		assert.Nil(t, m.Winner, "Empty walkovers have no winner")
	}

	round2 := roundOf(matches, 2)
	assert.Equal(t, bracket.MatchPending, round2[0].Status)
	assert.True(t, round2[0].Bye2)
	assert.Nil(t, round2[0].Participant1)
	assert.Equal(t, bracket.MatchWalkover, round2[1].Status)

	final := roundOf(matches, 3)[0]
	assert.Equal(t, bracket.MatchPending, final.Status)
	assert.True(t, final.Bye2, "Bottom half of the bracket is empty")
	assert.Nil(t, final.Participant1)
}

func TestBuildBracketFiveParticipants(t *testing.T) {
	participants := makeParticipants(5)

	matches, err := BuildBracket(uuid.New(), participants, 0)
	require.NoError(t, err)
	require.Len(t, matches, 7)

	round1 := roundOf(matches, 1)
	assert.Equal(t, bracket.MatchPending, round1[0].Status)
	assert.Equal(t, bracket.MatchPending, round1[1].Status)
	assert.Equal(t, bracket.MatchWalkover, round1[2].Status)
	assert.Equal(t, participants[4].ID, *round1[2].Winner)
	assert.Equal(t, bracket.MatchWalkover, round1[3].Status)

	round2 := roundOf(matches, 2)
	assert.Equal(t, bracket.MatchWalkover, round2[1].Status, "Lone bye winner walks through round 2")
	assert.Equal(t, participants[4].ID, *round2[1].Winner)

	final := roundOf(matches, 3)[0]
	require.NotNil(t, final.Participant2)
	assert.Equal(t, participants[4].ID, *final.Participant2)
	assert.Nil(t, final.Participant1)
	assert.Equal(t, bracket.MatchPending, final.Status)
}

func TestBuildBracketInvalidInput(t *testing.T) {
	testCases := []struct {
		name         string
		participants int
		size         int
		expected     error
	}{
		{name: "No participants", participants: 0, size: 0, expected: bracket.ErrInsufficientParticipants},
		{name: "One participant", participants: 1, size: 0, expected: bracket.ErrInsufficientParticipants},
		{name: "Size not a power of two", participants: 3, size: 6, expected: bracket.ErrInvalidBracketInput},
		{name: "Size smaller than roster", participants: 5, size: 4, expected: bracket.ErrInvalidBracketInput},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			matches, err := BuildBracket(uuid.New(), makeParticipants(tc.participants), tc.size)
			assert.Nil(t, matches)
			assert.ErrorIs(t, err, tc.expected)
			assert.ErrorIs(t, err, bracket.ErrInvalidBracketInput)
		})
	}
}
