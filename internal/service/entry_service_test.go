package service

import (
	"strings"
	"testing"

	"github.com/AdamBeresnev/bracket-keeper/internal/bracket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseParticipantNames(t *testing.T) {
	testCases := []struct {
		name      string
		text      string
		firstSeed int
		expected  []string
	}{
		{name: "Empty", text: "", expected: nil},
		{name: "Blank lines only", text: "\n \r\n\t\n", expected: nil},
		{name: "Trims and skips blanks", text: " Ana \n\nBruno\r\nCarla", expected: []string{"Ana", "Bruno", "Carla"}},
		{name: "Seeds continue after existing roster", text: "Dani\nEva", firstSeed: 3, expected: []string{"Dani", "Eva"}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			inputs := ParseParticipantNames(tc.text, tc.firstSeed)
			require.Len(t, inputs, len(tc.expected))
			for i, input := range inputs {
				assert.Equal(t, tc.expected[i], input.Name)
				require.NotNil(t, input.Seed)
				assert.Equal(t, tc.firstSeed+i+1, *input.Seed)
			}
		})
	}
}

func TestNewParticipant(t *testing.T) {
	level := bracket.LevelBeginner

	p, err := newParticipant(ParticipantInput{Name: "  Ana  ", Level: &level})
	require.NoError(t, err)
	assert.Equal(t, "Ana", p.Name)
	assert.Equal(t, bracket.LevelBeginner, *p.Level)

	_, err = newParticipant(ParticipantInput{Name: strings.Repeat("x", maxParticipantNameLength+1)})
	assert.ErrorIs(t, err, bracket.ErrValidation)

	_, err = newParticipant(ParticipantInput{Name: ""})
	assert.ErrorIs(t, err, bracket.ErrValidation)
}

func TestGroupRounds(t *testing.T) {
	tournament := newTestTournament(t, 5, 0)

	// Reverse the list, grouping must not depend on input order
	reversed := make([]bracket.Match, len(tournament.Matches))
	for i, m := range tournament.Matches {
		reversed[len(reversed)-1-i] = m
	}

	rounds := GroupRounds(reversed)
	require.Len(t, rounds, 3)
	for i, round := range rounds {
		assert.Equal(t, i+1, round.Number)
		for j, m := range round.Matches {
			assert.Equal(t, j, m.Position)
		}
	}
	assert.Len(t, rounds[0].Matches, 4)
	assert.Len(t, rounds[2].Matches, 1)

	view := PrepareBracketView(tournament)
	assert.Len(t, view.Participants, 5)
	assert.Nil(t, view.Champion)
}
