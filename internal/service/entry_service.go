package service

import (
	"strings"

	"github.com/AdamBeresnev/bracket-keeper/internal/bracket"
	"github.com/AdamBeresnev/bracket-keeper/internal/utils"
	"github.com/google/uuid"
)

const maxParticipantNameLength = 50

type ParticipantInput struct {
	Name  string
	Level *bracket.Level
	Seed  *int
}

// ParseParticipantNames turns newline separated names into participant input,
// skipping blank lines. Seeds follow the line order starting after firstSeed.
func ParseParticipantNames(text string, firstSeed int) []ParticipantInput {
	var inputs []ParticipantInput

	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	for _, line := range lines {
		name := utils.StringOrNil(line)
		if name == nil {
			continue
		}
		seed := firstSeed + len(inputs) + 1
		inputs = append(inputs, ParticipantInput{Name: *name, Seed: &seed})
	}

	return inputs
}

func newParticipant(input ParticipantInput) (bracket.Participant, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return bracket.Participant{}, validationError("participant name is required")
	}
	if len(name) > maxParticipantNameLength {
		return bracket.Participant{}, validationError("participant name '%s' exceeds %d characters", name, maxParticipantNameLength)
	}
	if input.Level != nil && !input.Level.Valid() {
		return bracket.Participant{}, validationError("unknown participant level '%s'", *input.Level)
	}

	return bracket.Participant{
		ID:    uuid.New(),
		Name:  name,
		Level: input.Level,
		Seed:  input.Seed,
	}, nil
}
