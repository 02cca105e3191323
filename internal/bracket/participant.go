package bracket

import "github.com/google/uuid"

type Level string

const (
	LevelBeginner     Level = "beginner"
	LevelIntermediate Level = "intermediate"
	LevelAdvanced     Level = "advanced"
)

func (l Level) Valid() bool {
	switch l {
	case LevelBeginner, LevelIntermediate, LevelAdvanced:
		return true
	}
	return false
}

type Participant struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Level *Level    `json:"level,omitempty"`
	Seed  *int      `json:"seed,omitempty"`
}
