package bracket

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound        = errors.New("not found")
	ErrValidation      = errors.New("validation failed")
	ErrInvalidResult   = errors.New("invalid match result")
	ErrBracketLocked   = errors.New("participants are locked once the bracket is generated")
	ErrUnsupportedType = errors.New("tournament type is not supported")

	ErrInvalidBracketInput      = errors.New("invalid bracket input")
	ErrInsufficientParticipants = fmt.Errorf("%w: at least 2 participants are required", ErrInvalidBracketInput)
	ErrAlreadyGenerated         = errors.New("bracket already generated")

	ErrPersistenceFailure = errors.New("failed to persist snapshot")

	ErrTournamentNotFound  = fmt.Errorf("tournament %w", ErrNotFound)
	ErrMatchNotFound       = fmt.Errorf("match %w", ErrNotFound)
	ErrParticipantNotFound = fmt.Errorf("participant %w", ErrNotFound)
)
