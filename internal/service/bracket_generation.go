package service

import (
	"fmt"
	"math"
	"sort"

	"github.com/AdamBeresnev/bracket-keeper/internal/bracket"
	"github.com/AdamBeresnev/bracket-keeper/internal/utils"
	"github.com/google/uuid"
)

// Gets the nearest power of 2 while rounding up, so with input 5 it returns 8 and so on
func NextPowerOfTwo(count int) int {
	if count <= 0 {
		return 0
	}

	// Log2 -> Ceil -> 2^^log2 to round up
	log2 := math.Ceil(math.Log2(float64(count)))
	return int(math.Pow(2, log2))
}

func isPowerOfTwo(n int) bool {
	return n > 0 && n&(n-1) == 0
}

// BracketSize keeps the requested size when it can hold every participant,
// otherwise it rounds the participant count up.
func BracketSize(requested, participants int) int {
	if requested >= 2 && isPowerOfTwo(requested) && requested >= participants {
		return requested
	}
	return NextPowerOfTwo(participants)
}

// BuildBracket lays out a single elimination tree for the participants in the
// order given. A size of 0 picks the smallest bracket that fits. Byes are
// resolved before returning, matches come back sorted by round and position.
func BuildBracket(tournamentID uuid.UUID, participants []bracket.Participant, size int) ([]bracket.Match, error) {
	n := len(participants)
	if n < 2 {
		return nil, bracket.ErrInsufficientParticipants
	}

	if size == 0 {
		size = NextPowerOfTwo(n)
	}
	if !isPowerOfTwo(size) {
		return nil, fmt.Errorf("%w: bracket size %d is not a power of two", bracket.ErrInvalidBracketInput, size)
	}
	if size < n {
		return nil, fmt.Errorf("%w: bracket size %d cannot hold %d participants", bracket.ErrInvalidBracketInput, size, n)
	}

	totalRounds := int(math.Log2(float64(size)))
	matches := make([]bracket.Match, 0, size-1)

	nextRoundMatchIDs := make(map[int]uuid.UUID)

	// Significantly easier to start from the last round and work backwards
	for r := totalRounds; r >= 1; r-- {
		matchesInCurrentRound := size >> r
		currentRoundMatchIDs := make(map[int]uuid.UUID, matchesInCurrentRound)

		for i := 0; i < matchesInCurrentRound; i++ {
			m := bracket.Match{
				ID:           uuid.New(),
				TournamentID: tournamentID,
				Round:        r,
				Position:     i,
				Status:       bracket.MatchPending,
			}

			if r < totalRounds {
				parentID := nextRoundMatchIDs[i/2]
				m.NextMatchID = &parentID

				if i%2 == 0 {
					m.NextSlot = utils.Ptr(bracket.SlotA)
				} else {
					m.NextSlot = utils.Ptr(bracket.SlotB)
				}
			}

			matches = append(matches, m)
			currentRoundMatchIDs[i] = m.ID
		}
		nextRoundMatchIDs = currentRoundMatchIDs
	}

	sortMatches(matches)

	// Round 1 comes first after sorting, slot k of the draw is match k/2
	for k := 0; k < size; k++ {
		m := &matches[k/2]
		slot := bracket.SlotA + k%2
		if k < n {
			id := participants[k].ID
			m.SetSlot(slot, &id)
		} else {
			m.MarkBye(slot)
		}
	}

	resolveByes(matches)

	return matches, nil
}

func sortMatches(matches []bracket.Match) {
	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Round != matches[j].Round {
			return matches[i].Round < matches[j].Round
		}
		return matches[i].Position < matches[j].Position
	})
}

func indexMatches(matches []bracket.Match) map[uuid.UUID]*bracket.Match {
	byID := make(map[uuid.UUID]*bracket.Match, len(matches))
	for i := range matches {
		byID[matches[i].ID] = &matches[i]
	}
	return byID
}

// resolveByes walks the bracket until no walkover is left to settle. Only
// slots flagged as byes count as missing opponents, a slot that is merely
// waiting on its feeder match is left alone.
func resolveByes(matches []bracket.Match) bool {
	byID := indexMatches(matches)
	changed := false

	for {
		progressed := false

		for i := range matches {
			m := &matches[i]
			if m.Decided() {
				continue
			}

			switch {
			case m.Bye1 && m.Bye2:
				// Nobody will ever play here, the parent inherits the bye
				m.Status = bracket.MatchWalkover
				if parent, slot := parentOf(m, byID); parent != nil {
					parent.MarkBye(slot)
				}
			case m.Bye2 && m.Participant1 != nil:
				walkover(m, m.Participant1, byID)
			case m.Bye1 && m.Participant2 != nil:
				walkover(m, m.Participant2, byID)
			default:
				continue
			}
			progressed = true
		}

		if !progressed {
			return changed
		}
		changed = true
	}
}

func walkover(m *bracket.Match, winner *uuid.UUID, byID map[uuid.UUID]*bracket.Match) {
	id := *winner
	m.Status = bracket.MatchWalkover
	m.Winner = &id
	propagateWinner(m, byID)
}

func parentOf(m *bracket.Match, byID map[uuid.UUID]*bracket.Match) (*bracket.Match, int) {
	if m.NextMatchID == nil || m.NextSlot == nil {
		return nil, 0
	}
	parent, ok := byID[*m.NextMatchID]
	if !ok {
		return nil, 0
	}
	return parent, *m.NextSlot
}

// propagateWinner writes the match winner into the linked parent slot and
// reports whether the parent changed.
func propagateWinner(m *bracket.Match, byID map[uuid.UUID]*bracket.Match) bool {
	if m.Winner == nil {
		return false
	}
	parent, slot := parentOf(m, byID)
	if parent == nil {
		return false
	}
	current := parent.Slot(slot)
	if current != nil && *current == *m.Winner {
		return false
	}
	id := *m.Winner
	parent.SetSlot(slot, &id)
	return true
}
