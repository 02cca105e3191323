package service

import (
	"fmt"
	"time"

	"github.com/AdamBeresnev/bracket-keeper/internal/bracket"
	"github.com/AdamBeresnev/bracket-keeper/internal/utils"
	"github.com/google/uuid"
)

// RecordResult returns a copy of the tournament with the match decided in
// favour of winnerID and the winner moved into the next round. The input is
// never modified.
func RecordResult(t bracket.Tournament, matchID, winnerID uuid.UUID, score *string) (bracket.Tournament, error) {
	next := t.Clone()

	match := next.FindMatch(matchID)
	if match == nil {
		return t, fmt.Errorf("%w: %s", bracket.ErrMatchNotFound, matchID)
	}

	// Byes are settled when the bracket is built, never by a result
	if !match.Ready() {
		return t, fmt.Errorf("%w: match %d/%d does not have two participants yet", bracket.ErrInvalidResult, match.Round, match.Position)
	}

	if !match.HasParticipant(winnerID) {
		return t, fmt.Errorf("%w: winner is not part of this match", bracket.ErrInvalidResult)
	}

	byID := indexMatches(next.Matches)

	// Corrections are fine until the next round match has started
	if parent, _ := parentOf(match, byID); parent != nil && parent.Status != bracket.MatchPending && match.Decided() {
		return t, fmt.Errorf("%w: next round match has already started", bracket.ErrInvalidResult)
	}

	match.Winner = utils.Ptr(winnerID)
	match.Score = score
	match.Status = bracket.MatchCompleted

	propagateWinner(match, byID)
	resolveByes(next.Matches)

	if next.IsComplete() {
		next.Status = bracket.TournamentCompleted
	}

	return next, nil
}

// AdvanceWinners rebuilds every next-round slot from the decided matches. It
// can run any number of times, the second run on the same state reports no
// change.
func AdvanceWinners(matches []bracket.Match) ([]bracket.Match, bool) {
	next := bracket.CloneMatches(matches)
	changed := false

	// Rounds are processed in order so a winner written below feeds the rest
	sortMatches(next)
	byID := indexMatches(next)

	for i := range next {
		if !next[i].Decided() {
			continue
		}
		if propagateWinner(&next[i], byID) {
			changed = true
		}
	}

	if resolveByes(next) {
		changed = true
	}

	return next, changed
}

// StartMatch flags a ready match as being played.
func StartMatch(t bracket.Tournament, matchID uuid.UUID) (bracket.Tournament, error) {
	next := t.Clone()

	match := next.FindMatch(matchID)
	if match == nil {
		return t, fmt.Errorf("%w: %s", bracket.ErrMatchNotFound, matchID)
	}
	if match.Decided() {
		return t, fmt.Errorf("%w: match is already decided", bracket.ErrInvalidResult)
	}
	if !match.Ready() {
		return t, fmt.Errorf("%w: match does not have two participants yet", bracket.ErrInvalidResult)
	}

	match.Status = bracket.MatchInProgress
	return next, nil
}

// ScheduleMatch stores the date and court of a match. Both are passed through
// untouched, a nil value clears the field.
func ScheduleMatch(t bracket.Tournament, matchID uuid.UUID, date *time.Time, court *string) (bracket.Tournament, error) {
	next := t.Clone()

	match := next.FindMatch(matchID)
	if match == nil {
		return t, fmt.Errorf("%w: %s", bracket.ErrMatchNotFound, matchID)
	}

	match.ScheduledDate = date
	match.Court = court
	return next, nil
}
