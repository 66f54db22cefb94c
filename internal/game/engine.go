// internal/game/engine.go
//
// Round logic for a single quiz session.
// Responsibilities:
//   - Start a round from an accepted challenge (Reset).
//   - Apply guesses: exact, case-sensitive match against the remaining answers.
//   - Report completion once every answer has been found.
//
// Notes:
//   - Incorrect guesses never end or penalise a round.
//   - Guessing without a challenge, or after completion, is an incorrect
//     no-op; nothing here panics on an empty session.
package game

import (
	"time"

	"github.com/robalobadob/geoquiz/internal/challenge"
)

// timeNow is swapped in tests.
var timeNow = time.Now

// NewSession returns an empty session with the given ID.
func NewSession(id string) *Session {
	now := timeNow().UTC()
	return &Session{ID: id, CreatedAt: now, UpdatedAt: now}
}

// Reset starts a new round from ch. The challenge's answer slice is copied so
// guesses never mutate it.
func (s *Session) Reset(ch *challenge.Challenge) {
	s.Challenge = ch
	s.Remaining = append([]string(nil), ch.Answers...)
	s.Found = nil
	s.CorrectCount = 0
	s.Guessed = false
	s.LastCorrect = false
	s.Daily = ""
	s.UpdatedAt = timeNow().UTC()
}

// SubmitGuess checks input against the remaining answers.
// A match removes that one entry and increments the correct count.
func (s *Session) SubmitGuess(input string) GuessResult {
	s.UpdatedAt = timeNow().UTC()
	if s.Challenge == nil || len(s.Remaining) == 0 {
		s.LastCorrect = false
		return s.result(false)
	}
	s.Guessed = true

	for i, a := range s.Remaining {
		if a == input {
			s.Remaining = append(s.Remaining[:i:i], s.Remaining[i+1:]...)
			s.Found = append(s.Found, a)
			s.CorrectCount++
			s.LastCorrect = true
			return s.result(true)
		}
	}
	s.LastCorrect = false
	return s.result(false)
}

// Done reports whether the current round is complete.
func (s *Session) Done() bool {
	return s.Challenge != nil && len(s.Remaining) == 0
}

func (s *Session) result(correct bool) GuessResult {
	return GuessResult{
		Correct:      correct,
		Remaining:    len(s.Remaining),
		CorrectCount: s.CorrectCount,
		Done:         s.Done(),
	}
}

// Snapshot returns a copy of the session's display state.
// The first CorrectCount slots are ticks, the rest crosses.
func (s *Session) Snapshot() Snapshot {
	snap := Snapshot{
		SessionID:    s.ID,
		Daily:        s.Daily,
		Remaining:    len(s.Remaining),
		CorrectCount: s.CorrectCount,
		Found:        append([]string{}, s.Found...),
		Guessed:      s.Guessed,
		LastCorrect:  s.LastCorrect,
		Done:         s.Done(),
		Slots:        []Mark{},
	}
	if s.Challenge == nil {
		return snap
	}
	snap.Description = s.Challenge.Description
	snap.Filters = append([]challenge.Filter(nil), s.Challenge.Filters...)
	snap.Total = len(s.Challenge.Answers)
	snap.Slots = make([]Mark, snap.Total)
	for i := range snap.Slots {
		if i < s.CorrectCount {
			snap.Slots[i] = MarkTick
		} else {
			snap.Slots[i] = MarkCross
		}
	}
	return snap
}
