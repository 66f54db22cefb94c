// internal/game/types.go
//
// Core type definitions for a quiz round.
// Defines:
//   - Mark: per-answer-slot display state (tick/cross).
//   - Session: state for one player's current round.
//   - GuessResult / Snapshot: read-only views handed to the presentation layer.

package game

import (
	"time"

	"github.com/robalobadob/geoquiz/internal/challenge"
)

// Mark is the display state of one answer slot.
//   - "tick":  a correct guess filled this slot.
//   - "cross": not yet found.
type Mark string

const (
	MarkTick  Mark = "tick"
	MarkCross Mark = "cross"
)

// Session holds the state of one player's quiz.
type Session struct {
	ID           string               // Unique session identifier.
	Challenge    *challenge.Challenge // Current challenge; nil before the first one.
	Remaining    []string             // Answers not yet guessed.
	Found        []string             // Answers guessed correctly, in guess order.
	CorrectCount int                  // Correct guesses this round.
	Guessed      bool                 // True once any guess was made this round.
	LastCorrect  bool                 // Outcome of the most recent guess.
	Daily        string               // Date key when the round is a daily challenge.
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// GuessResult is returned from SubmitGuess.
type GuessResult struct {
	Correct      bool `json:"correct"`
	Remaining    int  `json:"remaining"`
	CorrectCount int  `json:"correctCount"`
	Done         bool `json:"done"`
}

// Snapshot is a read-only view of a session for rendering.
type Snapshot struct {
	SessionID    string             `json:"sessionId"`
	Description  string             `json:"description,omitempty"`
	Filters      []challenge.Filter `json:"filters,omitempty"`
	Daily        string             `json:"daily,omitempty"`
	Total        int                `json:"total"`
	Remaining    int                `json:"remaining"`
	CorrectCount int                `json:"correctCount"`
	Found        []string           `json:"found"`
	Guessed      bool               `json:"guessed"`
	LastCorrect  bool               `json:"lastCorrect"`
	Done         bool               `json:"done"`
	Slots        []Mark             `json:"slots"`
}
