// internal/httpserver/routes_challenge.go
//
// HTTP routes for ordinary quiz rounds.
// Exposes three endpoints under /challenge:
//   - POST /challenge/new   → generate a fresh challenge and reset the session's round
//   - POST /challenge/guess → submit a guess {guess} against the current round
//   - GET  /challenge/state → current round snapshot (description, slots, found answers)
//
// The answer set stays on the server; clients only see its size and the
// answers they have already found.

package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/geoquiz/internal/challenge"
	"github.com/robalobadob/geoquiz/internal/game"
	"github.com/robalobadob/geoquiz/internal/store"
)

// mountChallenge registers the ordinary round routes.
func (s *Server) mountChallenge(r chi.Router) {
	r.Post("/new", s.handleNewChallenge)
	r.Post("/guess", s.handleGuess)
	r.Get("/state", s.handleState)
}

// -----------------------------------------------------------------------------
// /challenge/new

// newChallengeRes is returned by /challenge/new and /challenge/daily.
type newChallengeRes struct {
	SessionID   string             `json:"sessionId"`
	Token       string             `json:"token,omitempty"` // only when a session was just issued
	Description string             `json:"description"`
	Filters     []challenge.Filter `json:"filters"`
	Total       int                `json:"total"`
	Remaining   int                `json:"remaining"`
	Daily       string             `json:"daily,omitempty"`
}

// handleNewChallenge generates a challenge from a fresh random source.
func (s *Server) handleNewChallenge(w http.ResponseWriter, r *http.Request) {
	ds, ok := s.dataset(w)
	if !ok {
		return
	}
	opts := append(s.cfg.GeneratorOptions(), challenge.WithRand(s.newRand()))
	s.startRound(w, r, challenge.New(ds, opts...), "")
}

// startRound runs gen and, on success, resets the caller's session to the new
// challenge. On exhaustion the session is left untouched.
func (s *Server) startRound(w http.ResponseWriter, r *http.Request, gen *challenge.Generator, dateKey string) {
	ch, err := gen.Generate()
	if err != nil {
		if errors.Is(err, challenge.ErrExhausted) {
			log.Warn().Err(err).Msg("challenge generation exhausted")
			http.Error(w, `{"error":"no_challenge"}`, http.StatusServiceUnavailable)
			return
		}
		log.Error().Err(err).Msg("challenge generation failed")
		http.Error(w, `{"error":"server_error"}`, http.StatusInternalServerError)
		return
	}

	sess, token, err := s.ensureSession(w, r)
	if err != nil {
		log.Error().Err(err).Msg("session create failed")
		http.Error(w, `{"error":"server_error"}`, http.StatusInternalServerError)
		return
	}
	err = s.store.Update(r.Context(), sess.ID, func(gs *game.Session) error {
		gs.Reset(ch)
		gs.Daily = dateKey
		return nil
	})
	if err != nil {
		log.Error().Err(err).Str("session", sess.ID).Msg("session update failed")
		http.Error(w, `{"error":"server_error"}`, http.StatusInternalServerError)
		return
	}

	log.Info().
		Str("session", sess.ID).
		Str("kind", string(ch.Kind)).
		Int("answers", len(ch.Answers)).
		Int("attempts", ch.Attempts).
		Str("daily", dateKey).
		Msg("challenge started")

	_ = json.NewEncoder(w).Encode(newChallengeRes{
		SessionID:   sess.ID,
		Token:       token,
		Description: ch.Description,
		Filters:     append([]challenge.Filter{}, ch.Filters...),
		Total:       len(ch.Answers),
		Remaining:   len(ch.Answers),
		Daily:       dateKey,
	})
}

// -----------------------------------------------------------------------------
// /challenge/guess

// guessReq is the request payload for /challenge/guess.
type guessReq struct {
	Guess string `json:"guess"`
}

// handleGuess applies a guess to the caller's round.
// Without a session or challenge the guess is simply incorrect.
func (s *Server) handleGuess(w http.ResponseWriter, r *http.Request) {
	var p guessReq
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		http.Error(w, `{"error":"bad_json"}`, http.StatusBadRequest)
		return
	}

	var res game.GuessResult
	if sid := sessionID(r); sid != "" {
		err := s.store.Update(r.Context(), sid, func(gs *game.Session) error {
			res = gs.SubmitGuess(p.Guess)
			return nil
		})
		if err != nil && !errors.Is(err, store.ErrNotFound) {
			log.Error().Err(err).Str("session", sid).Msg("guess failed")
			http.Error(w, `{"error":"server_error"}`, http.StatusInternalServerError)
			return
		}
		if res.Done && res.Correct {
			log.Info().Str("session", sid).Int("correct", res.CorrectCount).Msg("challenge complete")
		}
	}
	_ = json.NewEncoder(w).Encode(res)
}

// -----------------------------------------------------------------------------
// /challenge/state

// handleState returns the caller's round snapshot.
func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	sid := sessionID(r)
	if sid == "" {
		http.Error(w, `{"error":"no_session"}`, http.StatusNotFound)
		return
	}
	var snap game.Snapshot
	err := s.store.Update(r.Context(), sid, func(gs *game.Session) error {
		snap = gs.Snapshot()
		return nil
	})
	if errors.Is(err, store.ErrNotFound) {
		http.Error(w, `{"error":"no_session"}`, http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, `{"error":"server_error"}`, http.StatusInternalServerError)
		return
	}
	_ = json.NewEncoder(w).Encode(snap)
}
