// internal/httpserver/routes_daily.go
//
// HTTP route for the "Daily Challenge" mode.
//   - POST /challenge/daily → start today's challenge in the caller's session
//
// The generator is seeded from HMAC(daily key, YYYY-MM-DD), so every player
// with the same dataset and generator settings gets the same challenge for a
// UTC date. Guesses go through the ordinary /challenge/guess endpoint.

package httpserver

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/robalobadob/geoquiz/internal/challenge"
	"github.com/robalobadob/geoquiz/internal/daily"
)

// mountDaily registers the daily route.
func (s *Server) mountDaily(r chi.Router) {
	r.Post("/daily", s.handleDaily)
}

// handleDaily starts (or restarts) today's deterministic challenge.
func (s *Server) handleDaily(w http.ResponseWriter, r *http.Request) {
	ds, ok := s.dataset(w)
	if !ok {
		return
	}
	now := s.now()
	opts := append(s.cfg.GeneratorOptions(), challenge.WithSeed(daily.Seed(now, s.dailyKey)))
	s.startRound(w, r, challenge.New(ds, opts...), daily.DateKey(now))
}
