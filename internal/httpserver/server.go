// internal/httpserver/server.go
//
// HTTP server wiring for the geoquiz backend.
// Responsibilities:
//   - Router + middleware (JSON, CORS, timeouts, panic recovery, request IDs, access log).
//   - Public endpoints: "/", "/health", "/debug/dataset".
//   - Challenge endpoints: mounted under /challenge (see routes_challenge.go, routes_daily.go).
//   - Session cookie handling: an HS256 JWT carrying the session id.
//
// Notes:
//   - CORS is origin-aware and credentials-enabled (so cookies work).
//   - The session middleware never rejects a request; handlers decide what a
//     missing session means.
//   - Challenge endpoints answer 503 until the country dataset has loaded.

package httpserver

import (
	"context"
	crand "crypto/rand"
	"encoding/binary"
	"encoding/json"
	"errors"
	"math/rand"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/geoquiz/internal/challenge"
	"github.com/robalobadob/geoquiz/internal/config"
	"github.com/robalobadob/geoquiz/internal/countries"
	"github.com/robalobadob/geoquiz/internal/game"
	"github.com/robalobadob/geoquiz/internal/store"
)

const sessionCookieName = "geoquiz_session"

// Server bundles router, session store, dataset gate, and config.
type Server struct {
	r          *chi.Mux
	cfg        config.Config
	store      store.Store
	data       *countries.Loader
	sessionKey []byte
	dailyKey   []byte

	now     func() time.Time
	newRand func() *rand.Rand
}

// New constructs a Server, installs middleware, and registers routes.
func New(cfg config.Config, st store.Store, data *countries.Loader) *Server {
	s := &Server{
		r:          chi.NewRouter(),
		cfg:        cfg,
		store:      st,
		data:       data,
		sessionKey: cfg.SessionKey(),
		dailyKey:   cfg.DailyKey(),
		now:        time.Now,
		newRand:    func() *rand.Rand { return rand.New(rand.NewSource(randomSeed())) },
	}

	// --- middleware ---
	s.r.Use(chimw.RequestID)                 // add X-Request-ID
	s.r.Use(chimw.RealIP)                    // set RemoteAddr from X-Forwarded-For etc.
	s.r.Use(accessLog)                       // zerolog access line per request
	s.r.Use(chimw.Recoverer)                 // recover from panics
	s.r.Use(chimw.Timeout(10 * time.Second)) // bound handler time
	s.r.Use(jsonContentType)                 // default JSON responses
	s.r.Use(cors(cfg.ClientOrigin))          // credentials-friendly CORS

	// --- diagnostics ---
	s.r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"service":"geoquiz","endpoints":["/health","POST /challenge/new","POST /challenge/daily","POST /challenge/guess","GET /challenge/state"]}`))
	})
	s.r.Get("/health", s.handleHealth)
	s.r.Get("/debug/dataset", s.handleDatasetStats)

	// Challenge endpoints: a session is attached when the token is valid.
	s.r.Route("/challenge", func(r chi.Router) {
		r.Use(s.withSession())
		s.mountChallenge(r)
		s.mountDaily(r)
	})

	// JSON 404 for easier debugging
	s.r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"not_found","path":"`+r.URL.Path+`"}`, http.StatusNotFound)
	})

	return s
}

// Start serves HTTP on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context, addr string) error {
	hs := &http.Server{Addr: addr, Handler: s.r, ReadHeaderTimeout: 5 * time.Second}
	errc := make(chan error, 1)
	go func() { errc <- hs.ListenAndServe() }()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := hs.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

// Router exposes the internal router (useful for tests).
func (s *Server) Router() chi.Router { return s.r }

// ----------------------------- middleware ----------------------------------

// jsonContentType sets a default JSON Content-Type header on all responses.
func jsonContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		next.ServeHTTP(w, r)
	})
}

// cors enables credentialed CORS for a single origin.
func cors(origin string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Vary", "Origin")
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Set("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// accessLog writes one debug-level line per request.
func accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		log.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("elapsed", time.Since(start)).
			Str("requestId", chimw.GetReqID(r.Context())).
			Msg("request")
	})
}

// ---------------------------- diagnostics ----------------------------------

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	state := "ready"
	if _, err := s.data.Dataset(); errors.Is(err, countries.ErrNotLoaded) {
		state = "loading"
	} else if err != nil {
		state = "unavailable"
	}
	_ = json.NewEncoder(w).Encode(map[string]any{"ok": true, "dataset": state})
}

// handleDatasetStats reports the country count and how many pass each filter.
func (s *Server) handleDatasetStats(w http.ResponseWriter, r *http.Request) {
	ds, ok := s.dataset(w)
	if !ok {
		return
	}
	filters := make(map[string]int)
	for _, f := range challenge.Filters() {
		filters[f.String()] = ds.CountFlag(f.String())
	}
	_ = json.NewEncoder(w).Encode(map[string]any{"countries": ds.Len(), "filters": filters})
}

// dataset returns the loaded dataset or writes a 503 explaining why not.
func (s *Server) dataset(w http.ResponseWriter) (*countries.Dataset, bool) {
	ds, err := s.data.Dataset()
	switch {
	case err == nil:
		return ds, true
	case errors.Is(err, countries.ErrNotLoaded):
		http.Error(w, `{"error":"dataset_loading"}`, http.StatusServiceUnavailable)
	default:
		http.Error(w, `{"error":"dataset_unavailable"}`, http.StatusServiceUnavailable)
	}
	return nil, false
}

// ------------------------------ sessions -----------------------------------

// ctxSessionKey is the context key type for the verified session id.
type ctxSessionKey struct{}

// withSession decorates requests with the session id if a valid token is present.
// It never rejects a request.
func (s *Server) withSession() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if tok := bearerOrCookie(r); tok != "" {
				if sid, err := s.parseSessionToken(tok); err == nil {
					r = r.WithContext(context.WithValue(r.Context(), ctxSessionKey{}, sid))
				} else {
					log.Debug().Err(err).Msg("ignoring invalid session token")
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// sessionID returns the verified session id from the request context, or "".
func sessionID(r *http.Request) string {
	sid, _ := r.Context().Value(ctxSessionKey{}).(string)
	return sid
}

// ensureSession returns the caller's stored session, creating one (and
// issuing a token cookie) when the request carries none. The token is
// returned only when newly issued.
func (s *Server) ensureSession(w http.ResponseWriter, r *http.Request) (*game.Session, string, error) {
	if sid := sessionID(r); sid != "" {
		if sess, err := s.store.Get(r.Context(), sid); err == nil {
			return sess, "", nil
		}
	}
	sess := game.NewSession(uuid.NewString())
	if err := s.store.Save(r.Context(), sess); err != nil {
		return nil, "", err
	}
	tok, exp, err := s.signSessionToken(sess.ID)
	if err != nil {
		return nil, "", err
	}
	s.setSessionCookie(w, tok, exp)
	log.Info().Str("session", sess.ID).Msg("session started")
	return sess, tok, nil
}

// signSessionToken creates an HS256 JWT whose subject is the session id.
func (s *Server) signSessionToken(sid string) (string, time.Time, error) {
	now := s.now()
	exp := now.Add(s.cfg.SessionTTL())
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   sid,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(exp),
	})
	ss, err := t.SignedString(s.sessionKey)
	return ss, exp, err
}

// parseSessionToken verifies a token and returns its session id.
func (s *Server) parseSessionToken(tok string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	t, err := jwt.ParseWithClaims(tok, claims, func(t *jwt.Token) (interface{}, error) {
		return s.sessionKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.now))
	if err != nil {
		return "", err
	}
	if !t.Valid || claims.Subject == "" {
		return "", errors.New("invalid session token")
	}
	return claims.Subject, nil
}

// setSessionCookie writes the session token cookie with appropriate security attributes.
func (s *Server) setSessionCookie(w http.ResponseWriter, token string, exp time.Time) {
	sameSite := http.SameSiteLaxMode
	if s.cfg.Production {
		sameSite = http.SameSiteNoneMode // required for third-party contexts when Secure
	}
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.cfg.Production,
		SameSite: sameSite,
		Expires:  exp,
	})
}

// bearerOrCookie extracts a bearer token from Authorization header or session cookie.
func bearerOrCookie(r *http.Request) string {
	// Authorization: Bearer <token>
	if a := r.Header.Get("Authorization"); strings.HasPrefix(strings.ToLower(a), "bearer ") {
		return strings.TrimSpace(a[7:])
	}
	if c, err := r.Cookie(sessionCookieName); err == nil {
		return c.Value
	}
	return ""
}

// ------------------------------- small util --------------------------------

// randomSeed returns a crypto-random seed for a per-request generator.
func randomSeed() int64 {
	var b [8]byte
	if _, err := crand.Read(b[:]); err != nil {
		return time.Now().UnixNano()
	}
	return int64(binary.BigEndian.Uint64(b[:]))
}
