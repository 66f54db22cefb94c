package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/geoquiz/internal/config"
	"github.com/robalobadob/geoquiz/internal/countries"
	"github.com/robalobadob/geoquiz/internal/httpserver"
	"github.com/robalobadob/geoquiz/internal/store"
)

func main() {
	_ = godotenv.Load()
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}
	if lvl, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		zerolog.SetGlobalLevel(lvl)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// The server comes up immediately; challenge endpoints answer 503 until
	// the dataset is in.
	data := countries.NewLoader(countries.SourceFor(cfg.CountriesFile, cfg.CountriesDB))
	go func() { _ = data.Load(ctx) }()

	mem := store.NewMemoryStore()
	go pruneSessions(ctx, mem, cfg.SessionTTL())

	srv := httpserver.New(cfg, mem, data)
	log.Info().Str("port", cfg.Port).Msg("starting geoquiz server")
	if err := srv.Start(ctx, ":"+cfg.Port); err != nil {
		log.Fatal().Err(err).Msg("server exited")
	}
	log.Info().Msg("server stopped")
}

// pruneSessions drops idle sessions once an hour until ctx ends.
func pruneSessions(ctx context.Context, st store.Store, ttl time.Duration) {
	t := time.NewTicker(time.Hour)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-t.C:
			if n := st.Prune(ctx, now.Add(-ttl)); n > 0 {
				log.Info().Int("sessions", n).Msg("pruned idle sessions")
			}
		}
	}
}
