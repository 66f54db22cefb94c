// internal/countries/loader.go
//
// Dataset sources and the one-time load gate.
//
// Source selection (SourceFor):
//   1. If a SQLite path is set, use the countries table in that database.
//      The table is created by migrations and seeded from the JSON source
//      (file or embedded) when empty.
//   2. Else if a JSON file path is set, decode that file.
//   3. Else decode the embedded assets/countries.json.
//
// Loader runs the chosen source exactly once (sync.Once). Until it finishes,
// Dataset() reports ErrNotLoaded; if it failed, Dataset() reports the failure
// wrapped in ErrUnavailable. Nothing retries automatically.

package countries

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/robalobadob/geoquiz/assets"
)

var (
	// ErrNotLoaded is returned while the dataset is still loading.
	ErrNotLoaded = errors.New("countries: dataset not loaded yet")
	// ErrUnavailable is returned after a failed load.
	ErrUnavailable = errors.New("countries: dataset unavailable")
)

// Source produces a dataset.
type Source interface {
	Load(ctx context.Context) (*Dataset, error)
	String() string
}

// EmbeddedSource decodes the dataset compiled into the binary.
type EmbeddedSource struct{}

func (EmbeddedSource) Load(ctx context.Context) (*Dataset, error) {
	f, err := assets.OpenCountries()
	if err != nil {
		return nil, fmt.Errorf("open embedded dataset: %w", err)
	}
	defer f.Close()
	return Decode(f)
}

func (EmbeddedSource) String() string { return "embedded:" + assets.CountriesFile }

// FileSource decodes a JSON dataset from disk.
type FileSource struct{ Path string }

func (s FileSource) Load(ctx context.Context) (*Dataset, error) {
	f, err := os.Open(s.Path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", s.Path, err)
	}
	defer f.Close()
	return Decode(f)
}

func (s FileSource) String() string { return "file:" + s.Path }

// SourceFor picks a source from the configured paths (see file header).
func SourceFor(file, dbPath string) Source {
	var seed Source = EmbeddedSource{}
	if file != "" {
		seed = FileSource{Path: file}
	}
	if dbPath != "" {
		return SQLiteSource{Path: dbPath, Seed: seed}
	}
	return seed
}

// Loader gates access to a dataset that is loaded once.
type Loader struct {
	src  Source
	once sync.Once
	done chan struct{}
	ds   *Dataset
	err  error
}

// NewLoader returns a Loader for src. Nothing is read until Load is called.
func NewLoader(src Source) *Loader {
	return &Loader{src: src, done: make(chan struct{})}
}

// Load runs the source once and blocks until it has finished.
// Later calls return the first result.
func (l *Loader) Load(ctx context.Context) error {
	l.once.Do(func() {
		defer close(l.done)
		l.ds, l.err = l.src.Load(ctx)
		if l.err != nil {
			log.Error().Err(l.err).Str("source", l.src.String()).Msg("failed to load country dataset")
			return
		}
		log.Info().Str("source", l.src.String()).Int("countries", l.ds.Len()).Msg("country dataset loaded")
	})
	<-l.done
	return l.err
}

// Done is closed once loading has finished, successfully or not.
func (l *Loader) Done() <-chan struct{} { return l.done }

// Dataset returns the loaded dataset without blocking.
func (l *Loader) Dataset() (*Dataset, error) {
	select {
	case <-l.done:
	default:
		return nil, ErrNotLoaded
	}
	if l.err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, l.err)
	}
	return l.ds, nil
}

// Ready returns a Loader that already holds ds. Useful for tests and tools.
func Ready(ds *Dataset) *Loader {
	l := &Loader{done: make(chan struct{}), ds: ds}
	l.once.Do(func() { close(l.done) })
	return l
}
