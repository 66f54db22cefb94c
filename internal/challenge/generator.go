// internal/challenge/generator.go
//
// Challenge generator: samples predicates until an answer set fits the band.
//
// Per attempt:
//   1. Pick a predicate uniformly from the sampled kinds and evaluate it.
//   2. If more than Max countries match, apply one random secondary filter.
//      If that leaves fewer than Min, abandon the attempt. If it still leaves
//      more than Max, apply a second random filter and keep whatever remains.
//   3. Accept when Min <= size <= Max; otherwise try again.
//
// After MaxAttempts without acceptance Generate returns ErrExhausted.
// All per-attempt state lives inside Generate and is returned in Challenge.

package challenge

import (
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/robalobadob/geoquiz/internal/countries"
)

// The acceptance band is fixed; only the attempt budget is tunable.
const (
	MinAnswers         = 2
	MaxAnswers         = 8
	DefaultMaxAttempts = 100
)

// ErrExhausted is returned when no acceptable challenge was found within the attempt budget.
var ErrExhausted = errors.New("challenge: no acceptable challenge found")

// Challenge is an accepted puzzle.
type Challenge struct {
	Kind        Kind       // Primary predicate.
	Param       Param      // Its sampled parameter.
	Filters     []Filter   // Secondary filters applied, in order (0–2).
	Answers     []string   // Matching countries, in dataset order.
	Description string     // Human-readable puzzle text.
	Attempts    int        // Attempts used, including the accepted one.
	LetterCase  LetterCase // Letter comparison the answers were matched with.
}

// Generator builds challenges over one dataset.
// It is not safe for concurrent use; give each goroutine its own.
type Generator struct {
	ds              *countries.Dataset
	rng             *rand.Rand
	maxAttempts     int
	letterCase      LetterCase
	distinctFilters bool
	predicates      []Predicate
}

// Option configures a Generator.
type Option func(*Generator)

// WithRand sets the randomness source.
func WithRand(rng *rand.Rand) Option { return func(g *Generator) { g.rng = rng } }

// WithSeed seeds a private randomness source.
func WithSeed(seed int64) Option {
	return func(g *Generator) { g.rng = rand.New(rand.NewSource(seed)) }
}

// WithMaxAttempts sets the attempt budget. Values below 1 are ignored.
func WithMaxAttempts(n int) Option {
	return func(g *Generator) {
		if n > 0 {
			g.maxAttempts = n
		}
	}
}

// WithLetterCase sets how letter predicates compare names.
func WithLetterCase(lc LetterCase) Option { return func(g *Generator) { g.letterCase = lc } }

// WithDistinctFilters stops the second filter from repeating the first.
func WithDistinctFilters(on bool) Option { return func(g *Generator) { g.distinctFilters = on } }

// WithMembersOf adds the reserved membersOf predicate to the sampled set.
// It never matches, so it only consumes attempts.
func WithMembersOf(on bool) Option {
	return func(g *Generator) {
		g.predicates = sampled(on)
	}
}

// WithKinds restricts sampling to the given kinds. Unknown kinds are skipped.
func WithKinds(kinds ...Kind) Option {
	return func(g *Generator) {
		var ps []Predicate
		for _, k := range kinds {
			if p, ok := Lookup(k); ok {
				ps = append(ps, p)
			}
		}
		if len(ps) > 0 {
			g.predicates = ps
		}
	}
}

// sampled returns the library minus membersOf unless withMembersOf is set.
func sampled(withMembersOf bool) []Predicate {
	out := make([]Predicate, 0, len(Library))
	for _, p := range Library {
		if p.Kind == MembersOf && !withMembersOf {
			continue
		}
		out = append(out, p)
	}
	return out
}

// New returns a Generator over ds.
func New(ds *countries.Dataset, opts ...Option) *Generator {
	g := &Generator{
		ds:          ds,
		maxAttempts: DefaultMaxAttempts,
		letterCase:  CaseInsensitive,
		predicates:  sampled(false),
	}
	for _, o := range opts {
		o(g)
	}
	if g.rng == nil {
		g.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return g
}

// Generate runs the acceptance loop and returns the first acceptable challenge.
func (g *Generator) Generate() (*Challenge, error) {
	if g.ds == nil || g.ds.Len() == 0 {
		return nil, countries.ErrEmptyDataset
	}
	for attempt := 1; attempt <= g.maxAttempts; attempt++ {
		p := g.predicates[g.rng.Intn(len(g.predicates))]
		res := Evaluate(p.Kind, g.rng, g.ds, g.letterCase)
		answers := res.Matches

		var applied []Filter
		if len(answers) > MaxAnswers {
			first := SampleFilter(g.rng)
			applied = append(applied, first)
			answers = ApplyFilter(g.ds, answers, first)
			if len(answers) < MinAnswers {
				log.Debug().Int("attempt", attempt).Str("kind", string(p.Kind)).
					Str("filter", first.String()).Msg("narrowed below band")
				continue
			}
			if len(answers) > MaxAnswers {
				var second Filter
				if g.distinctFilters {
					second = SampleFilterExcept(g.rng, first)
				} else {
					second = SampleFilter(g.rng)
				}
				applied = append(applied, second)
				answers = ApplyFilter(g.ds, answers, second)
			}
		}

		if len(answers) < MinAnswers || len(answers) > MaxAnswers {
			continue
		}
		return &Challenge{
			Kind:        p.Kind,
			Param:       res.Param,
			Filters:     applied,
			Answers:     answers,
			Description: Describe(p.Template, len(answers), res.Param, applied),
			Attempts:    attempt,
			LetterCase:  g.letterCase,
		}, nil
	}
	return nil, fmt.Errorf("%w after %d attempts", ErrExhausted, g.maxAttempts)
}

// Verify reports whether every answer satisfies the challenge's predicate
// (under the letter case it was generated with) and filters, and the answer
// count lies within [MinAnswers, MaxAnswers].
func Verify(ds *countries.Dataset, ch *Challenge) error {
	if n := len(ch.Answers); n < MinAnswers || n > MaxAnswers {
		return fmt.Errorf("answer count %d outside [%d,%d]", n, MinAnswers, MaxAnswers)
	}
	lc := ch.LetterCase
	if lc == "" {
		lc = CaseInsensitive
	}
	for _, name := range ch.Answers {
		if !Match(ch.Kind, name, ch.Param, lc) {
			return fmt.Errorf("%q does not satisfy %s(%s)", name, ch.Kind, ch.Param)
		}
		c, ok := ds.Get(name)
		if !ok {
			return fmt.Errorf("%q is not in the dataset", name)
		}
		for _, f := range ch.Filters {
			if !f.Has(&c) {
				return fmt.Errorf("%q does not satisfy filter %s", name, f)
			}
		}
	}
	return nil
}
