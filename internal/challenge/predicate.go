// internal/challenge/predicate.go
//
// Predicate library: the name-shape rules a challenge is built from.
//
// Each predicate kind samples its own parameter (a length, a vowel, or a
// letter) and returns the countries whose name satisfies the rule for that
// parameter. Templates use "X" for the answer count and "*" for the parameter.
//
// Kinds:
//   - exactLength:           name has exactly N characters, N ∈ [3,10].
//   - containVowel:          lower-cased name contains vowel V.
//   - singleOccurrenceVowel: lower-cased name contains vowel V exactly once.
//   - beginningLetter:       name starts with letter L (see LetterCase).
//   - endingLetter:          name ends with letter L (see LetterCase).
//   - membersOf:             reserved; never matches and has no parameter.

package challenge

import (
	"fmt"
	"math/rand"
	"strconv"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/robalobadob/geoquiz/internal/countries"
)

// Kind names a predicate.
type Kind string

const (
	ExactLength           Kind = "exactLength"
	ContainVowel          Kind = "containVowel"
	SingleOccurrenceVowel Kind = "singleOccurrenceVowel"
	EndingLetter          Kind = "endingLetter"
	BeginningLetter       Kind = "beginningLetter"
	MembersOf             Kind = "membersOf"
)

// Predicate pairs a kind with its description template.
type Predicate struct {
	Kind     Kind
	Template string
}

// Library lists every declared predicate, in declaration order.
var Library = []Predicate{
	{Kind: ExactLength, Template: "X countries contain exactly * letters."},
	{Kind: ContainVowel, Template: "X countries contain the vowel '*'."},
	{Kind: SingleOccurrenceVowel, Template: "X countries contain only one occurrence of the vowel '*'."},
	{Kind: EndingLetter, Template: "X countries end with the letter '*'."},
	{Kind: BeginningLetter, Template: "X countries begin with the letter '*'."},
	{Kind: MembersOf, Template: "X countries that are members of '*'."},
}

// Lookup returns the library predicate for kind.
func Lookup(kind Kind) (Predicate, bool) {
	for _, p := range Library {
		if p.Kind == kind {
			return p, true
		}
	}
	return Predicate{}, false
}

// LetterCase controls how beginningLetter/endingLetter compare names.
type LetterCase string

const (
	// CaseInsensitive lower-cases the name before comparing.
	CaseInsensitive LetterCase = "insensitive"
	// CaseSensitive compares the raw name against the lower-case letter,
	// so capitalised initials never match.
	CaseSensitive LetterCase = "sensitive"
)

// ParseLetterCase accepts "insensitive" or "sensitive" (empty means insensitive).
func ParseLetterCase(s string) (LetterCase, error) {
	switch LetterCase(strings.ToLower(strings.TrimSpace(s))) {
	case "", CaseInsensitive:
		return CaseInsensitive, nil
	case CaseSensitive:
		return CaseSensitive, nil
	}
	return "", fmt.Errorf("unknown letter case %q", s)
}

// Param is the sampled value shown in place of "*". Empty for membersOf.
type Param string

const (
	minLength = 3
	maxLength = 10
)

var vowels = [...]string{"a", "e", "i", "o", "u"}

// Result is the outcome of evaluating one predicate.
type Result struct {
	Matches []string
	Param   Param
}

// Evaluate samples a parameter for kind and returns every matching country,
// in dataset order.
func Evaluate(kind Kind, rng *rand.Rand, ds *countries.Dataset, lc LetterCase) Result {
	var param Param
	switch kind {
	case ExactLength:
		param = Param(strconv.Itoa(minLength + rng.Intn(maxLength-minLength+1)))
	case ContainVowel, SingleOccurrenceVowel:
		param = Param(vowels[rng.Intn(len(vowels))])
	case EndingLetter, BeginningLetter:
		param = Param(string(rune('a' + rng.Intn(26))))
	default:
		return Result{}
	}

	m := newMatcher(lc)
	var out []string
	ds.Each(func(name string, _ *countries.Country) {
		if m.match(kind, name, param) {
			out = append(out, name)
		}
	})
	return Result{Matches: out, Param: param}
}

// Match reports whether name satisfies kind with the given parameter.
// It does no sampling, so it can be used to verify an answer set.
func Match(kind Kind, name string, param Param, lc LetterCase) bool {
	return newMatcher(lc).match(kind, name, param)
}

// matcher holds a Caser, which is stateful and must not be shared between goroutines.
type matcher struct {
	lower cases.Caser
	lc    LetterCase
}

func newMatcher(lc LetterCase) *matcher {
	return &matcher{lower: cases.Lower(language.Und), lc: lc}
}

func (m *matcher) match(kind Kind, name string, param Param) bool {
	p := string(param)
	switch kind {
	case ExactLength:
		n, err := strconv.Atoi(p)
		return err == nil && utf8.RuneCountInString(name) == n
	case ContainVowel:
		return p != "" && strings.Contains(m.lower.String(name), p)
	case SingleOccurrenceVowel:
		return p != "" && strings.Count(m.lower.String(name), p) == 1
	case BeginningLetter:
		return p != "" && strings.HasPrefix(m.letterForm(name), p)
	case EndingLetter:
		return p != "" && strings.HasSuffix(m.letterForm(name), p)
	}
	return false
}

func (m *matcher) letterForm(name string) string {
	if m.lc == CaseSensitive {
		return name
	}
	return m.lower.String(name)
}
