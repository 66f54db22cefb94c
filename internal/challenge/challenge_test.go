package challenge

import (
	"context"
	"errors"
	"math/rand"
	"os"
	"strconv"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/robalobadob/geoquiz/internal/countries"
)

func TestMain(m *testing.M) {
	zerolog.SetGlobalLevel(zerolog.WarnLevel)
	os.Exit(m.Run())
}

// --- Helpers ---

var fourLetter = []string{"Chad", "Mali", "Togo", "Cuba", "Iran", "Iraq", "Laos", "Oman", "Peru", "Fiji"}

func datasetOf(names []string, rec func(i int) countries.Country) *countries.Dataset {
	entries := make([]countries.Entry, len(names))
	for i, n := range names {
		entries[i] = countries.Entry{Name: n, Country: rec(i)}
	}
	return countries.NewDataset(entries)
}

func noFlags(int) countries.Country { return countries.Country{} }

// allFlagsExcept returns a record that passes every filter but skip.
// A negative skip passes every filter.
func allFlagsExcept(skip Filter) countries.Country {
	c := countries.Country{
		IsCommonwealthMember:       true,
		IsLandlocked:               true,
		IsEuMember:                 true,
		IsNatoMember:               true,
		IsAfricanUnionMember:       true,
		IsIslamicCooperationMember: true,
		IsIccMember:                true,
		IsNonAlignedMember:         true,
	}
	switch skip {
	case FilterCommonwealth:
		c.IsCommonwealthMember = false
	case FilterLandlocked:
		c.IsLandlocked = false
	case FilterEU:
		c.IsEuMember = false
	case FilterNATO:
		c.IsNatoMember = false
	case FilterAfricanUnion:
		c.IsAfricanUnionMember = false
	case FilterIslamicCooperation:
		c.IsIslamicCooperationMember = false
	case FilterICC:
		c.IsIccMember = false
	case FilterNonAligned:
		c.IsNonAlignedMember = false
	}
	return c
}

func embedded(t *testing.T) *countries.Dataset {
	t.Helper()
	ds, err := countries.EmbeddedSource{}.Load(context.Background())
	if err != nil {
		t.Fatalf("load embedded dataset: %v", err)
	}
	return ds
}

// --- Predicates ---

func TestMatch_ExactLength(t *testing.T) {
	cases := []struct {
		name  string
		param Param
		want  bool
	}{
		{"Chile", "5", true},
		{"Chad", "5", false},
		{"Chad", "4", true},
		{"Bosnia and Herzegovina", "10", false},
		{"Chad", "", false},
	}
	for _, c := range cases {
		if got := Match(ExactLength, c.name, c.param, CaseInsensitive); got != c.want {
			t.Errorf("Match(exactLength, %q, %q) = %v, want %v", c.name, c.param, got, c.want)
		}
	}
}

func TestMatch_SingleOccurrenceVowel(t *testing.T) {
	if Match(SingleOccurrenceVowel, "Canada", "a", CaseInsensitive) {
		t.Error("Canada has three a's and must not match")
	}
	if Match(SingleOccurrenceVowel, "Japan", "a", CaseInsensitive) {
		t.Error("Japan has two a's and must not match")
	}
	for _, name := range []string{"Chad", "Iran"} {
		if !Match(SingleOccurrenceVowel, name, "a", CaseInsensitive) {
			t.Errorf("%s has one a and should match", name)
		}
	}
	if !Match(SingleOccurrenceVowel, "Oman", "o", CaseInsensitive) {
		t.Error("Oman should match 'o' after lower-casing")
	}
	if Match(SingleOccurrenceVowel, "Peru", "a", CaseInsensitive) {
		t.Error("Peru has no a")
	}
}

func TestMatch_ContainVowelIsCaseInsensitive(t *testing.T) {
	if !Match(ContainVowel, "Iceland", "i", CaseSensitive) {
		t.Error("containVowel always lower-cases the name")
	}
}

func TestMatch_LetterCase(t *testing.T) {
	if !Match(BeginningLetter, "Kenya", "k", CaseInsensitive) {
		t.Error("insensitive: Kenya should begin with k")
	}
	if Match(BeginningLetter, "Kenya", "k", CaseSensitive) {
		t.Error("sensitive: Kenya should not begin with lower-case k")
	}
	for _, lc := range []LetterCase{CaseInsensitive, CaseSensitive} {
		if !Match(EndingLetter, "Iraq", "q", lc) {
			t.Errorf("%s: Iraq should end with q", lc)
		}
	}
}

func TestParseLetterCase(t *testing.T) {
	for in, want := range map[string]LetterCase{"": CaseInsensitive, "Insensitive": CaseInsensitive, "sensitive": CaseSensitive} {
		got, err := ParseLetterCase(in)
		if err != nil || got != want {
			t.Errorf("ParseLetterCase(%q) = %q, %v; want %q", in, got, err, want)
		}
	}
	if _, err := ParseLetterCase("shouty"); err == nil {
		t.Error("expected error for unknown letter case")
	}
}

func TestEvaluate_MatchesSatisfyPredicate(t *testing.T) {
	ds := embedded(t)
	rng := rand.New(rand.NewSource(7))
	for _, p := range Library {
		for i := 0; i < 50; i++ {
			res := Evaluate(p.Kind, rng, ds, CaseInsensitive)
			for _, name := range res.Matches {
				if !Match(p.Kind, name, res.Param, CaseInsensitive) {
					t.Fatalf("%s(%s) returned non-matching %q", p.Kind, res.Param, name)
				}
			}
		}
	}
}

func TestEvaluate_ExactLengthParamRange(t *testing.T) {
	ds := datasetOf(fourLetter, noFlags)
	rng := rand.New(rand.NewSource(3))
	for i := 0; i < 500; i++ {
		res := Evaluate(ExactLength, rng, ds, CaseInsensitive)
		n, err := strconv.Atoi(string(res.Param))
		if err != nil || n < 3 || n > 10 {
			t.Fatalf("param %q outside [3,10]", res.Param)
		}
		if n == 4 && len(res.Matches) != len(fourLetter) {
			t.Fatalf("exactLength(4) matched %d, want %d", len(res.Matches), len(fourLetter))
		}
	}
}

func TestEvaluate_MembersOfIsEmpty(t *testing.T) {
	res := Evaluate(MembersOf, rand.New(rand.NewSource(1)), embedded(t), CaseInsensitive)
	if len(res.Matches) != 0 || res.Param != "" {
		t.Errorf("membersOf = %v/%q, want empty", res.Matches, res.Param)
	}
}

// --- Filters ---

func TestSampleFilterExcept_NeverReturnsExcluded(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	for _, ex := range Filters() {
		seen := map[Filter]bool{}
		for i := 0; i < 400; i++ {
			f := SampleFilterExcept(rng, ex)
			if f == ex {
				t.Fatalf("SampleFilterExcept returned excluded %s", ex)
			}
			seen[f] = true
		}
		if len(seen) != len(Filters())-1 {
			t.Errorf("excluding %s: saw %d filters, want %d", ex, len(seen), len(Filters())-1)
		}
	}
}

func TestApplyFilter_MissingCountryDoesNotMatch(t *testing.T) {
	ds := datasetOf([]string{"Chad"}, func(int) countries.Country { return allFlagsExcept(-1) })
	got := ApplyFilter(ds, []string{"Chad", "Atlantis"}, FilterEU)
	if len(got) != 1 || got[0] != "Chad" {
		t.Errorf("ApplyFilter = %v, want [Chad]", got)
	}
}

func TestFilterTextRoundTrip(t *testing.T) {
	var f Filter
	if err := f.UnmarshalText([]byte("isNatoMember")); err != nil || f != FilterNATO {
		t.Fatalf("UnmarshalText = %v, %v", f, err)
	}
	if err := f.UnmarshalText([]byte("isMartian")); err == nil {
		t.Error("expected error for unknown filter")
	}
}

// --- Description ---

func TestDescribe(t *testing.T) {
	got := Describe("X countries end with the letter '*'.", 5, "k", nil)
	if got != "5 countries end with the letter 'K'." {
		t.Errorf("Describe = %q", got)
	}
	got = Describe("X countries end with the letter '*'.", 3, "a", []Filter{FilterEU, FilterNATO})
	want := "3 countries end with the letter 'A' and are members of The European Union and are members of The North Atlantic Treaty Organization"
	if got != want {
		t.Errorf("Describe = %q, want %q", got, want)
	}
}

// --- Generator ---

func TestGenerate_EndToEndExactLength(t *testing.T) {
	ds := datasetOf([]string{"Chad", "Mali", "Togo"}, noFlags)
	ch, err := New(ds, WithSeed(1), WithKinds(ExactLength)).Generate()
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if ch.Param != "4" {
		t.Errorf("Param = %q, want 4", ch.Param)
	}
	if strings.Join(ch.Answers, ",") != "Chad,Mali,Togo" {
		t.Errorf("Answers = %v", ch.Answers)
	}
	if ch.Description != "3 countries contain exactly 4 letters." {
		t.Errorf("Description = %q", ch.Description)
	}
	if len(ch.Filters) != 0 {
		t.Errorf("Filters = %v, want none", ch.Filters)
	}
}

func TestGenerate_AcceptedChallengesRespectBand(t *testing.T) {
	ds := embedded(t)
	accepted := 0
	for seed := int64(1); seed <= 300; seed++ {
		ch, err := New(ds, WithSeed(seed)).Generate()
		if errors.Is(err, ErrExhausted) {
			continue
		}
		if err != nil {
			t.Fatalf("seed %d: %v", seed, err)
		}
		if err := Verify(ds, ch); err != nil {
			t.Fatalf("seed %d: %v", seed, err)
		}
		if ch.Attempts < 1 || ch.Attempts > DefaultMaxAttempts {
			t.Fatalf("seed %d: attempts %d", seed, ch.Attempts)
		}
		if len(ch.Filters) > 2 {
			t.Fatalf("seed %d: %d filters", seed, len(ch.Filters))
		}
		accepted++
	}
	if accepted == 0 {
		t.Fatal("no challenge accepted across 300 seeds")
	}
}

func TestGenerate_UndersizedNarrowingNeverAccepted(t *testing.T) {
	// Nine 4-letter names with no memberships: exactLength(4) overflows the
	// band and every filter empties it.
	ds := datasetOf(fourLetter[:9], noFlags)
	for seed := int64(1); seed <= 20; seed++ {
		_, err := New(ds, WithSeed(seed), WithKinds(ExactLength)).Generate()
		if !errors.Is(err, ErrExhausted) {
			t.Fatalf("seed %d: err = %v, want ErrExhausted", seed, err)
		}
	}
}

func TestGenerate_SingleFilterNarrowing(t *testing.T) {
	ds := datasetOf(fourLetter[:9], func(i int) countries.Country {
		if i < 5 {
			return allFlagsExcept(-1)
		}
		return countries.Country{}
	})
	ch, err := New(ds, WithSeed(5), WithKinds(ExactLength)).Generate()
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if len(ch.Filters) != 1 {
		t.Fatalf("Filters = %v, want one", ch.Filters)
	}
	if strings.Join(ch.Answers, ",") != "Chad,Mali,Togo,Cuba,Iran" {
		t.Errorf("Answers = %v", ch.Answers)
	}
	prefix := "5 countries contain exactly 4 letters and "
	if !strings.HasPrefix(ch.Description, prefix) || !strings.HasSuffix(ch.Description, ch.Filters[0].Clause()) {
		t.Errorf("Description = %q", ch.Description)
	}
}

// Ten names where filter i excludes only name i: the first filter leaves 9,
// a different second filter leaves 8, and repeating the first leaves 9.
func twoFilterDataset() *countries.Dataset {
	return datasetOf(fourLetter, func(i int) countries.Country {
		if i < len(Filters()) {
			return allFlagsExcept(Filter(i))
		}
		return allFlagsExcept(-1)
	})
}

func TestGenerate_SecondFilter(t *testing.T) {
	ds := twoFilterDataset()
	for _, distinct := range []bool{false, true} {
		for seed := int64(1); seed <= 25; seed++ {
			ch, err := New(ds, WithSeed(seed), WithKinds(ExactLength), WithDistinctFilters(distinct), WithMaxAttempts(1000)).Generate()
			if err != nil {
				t.Fatalf("distinct=%v seed %d: %v", distinct, seed, err)
			}
			if len(ch.Filters) != 2 || ch.Filters[0] == ch.Filters[1] {
				t.Fatalf("distinct=%v seed %d: filters %v", distinct, seed, ch.Filters)
			}
			if len(ch.Answers) != 8 {
				t.Fatalf("distinct=%v seed %d: %d answers", distinct, seed, len(ch.Answers))
			}
			if err := Verify(ds, ch); err != nil {
				t.Fatal(err)
			}
		}
	}
}

func TestGenerate_MembersOfOnlyExhausts(t *testing.T) {
	_, err := New(embedded(t), WithSeed(1), WithKinds(MembersOf), WithMaxAttempts(10)).Generate()
	if !errors.Is(err, ErrExhausted) {
		t.Fatalf("err = %v, want ErrExhausted", err)
	}
}

func TestGenerate_EmptyDataset(t *testing.T) {
	_, err := New(countries.NewDataset(nil)).Generate()
	if !errors.Is(err, countries.ErrEmptyDataset) {
		t.Fatalf("err = %v, want ErrEmptyDataset", err)
	}
}

func TestGenerate_DefaultExcludesMembersOf(t *testing.T) {
	g := New(embedded(t))
	for _, p := range g.predicates {
		if p.Kind == MembersOf {
			t.Fatal("membersOf sampled by default")
		}
	}
	g = New(embedded(t), WithMembersOf(true))
	if len(g.predicates) != len(Library) {
		t.Errorf("WithMembersOf: %d predicates, want %d", len(g.predicates), len(Library))
	}
}

func TestGenerate_RecordsLetterCase(t *testing.T) {
	ds := datasetOf([]string{"Kenya", "Kuwait", "Kiribati"}, noFlags)
	ch, err := New(ds, WithSeed(3), WithKinds(BeginningLetter), WithMaxAttempts(1000)).Generate()
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if ch.LetterCase != CaseInsensitive || ch.Param != "k" {
		t.Fatalf("LetterCase = %q, Param = %q", ch.LetterCase, ch.Param)
	}
	if err := Verify(ds, ch); err != nil {
		t.Fatalf("Verify: %v", err)
	}
}

func TestVerify_UsesChallengeLetterCase(t *testing.T) {
	ds := datasetOf([]string{"Kenya", "Kuwait"}, noFlags)
	ch := &Challenge{Kind: BeginningLetter, Param: "k", Answers: []string{"Kenya", "Kuwait"}, LetterCase: CaseSensitive}
	if err := Verify(ds, ch); err == nil {
		t.Error("capitalised names must fail a case-sensitive lower-case letter check")
	}
	ch.LetterCase = CaseInsensitive
	if err := Verify(ds, ch); err != nil {
		t.Errorf("insensitive: %v", err)
	}
}

func TestVerify_RejectsSizeOutsideBand(t *testing.T) {
	ds := datasetOf(fourLetter, noFlags)
	ch := &Challenge{Kind: ExactLength, Param: "4", Answers: ds.Names()}
	if err := Verify(ds, ch); err == nil {
		t.Errorf("%d answers accepted, band is [%d,%d]", len(ch.Answers), MinAnswers, MaxAnswers)
	}
}
