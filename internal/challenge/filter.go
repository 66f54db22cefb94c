// internal/challenge/filter.go
//
// Secondary filters: membership checks that narrow an oversized answer set.
//
// Each filter reads one boolean dataset field and contributes a clause to the
// description ("... and are Landlocked"). Filters serialise as their field
// name, e.g. "isEuMember".

package challenge

import (
	"fmt"
	"math/rand"

	"github.com/robalobadob/geoquiz/internal/countries"
)

// Filter is a secondary membership check used to narrow an oversized answer set.
type Filter int

const (
	FilterCommonwealth Filter = iota
	FilterLandlocked
	FilterEU
	FilterNATO
	FilterAfricanUnion
	FilterIslamicCooperation
	FilterICC
	FilterNonAligned
)

type filterSpec struct {
	field  string
	clause string
	has    func(*countries.Country) bool
}

var filterSpecs = [...]filterSpec{
	FilterCommonwealth: {
		field:  countries.FieldIsCommonwealthMember,
		clause: "are members of The Commonwealth",
		has:    func(c *countries.Country) bool { return c.IsCommonwealthMember },
	},
	FilterLandlocked: {
		field:  countries.FieldIsLandlocked,
		clause: "are Landlocked",
		has:    func(c *countries.Country) bool { return c.IsLandlocked },
	},
	FilterEU: {
		field:  countries.FieldIsEuMember,
		clause: "are members of The European Union",
		has:    func(c *countries.Country) bool { return c.IsEuMember },
	},
	FilterNATO: {
		field:  countries.FieldIsNatoMember,
		clause: "are members of The North Atlantic Treaty Organization",
		has:    func(c *countries.Country) bool { return c.IsNatoMember },
	},
	FilterAfricanUnion: {
		field:  countries.FieldIsAfricanUnionMember,
		clause: "are members of The African Union",
		has:    func(c *countries.Country) bool { return c.IsAfricanUnionMember },
	},
	FilterIslamicCooperation: {
		field:  countries.FieldIsIslamicCooperationMember,
		clause: "are members of The Organisation of Islamic Cooperation",
		has:    func(c *countries.Country) bool { return c.IsIslamicCooperationMember },
	},
	FilterICC: {
		field:  countries.FieldIsIccMember,
		clause: "are members of the International Criminal Court",
		has:    func(c *countries.Country) bool { return c.IsIccMember },
	},
	FilterNonAligned: {
		field:  countries.FieldIsNonAlignedMember,
		clause: "are members of The Non-Aligned Movement",
		has:    func(c *countries.Country) bool { return c.IsNonAlignedMember },
	},
}

// Filters returns every registered filter.
func Filters() []Filter {
	out := make([]Filter, len(filterSpecs))
	for i := range filterSpecs {
		out[i] = Filter(i)
	}
	return out
}

func (f Filter) valid() bool { return f >= 0 && int(f) < len(filterSpecs) }

// String returns the dataset field the filter reads, e.g. "isEuMember".
func (f Filter) String() string {
	if !f.valid() {
		return fmt.Sprintf("Filter(%d)", int(f))
	}
	return filterSpecs[f].field
}

// Clause is the phrase appended to a description when f is applied.
func (f Filter) Clause() string {
	if !f.valid() {
		return ""
	}
	return filterSpecs[f].clause
}

// Has reports whether c passes the filter. A nil record never passes.
func (f Filter) Has(c *countries.Country) bool {
	if !f.valid() || c == nil {
		return false
	}
	return filterSpecs[f].has(c)
}

// MarshalText encodes the filter as its field name.
func (f Filter) MarshalText() ([]byte, error) {
	if !f.valid() {
		return nil, fmt.Errorf("invalid filter %d", int(f))
	}
	return []byte(f.String()), nil
}

// UnmarshalText decodes a field name back into a filter.
func (f *Filter) UnmarshalText(b []byte) error {
	for i, s := range filterSpecs {
		if s.field == string(b) {
			*f = Filter(i)
			return nil
		}
	}
	return fmt.Errorf("unknown filter %q", string(b))
}

// SampleFilter picks a filter uniformly at random.
func SampleFilter(rng *rand.Rand) Filter {
	return Filter(rng.Intn(len(filterSpecs)))
}

// SampleFilterExcept picks uniformly among the filters other than exclude.
func SampleFilterExcept(rng *rand.Rand, exclude Filter) Filter {
	if !exclude.valid() {
		return SampleFilter(rng)
	}
	f := Filter(rng.Intn(len(filterSpecs) - 1))
	if f >= exclude {
		f++
	}
	return f
}

// ApplyFilter keeps the names whose record passes f, preserving order.
// Names missing from the dataset are dropped.
func ApplyFilter(ds *countries.Dataset, names []string, f Filter) []string {
	out := make([]string, 0, len(names))
	for _, n := range names {
		c, ok := ds.Get(n)
		if ok && f.Has(&c) {
			out = append(out, n)
		}
	}
	return out
}
