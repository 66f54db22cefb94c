// internal/countries/types.go
//
// Core record types for the country dataset.
// Defines:
//   - Country: the attribute record stored under each country name.
//   - Entry:   a (name, record) pair, used to build datasets in document order.
//
// Decoding is lenient: a boolean field that is missing, null, or of the wrong
// type reads as false, and a numeric field that is not a number reads as 0.
// Unknown keys are kept in Extra.

package countries

import (
	"encoding/json"
	"strings"
)

// Country holds the attributes of a single country.
type Country struct {
	Population    float64 // Total population.
	PopDensity    float64 // People per km².
	GDP           float64 // Nominal GDP in USD.
	Continent     string  // e.g. "Africa".
	FirstLanguage string  // Most widely spoken language.

	IsLandlocked               bool
	IsUnMember                 bool
	IsCommonwealthMember       bool
	IsEuMember                 bool
	IsNatoMember               bool
	IsAfricanUnionMember       bool
	IsIslamicCooperationMember bool
	IsIrenaMember              bool
	IsIccMember                bool
	IsNonAlignedMember         bool

	// Extra holds any keys not listed above, decoded as generic JSON values.
	Extra map[string]any
}

// Entry pairs a country name with its record.
type Entry struct {
	Name    string
	Country Country
}

// JSON field names, as used in the dataset file.
const (
	FieldPopulation                 = "population"
	FieldPopDensity                 = "popDensity"
	FieldGDP                        = "GDP"
	FieldContinent                  = "continent"
	FieldFirstLanguage              = "firstLanguage"
	FieldIsLandlocked               = "isLandlocked"
	FieldIsUnMember                 = "isUnMember"
	FieldIsCommonwealthMember       = "isCommonwealthMember"
	FieldIsEuMember                 = "isEuMember"
	FieldIsNatoMember               = "isNatoMember"
	FieldIsAfricanUnionMember       = "isAfricanUnionMember"
	FieldIsIslamicCooperationMember = "isIslamicCooperationMember"
	FieldIsIrenaMember              = "isIrenaMember"
	FieldIsIccMember                = "isIccMember"
	FieldIsNonAlignedMember         = "isNonAlignedMember"
)

// flagFields maps each boolean JSON field to a pointer into c.
func (c *Country) flagFields() map[string]*bool {
	return map[string]*bool{
		FieldIsLandlocked:               &c.IsLandlocked,
		FieldIsUnMember:                 &c.IsUnMember,
		FieldIsCommonwealthMember:       &c.IsCommonwealthMember,
		FieldIsEuMember:                 &c.IsEuMember,
		FieldIsNatoMember:               &c.IsNatoMember,
		FieldIsAfricanUnionMember:       &c.IsAfricanUnionMember,
		FieldIsIslamicCooperationMember: &c.IsIslamicCooperationMember,
		FieldIsIrenaMember:              &c.IsIrenaMember,
		FieldIsIccMember:                &c.IsIccMember,
		FieldIsNonAlignedMember:         &c.IsNonAlignedMember,
	}
}

// UnmarshalJSON decodes a dataset record, keeping unknown keys in Extra.
func (c *Country) UnmarshalJSON(b []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	*c = Country{}
	flags := c.flagFields()
	for key, v := range raw {
		if p, ok := flags[key]; ok {
			*p = jsonTrue(v)
			continue
		}
		switch key {
		case FieldPopulation:
			c.Population = jsonNumber(v)
		case FieldPopDensity:
			c.PopDensity = jsonNumber(v)
		case FieldGDP:
			c.GDP = jsonNumber(v)
		case FieldContinent:
			c.Continent = jsonString(v)
		case FieldFirstLanguage:
			c.FirstLanguage = jsonString(v)
		default:
			var x any
			if err := json.Unmarshal(v, &x); err != nil {
				continue
			}
			if c.Extra == nil {
				c.Extra = make(map[string]any)
			}
			c.Extra[key] = x
		}
	}
	return nil
}

// MarshalJSON encodes the record with the dataset's field names.
func (c Country) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, 15+len(c.Extra))
	for k, v := range c.Extra {
		out[k] = v
	}
	out[FieldPopulation] = c.Population
	out[FieldPopDensity] = c.PopDensity
	out[FieldGDP] = c.GDP
	out[FieldContinent] = c.Continent
	out[FieldFirstLanguage] = c.FirstLanguage
	for k, p := range c.flagFields() {
		out[k] = *p
	}
	return json.Marshal(out)
}

// Attr looks up an attribute by its dataset field name, falling back to Extra.
func (c *Country) Attr(name string) (any, bool) {
	if p, ok := c.flagFields()[name]; ok {
		return *p, true
	}
	switch name {
	case FieldPopulation:
		return c.Population, true
	case FieldPopDensity:
		return c.PopDensity, true
	case FieldGDP:
		return c.GDP, true
	case FieldContinent:
		return c.Continent, true
	case FieldFirstLanguage:
		return c.FirstLanguage, true
	}
	v, ok := c.Extra[name]
	return v, ok
}

// Flag reports whether the named attribute is the boolean true.
// Missing attributes and non-boolean values read as false.
func (c *Country) Flag(name string) bool {
	v, ok := c.Attr(name)
	if !ok {
		return false
	}
	b, _ := v.(bool)
	return b
}

func jsonTrue(v json.RawMessage) bool {
	return strings.TrimSpace(string(v)) == "true"
}

func jsonNumber(v json.RawMessage) float64 {
	var f float64
	if err := json.Unmarshal(v, &f); err != nil {
		return 0
	}
	return f
}

func jsonString(v json.RawMessage) string {
	var s string
	if err := json.Unmarshal(v, &s); err != nil {
		return ""
	}
	return s
}
