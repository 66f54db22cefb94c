// internal/countries/dataset.go
//
// Dataset is the immutable, ordered collection of country records.
// Names keep the order they appear in the source document, so answer sets
// built by iterating the dataset are stable across runs.

package countries

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

var (
	// ErrEmptyDataset is returned when a source decodes to zero countries.
	ErrEmptyDataset = errors.New("countries: empty dataset")
	// ErrBadFormat is returned when the document is not a JSON object keyed by name.
	ErrBadFormat = errors.New("countries: dataset must be a JSON object keyed by country name")
)

// Dataset is a read-only view over the loaded countries.
type Dataset struct {
	names  []string
	byName map[string]Country
}

// NewDataset builds a dataset from entries, preserving their order.
// A repeated name replaces the earlier record but keeps its position.
func NewDataset(entries []Entry) *Dataset {
	d := &Dataset{byName: make(map[string]Country, len(entries))}
	for _, e := range entries {
		if _, seen := d.byName[e.Name]; !seen {
			d.names = append(d.names, e.Name)
		}
		d.byName[e.Name] = e.Country
	}
	return d
}

// Decode reads a JSON object keyed by country name.
func Decode(r io.Reader) (*Dataset, error) {
	dec := json.NewDecoder(r)
	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("read dataset: %w", err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, ErrBadFormat
	}

	var entries []Entry
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("read dataset key: %w", err)
		}
		name, _ := tok.(string)
		var c Country
		if err := dec.Decode(&c); err != nil {
			return nil, fmt.Errorf("decode %q: %w", name, err)
		}
		entries = append(entries, Entry{Name: name, Country: c})
	}
	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("read dataset end: %w", err)
	}
	if len(entries) == 0 {
		return nil, ErrEmptyDataset
	}
	return NewDataset(entries), nil
}

// Len returns the number of countries.
func (d *Dataset) Len() int { return len(d.names) }

// Names returns the country names in document order.
// The returned slice is a copy.
func (d *Dataset) Names() []string {
	out := make([]string, len(d.names))
	copy(out, d.names)
	return out
}

// Get returns the record for name.
func (d *Dataset) Get(name string) (Country, bool) {
	c, ok := d.byName[name]
	return c, ok
}

// Each calls fn for every country in document order.
func (d *Dataset) Each(fn func(name string, c *Country)) {
	for _, n := range d.names {
		c := d.byName[n]
		fn(n, &c)
	}
}

// Entries returns all (name, record) pairs in document order.
func (d *Dataset) Entries() []Entry {
	out := make([]Entry, 0, len(d.names))
	for _, n := range d.names {
		out = append(out, Entry{Name: n, Country: d.byName[n]})
	}
	return out
}

// CountFlag returns how many countries have the named boolean attribute set.
func (d *Dataset) CountFlag(field string) int {
	n := 0
	d.Each(func(_ string, c *Country) {
		if c.Flag(field) {
			n++
		}
	})
	return n
}
