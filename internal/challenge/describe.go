// internal/challenge/describe.go
//
// Description rendering for accepted challenges.

package challenge

import (
	"strconv"
	"strings"
)

// Describe renders a template for an accepted answer set.
// "X" becomes the count and "*" the upper-cased parameter. When filters were
// applied, the template's final punctuation is dropped and their clauses are
// appended, each joined with " and ".
func Describe(template string, count int, param Param, filters []Filter) string {
	desc := strings.Replace(template, "X", strconv.Itoa(count), 1)
	desc = strings.Replace(desc, "*", strings.ToUpper(string(param)), 1)
	if len(filters) == 0 {
		return desc
	}

	clauses := make([]string, 0, len(filters))
	for _, f := range filters {
		if c := f.Clause(); c != "" {
			clauses = append(clauses, c)
		}
	}
	if len(clauses) == 0 {
		return desc
	}
	return strings.TrimRight(desc, ".!?") + " and " + strings.Join(clauses, " and ")
}
