package tld

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"
)

// Table answers registry requirement questions for TLDs. It is read-only
// after construction and safe for concurrent use.
type Table struct {
	byTLD    map[string][]Requirement
	patterns map[string]*regexp.Regexp // keyed by pattern text
	logger   *logrus.Entry
}

// ValidationResult lists problems found in registrant data
type ValidationResult struct {
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

// OK reports whether there are no errors
func (v ValidationResult) OK() bool {
	return len(v.Errors) == 0
}

// Summary describes how hard a TLD is to register
type Summary struct {
	TLD               string `json:"tld"`
	IsOpen            bool   `json:"is_open"`
	Total             int    `json:"total_requirements"`
	Mandatory         int    `json:"mandatory_requirements"`
	Optional          int    `json:"optional_requirements"`
	RequiredDocuments []Kind `json:"required_documents"`
	Complexity        string `json:"complexity_level"`
}

// NewTable builds the table from the built-in registry data
func NewTable(logger *logrus.Entry) *Table {
	t := &Table{
		byTLD:    builtinRequirements(),
		patterns: make(map[string]*regexp.Regexp),
		logger:   logger,
	}
	for _, reqs := range t.byTLD {
		for _, r := range reqs {
			if r.Pattern != "" {
				if _, ok := t.patterns[r.Pattern]; !ok {
					t.patterns[r.Pattern] = regexp.MustCompile(r.Pattern)
				}
			}
		}
	}
	return t
}

func clean(tld string) string {
	return strings.ToLower(strings.TrimLeft(strings.TrimSpace(tld), "."))
}

// Requirements returns the ordered requirements for tld; unknown TLDs have none
func (t *Table) Requirements(tld string) []Requirement {
	reqs := t.byTLD[clean(tld)]
	out := make([]Requirement, len(reqs))
	copy(out, reqs)
	return out
}

// Mandatory returns only the mandatory requirements for tld
func (t *Table) Mandatory(tld string) []Requirement {
	var out []Requirement
	for _, r := range t.byTLD[clean(tld)] {
		if r.Mandatory {
			out = append(out, r)
		}
	}
	return out
}

// IsOpen reports whether tld needs no registrant data
func (t *Table) IsOpen(tld string) bool {
	return len(t.byTLD[clean(tld)]) == 0
}

// Validate checks userData against the requirements for tld
func (t *Table) Validate(tld string, userData map[string]string) ValidationResult {
	name := clean(tld)
	res := ValidationResult{Errors: []string{}, Warnings: []string{}}

	for _, r := range t.byTLD[name] {
		value, present := userData[r.Field]
		if r.Mandatory && !present {
			res.Errors = append(res.Errors, fmt.Sprintf("Missing mandatory field for %s: %s", name, r.Description))
			continue
		}
		if present && r.Pattern != "" && !t.patterns[r.Pattern].MatchString(value) {
			res.Errors = append(res.Errors, fmt.Sprintf("Invalid format for %s: %s", r.Field, r.Description))
		}
	}
	return res
}

// AdditionalData returns registrar additional_data for tld. Supplied values
// are used as-is; missing mandatory fields get the requirement's example value.
func (t *Table) AdditionalData(tld string, userData map[string]string) map[string]string {
	name := clean(tld)
	out := make(map[string]string)
	for _, r := range t.byTLD[name] {
		if v, ok := userData[r.Field]; ok {
			out[r.Field] = v
			continue
		}
		if r.Mandatory && r.Example != "" {
			out[r.Field] = r.Example
			if t.logger != nil {
				t.logger.WithFields(logrus.Fields{"tld": name, "field": r.Field}).
					Warn("using example value for mandatory field")
			}
		}
	}
	return out
}

// Summary reports counts and complexity for tld
func (t *Table) Summary(tld string) Summary {
	name := clean(tld)
	reqs := t.byTLD[name]
	s := Summary{TLD: name, IsOpen: len(reqs) == 0, Total: len(reqs), RequiredDocuments: []Kind{}}
	for _, r := range reqs {
		if r.Mandatory {
			s.Mandatory++
			s.RequiredDocuments = append(s.RequiredDocuments, r.Kind)
		}
	}
	s.Optional = s.Total - s.Mandatory

	switch {
	case s.Total == 0:
		s.Complexity = "Open"
	case s.Mandatory <= 1:
		s.Complexity = "Low"
	case s.Mandatory <= 3:
		s.Complexity = "Medium"
	default:
		s.Complexity = "High"
	}
	return s
}

// SupportedTLDs lists every TLD the table knows, sorted
func (t *Table) SupportedTLDs() []string {
	out := make([]string, 0, len(t.byTLD))
	for k := range t.byTLD {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
