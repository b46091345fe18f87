// Package blacklist matches (advertiser, affiliate) pairs against
// suppression rules. An empty field in a rule is a wildcard; a rule with both
// fields empty is invalid and never stored.
package blacklist

import (
	"errors"
	"fmt"
	"strings"
)

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrMissingColumns is returned when tabular blacklist input lacks the
	// Advertiser or Affiliate header.
	ErrMissingColumns = errors.New("blacklist must contain Advertiser and Affiliate columns")
)

// Column headers of a tabular blacklist.
const (
	ColumnAdvertiser = "Advertiser"
	ColumnAffiliate  = "Affiliate"
)

// Rule suppresses every pair whose fields equal the rule's non-empty fields.
type Rule struct {
	Advertiser string `json:"advertiser" yaml:"advertiser"`
	Affiliate  string `json:"affiliate" yaml:"affiliate"`
}

// Valid reports whether at least one field is set.
func (r Rule) Valid() bool {
	return r.Advertiser != "" || r.Affiliate != ""
}

// Matches reports whether the pair is covered by the rule.
func (r Rule) Matches(advertiser, affiliate string) bool {
	if !r.Valid() {
		return false
	}
	if r.Advertiser != "" && r.Advertiser != advertiser {
		return false
	}
	if r.Affiliate != "" && r.Affiliate != affiliate {
		return false
	}
	return true
}

func (r Rule) String() string {
	adv, aff := r.Advertiser, r.Affiliate
	if adv == "" {
		adv = "*"
	}
	if aff == "" {
		aff = "*"
	}
	return adv + " x " + aff
}

// Set is an immutable collection of rules.
type Set struct {
	rules []Rule
}

// New builds a set from rules, trimming fields and dropping invalid or
// duplicate rules.
func New(rules ...Rule) *Set {
	s := &Set{}
	seen := make(map[Rule]struct{}, len(rules))
	for _, r := range rules {
		r = Rule{
			Advertiser: strings.TrimSpace(r.Advertiser),
			Affiliate:  strings.TrimSpace(r.Affiliate),
		}
		if !r.Valid() {
			continue
		}
		if _, dup := seen[r]; dup {
			continue
		}
		seen[r] = struct{}{}
		s.rules = append(s.rules, r)
	}
	return s
}

// Merge returns a new set holding the rules of every input set.
func Merge(sets ...*Set) *Set {
	var all []Rule
	for _, s := range sets {
		if s != nil {
			all = append(all, s.rules...)
		}
	}
	return New(all...)
}

// Rules returns a copy of the rules in insertion order.
func (s *Set) Rules() []Rule {
	if s == nil {
		return nil
	}
	out := make([]Rule, len(s.rules))
	copy(out, s.rules)
	return out
}

// Len returns the number of rules.
func (s *Set) Len() int {
	if s == nil {
		return 0
	}
	return len(s.rules)
}

// IsBlacklisted reports whether any rule covers the pair. Inputs are trimmed
// before comparison. A nil set blacklists nothing.
func (s *Set) IsBlacklisted(advertiser, affiliate string) bool {
	if s == nil {
		return false
	}
	advertiser = strings.TrimSpace(advertiser)
	affiliate = strings.TrimSpace(affiliate)
	for _, r := range s.rules {
		if r.Matches(advertiser, affiliate) {
			return true
		}
	}
	return false
}

// AdvertiserBlocked reports whether the advertiser is blacklisted outright,
// i.e. by a rule whose affiliate field is a wildcard.
func (s *Set) AdvertiserBlocked(advertiser string) bool {
	return s.IsBlacklisted(advertiser, "")
}

// FromRows builds a set from a header row and data rows. Rows may be shorter
// than the header; missing cells are empty.
func FromRows(header []string, rows [][]string) (*Set, error) {
	advCol, affCol := -1, -1
	for i, h := range header {
		switch strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")) {
		case ColumnAdvertiser:
			advCol = i
		case ColumnAffiliate:
			affCol = i
		}
	}
	if advCol < 0 || affCol < 0 {
		return nil, fmt.Errorf("header %q: %w", header, ErrMissingColumns)
	}

	rules := make([]Rule, 0, len(rows))
	for _, row := range rows {
		rules = append(rules, Rule{
			Advertiser: cell(row, advCol),
			Affiliate:  cell(row, affCol),
		})
	}
	return New(rules...), nil
}

func cell(row []string, i int) string {
	if i < len(row) {
		return row[i]
	}
	return ""
}
