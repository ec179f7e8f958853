// Package normalize maps noisy free-text labels found in client and lead
// documents onto canonical display names.
//
// Each kind has its own ordered rule table. Matching runs against an
// upper-cased, whitespace-collapsed form of the input and the first rule
// that matches wins; unmatched input is returned trimmed but otherwise
// unchanged. Every function here is pure: bucket keys built downstream
// depend on the same input always producing the same label.
package normalize

import (
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Kind selects a rule table.
type Kind string

const (
	KindBank       Kind = "bank"
	KindOccupation Kind = "occupation"
	KindStatus     Kind = "status"
	KindCity       Kind = "city"
	KindState      Kind = "state"
)

// Sentinels returned for empty or placeholder input.
const (
	Unknown  = "Unknown"
	NoStatus = "No Status"
)

// Rule maps every label matching Pattern onto Canonical.
type Rule struct {
	Pattern   *regexp.Regexp
	Canonical string
}

func rule(pattern, canonical string) Rule {
	return Rule{Pattern: regexp.MustCompile(pattern), Canonical: canonical}
}

// RuleSet is a prioritized rule table for one kind.
type RuleSet struct {
	Kind  Kind
	Rules []Rule
	// Empty is returned for blank and placeholder input.
	Empty string
	// TitleCase unmatched input instead of passing it through.
	TitleCase bool
}

// Match returns the canonical label of the first matching rule.
func (rs *RuleSet) Match(key string) (string, bool) {
	for _, r := range rs.Rules {
		if r.Pattern.MatchString(key) {
			return r.Canonical, true
		}
	}
	return "", false
}

var tables = map[Kind]*RuleSet{
	KindBank:       bankRules,
	KindOccupation: occupationRules,
	KindStatus:     statusRules,
	KindCity:       cityRules,
	KindState:      stateRules,
}

// Normalize maps raw onto the canonical label for kind. It never fails:
// unknown kinds return the trimmed input.
func Normalize(kind Kind, raw string) string {
	rs, ok := tables[kind]
	if !ok {
		return strings.TrimSpace(raw)
	}
	return rs.Apply(raw)
}

// Apply runs the rule table against raw.
func (rs *RuleSet) Apply(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if isPlaceholder(trimmed) {
		return rs.Empty
	}
	if canonical, ok := rs.Match(MatchKey(trimmed)); ok {
		return canonical
	}
	if rs.TitleCase {
		return titleCase(trimmed)
	}
	return trimmed
}

// Bank normalizes a lender / card issuer name.
func Bank(raw string) string { return bankRules.Apply(raw) }

// Occupation normalizes an occupation / employment type.
func Occupation(raw string) string { return occupationRules.Apply(raw) }

// Status normalizes a lead or client status. Blank values and the dash
// placeholders written by the intake form become NoStatus.
func Status(raw string) string { return statusRules.Apply(raw) }

// City normalizes a city name, folding historic and alternate spellings.
func City(raw string) string { return cityRules.Apply(raw) }

// State normalizes an Indian state / UT name.
func State(raw string) string { return stateRules.Apply(raw) }

// MatchKey upper-cases s and collapses internal whitespace.
func MatchKey(s string) string {
	return strings.Join(strings.Fields(strings.ToUpper(s)), " ")
}

var placeholders = map[string]bool{
	"-": true, "–": true, "—": true, "--": true,
	"N/A": true, "NA": true, "NULL": true, "NONE": true, "UNDEFINED": true,
}

func isPlaceholder(s string) bool {
	return s == "" || placeholders[strings.ToUpper(s)]
}

// titleCase builds a fresh Caser per call; Casers are stateful.
func titleCase(s string) string {
	return cases.Title(language.English).String(strings.Join(strings.Fields(s), " "))
}
