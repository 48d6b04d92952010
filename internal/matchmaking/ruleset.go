// Package matchmaking decides, for a player requesting a quick-match or
// public-game creation, whether to join an existing game or create a new
// one, and maintains the queue of players waiting for a match (spec.md
// §4.G).
package matchmaking

import "strconv"

// matchFields use the "ignore if {field}MFT == matchAny" semantics.
var matchFields = []string{"difficulty", "enemytype", "level"}

// exactFields require the game's attribute to equal the request's value,
// with no ignore escape hatch.
var exactFields = []string{"coopGameVisibility", "missionSlot", "modifierCount", "modifiers"}

// Rule is one constraint a candidate game's attributes (and, for GameSize,
// its current player count) must satisfy.
type Rule interface {
	Matches(gameAttrs map[string]string, playerCount int) bool
}

type matchRule struct {
	field  string
	value  string
	ignore bool
}

func (r matchRule) Matches(attrs map[string]string, _ int) bool {
	if r.ignore {
		return true
	}
	return attrs[r.field] == r.value
}

type exactRule struct {
	field string
	value string
}

func (r exactRule) Matches(attrs map[string]string, _ int) bool {
	return attrs[r.field] == r.value
}

type gameSizeRule struct{ raw string }

func (r gameSizeRule) Matches(_ map[string]string, playerCount int) bool {
	if r.raw == "matchAny" {
		return true
	}
	n, err := strconv.Atoi(r.raw)
	if err != nil {
		return false
	}
	return n == playerCount
}

// RuleSet is the derived set of constraints from a matchmaking request,
// satisfying the game package's RuleSet interface.
type RuleSet struct {
	rules []Rule
}

// Matches reports whether every rule in the set holds against gameAttrs
// and playerCount. Attribute comparison is case-sensitive string equality
// throughout (spec.md §4.G).
func (rs RuleSet) Matches(gameAttrs map[string]string, playerCount int) bool {
	for _, r := range rs.rules {
		if !r.Matches(gameAttrs, playerCount) {
			return false
		}
	}
	return true
}

// Derive builds a RuleSet from a matchmaking request's attribute-value
// pairs. Only fields actually present in attrs contribute a rule; the
// {field}MFT companion attribute (when present) selects the Match rule's
// ignore behavior.
func Derive(attrs map[string]string) RuleSet {
	var rules []Rule

	for _, f := range matchFields {
		v, ok := attrs[f]
		if !ok {
			continue
		}
		mode := attrs[f+"MFT"]
		rules = append(rules, matchRule{field: f, value: v, ignore: mode == "matchAny"})
	}

	for _, f := range exactFields {
		v, ok := attrs[f]
		if !ok {
			continue
		}
		rules = append(rules, exactRule{field: f, value: v})
	}

	if v, ok := attrs["GameSize"]; ok {
		rules = append(rules, gameSizeRule{raw: v})
	}

	return RuleSet{rules: rules}
}
