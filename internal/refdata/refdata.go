// Package refdata holds the read-only-after-boot reference tables from
// spec.md §3: items, classes, level tables, challenges, badges, packs, and
// strike-team descriptors. Each table is a slice, some with a companion
// lookup map (items, packs and store articles by id), loaded once at
// process start and never mutated again, so lookups
// need no synchronization.
//
// Grounded on internal/data's ExperienceTable/ClassData convention of
// package-level slices with a companion index.
package refdata

import (
	"fmt"
	"os"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// LevelTable maps a zero-based level to the cumulative XP required to reach
// it, mirroring internal/data.ExperienceTable's shape.
type LevelTable struct {
	Name string
	// XP[i] is the cumulative XP required to reach level i. XP[0] is always 0.
	XP []uint64
}

// Next returns the XP threshold for the level after current, or false if
// current is already the table's max level.
func (t LevelTable) Next(current uint32) (uint64, bool) {
	if int(current)+1 >= len(t.XP) {
		return 0, false
	}
	return t.XP[current+1], true
}

// ClassDescriptor names a playable class and its leveling/prestige tables.
type ClassDescriptor struct {
	Name               string
	LevelTableName     string
	PrestigeTableName  string
}

// BadgeLevel is one threshold of a badge ladder.
type BadgeLevel struct {
	Name        string
	TargetCount uint64
	XP          uint64
	Currencies  map[string]uint64
}

// AttributeFilter matches an activity event's attribute map. The attribute
// must be present and equal to Value unless Not is set, in which case the match succeeds only when the attribute is absent or
// unequal (the spec's `{"$ne": v}` shape).
type AttributeFilter struct {
	Key   string
	Value string
	Not   bool
}

// Matches reports whether attrs satisfies f.
func (f AttributeFilter) Matches(attrs map[string]string) bool {
	v, ok := attrs[f.Key]
	if f.Not {
		return !ok || v != f.Value
	}
	return ok && v == f.Value
}

// BadgeDescriptor describes one badge: the activity it tracks and its
// reward ladder.
type BadgeDescriptor struct {
	ID          string // UUID string, doubles as the reward-source name
	Name        string
	ActivityName string
	Filters     []AttributeFilter
	ProgressKey string
	Levels      []BadgeLevel // ascending by TargetCount
}

// Matches reports whether an activity event named activityName with attrs
// is tracked by this badge.
func (b BadgeDescriptor) Matches(activityName string, attrs map[string]string) bool {
	if activityName != b.ActivityName {
		return false
	}
	for _, f := range b.Filters {
		if !f.Matches(attrs) {
			return false
		}
	}
	return true
}

// ChallengeDescriptor describes one challenge and the counter it tracks.
type ChallengeDescriptor struct {
	ChallengeID  string
	CounterName  string
	ActivityName string
	Filters      []AttributeFilter
	TargetCount  uint64
	Repeatable   bool
}

func (c ChallengeDescriptor) Matches(activityName string, attrs map[string]string) bool {
	if activityName != c.ActivityName {
		return false
	}
	for _, f := range c.Filters {
		if !f.Matches(attrs) {
			return false
		}
	}
	return true
}

// ModifierValue is one recognized value of a match modifier, with the
// formulas applied when that value is present in a report.
type ModifierValue struct {
	Value      string
	XPFormula  Formula
	Currencies map[string]Formula
}

// ModifierDescriptor is a named match modifier (spec.md §4.H step 5).
type ModifierDescriptor struct {
	Name   string
	Values []ModifierValue
}

// FormulaKind distinguishes additive from multiplicative reward formulas.
type FormulaKind int

const (
	FormulaAdditive FormulaKind = iota
	FormulaMultiplicative
)

// Formula is either "add Amount" or "multiply running total by Amount".
type Formula struct {
	Kind   FormulaKind
	Amount float64
}

// Apply folds f into running, returning the new running total.
func (f Formula) Apply(running float64) float64 {
	switch f.Kind {
	case FormulaMultiplicative:
		return running * f.Amount
	default:
		return running + f.Amount
	}
}

// MissionDescriptor is a template the scheduler draws from to construct a
// StrikeTeamMission instance.
type MissionDescriptor struct {
	Name      string
	EnemyTags []string
	GameTags  []string
	MinLevel  uint32
	MaxLevel  uint32
}

// Tables is the process-wide set of loaded reference data. Built once at
// boot by Load and never mutated afterward.
type Tables struct {
	LevelTables   []LevelTable
	levelIndex    map[string]int
	Classes       []ClassDescriptor
	classIndex    map[string]int
	Badges        []BadgeDescriptor
	Challenges    []ChallengeDescriptor
	Modifiers     []ModifierDescriptor
	modifierIndex map[string]int
	MissionDescriptors []MissionDescriptor

	// Items, Packs, and StoreArticles back the inventory-consume and
	// store-purchase pipelines (spec.md §4.H final paragraph).
	Items         []Item
	itemIndex     map[uuid.UUID]int
	Packs         []Pack
	packIndex     map[uuid.UUID]int
	StoreArticles []StoreArticle
	articleIndex  map[uuid.UUID]int
}

// LevelTable looks up a level table by name.
func (t *Tables) LevelTable(name string) (LevelTable, bool) {
	i, ok := t.levelIndex[name]
	if !ok {
		return LevelTable{}, false
	}
	return t.LevelTables[i], true
}

// Class looks up a class descriptor by name.
func (t *Tables) Class(name string) (ClassDescriptor, bool) {
	i, ok := t.classIndex[name]
	if !ok {
		return ClassDescriptor{}, false
	}
	return t.Classes[i], true
}

// Modifier looks up a modifier descriptor by name.
func (t *Tables) Modifier(name string) (ModifierDescriptor, bool) {
	i, ok := t.modifierIndex[name]
	if !ok {
		return ModifierDescriptor{}, false
	}
	return t.Modifiers[i], true
}

// FindBadge returns the first badge descriptor matching the activity, per
// spec.md §4.H step 3 ("first badge whose descriptor matches").
func (t *Tables) FindBadge(activityName string, attrs map[string]string) (BadgeDescriptor, bool) {
	for _, b := range t.Badges {
		if b.Matches(activityName, attrs) {
			return b, true
		}
	}
	return BadgeDescriptor{}, false
}

// FindChallenge returns the first challenge descriptor matching the
// activity.
func (t *Tables) FindChallenge(activityName string, attrs map[string]string) (ChallengeDescriptor, bool) {
	for _, c := range t.Challenges {
		if c.Matches(activityName, attrs) {
			return c, true
		}
	}
	return ChallengeDescriptor{}, false
}

// FindItem looks up an item definition by name.
func (t *Tables) FindItem(name uuid.UUID) (Item, bool) {
	i, ok := t.itemIndex[name]
	if !ok {
		return Item{}, false
	}
	return t.Items[i], true
}

// FindPack looks up a pack definition by name (the same name as the item
// definition it is consumed from).
func (t *Tables) FindPack(name uuid.UUID) (Pack, bool) {
	i, ok := t.packIndex[name]
	if !ok {
		return Pack{}, false
	}
	return t.Packs[i], true
}

// FindArticle looks up a store catalog article by name.
func (t *Tables) FindArticle(name uuid.UUID) (StoreArticle, bool) {
	i, ok := t.articleIndex[name]
	if !ok {
		return StoreArticle{}, false
	}
	return t.StoreArticles[i], true
}

// Load builds the index maps over the given tables. Call once at boot
// after populating the slice fields (from static data or a seed file).
func Load(levelTables []LevelTable, classes []ClassDescriptor, badges []BadgeDescriptor, challenges []ChallengeDescriptor, modifiers []ModifierDescriptor, missions []MissionDescriptor, items []Item, packs []Pack, articles []StoreArticle) (*Tables, error) {
	t := &Tables{
		LevelTables:        levelTables,
		classIndex:         make(map[string]int, len(classes)),
		levelIndex:         make(map[string]int, len(levelTables)),
		Classes:            classes,
		Badges:             badges,
		Challenges:         challenges,
		Modifiers:          modifiers,
		modifierIndex:      make(map[string]int, len(modifiers)),
		MissionDescriptors: missions,
		Items:              items,
		itemIndex:          make(map[uuid.UUID]int, len(items)),
		Packs:              packs,
		packIndex:          make(map[uuid.UUID]int, len(packs)),
		StoreArticles:      articles,
		articleIndex:       make(map[uuid.UUID]int, len(articles)),
	}
	for i, lt := range levelTables {
		if _, dup := t.levelIndex[lt.Name]; dup {
			return nil, fmt.Errorf("refdata: duplicate level table name %q", lt.Name)
		}
		t.levelIndex[lt.Name] = i
	}
	for i, c := range classes {
		if _, dup := t.classIndex[c.Name]; dup {
			return nil, fmt.Errorf("refdata: duplicate class name %q", c.Name)
		}
		t.classIndex[c.Name] = i
	}
	for i, m := range modifiers {
		if _, dup := t.modifierIndex[m.Name]; dup {
			return nil, fmt.Errorf("refdata: duplicate modifier name %q", m.Name)
		}
		t.modifierIndex[m.Name] = i
	}
	for i, it := range items {
		if _, dup := t.itemIndex[it.Name]; dup {
			return nil, fmt.Errorf("refdata: duplicate item name %q", it.Name)
		}
		t.itemIndex[it.Name] = i
	}
	for i, pk := range packs {
		if _, dup := t.packIndex[pk.Name]; dup {
			return nil, fmt.Errorf("refdata: duplicate pack name %q", pk.Name)
		}
		t.packIndex[pk.Name] = i
	}
	for i, a := range articles {
		if _, dup := t.articleIndex[a.Name]; dup {
			return nil, fmt.Errorf("refdata: duplicate store article name %q", a.Name)
		}
		t.articleIndex[a.Name] = i
	}
	return t, nil
}

// seed is the on-disk shape of the static content definitions spec.md §1
// calls out as an external collaborator ("loaded once at boot"). The
// authoring pipeline that produces this file (item/class/badge/challenge
// content tools) is out of scope; LoadFromFile only needs to parse its
// output into the typed tables the core consumes.
type seed struct {
	LevelTables []LevelTable          `yaml:"level_tables"`
	Classes     []ClassDescriptor     `yaml:"classes"`
	Badges      []BadgeDescriptor     `yaml:"badges"`
	Challenges  []ChallengeDescriptor `yaml:"challenges"`
	Modifiers   []ModifierDescriptor  `yaml:"modifiers"`
	Missions    []MissionDescriptor   `yaml:"missions"`
	Items       []Item                `yaml:"items"`
	Packs       []Pack                `yaml:"packs"`
	Articles    []StoreArticle        `yaml:"store_articles"`
}

// LoadFromFile reads a YAML seed file and builds Tables from it, following
// config.Load's "missing file falls back to an empty default" convention
// since the content pipeline that produces a populated seed is out of
// scope here.
func LoadFromFile(path string) (*Tables, error) {
	var s seed

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("refdata: reading seed %q: %w", path, err)
		}
	} else if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("refdata: parsing seed %q: %w", path, err)
	}

	return Load(s.LevelTables, s.Classes, s.Badges, s.Challenges, s.Modifiers, s.Missions, s.Items, s.Packs, s.Articles)
}
