package missions

import (
	"math/rand/v2"
	"time"

	"github.com/udisondev/blazecoop/internal/model"
	"github.com/udisondev/blazecoop/internal/refdata"
)

// offsetHours are the six daily wall-clock hours at which the scheduler
// issues missions: (n*4)-1 for n in 1..6 (spec.md §4.I).
var offsetHours = [6]int{3, 7, 11, 15, 19, 23}

// spec is one mission to create at a given offset: a fixed kind and
// difficulty, with every other attribute drawn at random from reference
// data when the mission is actually built.
type spec struct {
	Kind       model.MissionKind
	Difficulty model.MissionDifficulty
}

// recipe is the fixed table from spec.md §4.I: offset index (1-based,
// matching offsetHours) to the missions created at that offset.
var recipe = map[int][]spec{
	1: {{model.MissionStandard, model.DifficultyBronze}, {model.MissionApex, model.DifficultyBronze}},
	2: {{model.MissionStandard, model.DifficultySilver}},
	3: {{model.MissionStandard, model.DifficultyGold}},
	4: {{model.MissionStandard, model.DifficultyBronze}, {model.MissionApex, model.DifficultyGold}},
	5: {
		{model.MissionStandard, model.DifficultySilver},
		{model.MissionApex, model.DifficultySilver},
		{model.MissionApex, model.DifficultyPlatinum},
	},
	6: {{model.MissionStandard, model.DifficultyGold}},
}

// weightedPick returns the index of one of weights, chosen proportionally
// to its weight. Grounded on combat.CalculateDrops's roll-against-a-scaled-
// chance idiom, generalized from a pass/fail roll to a selection among N
// buckets.
func weightedPick(weights []int) int {
	total := 0
	for _, w := range weights {
		total += w
	}
	roll := rand.IntN(total)
	for i, w := range weights {
		if roll < w {
			return i
		}
		roll -= w
	}
	return len(weights) - 1
}

// pickAccessibility applies the SinglePlayer 6 / Any 3 / MultiPlayer 1
// weighting from spec.md §4.I.
func pickAccessibility() model.MissionAccessibility {
	options := []model.MissionAccessibility{model.AccessibilitySinglePlayer, model.AccessibilityAny, model.AccessibilityMultiPlayer}
	weights := []int{6, 3, 1}
	return options[weightedPick(weights)]
}

// pickDifficulty applies the bronze 8 / silver 6 / gold 2 / platinum 1
// weighting from spec.md §4.I. The scheduler's scheduled offsets fix
// difficulty via recipe instead of calling this; it exists for the
// generic "construct a mission from reference data" procedure the spec
// describes; nothing in the package or its tests calls it.
func pickDifficulty() model.MissionDifficulty {
	options := []model.MissionDifficulty{model.DifficultyBronze, model.DifficultySilver, model.DifficultyGold, model.DifficultyPlatinum}
	weights := []int{8, 6, 2, 1}
	return options[weightedPick(weights)]
}

func pickDescriptor(descriptors []refdata.MissionDescriptor) refdata.MissionDescriptor {
	if len(descriptors) == 0 {
		return refdata.MissionDescriptor{Name: "unknown"}
	}
	return descriptors[rand.IntN(len(descriptors))]
}

func pickTag(tags []string, fallback string) string {
	if len(tags) == 0 {
		return fallback
	}
	return tags[rand.IntN(len(tags))]
}

// pickGameTags draws two distinct game tags, falling back to a single
// repeated tag when the descriptor doesn't offer two.
func pickGameTags(tags []string) []string {
	if len(tags) == 0 {
		return []string{"default"}
	}
	if len(tags) == 1 {
		return []string{tags[0], tags[0]}
	}
	first := rand.IntN(len(tags))
	second := rand.IntN(len(tags) - 1)
	if second >= first {
		second++
	}
	return []string{tags[first], tags[second]}
}

func pickLevel(min, max uint32) uint32 {
	if max <= min {
		return min
	}
	return min + uint32(rand.IntN(int(max-min+1)))
}

// difficultyWeight scales reward size; platinum missions pay out 8x what
// bronze ones do.
func difficultyWeight(d model.MissionDifficulty) uint64 {
	switch d {
	case model.DifficultyBronze:
		return 1
	case model.DifficultySilver:
		return 2
	case model.DifficultyGold:
		return 4
	case model.DifficultyPlatinum:
		return 8
	default:
		return 1
	}
}

// accessibilityMultiplier rewards missions open to more players slightly
// more, since they're harder to fill and complete.
func accessibilityMultiplier(a model.MissionAccessibility) uint64 {
	switch a {
	case model.AccessibilityMultiPlayer:
		return 3
	case model.AccessibilityAny:
		return 2
	default:
		return 1
	}
}

// rewardsFor derives a mission's rewards block from its accessibility and
// difficulty, per spec.md §4.I.
func rewardsFor(accessibility model.MissionAccessibility, difficulty model.MissionDifficulty, kind model.MissionKind) map[string]uint64 {
	weight := difficultyWeight(difficulty) * accessibilityMultiplier(accessibility)
	kindBonus := uint64(1)
	if kind == model.MissionApex {
		kindBonus = 2
	}
	return map[string]uint64{
		string(model.CurrencyGrind):   50 * weight * kindBonus,
		string(model.CurrencyMission): 5 * weight * kindBonus,
	}
}

// build constructs one StrikeTeamMission from reference data for the
// given fixed kind and difficulty, drawing every other attribute at
// random (spec.md §4.I).
func build(tables *refdata.Tables, k model.MissionKind, difficulty model.MissionDifficulty, now time.Time) model.StrikeTeamMission {
	d := pickDescriptor(tables.MissionDescriptors)
	accessibility := pickAccessibility()
	minLevel, maxLevel := d.MinLevel, d.MaxLevel
	if maxLevel == 0 {
		minLevel, maxLevel = 1, 50
	}
	return model.StrikeTeamMission{
		DescriptorName: d.Name,
		Kind:           k,
		Accessibility:  accessibility,
		EnemyTag:       pickTag(d.EnemyTags, "unknown"),
		GameTags:       pickGameTags(d.GameTags),
		Difficulty:     difficulty,
		Level:          pickLevel(minLevel, maxLevel),
		Rewards:        rewardsFor(accessibility, difficulty, k),
		CreatedAt:      now,
	}
}
