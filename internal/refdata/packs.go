package refdata

import (
	"math/rand/v2"
	"strconv"

	"github.com/google/uuid"
)

// ItemRarity ranks drop rarity. Rarer items are weighted lower so commons
// stay the most frequent pack-draw result, mirroring the original item
// service's rarity weight table (Common 32, Uncommon 24, Rare 16, UltraRare
// 8; anything else falls back to 1).
type ItemRarity int

const (
	RarityCommon ItemRarity = iota
	RarityUncommon
	RarityRare
	RarityUltraRare
)

// Weight returns the sampling weight used when a filter node doesn't carry
// an explicit Weight of its own.
func (r ItemRarity) Weight() uint32 {
	switch r {
	case RarityCommon:
		return 32
	case RarityUncommon:
		return 24
	case RarityRare:
		return 16
	case RarityUltraRare:
		return 8
	default:
		return 1
	}
}

// Base category numbering, carried over from the item service's category
// enum (Characters 0, Weapons 1, WeaponMods 2, Boosters 3, Consumable 4,
// Equipment 5, ChallengeReward 7, ApexPoints 8, CapacityUpgrade 9,
// StrikeTeamReward 11, ItemPack 12, WeaponsSpecialized 13,
// WeaponModsEnhanced 14 — 6 and 10 were never assigned upstream).
const (
	CategoryCharacters         uint8 = 0
	CategoryWeapons            uint8 = 1
	CategoryWeaponMods         uint8 = 2
	CategoryBoosters           uint8 = 3
	CategoryConsumable         uint8 = 4
	CategoryEquipment          uint8 = 5
	CategoryChallengeReward    uint8 = 7
	CategoryApexPoints         uint8 = 8
	CategoryCapacityUpgrade    uint8 = 9
	CategoryStrikeTeamReward   uint8 = 11
	CategoryItemPack           uint8 = 12
	CategoryWeaponsSpecialized uint8 = 13
	CategoryWeaponModsEnhanced uint8 = 14
)

// Category is an item's base category plus an optional sub-category tag
// (e.g. "AssaultRifle" under Weapons). An empty Sub stands for "any
// sub-category of Base".
type Category struct {
	Base uint8
	Sub  string
}

// IsWithin reports whether c falls under other: different bases never
// match; a Sub-less other matches any Sub under the same Base.
func (c Category) IsWithin(other Category) bool {
	if c.Base != other.Base {
		return false
	}
	if other.Sub == "" {
		return true
	}
	return c.Sub == other.Sub
}

// String renders c the way the item service's Display impl did ("3" or
// "1:AssaultRifle"), since activity events key off this exact form.
func (c Category) String() string {
	if c.Sub == "" {
		return strconv.Itoa(int(c.Base))
	}
	return strconv.Itoa(int(c.Base)) + ":" + c.Sub
}

// Item is one droppable/ownable item definition (spec.md §3, §4.H's pack
// generation paragraph).
type Item struct {
	Name       uuid.UUID
	Category   Category
	Rarity     *ItemRarity
	Attributes map[string]string
	Capacity   uint32
	Consumable bool
	Droppable  bool
	Deletable  bool
	// IsPack marks an item whose own definition name doubles as a Pack
	// name in Tables.Packs (ItemPack/StrikeTeamReward category items).
	IsPack bool
}

// FilterKind distinguishes the nodes of a Filter tree.
type FilterKind int

const (
	FilterNamed FilterKind = iota
	FilterRarity
	FilterCategory
	FilterAttribute
	FilterAny
	FilterAnd
	FilterOr
	FilterNot
	FilterWeighted
)

// Filter is one node of the recursive weighted filter tree a pack
// collection draws its candidates from (spec.md §4.H: "a tree of
// And/Or/Not/Category/Rarity/Attribute/Named nodes with aggregated
// weights"). Grounded on the item service's ItemFilter enum and its
// recursive check(item) -> (matches, weight).
type Filter struct {
	Kind     FilterKind
	Name     uuid.UUID       // FilterNamed
	Rarity   ItemRarity      // FilterRarity
	Category Category        // FilterCategory
	Attr     AttributeFilter // FilterAttribute, checked against Item.Attributes
	Weight   uint32          // FilterWeighted
	Children []Filter        // FilterAny (any count), And/Or (2), Not/Weighted (1)
}

// Named matches the single item definition name.
func Named(name uuid.UUID) Filter { return Filter{Kind: FilterNamed, Name: name} }

// ByRarity matches any item of the given rarity.
func ByRarity(r ItemRarity) Filter { return Filter{Kind: FilterRarity, Rarity: r} }

// ByCategory matches any item within the given category.
func ByCategory(c Category) Filter { return Filter{Kind: FilterCategory, Category: c} }

// ByAttribute matches an item whose Attributes satisfy f.
func ByAttribute(f AttributeFilter) Filter { return Filter{Kind: FilterAttribute, Attr: f} }

// AnyOf matches any item matched by one of fs, aggregating weight across
// every branch that matched (not just the first, mirroring the original's
// Filter::Any accumulation).
func AnyOf(fs ...Filter) Filter { return Filter{Kind: FilterAny, Children: fs} }

// And matches items satisfying both l and r, summing their weights.
func And(l, r Filter) Filter { return Filter{Kind: FilterAnd, Children: []Filter{l, r}} }

// Or matches items satisfying either l or r, preferring l's weight when
// both match.
func Or(l, r Filter) Filter { return Filter{Kind: FilterOr, Children: []Filter{l, r}} }

// Not inverts f; the inner weight still propagates so a negated rarity
// filter can still be combined with an explicit Weighted wrapper.
func Not(f Filter) Filter { return Filter{Kind: FilterNot, Children: []Filter{f}} }

// WithWeight adds weight to whatever f already carries when f matches.
func WithWeight(f Filter, weight uint32) Filter {
	return Filter{Kind: FilterWeighted, Weight: weight, Children: []Filter{f}}
}

// Check reports whether item matches f and the aggregate weight
// accumulated along the matching branch. A zero weight means "no explicit
// weight was ever attached"; callers fall back to the item's own rarity
// weight in that case (see PackCollection.draw).
func (f Filter) Check(item Item) (bool, uint32) {
	switch f.Kind {
	case FilterNamed:
		return item.Name == f.Name, 0
	case FilterRarity:
		return item.Rarity != nil && *item.Rarity == f.Rarity, 0
	case FilterCategory:
		return item.Category.IsWithin(f.Category), 0
	case FilterAttribute:
		return f.Attr.Matches(item.Attributes), 0
	case FilterAny:
		var matched bool
		var total uint32
		for _, c := range f.Children {
			ok, w := c.Check(item)
			if ok {
				total += w
				matched = true
			}
		}
		return matched, total
	case FilterAnd:
		l, w1 := f.Children[0].Check(item)
		r, w2 := f.Children[1].Check(item)
		return l && r, w1 + w2
	case FilterOr:
		l, w1 := f.Children[0].Check(item)
		if l {
			return true, w1
		}
		r, w2 := f.Children[1].Check(item)
		return r, w2
	case FilterNot:
		ok, w := f.Children[0].Check(item)
		return !ok, w
	case FilterWeighted:
		ok, w := f.Children[0].Check(item)
		return ok, w + f.Weight
	default:
		return false, 0
	}
}

// Reward is one item/stack-size pair produced by a pack draw.
type Reward struct {
	ItemName  uuid.UUID
	StackSize uint32
}

// PackCollection draws Amount rewards matching Filter, each granted with
// StackSize units, independently of every other collection in the same
// pack (the item service's ItemChance/PackCollection).
type PackCollection struct {
	Filter    Filter
	StackSize uint32
	Amount    int
}

// Pack is a named loot-box definition: an ordered set of collections, each
// sampled independently (the item service's Pack::generate_rewards).
type Pack struct {
	Name        uuid.UUID
	Collections []PackCollection
}

// GenerateRewards draws rewards for every collection in p against catalog,
// merging duplicate item names into a single stack (the original's
// RewardCollection dedup-by-name accumulator).
func (p Pack) GenerateRewards(catalog []Item) []Reward {
	var out []Reward
	for _, coll := range p.Collections {
		out = append(out, coll.draw(catalog)...)
	}
	return mergeRewards(out)
}

// draw samples without replacement, weighted by each candidate's explicit
// filter weight or, absent one, its rarity weight.
func (c PackCollection) draw(catalog []Item) []Reward {
	type candidate struct {
		item   Item
		weight uint32
	}

	var pool []candidate
	for _, item := range catalog {
		if !item.Droppable {
			continue
		}
		ok, w := c.Filter.Check(item)
		if !ok {
			continue
		}
		if w == 0 {
			if item.Rarity != nil {
				w = item.Rarity.Weight()
			} else {
				w = 1
			}
		}
		pool = append(pool, candidate{item, w})
	}

	n := c.Amount
	if n > len(pool) {
		n = len(pool)
	}

	var out []Reward
	for i := 0; i < n; i++ {
		var total uint32
		for _, cand := range pool {
			total += cand.weight
		}
		if total == 0 {
			break
		}
		pick := rand.N(total)
		idx := 0
		var running uint32
		for j, cand := range pool {
			running += cand.weight
			if pick < running {
				idx = j
				break
			}
		}
		out = append(out, Reward{ItemName: pool[idx].item.Name, StackSize: c.StackSize})
		pool = append(pool[:idx], pool[idx+1:]...)
	}
	return out
}

func mergeRewards(rewards []Reward) []Reward {
	index := make(map[uuid.UUID]int, len(rewards))
	var out []Reward
	for _, r := range rewards {
		if i, ok := index[r.ItemName]; ok {
			out[i].StackSize += r.StackSize
			continue
		}
		index[r.ItemName] = len(out)
		out = append(out, r)
	}
	return out
}
