package refdata

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadBuildsIndexes(t *testing.T) {
	tables, err := Load(
		[]LevelTable{{Name: "standard", XP: []uint64{0, 100, 300}}},
		[]ClassDescriptor{{Name: "Vanguard", LevelTableName: "standard"}},
		nil, nil, nil, nil, nil, nil, nil,
	)
	require.NoError(t, err)

	lt, ok := tables.LevelTable("standard")
	require.True(t, ok)
	assert.Equal(t, uint64(300), lt.XP[2])

	_, ok = tables.LevelTable("missing")
	assert.False(t, ok)

	c, ok := tables.Class("Vanguard")
	require.True(t, ok)
	assert.Equal(t, "standard", c.LevelTableName)
}

func TestLoadRejectsDuplicateNames(t *testing.T) {
	_, err := Load(
		[]LevelTable{{Name: "standard"}, {Name: "standard"}},
		nil, nil, nil, nil, nil, nil, nil, nil,
	)
	assert.Error(t, err)
}

func TestLevelTableNext(t *testing.T) {
	lt := LevelTable{XP: []uint64{0, 100, 300}}
	next, ok := lt.Next(0)
	require.True(t, ok)
	assert.Equal(t, uint64(100), next)

	_, ok = lt.Next(2)
	assert.False(t, ok)
}

func TestAttributeFilterMatches(t *testing.T) {
	attrs := map[string]string{"category": "12"}

	assert.True(t, AttributeFilter{Key: "category", Value: "12"}.Matches(attrs))
	assert.False(t, AttributeFilter{Key: "category", Value: "99"}.Matches(attrs))
	assert.True(t, AttributeFilter{Key: "category", Value: "99", Not: true}.Matches(attrs))
	assert.False(t, AttributeFilter{Key: "category", Value: "12", Not: true}.Matches(attrs))
}

func TestFindBadgeFirstMatchWins(t *testing.T) {
	tables, err := Load(nil, nil, []BadgeDescriptor{
		{ID: "a", ActivityName: "ItemConsumed"},
		{ID: "b", ActivityName: "ItemConsumed"},
	}, nil, nil, nil, nil, nil, nil)
	require.NoError(t, err)

	b, ok := tables.FindBadge("ItemConsumed", nil)
	require.True(t, ok)
	assert.Equal(t, "a", b.ID)
}

func TestFormulaApply(t *testing.T) {
	add := Formula{Kind: FormulaAdditive, Amount: 10}
	assert.Equal(t, float64(60), add.Apply(50))

	mul := Formula{Kind: FormulaMultiplicative, Amount: 1.5}
	assert.Equal(t, float64(75), mul.Apply(50))
}

func TestLoadFromFileMissingReturnsEmptyTables(t *testing.T) {
	tables, err := LoadFromFile(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Empty(t, tables.LevelTables)
	assert.Empty(t, tables.Classes)
}

func TestLoadFromFileParsesSeed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "refdata.yaml")
	seedYAML := `
level_tables:
  - name: standard
    xp: [0, 100, 300]
classes:
  - name: Vanguard
    leveltablename: standard
`
	require.NoError(t, os.WriteFile(path, []byte(seedYAML), 0o644))

	tables, err := LoadFromFile(path)
	require.NoError(t, err)

	lt, ok := tables.LevelTable("standard")
	require.True(t, ok)
	assert.Equal(t, uint64(300), lt.XP[2])

	c, ok := tables.Class("Vanguard")
	require.True(t, ok)
	assert.Equal(t, "standard", c.LevelTableName)
}
