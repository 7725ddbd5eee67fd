package teams

import (
	"testing"

	"scorebook/pipeline/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testAliases() []models.TeamAlias {
	return []models.TeamAlias{
		{RawLabel: "LAK", CanonicalName: "Los Angeles Kings"},
		{RawLabel: "L.A. Kings", CanonicalName: "Los Angeles Kings"},
		{RawLabel: "BOS", CanonicalName: "Boston Bruins"},
		{RawLabel: "Boston", CanonicalName: "Boston Bruins"},
		{RawLabel: "PHX", CanonicalName: "Phoenix Coyotes"},
		{RawLabel: "ARI", CanonicalName: "Arizona Coyotes"},
	}
}

func TestNormalizeLabel(t *testing.T) {
	assert.Equal(t, "LAKINGS", NormalizeLabel("L.A. Kings"), "Punctuation and spaces should be stripped")
	assert.Equal(t, "STLOUIS", NormalizeLabel("st_louis"), "Underscores should be stripped and case raised")
	assert.Equal(t, "TAMPABAY", NormalizeLabel("Tampa-Bay"), "Hyphens should be stripped")

	// Normalizing an already-normalized key returns itself
	key := NormalizeLabel("Los Angeles Kings")
	assert.Equal(t, key, NormalizeLabel(key), "Normalization should be idempotent")
}

func TestResolver_Resolve(t *testing.T) {
	r := NewResolver(testAliases())

	name, ok := r.Resolve("LAK")
	require.True(t, ok, "Known abbreviation should resolve")
	assert.Equal(t, "Los Angeles Kings", name)

	name, ok = r.Resolve("l.a. kings")
	require.True(t, ok, "Case and punctuation variants should resolve")
	assert.Equal(t, "Los Angeles Kings", name)

	// Labels normalizing to the same key must resolve identically
	first, ok1 := r.Resolve("L.A. Kings")
	second, ok2 := r.Resolve("LA KINGS")
	require.True(t, ok1 && ok2, "Both variants should resolve")
	assert.Equal(t, first, second, "Same normalized key must yield the same canonical name")
}

func TestResolver_CanonicalIdempotence(t *testing.T) {
	r := NewResolver(testAliases())

	name, ok := r.Resolve("Los Angeles Kings")
	require.True(t, ok, "Canonical name should resolve to itself")
	assert.Equal(t, "Los Angeles Kings", name)
}

func TestResolver_Unmapped(t *testing.T) {
	r := NewResolver(testAliases())

	name, ok := r.Resolve("Narnia Lions")
	assert.False(t, ok, "Unknown label must not resolve")
	assert.Empty(t, name, "Unmapped lookup must not invent a name")

	_, ok = r.Resolve("")
	assert.False(t, ok, "Empty label must not resolve")

	_, ok = r.Resolve("  .-_ ")
	assert.False(t, ok, "Label that normalizes to nothing must not resolve")
}

func TestResolver_RelocatedFranchises(t *testing.T) {
	r := NewResolver(testAliases())

	phx, ok := r.Resolve("PHX")
	require.True(t, ok)
	ari, ok := r.Resolve("ARI")
	require.True(t, ok)
	assert.NotEqual(t, phx, ari, "Era-specific aliases should stay distinct canonical names")
}

func TestResolver_Canonicals(t *testing.T) {
	r := NewResolver(testAliases())

	names := r.Canonicals()
	assert.Equal(t, []string{"Arizona Coyotes", "Boston Bruins", "Los Angeles Kings", "Phoenix Coyotes"}, names,
		"Canonical names should be distinct and sorted")
}
