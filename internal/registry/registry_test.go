package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arguspanoptes/argus-server/internal/domain"
)

func testSystems() []domain.LibrarySystem {
	return []domain.LibrarySystem{
		{ID: "zebra", Name: "Zebra", Enabled: true},
		{ID: "alpha", Name: "Alpha", Enabled: true},
		{ID: "dark", Name: "Dark", Enabled: false},
	}
}

func TestNewSortsByID(t *testing.T) {
	r := New(testSystems())

	all := r.All()
	require.Len(t, all, 3)
	assert.Equal(t, domain.LibrarySystemId("alpha"), all[0].ID)
	assert.Equal(t, domain.LibrarySystemId("dark"), all[1].ID)
	assert.Equal(t, domain.LibrarySystemId("zebra"), all[2].ID)
	assert.Equal(t, 3, r.Len())
	assert.False(t, r.LoadedAt().IsZero())
}

func TestSystemsExcludesDisabled(t *testing.T) {
	r := New(testSystems())

	enabled := r.Systems()
	require.Len(t, enabled, 2)
	for _, s := range enabled {
		assert.True(t, s.Enabled)
	}
}

func TestSystemLookup(t *testing.T) {
	r := New(testSystems())

	s, ok := r.System("alpha")
	require.True(t, ok)
	assert.Equal(t, "Alpha", s.Name)

	// The returned value is a copy.
	s.Name = "Mutated"
	again, _ := r.System("alpha")
	assert.Equal(t, "Alpha", again.Name)

	_, ok = r.System("missing")
	assert.False(t, ok)
}

func TestReplaceSwapsWholeSet(t *testing.T) {
	r := New(testSystems())
	before := r.LoadedAt()

	r.Replace([]domain.LibrarySystem{
		{ID: "omega", Name: "Omega", Enabled: true},
	})

	assert.Equal(t, 1, r.Len())
	_, ok := r.System("alpha")
	assert.False(t, ok)
	_, ok = r.System("omega")
	assert.True(t, ok)
	assert.False(t, r.LoadedAt().Before(before))
}

func TestReplaceCopiesInput(t *testing.T) {
	input := testSystems()
	r := New(input)

	input[0].Name = "Clobbered"

	s, ok := r.System("zebra")
	require.True(t, ok)
	assert.Equal(t, "Zebra", s.Name)
}
