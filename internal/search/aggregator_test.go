package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arguspanoptes/argus-server/internal/domain"
)

func holding(system, branch string, status domain.ItemStatus, fingerprint string) domain.BookHolding {
	return domain.BookHolding{
		SystemID:    domain.LibrarySystemId(system),
		SystemName:  system,
		BranchID:    domain.BranchId(system + "-" + branch),
		BranchName:  branch,
		Status:      status,
		Source:      domain.SourceDirect,
		Fingerprint: fingerprint,
	}
}

func TestAggregateDedupsFingerprints(t *testing.T) {
	first := holding("wheatland", "warman", domain.StatusAvailable, "fp-1")
	first.CallNumber = "kept"
	dup := holding("wheatland", "warman", domain.StatusCheckedOut, "fp-1")
	dup.CallNumber = "dropped"

	result := &domain.SearchResult{Holdings: []domain.BookHolding{
		first,
		dup,
		holding("wheatland", "warman", domain.StatusAvailable, "fp-2"),
	}}
	Aggregate(result)

	require.Len(t, result.Holdings, 2)
	assert.Equal(t, "kept", result.Holdings[0].CallNumber)
	assert.Equal(t, "fp-2", result.Holdings[1].Fingerprint)
}

func TestAggregateDirectShadowsAggregated(t *testing.T) {
	direct := holding("wheatland", "warman", domain.StatusAvailable, "fp-1")
	shadowed := holding("wheatland", "warman", domain.StatusAvailable, "fp-2")
	shadowed.Source = domain.SourceAggregated
	// No direct holdings for chinook, so its aggregated rows survive.
	unionOnly := holding("chinook", "swift-current", domain.StatusAvailable, "fp-3")
	unionOnly.Source = domain.SourceAggregated

	result := &domain.SearchResult{Holdings: []domain.BookHolding{direct, shadowed, unionOnly}}
	Aggregate(result)

	require.Len(t, result.Holdings, 2)
	assert.Equal(t, "fp-1", result.Holdings[0].Fingerprint)
	assert.Equal(t, "fp-3", result.Holdings[1].Fingerprint)
}

func TestAggregateSummaries(t *testing.T) {
	two := 2
	holds := 5

	checkedOut := holding("wheatland", "martensville", domain.StatusCheckedOut, "fp-2")
	checkedOut.HoldCount = &holds
	multi := holding("chinook", "shaunavon", domain.StatusAvailable, "fp-4")
	multi.CopyCount = &two

	result := &domain.SearchResult{Holdings: []domain.BookHolding{
		holding("wheatland", "warman", domain.StatusAvailable, "fp-1"),
		checkedOut,
		holding("chinook", "swift-current", domain.StatusAvailable, "fp-3"),
		multi,
		holding("chinook", "swift-current", domain.StatusInTransit, "fp-5"),
	}}
	Aggregate(result)

	require.Len(t, result.Systems, 2)

	// chinook has three available copies to wheatland's one, so it sorts
	// first.
	chinook := result.Systems[0]
	assert.Equal(t, domain.LibrarySystemId("chinook"), chinook.SystemID)
	assert.Equal(t, 4, chinook.TotalCopies)
	assert.Equal(t, 3, chinook.AvailableCopies)
	assert.Equal(t, 0, chinook.CheckedOutCopies)
	require.Len(t, chinook.Branches, 2)
	// Branches sort by name.
	assert.Equal(t, "shaunavon", chinook.Branches[0].BranchName)
	assert.Equal(t, 2, chinook.Branches[0].AvailableCopies)
	assert.Equal(t, "swift-current", chinook.Branches[1].BranchName)
	assert.Equal(t, 2, chinook.Branches[1].TotalCopies)
	assert.Equal(t, 1, chinook.Branches[1].AvailableCopies)

	wheatland := result.Systems[1]
	assert.Equal(t, 2, wheatland.TotalCopies)
	assert.Equal(t, 1, wheatland.AvailableCopies)
	assert.Equal(t, 1, wheatland.CheckedOutCopies)
	assert.Equal(t, 5, wheatland.HoldCount)

	assert.Equal(t, 6, result.TotalCopies)
	assert.Equal(t, 4, result.TotalAvailable)
}

func TestAggregateEmpty(t *testing.T) {
	result := &domain.SearchResult{}
	Aggregate(result)
	assert.Empty(t, result.Holdings)
	assert.Empty(t, result.Systems)
	assert.Zero(t, result.TotalCopies)
	assert.Zero(t, result.TotalAvailable)
}

func TestAggregateTiebreakBySystemName(t *testing.T) {
	result := &domain.SearchResult{Holdings: []domain.BookHolding{
		holding("zebra", "main", domain.StatusAvailable, "fp-1"),
		holding("alpha", "main", domain.StatusAvailable, "fp-2"),
	}}
	Aggregate(result)

	require.Len(t, result.Systems, 2)
	assert.Equal(t, "alpha", result.Systems[0].SystemName)
	assert.Equal(t, "zebra", result.Systems[1].SystemName)
}
