// Package search runs the federated fan-out: one coordinator drives every
// enabled system's adapters under shared deadlines and the aggregator
// consolidates what came back.
package search

import (
	"sort"

	"github.com/arguspanoptes/argus-server/internal/domain"
)

// Aggregate consolidates raw adapter holdings in place on the result:
// fingerprint dedup, cross-source dedup, grouping into system and branch
// summaries, and totals.
//
// Cross-source dedup prefers real-time data: when any direct holding
// exists for a system, that system's aggregated (union-catalog) holdings
// are dropped entirely.
func Aggregate(result *domain.SearchResult) {
	holdings := dedupFingerprints(result.Holdings)
	holdings = dropShadowedAggregated(holdings)
	result.Holdings = holdings

	result.Systems = summarize(holdings)
	result.TotalCopies = 0
	result.TotalAvailable = 0
	for _, s := range result.Systems {
		result.TotalCopies += s.TotalCopies
		result.TotalAvailable += s.AvailableCopies
	}
}

// dedupFingerprints keeps the first occurrence of each fingerprint.
func dedupFingerprints(holdings []domain.BookHolding) []domain.BookHolding {
	seen := make(map[string]struct{}, len(holdings))
	out := holdings[:0:0]
	for _, h := range holdings {
		if _, dup := seen[h.Fingerprint]; dup {
			continue
		}
		seen[h.Fingerprint] = struct{}{}
		out = append(out, h)
	}
	return out
}

// dropShadowedAggregated removes aggregated holdings for systems that also
// reported direct holdings.
func dropShadowedAggregated(holdings []domain.BookHolding) []domain.BookHolding {
	hasDirect := make(map[domain.LibrarySystemId]bool)
	for _, h := range holdings {
		if h.Source == domain.SourceDirect {
			hasDirect[h.SystemID] = true
		}
	}

	out := holdings[:0:0]
	for _, h := range holdings {
		if h.Source == domain.SourceAggregated && hasDirect[h.SystemID] {
			continue
		}
		out = append(out, h)
	}
	return out
}

// summarize groups holdings by system and branch and computes the counts.
// Systems are ordered by available copies descending, name ascending as
// the tiebreak; branches by name.
func summarize(holdings []domain.BookHolding) []domain.SystemSummary {
	type branchAgg struct {
		summary domain.BranchSummary
	}
	type systemAgg struct {
		summary  domain.SystemSummary
		branches map[domain.BranchId]*branchAgg
		order    []domain.BranchId
	}

	systems := make(map[domain.LibrarySystemId]*systemAgg)
	var order []domain.LibrarySystemId

	for _, h := range holdings {
		sys, ok := systems[h.SystemID]
		if !ok {
			sys = &systemAgg{
				summary: domain.SystemSummary{
					SystemID:   h.SystemID,
					SystemName: h.SystemName,
				},
				branches: make(map[domain.BranchId]*branchAgg),
			}
			systems[h.SystemID] = sys
			order = append(order, h.SystemID)
		}

		br, ok := sys.branches[h.BranchID]
		if !ok {
			br = &branchAgg{summary: domain.BranchSummary{
				BranchID:   h.BranchID,
				BranchName: h.BranchName,
			}}
			sys.branches[h.BranchID] = br
			sys.order = append(sys.order, h.BranchID)
		}

		copies := h.Copies()
		br.summary.TotalCopies += copies
		sys.summary.TotalCopies += copies
		switch h.Status {
		case domain.StatusAvailable:
			br.summary.AvailableCopies += copies
			sys.summary.AvailableCopies += copies
		case domain.StatusCheckedOut:
			br.summary.CheckedOutCopies += copies
			sys.summary.CheckedOutCopies += copies
		}
		if h.HoldCount != nil {
			sys.summary.HoldCount += *h.HoldCount
		}
	}

	out := make([]domain.SystemSummary, 0, len(order))
	for _, id := range order {
		sys := systems[id]
		for _, bid := range sys.order {
			sys.summary.Branches = append(sys.summary.Branches, sys.branches[bid].summary)
		}
		sort.Slice(sys.summary.Branches, func(i, j int) bool {
			return sys.summary.Branches[i].BranchName < sys.summary.Branches[j].BranchName
		})
		out = append(out, sys.summary)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].AvailableCopies != out[j].AvailableCopies {
			return out[i].AvailableCopies > out[j].AvailableCopies
		}
		return out[i].SystemName < out[j].SystemName
	})
	return out
}
