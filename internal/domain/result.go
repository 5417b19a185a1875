package domain

import (
	"time"

	"github.com/arguspanoptes/argus-server/internal/isbn"
)

// SearchError records one failing adapter attempt. Type carries the
// categorized error kind (connection, timeout, auth, rate_limit, parse,
// circuit_open, ...).
type SearchError struct {
	SystemID  LibrarySystemId `json:"systemId"`
	Protocol  Protocol        `json:"protocol,omitempty"`
	Type      string          `json:"type"`
	Message   string          `json:"message"`
	Timestamp time.Time       `json:"timestamp"`
}

// BranchSummary aggregates holdings for one branch.
type BranchSummary struct {
	BranchID         BranchId `json:"branchId"`
	BranchName       string   `json:"branchName"`
	TotalCopies      int      `json:"totalCopies"`
	AvailableCopies  int      `json:"availableCopies"`
	CheckedOutCopies int      `json:"checkedOutCopies"`
}

// SystemSummary aggregates holdings for one library system.
type SystemSummary struct {
	SystemID         LibrarySystemId `json:"systemId"`
	SystemName       string          `json:"systemName"`
	TotalCopies      int             `json:"totalCopies"`
	AvailableCopies  int             `json:"availableCopies"`
	CheckedOutCopies int             `json:"checkedOutCopies"`
	HoldCount        int             `json:"holdCount"`
	Branches         []BranchSummary `json:"branches"`
}

// SearchResult is the consolidated outcome of one federated search. It is
// mutated only by the coordinator while the search runs, then immutable
// and cacheable.
type SearchResult struct {
	SearchID    string        `json:"searchId"`
	Query       string        `json:"query"`
	ISBN13      isbn.ISBN13   `json:"isbn13"`
	StartedAt   time.Time     `json:"startedAt"`
	CompletedAt time.Time     `json:"completedAt"`
	Holdings    []BookHolding `json:"holdings"`
	Errors      []SearchError `json:"errors"`

	SystemsSearched  int `json:"systemsSearched"`
	SystemsSucceeded int `json:"systemsSucceeded"`
	SystemsFailed    int `json:"systemsFailed"`
	SystemsTimedOut  int `json:"systemsTimedOut"`

	Systems        []SystemSummary `json:"systems"`
	TotalCopies    int             `json:"totalCopies"`
	TotalAvailable int             `json:"totalAvailable"`

	IsPartial bool `json:"isPartial"`
	FromCache bool `json:"fromCache"`
}
