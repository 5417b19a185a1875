package domain

import (
	"strings"

	"github.com/arguspanoptes/argus-server/internal/isbn"
)

// ItemStatus is the normalized availability vocabulary shared by every
// adapter. Raw catalog strings are mapped onto it by the base adapter.
type ItemStatus string

// Normalized item statuses.
const (
	StatusAvailable    ItemStatus = "available"
	StatusCheckedOut   ItemStatus = "checked_out"
	StatusInTransit    ItemStatus = "in_transit"
	StatusOnHold       ItemStatus = "on_hold"
	StatusOnOrder      ItemStatus = "on_order"
	StatusInProcessing ItemStatus = "in_processing"
	StatusMissing      ItemStatus = "missing"
	StatusUnknown      ItemStatus = "unknown"
)

// MaterialType classifies the physical or digital format of a holding.
type MaterialType string

// Material types.
const (
	MaterialBook       MaterialType = "book"
	MaterialLargePrint MaterialType = "large_print"
	MaterialAudiobook  MaterialType = "audiobook"
	MaterialDVD        MaterialType = "dvd"
	MaterialEbook      MaterialType = "ebook"
	MaterialUnknown    MaterialType = "unknown"
)

// Source distinguishes real-time holdings reported directly by a system's
// own catalog from holdings relayed through an aggregated union catalog.
type Source string

// Holding sources.
const (
	SourceDirect     Source = "direct"
	SourceAggregated Source = "aggregated"
)

// BookHolding is one physical or logical copy at one branch. Holdings are
// immutable once emitted by an adapter.
type BookHolding struct {
	ISBN        isbn.ISBN13     `json:"isbn"`
	SystemID    LibrarySystemId `json:"systemId"`
	SystemName  string          `json:"systemName"`
	BranchID    BranchId        `json:"branchId"`
	BranchName  string          `json:"branchName"`
	CallNumber  string          `json:"callNumber,omitempty"`
	Status      ItemStatus      `json:"status"`
	Material    MaterialType    `json:"materialType"`
	DueDate     string          `json:"dueDate,omitempty"`
	HoldCount   *int            `json:"holdCount,omitempty"`
	CopyCount   *int            `json:"copyCount,omitempty"`
	CatalogURL  string          `json:"catalogUrl,omitempty"`
	Collection  string          `json:"collection,omitempty"`
	Volume      string          `json:"volume,omitempty"`
	Barcode     string          `json:"barcode,omitempty"`
	RawStatus   string          `json:"rawStatus,omitempty"`
	Source      Source          `json:"source"`
	Fingerprint string          `json:"fingerprint"`
}

// Copies returns the copy count, defaulting to one when the adapter did
// not supply it.
func (h *BookHolding) Copies() int {
	if h.CopyCount != nil {
		return *h.CopyCount
	}
	return 1
}

// NewFingerprint builds the deterministic dedup key for one physical item.
// The discriminator should be the most unique field available for the
// holding: barcode, then call number, then a stable fallback. The key is
// lowercase and colon-joined so it is stable across consecutive searches.
func NewFingerprint(systemID LibrarySystemId, thirteen isbn.ISBN13, branchCode, discriminator string) string {
	if discriminator == "" {
		discriminator = "copy"
	}
	parts := []string{string(systemID), string(thirteen), branchCode, discriminator}
	return strings.ToLower(strings.Join(parts, ":"))
}
