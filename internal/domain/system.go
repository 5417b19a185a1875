// Package domain defines the core types of the federated library search:
// library systems and their branches, adapter configuration, book holdings,
// and search results.
package domain

import (
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// LibrarySystemId identifies one library system across the registry.
type LibrarySystemId string

// BranchId identifies one branch within its library system.
type BranchId string

// String returns the raw identifier.
func (id LibrarySystemId) String() string { return string(id) }

// String returns the raw identifier.
func (id BranchId) String() string { return string(id) }

// Protocol tags the wire protocol an adapter speaks. The set is closed;
// the adapter registry switches over it at startup.
type Protocol string

// Supported catalog protocols.
const (
	ProtocolSRU           Protocol = "sru"
	ProtocolKoha          Protocol = "koha"
	ProtocolEnterprise    Protocol = "enterprise"
	ProtocolBiblioCommons Protocol = "bibliocommons"
	ProtocolAtriuum       Protocol = "atriuum"
	ProtocolSpydus        Protocol = "spydus"
	ProtocolAspen         Protocol = "aspen"
	ProtocolTLC           Protocol = "tlc"
	ProtocolApollo        Protocol = "apollo"
	ProtocolSierra        Protocol = "sierra"
	ProtocolPolaris       Protocol = "polaris"
)

// KnownProtocols lists every protocol the adapter registry can construct.
var KnownProtocols = []Protocol{
	ProtocolSRU, ProtocolKoha, ProtocolEnterprise, ProtocolBiblioCommons,
	ProtocolAtriuum, ProtocolSpydus, ProtocolAspen, ProtocolTLC,
	ProtocolApollo, ProtocolSierra, ProtocolPolaris,
}

// Branch is one physical location of a library system.
type Branch struct {
	ID      BranchId `json:"id" yaml:"id" validate:"required"`
	Name    string   `json:"name" yaml:"name" validate:"required"`
	Code    string   `json:"code" yaml:"code" validate:"required"`
	Address string   `json:"address,omitempty" yaml:"address"`
	City    string   `json:"city,omitempty" yaml:"city"`
}

// AdapterConfig describes one way of reaching a system's catalog. Secret
// values are never stored here; only the names of environment variables
// that hold them.
type AdapterConfig struct {
	Protocol           Protocol          `json:"protocol" yaml:"protocol" validate:"required"`
	BaseURL            string            `json:"baseUrl" yaml:"baseUrl" validate:"required,url"`
	Port               int               `json:"port,omitempty" yaml:"port"`
	DatabaseName       string            `json:"databaseName,omitempty" yaml:"databaseName"`
	ClientKeyEnvVar    string            `json:"clientKeyEnvVar,omitempty" yaml:"clientKeyEnvVar"`
	ClientSecretEnvVar string            `json:"clientSecretEnvVar,omitempty" yaml:"clientSecretEnvVar"`
	TimeoutMs          int               `json:"timeoutMs" yaml:"timeoutMs"`
	MaxConcurrency     int               `json:"maxConcurrency" yaml:"maxConcurrency"`
	Extra              map[string]string `json:"extra,omitempty" yaml:"extra"`
}

// Timeout returns the per-request timeout as a duration.
func (c AdapterConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutMs) * time.Millisecond
}

// AtriuumOptions is the typed projection of the Atriuum `extra` bag.
type AtriuumOptions struct {
	// SearchURLTemplate contains an {isbn} placeholder.
	SearchURLTemplate string
}

// Atriuum extracts the Atriuum-specific options.
func (c AdapterConfig) Atriuum() AtriuumOptions {
	return AtriuumOptions{SearchURLTemplate: c.Extra["searchUrlTemplate"]}
}

// LibrarySystem is the declarative description of one library system.
type LibrarySystem struct {
	ID         LibrarySystemId `json:"id" yaml:"id" validate:"required"`
	Name       string          `json:"name" yaml:"name" validate:"required"`
	Vendor     string          `json:"vendor" yaml:"vendor" validate:"required"`
	Region     string          `json:"region" yaml:"region"`
	CatalogURL string          `json:"catalogUrl" yaml:"catalogUrl" validate:"required,url"`
	Enabled    bool            `json:"enabled" yaml:"enabled"`
	Branches   []Branch        `json:"branches" yaml:"branches" validate:"required,min=1,dive"`
	Adapters   []AdapterConfig `json:"adapters" yaml:"adapters" validate:"required,min=1,dive"`
}

// FindBranch resolves a scraped branch display name or code against the
// declared branches. Matching is case-insensitive and diacritic-folded so
// "Café Branch" matches "cafe branch". Returns nil when nothing matches.
func (s *LibrarySystem) FindBranch(nameOrCode string) *Branch {
	want := foldBranchKey(nameOrCode)
	if want == "" {
		return nil
	}
	for i := range s.Branches {
		b := &s.Branches[i]
		if foldBranchKey(b.Name) == want || foldBranchKey(b.Code) == want || foldBranchKey(string(b.ID)) == want {
			return b
		}
	}
	return nil
}

// branchFolder strips diacritics: NFD decompose, drop combining marks,
// recompose.
var branchFolder = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

func foldBranchKey(s string) string {
	folded, _, err := transform.String(branchFolder, strings.TrimSpace(s))
	if err != nil {
		folded = s
	}
	return strings.ToLower(folded)
}
