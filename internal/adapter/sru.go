package adapter

import (
	"context"
	"net/url"

	"github.com/arguspanoptes/argus-server/internal/domain"
	"github.com/arguspanoptes/argus-server/internal/isbn"
	"github.com/arguspanoptes/argus-server/internal/marc"
)

// sruSearchURL builds the SRU 1.1 searchRetrieve request for an ISBN.
func sruSearchURL(base string, thirteen isbn.ISBN13) string {
	q := url.Values{}
	q.Set("version", "1.1")
	q.Set("operation", "searchRetrieve")
	q.Set("query", "bath.isbn="+string(thirteen))
	q.Set("recordSchema", "marcxml")
	q.Set("maximumRecords", "50")
	return base + "?" + q.Encode()
}

// sruExplainURL builds the lightweight probe used by health checks.
func sruExplainURL(base string) string {
	return base + "?version=1.1&operation=explain"
}

// SRU is the generic SRU/MARCXML adapter. It reads standard MARC 852
// holdings fields, which union catalogs populate from member records, so
// the holdings carry no real-time availability and are tagged aggregated.
type SRU struct {
	base *Base
	cfg  domain.AdapterConfig
}

// NewSRU creates a generic SRU adapter for one configured endpoint.
func NewSRU(base *Base, cfg domain.AdapterConfig) *SRU {
	return &SRU{base: base, cfg: cfg}
}

func (a *SRU) Protocol() domain.Protocol { return domain.ProtocolSRU }

func (a *SRU) Search(ctx context.Context, thirteen isbn.ISBN13, system *domain.LibrarySystem) (*Result, error) {
	return a.base.run(ctx, system, a.cfg, func(ctx context.Context) ([]domain.BookHolding, error) {
		body, err := a.base.client.Get(ctx, system.ID, sruSearchURL(a.cfg.BaseURL, thirteen), nil)
		if err != nil {
			return nil, err
		}
		records, err := marc.ParseSRUResponse(body)
		if err != nil {
			return nil, err
		}

		var holdings []domain.BookHolding
		for _, rec := range records {
			for _, f := range rec.Fields("852") {
				branchID, branchName, branchCode := resolveBranch(system, f.Subfield("b"))
				h := domain.BookHolding{
					BranchID:   branchID,
					BranchName: branchName,
					CallNumber: f.Subfield("h"),
					Collection: f.Subfield("c"),
					RawStatus:  f.Subfield("z"),
					Status:     domain.StatusUnknown,
					Material:   domain.MaterialUnknown,
					Source:     domain.SourceAggregated,
				}
				finishHolding(&h, system, thirteen, branchCode)
				holdings = append(holdings, h)
			}
		}
		return holdings, nil
	})
}

func (a *SRU) HealthCheck(ctx context.Context, system *domain.LibrarySystem) Health {
	return a.base.probe(ctx, system, a.cfg, sruExplainURL(a.cfg.BaseURL))
}
