package adapter

import (
	"context"
	"net/url"

	"github.com/arguspanoptes/argus-server/internal/domain"
	"github.com/arguspanoptes/argus-server/internal/isbn"
	"github.com/arguspanoptes/argus-server/internal/scrape"
)

// spydusStrategies covers the Spydus 10 card layout and the older table
// layout still common on hosted sites.
var spydusStrategies = []scrape.Strategy{
	{
		Name:       "holdings-cards",
		Rows:       ".card-list .card .holding-row",
		Branch:     ".holding-location",
		CallNumber: ".holding-shelfmark",
		Status:     ".holding-status",
		Collection: ".holding-collection",
	},
	{
		Name:       "holdings-table",
		Rows:       "table.tblHoldings tbody tr",
		Branch:     "td.fldLocation",
		CallNumber: "td.fldShelfmark",
		Status:     "td.fldStatus",
		Collection: "td.fldCollection",
	},
}

// Spydus scrapes Civica Spydus catalogs.
type Spydus struct {
	base *Base
	cfg  domain.AdapterConfig
}

// NewSpydus creates a Spydus scraper for one configured endpoint.
func NewSpydus(base *Base, cfg domain.AdapterConfig) *Spydus {
	return &Spydus{base: base, cfg: cfg}
}

func (a *Spydus) Protocol() domain.Protocol { return domain.ProtocolSpydus }

func (a *Spydus) Search(ctx context.Context, thirteen isbn.ISBN13, system *domain.LibrarySystem) (*Result, error) {
	return a.base.run(ctx, system, a.cfg, func(ctx context.Context) ([]domain.BookHolding, error) {
		q := url.Values{}
		q.Set("ENTRY", string(thirteen))
		q.Set("ENTRY_NAME", "ISBN")
		q.Set("ENTRY_TYPE", "K")
		searchURL := a.cfg.BaseURL + "/cgi-bin/spydus.exe/ENQ/WPAC/BIBENQ?" + q.Encode()
		return scrapeHoldings(ctx, a.base, system, thirteen, searchURL, spydusStrategies)
	})
}

func (a *Spydus) HealthCheck(ctx context.Context, system *domain.LibrarySystem) Health {
	return a.base.probe(ctx, system, a.cfg, a.cfg.BaseURL)
}
