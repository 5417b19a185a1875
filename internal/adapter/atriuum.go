package adapter

import (
	"context"
	"net/url"
	"strings"

	"github.com/arguspanoptes/argus-server/internal/domain"
	"github.com/arguspanoptes/argus-server/internal/isbn"
	"github.com/arguspanoptes/argus-server/internal/scrape"
)

// atriuumStrategies covers the Atriuum OPAC holdings table and the compact
// results list some installations use instead.
var atriuumStrategies = []scrape.Strategy{
	{
		Name:       "holdings-table",
		Rows:       "table#holdingsTable tr.holdingsRow",
		Branch:     "td.holdingsLocation",
		CallNumber: "td.holdingsCallNumber",
		Status:     "td.holdingsStatus",
		Collection: "td.holdingsCollection",
	},
	{
		Name:       "results-list",
		Rows:       ".searchResultItem .copyInfo",
		Branch:     ".copyLocation",
		CallNumber: ".copyCallNumber",
		Status:     ".copyStatus",
	},
}

// Atriuum scrapes Book Systems Atriuum catalogs. Installations differ in
// where the OPAC lives, so the search URL comes from the adapter config's
// searchUrlTemplate when provided.
type Atriuum struct {
	base *Base
	cfg  domain.AdapterConfig
}

// NewAtriuum creates an Atriuum scraper for one configured endpoint.
func NewAtriuum(base *Base, cfg domain.AdapterConfig) *Atriuum {
	return &Atriuum{base: base, cfg: cfg}
}

func (a *Atriuum) Protocol() domain.Protocol { return domain.ProtocolAtriuum }

func (a *Atriuum) Search(ctx context.Context, thirteen isbn.ISBN13, system *domain.LibrarySystem) (*Result, error) {
	return a.base.run(ctx, system, a.cfg, func(ctx context.Context) ([]domain.BookHolding, error) {
		return scrapeHoldings(ctx, a.base, system, thirteen, a.searchURL(thirteen), atriuumStrategies)
	})
}

func (a *Atriuum) HealthCheck(ctx context.Context, system *domain.LibrarySystem) Health {
	return a.base.probe(ctx, system, a.cfg, a.cfg.BaseURL)
}

func (a *Atriuum) searchURL(thirteen isbn.ISBN13) string {
	if tmpl := a.cfg.Atriuum().SearchURLTemplate; tmpl != "" {
		return strings.ReplaceAll(tmpl, "{isbn}", string(thirteen))
	}
	q := url.Values{}
	q.Set("criteria", string(thirteen))
	q.Set("searchBy", "isbn")
	return a.cfg.BaseURL + "/Search/SearchResults?" + q.Encode()
}
