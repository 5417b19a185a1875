package adapter

import (
	"context"
	"net/url"

	"github.com/arguspanoptes/argus-server/internal/domain"
	"github.com/arguspanoptes/argus-server/internal/isbn"
	"github.com/arguspanoptes/argus-server/internal/scrape"
)

// biblioCommonsStrategies covers the current React-rendered availability
// listing and the legacy server-rendered circulation table.
var biblioCommonsStrategies = []scrape.Strategy{
	{
		Name:       "availability-groups",
		Rows:       ".cp-availability-group .cp-availability-item",
		Branch:     ".cp-branch-name",
		CallNumber: ".cp-call-number",
		Status:     ".cp-availability-status",
		Collection: ".cp-collection-name",
	},
	{
		Name:       "legacy-circulation-table",
		Rows:       "table.circulation-info tbody tr",
		Branch:     "td.branch",
		CallNumber: "td.callnumber",
		Status:     "td.status",
		Collection: "td.collection",
	},
}

// BiblioCommons scrapes BiblioCommons-hosted catalogs.
type BiblioCommons struct {
	base *Base
	cfg  domain.AdapterConfig
}

// NewBiblioCommons creates a BiblioCommons scraper for one configured
// endpoint.
func NewBiblioCommons(base *Base, cfg domain.AdapterConfig) *BiblioCommons {
	return &BiblioCommons{base: base, cfg: cfg}
}

func (a *BiblioCommons) Protocol() domain.Protocol { return domain.ProtocolBiblioCommons }

func (a *BiblioCommons) Search(ctx context.Context, thirteen isbn.ISBN13, system *domain.LibrarySystem) (*Result, error) {
	return a.base.run(ctx, system, a.cfg, func(ctx context.Context) ([]domain.BookHolding, error) {
		q := url.Values{}
		q.Set("searchType", "isbn")
		q.Set("query", string(thirteen))
		searchURL := a.cfg.BaseURL + "/v2/search?" + q.Encode()
		return scrapeHoldings(ctx, a.base, system, thirteen, searchURL, biblioCommonsStrategies)
	})
}

func (a *BiblioCommons) HealthCheck(ctx context.Context, system *domain.LibrarySystem) Health {
	return a.base.probe(ctx, system, a.cfg, a.cfg.BaseURL)
}
