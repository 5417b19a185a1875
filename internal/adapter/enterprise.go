package adapter

import (
	"context"
	"net/url"

	"github.com/arguspanoptes/argus-server/internal/domain"
	"github.com/arguspanoptes/argus-server/internal/isbn"
	"github.com/arguspanoptes/argus-server/internal/scrape"
)

// enterpriseStrategies covers the two markups SirsiDynix Enterprise ships:
// the detail-page item summary and the older items table.
var enterpriseStrategies = []scrape.Strategy{
	{
		Name:       "detail-item-summary",
		Rows:       ".detail_main .itemSummary",
		Branch:     ".itemLibrary",
		CallNumber: ".itemCallNumber",
		Status:     ".itemStatus",
		Collection: ".itemCollection",
	},
	{
		Name:       "detail-items-table",
		Rows:       "table.detailItemTable tr.detailItemsDiv",
		Branch:     "td.detailItemsTable_LIBRARY",
		CallNumber: "td.detailItemsTable_CALLNUMBER",
		Status:     "td.detailItemsTable_SD_ITEM_STATUS",
		Collection: "td.detailItemsTable_COLLECTION",
	},
}

// Enterprise scrapes SirsiDynix Enterprise catalogs.
type Enterprise struct {
	base *Base
	cfg  domain.AdapterConfig
}

// NewEnterprise creates an Enterprise scraper for one configured endpoint.
func NewEnterprise(base *Base, cfg domain.AdapterConfig) *Enterprise {
	return &Enterprise{base: base, cfg: cfg}
}

func (a *Enterprise) Protocol() domain.Protocol { return domain.ProtocolEnterprise }

func (a *Enterprise) Search(ctx context.Context, thirteen isbn.ISBN13, system *domain.LibrarySystem) (*Result, error) {
	return a.base.run(ctx, system, a.cfg, func(ctx context.Context) ([]domain.BookHolding, error) {
		q := url.Values{}
		q.Set("qu", string(thirteen))
		q.Set("te", "")
		searchURL := a.cfg.BaseURL + "/search/results?" + q.Encode()
		return scrapeHoldings(ctx, a.base, system, thirteen, searchURL, enterpriseStrategies)
	})
}

func (a *Enterprise) HealthCheck(ctx context.Context, system *domain.LibrarySystem) Health {
	return a.base.probe(ctx, system, a.cfg, a.cfg.BaseURL)
}
