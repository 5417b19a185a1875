package adapter

import (
	"context"

	"github.com/arguspanoptes/argus-server/internal/domain"
	"github.com/arguspanoptes/argus-server/internal/isbn"
	"github.com/arguspanoptes/argus-server/internal/scrape"
)

// scrapeHoldings is the common body of the HTML adapters: fetch the
// results page, apply the vendor's selector strategies in order, and turn
// matched rows into holdings. A page no strategy matches yields zero
// holdings; scraped catalogs report "no copies" by rendering nothing.
func scrapeHoldings(
	ctx context.Context,
	base *Base,
	system *domain.LibrarySystem,
	thirteen isbn.ISBN13,
	searchURL string,
	strategies []scrape.Strategy,
) ([]domain.BookHolding, error) {
	body, err := base.client.Get(ctx, system.ID, searchURL, nil)
	if err != nil {
		return nil, err
	}
	doc, err := scrape.Parse(body)
	if err != nil {
		return nil, err
	}

	rows := scrape.Apply(doc, strategies)
	holdings := make([]domain.BookHolding, 0, len(rows))
	for _, row := range rows {
		branchID, branchName, branchCode := resolveBranch(system, row.Branch)
		h := domain.BookHolding{
			BranchID:   branchID,
			BranchName: branchName,
			CallNumber: row.CallNumber,
			Collection: row.Collection,
			RawStatus:  row.Status,
			Status:     NormalizeStatus(row.Status),
			Material:   domain.MaterialUnknown,
		}
		finishHolding(&h, system, thirteen, branchCode)
		holdings = append(holdings, h)
	}
	return holdings, nil
}
