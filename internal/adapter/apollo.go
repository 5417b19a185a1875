package adapter

import (
	"context"
	"net/url"

	"github.com/arguspanoptes/argus-server/internal/domain"
	"github.com/arguspanoptes/argus-server/internal/isbn"
)

// apolloResponse mirrors the Biblionix Apollo availability function.
type apolloResponse struct {
	Copies []struct {
		Location string `json:"location"`
		Call     string `json:"call"`
		Status   string `json:"status"`
		Due      string `json:"due"`
	} `json:"copies"`
}

// Apollo queries Biblionix Apollo catalogs, which serve small systems that
// are often single-branch.
type Apollo struct {
	base *Base
	cfg  domain.AdapterConfig
}

// NewApollo creates an Apollo adapter for one configured endpoint.
func NewApollo(base *Base, cfg domain.AdapterConfig) *Apollo {
	return &Apollo{base: base, cfg: cfg}
}

func (a *Apollo) Protocol() domain.Protocol { return domain.ProtocolApollo }

func (a *Apollo) Search(ctx context.Context, thirteen isbn.ISBN13, system *domain.LibrarySystem) (*Result, error) {
	return a.base.run(ctx, system, a.cfg, func(ctx context.Context) ([]domain.BookHolding, error) {
		q := url.Values{}
		q.Set("isbn", string(thirteen))
		searchURL := a.cfg.BaseURL + "/functions/availability?" + q.Encode()

		var resp apolloResponse
		if err := a.base.client.GetJSON(ctx, system.ID, searchURL, nil, &resp); err != nil {
			return nil, err
		}

		holdings := make([]domain.BookHolding, 0, len(resp.Copies))
		for _, item := range resp.Copies {
			branch := item.Location
			if branch == "" && len(system.Branches) == 1 {
				branch = system.Branches[0].Name
			}
			branchID, branchName, branchCode := resolveBranch(system, branch)
			h := domain.BookHolding{
				BranchID:   branchID,
				BranchName: branchName,
				CallNumber: item.Call,
				DueDate:    item.Due,
				RawStatus:  item.Status,
				Status:     NormalizeStatus(item.Status),
				Material:   domain.MaterialUnknown,
			}
			finishHolding(&h, system, thirteen, branchCode)
			holdings = append(holdings, h)
		}
		return holdings, nil
	})
}

func (a *Apollo) HealthCheck(ctx context.Context, system *domain.LibrarySystem) Health {
	return a.base.probe(ctx, system, a.cfg, a.cfg.BaseURL)
}
