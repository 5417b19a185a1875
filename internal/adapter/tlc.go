package adapter

import (
	"context"
	"net/url"

	"github.com/arguspanoptes/argus-server/internal/domain"
	"github.com/arguspanoptes/argus-server/internal/isbn"
)

// tlcResponse mirrors the Library.Solution availability endpoint.
type tlcResponse struct {
	Items []struct {
		Branch       string `json:"branch"`
		CallNumber   string `json:"callNumber"`
		Status       string `json:"status"`
		MaterialType string `json:"materialType"`
		DueDate      string `json:"dueDate"`
		Collection   string `json:"collection"`
		Copies       int    `json:"copies"`
	} `json:"items"`
}

// TLC queries The Library Corporation's Library.Solution JSON API.
type TLC struct {
	base *Base
	cfg  domain.AdapterConfig
}

// NewTLC creates a TLC adapter for one configured endpoint.
func NewTLC(base *Base, cfg domain.AdapterConfig) *TLC {
	return &TLC{base: base, cfg: cfg}
}

func (a *TLC) Protocol() domain.Protocol { return domain.ProtocolTLC }

func (a *TLC) Search(ctx context.Context, thirteen isbn.ISBN13, system *domain.LibrarySystem) (*Result, error) {
	return a.base.run(ctx, system, a.cfg, func(ctx context.Context) ([]domain.BookHolding, error) {
		q := url.Values{}
		q.Set("isbn", string(thirteen))
		searchURL := a.cfg.BaseURL + "/api/search/availability?" + q.Encode()

		var resp tlcResponse
		if err := a.base.client.GetJSON(ctx, system.ID, searchURL, nil, &resp); err != nil {
			return nil, err
		}

		holdings := make([]domain.BookHolding, 0, len(resp.Items))
		for _, item := range resp.Items {
			branchID, branchName, branchCode := resolveBranch(system, item.Branch)
			h := domain.BookHolding{
				BranchID:   branchID,
				BranchName: branchName,
				CallNumber: item.CallNumber,
				Collection: item.Collection,
				DueDate:    item.DueDate,
				RawStatus:  item.Status,
				Status:     NormalizeStatus(item.Status),
				Material:   NormalizeMaterial(item.MaterialType),
			}
			if item.Copies > 0 {
				copies := item.Copies
				h.CopyCount = &copies
			}
			finishHolding(&h, system, thirteen, branchCode)
			holdings = append(holdings, h)
		}
		return holdings, nil
	})
}

func (a *TLC) HealthCheck(ctx context.Context, system *domain.LibrarySystem) Health {
	return a.base.probe(ctx, system, a.cfg, a.cfg.BaseURL+"/api/status")
}
