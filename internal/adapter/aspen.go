package adapter

import (
	"context"
	"net/url"

	"github.com/arguspanoptes/argus-server/internal/domain"
	"github.com/arguspanoptes/argus-server/internal/isbn"
)

// aspenResponse mirrors the Aspen Discovery ItemAPI availability payload.
type aspenResponse struct {
	Result struct {
		Success  bool `json:"success"`
		Holdings []struct {
			Location     string `json:"location"`
			LocationCode string `json:"locationCode"`
			CallNumber   string `json:"callNumber"`
			Status       string `json:"status"`
			DueDate      string `json:"dueDate"`
			Format       string `json:"format"`
			Barcode      string `json:"barcode"`
			NumHolds     int    `json:"numHolds"`
			Available    bool   `json:"available"`
		} `json:"holdings"`
	} `json:"result"`
}

// Aspen queries Aspen Discovery's JSON ItemAPI.
type Aspen struct {
	base *Base
	cfg  domain.AdapterConfig
}

// NewAspen creates an Aspen adapter for one configured endpoint.
func NewAspen(base *Base, cfg domain.AdapterConfig) *Aspen {
	return &Aspen{base: base, cfg: cfg}
}

func (a *Aspen) Protocol() domain.Protocol { return domain.ProtocolAspen }

func (a *Aspen) Search(ctx context.Context, thirteen isbn.ISBN13, system *domain.LibrarySystem) (*Result, error) {
	return a.base.run(ctx, system, a.cfg, func(ctx context.Context) ([]domain.BookHolding, error) {
		q := url.Values{}
		q.Set("method", "getItemAvailability")
		q.Set("isbn", string(thirteen))
		searchURL := a.cfg.BaseURL + "/API/ItemAPI?" + q.Encode()

		var resp aspenResponse
		if err := a.base.client.GetJSON(ctx, system.ID, searchURL, nil, &resp); err != nil {
			return nil, err
		}

		holdings := make([]domain.BookHolding, 0, len(resp.Result.Holdings))
		for _, item := range resp.Result.Holdings {
			branch := item.Location
			if branch == "" {
				branch = item.LocationCode
			}
			branchID, branchName, branchCode := resolveBranch(system, branch)

			raw := item.Status
			if raw == "" && item.Available {
				raw = "Available"
			}
			h := domain.BookHolding{
				BranchID:   branchID,
				BranchName: branchName,
				CallNumber: item.CallNumber,
				Barcode:    item.Barcode,
				DueDate:    item.DueDate,
				RawStatus:  raw,
				Status:     NormalizeStatus(raw),
				Material:   NormalizeMaterial(item.Format),
			}
			if item.NumHolds > 0 {
				holds := item.NumHolds
				h.HoldCount = &holds
			}
			finishHolding(&h, system, thirteen, branchCode)
			holdings = append(holdings, h)
		}
		return holdings, nil
	})
}

func (a *Aspen) HealthCheck(ctx context.Context, system *domain.LibrarySystem) Health {
	return a.base.probe(ctx, system, a.cfg, a.cfg.BaseURL+"/API/SystemAPI?method=getLibraryInfo")
}
