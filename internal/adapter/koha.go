package adapter

import (
	"context"

	"github.com/arguspanoptes/argus-server/internal/domain"
	"github.com/arguspanoptes/argus-server/internal/isbn"
	"github.com/arguspanoptes/argus-server/internal/marc"
)

// Koha speaks SRU to Koha-backed catalogs and reads the vendor 952 item
// field, which does carry real-time availability.
type Koha struct {
	base *Base
	cfg  domain.AdapterConfig
}

// NewKoha creates a Koha SRU adapter for one configured endpoint.
func NewKoha(base *Base, cfg domain.AdapterConfig) *Koha {
	return &Koha{base: base, cfg: cfg}
}

func (a *Koha) Protocol() domain.Protocol { return domain.ProtocolKoha }

func (a *Koha) Search(ctx context.Context, thirteen isbn.ISBN13, system *domain.LibrarySystem) (*Result, error) {
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
			for _, f := range rec.Fields("952") {
				branch := f.Subfield("b")
				if branch == "" {
					branch = f.Subfield("a")
				}
				branchID, branchName, branchCode := resolveBranch(system, branch)

				due := f.Subfield("q")
				raw := kohaRawStatus(f.Subfield("7"), due)
				h := domain.BookHolding{
					BranchID:   branchID,
					BranchName: branchName,
					CallNumber: f.Subfield("o"),
					Barcode:    f.Subfield("p"),
					DueDate:    due,
					RawStatus:  raw,
					Status:     NormalizeStatus(raw),
					Material:   KohaMaterial(f.Subfield("y")),
				}
				finishHolding(&h, system, thirteen, branchCode)
				holdings = append(holdings, h)
			}
		}
		return holdings, nil
	})
}

func (a *Koha) HealthCheck(ctx context.Context, system *domain.LibrarySystem) Health {
	return a.base.probe(ctx, system, a.cfg, sruExplainURL(a.cfg.BaseURL))
}

// kohaRawStatus derives the display status from the 952 flags: a non-zero
// not-for-loan value wins, then an outstanding due date, else available.
func kohaRawStatus(notForLoan, due string) string {
	if notForLoan != "" && notForLoan != "0" {
		return "Not for loan"
	}
	if due != "" {
		return "Checked out"
	}
	return "Available"
}
