package adapter

import (
	"context"
	"encoding/base64"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/arguspanoptes/argus-server/internal/domain"
	"github.com/arguspanoptes/argus-server/internal/isbn"
)

// sierraTokenSlack renews the cached bearer token this long before the
// server-reported expiry.
const sierraTokenSlack = 30 * time.Second

type sierraTokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
}

type sierraBibSearch struct {
	Entries []struct {
		Bib struct {
			ID string `json:"id"`
		} `json:"bib"`
	} `json:"entries"`
}

type sierraItems struct {
	Entries []struct {
		CallNumber string `json:"callNumber"`
		Barcode    string `json:"barcode"`
		Location   struct {
			Code string `json:"code"`
			Name string `json:"name"`
		} `json:"location"`
		Status struct {
			Code    string `json:"code"`
			Display string `json:"display"`
			DueDate string `json:"duedate"`
		} `json:"status"`
	} `json:"entries"`
}

// Sierra queries the III Sierra REST API. It authenticates with the
// client-credentials flow using the key pair named by the adapter config
// and caches the bearer token across searches.
type Sierra struct {
	base *Base
	cfg  domain.AdapterConfig

	mu          sync.Mutex
	token       string
	tokenExpiry time.Time
}

// NewSierra creates a Sierra adapter for one configured endpoint.
func NewSierra(base *Base, cfg domain.AdapterConfig) *Sierra {
	return &Sierra{base: base, cfg: cfg}
}

func (a *Sierra) Protocol() domain.Protocol { return domain.ProtocolSierra }

func (a *Sierra) Search(ctx context.Context, thirteen isbn.ISBN13, system *domain.LibrarySystem) (*Result, error) {
	return a.base.run(ctx, system, a.cfg, func(ctx context.Context) ([]domain.BookHolding, error) {
		token, err := a.bearerToken(ctx, system.ID)
		if err != nil {
			return nil, err
		}
		auth := map[string]string{"Authorization": "Bearer " + token}

		q := url.Values{}
		q.Set("index", "isbn")
		q.Set("text", string(thirteen))
		var bibs sierraBibSearch
		if err := a.base.client.GetJSON(ctx, system.ID, a.cfg.BaseURL+"/v6/bibs/search?"+q.Encode(), auth, &bibs); err != nil {
			return nil, err
		}
		if len(bibs.Entries) == 0 {
			return nil, nil
		}

		ids := make([]string, 0, len(bibs.Entries))
		for _, e := range bibs.Entries {
			if e.Bib.ID != "" {
				ids = append(ids, e.Bib.ID)
			}
		}
		if len(ids) == 0 {
			return nil, nil
		}

		iq := url.Values{}
		iq.Set("bibIds", strings.Join(ids, ","))
		iq.Set("fields", "location,status,callNumber,barcode")
		iq.Set("deleted", "false")
		var items sierraItems
		if err := a.base.client.GetJSON(ctx, system.ID, a.cfg.BaseURL+"/v6/items?"+iq.Encode(), auth, &items); err != nil {
			return nil, err
		}

		holdings := make([]domain.BookHolding, 0, len(items.Entries))
		for _, item := range items.Entries {
			branch := item.Location.Name
			if branch == "" {
				branch = item.Location.Code
			}
			branchID, branchName, branchCode := resolveBranch(system, branch)
			h := domain.BookHolding{
				BranchID:   branchID,
				BranchName: branchName,
				CallNumber: item.CallNumber,
				Barcode:    item.Barcode,
				DueDate:    item.Status.DueDate,
				RawStatus:  item.Status.Display,
				Status:     sierraStatus(item.Status.Code, item.Status.Display, item.Status.DueDate),
				Material:   domain.MaterialUnknown,
			}
			finishHolding(&h, system, thirteen, branchCode)
			holdings = append(holdings, h)
		}
		return holdings, nil
	})
}

func (a *Sierra) HealthCheck(ctx context.Context, system *domain.LibrarySystem) Health {
	started := time.Now()
	_, err := a.bearerToken(ctx, system.ID)
	h := Health{
		LatencyMs: time.Since(started).Milliseconds(),
		CheckedAt: time.Now().UTC(),
	}
	if err != nil {
		h.Message = err.Error()
		return h
	}
	h.Healthy = true
	return h
}

// bearerToken returns the cached token or requests a fresh one.
func (a *Sierra) bearerToken(ctx context.Context, systemID domain.LibrarySystemId) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.token != "" && time.Now().Before(a.tokenExpiry) {
		return a.token, nil
	}

	key, secret, err := credentials(a.cfg)
	if err != nil {
		return "", err
	}

	basic := base64.StdEncoding.EncodeToString([]byte(key + ":" + secret))
	form := url.Values{}
	form.Set("grant_type", "client_credentials")
	body, err := a.base.client.PostForm(ctx, systemID, a.cfg.BaseURL+"/v6/token", form, map[string]string{
		"Authorization": "Basic " + basic,
	})
	if err != nil {
		return "", err
	}

	var tok sierraTokenResponse
	if err := decodeJSON(body, &tok); err != nil {
		return "", err
	}

	a.token = tok.AccessToken
	a.tokenExpiry = time.Now().Add(time.Duration(tok.ExpiresIn)*time.Second - sierraTokenSlack)
	return a.token, nil
}

// sierraStatus resolves the item status, preferring the fixed status code:
// "-" means on shelf, "t" in transit, "!" on holdshelf, "m" missing.
func sierraStatus(code, display, due string) domain.ItemStatus {
	switch code {
	case "-":
		if due != "" {
			return domain.StatusCheckedOut
		}
		return domain.StatusAvailable
	case "t":
		return domain.StatusInTransit
	case "!":
		return domain.StatusOnHold
	case "m":
		return domain.StatusMissing
	}
	return NormalizeStatus(display)
}
