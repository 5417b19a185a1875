package adapter

import (
	"context"
	"crypto/hmac"
	"crypto/sha1"
	"encoding/base64"
	"net/url"
	"strconv"
	"time"

	"github.com/arguspanoptes/argus-server/internal/domain"
	"github.com/arguspanoptes/argus-server/internal/isbn"
)

// papiPrefix is the fixed public-API path segment: language 1033,
// app id 100, org id 1.
const papiPrefix = "/PAPIService/REST/public/v1/1033/100/1"

type polarisBibSearch struct {
	PAPIErrorCode int `json:"PAPIErrorCode"`
	BibSearchRows []struct {
		ControlNumber int `json:"ControlNumber"`
	} `json:"BibSearchRows"`
}

type polarisHoldings struct {
	PAPIErrorCode   int `json:"PAPIErrorCode"`
	BibHoldingsRows []struct {
		LocationName     string `json:"LocationName"`
		CollectionName   string `json:"CollectionName"`
		CallNumber       string `json:"CallNumber"`
		CircStatusName   string `json:"CircStatusName"`
		DueDate          string `json:"DueDate"`
		Barcode          string `json:"Barcode"`
		MaterialTypeName string `json:"MaterialType"`
		Holdable         bool   `json:"Holdable"`
	} `json:"BibHoldingsRows"`
}

// Polaris queries the Innovative Polaris PAPI. Every request carries a
// `PWS` authorization header: the access id plus an HMAC-SHA1 signature of
// method, URI, and date keyed with the access key from the environment.
type Polaris struct {
	base *Base
	cfg  domain.AdapterConfig
}

// NewPolaris creates a Polaris adapter for one configured endpoint.
func NewPolaris(base *Base, cfg domain.AdapterConfig) *Polaris {
	return &Polaris{base: base, cfg: cfg}
}

func (a *Polaris) Protocol() domain.Protocol { return domain.ProtocolPolaris }

func (a *Polaris) Search(ctx context.Context, thirteen isbn.ISBN13, system *domain.LibrarySystem) (*Result, error) {
	return a.base.run(ctx, system, a.cfg, func(ctx context.Context) ([]domain.BookHolding, error) {
		accessID, accessKey, err := credentials(a.cfg)
		if err != nil {
			return nil, err
		}

		q := url.Values{}
		q.Set("q", "ISBN="+string(thirteen))
		searchURL := a.cfg.BaseURL + papiPrefix + "/search/bibs/boolean?" + q.Encode()

		var bibs polarisBibSearch
		if err := a.base.client.GetJSON(ctx, system.ID, searchURL, papiHeaders(accessID, accessKey, searchURL), &bibs); err != nil {
			return nil, err
		}

		var holdings []domain.BookHolding
		for _, row := range bibs.BibSearchRows {
			holdingsURL := a.cfg.BaseURL + papiPrefix + "/bib/" + strconv.Itoa(row.ControlNumber) + "/holdings"

			var hr polarisHoldings
			if err := a.base.client.GetJSON(ctx, system.ID, holdingsURL, papiHeaders(accessID, accessKey, holdingsURL), &hr); err != nil {
				return nil, err
			}
			for _, item := range hr.BibHoldingsRows {
				branchID, branchName, branchCode := resolveBranch(system, item.LocationName)
				h := domain.BookHolding{
					BranchID:   branchID,
					BranchName: branchName,
					CallNumber: item.CallNumber,
					Collection: item.CollectionName,
					Barcode:    item.Barcode,
					DueDate:    item.DueDate,
					RawStatus:  item.CircStatusName,
					Status:     NormalizeStatus(item.CircStatusName),
					Material:   NormalizeMaterial(item.MaterialTypeName),
				}
				finishHolding(&h, system, thirteen, branchCode)
				holdings = append(holdings, h)
			}
		}
		return holdings, nil
	})
}

func (a *Polaris) HealthCheck(ctx context.Context, system *domain.LibrarySystem) Health {
	started := time.Now()
	h := Health{CheckedAt: time.Now().UTC()}

	accessID, accessKey, err := credentials(a.cfg)
	if err != nil {
		h.Message = err.Error()
		return h
	}

	pingURL := a.cfg.BaseURL + papiPrefix + "/api"
	probeCtx, cancel := context.WithTimeout(ctx, a.cfg.Timeout())
	defer cancel()
	_, err = a.base.client.Get(probeCtx, system.ID, pingURL, papiHeaders(accessID, accessKey, pingURL))
	h.LatencyMs = time.Since(started).Milliseconds()
	if err != nil {
		h.Message = err.Error()
		return h
	}
	h.Healthy = true
	return h
}

// papiHeaders builds the PWS authorization and date headers for one GET.
func papiHeaders(accessID, accessKey, rawURL string) map[string]string {
	date := time.Now().UTC().Format(time.RFC1123)
	mac := hmac.New(sha1.New, []byte(accessKey))
	mac.Write([]byte("GET" + rawURL + date))
	sig := base64.StdEncoding.EncodeToString(mac.Sum(nil))
	return map[string]string{
		"Authorization": "PWS " + accessID + ":" + sig,
		"PolarisDate":   date,
	}
}
