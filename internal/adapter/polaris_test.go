package adapter

import (
	"context"
	"crypto/hmac"
	"crypto/sha1"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arguspanoptes/argus-server/internal/domain"
)

func polarisTestSystem(baseURL string) *domain.LibrarySystem {
	s := sruTestSystem(baseURL, domain.ProtocolPolaris)
	s.Adapters[0].ClientKeyEnvVar = "TEST_PAPI_ACCESS_ID"
	s.Adapters[0].ClientSecretEnvVar = "TEST_PAPI_ACCESS_KEY"
	return s
}

// verifyPAPIAuth recomputes the PWS signature from the request the server
// actually saw and checks it against the Authorization header.
func verifyPAPIAuth(t *testing.T, r *http.Request, baseURL, accessID, accessKey string) {
	t.Helper()
	auth := r.Header.Get("Authorization")
	require.True(t, strings.HasPrefix(auth, "PWS "+accessID+":"), "authorization %q", auth)
	date := r.Header.Get("PolarisDate")
	require.NotEmpty(t, date)
	parsed, err := time.Parse(time.RFC1123, date)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().UTC(), parsed, time.Minute)

	fullURL := baseURL + r.URL.Path
	if r.URL.RawQuery != "" {
		fullURL += "?" + r.URL.RawQuery
	}
	mac := hmac.New(sha1.New, []byte(accessKey))
	mac.Write([]byte("GET" + fullURL + date))
	want := base64.StdEncoding.EncodeToString(mac.Sum(nil))
	assert.Equal(t, "PWS "+accessID+":"+want, auth)
}

func TestPolarisSearch(t *testing.T) {
	t.Setenv("TEST_PAPI_ACCESS_ID", "argus")
	t.Setenv("TEST_PAPI_ACCESS_KEY", "papi-key-001")

	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		verifyPAPIAuth(t, r, srv.URL, "argus", "papi-key-001")
		w.Header().Set("Content-Type", "application/json")
		switch {
		case strings.HasSuffix(r.URL.Path, "/search/bibs/boolean"):
			require.Equal(t, "ISBN="+testISBN13, r.URL.Query().Get("q"))
			_, _ = w.Write([]byte(`{"PAPIErrorCode": 0, "BibSearchRows": [{"ControlNumber": 51234}]}`))
		case strings.HasSuffix(r.URL.Path, "/bib/51234/holdings"):
			_, _ = w.Write([]byte(`{
			  "PAPIErrorCode": 0,
			  "BibHoldingsRows": [
			    {
			      "LocationName": "Warman Branch",
			      "CollectionName": "Nonfiction",
			      "CallNumber": "641.5 OLI",
			      "CircStatusName": "In",
			      "Barcode": "31234000333333",
			      "MaterialType": "Book",
			      "Holdable": true
			    },
			    {
			      "LocationName": "Martensville Branch",
			      "CallNumber": "641.5 OLI",
			      "CircStatusName": "Checked Out",
			      "DueDate": "2026-09-08",
			      "MaterialType": "Audiobook CD"
			    }
			  ]
			}`))
		default:
			t.Errorf("unexpected request to %s", r.URL.Path)
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	base, tracker := testBase(t)
	system := polarisTestSystem(srv.URL)
	a := NewPolaris(base, system.Adapters[0])

	result, err := a.Search(context.Background(), testISBN13, system)
	require.NoError(t, err)
	require.Len(t, result.Holdings, 2)

	first := result.Holdings[0]
	assert.Equal(t, domain.BranchId("wheatland-warman"), first.BranchID)
	assert.Equal(t, "Nonfiction", first.Collection)
	assert.Equal(t, "31234000333333", first.Barcode)
	assert.Equal(t, domain.StatusAvailable, first.Status)
	assert.Equal(t, domain.MaterialBook, first.Material)

	second := result.Holdings[1]
	assert.Equal(t, domain.BranchId("wheatland-martensville"), second.BranchID)
	assert.Equal(t, domain.StatusCheckedOut, second.Status)
	assert.Equal(t, "2026-09-08", second.DueDate)
	assert.Equal(t, domain.MaterialAudiobook, second.Material)

	snap, ok := tracker.Snapshot(system.ID)
	require.True(t, ok)
	assert.Equal(t, 1, snap.SuccessCount)
}

func TestPolarisSearchNoMatches(t *testing.T) {
	t.Setenv("TEST_PAPI_ACCESS_ID", "argus")
	t.Setenv("TEST_PAPI_ACCESS_KEY", "papi-key-001")

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"PAPIErrorCode": 0, "BibSearchRows": []}`))
	}))
	defer srv.Close()

	base, _ := testBase(t)
	system := polarisTestSystem(srv.URL)
	a := NewPolaris(base, system.Adapters[0])

	result, err := a.Search(context.Background(), testISBN13, system)
	require.NoError(t, err)
	assert.Empty(t, result.Holdings)
}

func TestPAPIHeaders(t *testing.T) {
	headers := papiHeaders("argus", "papi-key-001", "https://papi.example.org/PAPIService/REST/public/v1/1033/100/1/api")
	require.Contains(t, headers, "Authorization")
	require.Contains(t, headers, "PolarisDate")
	assert.True(t, strings.HasPrefix(headers["Authorization"], "PWS argus:"))

	date := headers["PolarisDate"]
	mac := hmac.New(sha1.New, []byte("papi-key-001"))
	mac.Write([]byte("GET" + "https://papi.example.org/PAPIService/REST/public/v1/1033/100/1/api" + date))
	want := "PWS argus:" + base64.StdEncoding.EncodeToString(mac.Sum(nil))
	assert.Equal(t, want, headers["Authorization"])
}
