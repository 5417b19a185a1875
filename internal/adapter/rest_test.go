package adapter

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arguspanoptes/argus-server/internal/domain"
)

const aspenFixture = `{
  "result": {
    "success": true,
    "holdings": [
      {
        "location": "Warman Branch",
        "locationCode": "WARMAN",
        "callNumber": "510.78 MOS",
        "status": "On Shelf",
        "format": "Book",
        "barcode": "31234000111111",
        "numHolds": 3,
        "available": true
      },
      {
        "location": "",
        "locationCode": "MARTEN",
        "callNumber": "510.78 MOS",
        "status": "",
        "dueDate": "2026-09-20",
        "format": "Large Print",
        "available": true
      }
    ]
  }
}`

func TestAspenSearch(t *testing.T) {
	var gotQuery map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/API/ItemAPI", r.URL.Path)
		gotQuery = map[string]string{
			"method": r.URL.Query().Get("method"),
			"isbn":   r.URL.Query().Get("isbn"),
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(aspenFixture))
	}))
	defer srv.Close()

	base, tracker := testBase(t)
	system := sruTestSystem(srv.URL, domain.ProtocolAspen)
	a := NewAspen(base, system.Adapters[0])

	result, err := a.Search(context.Background(), testISBN13, system)
	require.NoError(t, err)
	require.Len(t, result.Holdings, 2)
	assert.Equal(t, domain.ProtocolAspen, result.Protocol)
	assert.Equal(t, map[string]string{"method": "getItemAvailability", "isbn": testISBN13}, gotQuery)

	first := result.Holdings[0]
	assert.Equal(t, domain.BranchId("wheatland-warman"), first.BranchID)
	assert.Equal(t, "Warman Branch", first.BranchName)
	assert.Equal(t, "510.78 MOS", first.CallNumber)
	assert.Equal(t, "31234000111111", first.Barcode)
	assert.Equal(t, "On Shelf", first.RawStatus)
	assert.Equal(t, domain.StatusAvailable, first.Status)
	assert.Equal(t, domain.MaterialBook, first.Material)
	require.NotNil(t, first.HoldCount)
	assert.Equal(t, 3, *first.HoldCount)

	// An empty location falls back to the location code, and an empty
	// status with available=true is treated as "Available".
	second := result.Holdings[1]
	assert.Equal(t, domain.BranchId("wheatland-martensville"), second.BranchID)
	assert.Equal(t, "Available", second.RawStatus)
	assert.Equal(t, domain.StatusAvailable, second.Status)
	assert.Equal(t, domain.MaterialLargePrint, second.Material)
	assert.Nil(t, second.HoldCount)

	snap, ok := tracker.Snapshot(system.ID)
	require.True(t, ok)
	assert.Equal(t, 1, snap.SuccessCount)
}

const tlcFixture = `{
  "items": [
    {
      "branch": "Martensville Branch",
      "callNumber": "FIC KIN",
      "status": "Checked Out",
      "materialType": "DVD",
      "dueDate": "2026-09-03",
      "collection": "Adult Fiction",
      "copies": 2
    },
    {
      "branch": "WARMAN",
      "callNumber": "FIC KIN",
      "status": "Available",
      "materialType": "Book"
    }
  ]
}`

func TestTLCSearch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/search/availability", r.URL.Path)
		require.Equal(t, testISBN13, r.URL.Query().Get("isbn"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(tlcFixture))
	}))
	defer srv.Close()

	base, _ := testBase(t)
	system := sruTestSystem(srv.URL, domain.ProtocolTLC)
	a := NewTLC(base, system.Adapters[0])

	result, err := a.Search(context.Background(), testISBN13, system)
	require.NoError(t, err)
	require.Len(t, result.Holdings, 2)

	first := result.Holdings[0]
	assert.Equal(t, domain.BranchId("wheatland-martensville"), first.BranchID)
	assert.Equal(t, "Adult Fiction", first.Collection)
	assert.Equal(t, "2026-09-03", first.DueDate)
	assert.Equal(t, domain.StatusCheckedOut, first.Status)
	assert.Equal(t, domain.MaterialDVD, first.Material)
	require.NotNil(t, first.CopyCount)
	assert.Equal(t, 2, *first.CopyCount)
	assert.Equal(t, 2, first.Copies())

	// Branch codes resolve the same way names do, and a missing copy
	// count defaults to one.
	second := result.Holdings[1]
	assert.Equal(t, domain.BranchId("wheatland-warman"), second.BranchID)
	assert.Nil(t, second.CopyCount)
	assert.Equal(t, 1, second.Copies())
}

const apolloFixture = `{
  "copies": [
    {"location": "", "call": "PB ROW", "status": "In", "due": ""},
    {"location": "", "call": "PB ROW", "status": "Due 2026-09-12", "due": "2026-09-12"}
  ]
}`

func TestApolloSearchSingleBranchFallback(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/functions/availability", r.URL.Path)
		require.Equal(t, testISBN13, r.URL.Query().Get("isbn"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(apolloFixture))
	}))
	defer srv.Close()

	base, _ := testBase(t)
	system := &domain.LibrarySystem{
		ID:      "prairie",
		Name:    "Prairie Public Library",
		Enabled: true,
		Branches: []domain.Branch{
			{ID: "prairie-main", Name: "Main Library"},
		},
		Adapters: []domain.AdapterConfig{
			{Protocol: domain.ProtocolApollo, BaseURL: srv.URL, TimeoutMs: 5000},
		},
	}
	a := NewApollo(base, system.Adapters[0])

	result, err := a.Search(context.Background(), testISBN13, system)
	require.NoError(t, err)
	require.Len(t, result.Holdings, 2)

	// Apollo catalogs often omit the location for single-branch systems;
	// the sole configured branch is assumed.
	for _, h := range result.Holdings {
		assert.Equal(t, domain.BranchId("prairie-main"), h.BranchID)
		assert.Equal(t, "Main Library", h.BranchName)
		assert.Equal(t, domain.MaterialUnknown, h.Material)
	}
	assert.Equal(t, domain.StatusAvailable, result.Holdings[0].Status)
	assert.Equal(t, domain.StatusCheckedOut, result.Holdings[1].Status)
	assert.Equal(t, "2026-09-12", result.Holdings[1].DueDate)
}

func TestApolloSearchEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"copies": []}`))
	}))
	defer srv.Close()

	base, _ := testBase(t)
	system := sruTestSystem(srv.URL, domain.ProtocolApollo)
	a := NewApollo(base, system.Adapters[0])

	result, err := a.Search(context.Background(), testISBN13, system)
	require.NoError(t, err)
	assert.Empty(t, result.Holdings)
}
